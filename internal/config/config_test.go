package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nexus/internal/model"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ".", cfg.DatabaseLocation)
	assert.Equal(t, DefaultDatabaseFile, cfg.DatabaseFile)
	assert.Equal(t, filepath.Join(".", "nexus.db"), cfg.DatabasePath())
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, model.MaxLimit, cfg.Query.MaxLimit)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FullFiles(t *testing.T) {
	for _, name := range []string{"full.yaml", "full.toml"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(filepath.Join("testdata", name))
			require.NoError(t, err)

			assert.Equal(t, &Config{
				DatabaseLocation: "/var/lib/nexus",
				DatabaseFile:     "telemetry.db",
				HTTP:             HTTPConfig{Host: "0.0.0.0", Port: 9000},
				Log:              LogConfig{Level: "debug", Format: "json"},
				Query:            QueryConfig{MaxLimit: 500},
			}, cfg)
			assert.Equal(t, "/var/lib/nexus/telemetry.db", cfg.DatabasePath())
		})
	}
}

func TestLoad_PartialGetsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "partial.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.HTTP.Port)
	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, DefaultDatabaseFile, cfg.DatabaseFile)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"unknown_key.yaml", "cache_size"},
		{"bad_level.toml", "level"},
		{"bad_port.yaml", "port"},
		{"bad_file.yaml", "database_file"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := Load(filepath.Join("testdata", tt.file))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config file")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "nexus.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "unsupported config format")

	path = filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: [unclosed"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(KeyDBLocation, "", "")
	fs.String(KeyDBFile, "", "")
	fs.String(KeyHost, "", "")
	fs.Int(KeyPort, 0, "")
	fs.String(KeyLogLevel, "", "")
	fs.String(KeyLogFormat, "", "")
	fs.Int(KeyMaxLimit, 0, "")
	return fs
}

func TestApplyOverrides_FlagsBeatFile(t *testing.T) {
	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--port", "9100", "--log-level", "warn"}))
	v, err := NewViper(fs)
	require.NoError(t, err)

	cfg, err := Load(filepath.Join("testdata", "full.yaml"))
	require.NoError(t, err)
	cfg.ApplyOverrides(v)

	assert.Equal(t, 9100, cfg.HTTP.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	// Unset flags leave file values alone.
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 500, cfg.Query.MaxLimit)
}

func TestApplyOverrides_Environment(t *testing.T) {
	t.Setenv("NEXUS_DB_LOCATION", "/data")
	t.Setenv("NEXUS_MAX_LIMIT", "50")

	v, err := NewViper(newFlags())
	require.NoError(t, err)

	cfg := Default()
	cfg.ApplyOverrides(v)
	assert.Equal(t, "/data", cfg.DatabaseLocation)
	assert.Equal(t, 50, cfg.Query.MaxLimit)
	assert.Equal(t, "/data/nexus.db", cfg.DatabasePath())
}

func TestApplyOverrides_FlagBeatsEnvironment(t *testing.T) {
	t.Setenv("NEXUS_HOST", "10.0.0.1")
	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--host", "10.0.0.2"}))

	v, err := NewViper(fs)
	require.NoError(t, err)

	cfg := Default()
	cfg.ApplyOverrides(v)
	assert.Equal(t, "10.0.0.2", cfg.HTTP.Host)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NEXUS_PORT=6060\nNEXUS_HOST=from-env\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("NEXUS_PORT=6161\nNEXUS_LOG_FORMAT=json\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("NEXUS_HOST", "preset")
	// Registered so t.Setenv restores them after godotenv sets them.
	t.Setenv("NEXUS_PORT", "")
	os.Unsetenv("NEXUS_PORT")
	t.Setenv("NEXUS_LOG_FORMAT", "")
	os.Unsetenv("NEXUS_LOG_FORMAT")

	LoadDotEnv()

	assert.Equal(t, "6060", os.Getenv("NEXUS_PORT"))
	assert.Equal(t, "preset", os.Getenv("NEXUS_HOST"))
	assert.Equal(t, "json", os.Getenv("NEXUS_LOG_FORMAT"))
}
