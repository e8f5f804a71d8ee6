package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nexus/internal/config"
	"github.com/roach88/nexus/internal/store"
)

// loadConfig resolves the config file, environment and flags for cmd.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to bind flags", err)
	}

	path := opts.ConfigPath
	if path == "" {
		path = v.GetString("config")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	cfg.ApplyOverrides(v)
	return cfg, nil
}

// newLogger builds the slog logger selected by cfg. --verbose forces debug.
func newLogger(cfg *config.Config, verbose bool, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	hopts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// openStore creates the database directory if needed and opens the store,
// applying pending migrations.
func openStore(cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	if err := os.MkdirAll(cfg.DatabaseLocation, 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create database directory", err)
	}
	path := cfg.DatabasePath()
	logger.Info("opening database", "path", path)
	st, err := store.Open(path, store.WithLogger(logger))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func formatterFor(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
