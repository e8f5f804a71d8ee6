package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NEXUS_PORT.
const EnvPrefix = "nexus"

// Override keys. Each is both a flag name and, upper-cased with '-'
// replaced by '_', an environment variable after EnvPrefix.
const (
	KeyDBLocation = "db-location"
	KeyDBFile     = "db-file"
	KeyHost       = "host"
	KeyPort       = "port"
	KeyLogLevel   = "log-level"
	KeyLogFormat  = "log-format"
	KeyMaxLimit   = "max-limit"
)

// LoadDotEnv loads .env then .env.local from the working directory.
// Missing files are ignored and existing variables are never overwritten.
func LoadDotEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// NewViper returns a viper bound to the NEXUS_ environment and to flags.
func NewViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// ApplyOverrides copies every key explicitly set in v onto c.
// Flags left at their default do not override the file.
func (c *Config) ApplyOverrides(v *viper.Viper) {
	if v.IsSet(KeyDBLocation) {
		c.DatabaseLocation = v.GetString(KeyDBLocation)
	}
	if v.IsSet(KeyDBFile) {
		c.DatabaseFile = v.GetString(KeyDBFile)
	}
	if v.IsSet(KeyHost) {
		c.HTTP.Host = v.GetString(KeyHost)
	}
	if v.IsSet(KeyPort) {
		c.HTTP.Port = v.GetInt(KeyPort)
	}
	if v.IsSet(KeyLogLevel) {
		c.Log.Level = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyLogFormat) {
		c.Log.Format = v.GetString(KeyLogFormat)
	}
	if v.IsSet(KeyMaxLimit) {
		c.Query.MaxLimit = v.GetInt(KeyMaxLimit)
	}
	c.setDefaults()
}
