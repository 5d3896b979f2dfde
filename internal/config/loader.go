package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

// Loader loads engine configuration from YAML files.
type Loader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

type viperLoader struct {
	validator Validator
}

// NewLoader creates a Loader backed by viper.
func NewLoader(validator Validator) Loader {
	return &viperLoader{validator: validator}
}

// Load reads, env-interpolates, and validates the config file at path.
func (l *viperLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to unmarshal config", err)
	}

	interpolate(cfg)

	if err := l.validator.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadWithDefaults loads the file at path, or returns DefaultConfig when
// the file does not exist.
func (l *viperLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := l.validator.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return l.Load(path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolate replaces ${VAR} references in string-valued fields with
// environment variable values. Unset variables are left as-is.
func interpolate(cfg *Config) {
	cfg.Directory.SQLite.Path = interpolateString(cfg.Directory.SQLite.Path)
	cfg.Directory.SnapshotPath = interpolateString(cfg.Directory.SnapshotPath)
	cfg.Directory.Neo4j.URI = interpolateString(cfg.Directory.Neo4j.URI)
	cfg.Directory.Neo4j.Username = interpolateString(cfg.Directory.Neo4j.Username)
	cfg.Directory.Neo4j.Password = interpolateString(cfg.Directory.Neo4j.Password)
	cfg.Directory.Neo4j.Database = interpolateString(cfg.Directory.Neo4j.Database)
	cfg.Logging.Level = interpolateString(cfg.Logging.Level)
	cfg.Logging.Format = interpolateString(cfg.Logging.Format)
}

func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if value := os.Getenv(name); value != "" {
			return value
		}
		return match
	})
}
