package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

func TestValidateDefaults(t *testing.T) {
	assert.NoError(t, NewValidator().Validate(DefaultConfig()))
}

func TestValidateNil(t *testing.T) {
	err := NewValidator().Validate(nil)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CONFIG_VALIDATION_FAILED))
}

func TestValidateFieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{
			name:    "zero max recipients",
			mutate:  func(c *Config) { c.Engine.DefaultMaxRecipients = 0 },
			message: "engine.default_max_recipients",
		},
		{
			name:    "negative upline depth",
			mutate:  func(c *Config) { c.Engine.MaxUplineDepth = -1 },
			message: "engine.max_upline_depth",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Directory.Backend = "postgres" },
			message: "directory.backend",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			message: "logging.level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := NewValidator().Validate(cfg)
			require.Error(t, err)
			assert.True(t, types.IsCode(err, types.CONFIG_VALIDATION_FAILED))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidateBackendRequirements(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Directory.Backend = "sqlite"
	cfg.Directory.SQLite.Path = ""

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory.sqlite.path")

	cfg = DefaultConfig()
	cfg.Directory.Backend = "neo4j"
	cfg.Directory.Neo4j.URI = ""

	err = NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory.neo4j.uri")
}

func TestCamelToSnake(t *testing.T) {
	assert.Equal(t, "max_upline_depth", camelToSnake("MaxUplineDepth"))
	assert.Equal(t, "engine", camelToSnake("Engine"))
	assert.Equal(t, "s_q_lite", camelToSnake("SQLite"))
}
