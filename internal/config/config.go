package config

import "time"

// Config is the full engine configuration.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine" validate:"required"`
	Directory DirectoryConfig `mapstructure:"directory" validate:"required"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// EngineConfig bounds resolution fan-out and hierarchy traversal.
type EngineConfig struct {
	// DefaultMaxRecipients caps a resolution when the spec omits its own
	// maxRecipients.
	DefaultMaxRecipients int `mapstructure:"default_max_recipients" validate:"min=1"`

	// MaxUplineDepth bounds upline_chain ascent. The upline relation is a
	// single-parent chain, so this is also the maximum number of directory
	// reads one ascent can issue.
	MaxUplineDepth int `mapstructure:"max_upline_depth" validate:"min=1"`

	// MaxDownlineDepth guards "unbounded" downline descent against
	// pathological hierarchies. The visited-set guard already prevents
	// loops; this bounds legitimate but absurd depth.
	MaxDownlineDepth int `mapstructure:"max_downline_depth" validate:"min=1"`
}

// DirectoryConfig selects and configures the agent directory backend.
type DirectoryConfig struct {
	// Backend is one of: sqlite, neo4j, memory.
	Backend string `mapstructure:"backend" validate:"oneof=sqlite neo4j memory"`

	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Neo4j  Neo4jConfig  `mapstructure:"neo4j"`

	// SnapshotPath is a YAML directory snapshot for the memory backend.
	SnapshotPath string `mapstructure:"snapshot_path"`
}

// SQLiteConfig configures the SQLite directory backend.
type SQLiteConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// Neo4jConfig configures the Neo4j directory backend.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	Username              string        `mapstructure:"username"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}
