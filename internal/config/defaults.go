package config

import "time"

// Default bounds. DefaultMaxRecipients matches the workflow system's
// historical cap; MaxUplineDepth matches the deepest contract chain the
// product supports.
const (
	DefaultMaxRecipients = 50
	DefaultUplineDepth   = 10
	DefaultDownlineDepth = 100
)

// DefaultConfig returns the configuration used when no config file exists:
// in-memory directory, standard caps, text logging at info.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			DefaultMaxRecipients: DefaultMaxRecipients,
			MaxUplineDepth:       DefaultUplineDepth,
			MaxDownlineDepth:     DefaultDownlineDepth,
		},
		Directory: DirectoryConfig{
			Backend: "memory",
			SQLite: SQLiteConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				ConnMaxLifetime: time.Hour,
				BusyTimeout:     5 * time.Second,
			},
			Neo4j: Neo4jConfig{
				URI:                   "bolt://localhost:7687",
				Username:              "neo4j",
				MaxConnectionPoolSize: 50,
				ConnectionTimeout:     30 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
