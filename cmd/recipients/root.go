package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nneessen/commissionTracker-sub026/internal/config"
	"github.com/nneessen/commissionTracker-sub026/internal/directory"
	"github.com/nneessen/commissionTracker-sub026/internal/observability"
)

var (
	configFile   string
	snapshotPath string
	logLevel     string
	logFormat    string

	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "recipients",
	Short: "Recipient resolution engine for commission workflows",
	Long: `Resolves workflow recipient specs against the agent directory:
org-hierarchy traversals, role queries, policy and commission lookups,
literal addresses, and dynamic context fields.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// setup loads configuration and wires the logger before any subcommand
// runs. The version command works without a config file.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	var err error
	loader := config.NewLoader(config.NewValidator())
	cfg, err = loader.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if snapshotPath != "" {
		cfg.Directory.Backend = "memory"
		cfg.Directory.SnapshotPath = snapshotPath
	}

	handler := observability.NewHandler(os.Stderr, cfg.Logging.Format, cfg.Logging.Level)
	logger = observability.NewLogger(handler, "recipients")
	return nil
}

// openDirectory builds the configured directory backend. The memory
// backend also serves as the reference directory; sqlite does both as
// well, while neo4j covers agents only and pairs with a sqlite reference
// store when one is configured.
func openDirectory(ctx context.Context) (directory.AgentDirectory, directory.ReferenceDirectory, func(), error) {
	switch cfg.Directory.Backend {
	case "memory":
		mem, err := directory.LoadSnapshot(cfg.Directory.SnapshotPath)
		if err != nil {
			return nil, nil, nil, err
		}
		return mem, mem, func() {}, nil

	case "sqlite":
		db, err := directory.OpenSQLite(directory.SQLiteConfig(cfg.Directory.SQLite))
		if err != nil {
			return nil, nil, nil, err
		}
		return db, db, func() { db.Close() }, nil

	case "neo4j":
		graph, err := directory.NewNeo4jDirectory(directory.Neo4jConfig(cfg.Directory.Neo4j))
		if err != nil {
			return nil, nil, nil, err
		}
		if err := graph.Connect(ctx); err != nil {
			return nil, nil, nil, err
		}
		closer := func() { _ = graph.Close(ctx) }

		if cfg.Directory.SQLite.Path != "" {
			db, err := directory.OpenSQLite(directory.SQLiteConfig(cfg.Directory.SQLite))
			if err != nil {
				_ = graph.Close(ctx)
				return nil, nil, nil, err
			}
			return graph, db, func() { db.Close(); _ = graph.Close(ctx) }, nil
		}
		return graph, nil, closer, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown directory backend %q", cfg.Directory.Backend)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&snapshotPath, "directory", "d", "", "YAML directory snapshot (overrides the configured backend)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(orgchartCmd)
	rootCmd.AddCommand(versionCmd)
}
