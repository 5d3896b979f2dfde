package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nneessen/commissionTracker-sub026/internal/recipient"
)

var (
	specFile    string
	contextFile string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a recipient spec against the configured directory",
	Long: `Reads a recipient spec and an event context from YAML files,
resolves them against the configured directory backend, and prints the
resulting recipient list as JSON.`,
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var rawSpec map[string]any
	if err := readYAML(specFile, &rawSpec); err != nil {
		return fmt.Errorf("reading spec: %w", err)
	}
	spec, err := recipient.DecodeSpec(rawSpec)
	if err != nil {
		return err
	}

	var evctx recipient.EventContext
	if contextFile != "" {
		if err := readYAML(contextFile, &evctx); err != nil {
			return fmt.Errorf("reading event context: %w", err)
		}
	}

	dir, refs, closer, err := openDirectory(ctx)
	if err != nil {
		return err
	}
	defer closer()

	resolver := recipient.NewResolver(dir, refs,
		recipient.WithLogger(logger),
		recipient.WithEngineConfig(cfg.Engine),
	)

	result, err := resolver.Resolve(ctx, spec, evctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

func init() {
	resolveCmd.Flags().StringVarP(&specFile, "spec", "s", "", "Path to recipient spec YAML")
	resolveCmd.Flags().StringVarP(&contextFile, "context", "x", "", "Path to event context YAML")
	resolveCmd.MarkFlagRequired("spec")
}
