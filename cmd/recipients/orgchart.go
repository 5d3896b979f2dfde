package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nneessen/commissionTracker-sub026/internal/orgchart"
	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

var (
	orgchartRoot    string
	orgchartScope   string
	orgchartMetrics bool
	orgchartDepth   int
	orgchartFlat    bool
)

var orgchartCmd = &cobra.Command{
	Use:   "orgchart",
	Short: "Build and print an org-hierarchy tree",
	Long: `Builds the org chart rooted at an agent and prints it as JSON.
With --flat the tree is emitted as a pre-order list of rows instead.`,
	RunE: runOrgchart,
}

func runOrgchart(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	scope := orgchart.Scope(orgchartScope)
	switch scope {
	case orgchart.ScopeSelf, orgchart.ScopeAgency, orgchart.ScopeAuto:
	default:
		return fmt.Errorf("unknown scope %q", orgchartScope)
	}

	dir, refs, closer, err := openDirectory(ctx)
	if err != nil {
		return err
	}
	defer closer()

	builder := orgchart.NewBuilder(dir, refs, logger)

	opts := []orgchart.BuildOption{orgchart.WithMaxDepth(orgchartDepth)}
	if orgchartMetrics {
		opts = append(opts, orgchart.WithMetrics())
	}

	root, err := builder.Build(ctx, scope, types.ID(orgchartRoot), opts...)
	if err != nil {
		return err
	}
	if root == nil {
		if orgchartRoot == "" {
			return fmt.Errorf("directory has no root agent")
		}
		return fmt.Errorf("agent %q not found", orgchartRoot)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if orgchartFlat {
		return enc.Encode(orgchart.Flatten(root))
	}
	return enc.Encode(root)
}

func init() {
	orgchartCmd.Flags().StringVarP(&orgchartRoot, "root", "r", "", "Agent id to scope the chart to (default: organization root)")
	orgchartCmd.Flags().StringVar(&orgchartScope, "scope", string(orgchart.ScopeAuto), "Chart scope (self, agency, auto)")
	orgchartCmd.Flags().BoolVar(&orgchartMetrics, "metrics", false, "Attach production metrics to each node")
	orgchartCmd.Flags().IntVar(&orgchartDepth, "depth", 0, "Maximum tree depth (0 = configured default)")
	orgchartCmd.Flags().BoolVar(&orgchartFlat, "flat", false, "Emit a flattened pre-order row list")
}
