// Package orgchart builds nested tree views of the agent hierarchy and
// provides pure utilities over an already-built tree.
package orgchart

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nneessen/commissionTracker-sub026/internal/directory"
	"github.com/nneessen/commissionTracker-sub026/internal/hierarchy"
	"github.com/nneessen/commissionTracker-sub026/internal/observability"
	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

// Scope selects where an org chart is rooted.
type Scope string

const (
	// ScopeSelf roots the chart at the requested agent.
	ScopeSelf Scope = "self"
	// ScopeAgency roots the chart at the topmost upline above the
	// requested agent (the agency owner).
	ScopeAgency Scope = "agency"
	// ScopeAuto infers the root from the caller's role: admins see the
	// whole organization, everyone else their own subtree.
	ScopeAuto Scope = "auto"
)

// Node is one entry in a materialized org chart. Built once per request
// and never mutated in place; the tree holds no back-references.
type Node struct {
	Agent         *types.AgentNode         `json:"agent"`
	Children      []*Node                  `json:"children"`
	Metrics       *types.ProductionMetrics `json:"metrics,omitempty"`
	DirectReports int                      `json:"directReports"`
	TotalDownline int                      `json:"totalDownline"`
}

// Builder builds org chart trees from the directory.
type Builder struct {
	dir    directory.AgentDirectory
	refs   directory.ReferenceDirectory
	graph  *hierarchy.Graph
	logger *observability.Logger
	tracer trace.Tracer
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithTracer configures an OpenTelemetry tracer for build spans.
func WithTracer(tracer trace.Tracer) BuilderOption {
	return func(b *Builder) { b.tracer = tracer }
}

// NewBuilder creates a Builder. refs may be nil when metrics are never
// requested.
func NewBuilder(dir directory.AgentDirectory, refs directory.ReferenceDirectory, logger *observability.Logger, opts ...BuilderOption) *Builder {
	if logger == nil {
		logger = observability.Default("orgchart")
	}
	b := &Builder{
		dir:    dir,
		refs:   refs,
		graph:  hierarchy.NewGraph(dir, logger),
		logger: logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildOption configures one Build call.
type BuildOption func(*buildOptions)

type buildOptions struct {
	includeMetrics bool
	maxDepth       int
}

// WithMetrics annotates every node with production metrics, fetched in a
// single batched reference-directory call.
func WithMetrics() BuildOption {
	return func(o *buildOptions) { o.includeMetrics = true }
}

// WithMaxDepth bounds the tree depth below the root. Zero means the
// default guard depth.
func WithMaxDepth(depth int) BuildOption {
	return func(o *buildOptions) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// Build materializes the org chart for the given scope, rooted per the
// scope rules. Returns nil (and no error) when the scoped agent does not
// exist. The descent shares the hierarchy graph's cycle and depth guards,
// so a malformed hierarchy yields a truncated tree, not an error.
func (b *Builder) Build(ctx context.Context, scope Scope, scopeID types.ID, opts ...BuildOption) (*Node, error) {
	options := buildOptions{maxDepth: 100}
	for _, opt := range opts {
		opt(&options)
	}

	var span trace.Span
	if b.tracer != nil {
		ctx, span = b.tracer.Start(ctx, "orgchart.build",
			trace.WithAttributes(attribute.String("orgchart.scope", string(scope))),
		)
		defer span.End()
	}

	rootID, err := b.resolveRoot(ctx, scope, scopeID)
	if err != nil {
		return nil, err
	}
	if rootID == "" {
		return nil, nil
	}

	rootAgent, err := b.dir.GetByID(ctx, rootID)
	if err != nil {
		return nil, err
	}
	if rootAgent == nil {
		return nil, nil
	}

	// One flat bounded descent, then assemble the tree from upline
	// pointers. Children attach in the order the directory returned them.
	descendants := b.graph.Descend(ctx, rootID, options.maxDepth, 0)

	nodes := make(map[types.ID]*Node, len(descendants)+1)
	root := &Node{Agent: rootAgent}
	nodes[rootID] = root
	for _, agent := range descendants {
		nodes[agent.ID] = &Node{Agent: agent}
	}
	for _, agent := range descendants {
		parent, ok := nodes[agent.UplineID]
		if !ok {
			// Unreachable for a well-formed descent; skip rather than
			// invent a parent.
			continue
		}
		parent.Children = append(parent.Children, nodes[agent.ID])
	}

	countDownlines(root)

	if span != nil {
		span.SetAttributes(attribute.Int("orgchart.node_count", len(nodes)))
	}

	if options.includeMetrics {
		if err := b.attachMetrics(ctx, nodes); err != nil {
			// Metrics are an annotation, not the chart. Degrade without
			// them.
			b.logger.Warn(ctx, "org chart metrics unavailable", "root_id", rootID, "error", err)
		}
	}

	return root, nil
}

// resolveRoot applies the scope rules and returns the root agent id, or
// empty when there is nothing to build.
func (b *Builder) resolveRoot(ctx context.Context, scope Scope, scopeID types.ID) (types.ID, error) {
	// No agent given: chart the whole organization from its first root.
	if scopeID == "" {
		roots, err := b.dir.GetRoots(ctx)
		if err != nil {
			return "", err
		}
		if len(roots) == 0 {
			return "", nil
		}
		return roots[0].ID, nil
	}

	switch scope {
	case ScopeSelf:
		return scopeID, nil

	case ScopeAgency:
		return b.topmostUpline(ctx, scopeID)

	case ScopeAuto:
		caller, err := b.dir.GetByID(ctx, scopeID)
		if err != nil {
			return "", err
		}
		if caller == nil {
			return "", nil
		}
		if caller.HasRole(types.RoleAdmin) {
			return b.topmostUpline(ctx, scopeID)
		}
		return scopeID, nil

	default:
		return "", types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("unknown org chart scope %q", scope))
	}
}

// topmostUpline ascends from scopeID and returns the last agent in the
// chain, or scopeID itself when it has no upline.
func (b *Builder) topmostUpline(ctx context.Context, scopeID types.ID) (types.ID, error) {
	chain := b.graph.Ascend(ctx, scopeID, 100)
	if len(chain) == 0 {
		return scopeID, nil
	}
	return chain[len(chain)-1].ID, nil
}

func (b *Builder) attachMetrics(ctx context.Context, nodes map[types.ID]*Node) error {
	if b.refs == nil {
		return types.NewError(types.DIRECTORY_READ_FAILED, "no reference directory configured")
	}

	ids := make([]types.ID, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}

	metrics, err := b.refs.ProductionMetrics(ctx, ids)
	if err != nil {
		return err
	}

	for id, node := range nodes {
		if m, ok := metrics[id]; ok {
			copied := m
			node.Metrics = &copied
		}
	}
	return nil
}

// countDownlines fills DirectReports and TotalDownline bottom-up.
func countDownlines(node *Node) int {
	node.DirectReports = len(node.Children)
	total := len(node.Children)
	for _, child := range node.Children {
		total += countDownlines(child)
	}
	node.TotalDownline = total
	return total
}
