// Package hierarchy provides bounded, cycle-safe traversal over the
// upline/downline relation implied by each agent's upline pointer. The
// graph is never materialized: every step is an adjacency query against
// the directory, batched by traversal frontier.
package hierarchy

import (
	"context"

	"github.com/nneessen/commissionTracker-sub026/internal/directory"
	"github.com/nneessen/commissionTracker-sub026/internal/observability"
	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

// Graph exposes ascent and descent over the upline relation. Stateless;
// safe for concurrent use.
type Graph struct {
	dir    directory.AgentDirectory
	logger *observability.Logger
}

// NewGraph creates a Graph over the given directory.
func NewGraph(dir directory.AgentDirectory, logger *observability.Logger) *Graph {
	if logger == nil {
		logger = observability.Default("hierarchy")
	}
	return &Graph{dir: dir, logger: logger}
}

// Ascend walks upline pointers starting at, but excluding, startID and
// returns the chain nearest-first. It stops at the first of: no upline,
// maxDepth nodes emitted, or a node already visited in this walk.
//
// A revisit means the hierarchy contains a cycle; that is a data-integrity
// problem in the directory, logged as a warning, never an error here. A
// failed fetch mid-walk likewise ends the walk with whatever was
// accumulated. Ascend never returns an error.
func (g *Graph) Ascend(ctx context.Context, startID types.ID, maxDepth int) []*types.AgentNode {
	chain := []*types.AgentNode{}
	if startID == "" || maxDepth <= 0 {
		return chain
	}

	visited := map[types.ID]bool{startID: true}

	current, err := g.dir.GetByID(ctx, startID)
	if err != nil {
		g.logger.Warn(ctx, "ascend aborted: start fetch failed",
			"start_id", startID, "error", err)
		return chain
	}
	if current == nil {
		return chain
	}

	for depth := 0; depth < maxDepth; depth++ {
		if current.UplineID == "" {
			break
		}
		if visited[current.UplineID] {
			g.logger.Warn(ctx, "cycle detected in upline chain",
				"start_id", startID, "agent_id", current.ID, "upline_id", current.UplineID)
			break
		}

		upline, err := g.dir.GetByID(ctx, current.UplineID)
		if err != nil {
			g.logger.Warn(ctx, "ascend stopped: upline fetch failed",
				"start_id", startID, "depth", depth, "error", err)
			break
		}
		if upline == nil {
			break
		}

		visited[upline.ID] = true
		chain = append(chain, upline)
		current = upline
	}

	return chain
}

// Descend walks the downline subtree of startID breadth-first, excluding
// startID itself. Each level's children are fetched in one batched
// directory call for the whole frontier. It stops at maxDepth levels,
// maxCount nodes collected, or an empty frontier; a visited set guards
// against cycles and diamonds. Zero maxDepth or maxCount means no bound
// on that axis.
//
// A failed batch fetch at level K terminates the walk and returns
// everything accumulated through level K-1. Descend never returns an
// error.
func (g *Graph) Descend(ctx context.Context, startID types.ID, maxDepth, maxCount int) []*types.AgentNode {
	collected := []*types.AgentNode{}
	if startID == "" {
		return collected
	}

	visited := map[types.ID]bool{startID: true}
	frontier := []types.ID{startID}

	for depth := 0; len(frontier) > 0; depth++ {
		if maxDepth > 0 && depth >= maxDepth {
			break
		}

		children, err := g.dir.GetChildrenOf(ctx, frontier)
		if err != nil {
			g.logger.Warn(ctx, "descend stopped: frontier fetch failed",
				"start_id", startID, "depth", depth, "frontier_size", len(frontier), "error", err)
			break
		}

		next := make([]types.ID, 0, len(children))
		for _, child := range children {
			if visited[child.ID] {
				// Revisits within a level mean a cycle or diamond in the
				// upline data; keep going without re-entering.
				g.logger.Warn(ctx, "cycle detected in downline",
					"start_id", startID, "agent_id", child.ID, "depth", depth)
				continue
			}
			visited[child.ID] = true
			collected = append(collected, child)
			next = append(next, child.ID)

			if maxCount > 0 && len(collected) >= maxCount {
				return collected
			}
		}

		frontier = next
	}

	return collected
}
