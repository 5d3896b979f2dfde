// Package directory provides read-only access to the organization's agent
// records and the reference data (policies, clients, commissions) that
// event-context recipient strategies resolve against.
//
// The engine never writes through these interfaces; the directory is owned
// and kept consistent by an external system. Three backends exist: SQLite
// (the product database), Neo4j (hierarchy mirrored into a graph store),
// and an in-memory snapshot used by tests and the CLI.
package directory

import (
	"context"

	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

// AgentDirectory is the engine's window onto the organization's people.
// Implementations must be safe for concurrent use.
//
// Absent records are reported as (nil, nil), not as errors: "nobody found"
// is a normal resolution outcome. Errors are reserved for the store itself
// failing, and carry DIRECTORY_READ_FAILED or, when the store is
// unreachable, DIRECTORY_UNAVAILABLE.
type AgentDirectory interface {
	// GetByID fetches one agent by id.
	GetByID(ctx context.Context, id types.ID) (*types.AgentNode, error)

	// GetChildrenOf fetches the direct reports of every agent in ids in a
	// single call. Traversals pass a whole frontier at once; per-node
	// fetching is an anti-pattern this signature exists to prevent.
	GetChildrenOf(ctx context.Context, ids []types.ID) ([]*types.AgentNode, error)

	// GetByRole fetches active, addressable agents whose roles intersect
	// the given set, up to limit (0 means no limit).
	GetByRole(ctx context.Context, roles []string, limit int) ([]*types.AgentNode, error)

	// GetByPipelinePhase fetches active, addressable agents in any of the
	// given pipeline phases, optionally filtered by status, up to limit.
	GetByPipelinePhase(ctx context.Context, phaseIDs []types.ID, statuses []string, limit int) ([]*types.AgentNode, error)

	// GetRoots fetches agents with no upline. Org charts scoped to the
	// whole organization are rooted here.
	GetRoots(ctx context.Context) ([]*types.AgentNode, error)
}

// ReferenceDirectory resolves event-context references into people. Like
// AgentDirectory it is read-only and reports absence as (nil, nil) or
// ("", nil).
type ReferenceDirectory interface {
	// PolicyAgent returns the agent who owns the given policy.
	PolicyAgent(ctx context.Context, policyID types.ID) (*types.AgentNode, error)

	// PolicyClient returns the client on the given policy as a recipient.
	// Clients are not users: the recipient carries no agent id.
	PolicyClient(ctx context.Context, policyID types.ID) (*types.Recipient, error)

	// CommissionPolicyID returns the policy a commission was earned on.
	CommissionPolicyID(ctx context.Context, commissionID types.ID) (types.ID, error)

	// ProductionMetrics aggregates the book of business for the given
	// agents in one call, keyed by agent id.
	ProductionMetrics(ctx context.Context, agentIDs []types.ID) (map[types.ID]types.ProductionMetrics, error)
}

// Client is a policy holder. Reference data only; clients never appear in
// the hierarchy.
type Client struct {
	ID    types.ID `yaml:"id"`
	Name  string   `yaml:"name"`
	Email string   `yaml:"email"`
}

// Policy links an agent to a client. Only the fields recipient resolution
// and org chart metrics need.
type Policy struct {
	ID            types.ID `yaml:"id"`
	AgentID       types.ID `yaml:"agent_id"`
	ClientID      types.ID `yaml:"client_id"`
	Status        string   `yaml:"status"`
	AnnualPremium float64  `yaml:"annual_premium"`
}

// Commission is one commission record, linked to the policy it was earned
// on.
type Commission struct {
	ID       types.ID `yaml:"id"`
	PolicyID types.ID `yaml:"policy_id"`
	AgentID  types.ID `yaml:"agent_id"`
	Amount   float64  `yaml:"amount"`
	Status   string   `yaml:"status"`
}

// idStrings converts typed ids to the plain strings backend drivers take
// as query parameters.
func idStrings(ids []types.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
