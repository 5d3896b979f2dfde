package directory

import (
	"context"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

// MemoryDirectory is a map-backed AgentDirectory and ReferenceDirectory.
// It backs unit tests, fixtures, and the CLI's snapshot mode. Safe for
// concurrent reads; mutation is only expected during setup.
type MemoryDirectory struct {
	mu          sync.RWMutex
	agents      map[types.ID]*types.AgentNode
	children    map[types.ID][]types.ID // upline id -> child ids, insertion order
	clients     map[types.ID]*Client
	policies    map[types.ID]*Policy
	commissions map[types.ID]*Commission

	// FailFetches forces every read to fail with DIRECTORY_READ_FAILED.
	// Partial-failure tests flip this mid-traversal.
	FailFetches bool

	// FailAfterCalls fails reads once this many calls have succeeded.
	// Negative disables the trip wire.
	FailAfterCalls int

	calls int
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		agents:         make(map[types.ID]*types.AgentNode),
		children:       make(map[types.ID][]types.ID),
		clients:        make(map[types.ID]*Client),
		policies:       make(map[types.ID]*Policy),
		commissions:    make(map[types.ID]*Commission),
		FailAfterCalls: -1,
	}
}

// Snapshot is the YAML-serializable form of a directory: the fixture
// format tests and the CLI load.
type Snapshot struct {
	Agents      []*types.AgentNode `yaml:"agents"`
	Clients     []Client           `yaml:"clients,omitempty"`
	Policies    []Policy           `yaml:"policies,omitempty"`
	Commissions []Commission       `yaml:"commissions,omitempty"`
}

// LoadSnapshot reads a YAML snapshot file into a new MemoryDirectory.
func LoadSnapshot(path string) (*MemoryDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.SNAPSHOT_LOAD_FAILED, "failed to read snapshot file", err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, types.WrapError(types.SNAPSHOT_LOAD_FAILED, "failed to parse snapshot file", err)
	}

	dir := NewMemoryDirectory()
	for _, agent := range snap.Agents {
		dir.AddAgent(agent)
	}
	for i := range snap.Clients {
		dir.AddClient(&snap.Clients[i])
	}
	for i := range snap.Policies {
		dir.AddPolicy(&snap.Policies[i])
	}
	for i := range snap.Commissions {
		dir.AddCommission(&snap.Commissions[i])
	}
	return dir, nil
}

// AddAgent registers an agent and indexes it under its upline.
func (d *MemoryDirectory) AddAgent(agent *types.AgentNode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.agents[agent.ID] = agent
	if agent.UplineID != "" {
		d.children[agent.UplineID] = append(d.children[agent.UplineID], agent.ID)
	}
}

// AddClient registers a client.
func (d *MemoryDirectory) AddClient(c *Client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clients[c.ID] = c
}

// AddPolicy registers a policy.
func (d *MemoryDirectory) AddPolicy(p *Policy) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.policies[p.ID] = p
}

// AddCommission registers a commission.
func (d *MemoryDirectory) AddCommission(c *Commission) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commissions[c.ID] = c
}

func (d *MemoryDirectory) checkFailure() error {
	if d.FailFetches {
		return types.NewError(types.DIRECTORY_READ_FAILED, "directory read failed (forced)")
	}
	if d.FailAfterCalls >= 0 && d.calls >= d.FailAfterCalls {
		return types.NewError(types.DIRECTORY_READ_FAILED, "directory read failed (forced after calls)")
	}
	d.calls++
	return nil
}

// GetByID implements AgentDirectory.
func (d *MemoryDirectory) GetByID(ctx context.Context, id types.ID) (*types.AgentNode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkFailure(); err != nil {
		return nil, err
	}
	return d.agents[id], nil
}

// GetChildrenOf implements AgentDirectory. Children are returned grouped
// by parent in parent-argument order, then insertion order within a
// parent, so traversal output is deterministic for a fixed snapshot.
func (d *MemoryDirectory) GetChildrenOf(ctx context.Context, ids []types.ID) ([]*types.AgentNode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkFailure(); err != nil {
		return nil, err
	}

	var out []*types.AgentNode
	for _, id := range ids {
		for _, childID := range d.children[id] {
			if child, ok := d.agents[childID]; ok {
				out = append(out, child)
			}
		}
	}
	return out, nil
}

// GetByRole implements AgentDirectory. Results are ordered by agent id for
// determinism, matching the stable ordering the SQL backend produces.
func (d *MemoryDirectory) GetByRole(ctx context.Context, roles []string, limit int) ([]*types.AgentNode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkFailure(); err != nil {
		return nil, err
	}

	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}

	var out []*types.AgentNode
	for _, agent := range d.agents {
		if !agent.Addressable() {
			continue
		}
		for _, r := range agent.Roles {
			if roleSet[r] {
				out = append(out, agent)
				break
			}
		}
	}
	sortAgents(out)
	return clip(out, limit), nil
}

// GetByPipelinePhase implements AgentDirectory.
func (d *MemoryDirectory) GetByPipelinePhase(ctx context.Context, phaseIDs []types.ID, statuses []string, limit int) ([]*types.AgentNode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkFailure(); err != nil {
		return nil, err
	}

	phaseSet := make(map[types.ID]bool, len(phaseIDs))
	for _, p := range phaseIDs {
		phaseSet[p] = true
	}
	statusSet := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		statusSet[s] = true
	}

	var out []*types.AgentNode
	for _, agent := range d.agents {
		if !agent.Addressable() || !phaseSet[agent.PipelinePhaseID] {
			continue
		}
		if len(statusSet) > 0 && !statusSet[agent.PipelineStatus] {
			continue
		}
		out = append(out, agent)
	}
	sortAgents(out)
	return clip(out, limit), nil
}

// GetRoots implements AgentDirectory.
func (d *MemoryDirectory) GetRoots(ctx context.Context) ([]*types.AgentNode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkFailure(); err != nil {
		return nil, err
	}

	var out []*types.AgentNode
	for _, agent := range d.agents {
		if agent.UplineID == "" {
			out = append(out, agent)
		}
	}
	sortAgents(out)
	return out, nil
}

// PolicyAgent implements ReferenceDirectory.
func (d *MemoryDirectory) PolicyAgent(ctx context.Context, policyID types.ID) (*types.AgentNode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkFailure(); err != nil {
		return nil, err
	}

	policy, ok := d.policies[policyID]
	if !ok {
		return nil, nil
	}
	return d.agents[policy.AgentID], nil
}

// PolicyClient implements ReferenceDirectory.
func (d *MemoryDirectory) PolicyClient(ctx context.Context, policyID types.ID) (*types.Recipient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkFailure(); err != nil {
		return nil, err
	}

	policy, ok := d.policies[policyID]
	if !ok {
		return nil, nil
	}
	client, ok := d.clients[policy.ClientID]
	if !ok || client.Email == "" {
		return nil, nil
	}
	// Clients are not users: no agent id.
	return &types.Recipient{Email: client.Email, Name: client.Name}, nil
}

// CommissionPolicyID implements ReferenceDirectory.
func (d *MemoryDirectory) CommissionPolicyID(ctx context.Context, commissionID types.ID) (types.ID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkFailure(); err != nil {
		return "", err
	}

	commission, ok := d.commissions[commissionID]
	if !ok {
		return "", nil
	}
	return commission.PolicyID, nil
}

// ProductionMetrics implements ReferenceDirectory.
func (d *MemoryDirectory) ProductionMetrics(ctx context.Context, agentIDs []types.ID) (map[types.ID]types.ProductionMetrics, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkFailure(); err != nil {
		return nil, err
	}

	wanted := make(map[types.ID]bool, len(agentIDs))
	for _, id := range agentIDs {
		wanted[id] = true
	}

	out := make(map[types.ID]types.ProductionMetrics)
	for _, p := range d.policies {
		if !wanted[p.AgentID] {
			continue
		}
		m := out[p.AgentID]
		m.PoliciesWritten++
		if p.Status == "active" {
			m.PoliciesActive++
			m.TotalPremium += p.AnnualPremium
		}
		out[p.AgentID] = m
	}
	for _, c := range d.commissions {
		if !wanted[c.AgentID] {
			continue
		}
		m := out[c.AgentID]
		m.TotalCommission += c.Amount
		out[c.AgentID] = m
	}
	return out, nil
}

func sortAgents(agents []*types.AgentNode) {
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
}

func clip(agents []*types.AgentNode, limit int) []*types.AgentNode {
	if limit > 0 && len(agents) > limit {
		return agents[:limit]
	}
	return agents
}
