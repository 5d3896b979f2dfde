package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

func seedAgent(dir *MemoryDirectory, id, uplineID types.ID, roles ...string) {
	if len(roles) == 0 {
		roles = []string{"agent"}
	}
	dir.AddAgent(&types.AgentNode{
		ID:       id,
		UplineID: uplineID,
		Roles:    roles,
		Email:    id.String() + "@example.com",
		IsActive: true,
	})
}

func TestMemoryGetByID(t *testing.T) {
	dir := NewMemoryDirectory()
	seedAgent(dir, "a", "")

	ctx := context.Background()

	agent, err := dir.GetByID(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, agent)
	assert.Equal(t, "a@example.com", agent.Email)

	// Absent is nil, not an error.
	agent, err = dir.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, agent)
}

func TestMemoryGetChildrenOf(t *testing.T) {
	dir := NewMemoryDirectory()
	seedAgent(dir, "p1", "")
	seedAgent(dir, "p2", "")
	seedAgent(dir, "c1", "p1")
	seedAgent(dir, "c2", "p1")
	seedAgent(dir, "c3", "p2")

	children, err := dir.GetChildrenOf(context.Background(), []types.ID{"p1", "p2"})
	require.NoError(t, err)

	var ids []string
	for _, c := range children {
		ids = append(ids, c.ID.String())
	}
	assert.ElementsMatch(t, []string{"c1", "c2", "c3"}, ids)
}

func TestMemoryGetByRole(t *testing.T) {
	dir := NewMemoryDirectory()
	seedAgent(dir, "m1", "", "manager")
	seedAgent(dir, "mt", "", "manager", "trainer")
	seedAgent(dir, "a1", "", "agent")

	inactive := &types.AgentNode{ID: "m2", Roles: []string{"manager"}, Email: "m2@example.com"}
	dir.AddAgent(inactive)

	agents, err := dir.GetByRole(context.Background(), []string{"manager"}, 0)
	require.NoError(t, err)

	var ids []string
	for _, a := range agents {
		ids = append(ids, a.ID.String())
	}
	assert.ElementsMatch(t, []string{"m1", "mt"}, ids, "inactive agents never match")

	agents, err = dir.GetByRole(context.Background(), []string{"manager", "trainer"}, 1)
	require.NoError(t, err)
	assert.Len(t, agents, 1, "limit applies")
}

func TestMemoryGetByPipelinePhase(t *testing.T) {
	dir := NewMemoryDirectory()
	a := &types.AgentNode{ID: "r1", Roles: []string{"agent"}, Email: "r1@example.com", IsActive: true, PipelinePhaseID: "p1", PipelineStatus: "in_progress"}
	b := &types.AgentNode{ID: "r2", Roles: []string{"agent"}, Email: "r2@example.com", IsActive: true, PipelinePhaseID: "p1", PipelineStatus: "completed"}
	c := &types.AgentNode{ID: "r3", Roles: []string{"agent"}, Email: "r3@example.com", IsActive: true, PipelinePhaseID: "p2", PipelineStatus: "in_progress"}
	dir.AddAgent(a)
	dir.AddAgent(b)
	dir.AddAgent(c)

	agents, err := dir.GetByPipelinePhase(context.Background(), []types.ID{"p1"}, []string{"in_progress"}, 0)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, types.ID("r1"), agents[0].ID)

	agents, err = dir.GetByPipelinePhase(context.Background(), []types.ID{"p1"}, nil, 0)
	require.NoError(t, err)
	assert.Len(t, agents, 2, "empty status filter matches any status")
}

func TestMemoryReferenceLookups(t *testing.T) {
	dir := NewMemoryDirectory()
	seedAgent(dir, "writer", "")
	dir.AddClient(&Client{ID: "cli-1", Name: "Pat", Email: "pat@example.com"})
	dir.AddPolicy(&Policy{ID: "pol-1", AgentID: "writer", ClientID: "cli-1"})
	dir.AddCommission(&Commission{ID: "com-1", PolicyID: "pol-1", AgentID: "writer"})

	ctx := context.Background()

	agent, err := dir.PolicyAgent(ctx, "pol-1")
	require.NoError(t, err)
	require.NotNil(t, agent)
	assert.Equal(t, types.ID("writer"), agent.ID)

	client, err := dir.PolicyClient(ctx, "pol-1")
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "pat@example.com", client.Email)

	policyID, err := dir.CommissionPolicyID(ctx, "com-1")
	require.NoError(t, err)
	assert.Equal(t, types.ID("pol-1"), policyID)

	// All three lookups treat absence as a soft miss.
	agent, err = dir.PolicyAgent(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, agent)
}

func TestMemoryForcedFailures(t *testing.T) {
	dir := NewMemoryDirectory()
	seedAgent(dir, "a", "")
	dir.FailFetches = true

	_, err := dir.GetByID(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.DIRECTORY_READ_FAILED))
}

func TestLoadSnapshot(t *testing.T) {
	snapshot := `
agents:
  - id: owner
    roles: [manager]
    email: owner@example.com
    is_active: true
  - id: alice
    upline_id: owner
    roles: [agent]
    email: alice@example.com
    is_active: true
clients:
  - id: cli-1
    name: Pat
    email: pat@example.com
policies:
  - id: pol-1
    agent_id: alice
    client_id: cli-1
    status: active
    annual_premium: 1500
commissions:
  - id: com-1
    policy_id: pol-1
    agent_id: alice
    amount: 300
    status: paid
`
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(snapshot), 0o644))

	dir, err := LoadSnapshot(path)
	require.NoError(t, err)

	ctx := context.Background()

	alice, err := dir.GetByID(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, types.ID("owner"), alice.UplineID)

	children, err := dir.GetChildrenOf(ctx, []types.ID{"owner"})
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, types.ID("alice"), children[0].ID)

	agent, err := dir.PolicyAgent(ctx, "pol-1")
	require.NoError(t, err)
	require.NotNil(t, agent)
	assert.Equal(t, types.ID("alice"), agent.ID)
}

func TestLoadSnapshotErrors(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.SNAPSHOT_LOAD_FAILED))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("agents: {not: a list"), 0o644))
	_, err = LoadSnapshot(bad)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.SNAPSHOT_LOAD_FAILED))
}
