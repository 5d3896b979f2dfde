package hierarchy

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nneessen/commissionTracker-sub026/internal/directory"
	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

func addAgent(dir *directory.MemoryDirectory, id, uplineID types.ID) {
	dir.AddAgent(&types.AgentNode{
		ID:       id,
		UplineID: uplineID,
		Email:    id.String() + "@example.com",
		IsActive: true,
	})
}

func ids(nodes []*types.AgentNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID.String())
	}
	return out
}

func TestAscendChain(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	addAgent(dir, "root", "")
	addAgent(dir, "mid", "root")
	addAgent(dir, "leaf", "mid")

	g := NewGraph(dir, nil)
	chain := g.Ascend(context.Background(), "leaf", 10)

	assert.Equal(t, []string{"mid", "root"}, ids(chain), "nearest upline first, start excluded")
}

func TestAscendDepthBound(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	addAgent(dir, "a", "b")
	addAgent(dir, "b", "c")
	addAgent(dir, "c", "d")
	addAgent(dir, "d", "")

	g := NewGraph(dir, nil)
	chain := g.Ascend(context.Background(), "a", 2)

	assert.Equal(t, []string{"b", "c"}, ids(chain))
}

func TestAscendCycleTerminates(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	addAgent(dir, "a", "b")
	addAgent(dir, "b", "a")

	g := NewGraph(dir, nil)
	chain := g.Ascend(context.Background(), "a", 100)

	assert.Equal(t, []string{"b"}, ids(chain), "walk stops at the first revisit")
}

func TestAscendSelfLoop(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	addAgent(dir, "a", "a")

	g := NewGraph(dir, nil)
	chain := g.Ascend(context.Background(), "a", 100)

	assert.Empty(t, chain)
}

func TestAscendEdgeCases(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	addAgent(dir, "a", "gone")

	g := NewGraph(dir, nil)
	ctx := context.Background()

	assert.Empty(t, g.Ascend(ctx, "", 10), "empty start id")
	assert.Empty(t, g.Ascend(ctx, "a", 0), "zero depth")
	assert.Empty(t, g.Ascend(ctx, "missing", 10), "unknown start id")
	assert.Empty(t, g.Ascend(ctx, "a", 10), "dangling upline pointer")
}

func TestAscendPartialOnFetchFailure(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	addAgent(dir, "a", "b")
	addAgent(dir, "b", "c")
	addAgent(dir, "c", "")

	// First two GetByID calls (start + first upline) succeed, then reads
	// start failing: the chain ends where the directory stopped answering.
	dir.FailAfterCalls = 2

	g := NewGraph(dir, nil)
	chain := g.Ascend(context.Background(), "a", 10)

	assert.Equal(t, []string{"b"}, ids(chain))
}

func TestDescendBreadthFirst(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	addAgent(dir, "root", "")
	addAgent(dir, "c1", "root")
	addAgent(dir, "c2", "root")
	addAgent(dir, "g1", "c1")
	addAgent(dir, "g2", "c2")

	g := NewGraph(dir, nil)
	nodes := g.Descend(context.Background(), "root", 0, 0)

	require.Len(t, nodes, 4)
	assert.ElementsMatch(t, []string{"c1", "c2"}, ids(nodes)[:2], "level 1 before level 2")
	assert.ElementsMatch(t, []string{"g1", "g2"}, ids(nodes)[2:])
}

func TestDescendDepthBound(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	addAgent(dir, "root", "")
	addAgent(dir, "c1", "root")
	addAgent(dir, "g1", "c1")

	g := NewGraph(dir, nil)
	nodes := g.Descend(context.Background(), "root", 1, 0)

	assert.Equal(t, []string{"c1"}, ids(nodes))
}

func TestDescendCountBound(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	addAgent(dir, "root", "")
	for i := 0; i < 10; i++ {
		addAgent(dir, types.ID(fmt.Sprintf("c%d", i)), "root")
	}

	g := NewGraph(dir, nil)
	nodes := g.Descend(context.Background(), "root", 0, 3)

	assert.Len(t, nodes, 3)
}

func TestDescendCycleTerminates(t *testing.T) {
	// root -> a -> b -> a: the child index can contain the loop edge even
	// though each agent has a single upline pointer.
	dir := directory.NewMemoryDirectory()
	addAgent(dir, "root", "")
	addAgent(dir, "a", "root")
	addAgent(dir, "b", "a")
	// Re-registering a under b creates the back edge in the child index.
	dir.AddAgent(&types.AgentNode{ID: "a", UplineID: "b", Email: "a@example.com", IsActive: true})

	g := NewGraph(dir, nil)
	nodes := g.Descend(context.Background(), "root", 0, 0)

	assert.ElementsMatch(t, []string{"a", "b"}, ids(nodes), "each node collected once")
}

func TestDescendPartialOnFrontierFailure(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	addAgent(dir, "root", "")
	addAgent(dir, "c1", "root")
	addAgent(dir, "g1", "c1")

	// One successful frontier fetch, then failure: level 1 survives.
	dir.FailAfterCalls = 1

	g := NewGraph(dir, nil)
	nodes := g.Descend(context.Background(), "root", 0, 0)

	assert.Equal(t, []string{"c1"}, ids(nodes))
}

func TestDescendEmptyStart(t *testing.T) {
	g := NewGraph(directory.NewMemoryDirectory(), nil)
	assert.Empty(t, g.Descend(context.Background(), "", 0, 0))
}
