package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestGraph(t *testing.T) *Graph {
	t.Helper()

	g := NewGraph("dev")
	require.NoError(t, g.AddNode(NewNode("network", KindVirtualNetwork, "vnet-dev", "rg-dev")))
	require.NoError(t, g.AddNode(NewNode("dns", KindPrivateDNSZones, "", "rg-dns-dev")))
	require.NoError(t, g.AddNode(NewNode("identity", KindManagedIdentity, "msi-dev", "rg-dev")))
	require.NoError(t, g.AddNode(NewNode("app", KindAppHost, "app-dev", "rg-dev")))

	require.NoError(t, g.AddEdge("dns", "network"))
	require.NoError(t, g.AddEdge("app", "dns"))
	require.NoError(t, g.AddEdge("app", "identity"))

	return g
}

func TestTopologicalSort_RespectsEdges(t *testing.T) {
	g := buildTestGraph(t)

	sorted, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, sorted, 4)

	pos := make(map[string]int)
	for i, n := range sorted {
		pos[n.ID] = i
	}

	assert.Less(t, pos["network"], pos["dns"])
	assert.Less(t, pos["dns"], pos["app"])
	assert.Less(t, pos["identity"], pos["app"])
}

func TestTopologicalSort_Deterministic(t *testing.T) {
	first, err := buildTestGraph(t).TopologicalSort()
	require.NoError(t, err)
	second, err := buildTestGraph(t).TopologicalSort()
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestTopologicalSort_CycleDetected(t *testing.T) {
	g := NewGraph("dev")
	require.NoError(t, g.AddNode(NewNode("a", KindAppHost, "a", "rg")))
	require.NoError(t, g.AddNode(NewNode("b", KindBotService, "b", "rg")))
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "a"))

	_, err := g.TopologicalSort()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestReverseTopologicalSort(t *testing.T) {
	g := buildTestGraph(t)

	sorted, err := g.ReverseTopologicalSort()
	require.NoError(t, err)

	pos := make(map[string]int)
	for i, n := range sorted {
		pos[n.ID] = i
	}

	assert.Less(t, pos["app"], pos["dns"])
	assert.Less(t, pos["dns"], pos["network"])
}

func TestAddNode_Duplicate(t *testing.T) {
	g := NewGraph("dev")
	require.NoError(t, g.AddNode(NewNode("a", KindAppHost, "a", "rg")))
	assert.Error(t, g.AddNode(NewNode("a", KindAppHost, "a", "rg")))
}

func TestAddEdge_MissingNode(t *testing.T) {
	g := NewGraph("dev")
	require.NoError(t, g.AddNode(NewNode("a", KindAppHost, "a", "rg")))
	assert.Error(t, g.AddEdge("a", "missing"))
	assert.Error(t, g.AddEdge("missing", "a"))
}

func TestBinding_Refs(t *testing.T) {
	lit := Lit("10.0.0.0/16")
	assert.False(t, lit.IsRef())
	assert.Empty(t, lit.Refs())

	ref := Ref("network", "vnetId")
	assert.True(t, ref.IsRef())
	assert.Len(t, ref.Refs(), 1)

	formatted := Fmt("https://%s/api/messages", Ref("app-host", "hostName"))
	refs := formatted.Refs()
	require.Len(t, refs, 1)
	assert.Equal(t, "app-host", refs[0].Module)
	assert.Equal(t, "hostName", refs[0].Output)
}
