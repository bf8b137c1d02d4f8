package visual

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botforge-io/botforge/pkg/graph"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()

	g := graph.NewGraph("dev")
	require.NoError(t, g.AddNode(graph.NewNode("network", graph.KindVirtualNetwork, "vnet-dev", "rg-dev")))
	require.NoError(t, g.AddNode(graph.NewNode("dns", graph.KindPrivateDNSZones, "", "rg-dns-dev")))
	require.NoError(t, g.AddNode(graph.NewNode("identity", graph.KindManagedIdentity, "msi-dev", "rg-dev")))
	require.NoError(t, g.AddNode(graph.NewNode("app", graph.KindAppHost, "app-dev", "rg-dev")))

	require.NoError(t, g.AddEdge("dns", "network"))
	require.NoError(t, g.AddEdge("app", "dns"))
	require.NoError(t, g.AddEdge("app", "identity"))

	return g
}

func TestRenderMermaid_Golden(t *testing.T) {
	out, err := RenderMermaid(testGraph(t), MermaidOptions{})
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "simple", []byte(out))
}

func TestRenderMermaid_Direction(t *testing.T) {
	out, err := RenderMermaid(testGraph(t), MermaidOptions{Direction: "LR"})
	require.NoError(t, err)
	assert.Contains(t, out, "flowchart LR")
}

func TestRenderMermaid_Title(t *testing.T) {
	out, err := RenderMermaid(testGraph(t), MermaidOptions{Title: "deployment"})
	require.NoError(t, err)
	assert.Contains(t, out, "title: deployment")
}

func TestRenderMermaid_SkippedNode(t *testing.T) {
	g := testGraph(t)
	g.GetNode("network").Condition = false

	out, err := RenderMermaid(g, MermaidOptions{})
	require.NoError(t, err)
	assert.Contains(t, out, "(skipped)")
}

func TestRenderMermaid_SanitizesIDs(t *testing.T) {
	g := graph.NewGraph("dev")
	require.NoError(t, g.AddNode(graph.NewNode("bot-service", graph.KindBotService, "bot-dev", "rg-dev")))

	out, err := RenderMermaid(g, MermaidOptions{})
	require.NoError(t, err)
	assert.Contains(t, out, "bot_service[")
}

func TestRenderMermaid_NilGraph(t *testing.T) {
	_, err := RenderMermaid(nil, MermaidOptions{})
	assert.Error(t, err)
}
