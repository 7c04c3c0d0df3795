package finalize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/modelopt/internal/graph"
)

// buildNet returns data -> add <- weights, add -> result.
func buildNet(t *testing.T) (*graph.Graph, *graph.Tensor) {
	t.Helper()
	w := &graph.Tensor{DataType: "FP32", Shape: []int64{3}, Data: []float64{1, 2, 3}}
	g := graph.New("net")
	require.NoError(t, g.AddNode(&graph.Node{ID: "data", Op: graph.OpParameter}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "weights", Op: graph.OpConst, Value: w}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "add", Op: "Add"}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "result", Op: graph.OpResult}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: "data", To: "add"}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: "weights", To: "add", ToPort: 1}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: "add", To: "result"}))
	return g, w
}

func TestRemoveConstOps_LeavesValueOnEdge(t *testing.T) {
	// Arrange
	g, w := buildNet(t)

	// Act
	require.NoError(t, RemoveConstOps(g))

	// Assert
	_, ok := g.Node("weights")
	assert.False(t, ok)
	in := g.InEdges("add")
	require.Len(t, in, 2)
	assert.True(t, in[1].Dangling())
	assert.Same(t, w, in[1].Value)
}

func TestCreateConstNodesReplacement(t *testing.T) {
	g, w := buildNet(t)
	require.NoError(t, g.AddNode(&graph.Node{ID: "mul", Op: "Multiply"}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: "weights", To: "mul", ToPort: 1}))
	require.NoError(t, RemoveConstOps(g))

	require.NoError(t, CreateConstNodesReplacement(g))

	consts := g.NodesByOp(graph.OpConst)
	require.Len(t, consts, 1, "edges sharing a tensor share one const")
	assert.Equal(t, "weights", consts[0].ID, "the removed const keeps its id")
	assert.Same(t, w, consts[0].Value)
	for _, e := range g.Edges() {
		assert.False(t, e.Dangling())
	}
	assert.Equal(t, consts[0].ID, g.InEdges("mul")[0].From)

	// A second run finds nothing dangling.
	require.NoError(t, CreateConstNodesReplacement(g))
	assert.Len(t, g.NodesByOp(graph.OpConst), 1)
}

func TestCreateConstNodesReplacement_NamesValueWithoutOrigin(t *testing.T) {
	w := &graph.Tensor{DataType: "FP32", Shape: []int64{1}, Data: []float64{2}}
	g := graph.New("net")
	require.NoError(t, g.AddNode(&graph.Node{ID: "add", Op: "Add"}))
	require.NoError(t, g.AddEdge(&graph.Edge{To: "add", ToPort: 1, Value: w}))

	require.NoError(t, CreateConstNodesReplacement(g))

	consts := g.NodesByOp(graph.OpConst)
	require.Len(t, consts, 1)
	assert.Equal(t, "add/port_1/const", consts[0].ID)
}

func TestRemoveConstOps_RejectsConstWithoutValue(t *testing.T) {
	g := graph.New("net")
	require.NoError(t, g.AddNode(&graph.Node{ID: "c", Op: graph.OpConst}))

	assert.ErrorContains(t, RemoveConstOps(g), "has no value")
}

func TestRemoveOutputOps(t *testing.T) {
	g, _ := buildNet(t)

	require.NoError(t, RemoveOutputOps(g))

	assert.Empty(t, g.NodesByOp(graph.OpResult))
	assert.Empty(t, g.OutEdges("add"))
	require.NoError(t, RemoveOutputOps(g))
}

func TestNormalizeTI_Idempotent(t *testing.T) {
	body := graph.New("body")
	for _, id := range []string{"b_in", "b_state", "b_out"} {
		require.NoError(t, body.AddNode(&graph.Node{ID: id}))
	}
	axis := 1
	ti := &graph.Node{
		ID:   "ti",
		Op:   graph.OpTensorIterator,
		Body: body,
		PortMap: []graph.PortMap{
			{ExternalPort: 3, InternalLayer: "b_out", Output: true},
			{ExternalPort: 1, InternalLayer: "b_state"},
			{ExternalPort: 0, InternalLayer: "b_in", Axis: &axis},
		},
		BackEdges: []graph.BackEdge{
			{FromLayer: "b_out", ToLayer: "b_state"},
			{FromLayer: "b_in", ToLayer: "b_state"},
		},
	}
	g := graph.New("net")
	require.NoError(t, g.AddNode(ti))

	require.NoError(t, NormalizeTI(g))
	first := append([]graph.PortMap(nil), ti.PortMap...)
	require.NoError(t, NormalizeTI(g))

	if diff := cmp.Diff(first, ti.PortMap); diff != "" {
		t.Errorf("second run changed port map (-first +second):\n%s", diff)
	}
	assert.Equal(t, []int{0, 1, 3}, []int{ti.PortMap[0].ExternalPort, ti.PortMap[1].ExternalPort, ti.PortMap[2].ExternalPort})
	assert.Equal(t, "b_in", ti.BackEdges[0].FromLayer)
}

func TestNormalizeTI_UnknownLayer(t *testing.T) {
	g := graph.New("net")
	require.NoError(t, g.AddNode(&graph.Node{
		ID:      "ti",
		Op:      graph.OpTensorIterator,
		Body:    graph.New("body"),
		PortMap: []graph.PortMap{{InternalLayer: "ghost"}},
	}))

	assert.ErrorContains(t, NormalizeTI(g), "unknown layer ghost")
}

func TestPassesReachSubGraphs(t *testing.T) {
	body, _ := buildNet(t)
	g := graph.New("net")
	require.NoError(t, g.AddNode(&graph.Node{ID: "ti", Op: graph.OpTensorIterator, Body: body}))

	require.NoError(t, graph.ForGraphAndEachSubGraphRecursively(g, RemoveConstOps))
	require.NoError(t, graph.ForEachSubGraphRecursively(g, RemoveOutputOps))

	assert.Empty(t, body.NodesByOp(graph.OpConst))
	assert.Empty(t, body.NodesByOp(graph.OpResult))
}
