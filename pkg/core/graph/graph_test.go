package graph_test

import (
	"bytes"
	"testing"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain() *graph.Graph[string] {
	g := graph.New[string]()
	g.PutEdge("A", "B", graph.Relation{Label: "calls"})
	g.PutEdge("B", "C", graph.Relation{Label: "calls"})
	return g
}

func TestRemoveAndRestoreKeepsOrder(t *testing.T) {
	g := chain()
	g.AddNode("D")
	before := g.Clone()

	require.True(t, g.RemoveNode("B"))
	assert.Equal(t, []string{"A", "C", "D"}, g.Nodes())
	assert.Empty(t, g.Successors("A"))
	assert.Empty(t, g.Predecessors("C"))

	g.AddNode("B")
	g.PutEdge("A", "B", graph.Relation{Label: "calls"})
	g.PutEdge("B", "C", graph.Relation{Label: "calls"})

	assert.Equal(t, []string{"A", "B", "C", "D"}, g.Nodes())
	assert.True(t, g.Equal(before))
}

func TestCloneIsIndependent(t *testing.T) {
	g := chain()
	c := g.Clone()
	g.RemoveNode("A")

	assert.True(t, c.HasNode("A"))
	assert.Equal(t, []string{"B"}, c.Successors("A"))
	assert.False(t, g.Equal(c))
}

func TestSources(t *testing.T) {
	g := chain()
	g.PutEdge("S", "S", graph.Relation{Label: "recursion"})
	assert.Equal(t, []string{"A", "S"}, g.Sources())
}

func TestWriteDOT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, graph.WriteDOT(&buf, chain(), func(s string) string { return s }))

	expected := "digraph G {\nrankdir=LR;\n" +
		"node0 [label=\"A\"]\nnode1 [label=\"B\"]\nnode2 [label=\"C\"]\n" +
		"node0 -> node1 [label=\"calls\"]\nnode1 -> node2 [label=\"calls\"]\n}\n"
	assert.Equal(t, expected, buf.String())
	assert.Equal(t, "Lines-pass-1.dot", graph.DOTFileName("Lines pass 1"))
}
