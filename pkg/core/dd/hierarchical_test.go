package dd_test

import (
	"testing"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Contract: removing the head of a chain prunes its dependents in the same
// mutation, and a rollback brings back all of them with their relations.
func TestHierarchicalPrunesChainInOneMutation(t *testing.T) {
	p := newProgram("A", "B", "C").edge("A", "B").edge("B", "C")
	m := newManipulator("")
	h := dd.NewHierarchical(m)

	ok, err := h.CanMutate(p)
	require.NoError(t, err)
	require.True(t, ok)
	original := m.Graph().Clone()

	require.NoError(t, h.Mutate(p))
	assert.Empty(t, p.Present())

	rollback, err := h.SetResult(p, dd.OutcomePass)
	require.NoError(t, err)
	assert.Equal(t, dd.RolledBack, rollback)
	assert.Equal(t, []string{"A", "B", "C"}, p.Present())
	assert.True(t, original.Equal(m.Graph()), "graph must be restored with its edges")
}

func TestHierarchicalMinimize(t *testing.T) {
	p := newProgram("root", "f", "g", "f1", "f2", "g1").
		edge("root", "f").edge("root", "g").
		edge("f", "f1").edge("f", "f2").
		edge("g", "g1")
	h := dd.NewHierarchical(newManipulator(""))

	drive(t, h, p, failWhenAll("f2"), nil)

	assert.Equal(t, 3, h.Levels())
	assert.Equal(t, []string{"root", "f", "f2"}, h.CauseElements())
	assert.Equal(t, []string{"f1", "g", "g1"}, sorted(h.RemovedElements()))
	assert.Equal(t, []string{"root", "f", "f2"}, p.Present())
}

// Contract: elements on a cycle without a source are still classified.
func TestHierarchicalClassifiesSourcelessCycle(t *testing.T) {
	p := newProgram("root", "c", "d").edge("c", "d").edge("d", "c")
	h := dd.NewHierarchical(newManipulator(""))

	drive(t, h, p, failWhenAll("d"), nil)

	assert.Equal(t, 2, h.Levels())
	assert.Contains(t, h.CauseElements(), "d")
	var classified []string
	classified = append(classified, h.CauseElements()...)
	classified = append(classified, h.SafeElements()...)
	classified = append(classified, h.RemovedElements()...)
	assert.Equal(t, []string{"c", "d", "root"}, sorted(classified))
	assert.True(t, p.has("d"))
}

func TestHierarchicalEmpty(t *testing.T) {
	h := dd.NewHierarchical(newManipulator(""))
	tests := drive(t, h, newProgram(), failWhenAll(), nil)

	assert.Equal(t, 0, tests)
	assert.Empty(t, h.CauseElements())
}

func TestCompositeRunsStrategiesInOrder(t *testing.T) {
	p := newProgram("a1", "a2", "a3", "b1", "b2", "b3")
	first := dd.New(newManipulator("a"))
	second := dd.New(newManipulator("b"))
	c := dd.NewComposite[*program](first, second)

	drive(t, c, p, failWhenAll("a1", "b2"), nil)

	assert.Equal(t, []string{"a1"}, first.CauseElements())
	assert.Equal(t, []string{"b2"}, second.CauseElements())
	assert.Equal(t, []string{"a1", "b2"}, p.Present())
	assert.Equal(t, 2, c.Current())
	require.Len(t, c.Stats(), 2)
	assert.Equal(t, 3, c.Stats()[1].Found)
	assert.Panics(t, func() { _ = c.Mutate(p) })
}
