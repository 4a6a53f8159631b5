package lines_test

import (
	"strings"
	"testing"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/lines"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHierarchicalReduction(t *testing.T) {
	input := "int main() {\n  int x = 1;\n  if (x) {\n    puts(\"{\");\n  }\n  return 0;\n}\n// trailing {\n"
	doc, err := lines.Parse(strings.NewReader(input))
	require.NoError(t, err)

	h := dd.NewHierarchical(lines.NewManipulator())
	for tests := 0; ; tests++ {
		require.Less(t, tests, 100, "reduction did not terminate")
		ok, err := h.CanMutate(doc)
		require.NoError(t, err)
		if !ok {
			break
		}
		require.NoError(t, h.Mutate(doc))

		outcome := dd.OutcomePass
		if strings.Contains(doc.String(), "puts(") {
			outcome = dd.OutcomeFail
		}
		_, err = h.SetResult(doc, outcome)
		require.NoError(t, err)
	}

	assert.Equal(t, "int main() {\n  if (x) {\n    puts(\"{\");\n  }\n}\n", doc.String())
	assert.Equal(t, 3, h.Levels())
}

func TestElementString(t *testing.T) {
	assert.Equal(t, "line 3", lines.Element{Kind: lines.KindLine, Start: 2, End: 2}.String())
	assert.Equal(t, "block 1-7", lines.Element{Kind: lines.KindBlock, Start: 0, End: 6}.String())
}

func TestLineManipulatorHidesOneLinePerElement(t *testing.T) {
	doc, err := lines.Parse(strings.NewReader("f() {\n  a;\n\n  g() {\n    b;\n  }\n}\n"))
	require.NoError(t, err)

	m := lines.NewLineManipulator()
	elements, g, err := m.AllElements(doc)
	require.NoError(t, err)
	require.Len(t, elements, 6, "the blank line is not an element")
	assert.Empty(t, g.Edges())

	for _, e := range elements {
		require.Equal(t, lines.KindLine, e.Kind)
		require.NoError(t, m.Remove(doc, []lines.Element{e}))
		assert.Equal(t, doc.Len()-1, doc.VisibleCount(), "removing %s", e)
		require.NoError(t, m.Rollback(doc))
		assert.Equal(t, doc.Len(), doc.VisibleCount())
	}
}

func TestLineManipulatorSkipsLinesOfRemovedBlocks(t *testing.T) {
	doc, err := lines.Parse(strings.NewReader("f() {\n  a;\n}\nb;\n"))
	require.NoError(t, err)

	blocks := lines.NewManipulator()
	_, _, err = blocks.AllElements(doc)
	require.NoError(t, err)
	require.NoError(t, blocks.Remove(doc, []lines.Element{{Kind: lines.KindBlock, Start: 0, End: 2}}))
	require.Equal(t, "b;\n", doc.String())

	elements, _, err := lines.NewLineManipulator().AllElements(doc)
	require.NoError(t, err)
	assert.Equal(t, []lines.Element{{Kind: lines.KindLine, Start: 3, End: 3}}, elements)
}

func TestFlatReductionOverLines(t *testing.T) {
	doc, err := lines.Parse(strings.NewReader("int main() {\n  int x = 1;\n  puts(\"x\");\n  return 0;\n}\n"))
	require.NoError(t, err)

	e := dd.New(lines.NewLineManipulator())
	for tests := 0; ; tests++ {
		require.Less(t, tests, 100, "reduction did not terminate")
		ok, err := e.CanMutate(doc)
		require.NoError(t, err)
		if !ok {
			break
		}
		require.NoError(t, e.Mutate(doc))

		outcome := dd.OutcomePass
		if strings.Contains(doc.String(), "puts(") {
			outcome = dd.OutcomeFail
		}
		_, err = e.SetResult(doc, outcome)
		require.NoError(t, err)
	}

	assert.Equal(t, "  puts(\"x\");\n", doc.String())
	assert.Equal(t, []lines.Element{{Kind: lines.KindLine, Start: 2, End: 2}}, e.CauseElements())
}
