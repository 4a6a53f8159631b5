package lines

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `int main() {
  int x = 1;
  if (x) {
    puts("{");
  }
  return 0;
}
// trailing {
`

func parse(t *testing.T, s string) *Document {
	t.Helper()
	d, err := Parse(strings.NewReader(s))
	require.NoError(t, err)
	return d
}

func block(start, end int) Element { return Element{Kind: KindBlock, Start: start, End: end} }
func line(i int) Element          { return Element{Kind: KindLine, Start: i, End: i} }

func TestBlockStructure(t *testing.T) {
	d := parse(t, sample)

	assert.Equal(t, []Element{block(0, 6), line(1), block(2, 4), line(3), line(5), line(7)}, d.elements)

	containment := make(map[Element][]Element)
	for _, e := range d.edges {
		containment[e.From] = append(containment[e.From], e.To)
	}
	assert.ElementsMatch(t, []Element{line(1), block(2, 4), line(5)}, containment[block(0, 6)])
	assert.Equal(t, []Element{line(3)}, containment[block(2, 4)])
}

func TestBuilderEdgeCases(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []Element
	}{
		{name: "inline braces", input: "a { b }\nc\n", expected: []Element{line(0), line(1)}},
		{name: "else chain", input: "if {\nx\n} else {\ny\n}\n", expected: []Element{block(0, 2), line(1), block(2, 4), line(3)}},
		{name: "doubled braces", input: "{{\nx\n}}\n", expected: []Element{block(0, 2), line(1)}},
		{name: "unclosed", input: "f {\nx\n", expected: []Element{line(0), line(1)}},
		{name: "block comment", input: "/* {\n} */\na\n", expected: []Element{line(0), line(1), line(2)}},
		{name: "blank lines", input: "a\n\n  \nb", expected: []Element{line(0), line(3)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := parse(t, tc.input)
			assert.Equal(t, tc.expected, d.elements)
		})
	}
}

func TestNestedHidingComposes(t *testing.T) {
	d := parse(t, sample)
	ops := lineOps{}

	require.NoError(t, ops.RemoveElement(d, line(3)))
	require.NoError(t, ops.RemoveElement(d, block(2, 4)))
	require.NoError(t, ops.RestoreElement(d, line(3)))
	assert.False(t, d.Visible(3), "line stays hidden while its block is removed")

	require.NoError(t, ops.RestoreElement(d, block(2, 4)))
	assert.True(t, d.Visible(3))
	assert.Equal(t, sample, d.String())

	assert.ErrorIs(t, ops.RestoreElement(d, line(3)), ErrNotRemoved)
	require.NoError(t, ops.RemoveElement(d, line(3)))
	assert.ErrorIs(t, ops.RemoveElement(d, line(3)), ErrAlreadyRemoved)
}

func TestRender(t *testing.T) {
	d := parse(t, sample)
	ops := lineOps{}
	require.NoError(t, ops.RemoveElement(d, block(2, 4)))
	require.NoError(t, ops.RemoveElement(d, line(7)))

	assert.Equal(t, "int main() {\n  int x = 1;\n  return 0;\n}\n", d.String())
	assert.Equal(t, 4, d.VisibleCount())

	path := filepath.Join(t.TempDir(), "out.c")
	require.NoError(t, d.WriteFile(path))
	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, d.String(), back.String())
}

func TestRenderWithoutTrailingNewline(t *testing.T) {
	d := parse(t, "a\nb")
	assert.Equal(t, "a\nb", d.String())
}
