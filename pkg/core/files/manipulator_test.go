package files_test

import (
	"path/filepath"
	"testing"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestBecomesPruneEdges(t *testing.T) {
	root := setupTree(t, map[string]string{
		"main.c":           "",
		"util.h":           "",
		"util.c":           "",
		"README":           "",
		files.ManifestName: `{"main.c": ["util.h"], "util.c": ["util.h"], "ghost.c": ["util.h"]}`,
	})
	tree, err := files.Open(root)
	require.NoError(t, err)

	m := files.NewManipulator()
	elements, g, err := m.AllElements(tree)
	require.NoError(t, err)
	assert.Equal(t, []string{"README", "main.c", "util.c", "util.h"}, elements)
	assert.ElementsMatch(t, []string{"main.c", "util.c"}, g.Successors("util.h"))

	closure, err := m.Prune(tree, []string{"util.h"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"util.h", "main.c", "util.c"}, closure)
	assert.Equal(t, []string{"main.c", "util.c", "util.h"}, tree.Disabled())

	require.NoError(t, m.Rollback(tree))
	assert.Empty(t, tree.Disabled())
	assert.True(t, exists(filepath.Join(root, "main.c")))
}

func TestMinimizeTree(t *testing.T) {
	contents := map[string]string{files.ManifestName: `{"crash.c": ["crash.h"]}`}
	for _, name := range []string{"a.c", "b.c", "c.c", "crash.c", "crash.h", "d.c", "e.c"} {
		contents[name] = ""
	}
	root := setupTree(t, contents)
	tree, err := files.Open(root)
	require.NoError(t, err)

	fails := func() dd.Outcome {
		if exists(filepath.Join(root, "crash.c")) {
			return dd.OutcomeFail
		}
		return dd.OutcomePass
	}

	h := dd.NewHierarchical(files.NewManipulator())
	for tests := 0; ; tests++ {
		require.Less(t, tests, 100, "reduction did not terminate")
		ok, err := h.CanMutate(tree)
		require.NoError(t, err)
		if !ok {
			break
		}
		require.NoError(t, h.Mutate(tree))
		_, err = h.SetResult(tree, fails())
		require.NoError(t, err)
	}

	list, err := tree.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"crash.c", "crash.h"}, list)
	assert.ElementsMatch(t, []string{"crash.h", "crash.c"}, h.CauseElements())

	require.NoError(t, tree.EnableAll())
	list, err = tree.Files()
	require.NoError(t, err)
	assert.Len(t, list, 7)
}
