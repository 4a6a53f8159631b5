package files_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTree creates the given files (slash separated) below a temp dir.
func setupTree(t *testing.T, contents map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range contents {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func TestFilesSkipsManifestAndDisabled(t *testing.T) {
	root := setupTree(t, map[string]string{
		"main.c":            "",
		"lib/util.c":        "",
		"old.c.disabled":    "",
		".git/HEAD":         "",
		files.ManifestName: `{}`,
	})
	tree, err := files.Open(root)
	require.NoError(t, err)

	list, err := tree.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/util.c", "main.c"}, list)
}

func TestOpenRejectsFile(t *testing.T) {
	root := setupTree(t, map[string]string{"a": ""})
	_, err := files.Open(filepath.Join(root, "a"))
	assert.ErrorIs(t, err, files.ErrNotDirectory)
}

func TestDisableAndEnable(t *testing.T) {
	root := setupTree(t, map[string]string{"lib/util.c": "x"})
	tree, err := files.Open(root)
	require.NoError(t, err)

	require.NoError(t, tree.Disable("lib/util.c"))
	assert.False(t, exists(filepath.Join(root, "lib", "util.c")))
	assert.True(t, exists(filepath.Join(root, "lib", "util.c"+files.DisabledExtension)))
	assert.Equal(t, []string{"lib/util.c"}, tree.Disabled())

	require.NoError(t, tree.Enable("lib/util.c"))
	assert.True(t, exists(filepath.Join(root, "lib", "util.c")))
	assert.Empty(t, tree.Disabled())

	assert.ErrorIs(t, tree.Enable("lib/util.c"), files.ErrNotTracked)
}

func TestApplyRevertsOnMissingFile(t *testing.T) {
	root := setupTree(t, map[string]string{"a": "", "b": ""})
	tree, err := files.Open(root)
	require.NoError(t, err)

	changes := []files.StateChange{
		{File: "a", OldPath: filepath.Join(root, "a"), NewPath: filepath.Join(root, "a.disabled")},
		{File: "gone", OldPath: filepath.Join(root, "gone"), NewPath: filepath.Join(root, "gone.disabled")},
		{File: "b", OldPath: filepath.Join(root, "b"), NewPath: filepath.Join(root, "b.disabled")},
	}
	_, err = tree.Apply(changes)

	var missing *files.MissingFilesError
	require.True(t, errors.As(err, &missing))
	require.Len(t, missing.Errors, 1)
	assert.True(t, strings.HasSuffix(missing.Errors[0].Path, "gone"))
	assert.True(t, exists(filepath.Join(root, "a")))
	assert.True(t, exists(filepath.Join(root, "b")))
	assert.Empty(t, tree.Disabled())
}

func TestEnableAll(t *testing.T) {
	root := setupTree(t, map[string]string{"a": "", "b": "", "c": ""})
	tree, err := files.Open(root)
	require.NoError(t, err)
	require.NoError(t, tree.Disable("a"))
	require.NoError(t, tree.Disable("c"))

	require.NoError(t, tree.EnableAll())

	list, err := tree.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, list)
}

func TestLoadManifest(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected files.Manifest
		wantErr  bool
	}{
		{
			name:     "list and single string",
			input:    `{ /* comment */ "main.c": ["util.h", "./lib/x.h"], "b.c": "util.h", }`,
			expected: files.Manifest{"main.c": {"util.h", "lib/x.h"}, "b.c": {"util.h"}},
		},
		{name: "number entry", input: `{"main.c": 3}`, wantErr: true},
		{name: "non-string element", input: `{"main.c": ["a", 1]}`, wantErr: true},
		{name: "broken syntax", input: `{"main.c": [`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := files.LoadManifest(strings.NewReader(tc.input))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, m)
		})
	}
}
