package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReduceCommandFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, filepath.Join(dir, "input.txt"), "keep\nbad\ndrop\n")
	config := writeFile(t, filepath.Join(dir, "reduce.yaml"), `
strategy: hierarchical
kind: lines
rollbackCheck: 0
`)
	output := filepath.Join(dir, "out.txt")

	args := []string{
		"--log-dir", filepath.Join(dir, "logs"),
		"--config", config,
		"reduce", "--strategy", "flat", "--work-dir", filepath.Join(dir, "work"), "-o", output,
		target, "--",
	}
	report, err := execute(t, append(args, failsOn("bad")...)...)
	require.NoError(t, err)

	assert.Contains(t, report, "Reduction Report")
	assert.Contains(t, report, "(flat)")
	assert.Contains(t, report, "line 2")

	reduced, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "bad\n", string(reduced))

	logs, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	logText, err := os.ReadFile(filepath.Join(dir, "logs", logs[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(logText), "Reduction Report")
}

func TestReduceCommandNeedsCommand(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, filepath.Join(dir, "input.txt"), "a\n")

	_, err := execute(t, "--log-dir", dir, "reduce", target)
	assert.ErrorIs(t, err, ErrNoCommand)
}

func TestGraphCommand(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, filepath.Join(dir, "input.c"), "int main() {\n  return 0;\n}\n")
	graphs := filepath.Join(dir, "graphs")

	out, err := execute(t, "--log-dir", dir, "graph", target, "--out", graphs)
	require.NoError(t, err)

	path := filepath.Join(graphs, "Lines.dot")
	assert.Contains(t, out, path)
	dot, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(dot), `label="block 1-3"`)
}
