package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/reduce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failsOn fails with the same message whenever the working copy contains
// needle, and succeeds otherwise.
func failsOn(needle string) []string {
	return []string{"sh", "-c", `if grep -q "$1" "$DELTA_REDUCE_TARGET"; then echo "boom: $1" >&2; exit 1; fi`, "sh", needle}
}

func testConfig(t *testing.T, target string) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Target = target
	cfg.WorkDir = t.TempDir()
	return cfg
}

func TestBatchReductionOfLines(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, filepath.Join(dir, "input.txt"), "alpha\nbeta\nneedle\ngamma\n")

	cfg := testConfig(t, target)
	cfg.Command = failsOn("needle")
	cfg.Output = filepath.Join(dir, "reduced.txt")
	cfg.GraphDir = filepath.Join(dir, "graphs")
	cfg.MetricsFile = filepath.Join(dir, "metrics.prom")

	session, err := NewSession(cfg)
	require.NoError(t, err)
	assert.Equal(t, KindLines, session.Workspace().Kind)

	require.NoError(t, session.Run(context.Background()))
	summary, err := session.Finish()
	require.NoError(t, err)

	assert.True(t, summary.Complete)
	assert.Equal(t, dd.OutcomeFail, summary.Original)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, [][]string{{"line 3"}}, summary.Results[0].Causes)
	assert.Len(t, summary.Results[0].Removed, 3)

	reduced, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, "needle\n", string(reduced))
	assert.Equal(t, cfg.Output, summary.Output)

	original, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta\nneedle\ngamma\n", string(original), "the input must not be touched")

	assert.FileExists(t, filepath.Join(cfg.GraphDir, "Lines-initial.dot"))
	assert.FileExists(t, filepath.Join(cfg.GraphDir, "Lines-final.dot"))
	assert.Len(t, summary.Graphs, 2)

	metrics, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "delta_reduce_rounds")
	assert.Contains(t, string(metrics), session.ID())
}

func TestBatchReductionOfFilesWithComposite(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "project")
	writeFile(t, filepath.Join(project, "a.txt"), "a\n")
	writeFile(t, filepath.Join(project, "b.txt"), "b\n")
	writeFile(t, filepath.Join(project, "sub", "c.txt"), "c\n")
	writeFile(t, filepath.Join(project, "needle.txt"), "needle\n")

	cfg := testConfig(t, project)
	cfg.Strategy = StrategyComposite
	cfg.Command = []string{"sh", "-c", `if [ -e "$1/needle.txt" ]; then echo boom >&2; exit 1; fi`, "sh", TargetPlaceholder}
	cfg.Output = filepath.Join(dir, "reduced")

	session, err := NewSession(cfg)
	require.NoError(t, err)
	assert.Equal(t, KindFiles, session.Workspace().Kind)

	require.NoError(t, session.Run(context.Background()))
	summary, err := session.Finish()
	require.NoError(t, err)

	require.Len(t, summary.Results, 2, "hierarchical and flat pass")
	for _, r := range summary.Results {
		assert.Equal(t, [][]string{{"needle.txt"}}, r.Causes, r.Title)
	}

	entries, err := os.ReadDir(cfg.Output)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	assert.Equal(t, []string{"needle.txt"}, names)
	assert.FileExists(t, filepath.Join(project, "a.txt"), "the input must not be touched")
}

// Maximizing with DD* removes one independent cause per round until the
// rest passes.
func TestStarMaximizeFindsEveryCause(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, filepath.Join(dir, "input.txt"), "one\nbad\ntwo\nbad\nthree\n")

	cfg := testConfig(t, target)
	cfg.Strategy = StrategyStar
	cfg.Direction = dd.Maximize.String()
	cfg.Command = failsOn("bad")
	cfg.Output = filepath.Join(dir, "reduced.txt")

	session, err := NewSession(cfg)
	require.NoError(t, err)
	require.NoError(t, session.Run(context.Background()))
	summary, err := session.Finish()
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	assert.ElementsMatch(t, [][]string{{"line 2"}, {"line 4"}}, summary.Results[0].Causes)

	reduced, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree\n", string(reduced))
}

func TestNewSessionRejectsUnresolvedOriginal(t *testing.T) {
	target := writeFile(t, filepath.Join(t.TempDir(), "input.txt"), "fine\n")
	cfg := testConfig(t, target)
	cfg.Command = failsOn("needle")
	cfg.MaxProperty = nil

	session, err := NewSession(cfg)
	require.NoError(t, err)
	err = session.Run(context.Background())
	assert.ErrorIs(t, err, reduce.ErrNoProperty)
}

func TestInteractiveSession(t *testing.T) {
	target := writeFile(t, filepath.Join(t.TempDir(), "input.txt"), "x\ny\nz\n")
	cfg := testConfig(t, target)
	cfg.Interactive = true

	session, err := NewSession(cfg)
	require.NoError(t, err)
	assert.ErrorIs(t, session.Verify(context.Background()), reduce.ErrNoOracle)

	vm := session.ViewModel()
	assert.True(t, vm.IsReady)
	assert.False(t, vm.IsVerified)
	assert.Equal(t, session.Workspace().Target, vm.OutputPath)

	require.NoError(t, session.SetOriginal(dd.OutcomeFail))
	ctx := context.Background()
	for {
		ok, err := session.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		vm := session.ViewModel()
		assert.True(t, vm.InTest)
		assert.NotEmpty(t, vm.Pass.Elements)

		content, err := os.ReadFile(session.Workspace().Target)
		require.NoError(t, err)
		outcome := dd.OutcomePass
		if strings.Contains(string(content), "y") {
			outcome = dd.OutcomeFail
		}
		require.NoError(t, session.Submit(ctx, outcome))
	}

	vm = session.ViewModel()
	assert.True(t, vm.IsComplete)
	require.NotNil(t, vm.LastRound)
	assert.NotEmpty(t, vm.Log)
	require.Len(t, vm.Results, 1)
	assert.Equal(t, [][]string{{"line 2"}}, vm.Results[0].Causes)
	assert.Equal(t, []string{"line 2"}, vm.Pass.Cause)

	content, err := os.ReadFile(session.Workspace().Target)
	require.NoError(t, err)
	assert.Equal(t, "y\n", string(content))
}

func TestFinishRestoresPendingTest(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, filepath.Join(dir, "input.txt"), "x\ny\nz\n")
	cfg := testConfig(t, target)
	cfg.Interactive = true
	cfg.Output = filepath.Join(dir, "reduced.txt")

	session, err := NewSession(cfg)
	require.NoError(t, err)
	require.NoError(t, session.SetOriginal(dd.OutcomeFail))
	ok, err := session.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, session.ViewModel().InTest)

	summary, err := session.Finish()
	require.NoError(t, err)
	assert.False(t, summary.Complete)
	assert.False(t, session.ViewModel().InTest)

	reduced, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, "x\ny\nz\n", string(reduced))
}
