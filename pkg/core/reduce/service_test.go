package reduce_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/lines"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/reduce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, text string) *lines.Document {
	t.Helper()
	doc, err := lines.Parse(strings.NewReader(text))
	require.NoError(t, err)
	return doc
}

// failWhileVisible fails as long as doc still contains needle.
func failWhileVisible(doc *lines.Document, needle string, calls *int) reduce.Oracle {
	return reduce.OracleFunc(func(ctx context.Context) (dd.Outcome, error) {
		*calls++
		if strings.Contains(doc.String(), needle) {
			return dd.OutcomeFail, nil
		}
		return dd.OutcomePass, nil
	})
}

func TestRunMinimizesDocument(t *testing.T) {
	doc := parse(t, "a\nb\nc\nd\n")
	calls := 0
	synced := 0
	engine := dd.New(lines.NewManipulator())
	s := reduce.NewService(doc, engine, failWhileVisible(doc, "c", &calls), reduce.Options[*lines.Document]{
		Sync:          func(*lines.Document) error { synced++; return nil },
		RollbackCheck: 5,
	})
	assert.Same(t, engine.ExecutionLog(), s.ExecutionLog())

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, "c\n", doc.String())
	assert.True(t, s.Finished())
	original, ok := s.Original()
	assert.True(t, ok)
	assert.Equal(t, dd.OutcomeFail, original)
	assert.Equal(t, s.Rounds(), s.ExecutionLog().Size()-cacheHits(s))
	assert.Positive(t, synced)

	stats := s.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, "Lines 1", stats[0].Name())
	assert.Equal(t, 1, stats[0].Cause)
	assert.Equal(t, 3, stats[0].Removed)
}

func cacheHits(s *reduce.Service[*lines.Document]) int {
	n := 0
	for _, r := range s.ExecutionLog().GetEntries() {
		if r.Cached {
			n++
		}
	}
	return n
}

func TestRunRestoresRoundThatCannotBeJudged(t *testing.T) {
	doc := parse(t, "a\nb\nc\nd\n")
	calls := 0
	oracle := reduce.OracleFunc(func(context.Context) (dd.Outcome, error) {
		calls++
		if calls == 1 {
			return dd.OutcomeFail, nil
		}
		return "", errors.New("analysis could not start")
	})
	synced := ""
	s := reduce.NewService(doc, dd.New(lines.NewManipulator()), oracle, reduce.Options[*lines.Document]{
		Sync: func(d *lines.Document) error { synced = d.String(); return nil },
	})

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "judging round 1: analysis could not start")
	assert.False(t, s.InTest())
	assert.Equal(t, 1, s.Rounds())
	assert.Equal(t, "a\nb\nc\nd\n", doc.String())
	assert.Equal(t, "a\nb\nc\nd\n", synced, "the restored configuration must be synced")
}

func TestAbortRestoresPendingTest(t *testing.T) {
	doc := parse(t, "x\ny\nz\n")
	s := reduce.NewService(doc, dd.New(lines.NewManipulator()), nil, reduce.Options[*lines.Document]{})
	require.NoError(t, s.Abort(), "nothing to undo")

	require.NoError(t, s.SetOriginal(dd.OutcomeFail))
	ok, err := s.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, "x\ny\nz\n", doc.String())

	require.NoError(t, s.Abort())
	assert.False(t, s.InTest())
	assert.Equal(t, "x\ny\nz\n", doc.String())
	_, err = s.Submit(context.Background(), dd.OutcomeFail)
	assert.ErrorIs(t, err, reduce.ErrNoActiveTest)
}

func TestRunRejectsUnresolvedOriginal(t *testing.T) {
	doc := parse(t, "a\nb\n")
	oracle := reduce.OracleFunc(func(context.Context) (dd.Outcome, error) {
		return dd.OutcomeUnresolved, nil
	})
	s := reduce.NewService(doc, dd.New(lines.NewManipulator()), oracle, reduce.Options[*lines.Document]{})

	assert.ErrorIs(t, s.Run(context.Background()), reduce.ErrNoProperty)
	assert.Zero(t, s.Rounds())
}

func TestRollbackCheckDetectsLostProperty(t *testing.T) {
	doc := parse(t, "a\nb\nc\nd\n")
	calls := 0
	// Only the unmodified input fails; everything after it passes, so every
	// mutation is rolled back and the re-check no longer sees the failure.
	oracle := reduce.OracleFunc(func(context.Context) (dd.Outcome, error) {
		calls++
		if calls == 1 {
			return dd.OutcomeFail, nil
		}
		return dd.OutcomePass, nil
	})
	s := reduce.NewService(doc, dd.New(lines.NewManipulator()), oracle, reduce.Options[*lines.Document]{RollbackCheck: 2})

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, reduce.ErrPropertyLost)
	assert.Equal(t, 2, s.Rounds())
	// verify, two rounds, one re-check
	assert.Equal(t, 4, calls)
	assert.Equal(t, "a\nb\nc\nd\n", doc.String())
}

func TestRollbackCheckSkippedWhenMaximizing(t *testing.T) {
	doc := parse(t, "a\nb\nc\nd\n")
	calls := 0
	oracle := reduce.OracleFunc(func(context.Context) (dd.Outcome, error) {
		calls++
		if strings.Contains(doc.String(), "c") {
			return dd.OutcomeFail, nil
		}
		return dd.OutcomePass, nil
	})
	engine := dd.New(lines.NewManipulator(), dd.WithDirection(dd.Maximize))
	s := reduce.NewService(doc, engine, oracle, reduce.Options[*lines.Document]{
		RollbackCheck: 1,
		Direction:     dd.Maximize,
	})

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, "a\nb\nd\n", doc.String())
	assert.Equal(t, dd.Maximize, s.Direction())
}

func TestRunStopsBetweenRounds(t *testing.T) {
	doc := parse(t, "a\nb\nc\nd\ne\nf\ng\nh\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	oracle := reduce.OracleFunc(func(ctx context.Context) (dd.Outcome, error) {
		calls++
		if calls == 3 {
			cancel()
		}
		// The round in flight must not observe the cancellation.
		if err := ctx.Err(); err != nil {
			return dd.OutcomeUnresolved, err
		}
		if strings.Contains(doc.String(), "h") {
			return dd.OutcomeFail, nil
		}
		return dd.OutcomePass, nil
	})
	s := reduce.NewService(doc, dd.New(lines.NewManipulator()), oracle, reduce.Options[*lines.Document]{})

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, s.Rounds())
	assert.False(t, s.InTest())
	assert.False(t, s.Finished())
}

func TestManualWorkflow(t *testing.T) {
	doc := parse(t, "x\ny\n")
	s := reduce.NewService(doc, dd.New(lines.NewManipulator()), nil, reduce.Options[*lines.Document]{})
	changes := 0
	s.OnStateChange = func() { changes++ }

	_, err := s.Next()
	assert.ErrorIs(t, err, reduce.ErrNotVerified)
	_, err = s.Submit(context.Background(), dd.OutcomeFail)
	assert.ErrorIs(t, err, reduce.ErrNoActiveTest)
	_, err = s.Verify(context.Background())
	assert.ErrorIs(t, err, reduce.ErrNoOracle)
	assert.ErrorIs(t, s.SetOriginal(dd.OutcomeUnresolved), reduce.ErrNoProperty)

	require.NoError(t, s.SetOriginal(dd.OutcomeFail))
	for rounds := 0; ; rounds++ {
		require.Less(t, rounds, 20)
		ok, err := s.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		require.True(t, s.InTest())
		_, err = s.Next()
		require.ErrorIs(t, err, reduce.ErrTestInProgress)

		outcome := dd.OutcomePass
		if strings.Contains(doc.String(), "y") {
			outcome = dd.OutcomeFail
		}
		_, err = s.Submit(context.Background(), outcome)
		require.NoError(t, err)
	}

	assert.Equal(t, "y\n", doc.String())
	assert.Positive(t, changes)
	assert.NotEmpty(t, s.ID())
}

func TestWriteMetrics(t *testing.T) {
	doc := parse(t, "a\nb\nc\nd\n")
	calls := 0
	s := reduce.NewService(doc, dd.New(lines.NewManipulator()), failWhileVisible(doc, "b", &calls), reduce.Options[*lines.Document]{})
	require.NoError(t, s.Run(context.Background()))

	path := filepath.Join(t.TempDir(), "reduce.prom")
	require.NoError(t, reduce.WriteMetrics(path, s.ID(), s.Stats()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "# TYPE delta_reduce_rounds gauge")
	assert.Contains(t, text, `pass="Lines 1"`)
	assert.Contains(t, text, `run="`+s.ID()+`"`)
	assert.Contains(t, text, `delta_reduce_elements{class="cause"`)

	registry, err := reduce.NewMetricsRegistry(s.ID(), s.Stats())
	require.NoError(t, err)
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "delta_reduce_elements" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "class" && l.GetValue() == "cause" {
					assert.Equal(t, 1.0, m.GetGauge().GetValue())
				}
			}
		}
	}
}

func TestExportGraphs(t *testing.T) {
	doc := parse(t, "f() {\n  a;\n}\n")
	m := lines.NewManipulator()
	_, _, err := m.AllElements(doc)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "graphs")
	paths, err := reduce.ExportGraphs(dir, "initial", m)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "Lines-initial.dot")}, paths)

	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "digraph G {\nrankdir=LR;\n"))
	assert.Contains(t, string(content), `label="contains"`)

	_, err = reduce.ExportGraphs(dir, "", lines.NewManipulator())
	assert.Error(t, err)
}
