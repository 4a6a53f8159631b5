package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/files"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/lines"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/reduce"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/runner"
	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
	"github.com/Qendolin/delta-reduce-tool/pkg/ui"
	"github.com/google/uuid"
)

// TargetPlaceholder in the command is replaced with the path of the working
// copy. The same path is also exported as TargetEnv.
const (
	TargetPlaceholder = "{}"
	TargetEnv         = "DELTA_REDUCE_TARGET"
)

// Session is one reduction run, independent of the element type.
type Session interface {
	ID() string
	Workspace() *Workspace
	// Verify runs the analysis on the unmodified input and records its outcome.
	Verify(ctx context.Context) error
	Verified() bool
	// SetOriginal records the outcome of the unmodified input, as judged by the user.
	SetOriginal(o dd.Outcome) error
	Next() (bool, error)
	Submit(ctx context.Context, o dd.Outcome) error
	Run(ctx context.Context) error
	ViewModel() ui.ReductionViewModel
	// Finish undoes a pending test, then writes the output, the graphs and
	// the metrics.
	Finish() (*Summary, error)
}

// NewSession copies the target into a workspace and builds the configured
// strategy over it. Outside interactive mode the command becomes the oracle.
func NewSession(cfg *Config) (Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	ws, err := NewWorkspace(cfg.WorkDir, cfg.Target, cfg.Kind, runID[:8])
	if err != nil {
		return nil, err
	}

	switch ws.Kind {
	case KindFiles:
		tree, err := files.Open(ws.Target)
		if err != nil {
			return nil, err
		}
		kind := manipulators[string, *files.Tree]{structured: files.NewManipulator, flat: files.NewManipulator}
		return newReduction(cfg, runID, ws, tree, nil, kind)
	default:
		doc, err := lines.ReadFile(ws.Target)
		if err != nil {
			return nil, err
		}
		sync := func(d *lines.Document) error { return d.WriteFile(ws.Target) }
		kind := manipulators[lines.Element, *lines.Document]{structured: lines.NewManipulator, flat: lines.NewLineManipulator}
		return newReduction(cfg, runID, ws, doc, sync, kind)
	}
}

type reduction[R any] struct {
	id         string
	cfg        *Config
	ws         *Workspace
	plan       *plan[R]
	service    *reduce.Service[R]
	analysis   *runner.Analysis
	classifier *runner.Classifier
	direction  dd.Direction
	approach   string
	output     string
	graphs     []string
	started    time.Time
}

func newReduction[E comparable, R any](cfg *Config, runID string, ws *Workspace, repr R, sync func(R) error, kind manipulators[E, R]) (*reduction[R], error) {
	direction, err := cfg.ParsedDirection()
	if err != nil {
		return nil, err
	}
	mode, err := dd.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	classifier, err := cfg.Classifier()
	if err != nil {
		return nil, err
	}

	log := dd.NewExecutionLog()
	opts := []dd.Option{dd.WithMode(mode), dd.WithExecutionLog(log)}
	if cfg.NoCache {
		opts = append(opts, dd.WithoutCache())
	}
	p, err := buildPlan(cfg.Strategy, direction, opts, kind)
	if err != nil {
		return nil, err
	}

	r := &reduction[R]{
		id:         runID,
		cfg:        cfg,
		ws:         ws,
		plan:       p,
		classifier: classifier,
		direction:  direction,
		approach:   classifier.ApproachName(direction),
		output:     ws.Target,
		started:    time.Now(),
	}
	if suggested := classifier.SuggestedDirection(); suggested != direction {
		logging.Warnf("Reducer: The configured properties suggest %s, reducing with %s.", suggested, direction)
	}

	var oracle reduce.Oracle
	if !cfg.Interactive {
		rules, err := cfg.Rulebook()
		if err != nil {
			return nil, err
		}
		limits, err := cfg.Limits()
		if err != nil {
			return nil, err
		}
		r.analysis = &runner.Analysis{
			Command: &runner.Command{
				Args:   commandArgs(cfg.Command, ws.Target),
				Dir:    ws.Dir,
				Env:    []string{TargetEnv + "=" + ws.Target},
				Rules:  rules,
				Limits: limits,
			},
			Classifier: classifier,
		}
		oracle = r.analysis
	}
	r.service = reduce.NewService(repr, p.strategy, oracle, reduce.Options[R]{
		Sync:          sync,
		RollbackCheck: cfg.RollbackCheck,
		Direction:     direction,
		Log:           log,
	})

	if cfg.GraphDir != "" {
		exporters, err := p.discover(repr)
		if err != nil {
			return nil, err
		}
		paths, err := reduce.ExportGraphs(cfg.GraphDir, "initial", exporters...)
		if err != nil {
			return nil, err
		}
		r.graphs = append(r.graphs, paths...)
	}
	logging.Infof("Reducer: Run %s will %s using the %s strategy.", runID, r.approach, cfg.Strategy)
	return r, nil
}

func commandArgs(command []string, target string) []string {
	args := make([]string, len(command))
	for i, a := range command {
		args[i] = strings.ReplaceAll(a, TargetPlaceholder, target)
	}
	return args
}

func (r *reduction[R]) ID() string            { return r.id }
func (r *reduction[R]) Workspace() *Workspace { return r.ws }

func (r *reduction[R]) Verified() bool {
	_, ok := r.service.Original()
	return ok
}

func (r *reduction[R]) Verify(ctx context.Context) error {
	if r.analysis == nil {
		return reduce.ErrNoOracle
	}
	res, err := r.analysis.Calibrate(ctx)
	if err != nil {
		return fmt.Errorf("running the analysis on the original input: %w", err)
	}
	o := r.classifier.Classify(res)
	if err := r.service.SetOriginal(o); err != nil {
		return fmt.Errorf("%w (the analysis reported %s)", err, res.Outcome.Human())
	}
	return nil
}

func (r *reduction[R]) SetOriginal(o dd.Outcome) error {
	return r.service.SetOriginal(o)
}

func (r *reduction[R]) Next() (bool, error) {
	return r.service.Next()
}

func (r *reduction[R]) Submit(ctx context.Context, o dd.Outcome) error {
	_, err := r.service.Submit(ctx, o)
	return err
}

func (r *reduction[R]) Run(ctx context.Context) error {
	if !r.Verified() {
		if err := r.Verify(ctx); err != nil {
			return err
		}
	}
	return r.service.Run(ctx)
}

func (r *reduction[R]) ViewModel() ui.ReductionViewModel {
	original, verified := r.service.Original()
	log := r.service.ExecutionLog()
	vm := ui.ReductionViewModel{
		IsReady:    true,
		IsVerified: verified,
		IsComplete: r.service.Finished(),
		InTest:     r.service.InTest(),
		Round:      r.service.Rounds(),
		Approach:   r.approach,
		Direction:  r.direction,
		Original:   original,
		Pass:       r.plan.ActivePass().View(),
		Results:    r.plan.Results(),
		Stats:      r.service.Stats(),
		Log:        log.GetEntries(),
		OutputPath: r.output,
	}
	if last, ok := log.GetLast(); ok {
		vm.LastRound = &last
	}
	return vm
}

func (r *reduction[R]) Finish() (*Summary, error) {
	var errs []error
	// A pending test leaves its mutation applied; only a resolved
	// configuration is exported.
	consistent := true
	if err := r.service.Abort(); err != nil {
		errs = append(errs, err)
		consistent = false
	}
	if r.cfg.Output != "" && consistent {
		if err := r.ws.Export(r.cfg.Output); err != nil {
			errs = append(errs, fmt.Errorf("exporting the result: %w", err))
		} else {
			r.output = r.cfg.Output
		}
	}
	if r.cfg.GraphDir != "" && r.service.Rounds() > 0 {
		paths, err := reduce.ExportGraphs(r.cfg.GraphDir, "final", r.plan.exporters...)
		if err != nil {
			errs = append(errs, err)
		}
		r.graphs = append(r.graphs, paths...)
	}
	if r.cfg.MetricsFile != "" {
		if err := reduce.WriteMetrics(r.cfg.MetricsFile, r.id, r.service.Stats()); err != nil {
			errs = append(errs, err)
		}
	}

	original, _ := r.service.Original()
	s := &Summary{
		RunID:    r.id,
		Target:   r.cfg.Target,
		Approach: r.approach,
		Strategy: r.cfg.Strategy,
		Original: original,
		Rounds:   r.service.Rounds(),
		Complete: r.service.Finished(),
		Results:  r.plan.Results(),
		Stats:    r.service.Stats(),
		Output:   r.output,
		Graphs:   r.graphs,
		Metrics:  r.cfg.MetricsFile,
		Elapsed:  time.Since(r.started),
	}
	return s, errors.Join(errs...)
}
