// Package reduce drives a delta debugging strategy against an oracle: it runs
// the mutate / judge / set-result loop, watches for a lost property and
// collects what the run produced.
package reduce

import (
	"context"
	"errors"
	"fmt"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
	"github.com/google/uuid"
)

var (
	ErrPropertyLost   = errors.New("the current configuration no longer shows the original outcome")
	ErrNoProperty     = errors.New("the original input is unresolved, there is nothing to reduce")
	ErrNotVerified    = errors.New("the original outcome has not been established")
	ErrTestInProgress = errors.New("a test is already in progress and must be completed first")
	ErrNoActiveTest   = errors.New("cannot submit a result without an active test")
	ErrNoOracle       = errors.New("no oracle to judge configurations")
)

// Oracle judges the configuration currently visible to the analysis.
type Oracle interface {
	Judge(ctx context.Context) (dd.Outcome, error)
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ctx context.Context) (dd.Outcome, error)

func (f OracleFunc) Judge(ctx context.Context) (dd.Outcome, error) {
	return f(ctx)
}

// Options configure a Service.
type Options[R any] struct {
	// Sync makes the representation visible to the oracle, e.g. by writing
	// it to disk. It runs after every change. Nil when the representation is
	// changed in place.
	Sync func(repr R) error
	// RollbackCheck re-judges the current configuration after this many
	// rollbacks in a row. Zero disables the check.
	RollbackCheck int
	// Direction of the strategy. Maximization keeps no mutation until the
	// end, so the rollback check does not apply to it.
	Direction dd.Direction
	// Log shows the rounds of the run. Defaults to the strategy's own log.
	Log *dd.ExecutionLog
}

// Service encapsulates the reduction workflow.
type Service[R any] struct {
	id       string
	repr     R
	strategy dd.Strategy[R]
	oracle   Oracle
	opts     Options[R]

	original       dd.Outcome
	verified       bool
	inTest         bool
	finished       bool
	rounds         int
	rollbacksInRow int

	OnStateChange func()
}

// NewService creates a service. oracle may be nil when results are submitted
// by hand.
func NewService[R any](repr R, strategy dd.Strategy[R], oracle Oracle, opts Options[R]) *Service[R] {
	if opts.Log == nil {
		if l, ok := strategy.(dd.ExecutionLogger); ok {
			opts.Log = l.ExecutionLog()
		}
	}
	if opts.Log == nil {
		opts.Log = dd.NewExecutionLog()
	}
	if opts.Direction == (dd.Direction{}) {
		opts.Direction = dd.Minimize
	}
	return &Service[R]{
		id:       uuid.NewString(),
		repr:     repr,
		strategy: strategy,
		oracle:   oracle,
		opts:     opts,
	}
}

// --- Direct Component Access ---
func (s *Service[R]) ID() string                     { return s.id }
func (s *Service[R]) Repr() R                        { return s.repr }
func (s *Service[R]) Strategy() dd.Strategy[R]       { return s.strategy }
func (s *Service[R]) ExecutionLog() *dd.ExecutionLog { return s.opts.Log }
func (s *Service[R]) Direction() dd.Direction        { return s.opts.Direction }
func (s *Service[R]) Rounds() int                    { return s.rounds }
func (s *Service[R]) InTest() bool                   { return s.inTest }
func (s *Service[R]) Finished() bool                 { return s.finished }

// Original returns the outcome of the unmodified input.
func (s *Service[R]) Original() (dd.Outcome, bool) {
	return s.original, s.verified
}

// Stats returns the statistics of every pass of the strategy.
func (s *Service[R]) Stats() []*dd.Stats {
	if r, ok := s.strategy.(dd.StatsReporter); ok {
		return r.Stats()
	}
	return nil
}

// --- High-Level Workflow Methods ---

// Verify judges the unmodified input and remembers its outcome.
func (s *Service[R]) Verify(ctx context.Context) (dd.Outcome, error) {
	if s.oracle == nil {
		return "", ErrNoOracle
	}
	if err := s.sync(); err != nil {
		return "", err
	}
	o, err := s.oracle.Judge(ctx)
	if err != nil {
		return "", fmt.Errorf("judging the original input: %w", err)
	}
	return o, s.SetOriginal(o)
}

// SetOriginal records the outcome of the unmodified input, as judged elsewhere.
func (s *Service[R]) SetOriginal(o dd.Outcome) error {
	if o == dd.OutcomeUnresolved {
		return ErrNoProperty
	}
	s.original = o
	s.verified = true
	logging.Infof("Reducer: Run %s starts from an original outcome of %s.", s.id, o)
	s.notify()
	return nil
}

// Next prepares and applies the next mutation. It returns false once the
// strategy has nothing left to try.
func (s *Service[R]) Next() (bool, error) {
	if s.inTest {
		return false, ErrTestInProgress
	}
	if !s.verified {
		return false, ErrNotVerified
	}
	if s.finished {
		return false, nil
	}

	ok, err := s.strategy.CanMutate(s.repr)
	if err != nil {
		return false, fmt.Errorf("preparing the next mutation: %w", err)
	}
	if !ok {
		s.finished = true
		logging.Infof("Reducer: Done after %d rounds.", s.rounds)
		s.notify()
		return false, nil
	}

	if err := s.strategy.Mutate(s.repr); err != nil {
		return false, fmt.Errorf("applying mutation: %w", err)
	}
	s.rounds++
	s.inTest = true
	if err := s.sync(); err != nil {
		return false, errors.Join(err, s.Abort())
	}
	logging.Debugf("Reducer: Round %d is ready to be judged.", s.rounds)
	s.notify()
	return true, nil
}

// Submit hands the outcome of the active test to the strategy. After too
// many rollbacks in a row the configuration is judged again; if it lost the
// original outcome, ErrPropertyLost is returned.
func (s *Service[R]) Submit(ctx context.Context, outcome dd.Outcome) (dd.Rollback, error) {
	if !s.inTest {
		return dd.RolledBack, ErrNoActiveTest
	}
	s.inTest = false

	rollback, err := s.strategy.SetResult(s.repr, outcome)
	if err != nil {
		return rollback, fmt.Errorf("setting result: %w", err)
	}
	if err := s.sync(); err != nil {
		return rollback, err
	}
	logging.Infof("Reducer: Round %d: %s, %s.", s.rounds, outcome, rollback)
	defer s.notify()

	if rollback == dd.NoRollback {
		s.rollbacksInRow = 0
		return rollback, nil
	}
	s.rollbacksInRow++
	if s.opts.RollbackCheck <= 0 || s.rollbacksInRow%s.opts.RollbackCheck != 0 {
		return rollback, nil
	}
	return rollback, s.checkProperty(ctx)
}

// Abort undoes the active test, if any. The strategy sees the round as
// unresolved, which always restores the previous configuration.
func (s *Service[R]) Abort() error {
	if !s.inTest {
		return nil
	}
	s.inTest = false
	logging.Warnf("Reducer: Round %d was abandoned, restoring the previous configuration.", s.rounds)
	defer s.notify()
	if _, err := s.strategy.SetResult(s.repr, dd.OutcomeUnresolved); err != nil {
		return fmt.Errorf("undoing round %d: %w", s.rounds, err)
	}
	return s.sync()
}

func (s *Service[R]) checkProperty(ctx context.Context) error {
	if s.oracle == nil || s.opts.Direction == dd.Maximize {
		return nil
	}
	logging.Infof("Reducer: Running the analysis after %d rollbacks in a row.", s.rollbacksInRow)
	o, err := s.oracle.Judge(context.WithoutCancel(ctx))
	if err != nil {
		return fmt.Errorf("checking the current configuration: %w", err)
	}
	if o != s.original {
		logging.Errorf("Reducer: The current configuration yields %s instead of %s.", o, s.original)
		return fmt.Errorf("%w: got %s, expected %s", ErrPropertyLost, o, s.original)
	}
	return nil
}

// Step runs one full round: mutate, judge, set the result.
func (s *Service[R]) Step(ctx context.Context) (bool, error) {
	if s.oracle == nil {
		return false, ErrNoOracle
	}
	ok, err := s.Next()
	if err != nil || !ok {
		return ok, err
	}
	// A round is never interrupted; cancellation is honored between rounds.
	o, err := s.oracle.Judge(context.WithoutCancel(ctx))
	if err != nil {
		return false, errors.Join(fmt.Errorf("judging round %d: %w", s.rounds, err), s.Abort())
	}
	if _, err := s.Submit(ctx, o); err != nil {
		return false, err
	}
	return true, nil
}

// Run verifies the original input if needed and reduces until the strategy
// is exhausted or ctx is canceled.
func (s *Service[R]) Run(ctx context.Context) error {
	if !s.verified {
		if _, err := s.Verify(ctx); err != nil {
			return err
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			logging.Warnf("Reducer: Stopped after %d rounds: %v", s.rounds, err)
			return err
		}
		ok, err := s.Step(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

func (s *Service[R]) sync() error {
	if s.opts.Sync == nil {
		return nil
	}
	if err := s.opts.Sync(s.repr); err != nil {
		return fmt.Errorf("syncing representation: %w", err)
	}
	return nil
}

func (s *Service[R]) notify() {
	if s.OnStateChange != nil {
		s.OnStateChange()
	}
}
