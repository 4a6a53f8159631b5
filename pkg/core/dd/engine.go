// Package dd implements delta debugging over a set of removable elements:
// the flat state machine (Engine), the repeat-until-fixpoint wrapper (Star),
// level-by-level stepping over the dependency graph (Hierarchical) and a
// sequential Composite of strategies.
package dd

import (
	"fmt"
	"slices"
	"time"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/sets"
	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	direction Direction
	mode      Mode
	cache     *Cache
	noCache   bool
	prune     bool
	log       *ExecutionLog
}

// WithDirection selects minimize, maximize or isolate. Minimize is the default.
func WithDirection(d Direction) Option {
	return func(o *options) { o.direction = d }
}

// WithMode restricts the parts that are tried.
func WithMode(m Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithCache shares a result cache between engines.
func WithCache(c *Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithoutCache disables result caching.
func WithoutCache() Option {
	return func(o *options) { o.noCache = true }
}

// WithPrune makes mutations remove the dependents of removed elements too.
func WithPrune() Option {
	return func(o *options) { o.prune = true }
}

// WithExecutionLog records rounds into l instead of a private log.
func WithExecutionLog(l *ExecutionLog) Option {
	return func(o *options) { o.log = l }
}

// Engine is the flat delta debugging state machine. It is single threaded:
// CanMutate, Mutate and SetResult must strictly alternate.
type Engine[E comparable, R any] struct {
	manip     Manipulator[E, R]
	direction Direction
	mode      Mode
	cache     *Cache
	prune     bool
	log       *ExecutionLog

	stage Stage
	// wholeCheck is the default for new working sets, checkWhole the
	// setting of the current one.
	wholeCheck bool
	checkWhole bool
	// fullRepresentation is set when the working set is everything the
	// manipulator found, as opposed to a level or a residue seeded by WorkOn.
	fullRepresentation bool

	unresolved []E
	safe       []E
	cause      []E
	removed    []E
	pruned     []E

	// deltas partition unresolved. next is the cursor of the delta to try
	// next, current the one under test.
	deltas  [][]E
	next    int
	current int

	mutation  []E
	effect    []E
	remaining []E
	prepared  bool
	pending   bool
	cacheKey  Fingerprint

	stats []*Stats
}

// New creates an engine over the elements of m.
func New[E comparable, R any](m Manipulator[E, R], opts ...Option) *Engine[E, R] {
	o := options{direction: Minimize, mode: DeltasAndComplements}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine[E, R]{
		manip:     m,
		direction: o.direction,
		mode:      o.mode,
		cache:     o.cache,
		prune:     o.prune,
		log:       o.log,
		current:   -1,
	}
	if e.cache == nil && !o.noCache {
		e.cache = NewCache()
	}
	if e.log == nil {
		e.log = NewExecutionLog()
	}
	e.wholeCheck = e.direction.checksWhole
	return e
}

// WorkOn seeds the engine with a working set. It is valid before the first
// CanMutate and after a pass has finished; it starts a new statistics pass.
func (e *Engine[E, R]) WorkOn(elements []E) {
	e.restart(elements, e.wholeCheck)
}

func (e *Engine[E, R]) restart(elements []E, checkWhole bool) {
	if len(elements) == 0 {
		panic(precondition("WorkOn", "no elements to work on"))
	}
	if e.stage != StageUninitialized && e.stage != StageFinished {
		panic(precondition("WorkOn", "engine is still busy in stage %q", e.stage))
	}

	e.unresolved = slices.Clone(elements)
	e.safe, e.cause, e.removed, e.pruned = nil, nil, nil, nil
	e.deltas, e.next, e.current = nil, 0, -1
	e.checkWhole = checkWhole
	e.fullRepresentation = false
	e.stage = StageReady
	e.useNewStats(len(elements))
}

// CanMutate advances the state machine to the next mutation worth testing.
// It returns false once the working set is resolved.
func (e *Engine[E, R]) CanMutate(repr R) (bool, error) {
	if e.pending {
		panic(precondition("CanMutate", "the previous mutation has no result yet"))
	}
	start := time.Now()
	defer func() {
		if st := e.currentStats(); st != nil {
			st.Premath += time.Since(start)
		}
	}()

	for {
		if err := e.advance(repr); err != nil {
			return false, err
		}
		if e.stage == StageFinished {
			return false, nil
		}
		e.prepareMutation()
		hit, err := e.consultCache(repr)
		if err != nil {
			return false, err
		}
		if !hit {
			return true, nil
		}
	}
}

// Mutate applies the prepared mutation through the manipulator.
func (e *Engine[E, R]) Mutate(repr R) error {
	if !e.prepared {
		panic(precondition("Mutate", "no mutation prepared; CanMutate must return true first"))
	}
	start := time.Now()
	defer func() { e.currentStats().Mutation += time.Since(start) }()

	if err := e.apply(repr); err != nil {
		return err
	}
	e.prepared = false
	e.pending = true
	return nil
}

// SetResult interprets the outcome of the applied mutation and either keeps
// it or rolls it back.
func (e *Engine[E, R]) SetResult(repr R, outcome Outcome) (Rollback, error) {
	if !e.pending {
		panic(precondition("SetResult", "no mutation is awaiting a result"))
	}
	if !outcome.Valid() {
		panic(precondition("SetResult", "unknown outcome %q", outcome))
	}
	start := time.Now()
	defer func() { e.currentStats().Aftermath += time.Since(start) }()

	e.pending = false
	if e.cache != nil {
		e.cache.Put(e.cacheKey, outcome)
	}

	rollback := RolledBack
	if e.keeps(outcome) {
		rollback = NoRollback
	} else if err := e.manip.Rollback(repr); err != nil {
		return RolledBack, fmt.Errorf("rolling back %s: %w", e.manip.Title(), err)
	}

	e.interpret(outcome, rollback, false)
	return rollback, nil
}

// advance runs the transitions that need no test until the engine either
// points at a testable delta or is finished.
func (e *Engine[E, R]) advance(repr R) error {
	for {
		switch e.stage {
		case StageUninitialized:
			elements, _, err := e.manip.AllElements(repr)
			if err != nil {
				return err
			}
			if len(elements) == 0 {
				logging.Infof("Engine: No %s found, nothing to %s.", e.manip.Title(), e.direction)
				e.useNewStats(0)
				e.stage = StageFinished
				return nil
			}
			e.restart(elements, e.wholeCheck)
			e.fullRepresentation = true

		case StageReady:
			logging.Infof("Engine: Starting to %s %d %s.", e.direction, len(e.unresolved), e.manip.Title())
			if e.fullRepresentation && len(e.unresolved) == 1 && e.direction.keepsOnFail && !e.checkWhole {
				// A single element is the whole failing input; it cannot be split.
				logging.Infof("Engine: Only %v is left, it is the cause.", e.unresolved[0])
				e.cause = append(e.cause, e.unresolved...)
				e.unresolved = nil
				e.stage = StageAllResolved
				continue
			}
			e.deltas = [][]E{slices.Clone(e.unresolved)}
			e.next = 0
			if e.checkWhole {
				e.stage = StageCheckWhole
			} else {
				e.stage = StageRemoveWhole
			}
			return nil

		case StageRemoveDelta, StageRemoveComplement:
			switch {
			case len(e.deltas) == 0:
				e.stage = StageAllResolved
			case len(e.deltas) == 1:
				e.narrow(e.deltas[0])
			case e.next < len(e.deltas):
				return nil
			default:
				e.nextGranularity()
			}

		case StageAllResolved:
			return e.finalize(repr)

		default:
			// Whole, halves and the whole check are positioned by the outcome handlers.
			return nil
		}
	}
}

func (e *Engine[E, R]) prepareMutation() {
	e.current = e.next
	delta := e.deltas[e.current]

	switch e.stage {
	case StageCheckWhole:
		e.mutation = []E{}
	case StageRemoveComplement:
		e.mutation = e.complementOf(e.current)
	default:
		e.mutation = slices.Clone(delta)
	}

	if e.prune {
		e.remaining = e.manip.RemainingIfPrune(e.mutation)
		e.effect = sets.Without(e.manip.Graph().Nodes(), sets.MakeSet(e.remaining))
	} else {
		e.remaining = e.manip.RemainingIfRemove(e.mutation)
		e.effect = e.mutation
	}
	e.prepared = true

	removedName, keptName := e.stage.partNames()
	logging.Debugf("Engine: [%s] Removing %s %s of %d elements, keeping %s.",
		e.stage, removedName, sets.ShortList(e.mutation), len(e.mutation), keptName)
}

func (e *Engine[E, R]) complementOf(index int) []E {
	var result []E
	for i, d := range e.deltas {
		if i != index {
			result = append(result, d...)
		}
	}
	return result
}

func (e *Engine[E, R]) apply(repr R) error {
	if e.prune {
		if _, err := e.manip.Prune(repr, e.mutation); err != nil {
			return fmt.Errorf("pruning %s: %w", e.manip.Title(), err)
		}
		return nil
	}
	if err := e.manip.Remove(repr, e.mutation); err != nil {
		return fmt.Errorf("removing %s: %w", e.manip.Title(), err)
	}
	return nil
}

// consultCache answers the prepared mutation from the cache if possible. A
// cached outcome that keeps the removal is applied for real; any other
// cached outcome leaves the representation untouched.
func (e *Engine[E, R]) consultCache(repr R) (bool, error) {
	if e.cache == nil {
		return false, nil
	}
	e.cacheKey = fingerprint(e.cache, e.remaining)

	outcome, ok := e.cache.Get(e.cacheKey)
	if !ok {
		return false, nil
	}
	logging.Debugf("Engine: Configuration with %d elements was already tested: %s.", len(e.remaining), outcome)

	rollback := RolledBack
	if e.keeps(outcome) {
		if err := e.apply(repr); err != nil {
			return false, err
		}
		rollback = NoRollback
	}
	e.prepared = false
	e.interpret(outcome, rollback, true)
	return true, nil
}

func (e *Engine[E, R]) keeps(outcome Outcome) bool {
	return outcome == OutcomeFail && e.direction.keepsOnFail && e.stage != StageCheckWhole
}

func (e *Engine[E, R]) interpret(outcome Outcome, rollback Rollback, cached bool) {
	st := e.currentStats()
	st.recordRound(outcome, rollback, cached)
	e.log.Log(Round{
		Pass:      st.Pass,
		Stage:     e.stage,
		Direction: e.direction.String(),
		Removed:   len(e.effect),
		Remaining: len(e.remaining),
		Outcome:   outcome,
		Rollback:  rollback,
		Cached:    cached,
		At:        time.Now(),
	})

	switch {
	case e.stage == StageCheckWhole:
		e.checkWholeResult(outcome)
	case rollback == NoRollback:
		e.reduce()
	case outcome == OutcomePass && e.direction.learnsOnPass:
		e.increase()
	default:
		e.inconclusive()
	}
}

func (e *Engine[E, R]) checkWholeResult(outcome Outcome) {
	if outcome == OutcomePass {
		logging.Infof("Engine: The whole set of %d %s already passes.", len(e.unresolved), e.manip.Title())
		e.safe = append(e.safe, e.unresolved...)
		e.unresolved = nil
		e.deltas = nil
		e.stage = StageAllResolved
		return
	}
	e.narrow(e.deltas[e.current])
}

// reduce keeps a removal: the removed part was not needed.
func (e *Engine[E, R]) reduce() {
	e.markRemoved(e.effect)

	if e.stage == StageRemoveComplement {
		e.deltas = [][]E{e.deltas[e.current]}
	} else {
		e.deltas = slices.Delete(e.deltas, e.current, e.current+1)
	}
	e.next = e.current
	e.syncDeltas()

	if e.stage != StageRemoveDelta {
		e.focus()
	}
}

// increase learns from a passing run: everything that stayed is safe, the
// cause is inside what was removed.
func (e *Engine[E, R]) increase() {
	gone := sets.MakeSet(e.effect)
	newlySafe := sets.Without(e.unresolved, gone)
	e.safe = append(e.safe, newlySafe...)
	e.unresolved = sets.Keep(e.unresolved, gone)
	logging.Debugf("Engine: %d elements are safe.", len(newlySafe))

	if e.stage == StageRemoveComplement {
		e.deltas = slices.Delete(e.deltas, e.current, e.current+1)
		e.next = e.current
		e.syncDeltas()
		return
	}
	e.deltas = [][]E{e.deltas[e.current]}
	e.next = 0
	e.syncDeltas()
	e.focus()
}

func (e *Engine[E, R]) inconclusive() {
	switch e.stage {
	case StageRemoveWhole:
		e.narrow(e.deltas[e.current])
	case StageRemoveHalf1:
		e.stage = StageRemoveHalf2
		e.next = 1
	case StageRemoveHalf2:
		if e.mode.allowsComplements() {
			e.stage = StageRemoveComplement
		} else {
			e.stage = StageRemoveDelta
		}
		e.halveAll()
	default:
		e.next = e.current + 1
	}
}

// nextGranularity is called when every delta (or complement) of the current
// size was tried without a conclusive answer.
func (e *Engine[E, R]) nextGranularity() {
	switch {
	case e.stage == StageRemoveDelta && e.mode.allowsComplements():
		e.stage = StageRemoveComplement
		e.halveAll()
	case e.stage == StageRemoveDelta:
		e.halveAll()
	case e.mode.allowsDeltas():
		e.stage = StageRemoveDelta
		e.next = 0
	default:
		e.halveAll()
	}
}

// focus narrows onto the single delta left, or finishes when none is left.
func (e *Engine[E, R]) focus() {
	switch len(e.deltas) {
	case 0:
		e.stage = StageAllResolved
	case 1:
		e.narrow(e.deltas[0])
	default:
		e.stage = StageRemoveDelta
		e.next = 0
	}
}

// narrow restarts the binary search on d, which holds all unresolved elements.
func (e *Engine[E, R]) narrow(d []E) {
	e.deltas = [][]E{d}
	e.halveAll()
	if e.stage != StageAllResolved {
		e.stage = StageRemoveHalf1
	}
}

// halveAll splits every delta. Deltas of size one cannot be split and become cause.
func (e *Engine[E, R]) halveAll() {
	var halves [][]E
	var singles []E
	for _, d := range e.deltas {
		if len(d) == 1 {
			singles = append(singles, d[0])
			continue
		}
		first, second := sets.Split(d)
		halves = append(halves, first, second)
	}
	if len(singles) > 0 {
		logging.Debugf("Engine: %s cannot be split further, resolved to cause.", sets.ShortList(singles))
		e.cause = append(e.cause, singles...)
		e.unresolved = sets.Without(e.unresolved, sets.MakeSet(singles))
	}

	e.deltas = halves
	e.next = 0
	if len(e.unresolved) == 0 {
		e.stage = StageAllResolved
	}
}

// markRemoved moves everything the mutation deleted into removed. Elements a
// prune dragged along that were never part of the working set are tracked
// separately.
func (e *Engine[E, R]) markRemoved(effect []E) {
	working := sets.MakeSet(e.unresolved)
	working.AddAll(e.safe)
	working.AddAll(e.cause)
	gone := sets.MakeSet(effect)

	for _, x := range effect {
		if working.Has(x) {
			e.removed = append(e.removed, x)
		} else {
			e.pruned = append(e.pruned, x)
		}
	}
	e.unresolved = sets.Without(e.unresolved, gone)
	e.safe = sets.Without(e.safe, gone)
	e.cause = sets.Without(e.cause, gone)
}

// syncDeltas drops resolved elements from the deltas and empty deltas from
// the list, keeping the cursor on the same logical position.
func (e *Engine[E, R]) syncDeltas() {
	live := sets.MakeSet(e.unresolved)
	kept := make([][]E, 0, len(e.deltas))
	next := e.next
	for i, d := range e.deltas {
		d = sets.Keep(d, live)
		if len(d) == 0 {
			if i < e.next {
				next--
			}
			continue
		}
		kept = append(kept, d)
	}
	e.deltas = kept
	e.next = next
}

func (e *Engine[E, R]) finalize(repr R) error {
	if e.direction.removesCauseAtEnd && len(e.cause) > 0 {
		logging.Infof("Engine: Removing cause %s to keep the maximal passing configuration.", sets.ShortList(e.cause))
		if err := e.manip.Remove(repr, e.cause); err != nil {
			return fmt.Errorf("removing cause %s: %w", e.manip.Title(), err)
		}
	}

	if st := e.currentStats(); st != nil {
		st.Cause = len(e.cause)
		st.Safe = len(e.safe)
		st.Removed = len(e.removed) + len(e.pruned)
		st.Unresolved = len(e.unresolved)
	}
	switch e.direction {
	case Minimize:
		logging.Infof("Engine: All %s resolved, %d removed and %d are needed.", e.manip.Title(), len(e.removed)+len(e.pruned), len(e.cause))
	case Maximize:
		logging.Infof("Engine: All %s resolved, %d are safe and %d had to go.", e.manip.Title(), len(e.safe), len(e.cause))
	default:
		logging.Infof("Engine: All %s resolved, cause %s, %d safe, %d removed.", e.manip.Title(), sets.ShortList(e.cause), len(e.safe), len(e.removed))
	}
	e.stage = StageFinished
	return nil
}

func (e *Engine[E, R]) useNewStats(found int) {
	e.stats = append(e.stats, &Stats{
		Pass:  len(e.stats) + 1,
		Title: e.manip.Title(),
		Found: found,
	})
}

func (e *Engine[E, R]) currentStats() *Stats {
	if len(e.stats) == 0 {
		return nil
	}
	return e.stats[len(e.stats)-1]
}

func (e *Engine[E, R]) requireFinished(op string) {
	if e.stage != StageFinished {
		panic(precondition(op, "results are only available once finished, stage is %q", e.stage))
	}
}

// CauseElements returns the elements that induce the property.
func (e *Engine[E, R]) CauseElements() []E {
	e.requireFinished("CauseElements")
	return slices.Clone(e.cause)
}

// SafeElements returns every element proven unnecessary for the property,
// whether it is still present or was deleted on the way.
func (e *Engine[E, R]) SafeElements() []E {
	e.requireFinished("SafeElements")
	return sets.Concat(e.safe, e.removed)
}

// RemovedElements returns what this engine deleted from the representation,
// including dependents dragged along by pruning. Valid at any time.
func (e *Engine[E, R]) RemovedElements() []E {
	return sets.Concat(e.removed, e.pruned)
}

// Partition returns the current four-way classification of the working set.
func (e *Engine[E, R]) Partition() Partition[E] {
	return Partition[E]{
		Unresolved: slices.Clone(e.unresolved),
		Safe:       slices.Clone(e.safe),
		Cause:      slices.Clone(e.cause),
		Removed:    slices.Clone(e.removed),
	}
}

// PrunedElements returns dependents removed outside the working set.
func (e *Engine[E, R]) PrunedElements() []E {
	return slices.Clone(e.pruned)
}

func (e *Engine[E, R]) Stage() Stage {
	return e.stage
}

func (e *Engine[E, R]) Direction() Direction {
	return e.direction
}

// Stats returns the statistics of every pass so far.
func (e *Engine[E, R]) Stats() []*Stats {
	return slices.Clone(e.stats)
}

func (e *Engine[E, R]) ExecutionLog() *ExecutionLog {
	return e.log
}

func (e *Engine[E, R]) Manipulator() Manipulator[E, R] {
	return e.manip
}
