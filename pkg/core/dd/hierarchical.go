package dd

import (
	"github.com/Qendolin/delta-reduce-tool/pkg/core/sets"
	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
)

// Hierarchical runs a pruning engine level by level over the dependency
// graph, starting at its sources. Removing a node prunes its dependents, so
// deeper levels only ever see elements whose prerequisites survived.
type Hierarchical[E comparable, R any] struct {
	engine  *Engine[E, R]
	manip   Manipulator[E, R]
	started bool
	done    bool
	levels  int

	cause   []E
	safe    []E
	removed []E
}

// NewHierarchical creates the wrapper; opts configure the per-level engine.
func NewHierarchical[E comparable, R any](m Manipulator[E, R], opts ...Option) *Hierarchical[E, R] {
	return &Hierarchical[E, R]{
		engine: New(m, append(opts, WithPrune())...),
		manip:  m,
	}
}

func (h *Hierarchical[E, R]) CanMutate(repr R) (bool, error) {
	if h.done {
		return false, nil
	}

	if !h.started {
		h.started = true
		if _, _, err := h.manip.AllElements(repr); err != nil {
			return false, err
		}
	} else {
		ok, err := h.engine.CanMutate(repr)
		if err != nil || ok {
			return ok, err
		}
		h.collect()
	}

	for {
		level, err := h.manip.NextLevelElements()
		if err != nil {
			return false, err
		}
		if len(level) == 0 {
			h.done = true
			logging.Infof("Engine: Hierarchical search done after %d levels.", h.levels)
			return false, nil
		}
		h.levels++
		logging.Infof("Engine: Level %d has %d %s %s.", h.levels, len(level), h.manip.Title(), sets.ShortList(level))

		h.engine.WorkOn(level)
		ok, err := h.engine.CanMutate(repr)
		if err != nil || ok {
			return ok, err
		}
		h.collect()
	}
}

func (h *Hierarchical[E, R]) Mutate(repr R) error {
	return h.engine.Mutate(repr)
}

func (h *Hierarchical[E, R]) SetResult(repr R, outcome Outcome) (Rollback, error) {
	return h.engine.SetResult(repr, outcome)
}

func (h *Hierarchical[E, R]) collect() {
	part := h.engine.Partition()
	h.cause = append(h.cause, part.Cause...)
	h.safe = append(h.safe, part.Safe...)
	h.removed = append(h.removed, h.engine.RemovedElements()...)
}

// Engine returns the per-level engine.
func (h *Hierarchical[E, R]) Engine() *Engine[E, R] {
	return h.engine
}

func (h *Hierarchical[E, R]) ExecutionLog() *ExecutionLog {
	return h.engine.ExecutionLog()
}

// Levels returns how many levels were searched.
func (h *Hierarchical[E, R]) Levels() int {
	return h.levels
}

func (h *Hierarchical[E, R]) Done() bool {
	return h.done
}

func (h *Hierarchical[E, R]) requireDone(op string) {
	if !h.done {
		panic(precondition(op, "hierarchical search has not finished"))
	}
}

// CauseElements returns the needed elements of every level.
func (h *Hierarchical[E, R]) CauseElements() []E {
	h.requireDone("CauseElements")
	return append([]E(nil), h.cause...)
}

// SafeElements returns every element proven unnecessary, pruned dependents included.
func (h *Hierarchical[E, R]) SafeElements() []E {
	h.requireDone("SafeElements")
	return sets.Concat(h.safe, h.removed)
}

// RemovedElements returns everything pruned away so far.
func (h *Hierarchical[E, R]) RemovedElements() []E {
	return append([]E(nil), h.removed...)
}

func (h *Hierarchical[E, R]) Stats() []*Stats {
	return h.engine.Stats()
}
