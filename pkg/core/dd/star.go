package dd

import (
	"fmt"
	"slices"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/sets"
	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
)

// Star repeats isolation until no further cause turns up, collecting a list
// of independent causes.
//
// Minimizing, each round re-runs isolation on the elements the previous
// round found safe while the earlier causes stay in place. Maximizing, each
// round restores what the previous round removed, deletes the cause it found
// and re-runs on the restored elements, starting with a whole check.
type Star[E comparable, R any] struct {
	engine    *Engine[E, R]
	direction Direction
	done      bool

	causes  [][]E
	safes   [][]E
	removed [][]E
}

// NewStar wraps an isolating engine. direction must be Minimize or Maximize.
func NewStar[E comparable, R any](m Manipulator[E, R], direction Direction, opts ...Option) *Star[E, R] {
	if direction != Minimize && direction != Maximize {
		panic(precondition("NewStar", "direction must be minimize or maximize, got %s", direction))
	}
	engine := New(m, append(opts, WithDirection(Isolate))...)
	engine.wholeCheck = direction.checksWhole
	return &Star[E, R]{engine: engine, direction: direction}
}

// CanMutate reports whether any round still has a mutation to try.
func (s *Star[E, R]) CanMutate(repr R) (bool, error) {
	for {
		if s.done {
			return false, nil
		}
		ok, err := s.engine.CanMutate(repr)
		if err != nil || ok {
			return ok, err
		}

		next, err := s.collect(repr)
		if err != nil {
			return false, err
		}
		if len(next) == 0 {
			s.done = true
			logging.Infof("Engine: DD* found %d causes in %d rounds.", len(s.causes), len(s.engine.Stats()))
			return false, nil
		}
		s.engine.WorkOn(next)
	}
}

func (s *Star[E, R]) Mutate(repr R) error {
	return s.engine.Mutate(repr)
}

func (s *Star[E, R]) SetResult(repr R, outcome Outcome) (Rollback, error) {
	return s.engine.SetResult(repr, outcome)
}

// collect records the finished round and prepares the next working set.
func (s *Star[E, R]) collect(repr R) ([]E, error) {
	part := s.engine.Partition()
	m := s.engine.manip

	if s.direction == Maximize {
		if len(part.Safe) > 0 {
			s.safes = append(s.safes, part.Safe)
		}
		if len(part.Cause) == 0 {
			return nil, nil
		}
		s.causes = append(s.causes, part.Cause)
		if len(part.Removed) > 0 {
			logging.Infof("Engine: DD* restoring %d removed %s.", len(part.Removed), m.Title())
			restore := slices.Clone(part.Removed)
			slices.Reverse(restore)
			if err := m.Restore(repr, restore); err != nil {
				return nil, fmt.Errorf("restoring %s: %w", m.Title(), err)
			}
		}
		logging.Infof("Engine: DD* removing cause %s.", sets.ShortList(part.Cause))
		if err := m.Remove(repr, part.Cause); err != nil {
			return nil, fmt.Errorf("removing cause %s: %w", m.Title(), err)
		}
		return part.Removed, nil
	}

	if len(part.Removed) > 0 {
		s.removed = append(s.removed, part.Removed)
	}
	if len(part.Cause) == 0 {
		if len(part.Safe) > 0 {
			s.safes = append(s.safes, part.Safe)
		}
		return nil, nil
	}
	s.causes = append(s.causes, part.Cause)
	if len(part.Safe) > 0 {
		logging.Infof("Engine: DD* repeating on %d safe %s.", len(part.Safe), m.Title())
	}
	return part.Safe, nil
}

// Done reports whether the last round found no further cause.
func (s *Star[E, R]) Done() bool {
	return s.done
}

func (s *Star[E, R]) requireDone(op string) {
	if !s.done {
		panic(precondition(op, "DD* has not finished"))
	}
}

// CauseSets returns the independent causes in the order they were found.
func (s *Star[E, R]) CauseSets() [][]E {
	s.requireDone("CauseSets")
	return slices.Clone(s.causes)
}

// CauseElements returns the union of all causes.
func (s *Star[E, R]) CauseElements() []E {
	s.requireDone("CauseElements")
	return sets.Concat(s.causes...)
}

// SafeElements returns every element proven unnecessary for the property.
func (s *Star[E, R]) SafeElements() []E {
	s.requireDone("SafeElements")
	return sets.Concat(append(slices.Clone(s.safes), s.removed...)...)
}

// RemovedElements returns what is no longer in the representation.
func (s *Star[E, R]) RemovedElements() []E {
	if s.direction == Maximize {
		return sets.Concat(s.causes...)
	}
	return sets.Concat(s.removed...)
}

func (s *Star[E, R]) Stats() []*Stats {
	return s.engine.Stats()
}

func (s *Star[E, R]) Engine() *Engine[E, R] {
	return s.engine
}

func (s *Star[E, R]) ExecutionLog() *ExecutionLog {
	return s.engine.ExecutionLog()
}
