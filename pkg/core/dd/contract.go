package dd

import "github.com/Qendolin/delta-reduce-tool/pkg/core/graph"

// Manipulator discovers the removable elements of one kind in a
// representation R and applies or undoes mutations on it.
type Manipulator[E comparable, R any] interface {
	Title() string
	// AllElements discovers all present elements and their dependency graph.
	AllElements(repr R) ([]E, *graph.Graph[E], error)
	// Remove deletes exactly the given elements.
	Remove(repr R, elements []E) error
	// Restore re-inserts previously removed elements.
	Restore(repr R, elements []E) error
	// Prune deletes the elements plus their dependents and returns the closure.
	Prune(repr R, elements []E) ([]E, error)
	// Rollback undoes the most recent Remove or Prune.
	Rollback(repr R) error
	// NextLevelElements yields the next topological frontier of the live graph.
	NextLevelElements() ([]E, error)
	RemainingIfRemove(elements []E) []E
	RemainingIfPrune(elements []E) []E
	Graph() *graph.Graph[E]
}

// Strategy is the driver loop contract:
//
//	for ok, err := s.CanMutate(repr); ok; ok, err = s.CanMutate(repr) {
//		s.Mutate(repr)
//		s.SetResult(repr, runAndClassify(repr))
//	}
type Strategy[R any] interface {
	CanMutate(repr R) (bool, error)
	Mutate(repr R) error
	SetResult(repr R, outcome Outcome) (Rollback, error)
}

// Partition is a snapshot of how the engine classified its working set.
type Partition[E comparable] struct {
	Unresolved []E
	Safe       []E
	Cause      []E
	Removed    []E
}

// StatsReporter is implemented by strategies that keep statistics.
type StatsReporter interface {
	Stats() []*Stats
}

// ExecutionLogger is implemented by strategies that record their rounds.
type ExecutionLogger interface {
	ExecutionLog() *ExecutionLog
}
