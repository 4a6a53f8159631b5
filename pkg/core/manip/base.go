// Package manip provides the graph-backed element manipulator shared by every
// concrete kind of removable element. A concrete kind only supplies ElementOps;
// snapshots, rollback, pruning and level stepping live here.
package manip

import (
	"fmt"
	"io"
	"slices"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/graph"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/sets"
	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
)

// ElementOps knows how to discover, delete and re-insert one kind of element
// in a representation R.
type ElementOps[E comparable, R any] interface {
	// Discover builds the dependency graph of all elements currently present.
	Discover(repr R) (*graph.Graph[E], error)
	// RemoveElement deletes a single element from the representation.
	RemoveElement(repr R, e E) error
	// RestoreElement re-inserts a single, previously removed element.
	RestoreElement(repr R, e E) error
	// Describe returns a short human readable label.
	Describe(e E) string
}

// Manipulator applies and undoes mutations on a representation while keeping
// the dependency graph in sync with the elements that are present.
type Manipulator[E comparable, R any] struct {
	title string
	ops   ElementOps[E, R]

	graph    *graph.Graph[E]
	original *graph.Graph[E]
	backup   *graph.Graph[E]
	mutation []E

	previousLevels sets.Set[E]
	currentLevel   []E
	levelStarted   bool
}

// New creates a manipulator for the given element kind.
func New[E comparable, R any](title string, ops ElementOps[E, R]) *Manipulator[E, R] {
	return &Manipulator[E, R]{title: title, ops: ops}
}

// Title names the element kind, e.g. "Lines" or "Files".
func (m *Manipulator[E, R]) Title() string {
	return m.title
}

// Describe returns the label of e.
func (m *Manipulator[E, R]) Describe(e E) string {
	return m.ops.Describe(e)
}

// Graph returns the live dependency graph, nil before AllElements.
func (m *Manipulator[E, R]) Graph() *graph.Graph[E] {
	return m.graph
}

// WriteDOT exports the live graph in DOT format.
func (m *Manipulator[E, R]) WriteDOT(w io.Writer) error {
	if m.graph == nil {
		return ErrNotSetUp
	}
	return graph.WriteDOT(w, m.graph, m.ops.Describe)
}

// AllElements discovers every element and its graph, resetting level stepping.
func (m *Manipulator[E, R]) AllElements(repr R) ([]E, *graph.Graph[E], error) {
	g, err := m.ops.Discover(repr)
	if err != nil {
		return nil, nil, fmt.Errorf("discovering %s: %w", m.title, err)
	}
	m.graph = g
	m.original = g.Clone()
	m.backup = nil
	m.mutation = nil
	m.previousLevels = make(sets.Set[E])
	m.currentLevel = nil
	m.levelStarted = false

	logging.Debugf("Manipulator: Discovered %d %s with %d relations.", g.Len(), m.title, len(g.Edges()))
	return g.Nodes(), g, nil
}

// Remove deletes elements without looking at the graph. Either all of them are
// removed or, on error, the representation is left untouched.
func (m *Manipulator[E, R]) Remove(repr R, elements []E) error {
	if m.graph == nil {
		return ErrNotSetUp
	}
	for _, e := range elements {
		if !m.graph.HasNode(e) {
			return fmt.Errorf("removing %s %q: %w", m.title, m.ops.Describe(e), ErrElementMissing)
		}
	}

	backup := m.graph.Clone()
	var applied []E
	for _, e := range elements {
		if err := m.ops.RemoveElement(repr, e); err != nil {
			m.undo(repr, applied)
			return fmt.Errorf("removing %s %q: %w", m.title, m.ops.Describe(e), err)
		}
		applied = append(applied, e)
	}
	for _, e := range elements {
		m.graph.RemoveNode(e)
	}

	m.backup = backup
	m.mutation = slices.Clone(elements)
	return nil
}

// Prune removes elements together with everything that depends on them and
// returns the closure that was actually removed.
func (m *Manipulator[E, R]) Prune(repr R, elements []E) ([]E, error) {
	if m.graph == nil {
		return nil, ErrNotSetUp
	}
	closure := m.WhatToPrune(elements)
	if err := m.Remove(repr, closure); err != nil {
		return nil, err
	}
	return closure, nil
}

// Rollback undoes the most recent Remove or Prune.
func (m *Manipulator[E, R]) Rollback(repr R) error {
	if m.backup == nil {
		return ErrNothingToRollback
	}
	m.undo(repr, m.mutation)
	m.graph = m.backup
	m.backup = nil
	m.mutation = nil
	return nil
}

// undo re-inserts elements in reverse order. A failure here leaves the
// representation inconsistent, so it is logged loudly.
func (m *Manipulator[E, R]) undo(repr R, elements []E) {
	for i := len(elements) - 1; i >= 0; i-- {
		if err := m.ops.RestoreElement(repr, elements[i]); err != nil {
			logging.Errorf("Manipulator: Failed to restore %s %q: %v", m.title, m.ops.Describe(elements[i]), err)
		}
	}
}

// Restore re-inserts previously removed elements and the edges between them
// and the elements that are present. It does not touch the pending mutation
// history: a later Rollback would undo the mutation before this call.
func (m *Manipulator[E, R]) Restore(repr R, elements []E) error {
	if m.graph == nil {
		return ErrNotSetUp
	}
	for _, e := range elements {
		if !m.original.HasNode(e) {
			return fmt.Errorf("restoring %s %q: %w", m.title, m.ops.Describe(e), ErrElementUnknown)
		}
		if m.graph.HasNode(e) {
			return fmt.Errorf("restoring %s %q: %w", m.title, m.ops.Describe(e), ErrElementPresent)
		}
	}

	var applied []E
	for _, e := range elements {
		if err := m.ops.RestoreElement(repr, e); err != nil {
			for i := len(applied) - 1; i >= 0; i-- {
				_ = m.ops.RemoveElement(repr, applied[i])
			}
			return fmt.Errorf("restoring %s %q: %w", m.title, m.ops.Describe(e), err)
		}
		applied = append(applied, e)
	}

	for _, e := range elements {
		m.graph.AddNode(e)
	}
	for _, e := range elements {
		for _, s := range m.original.Successors(e) {
			if m.graph.HasNode(s) {
				rel, _ := m.original.EdgeValue(e, s)
				m.graph.PutEdge(e, s, rel)
			}
		}
		for _, p := range m.original.Predecessors(e) {
			if m.graph.HasNode(p) {
				rel, _ := m.original.EdgeValue(p, e)
				m.graph.PutEdge(p, e, rel)
			}
		}
	}
	m.mutation = nil
	m.backup = nil
	return nil
}

// WhatToPrune computes the closure of elements over the live graph: a
// successor joins when one of its prune-when-any edges comes from the closure
// or when all of its predecessors are in the closure.
func (m *Manipulator[E, R]) WhatToPrune(elements []E) []E {
	result := slices.Clone(elements)
	in := sets.MakeSet(elements)
	worklist := slices.Clone(elements)

	for len(worklist) > 0 {
		n := worklist[0]
		worklist = worklist[1:]
		for _, s := range m.graph.Successors(n) {
			if in.Has(s) || !m.prunable(s, in) {
				continue
			}
			in.Add(s)
			result = append(result, s)
			worklist = append(worklist, s)
		}
	}
	return result
}

func (m *Manipulator[E, R]) prunable(n E, removed sets.Set[E]) bool {
	all := true
	for _, p := range m.graph.Predecessors(n) {
		if !removed.Has(p) {
			if p != n {
				all = false
			}
			continue
		}
		if rel, _ := m.graph.EdgeValue(p, n); rel.Policy == graph.PruneWhenAnyRemoved {
			return true
		}
	}
	return all
}

// RemainingIfRemove lists the elements that would stay after removing elements.
func (m *Manipulator[E, R]) RemainingIfRemove(elements []E) []E {
	if m.graph == nil {
		return nil
	}
	return sets.Without(m.graph.Nodes(), sets.MakeSet(elements))
}

// RemainingIfPrune lists the elements that would stay after pruning elements.
func (m *Manipulator[E, R]) RemainingIfPrune(elements []E) []E {
	if m.graph == nil {
		return nil
	}
	return sets.Without(m.graph.Nodes(), sets.MakeSet(m.WhatToPrune(elements)))
}

// NextLevelElements walks the live graph as a topological frontier. The first
// call yields the sources; each later call yields the successors of the
// previous level whose predecessors are all in earlier levels or in the new
// level itself, so cycles inside a level do not block it. Once the frontier
// runs dry, whatever was never reached forms a final level.
func (m *Manipulator[E, R]) NextLevelElements() ([]E, error) {
	if m.graph == nil {
		return nil, ErrNotSetUp
	}
	if !m.levelStarted {
		m.levelStarted = true
		m.currentLevel = m.graph.Sources()
		m.previousLevels.AddAll(m.currentLevel)
		return slices.Clone(m.currentLevel), nil
	}

	candidates := make(sets.Set[E])
	var ordered []E
	for _, n := range m.currentLevel {
		if !m.graph.HasNode(n) {
			continue
		}
		for _, s := range m.graph.Successors(n) {
			if m.previousLevels.Has(s) || candidates.Has(s) {
				continue
			}
			candidates.Add(s)
			ordered = append(ordered, s)
		}
	}

	// Greatest fixpoint: drop candidates with a predecessor outside the
	// earlier levels and outside the surviving candidates.
	for changed := true; changed; {
		changed = false
		for _, s := range ordered {
			if !candidates.Has(s) {
				continue
			}
			for _, p := range m.graph.Predecessors(s) {
				if !m.previousLevels.Has(p) && !candidates.Has(p) {
					candidates.Remove(s)
					changed = true
					break
				}
			}
		}
	}

	m.currentLevel = sets.Keep(ordered, candidates)
	if len(m.currentLevel) == 0 {
		// Cycles no level reaches without a predecessor outside of them.
		m.currentLevel = sets.Without(m.graph.Nodes(), m.previousLevels)
		if len(m.currentLevel) > 0 {
			logging.Debugf("Manipulator: %s left after the last level, stepping them as one.", sets.ShortList(m.currentLevel))
		}
	}
	m.previousLevels.AddAll(m.currentLevel)
	return slices.Clone(m.currentLevel), nil
}
