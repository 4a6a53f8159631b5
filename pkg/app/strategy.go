package app

import (
	"fmt"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/manip"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/reduce"
	"github.com/Qendolin/delta-reduce-tool/pkg/ui"
)

// pass is one strategy of a reduction, seen through the labels of its
// elements so the UI and the report stay free of element types.
type pass interface {
	// View returns the partition of the engine that is currently active.
	View() ui.PassView
	// Result returns what the pass found, once it is done.
	Result() (ui.PassResult, bool)
}

// plan is a built reduction: the strategy to drive, its passes in order and
// the graphs that can be exported.
type plan[R any] struct {
	strategy  dd.Strategy[R]
	passes    []pass
	current   func() int
	exporters []reduce.GraphExporter
	// discover reads the graphs of an unreduced representation with fresh
	// manipulators of the same kind as exporters.
	discover func(repr R) ([]reduce.GraphExporter, error)
}

// manipulators creates the manipulators of one element kind. Structured ones
// see nesting and dependencies for hierarchical passes; flat ones offer only
// elements whose removal hides no other element.
type manipulators[E comparable, R any] struct {
	structured func() *manip.Manipulator[E, R]
	flat       func() *manip.Manipulator[E, R]
}

func discoverWith[E comparable, R any](newManipulator func() *manip.Manipulator[E, R]) func(R) ([]reduce.GraphExporter, error) {
	return func(repr R) ([]reduce.GraphExporter, error) {
		m := newManipulator()
		if _, _, err := m.AllElements(repr); err != nil {
			return nil, fmt.Errorf("discovering elements: %w", err)
		}
		return []reduce.GraphExporter{m}, nil
	}
}

// ActivePass returns the pass the strategy is working on.
func (p *plan[R]) ActivePass() pass {
	i := p.current()
	if i >= len(p.passes) {
		i = len(p.passes) - 1
	}
	return p.passes[i]
}

// Results collects the results of every finished pass.
func (p *plan[R]) Results() []ui.PassResult {
	var results []ui.PassResult
	for _, ps := range p.passes {
		if r, ok := ps.Result(); ok {
			results = append(results, r)
		}
	}
	return results
}

// buildPlan wires the configured strategy over manipulators of one
// representation. Composite runs a hierarchical pass with a structured
// manipulator and a flat pass with a flat one.
func buildPlan[E comparable, R any](variant string, direction dd.Direction, opts []dd.Option, kind manipulators[E, R]) (*plan[R], error) {
	opts = append([]dd.Option{dd.WithDirection(direction)}, opts...)
	switch variant {
	case StrategyFlat, StrategyStar, StrategyHierarchical:
		newManipulator := kind.flat
		if variant == StrategyHierarchical {
			newManipulator = kind.structured
		}
		m := newManipulator()
		s, ps := buildPass(variant, m, direction, opts)
		return &plan[R]{
			strategy:  s,
			passes:    []pass{ps},
			current:   func() int { return 0 },
			exporters: []reduce.GraphExporter{m},
			discover:  discoverWith(newManipulator),
		}, nil
	case StrategyComposite:
		coarse, fine := kind.structured(), kind.flat()
		first, firstPass := buildPass(StrategyHierarchical, coarse, direction, opts)
		second, secondPass := buildPass(StrategyFlat, fine, direction, opts)
		c := dd.NewComposite(first, second)
		return &plan[R]{
			strategy:  c,
			passes:    []pass{firstPass, secondPass},
			current:   c.Current,
			exporters: []reduce.GraphExporter{coarse},
			discover:  discoverWith(kind.structured),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
}

func buildPass[E comparable, R any](variant string, m *manip.Manipulator[E, R], direction dd.Direction, opts []dd.Option) (dd.Strategy[R], pass) {
	switch variant {
	case StrategyStar:
		s := dd.NewStar(m, direction, opts...)
		return s, &starPass[E, R]{labeler: newLabeler(m), star: s}
	case StrategyHierarchical:
		h := dd.NewHierarchical(m, opts...)
		return h, &hierarchicalPass[E, R]{labeler: newLabeler(m), h: h}
	default:
		e := dd.New(m, opts...)
		return e, &flatPass[E, R]{labeler: newLabeler(m), engine: e}
	}
}

// labeler turns elements into labels and remembers the order in which it
// first saw them, so the overview bar does not reshuffle between rounds.
type labeler[E comparable, R any] struct {
	m     *manip.Manipulator[E, R]
	pass  int
	order []E
	seen  map[E]bool
}

func newLabeler[E comparable, R any](m *manip.Manipulator[E, R]) labeler[E, R] {
	return labeler[E, R]{m: m, seen: make(map[E]bool)}
}

func (l *labeler[E, R]) labels(elements []E) []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = l.m.Describe(e)
	}
	return out
}

func (l *labeler[E, R]) view(e *dd.Engine[E, R]) ui.PassView {
	stats := e.Stats()
	if len(stats) == 0 {
		return ui.PassView{Title: l.m.Title()}
	}
	current := stats[len(stats)-1]
	if current.Pass != l.pass {
		l.pass = current.Pass
		l.order = l.order[:0]
		clear(l.seen)
	}

	part := e.Partition()
	for _, class := range [][]E{part.Unresolved, part.Cause, part.Safe, part.Removed} {
		for _, el := range class {
			if !l.seen[el] {
				l.seen[el] = true
				l.order = append(l.order, el)
			}
		}
	}
	return ui.PassView{
		Title:      current.Name(),
		Elements:   l.labels(l.order),
		Unresolved: l.labels(part.Unresolved),
		Safe:       l.labels(part.Safe),
		Cause:      l.labels(part.Cause),
		Removed:    l.labels(part.Removed),
	}
}

type flatPass[E comparable, R any] struct {
	labeler[E, R]
	engine *dd.Engine[E, R]
}

func (p *flatPass[E, R]) View() ui.PassView { return p.view(p.engine) }

func (p *flatPass[E, R]) Result() (ui.PassResult, bool) {
	if p.engine.Stage() != dd.StageFinished {
		return ui.PassResult{}, false
	}
	r := ui.PassResult{
		Title:   p.m.Title(),
		Safe:    p.labels(p.engine.SafeElements()),
		Removed: p.labels(p.engine.RemovedElements()),
	}
	if cause := p.engine.CauseElements(); len(cause) > 0 {
		r.Causes = [][]string{p.labels(cause)}
	}
	return r, true
}

type starPass[E comparable, R any] struct {
	labeler[E, R]
	star *dd.Star[E, R]
}

func (p *starPass[E, R]) View() ui.PassView { return p.view(p.star.Engine()) }

func (p *starPass[E, R]) Result() (ui.PassResult, bool) {
	if !p.star.Done() {
		return ui.PassResult{}, false
	}
	r := ui.PassResult{
		Title:   p.m.Title() + " (DD*)",
		Safe:    p.labels(p.star.SafeElements()),
		Removed: p.labels(p.star.RemovedElements()),
	}
	for _, cause := range p.star.CauseSets() {
		r.Causes = append(r.Causes, p.labels(cause))
	}
	return r, true
}

type hierarchicalPass[E comparable, R any] struct {
	labeler[E, R]
	h *dd.Hierarchical[E, R]
}

func (p *hierarchicalPass[E, R]) View() ui.PassView { return p.view(p.h.Engine()) }

func (p *hierarchicalPass[E, R]) Result() (ui.PassResult, bool) {
	if !p.h.Done() {
		return ui.PassResult{}, false
	}
	r := ui.PassResult{
		Title:   fmt.Sprintf("%s (%d levels)", p.m.Title(), p.h.Levels()),
		Safe:    p.labels(p.h.SafeElements()),
		Removed: p.labels(p.h.RemovedElements()),
	}
	if cause := p.h.CauseElements(); len(cause) > 0 {
		r.Causes = [][]string{p.labels(cause)}
	}
	return r, true
}
