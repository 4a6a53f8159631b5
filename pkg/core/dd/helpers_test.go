package dd_test

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/graph"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/manip"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/sets"
)

// program is a toy representation: a fixed universe of named elements, some
// of them present, with dependency edges between them.
type program struct {
	universe []string
	present  map[string]bool
	edges    [][2]string
}

func newProgram(names ...string) *program {
	p := &program{universe: names, present: make(map[string]bool)}
	for _, n := range names {
		p.present[n] = true
	}
	return p
}

func numbered(n int) *program {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprint(i)
	}
	return newProgram(names...)
}

func (p *program) edge(from, to string) *program {
	p.edges = append(p.edges, [2]string{from, to})
	return p
}

func (p *program) Present() []string {
	var result []string
	for _, n := range p.universe {
		if p.present[n] {
			result = append(result, n)
		}
	}
	return result
}

func (p *program) has(names ...string) bool {
	for _, n := range names {
		if !p.present[n] {
			return false
		}
	}
	return true
}

// programOps handles the elements whose name starts with prefix.
type programOps struct {
	prefix string
}

func (o programOps) Discover(p *program) (*graph.Graph[string], error) {
	g := graph.New[string]()
	for _, n := range p.universe {
		if p.present[n] && strings.HasPrefix(n, o.prefix) {
			g.AddNode(n)
		}
	}
	for _, e := range p.edges {
		if g.HasNode(e[0]) && g.HasNode(e[1]) {
			g.PutEdge(e[0], e[1], graph.Relation{Label: "contains"})
		}
	}
	return g, nil
}

func (o programOps) RemoveElement(p *program, e string) error {
	if !p.present[e] {
		return fmt.Errorf("%s is not present", e)
	}
	p.present[e] = false
	return nil
}

func (o programOps) RestoreElement(p *program, e string) error {
	if p.present[e] {
		return fmt.Errorf("%s is already present", e)
	}
	p.present[e] = true
	return nil
}

func (o programOps) Describe(e string) string { return e }

func newManipulator(prefix string) *manip.Manipulator[string, *program] {
	return manip.New[string, *program]("Elements", programOps{prefix: prefix})
}

// oracle decides the outcome of a configuration.
type oracle func(p *program) dd.Outcome

// failWhenAll fails while all the given elements are present.
func failWhenAll(names ...string) oracle {
	return func(p *program) dd.Outcome {
		if p.has(names...) {
			return dd.OutcomeFail
		}
		return dd.OutcomePass
	}
}

// failWhenAny fails while any of the given elements is present.
func failWhenAny(names ...string) oracle {
	return func(p *program) dd.Outcome {
		for _, n := range names {
			if p.present[n] {
				return dd.OutcomeFail
			}
		}
		return dd.OutcomePass
	}
}

// drive runs the driver loop and returns the number of tests executed.
// check, if set, is called whenever the strategy is about to decide.
func drive(t *testing.T, s dd.Strategy[*program], p *program, o oracle, check func()) int {
	t.Helper()
	tests := 0
	for {
		if check != nil {
			check()
		}
		ok, err := s.CanMutate(p)
		if err != nil {
			t.Fatalf("CanMutate failed: %v", err)
		}
		if !ok {
			return tests
		}
		tests++
		if tests > 1000 {
			t.Fatalf("Reduction did not terminate after %d tests", tests)
		}
		if err := s.Mutate(p); err != nil {
			t.Fatalf("Mutate failed: %v", err)
		}
		if _, err := s.SetResult(p, o(p)); err != nil {
			t.Fatalf("SetResult failed: %v", err)
		}
	}
}

// checkPartition asserts the partition covers the input exactly once and that
// the unresolved set never grows.
func checkPartition[R any](t *testing.T, e *dd.Engine[string, R], input []string) func() {
	t.Helper()
	lastUnresolved := len(input) + 1
	return func() {
		part := e.Partition()
		if e.Stage() == dd.StageUninitialized {
			return
		}
		all := sets.Concat(part.Unresolved, part.Safe, part.Cause, part.Removed)
		if len(all) != len(input) {
			t.Fatalf("Partition has %d elements, expected %d: %+v", len(all), len(input), part)
		}
		if !sets.Equal(sets.MakeSet(all), sets.MakeSet(input)) {
			t.Fatalf("Partition %+v does not cover %v", part, input)
		}
		if len(part.Unresolved) > lastUnresolved {
			t.Fatalf("Unresolved grew from %d to %d", lastUnresolved, len(part.Unresolved))
		}
		lastUnresolved = len(part.Unresolved)
	}
}

func sorted(list []string) []string {
	c := slices.Clone(list)
	slices.Sort(c)
	return c
}
