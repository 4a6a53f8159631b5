package lines

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/graph"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/manip"
)

// Title names line elements in logs and statistics.
const Title = "Lines"

var (
	ErrAlreadyRemoved = errors.New("element is already removed")
	ErrNotRemoved     = errors.New("element is not removed")
)

type lineOps struct{}

// Discover returns the elements that were not removed. A block contains its
// inner lines and blocks.
func (lineOps) Discover(d *Document) (*graph.Graph[Element], error) {
	g := graph.New[Element]()
	for _, e := range d.elements {
		if !d.removed[e] {
			g.AddNode(e)
		}
	}
	for _, edge := range d.edges {
		if g.HasNode(edge.From) && g.HasNode(edge.To) {
			g.PutEdge(edge.From, edge.To, edge.Relation)
		}
	}
	return g, nil
}

func (lineOps) RemoveElement(d *Document, e Element) error {
	if d.removed[e] {
		return fmt.Errorf("%s: %w", e, ErrAlreadyRemoved)
	}
	d.removed[e] = true
	d.hide(e)
	return nil
}

func (lineOps) RestoreElement(d *Document, e Element) error {
	if !d.removed[e] {
		return fmt.Errorf("%s: %w", e, ErrNotRemoved)
	}
	delete(d.removed, e)
	d.show(e)
	return nil
}

func (lineOps) Describe(e Element) string {
	return e.String()
}

// NewManipulator returns the manipulator for the lines and blocks of a
// document. Removing a block hides the lines it contains.
func NewManipulator() *manip.Manipulator[Element, *Document] {
	return manip.New[Element, *Document](Title, lineOps{})
}

// leafOps sees every visible non-blank line on its own, brace lines
// included, and no blocks, so removing one element never hides another.
type leafOps struct {
	lineOps
}

func (leafOps) Discover(d *Document) (*graph.Graph[Element], error) {
	g := graph.New[Element]()
	for i := range d.lines {
		e := Element{Kind: KindLine, Start: i, End: i}
		if !d.removed[e] && d.hidden[i] == 0 && strings.TrimSpace(d.lines[i]) != "" {
			g.AddNode(e)
		}
	}
	return g, nil
}

// NewLineManipulator returns the manipulator for single lines, for passes
// that ignore the block structure.
func NewLineManipulator() *manip.Manipulator[Element, *Document] {
	return manip.New[Element, *Document](Title, leafOps{})
}
