package widgets

import (
	"github.com/Qendolin/delta-reduce-tool/pkg/core/sets"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// OverviewWidget is a single-row bar over all elements of the active pass,
// colored by how the engine classified them.
type OverviewWidget struct {
	*tview.Box
	elements   []string
	cause      sets.Set[string]
	safe       sets.Set[string]
	removed    sets.Set[string]
	unresolved sets.Set[string]
}

func NewOverviewWidget() *OverviewWidget {
	return &OverviewWidget{Box: tview.NewBox()}
}

// UpdateState sets the universe, in display order, and its classification.
func (w *OverviewWidget) UpdateState(elements, cause, safe, removed, unresolved []string) {
	w.elements = elements
	w.cause = sets.MakeSet(cause)
	w.safe = sets.MakeSet(safe)
	w.removed = sets.MakeSet(removed)
	w.unresolved = sets.MakeSet(unresolved)
}

// Draw implements tview.Primitive. Each cell covers a slice of the elements
// and shows two halves of it with the left-half block character.
func (w *OverviewWidget) Draw(screen tcell.Screen) {
	w.Box.Draw(screen)
	x, y, width, _ := w.GetInnerRect()
	if width <= 0 || len(w.elements) == 0 {
		return
	}

	start := 0
	for i := 0; i < width; i++ {
		end := len(w.elements) * (i + 1) / width
		if start < end {
			mid := start + (end-start)/2
			fg := w.colorOf(w.elements[start : mid+1])
			bg := fg
			if mid+1 < end {
				bg = w.colorOf(w.elements[mid+1 : end])
			}
			screen.SetContent(x+i, y, '▌', nil, tcell.StyleDefault.Foreground(fg).Background(bg))
		}
		start = end
	}
}

// colorOf picks the most significant class in a slice: cause, then
// unresolved, then safe, then removed.
func (w *OverviewWidget) colorOf(elements []string) tcell.Color {
	priority := 0
	for _, e := range elements {
		switch {
		case w.cause.Has(e):
			return ColorCause
		case w.unresolved.Has(e):
			priority = max(priority, 3)
		case w.safe.Has(e):
			priority = max(priority, 2)
		case w.removed.Has(e):
			priority = max(priority, 1)
		}
	}

	switch priority {
	case 3:
		return ColorUnresolved
	case 2:
		return ColorSafe
	case 1:
		return ColorRemoved
	default:
		return tcell.ColorDarkSlateGray
	}
}
