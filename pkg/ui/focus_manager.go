package ui

import "github.com/rivo/tview"

// FocusManager cycles the focus between the focusable primitives of a page.
type FocusManager struct {
	app AppInterface
}

func NewFocusManager(app AppInterface) *FocusManager {
	return &FocusManager{app: app}
}

// Cycle moves the focus to the next or previous primitive of root. It returns
// false if root has nothing to cycle through.
func (fm *FocusManager) Cycle(root tview.Primitive, forward bool) bool {
	focusable, ok := root.(Focusable)
	if !ok {
		return false
	}
	chain := focusable.GetFocusablePrimitives()
	if len(chain) == 0 {
		return false
	}

	current := fm.app.GetFocus()
	index := -1
	for i, p := range chain {
		if p == current || p.HasFocus() {
			index = i
			break
		}
	}

	var next int
	switch {
	case index == -1:
		next = 0
	case forward:
		next = (index + 1) % len(chain)
	default:
		next = (index - 1 + len(chain)) % len(chain)
	}
	fm.app.SetFocus(chain[next])
	return true
}
