package ui

import (
	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
	"github.com/rivo/tview"
)

// NavigationManager switches between persistent pages and stacks transient
// modals (dialogs, the test prompt) on top of them.
type NavigationManager struct {
	app        AppInterface
	pages      *tview.Pages
	persistent map[string]Page
	history    []string
	modals     []string
}

func NewNavigationManager(app AppInterface, pages *tview.Pages) *NavigationManager {
	return &NavigationManager{
		app:        app,
		pages:      pages,
		persistent: make(map[string]Page),
	}
}

// Register adds a persistent page. A page registered twice replaces the first.
func (n *NavigationManager) Register(pageID string, page Page) {
	if _, exists := n.persistent[pageID]; exists {
		logging.Warnf("Navigation: Page '%s' is already registered, replacing it.", pageID)
		n.pages.RemovePage(pageID)
	}
	n.persistent[pageID] = page
	n.pages.AddPage(pageID, page, true, false)
}

func (n *NavigationManager) show(page Page) {
	if page == nil {
		n.app.Layout().SetFooter(nil)
		n.app.Layout().SetHeader(nil)
		return
	}
	n.app.Layout().SetFooter(page.GetActionPrompts())
	n.app.Layout().SetHeader(page.GetStatusPrimitive())
	n.app.SetFocus(page)
}

// SwitchTo shows a persistent page and remembers the previous one for GoBack.
func (n *NavigationManager) SwitchTo(pageID string) {
	page, ok := n.persistent[pageID]
	if !ok {
		logging.Errorf("Navigation: Unknown page '%s'.", pageID)
		return
	}

	currentID, _ := n.pages.GetFrontPage()
	if currentID != pageID && len(n.modals) == 0 {
		if _, ok := n.persistent[currentID]; ok {
			n.history = append(n.history, currentID)
		}
	}

	n.pages.SwitchToPage(pageID)
	n.show(page)
	if activator, ok := page.(PageActivator); ok {
		activator.OnPageActivated()
	}
}

// GoBack returns to the page shown before the current one.
func (n *NavigationManager) GoBack() {
	if len(n.history) == 0 {
		return
	}
	pageID := n.history[len(n.history)-1]
	n.history = n.history[:len(n.history)-1]

	n.pages.SwitchToPage(pageID)
	page := n.persistent[pageID]
	n.show(page)
	if activator, ok := page.(PageActivator); ok {
		activator.OnPageActivated()
	}
}

// ShowModal displays a transient page over the current view.
func (n *NavigationManager) ShowModal(pageID string, page Page) {
	n.pages.AddPage(pageID, page, true, true)
	n.modals = append(n.modals, pageID)
	n.show(page)
}

// CloseModal removes the top-most modal page.
func (n *NavigationManager) CloseModal() {
	if len(n.modals) == 0 {
		return
	}
	modalID := n.modals[len(n.modals)-1]
	n.modals = n.modals[:len(n.modals)-1]
	n.pages.RemovePage(modalID)
	n.show(n.CurrentPage())
}

// HasModal reports whether a modal with the given id is open.
func (n *NavigationManager) HasModal(pageID string) bool {
	for _, id := range n.modals {
		if id == pageID {
			return true
		}
	}
	return false
}

// CurrentPage returns the front-most page, modals included.
func (n *NavigationManager) CurrentPage() Page {
	if len(n.modals) > 0 {
		_, primitive := n.pages.GetFrontPage()
		if p, ok := primitive.(Page); ok {
			return p
		}
	}
	pageID, _ := n.pages.GetFrontPage()
	return n.persistent[pageID]
}

// ToggleLogPage switches to the log page, or back if it is already shown.
func (n *NavigationManager) ToggleLogPage() {
	if currentID, _ := n.pages.GetFrontPage(); currentID == PageLogID {
		n.GoBack()
		return
	}
	n.SwitchTo(PageLogID)
}
