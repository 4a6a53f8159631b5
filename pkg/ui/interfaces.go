package ui

import (
	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
	"github.com/rivo/tview"
)

// PassView is the partition of the active pass, with every element already
// turned into its label. Elements keeps the discovery order.
type PassView struct {
	Title      string
	Elements   []string
	Unresolved []string
	Safe       []string
	Cause      []string
	Removed    []string
}

// PassResult is what one finished pass found.
type PassResult struct {
	Title   string
	Causes  [][]string
	Safe    []string
	Removed []string
}

// ReductionViewModel provides a snapshot of the reduction, tailored for UI
// consumption. It decouples the pages from the generic engine types.
type ReductionViewModel struct {
	IsReady    bool
	IsVerified bool
	IsComplete bool
	InTest     bool
	Round      int
	Approach   string
	Direction  dd.Direction
	Original   dd.Outcome
	LastRound  *dd.Round
	Pass       PassView
	Results    []PassResult
	Stats      []*dd.Stats
	Log        []dd.Round
	OutputPath string
}

// AppInterface defines methods the UI layer needs to access from the main App struct.
type AppInterface interface {
	// --- UI methods & Managers ---
	QueueUpdateDraw(f func()) *tview.Application
	Stop()
	Navigation() *NavigationManager
	Dialogs() *DialogManager
	Layout() *LayoutManager
	GetLogger() *logging.Logger
	GetFocus() tview.Primitive
	SetFocus(tview.Primitive)

	// --- Core Logic ---
	GetViewModel() ReductionViewModel

	// --- Actions ---
	// Step prepares the next configuration and asks the user to judge it.
	Step()
	// Judge reports the outcome of the configuration currently on disk.
	Judge(outcome dd.Outcome)
}

// ReductionObserver is implemented by pages that show reduction state.
type ReductionObserver interface {
	RefreshReductionState()
}

// Focusable is an interface for any primitive that contains child elements
// which can be focused.
type Focusable interface {
	GetFocusablePrimitives() []tview.Primitive
}
