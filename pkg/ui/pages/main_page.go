package pages

import (
	"fmt"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/ui"
	"github.com/Qendolin/delta-reduce-tool/pkg/ui/widgets"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// MainPage shows the progress of the reduction: an overview of the active
// pass, its four element classes and the rounds so far.
type MainPage struct {
	*tview.Flex
	app ui.AppInterface

	overviewText   *tview.TextView
	overviewWidget *widgets.OverviewWidget
	stepButton     *tview.Button
	resultButton   *tview.Button
	statusText     *tview.TextView

	unresolvedList *tview.List
	safeList       *tview.List
	causeList      *tview.List
	removedList    *tview.List
	roundsTable    *tview.Table
}

func NewMainPage(app ui.AppInterface) *MainPage {
	p := &MainPage{
		Flex:           tview.NewFlex().SetDirection(tview.FlexRow),
		app:            app,
		statusText:     tview.NewTextView().SetDynamicColors(true),
		overviewText:   tview.NewTextView().SetDynamicColors(true),
		overviewWidget: widgets.NewOverviewWidget(),
	}
	p.setupLayout()
	p.SetInputCapture(p.inputHandler())
	p.RefreshReductionState()
	return p
}

func newElementList(title string, color tcell.Color) *tview.List {
	l := tview.NewList().ShowSecondaryText(false).SetMainTextColor(color)
	widgets.Framed(l.Box, title)
	return l
}

func (p *MainPage) setupLayout() {
	overviewContent := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(p.overviewText, 4, 0, false).
		AddItem(p.overviewWidget, 1, 0, false)

	p.stepButton = tview.NewButton("Start").SetSelectedFunc(p.app.Step)
	widgets.DefaultStyleButton(p.stepButton)
	p.resultButton = tview.NewButton("Results").SetSelectedFunc(func() {
		p.app.Navigation().SwitchTo(ui.PageResultID)
	})
	widgets.DefaultStyleButton(p.resultButton)
	buttonFlex := tview.NewFlex().
		AddItem(p.stepButton, 0, 1, true).
		AddItem(nil, 1, 0, false).
		AddItem(p.resultButton, 0, 1, false)
	buttonFlex.SetBorderPadding(1, 1, 0, 0)

	overview := tview.NewFlex().
		AddItem(overviewContent, 0, 1, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(buttonFlex, 25, 0, true)
	widgets.Framed(overview.Box, "Overview")

	p.unresolvedList = newElementList("Unresolved", widgets.ColorUnresolved)
	p.safeList = newElementList("Safe", widgets.ColorSafe)
	p.causeList = newElementList("Cause", widgets.ColorCause)
	p.removedList = newElementList("Removed", widgets.ColorRemoved)
	lists := tview.NewFlex().
		AddItem(p.unresolvedList, 0, 1, false).
		AddItem(p.causeList, 0, 1, false).
		AddItem(p.safeList, 0, 1, false).
		AddItem(p.removedList, 0, 1, false)

	p.roundsTable = tview.NewTable().SetFixed(1, 0).SetSelectable(true, false)
	widgets.Framed(p.roundsTable.Box, "Rounds")

	p.AddItem(overview, 7, 0, true).
		AddItem(lists, 0, 2, false).
		AddItem(p.roundsTable, 0, 1, false)
}

func (p *MainPage) inputHandler() func(event *tcell.EventKey) *tcell.EventKey {
	return func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() != tcell.KeyRune {
			return event
		}
		switch event.Rune() {
		case 's', 'S':
			p.app.Step()
			return nil
		case 'r', 'R':
			p.app.Navigation().SwitchTo(ui.PageResultID)
			return nil
		}
		return event
	}
}

func (p *MainPage) GetFocusablePrimitives() []tview.Primitive {
	return []tview.Primitive{
		p.stepButton,
		p.resultButton,
		p.unresolvedList,
		p.causeList,
		p.safeList,
		p.removedList,
		p.roundsTable,
	}
}

func (p *MainPage) OnPageActivated() {
	p.RefreshReductionState()
}

func (p *MainPage) GetActionPrompts() []ui.ActionPrompt {
	return []ui.ActionPrompt{
		{Input: "S", Action: "Step"},
		{Input: "R", Action: "Results"},
	}
}

func (p *MainPage) GetStatusPrimitive() *tview.TextView {
	return p.statusText
}

// RefreshReductionState redraws the page from the current view model.
func (p *MainPage) RefreshReductionState() {
	vm := p.app.GetViewModel()
	if !vm.IsReady {
		p.overviewText.SetText("Preparing the input...")
		return
	}

	status, button := statusAndButton(&vm)
	p.statusText.SetText(status)
	p.stepButton.SetLabel(button)

	p.overviewText.SetText(fmt.Sprintf(
		"Approach: %s\nOriginal outcome: %s\nRound: %d | Pass: %s\nLast result: %s",
		vm.Approach, outcomeText(vm.Original), vm.Round, passTitle(vm.Pass.Title), lastRoundText(vm.LastRound),
	))

	pass := vm.Pass
	p.overviewWidget.UpdateState(pass.Elements, pass.Cause, pass.Safe, pass.Removed, pass.Unresolved)
	fillList(p.unresolvedList, pass.Unresolved)
	fillList(p.causeList, pass.Cause)
	fillList(p.safeList, pass.Safe)
	fillList(p.removedList, pass.Removed)
	p.unresolvedList.SetTitle(fmt.Sprintf(" Unresolved: %d ", len(pass.Unresolved)))
	p.causeList.SetTitle(fmt.Sprintf(" Cause: %d ", len(pass.Cause)))
	p.safeList.SetTitle(fmt.Sprintf(" Safe: %d ", len(pass.Safe)))
	p.removedList.SetTitle(fmt.Sprintf(" Removed: %d ", len(pass.Removed)))
	p.fillRounds(vm.Log)
}

func statusAndButton(vm *ui.ReductionViewModel) (status, button string) {
	switch {
	case vm.IsComplete:
		return "Reduction complete", "Results"
	case vm.InTest:
		return fmt.Sprintf("Waiting for the result of round %d...", vm.Round), "Judge"
	case !vm.IsVerified:
		return "Ready to judge the original input", "Start"
	default:
		return "Ready for the next round", "Step"
	}
}

func outcomeText(o dd.Outcome) string {
	switch o {
	case dd.OutcomeFail:
		return "[red]FAIL[-:-:-]"
	case dd.OutcomePass:
		return "[green]PASS[-:-:-]"
	case dd.OutcomeUnresolved:
		return "[yellow]UNRESOLVED[-:-:-]"
	}
	return "N/A"
}

func passTitle(title string) string {
	if title == "" {
		return "N/A"
	}
	return title
}

func lastRoundText(r *dd.Round) string {
	if r == nil {
		return "N/A"
	}
	cached := ""
	if r.Cached {
		cached = " (cached)"
	}
	return fmt.Sprintf("%s, %s, %d removed%s", outcomeText(r.Outcome), r.Rollback, r.Removed, cached)
}

func fillList(l *tview.List, items []string) {
	l.Clear()
	if len(items) == 0 {
		l.AddItem("---", "", 0, nil)
		return
	}
	for _, item := range items {
		l.AddItem(tview.Escape(item), "", 0, nil)
	}
}

func (p *MainPage) fillRounds(log []dd.Round) {
	p.roundsTable.Clear()
	for col, h := range []string{"#", "Pass", "Stage", "Removed", "Remaining", "Outcome", "Result"} {
		p.roundsTable.SetCell(0, col, tview.NewTableCell(h).SetAttributes(tcell.AttrBold).SetSelectable(false))
	}
	// newest first
	for i := len(log) - 1; i >= 0; i-- {
		r := log[i]
		row := len(log) - i
		result := r.Rollback.String()
		if r.Cached {
			result += " (cached)"
		}
		cells := []string{
			fmt.Sprint(i + 1),
			fmt.Sprint(r.Pass),
			r.Stage.String(),
			fmt.Sprint(r.Removed),
			fmt.Sprint(r.Remaining),
			outcomeText(r.Outcome),
			result,
		}
		for col, c := range cells {
			p.roundsTable.SetCell(row, col, tview.NewTableCell(c))
		}
	}
}
