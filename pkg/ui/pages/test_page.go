package pages

import (
	"fmt"
	"time"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/ui"
	"github.com/Qendolin/delta-reduce-tool/pkg/ui/widgets"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TestPage asks the user to run the analysis on the configuration that was
// just written and to report its outcome.
type TestPage struct {
	*tview.Flex
	app ui.AppInterface

	failBtn       *tview.Button
	passBtn       *tview.Button
	unresolvedBtn *tview.Button
	statusText    *tview.TextView
}

// NewTestPage creates the prompt. isOriginal asks for the outcome of the
// unmodified input, which every later answer is compared against.
func NewTestPage(app ui.AppInterface, isOriginal bool) *TestPage {
	p := &TestPage{
		Flex:       tview.NewFlex(),
		app:        app,
		statusText: tview.NewTextView().SetDynamicColors(true),
	}

	vm := app.GetViewModel()
	message := fmt.Sprintf(`
[::b]Round %d: the next configuration has been written to
%s

Run your analysis on it and report what it showed.`, vm.Round, vm.OutputPath)
	p.statusText.SetText(fmt.Sprintf("Judge round %d", vm.Round))

	if isOriginal {
		p.statusText.SetText("Judge the original input")
		message = fmt.Sprintf(`
[::b]Nothing has been changed yet. The input is at
%s

Run your analysis on it. Its outcome is the property the reduction keeps.`, vm.OutputPath)
	}

	instructions := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText(message)

	p.failBtn = widgets.OutcomeButton("Fail (property holds)", tcell.ColorRed, func() { p.judge(dd.OutcomeFail) })
	p.passBtn = widgets.OutcomeButton("Pass (property gone)", tcell.ColorGreen, func() { p.judge(dd.OutcomePass) })
	p.unresolvedBtn = widgets.OutcomeButton("Unresolved", tcell.ColorBlue, func() { p.judge(dd.OutcomeUnresolved) })

	buttons := []*tview.Button{p.failBtn, p.passBtn, p.unresolvedBtn}
	for _, b := range buttons {
		b.SetDisabled(true)
	}
	// prevent accidental input
	go func() {
		time.Sleep(300 * time.Millisecond)
		app.QueueUpdateDraw(func() {
			for _, b := range buttons {
				b.SetDisabled(false)
			}
		})
	}()

	buttonFlex := tview.NewFlex().
		AddItem(tview.NewBox(), 0, 1, false).
		AddItem(p.failBtn, 0, 1, true).
		AddItem(tview.NewBox(), 2, 0, false).
		AddItem(p.passBtn, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false).
		AddItem(p.unresolvedBtn, 0, 1, false).
		AddItem(tview.NewBox(), 0, 1, false)

	p.SetDirection(tview.FlexRow).
		AddItem(tview.NewBox(), 0, 1, false).
		AddItem(instructions, 0, 2, false).
		AddItem(buttonFlex, 3, 0, true).
		AddItem(tview.NewBox(), 0, 1, false)

	p.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() != tcell.KeyRune || p.failBtn.IsDisabled() {
			return event
		}
		switch event.Rune() {
		case 'f', 'F':
			p.judge(dd.OutcomeFail)
		case 'p', 'P':
			p.judge(dd.OutcomePass)
		case 'u', 'U':
			p.judge(dd.OutcomeUnresolved)
		default:
			return event
		}
		return nil
	})

	return p
}

func (p *TestPage) judge(outcome dd.Outcome) {
	p.app.Navigation().CloseModal()
	p.app.Judge(outcome)
}

func (p *TestPage) GetActionPrompts() []ui.ActionPrompt {
	return []ui.ActionPrompt{
		{Input: "F", Action: "Fail"},
		{Input: "P", Action: "Pass"},
		{Input: "U", Action: "Unresolved"},
	}
}

func (p *TestPage) GetStatusPrimitive() *tview.TextView {
	return p.statusText
}

func (p *TestPage) GetFocusablePrimitives() []tview.Primitive {
	return []tview.Primitive{p.failBtn, p.passBtn, p.unresolvedBtn}
}
