package pages

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Qendolin/delta-reduce-tool/pkg/ui"
	"github.com/Qendolin/delta-reduce-tool/pkg/ui/widgets"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ResultPage shows what every finished pass found and its statistics.
type ResultPage struct {
	*tview.Flex
	app         ui.AppInterface
	statusText  *tview.TextView
	resultView  *tview.TextView
	statsView   *tview.TextView
	closeButton *tview.Button
}

func NewResultPage(app ui.AppInterface) *ResultPage {
	p := &ResultPage{
		Flex:       tview.NewFlex().SetDirection(tview.FlexRow),
		app:        app,
		statusText: tview.NewTextView().SetDynamicColors(true),
		resultView: tview.NewTextView().SetDynamicColors(true).SetWordWrap(true),
		statsView:  tview.NewTextView(),
	}
	widgets.Framed(p.resultView.Box, "Result")
	widgets.Framed(p.statsView.Box, "Statistics")

	p.closeButton = tview.NewButton("Back").SetSelectedFunc(app.Navigation().GoBack)
	widgets.DefaultStyleButton(p.closeButton)

	buttons := tview.NewFlex().
		AddItem(tview.NewBox(), 0, 1, false).
		AddItem(p.closeButton, 15, 0, true).
		AddItem(tview.NewBox(), 0, 1, false)

	p.AddItem(tview.NewFlex().
		AddItem(p.resultView, 0, 1, false).
		AddItem(p.statsView, 0, 1, false), 0, 1, false).
		AddItem(buttons, 1, 0, true)

	p.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			app.Navigation().GoBack()
			return nil
		}
		return event
	})
	return p
}

func (p *ResultPage) OnPageActivated() {
	p.RefreshReductionState()
}

func (p *ResultPage) RefreshReductionState() {
	vm := p.app.GetViewModel()
	title, message := formatResult(&vm)
	p.statusText.SetText(title)
	p.resultView.SetText(message)

	var stats bytes.Buffer
	for _, st := range vm.Stats {
		st.WriteReport(&stats)
		stats.WriteByte('\n')
	}
	p.statsView.SetText(stats.String())
}

func formatResult(vm *ui.ReductionViewModel) (title, message string) {
	if !vm.IsComplete {
		title = "Reduction In Progress"
		if len(vm.Results) == 0 {
			return title, "No pass has finished yet."
		}
	} else {
		title = "Reduction Complete"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Approach: %s\n", vm.Approach)
	for _, r := range vm.Results {
		fmt.Fprintf(&b, "\n[::u]%s[-:-:-]\n", r.Title)
		if len(r.Causes) == 0 {
			b.WriteString("  No cause found.\n")
		}
		for i, cause := range r.Causes {
			if len(r.Causes) > 1 {
				fmt.Fprintf(&b, "  Cause #%d\n", i+1)
			}
			for _, e := range cause {
				fmt.Fprintf(&b, "  - [red::b]%s[-:-:-]\n", tview.Escape(e))
			}
		}
		fmt.Fprintf(&b, "  [green]%d safe[-:-:-], [gray]%d removed[-:-:-]\n", len(r.Safe), len(r.Removed))
	}
	if vm.IsComplete && vm.OutputPath != "" {
		fmt.Fprintf(&b, "\nThe reduced input is at %s\n", vm.OutputPath)
	}
	return title, b.String()
}

func (p *ResultPage) GetActionPrompts() []ui.ActionPrompt {
	return []ui.ActionPrompt{
		{Input: "ESC", Action: "Back"},
	}
}

func (p *ResultPage) GetStatusPrimitive() *tview.TextView {
	return p.statusText
}

func (p *ResultPage) GetFocusablePrimitives() []tview.Primitive {
	return []tview.Primitive{p.closeButton, p.resultView, p.statsView}
}
