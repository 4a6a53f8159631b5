package pages

import (
	"fmt"
	"strings"

	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
	"github.com/Qendolin/delta-reduce-tool/pkg/ui"
	"github.com/Qendolin/delta-reduce-tool/pkg/ui/widgets"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// LogPage is the full-screen log viewer.
type LogPage struct {
	*tview.Flex
	app        ui.AppInterface
	view       *tview.TextView
	statusText *tview.TextView
	shown      int
}

func NewLogPage(app ui.AppInterface) *LogPage {
	p := &LogPage{
		Flex:       tview.NewFlex().SetDirection(tview.FlexRow),
		app:        app,
		view:       tview.NewTextView().SetDynamicColors(true).SetScrollable(true),
		statusText: tview.NewTextView().SetText("Viewing application logs"),
	}
	widgets.Framed(p.view.Box, "Log")
	p.AddItem(p.view, 0, 1, true)

	p.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			app.Navigation().GoBack()
			return nil
		}
		return event
	})
	return p
}

// OnPageActivated appends the entries logged since the last visit.
func (p *LogPage) OnPageActivated() {
	logger := p.app.GetLogger()
	if logger == nil {
		return
	}
	entries := logger.Store().GetAll()
	if p.shown > len(entries) {
		p.shown = 0
		p.view.Clear()
	}

	var b strings.Builder
	for _, e := range entries[p.shown:] {
		fmt.Fprintf(&b, "[gray]%s[-:-:-] %s %s\n", e.Timestamp.Format("15:04:05.000"), levelTag(e.Level), tview.Escape(e.Message))
	}
	p.shown = len(entries)
	fmt.Fprint(p.view, b.String())
	p.view.ScrollToEnd()
}

func levelTag(l logging.LogLevel) string {
	switch l {
	case logging.LevelError:
		return "[red]ERROR[-:-:-]"
	case logging.LevelWarn:
		return "[yellow]WARN [-:-:-]"
	case logging.LevelDebug:
		return "[gray]DEBUG[-:-:-]"
	default:
		return "INFO "
	}
}

func (p *LogPage) GetActionPrompts() []ui.ActionPrompt {
	return []ui.ActionPrompt{{Input: "ESC", Action: "Close Log"}}
}

func (p *LogPage) GetStatusPrimitive() *tview.TextView {
	return p.statusText
}
