package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// LayoutManager handles the overall visual structure of the application:
// a status header, the page area and a footer with key hints.
type LayoutManager struct {
	app        AppInterface
	root       *tview.Flex
	header     *tview.Flex
	status     *tview.Flex
	statusText *tview.TextView
	footer     *tview.TextView
	pages      *tview.Pages

	counters  *tview.TextView
	prevWarns int
	prevErrs  int
}

// NewLayoutManager creates the layout and starts polling the log counters
// until ctx is canceled.
func NewLayoutManager(app AppInterface, ctx context.Context) *LayoutManager {
	lm := &LayoutManager{
		app:       app,
		pages:     tview.NewPages(),
		root:      tview.NewFlex().SetDirection(tview.FlexRow),
		header:    tview.NewFlex(),
		status:    tview.NewFlex().SetDirection(tview.FlexRow),
		footer:    tview.NewTextView().SetDynamicColors(true),
		counters:  tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignRight),
		prevWarns: -1,
		prevErrs:  -1,
	}
	lm.setupLayout()
	go lm.pollCounters(ctx)
	return lm
}

func (lm *LayoutManager) RootPrimitive() tview.Primitive {
	return lm.root
}

func (lm *LayoutManager) Pages() *tview.Pages {
	return lm.pages
}

func (lm *LayoutManager) setupLayout() {
	lm.SetHeader(nil)

	lm.header.AddItem(tview.NewBox(), 1, 0, false).
		AddItem(lm.status, 0, 1, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(lm.counters, 30, 0, false).
		AddItem(tview.NewBox(), 1, 0, false)

	lm.root.SetBorder(true).
		SetTitle(" Delta Reduce Tool ").
		SetTitleAlign(tview.AlignLeft)

	lm.root.AddItem(lm.header, 1, 0, false).
		AddItem(lm.pages, 0, 1, true).
		AddItem(lm.footer, 1, 0, false)

	lm.SetLogCounters(0, 0)
}

func (lm *LayoutManager) pollCounters(ctx context.Context) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lm.updateCounters()
		case <-ctx.Done():
			logging.Debugf("Layout: Stopping log counter polling.")
			return
		}
	}
}

func (lm *LayoutManager) updateCounters() {
	logger := lm.app.GetLogger()
	if logger == nil {
		return
	}
	store := logger.Store()
	errs := store.CountAtLeast(logging.LevelError)
	warns := store.CountAtLeast(logging.LevelWarn) - errs

	if warns != lm.prevWarns || errs != lm.prevErrs {
		lm.app.QueueUpdateDraw(func() {
			lm.SetLogCounters(warns, errs)
		})
	}
}

// SetLogCounters shows the number of warnings and errors logged so far.
func (lm *LayoutManager) SetLogCounters(warns, errs int) {
	if lm.prevWarns == warns && lm.prevErrs == errs {
		return
	}
	lm.prevWarns = warns
	lm.prevErrs = errs

	badge := func(n int, bg tcell.Color) string {
		if n == 0 {
			return fmt.Sprintf("[white:black]%d[-:-:-]", n)
		}
		return fmt.Sprintf("[black:%s]%d[-:-:-]", bg.Name(), n)
	}
	lm.counters.SetText(fmt.Sprintf("[yellow]Warnings: %s [red]Errors: %s",
		badge(warns, tcell.ColorYellow), badge(errs, tcell.ColorRed)))
}

// SetFooter shows the global key hints followed by the page's own.
func (lm *LayoutManager) SetFooter(prompts []ActionPrompt) {
	if prompts == nil {
		lm.footer.SetText("")
		return
	}
	all := append([]ActionPrompt{{"Ctrl+C", "Quit"}, {"Ctrl+L", "Logs"}, {"Tab", "Focus"}}, prompts...)

	parts := make([]string, len(all))
	for i, p := range all {
		parts[i] = fmt.Sprintf("[darkcyan::b]%s[-:-:-]: %s", p.Input, p.Action)
	}
	lm.footer.SetText(strings.Join(parts, " | "))
}

// SetHeader replaces the status line with the page's status view.
func (lm *LayoutManager) SetHeader(p *tview.TextView) {
	if p == nil {
		p = tview.NewTextView().SetDynamicColors(true)
	}
	lm.statusText = p
	lm.status.Clear()
	lm.status.AddItem(p, 0, 1, false)
}

func (lm *LayoutManager) SetStatusText(text string) {
	lm.statusText.SetText(text)
}
