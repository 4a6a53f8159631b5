package widgets

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

var (
	DefaultButtonStyle         = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	DefaultButtonActiveStyle   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorBlue).Underline(true)
	DefaultButtonDisabledStyle = tcell.StyleDefault.Foreground(tcell.ColorLightGray).Background(tcell.ColorDarkGray)
)

// Colors of the element classes, shared by the overview bar and the lists.
var (
	ColorCause      = tcell.ColorRed
	ColorSafe       = tcell.ColorGreen
	ColorRemoved    = tcell.ColorGray
	ColorUnresolved = tcell.ColorWhite
)

func DefaultStyleButton(button *tview.Button) {
	button.SetStyle(DefaultButtonStyle)
	button.SetActivatedStyle(DefaultButtonActiveStyle)
	button.SetDisabledStyle(DefaultButtonDisabledStyle)
}

// OutcomeButton styles a button in the color of the outcome it reports.
func OutcomeButton(label string, color tcell.Color, selected func()) *tview.Button {
	b := tview.NewButton(label).SetSelectedFunc(selected)
	b.SetStyle(tcell.StyleDefault.Foreground(color).Background(tcell.ColorWhite))
	b.SetActivatedStyle(tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(color).Underline(true))
	b.SetDisabledStyle(DefaultButtonDisabledStyle)
	return b
}

// Framed puts p in a bordered box with a title.
func Framed(p *tview.Box, title string) {
	p.SetBorder(true).SetTitle(" " + title + " ").SetTitleAlign(tview.AlignLeft)
}
