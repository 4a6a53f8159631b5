package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	errorDialogID    = "error_dialog"
	quitDialogID     = "quit_dialog"
	questionDialogID = "question_dialog"
)

type DialogManager struct {
	app AppInterface
}

func NewDialogManager(app AppInterface) *DialogManager {
	return &DialogManager{app: app}
}

// ShowErrorDialog displays a modal dialog with an error message and the
// unwrapped error chain.
func (m *DialogManager) ShowErrorDialog(title, message string, err error, onDismiss func()) {
	text := message
	if err != nil {
		text += "\n\n" + formatErrorChain(err)
	}
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"Dismiss"}).
		SetDoneFunc(func(int, string) {
			go m.app.QueueUpdateDraw(func() {
				m.app.Navigation().CloseModal()
				if onDismiss != nil {
					onDismiss()
				}
			})
		})
	modal.SetTextColor(tcell.ColorWhite).
		SetBackgroundColor(tcell.ColorDarkRed)
	modal.SetTitle(" " + title + " ").SetTitleAlign(tview.AlignLeft)
	m.app.Navigation().ShowModal(errorDialogID, NewModalPage(modal))
}

// ShowQuitDialog asks for confirmation before quitting.
func (m *DialogManager) ShowQuitDialog() {
	if m.app.Navigation().HasModal(quitDialogID) {
		return
	}
	modal := tview.NewModal().
		SetText("Are you sure you want to quit?\nThe reduction so far is kept on disk.").
		AddButtons([]string{"Cancel", "Quit"}).
		SetDoneFunc(func(buttonIndex int, _ string) {
			go m.app.QueueUpdateDraw(func() {
				m.app.Navigation().CloseModal()
				if buttonIndex == 1 {
					logging.Info("App: Quitting.")
					m.app.Stop()
				}
			})
		})
	modal.SetTitle(" Quit ").SetTitleAlign(tview.AlignLeft)
	m.app.Navigation().ShowModal(quitDialogID, NewModalPage(modal))
}

func (m *DialogManager) ShowQuestionDialog(title, question string, onYes func(), onNo func()) {
	modal := tview.NewModal().
		SetText(question).
		AddButtons([]string{"No", "Yes"}).
		SetDoneFunc(func(_ int, buttonLabel string) {
			go m.app.QueueUpdateDraw(func() {
				m.app.Navigation().CloseModal()
				switch {
				case buttonLabel == "Yes" && onYes != nil:
					onYes()
				case buttonLabel == "No" && onNo != nil:
					onNo()
				}
			})
		})
	modal.SetTitle(" " + title + " ").SetTitleAlign(tview.AlignLeft)
	m.app.Navigation().ShowModal(questionDialogID, NewModalPage(modal))
}

// ModalPage wraps a tview.Modal to conform to the Page interface.
type ModalPage struct {
	*tview.Modal
}

func NewModalPage(modal *tview.Modal) *ModalPage {
	return &ModalPage{Modal: modal}
}

func (p *ModalPage) GetActionPrompts() []ActionPrompt {
	return []ActionPrompt{}
}

func (p *ModalPage) GetStatusPrimitive() *tview.TextView {
	return nil
}

// formatErrorChain unwraps err and puts every level on its own line, with
// the text already shown by the wrapped error cut off.
func formatErrorChain(err error) string {
	var b strings.Builder
	indent := ""
	for err != nil {
		next := errors.Unwrap(err)
		msg := err.Error()
		if next != nil {
			if i := strings.LastIndex(msg, next.Error()); i > 0 {
				msg = strings.TrimRight(strings.TrimSpace(msg[:i]), ":")
			}
		}
		fmt.Fprintf(&b, "%s- %s", indent, msg)
		if next != nil {
			b.WriteRune('\n')
		}
		indent += " "
		err = next
	}
	return b.String()
}
