package app

import (
	"context"
	"errors"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/reduce"
	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
	"github.com/Qendolin/delta-reduce-tool/pkg/ui"
	"github.com/Qendolin/delta-reduce-tool/pkg/ui/pages"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// App is the terminal UI of an interactive reduction: the user runs the
// analysis by hand and reports each outcome.
type App struct {
	*tview.Application
	layoutManager *ui.LayoutManager
	navManager    *ui.NavigationManager
	dialogManager *ui.DialogManager
	focusManager  *ui.FocusManager
	logger        *logging.Logger

	session Session
	summary *Summary

	mainPage   *pages.MainPage
	resultPage *pages.ResultPage
	logPage    *pages.LogPage

	appCtx    context.Context
	cancelApp context.CancelFunc
}

// NewApp creates the UI for session. Canceling ctx asks the user to quit.
func NewApp(ctx context.Context, logger *logging.Logger, session Session) *App {
	appCtx, cancelApp := context.WithCancel(context.WithoutCancel(ctx))

	a := &App{
		Application: tview.NewApplication(),
		logger:      logger,
		session:     session,
		appCtx:      appCtx,
		cancelApp:   cancelApp,
	}

	a.layoutManager = ui.NewLayoutManager(a, appCtx)
	a.navManager = ui.NewNavigationManager(a, a.layoutManager.Pages())
	a.dialogManager = ui.NewDialogManager(a)
	a.focusManager = ui.NewFocusManager(a)
	a.SetRoot(a.layoutManager.RootPrimitive(), true)

	a.mainPage = pages.NewMainPage(a)
	a.resultPage = pages.NewResultPage(a)
	a.logPage = pages.NewLogPage(a)

	a.navManager.Register(ui.PageMainID, a.mainPage)
	a.navManager.Register(ui.PageResultID, a.resultPage)
	a.navManager.Register(ui.PageLogID, a.logPage)

	a.setupGlobalInputCapture()

	go func() {
		select {
		case <-ctx.Done():
			a.QueueUpdateDraw(a.dialogManager.ShowQuitDialog)
		case <-appCtx.Done():
		}
	}()
	return a
}

// setupGlobalInputCapture defines application-wide keybindings.
func (a *App) setupGlobalInputCapture() {
	a.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyTab:
			if a.focusManager.Cycle(a.navManager.CurrentPage(), true) {
				return nil
			}
		case tcell.KeyBacktab:
			if a.focusManager.Cycle(a.navManager.CurrentPage(), false) {
				return nil
			}
		case tcell.KeyCtrlL:
			go a.QueueUpdateDraw(a.navManager.ToggleLogPage)
			return nil
		case tcell.KeyCtrlC:
			go a.QueueUpdateDraw(a.dialogManager.ShowQuitDialog)
			return nil
		}
		return event
	})
}

// Run starts the tview application event loop.
func (a *App) Run() error {
	a.navManager.SwitchTo(ui.PageMainID)
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err = screen.Init(); err != nil {
		return err
	}
	screen.SetTitle("Delta Reduce Tool")
	a.EnableMouse(true)
	a.EnablePaste(true)
	a.SetScreen(screen)
	return a.Application.Run()
}

// Stop gracefully stops the application.
func (a *App) Stop() {
	a.cancelApp()
	a.Application.Stop()
}

func (a *App) Navigation() *ui.NavigationManager { return a.navManager }
func (a *App) Dialogs() *ui.DialogManager        { return a.dialogManager }
func (a *App) Layout() *ui.LayoutManager         { return a.layoutManager }
func (a *App) GetLogger() *logging.Logger        { return a.logger }
func (a *App) SetFocus(p tview.Primitive)        { a.Application.SetFocus(p) }

func (a *App) GetViewModel() ui.ReductionViewModel {
	return a.session.ViewModel()
}

// Summary returns what the run produced once it finished, nil before.
func (a *App) Summary() *Summary {
	return a.summary
}

// Step prepares the next configuration and shows the test prompt. Before the
// original outcome is known, the prompt asks for it instead.
func (a *App) Step() {
	vm := a.session.ViewModel()
	switch {
	case vm.IsComplete:
		a.navManager.SwitchTo(ui.PageResultID)
		return
	case !vm.IsVerified:
		a.showTest(true)
		return
	case vm.InTest:
		a.showTest(false)
		return
	}

	ok, err := a.session.Next()
	if err != nil {
		a.dialogManager.ShowErrorDialog("Reduction Error", "Failed to prepare the next configuration.", err, a.refresh)
		return
	}
	a.refresh()
	if !ok {
		a.finish()
		return
	}
	a.showTest(false)
}

func (a *App) showTest(isOriginal bool) {
	if a.navManager.HasModal(ui.PageTestID) {
		return
	}
	a.navManager.ShowModal(ui.PageTestID, pages.NewTestPage(a, isOriginal))
}

// Judge hands the outcome reported by the user to the reduction and moves on
// to the next round.
func (a *App) Judge(outcome dd.Outcome) {
	if !a.session.Verified() {
		if err := a.session.SetOriginal(outcome); err != nil {
			a.dialogManager.ShowErrorDialog("Nothing To Reduce", "The original input has to fail or pass.", err, a.refresh)
			return
		}
	} else if err := a.session.Submit(a.appCtx, outcome); err != nil {
		message := "Failed to process the result."
		if errors.Is(err, reduce.ErrPropertyLost) {
			message = "The reduced input no longer shows the original outcome. The analysis is probably flaky."
		}
		a.dialogManager.ShowErrorDialog("Reduction Error", message, err, a.refresh)
		return
	}
	a.refresh()
	a.Step()
}

func (a *App) finish() {
	summary, err := a.session.Finish()
	a.summary = summary
	if err != nil {
		logging.Errorf("App: Writing the results failed: %v", err)
		a.dialogManager.ShowErrorDialog("Export Error", "The reduction finished, but some results could not be written.", err, func() {
			a.navManager.SwitchTo(ui.PageResultID)
		})
		return
	}
	a.navManager.SwitchTo(ui.PageResultID)
}

// refresh redraws the pages that show reduction state.
func (a *App) refresh() {
	a.mainPage.RefreshReductionState()
	if page, ok := a.navManager.CurrentPage().(ui.ReductionObserver); ok && page != a.mainPage {
		page.RefreshReductionState()
	}
}
