package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sevigo/code-fixer/internal/app"
	"github.com/sevigo/code-fixer/internal/coordinator"
	"github.com/sevigo/code-fixer/internal/core"
	"github.com/sevigo/code-fixer/internal/wire"
)

func initializeAppCmd() tea.Cmd {
	return func() tea.Msg {
		a, cleanup, err := wire.InitializeApp()
		if err != nil {
			return appInitializedMsg{err: err}
		}
		return appInitializedMsg{app: a, cleanup: cleanup}
	}
}

func loadPlansCmd(a *app.App, opts app.RunOptions) tea.Cmd {
	return func() tea.Msg {
		plans, err := a.LoadPlans(opts)
		return plansLoadedMsg{plans: plans, err: err}
	}
}

// executeCmd runs the plans and streams every finished plan into done. The
// channel is buffered for all plans, so workers never wait on the UI.
func executeCmd(ctx context.Context, a *app.App, plans []core.FixPlan, done chan coordinator.PlanResult) tea.Cmd {
	return func() tea.Msg {
		defer close(done)
		report := a.Execute(ctx, plans, func(r coordinator.PlanResult) {
			done <- r
		})
		return runFinishedMsg{report: report}
	}
}

func waitForPlanCmd(done <-chan coordinator.PlanResult) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-done
		if !ok {
			return nil
		}
		return planDoneMsg(r)
	}
}
