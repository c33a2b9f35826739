package main

import (
	"github.com/sevigo/code-fixer/internal/app"
	"github.com/sevigo/code-fixer/internal/coordinator"
	"github.com/sevigo/code-fixer/internal/core"
)

// Indicates that the core application services have been initialized.
type appInitializedMsg struct {
	app     *app.App
	cleanup func()
	err     error
}

// Indicates that the plan file was read and checked.
type plansLoadedMsg struct {
	plans []core.FixPlan
	err   error
}

// One plan reached its final state.
type planDoneMsg coordinator.PlanResult

// Every plan has finished; report carries the aggregate view.
type runFinishedMsg struct {
	report *app.RunReport
}
