// Package app builds the fix engine's components once, explicitly, and hands
// them to the CLI. Nothing here is reachable through package-level state.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/code-fixer/internal/agents"
	"github.com/sevigo/code-fixer/internal/config"
	"github.com/sevigo/code-fixer/internal/coordinator"
	"github.com/sevigo/code-fixer/internal/core"
	"github.com/sevigo/code-fixer/internal/filelock"
	"github.com/sevigo/code-fixer/internal/gitutil"
	"github.com/sevigo/code-fixer/internal/planfile"
	"github.com/sevigo/code-fixer/internal/registry"
	"github.com/sevigo/code-fixer/internal/storage"
)

// App holds the main application components.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Registry    *registry.Registry
	Ladders     core.Ladders
	Coordinator *coordinator.Coordinator
	Git         *gitutil.Client
	Store       storage.Store
}

// RunReport is everything one `run` produces.
type RunReport struct {
	RunID    int64                    `json:"run_id,omitempty"`
	Results  []coordinator.PlanResult `json:"results"`
	Stats    []coordinator.AgentStats `json:"stats"`
	Summary  coordinator.Summary      `json:"summary"`
	Duration time.Duration            `json:"duration"`
}

// NewApp assembles an App from already constructed parts.
func NewApp(cfg *config.Config, logger *slog.Logger, reg *registry.Registry, ladders core.Ladders, coord *coordinator.Coordinator, git *gitutil.Client, store storage.Store) *App {
	if store == nil {
		store = storage.NopStore{}
	}
	return &App{
		Config:      cfg,
		Logger:      logger,
		Registry:    reg,
		Ladders:     ladders,
		Coordinator: coord,
		Git:         git,
		Store:       store,
	}
}

// NewRegistry registers every command agent from the agents file.
func NewRegistry(file *config.AgentsFile, logger *slog.Logger) (*registry.Registry, error) {
	reg := registry.New(logger)
	for _, spec := range file.Agents {
		agent, err := agents.NewCommand(spec)
		if err != nil {
			return nil, err
		}
		categories, err := agent.Categories()
		if err != nil {
			return nil, err
		}
		if len(categories) == 0 {
			logger.Warn("agent has no categories and will never be selected", "agent", agent.Name())
		}
		for _, category := range categories {
			if err := reg.Register(category, agent); err != nil {
				return nil, fmt.Errorf("failed to register agent: %w", err)
			}
		}
	}
	logger.Info("agent registry ready", "registrations", reg.Len(), "categories", len(reg.Categories()))
	return reg, nil
}

// NewCoordinator applies the configured tunables to a new Coordinator.
func NewCoordinator(cfg *config.Config, reg *registry.Registry, ladders core.Ladders, logger *slog.Logger) *coordinator.Coordinator {
	opts := []coordinator.Option{
		coordinator.WithBatchSize(cfg.BatchSize),
		coordinator.WithAcceptanceThreshold(cfg.AcceptanceThreshold),
		coordinator.WithAttemptTimeout(cfg.AttemptTimeout),
		coordinator.WithLadders(ladders),
		coordinator.WithLogger(logger),
	}
	if !cfg.UseRetry {
		opts = append(opts, coordinator.WithoutRetry())
	}
	return coordinator.New(reg, filelock.New(), opts...)
}

// RunOptions controls one run of a plan file.
type RunOptions struct {
	PlanFile     string
	Root         string
	RequireClean bool
}

// Run loads the plan file and executes it.
func (a *App) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	plans, err := a.LoadPlans(opts)
	if err != nil {
		return nil, err
	}
	return a.Execute(ctx, plans, nil), nil
}

// LoadPlans reads the plan file and, when asked, refuses dirty targets.
func (a *App) LoadPlans(opts RunOptions) ([]core.FixPlan, error) {
	plans, err := planfile.Load(opts.PlanFile, opts.Root)
	if err != nil {
		return nil, err
	}
	a.Logger.Info("loaded fix plans", "file", opts.PlanFile, "plans", len(plans))

	if opts.RequireClean {
		if err := a.ensureClean(plans); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// Execute runs already loaded plans and records the run in the history
// store. progress may be nil.
func (a *App) Execute(ctx context.Context, plans []core.FixPlan, progress coordinator.ProgressFunc) *RunReport {
	start := time.Now()
	results := a.Coordinator.ExecuteWithProgress(ctx, plans, progress)
	report := &RunReport{
		Results:  results,
		Stats:    coordinator.StatsFor(results),
		Summary:  coordinator.Summarize(results),
		Duration: time.Since(start),
	}

	// A cancelled run is still worth recording.
	id, err := a.Store.SaveRun(context.WithoutCancel(ctx), &storage.Run{
		StartedAt: start,
		Duration:  report.Duration,
		Summary:   report.Summary,
		Results:   results,
	})
	if err != nil {
		a.Logger.Warn("failed to record run history", "error", err)
	}
	report.RunID = id
	return report
}

func (a *App) ensureClean(plans []core.FixPlan) error {
	paths := make([]string, 0, len(plans))
	for _, p := range plans {
		paths = append(paths, p.FilePath)
	}
	dirty, err := a.Git.DirtyTargets(paths)
	if err != nil {
		return fmt.Errorf("failed to inspect git status: %w", err)
	}
	if len(dirty) == 0 {
		return nil
	}
	for _, d := range dirty {
		a.Logger.Error("refusing to fix dirty target", "file", d.Path, "reason", d.Reason)
	}
	return fmt.Errorf("%w: %d file(s), first: %s (%s)", gitutil.ErrDirtyTarget, len(dirty), dirty[0].Path, dirty[0].Reason)
}
