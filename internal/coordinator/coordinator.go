// Package coordinator is the entry point of the fix engine. It batches plans,
// groups each batch by target file, runs file groups concurrently while the
// plans of one file run strictly one after another under that file's lock,
// and turns every outcome (including agent failures) into a PlanResult.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/code-fixer/internal/core"
	"github.com/sevigo/code-fixer/internal/filelock"
	"github.com/sevigo/code-fixer/internal/registry"
	"github.com/sevigo/code-fixer/internal/retry"
)

// DefaultBatchSize caps how many plans are in flight at once.
const DefaultBatchSize = 10

// PlanResult ties one FixResult back to the plan it came from.
type PlanResult struct {
	Index    int                  `json:"index"`
	Plan     core.FixPlan         `json:"plan"`
	Agent    string               `json:"agent,omitempty"`
	State    core.State           `json:"state"`
	Result   *core.FixResult      `json:"result"`
	History  []core.AttemptRecord `json:"history,omitempty"`
	Duration time.Duration        `json:"duration"`
}

// Coordinator executes FixPlans against a registry of agents.
type Coordinator struct {
	registry  *registry.Registry
	locks     *filelock.Table
	retry     *retry.Manager
	ladders   core.Ladders
	batchSize int
	useRetry  bool
	threshold float64
	stats     *statsTable
	logger    *slog.Logger
}

type settings struct {
	batchSize      int
	threshold      float64
	attemptTimeout time.Duration
	ladders        core.Ladders
	useRetry       bool
	logger         *slog.Logger
}

// Option configures a Coordinator.
type Option func(*settings)

// WithBatchSize sets the batch size. Values <= 0 fall back to DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithAcceptanceThreshold sets the confidence at which a failed attempt is accepted.
func WithAcceptanceThreshold(threshold float64) Option {
	return func(s *settings) { s.threshold = core.ClampConfidence(threshold) }
}

// WithAttemptTimeout bounds every agent attempt; a timeout counts as a failed attempt.
func WithAttemptTimeout(d time.Duration) Option {
	return func(s *settings) { s.attemptTimeout = d }
}

// WithLadders replaces the strategy policy.
func WithLadders(ladders core.Ladders) Option {
	return func(s *settings) {
		if ladders != nil {
			s.ladders = ladders
		}
	}
}

// WithoutRetry gives every plan a single attempt with the agent's default strategy.
func WithoutRetry() Option {
	return func(s *settings) { s.useRetry = false }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a Coordinator. A nil lock table gets a fresh one.
func New(reg *registry.Registry, locks *filelock.Table, opts ...Option) *Coordinator {
	s := settings{
		batchSize: DefaultBatchSize,
		threshold: retry.DefaultAcceptanceThreshold,
		ladders:   core.DefaultLadders(),
		useRetry:  true,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	if locks == nil {
		locks = filelock.New()
	}

	return &Coordinator{
		registry: reg,
		locks:    locks,
		retry: retry.New(
			retry.WithAcceptanceThreshold(s.threshold),
			retry.WithAttemptTimeout(s.attemptTimeout),
			retry.WithLogger(s.logger),
		),
		ladders:   s.ladders,
		batchSize: s.batchSize,
		useRetry:  s.useRetry,
		threshold: s.threshold,
		stats:     newStatsTable(),
		logger:    s.logger,
	}
}

// BatchSize returns the configured batch size.
func (c *Coordinator) BatchSize() int {
	return c.batchSize
}

// Execute runs every plan and returns exactly one result per plan, in input
// order. Batches run one after another; within a batch, different files run
// concurrently and plans for the same file run sequentially.
func (c *Coordinator) Execute(ctx context.Context, plans []core.FixPlan) []PlanResult {
	return c.ExecuteWithProgress(ctx, plans, nil)
}

// ProgressFunc is called once per plan as soon as its result is final. Calls
// come from worker goroutines and may overlap.
type ProgressFunc func(PlanResult)

// ExecuteWithProgress is Execute with a callback per finished plan.
func (c *Coordinator) ExecuteWithProgress(ctx context.Context, plans []core.FixPlan, progress ProgressFunc) []PlanResult {
	if progress == nil {
		progress = func(PlanResult) {}
	}
	results := make([]PlanResult, len(plans))
	if len(plans) == 0 {
		return results
	}

	start := time.Now()
	batches := 0
	for offset := 0; offset < len(plans); offset += c.batchSize {
		end := min(offset+c.batchSize, len(plans))
		batches++
		c.runBatch(ctx, batches, plans, offset, end, results, progress)
	}

	summary := Summarize(results)
	c.logger.Info("fix run finished",
		"plans", len(plans),
		"batches", batches,
		"succeeded", summary.Succeeded,
		"partially_accepted", summary.PartiallyAccepted,
		"exhausted", summary.Exhausted,
		"errored", summary.Errored,
		"unroutable", summary.Unroutable,
		"duration", time.Since(start),
	)
	return results
}

// runBatch fans the file groups of plans[offset:end] out and waits for all of
// them. Results are written by index, so groups never share a slot.
func (c *Coordinator) runBatch(ctx context.Context, batchNum int, plans []core.FixPlan, offset, end int, results []PlanResult, progress ProgressFunc) {
	groups := groupByFile(plans, offset, end)
	c.logger.Debug("processing fix batch", "batch", batchNum, "plans", end-offset, "files", len(groups))

	var g errgroup.Group
	for _, group := range groups {
		g.Go(func() error {
			c.runGroup(ctx, group, plans, results, progress)
			return nil
		})
	}
	_ = g.Wait()
}

// runGroup holds the file lock for the whole group and runs its plans one at a time.
func (c *Coordinator) runGroup(ctx context.Context, group fileGroup, plans []core.FixPlan, results []PlanResult, progress ProgressFunc) {
	if group.err != nil {
		for _, idx := range group.indices {
			results[idx] = c.failed(idx, plans[idx], fmt.Errorf("invalid target path: %w", group.err))
			progress(results[idx])
		}
		return
	}

	release, err := c.locks.Acquire(ctx, group.path)
	if err != nil {
		for _, idx := range group.indices {
			results[idx] = c.failed(idx, plans[idx], err)
			progress(results[idx])
		}
		return
	}
	defer release()

	for _, idx := range group.indices {
		results[idx] = c.runPlan(ctx, idx, plans[idx])
		progress(results[idx])
	}
}

// runPlan routes a single plan and executes it. Agent failures never escape;
// they come back through core.Capture inside the retry manager.
func (c *Coordinator) runPlan(ctx context.Context, idx int, plan core.FixPlan) PlanResult {
	if err := ctx.Err(); err != nil {
		return c.failed(idx, plan, fmt.Errorf("run cancelled before plan started: %w", err))
	}

	start := time.Now()
	issue := plan.ToIssue()
	entry, ok := c.registry.Resolve(issue)
	if !ok {
		c.logger.Warn("no agent for plan", "file", plan.FilePath, "category", plan.Category)
		return PlanResult{
			Index: idx,
			Plan:  plan,
			State: core.StateUnroutable,
			Result: core.FailureResult(
				fmt.Sprintf("no agent for category %s", plan.Category),
				core.ManualReviewRecommendation,
			),
			Duration: time.Since(start),
		}
	}

	ladder := c.ladderFor(plan)
	out := c.retry.Run(ctx, issue, ladder, func(ctx context.Context, _ core.Issue, strategy core.Strategy) (*core.FixResult, error) {
		return entry.Agent.Apply(ctx, plan.WithStrategy(strategy))
	})

	pr := PlanResult{
		Index:    idx,
		Plan:     plan,
		Agent:    entry.Name,
		State:    out.State,
		Result:   out.Result,
		History:  out.History,
		Duration: time.Since(start),
	}
	c.stats.record(pr.Agent, pr.Result.Success)

	if !pr.State.Accepted() {
		c.logger.Warn("fix plan not resolved",
			"file", plan.FilePath,
			"category", plan.Category,
			"agent", pr.Agent,
			"state", pr.State,
			"attempts", len(pr.History),
			"remaining", pr.Result.RemainingIssues,
		)
	}
	return pr
}

// ladderFor picks the strategies to hand the retry manager. Without a ladder
// the plan gets one attempt with whatever strategy it already carries.
func (c *Coordinator) ladderFor(plan core.FixPlan) []core.Strategy {
	if c.useRetry {
		if ladder := c.ladders.For(plan.Category); len(ladder) > 0 {
			return ladder
		}
	}
	return []core.Strategy{plan.Strategy}
}

func (c *Coordinator) failed(idx int, plan core.FixPlan, err error) PlanResult {
	c.logger.Error("fix plan errored", "file", plan.FilePath, "category", plan.Category, "error", err)
	return PlanResult{
		Index:  idx,
		Plan:   plan,
		State:  core.StateErrored,
		Result: core.ResultFromError(err),
	}
}

// Stats returns per-agent execution statistics over every run of this
// Coordinator, sorted by agent name. StatsFor gives the view of one run.
func (c *Coordinator) Stats() []AgentStats {
	return c.stats.snapshot()
}
