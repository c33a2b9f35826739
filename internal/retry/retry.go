// Package retry drives one issue through an ordered ladder of fix strategies
// until an attempt succeeds, is accepted on confidence, or the ladder runs out.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/code-fixer/internal/core"
)

// DefaultAcceptanceThreshold is the confidence at which a failed attempt is
// still accepted instead of burning the rest of the ladder.
const DefaultAcceptanceThreshold = 0.7

var ErrAttemptTimeout = errors.New("attempt timed out")

// Executor performs one attempt of issue with strategy.
type Executor func(ctx context.Context, issue core.Issue, strategy core.Strategy) (*core.FixResult, error)

// Outcome is what a retry session hands back: exactly one result plus the
// attempt history, which is diagnostic only.
type Outcome struct {
	Result  *core.FixResult
	History []core.AttemptRecord
	State   core.State
}

// Manager is strategy-agnostic; callers decide which ladder to hand it.
type Manager struct {
	threshold      float64
	attemptTimeout time.Duration
	logger         *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithAcceptanceThreshold overrides the default 0.7. Values are clamped to [0,1].
func WithAcceptanceThreshold(threshold float64) Option {
	return func(m *Manager) {
		m.threshold = core.ClampConfidence(threshold)
	}
}

// WithAttemptTimeout bounds every attempt. Zero disables the bound.
func WithAttemptTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.attemptTimeout = d
		}
	}
}

// WithLogger sets the logger used for attempt diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		threshold: DefaultAcceptanceThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Threshold returns the acceptance threshold in use.
func (m *Manager) Threshold() float64 {
	return m.threshold
}

// Run attempts the strategies strictly in order, using at most
// len(strategies) attempts, and never returns a nil Result.
func (m *Manager) Run(ctx context.Context, issue core.Issue, strategies []core.Strategy, exec Executor) Outcome {
	if len(strategies) == 0 {
		return Outcome{
			Result: core.FailureResult(
				fmt.Sprintf("no fix strategies available for %s", issue),
				core.ManualReviewRecommendation,
			),
			State: core.StateExhausted,
		}
	}

	history := make([]core.AttemptRecord, 0, len(strategies))
	var (
		last    *core.FixResult
		lastErr error
	)

	for i, strategy := range strategies {
		if err := ctx.Err(); err != nil {
			m.logger.Warn("retry session cancelled", "issue", issue.String(), "attempts", len(history), "error", err)
			res := core.ResultFromError(fmt.Errorf("cancelled before attempt %d (%s): %w", i+1, strategy, err))
			return Outcome{Result: res, History: history, State: core.StateErrored}
		}

		start := time.Now()
		res, err := m.attempt(ctx, issue, strategy, exec)
		record := core.AttemptRecord{
			Attempt:    i + 1,
			Strategy:   strategy,
			Success:    res.Success,
			Confidence: res.Confidence,
			Duration:   time.Since(start),
		}
		if err != nil {
			record.Err = err.Error()
		}
		history = append(history, record)
		last, lastErr = res, err

		if res.Success {
			m.logger.Debug("fix attempt succeeded", "issue", issue.String(), "attempt", record.Attempt, "strategy", strategy)
			return Outcome{Result: res, History: history, State: core.StateSucceeded}
		}
		if res.Confidence >= m.threshold {
			m.logger.Info("accepting partial fix on confidence",
				"issue", issue.String(),
				"attempt", record.Attempt,
				"strategy", strategy,
				"confidence", res.Confidence,
				"threshold", m.threshold,
			)
			return Outcome{Result: res, History: history, State: core.StatePartiallyAccepted}
		}

		m.logger.Debug("fix attempt failed, falling back",
			"issue", issue.String(),
			"attempt", record.Attempt,
			"strategy", strategy,
			"confidence", res.Confidence,
			"error", record.Err,
		)
	}

	state := core.StateExhausted
	if lastErr != nil {
		state = core.StateErrored
	}
	return Outcome{
		Result:  last.Clone().WithRecommendation(core.ManualReviewRecommendation),
		History: history,
		State:   state,
	}
}

// attempt runs a single executor call behind the shared catch boundary. The
// executor always runs to completion here, so a caller holding a file lock
// still covers it even when the attempt is late.
func (m *Manager) attempt(ctx context.Context, issue core.Issue, strategy core.Strategy, exec Executor) (*core.FixResult, error) {
	attemptCtx := ctx
	if m.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, m.attemptTimeout)
		defer cancel()
	}

	res, err := core.Capture(func() (*core.FixResult, error) {
		return exec(attemptCtx, issue, strategy)
	})

	// Past the deadline the result is discarded, a late success included.
	if m.attemptTimeout > 0 && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s using %s", ErrAttemptTimeout, m.attemptTimeout, strategy)
	}
	if err != nil {
		return core.ResultFromError(err), err
	}
	return res, nil
}
