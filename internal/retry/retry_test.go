package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/code-fixer/internal/core"
)

var testIssue = core.Issue{Category: core.CategoryTypeError, FilePath: "a.py", Message: "missing annotation"}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scripted returns an executor that answers each strategy from a table and
// records the order it was called in.
func scripted(t *testing.T, calls *[]core.Strategy, answers map[core.Strategy]func() (*core.FixResult, error)) Executor {
	t.Helper()
	return func(_ context.Context, _ core.Issue, s core.Strategy) (*core.FixResult, error) {
		*calls = append(*calls, s)
		answer, ok := answers[s]
		if !ok {
			t.Fatalf("unexpected strategy %s", s)
		}
		return answer()
	}
}

func result(success bool, confidence float64) func() (*core.FixResult, error) {
	return func() (*core.FixResult, error) {
		return &core.FixResult{Success: success, Confidence: confidence}, nil
	}
}

func TestRunFallsBackToSecondStrategy(t *testing.T) {
	var calls []core.Strategy
	exec := scripted(t, &calls, map[core.Strategy]func() (*core.FixResult, error){
		core.StrategyAddAnnotation: result(false, 0.2),
		core.StrategyMinimalEdit:   result(true, 0.95),
	})

	out := New(WithLogger(quietLogger())).Run(context.Background(), testIssue,
		[]core.Strategy{core.StrategyAddAnnotation, core.StrategyMinimalEdit, core.StrategyConservative}, exec)

	assert.Equal(t, core.StateSucceeded, out.State)
	assert.True(t, out.Result.Success)
	assert.Equal(t, 0.95, out.Result.Confidence)
	require.Len(t, out.History, 2)
	assert.False(t, out.History[0].Success)
	assert.Equal(t, 1, out.History[0].Attempt)
	assert.Equal(t, core.StrategyAddAnnotation, out.History[0].Strategy)
	assert.True(t, out.History[1].Success)
	assert.Equal(t, []core.Strategy{core.StrategyAddAnnotation, core.StrategyMinimalEdit}, calls)
}

func TestRunAcceptsOnConfidence(t *testing.T) {
	var calls []core.Strategy
	exec := scripted(t, &calls, map[core.Strategy]func() (*core.FixResult, error){
		core.StrategyMinimalEdit: result(false, 0.75),
	})

	out := New(WithLogger(quietLogger())).Run(context.Background(), testIssue,
		[]core.Strategy{core.StrategyMinimalEdit, core.StrategySafeMerge, core.StrategyConservative}, exec)

	assert.Equal(t, core.StatePartiallyAccepted, out.State)
	assert.False(t, out.Result.Success)
	assert.Equal(t, 0.75, out.Result.Confidence)
	assert.Len(t, out.History, 1)
	assert.Len(t, calls, 1)
}

func TestRunThresholdIsInclusiveAndConfigurable(t *testing.T) {
	var calls []core.Strategy
	exec := scripted(t, &calls, map[core.Strategy]func() (*core.FixResult, error){
		core.StrategyMinimalEdit:  result(false, 0.75),
		core.StrategyConservative: result(false, 0.9),
	})

	m := New(WithAcceptanceThreshold(0.9), WithLogger(quietLogger()))
	out := m.Run(context.Background(), testIssue, []core.Strategy{core.StrategyMinimalEdit, core.StrategyConservative}, exec)

	assert.Equal(t, 0.9, m.Threshold())
	assert.Equal(t, core.StatePartiallyAccepted, out.State)
	assert.Len(t, out.History, 2)
}

func TestRunEmptyLadder(t *testing.T) {
	out := New().Run(context.Background(), testIssue, nil, func(context.Context, core.Issue, core.Strategy) (*core.FixResult, error) {
		t.Fatal("executor must not be called")
		return nil, nil
	})

	require.NotNil(t, out.Result)
	assert.False(t, out.Result.Success)
	assert.NotEmpty(t, out.Result.RemainingIssues)
	assert.Empty(t, out.History)
	assert.Equal(t, core.StateExhausted, out.State)
}

func TestRunExhaustionReturnsLastResultWithManualReview(t *testing.T) {
	var calls []core.Strategy
	exec := scripted(t, &calls, map[core.Strategy]func() (*core.FixResult, error){
		core.StrategyMinimalEdit: result(false, 0.1),
		core.StrategyConservative: func() (*core.FixResult, error) {
			return &core.FixResult{Confidence: 0.3, RemainingIssues: []string{"still ambiguous"}}, nil
		},
	})

	out := New(WithLogger(quietLogger())).Run(context.Background(), testIssue,
		[]core.Strategy{core.StrategyMinimalEdit, core.StrategyConservative}, exec)

	assert.Equal(t, core.StateExhausted, out.State)
	assert.Equal(t, 0.3, out.Result.Confidence)
	assert.Equal(t, []string{"still ambiguous"}, out.Result.RemainingIssues)
	assert.Contains(t, out.Result.Recommendations, core.ManualReviewRecommendation)
	assert.Len(t, out.History, 2)
}

func TestRunConvertsErrorsAndPanicsToFailedAttempts(t *testing.T) {
	var calls []core.Strategy
	exec := scripted(t, &calls, map[core.Strategy]func() (*core.FixResult, error){
		core.StrategyMinimalEdit:         func() (*core.FixResult, error) { return nil, errors.New("parser crashed") },
		core.StrategyFunctionReplacement: func() (*core.FixResult, error) { panic("nil map write") },
		core.StrategyConservative:        result(true, 0.8),
	})

	out := New(WithLogger(quietLogger())).Run(context.Background(), testIssue,
		[]core.Strategy{core.StrategyMinimalEdit, core.StrategyFunctionReplacement, core.StrategyConservative}, exec)

	assert.Equal(t, core.StateSucceeded, out.State)
	require.Len(t, out.History, 3)
	assert.Equal(t, "parser crashed", out.History[0].Err)
	assert.Zero(t, out.History[0].Confidence)
	assert.Contains(t, out.History[1].Err, "nil map write")
	assert.Empty(t, out.History[2].Err)
}

func TestRunAllErroredIsErrored(t *testing.T) {
	exec := func(context.Context, core.Issue, core.Strategy) (*core.FixResult, error) {
		return nil, errors.New("tool not installed")
	}
	out := New(WithLogger(quietLogger())).Run(context.Background(), testIssue, []core.Strategy{core.StrategyMinimalEdit}, exec)

	assert.Equal(t, core.StateErrored, out.State)
	assert.Equal(t, []string{"tool not installed"}, out.Result.RemainingIssues)
	assert.Equal(t, []string{core.ManualReviewRecommendation}, out.Result.Recommendations)
}

func TestRunAttemptTimeoutFallsBack(t *testing.T) {
	var calls []core.Strategy
	exec := func(ctx context.Context, _ core.Issue, s core.Strategy) (*core.FixResult, error) {
		calls = append(calls, s)
		if s == core.StrategyFunctionReplacement {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &core.FixResult{Success: true, Confidence: 1}, nil
	}

	m := New(WithAttemptTimeout(20*time.Millisecond), WithLogger(quietLogger()))
	out := m.Run(context.Background(), testIssue, []core.Strategy{core.StrategyFunctionReplacement, core.StrategyConservative}, exec)

	assert.Equal(t, core.StateSucceeded, out.State)
	require.Len(t, out.History, 2)
	assert.Contains(t, out.History[0].Err, ErrAttemptTimeout.Error())
	assert.Equal(t, []core.Strategy{core.StrategyFunctionReplacement, core.StrategyConservative}, calls)
}

func TestRunLateSuccessCountsAsTimeout(t *testing.T) {
	var calls []core.Strategy
	exec := func(_ context.Context, _ core.Issue, s core.Strategy) (*core.FixResult, error) {
		calls = append(calls, s)
		if s == core.StrategyMinimalEdit {
			time.Sleep(60 * time.Millisecond)
			return &core.FixResult{Success: true, Confidence: 1}, nil
		}
		return &core.FixResult{Confidence: 0.8}, nil
	}

	m := New(WithAttemptTimeout(20*time.Millisecond), WithLogger(quietLogger()))
	out := m.Run(context.Background(), testIssue, []core.Strategy{core.StrategyMinimalEdit, core.StrategyConservative}, exec)

	require.Len(t, out.History, 2)
	assert.False(t, out.History[0].Success)
	assert.Contains(t, out.History[0].Err, ErrAttemptTimeout.Error())
	assert.Equal(t, core.StatePartiallyAccepted, out.State)
	assert.Equal(t, 0.8, out.Result.Confidence)
	assert.Equal(t, []core.Strategy{core.StrategyMinimalEdit, core.StrategyConservative}, calls)

	single := m.Run(context.Background(), testIssue, []core.Strategy{core.StrategyMinimalEdit}, exec)
	assert.Equal(t, core.StateErrored, single.State)
	assert.False(t, single.Result.Success)
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := func(context.Context, core.Issue, core.Strategy) (*core.FixResult, error) {
		cancel()
		return &core.FixResult{Confidence: 0.1}, nil
	}

	out := New(WithLogger(quietLogger())).Run(ctx, testIssue, []core.Strategy{core.StrategyMinimalEdit, core.StrategyConservative}, exec)

	assert.Equal(t, core.StateErrored, out.State)
	assert.Len(t, out.History, 1)
	require.NotEmpty(t, out.Result.RemainingIssues)
	assert.Contains(t, out.Result.RemainingIssues[0], context.Canceled.Error())
}
