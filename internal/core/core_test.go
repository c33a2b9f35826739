package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{in: "formatting", want: CategoryFormatting},
		{in: "TYPE-ERROR", want: CategoryTypeError},
		{in: " dead_code ", want: CategoryDeadCode},
		{in: "cosmic-rays", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLadder(t *testing.T) {
	ladder, err := ParseLadder([]string{"add_annotation", "Minimal-Edit", "conservative"})
	require.NoError(t, err)
	assert.Equal(t, []Strategy{StrategyAddAnnotation, StrategyMinimalEdit, StrategyConservative}, ladder)

	_, err = ParseLadder([]string{"minimal-edit", "yolo"})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestDefaultLaddersAnnotationFirstForTypeErrors(t *testing.T) {
	ladder := DefaultLadders().For(CategoryTypeError)
	require.NotEmpty(t, ladder)
	assert.Equal(t, StrategyAddAnnotation, ladder[0])
	assert.Equal(t, StrategyConservative, ladder[len(ladder)-1])

	for _, c := range Categories() {
		assert.NotEmpty(t, DefaultLadders().For(c), "category %s has no ladder", c)
	}
}

func TestLaddersMergeDoesNotAlias(t *testing.T) {
	base := DefaultLadders()
	merged := base.Merge(Ladders{CategoryFormatting: {StrategyConservative}})

	assert.Equal(t, []Strategy{StrategyConservative}, merged.For(CategoryFormatting))
	assert.Equal(t, []Strategy{StrategyMinimalEdit, StrategyConservative}, base.For(CategoryFormatting))

	got := merged.For(CategorySecurity)
	got[0] = StrategyConservative
	assert.Equal(t, StrategyMinimalEdit, merged.For(CategorySecurity)[0])
}

func TestFixPlanToIssue(t *testing.T) {
	t.Run("synthesised from metadata", func(t *testing.T) {
		plan := FixPlan{
			FilePath: "a.py",
			Category: CategorySecurity,
			Metadata: map[string]string{"message": "eval on user input", "severity": "critical", "line": "12"},
		}
		issue := plan.ToIssue()
		assert.Equal(t, Issue{
			Category: CategorySecurity,
			Message:  "eval on user input",
			Severity: SeverityCritical,
			FilePath: "a.py",
			Line:     12,
		}, issue)
	})

	t.Run("attached issue fills gaps from plan", func(t *testing.T) {
		plan := FixPlan{
			FilePath: "b.py",
			Category: CategoryFormatting,
			Issue:    &Issue{Message: "line too long"},
		}
		issue := plan.ToIssue()
		assert.Equal(t, "b.py", issue.FilePath)
		assert.Equal(t, CategoryFormatting, issue.Category)
		assert.Equal(t, "line too long", issue.Message)
	})

	t.Run("falls back to first change", func(t *testing.T) {
		plan := FixPlan{FilePath: "c.py", Category: CategoryDeadCode, Changes: []string{"drop unused helper"}}
		assert.Equal(t, "drop unused helper", plan.ToIssue().Message)
		assert.Equal(t, SeverityMedium, plan.ToIssue().Severity)
	})
}

func TestIssueString(t *testing.T) {
	assert.Equal(t, "a.py:3 [security] eval", Issue{FilePath: "a.py", Line: 3, Category: CategorySecurity, Message: "eval"}.String())
	assert.Equal(t, "a.py [formatting]", Issue{FilePath: "a.py", Category: CategoryFormatting}.String())
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-0.3))
	assert.Equal(t, 1.0, ClampConfidence(4))
	assert.Equal(t, 0.0, ClampConfidence(math.NaN()))
	assert.Equal(t, 0.42, ClampConfidence(0.42))
}

func TestCapture(t *testing.T) {
	t.Run("panic becomes PanicError", func(t *testing.T) {
		res, err := Capture(func() (*FixResult, error) { panic("boom") })
		assert.Nil(t, res)
		var pe *PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "boom", pe.Value)
		assert.NotEmpty(t, pe.Stack)
	})

	t.Run("nil result is an error", func(t *testing.T) {
		_, err := Capture(func() (*FixResult, error) { return nil, nil })
		assert.ErrorIs(t, err, ErrNilResult)
	})

	t.Run("result is clamped", func(t *testing.T) {
		res, err := Capture(func() (*FixResult, error) { return &FixResult{Success: true, Confidence: 1.7}, nil })
		require.NoError(t, err)
		assert.Equal(t, 1.0, res.Confidence)
	})

	t.Run("CaptureResult folds errors", func(t *testing.T) {
		res, err := CaptureResult(func() (*FixResult, error) { return nil, errors.New("linter crashed") })
		require.Error(t, err)
		assert.False(t, res.Success)
		assert.Zero(t, res.Confidence)
		assert.Equal(t, []string{"linter crashed"}, res.RemainingIssues)
		assert.Equal(t, []string{ManualReviewRecommendation}, res.Recommendations)
	})
}

func TestWithRecommendationDeduplicates(t *testing.T) {
	r := &FixResult{}
	r.WithRecommendation(ManualReviewRecommendation).WithRecommendation(ManualReviewRecommendation)
	assert.Equal(t, []string{ManualReviewRecommendation}, r.Recommendations)
}
