package core

// ManualReviewRecommendation is attached to every result a human needs to look at.
const ManualReviewRecommendation = "manual review required"

// FixResult is the outcome of attempting to apply a FixPlan.
type FixResult struct {
	Success         bool     `json:"success"`
	Confidence      float64  `json:"confidence"`
	AppliedFixes    []string `json:"applied_fixes,omitempty"`
	RemainingIssues []string `json:"remaining_issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	ModifiedFiles   []string `json:"modified_files,omitempty"`
}

// FailureResult builds a failed result with zero confidence.
func FailureResult(reason string, recommendations ...string) *FixResult {
	return &FixResult{
		Success:         false,
		Confidence:      0,
		RemainingIssues: []string{reason},
		Recommendations: append([]string(nil), recommendations...),
	}
}

// ResultFromError is the canonical conversion of an agent failure into a result.
func ResultFromError(err error) *FixResult {
	return FailureResult(err.Error(), ManualReviewRecommendation)
}

// Clone returns a deep copy so callers can decorate a result without
// touching the one an agent handed back.
func (r *FixResult) Clone() *FixResult {
	if r == nil {
		return nil
	}
	return &FixResult{
		Success:         r.Success,
		Confidence:      r.Confidence,
		AppliedFixes:    append([]string(nil), r.AppliedFixes...),
		RemainingIssues: append([]string(nil), r.RemainingIssues...),
		Recommendations: append([]string(nil), r.Recommendations...),
		ModifiedFiles:   append([]string(nil), r.ModifiedFiles...),
	}
}

// Normalize clamps confidence into [0,1]; NaN counts as 0.
func (r *FixResult) Normalize() *FixResult {
	r.Confidence = ClampConfidence(r.Confidence)
	return r
}

// WithRecommendation appends rec unless it is already present.
func (r *FixResult) WithRecommendation(rec string) *FixResult {
	for _, existing := range r.Recommendations {
		if existing == rec {
			return r
		}
	}
	r.Recommendations = append(r.Recommendations, rec)
	return r
}

// ClampConfidence maps any float into [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
