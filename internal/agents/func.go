// Package agents holds the built-in Agent variants. Real repair logic lives
// outside the engine; these adapt a Go function or an external command to
// the core.Agent contract.
package agents

import (
	"context"

	"github.com/sevigo/code-fixer/internal/core"
)

// ApplyFunc performs one fix attempt.
type ApplyFunc func(ctx context.Context, plan core.FixPlan) (*core.FixResult, error)

// Func is an agent backed by a plain function.
type Func struct {
	name       string
	confidence float64
	probe      func(core.Issue) float64
	apply      ApplyFunc
}

// NewFunc returns an agent that always probes at confidence.
func NewFunc(name string, confidence float64, apply ApplyFunc) *Func {
	return &Func{name: name, confidence: core.ClampConfidence(confidence), apply: apply}
}

// WithProbe replaces the constant probe with fn.
func (f *Func) WithProbe(fn func(core.Issue) float64) *Func {
	f.probe = fn
	return f
}

func (f *Func) Name() string { return f.name }

func (f *Func) Probe(issue core.Issue) float64 {
	if f.probe != nil {
		return f.probe(issue)
	}
	return f.confidence
}

func (f *Func) Apply(ctx context.Context, plan core.FixPlan) (*core.FixResult, error) {
	return f.apply(ctx, plan)
}
