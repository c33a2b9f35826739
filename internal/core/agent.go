package core

import (
	"context"
	"time"
)

//go:generate mockgen -destination=../../mocks/mock_agent.go -package=mocks . Agent

// Agent is the capability contract every repair agent implements.
type Agent interface {
	// Name identifies the agent in logs and statistics.
	Name() string
	// Probe reports how well the agent expects to handle the issue, in [0,1].
	Probe(issue Issue) float64
	// Apply attempts the plan once. Agents must only write inside
	// plan.FilePath and must return when ctx is done.
	Apply(ctx context.Context, plan FixPlan) (*FixResult, error)
}

// AttemptRecord is one entry of a retry session's history.
type AttemptRecord struct {
	Attempt    int           `json:"attempt"`
	Strategy   Strategy      `json:"strategy"`
	Success    bool          `json:"success"`
	Confidence float64       `json:"confidence"`
	Err        string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}
