// Package storage persists run history.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sevigo/code-fixer/internal/coordinator"
)

// Run is one finished execution as it is recorded.
type Run struct {
	StartedAt time.Time
	Duration  time.Duration
	Summary   coordinator.Summary
	Results   []coordinator.PlanResult
}

// RunSummary is one row of the run history.
type RunSummary struct {
	ID                int64     `db:"id" json:"id"`
	StartedAt         time.Time `db:"started_at" json:"started_at"`
	DurationMS        int64     `db:"duration_ms" json:"duration_ms"`
	Total             int       `db:"total" json:"total"`
	Succeeded         int       `db:"succeeded" json:"succeeded"`
	PartiallyAccepted int       `db:"partially_accepted" json:"partially_accepted"`
	Exhausted         int       `db:"exhausted" json:"exhausted"`
	Errored           int       `db:"errored" json:"errored"`
	Unroutable        int       `db:"unroutable" json:"unroutable"`
}

// Store defines the interface for all database operations.
type Store interface {
	SaveRun(ctx context.Context, run *Run) (int64, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	AgentTotals(ctx context.Context) ([]coordinator.AgentStats, error)
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a Store backed by db. A nil db yields a Store that
// records nothing.
func NewStore(db *sqlx.DB) Store {
	if db == nil {
		return NopStore{}
	}
	return &postgresStore{db: db}
}

// SaveRun writes the run and its per-plan rows in one transaction.
func (s *postgresStore) SaveRun(ctx context.Context, run *Run) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	sum := run.Summary
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO runs (started_at, duration_ms, total, succeeded, partially_accepted, exhausted, errored, unroutable)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		run.StartedAt, run.Duration.Milliseconds(), sum.Total, sum.Succeeded, sum.PartiallyAccepted, sum.Exhausted, sum.Errored, sum.Unroutable,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO plan_results (run_id, plan_index, file_path, category, agent, state, success, confidence, attempts, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare plan insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Results {
		var success bool
		var confidence float64
		if r.Result != nil {
			success, confidence = r.Result.Success, r.Result.Confidence
		}
		if _, err := stmt.ExecContext(ctx, id, r.Index, r.Plan.FilePath, string(r.Plan.Category), r.Agent, string(r.State),
			success, confidence, len(r.History), r.Duration.Milliseconds()); err != nil {
			return 0, fmt.Errorf("failed to insert plan %d: %w", r.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs first.
func (s *postgresStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []RunSummary
	err := s.db.SelectContext(ctx, &runs, `
		SELECT id, started_at, duration_ms, total, succeeded, partially_accepted, exhausted, errored, unroutable
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// AgentTotals aggregates every recorded plan per agent.
func (s *postgresStore) AgentTotals(ctx context.Context) ([]coordinator.AgentStats, error) {
	var rows []struct {
		Agent      string `db:"agent"`
		Executions int    `db:"executions"`
		Successes  int    `db:"successes"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT agent, COUNT(*) AS executions, COUNT(*) FILTER (WHERE success) AS successes
		FROM plan_results
		WHERE agent <> ''
		GROUP BY agent
		ORDER BY agent`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate agent stats: %w", err)
	}

	stats := make([]coordinator.AgentStats, 0, len(rows))
	for _, r := range rows {
		st := coordinator.AgentStats{Agent: r.Agent, Executions: r.Executions, Successes: r.Successes}
		if r.Executions > 0 {
			st.SuccessRate = float64(r.Successes) / float64(r.Executions)
		}
		stats = append(stats, st)
	}
	return stats, nil
}
