package storage

import (
	"context"
	"errors"

	"github.com/sevigo/code-fixer/internal/coordinator"
)

// ErrHistoryDisabled is returned when reading history without a database.
var ErrHistoryDisabled = errors.New("run history is disabled; set FIXER_DB_HOST to enable it")

// NopStore drops writes and refuses reads.
type NopStore struct{}

func (NopStore) SaveRun(context.Context, *Run) (int64, error) { return 0, nil }

func (NopStore) ListRuns(context.Context, int) ([]RunSummary, error) {
	return nil, ErrHistoryDisabled
}

func (NopStore) AgentTotals(context.Context) ([]coordinator.AgentStats, error) {
	return nil, ErrHistoryDisabled
}
