package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/code-fixer/internal/agents"
	"github.com/sevigo/code-fixer/internal/app"
	"github.com/sevigo/code-fixer/internal/config"
	"github.com/sevigo/code-fixer/internal/coordinator"
	"github.com/sevigo/code-fixer/internal/core"
	"github.com/sevigo/code-fixer/internal/gitutil"
	"github.com/sevigo/code-fixer/internal/registry"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := registry.New(logger)
	fixer := agents.NewFunc("black", 0.9, func(context.Context, core.FixPlan) (*core.FixResult, error) {
		return &core.FixResult{Success: true, Confidence: 0.95, AppliedFixes: []string{"reformatted"}}, nil
	})
	require.NoError(t, reg.Register(core.CategoryFormatting, fixer))

	cfg := &config.Config{
		BatchSize:           4,
		AcceptanceThreshold: 0.7,
		UseRetry:            true,
		AgentsFile:          config.DefaultAgentsFileName,
		Server:              config.ServerConfig{Port: "0", Root: t.TempDir(), RunTimeout: time.Minute},
	}
	ladders := core.DefaultLadders()
	coord := coordinator.New(reg, nil, coordinator.WithLadders(ladders), coordinator.WithLogger(logger))
	return app.NewApp(cfg, logger, reg, ladders, coord, gitutil.NewClient(logger), nil)
}

func TestRouter(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newTestApp(t), slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer srv.Close()

	t.Run("Health", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Run plans", func(t *testing.T) {
		body := `
plans:
  - file: a.py
    category: formatting
  - file: b.py
    category: security
`
		resp, err := http.Post(srv.URL+"/api/v1/runs", "application/yaml", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var report app.RunReport
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
		require.Len(t, report.Results, 2)
		assert.Equal(t, core.StateSucceeded, report.Results[0].State)
		assert.Equal(t, "black", report.Results[0].Agent)
		assert.Equal(t, core.StateUnroutable, report.Results[1].State)
		assert.Equal(t, 1, report.Summary.Unroutable)
	})

	t.Run("Agents", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/agents/formatting")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
