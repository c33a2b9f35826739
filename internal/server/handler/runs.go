// Package handler provides HTTP handlers for the fix engine.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sevigo/code-fixer/internal/app"
	"github.com/sevigo/code-fixer/internal/coordinator"
	"github.com/sevigo/code-fixer/internal/core"
	"github.com/sevigo/code-fixer/internal/filelock"
	"github.com/sevigo/code-fixer/internal/planfile"
)

var ErrOutsideRoot = errors.New("target path is outside the server root")

// MaxPlanBody caps the size of a submitted plan document.
const MaxPlanBody = 8 << 20

// Runner executes already parsed plans.
type Runner interface {
	Execute(ctx context.Context, plans []core.FixPlan, progress coordinator.ProgressFunc) *app.RunReport
}

// RunsHandler accepts plan documents and runs them synchronously.
type RunsHandler struct {
	runner Runner
	root   string
	logger *slog.Logger
}

// NewRunsHandler creates a handler that resolves relative target paths
// against root and refuses any target that lands outside it.
func NewRunsHandler(runner Runner, root string, logger *slog.Logger) *RunsHandler {
	if root == "" {
		root = "."
	}
	return &RunsHandler{runner: runner, root: root, logger: logger}
}

// Create parses the request body as a plan document (JSON or YAML) and
// responds with the run report.
func (h *RunsHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPlanBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "plan document too large")
			return
		}
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	plans, err := planfile.Parse(body, h.root)
	if err != nil {
		h.logger.Warn("rejected plan document", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(plans) == 0 {
		writeError(w, http.StatusBadRequest, "no plans submitted")
		return
	}
	if err := h.confine(plans); err != nil {
		h.logger.Warn("rejected plan document", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("fix run requested", "plans", len(plans))
	report := h.runner.Execute(r.Context(), plans, nil)
	writeJSON(w, http.StatusOK, report)
}

// confine checks every canonical target against the canonical root, so
// absolute paths, ../ segments and symlinked directories cannot escape it.
func (h *RunsHandler) confine(plans []core.FixPlan) error {
	root, err := filelock.Canonical(h.root)
	if err != nil {
		return fmt.Errorf("failed to resolve server root: %w", err)
	}
	for _, p := range plans {
		target, err := filelock.Canonical(p.FilePath)
		if err != nil {
			return fmt.Errorf("plan %s: %w", p.FilePath, err)
		}
		rel, err := filepath.Rel(root, target)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%w: %s", ErrOutsideRoot, p.FilePath)
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
