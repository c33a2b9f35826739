package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/code-fixer/internal/agents"
	"github.com/sevigo/code-fixer/internal/config"
	"github.com/sevigo/code-fixer/internal/coordinator"
	"github.com/sevigo/code-fixer/internal/core"
	"github.com/sevigo/code-fixer/internal/gitutil"
	"github.com/sevigo/code-fixer/internal/registry"
	"github.com/sevigo/code-fixer/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingStore struct {
	storage.NopStore
	runs []*storage.Run
}

func (s *recordingStore) SaveRun(_ context.Context, run *storage.Run) (int64, error) {
	s.runs = append(s.runs, run)
	return int64(len(s.runs)), nil
}

func TestNewRegistryFromAgentsFile(t *testing.T) {
	file := &config.AgentsFile{Agents: []agents.CommandSpec{
		{Name: "ruff", Command: "ruff", Categories: []string{"formatting", "dead_code"}, Confidence: 0.8},
		{Name: "bandit", Command: "bandit", Categories: []string{"security"}},
	}}

	reg, err := NewRegistry(file, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())

	entry, ok := reg.Resolve(core.Issue{Category: core.CategorySecurity, FilePath: "a.py"})
	require.True(t, ok)
	assert.Equal(t, "bandit", entry.Name)

	_, err = NewRegistry(&config.AgentsFile{Agents: []agents.CommandSpec{{Name: "x", Command: "x", Categories: []string{"astrology"}}}}, quietLogger())
	assert.ErrorIs(t, err, core.ErrUnknownCategory)
}

func TestRunEndToEnd(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available on this platform")
	}
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plans.yml")
	require.NoError(t, os.WriteFile(planPath, []byte(`
plans:
  - file: a.py
    category: formatting
  - file: a.py
    category: security
  - file: b.py
    category: complexity
`), 0o600))

	file := &config.AgentsFile{Agents: []agents.CommandSpec{
		{Name: "append", Command: "sh", Args: []string{"-c", `echo fixed >> "$1"`, "_", "{{.File}}"}, Categories: []string{"formatting", "security"}},
	}}
	reg, err := NewRegistry(file, quietLogger())
	require.NoError(t, err)
	ladders, err := file.StrategyLadders()
	require.NoError(t, err)

	cfg := &config.Config{BatchSize: 10, AcceptanceThreshold: 0.7, UseRetry: true, AgentsFile: "unused"}
	store := &recordingStore{}
	a := NewApp(cfg, quietLogger(), reg, ladders, NewCoordinator(cfg, reg, ladders, quietLogger()), gitutil.NewClient(quietLogger()), store)

	report, err := a.Run(context.Background(), RunOptions{PlanFile: planPath})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Equal(t, 2, report.Summary.Succeeded)
	assert.Equal(t, 1, report.Summary.Unroutable)

	data, err := os.ReadFile(filepath.Join(dir, "a.py"))
	require.NoError(t, err)
	assert.Equal(t, "fixed\nfixed\n", string(data))
	require.Len(t, report.Stats, 1)
	assert.Equal(t, 2, report.Stats[0].Executions)

	require.Len(t, store.runs, 1)
	assert.Equal(t, int64(1), report.RunID)
	assert.Equal(t, report.Summary, store.runs[0].Summary)
	assert.Len(t, store.runs[0].Results, 3)
}

func TestExecuteReportsOnlyItsOwnStats(t *testing.T) {
	reg := registry.New(quietLogger())
	fixer := agents.NewFunc("fixer", 0.9, func(context.Context, core.FixPlan) (*core.FixResult, error) {
		return &core.FixResult{Success: true, Confidence: 1}, nil
	})
	require.NoError(t, reg.Register(core.CategoryFormatting, fixer))

	cfg := &config.Config{BatchSize: 10, AcceptanceThreshold: 0.7, AgentsFile: "unused"}
	store := &recordingStore{}
	a := NewApp(cfg, quietLogger(), reg, core.Ladders{}, NewCoordinator(cfg, reg, core.Ladders{}, quietLogger()), gitutil.NewClient(quietLogger()), store)

	dir := t.TempDir()
	first := a.Execute(context.Background(), []core.FixPlan{
		{FilePath: filepath.Join(dir, "a.py"), Category: core.CategoryFormatting},
		{FilePath: filepath.Join(dir, "b.py"), Category: core.CategoryFormatting},
		{FilePath: filepath.Join(dir, "c.py"), Category: core.CategoryFormatting},
	}, nil)
	second := a.Execute(context.Background(), []core.FixPlan{
		{FilePath: filepath.Join(dir, "a.py"), Category: core.CategoryFormatting},
	}, nil)

	assert.Equal(t, []coordinator.AgentStats{{Agent: "fixer", Executions: 3, Successes: 3, SuccessRate: 1}}, first.Stats)
	assert.Equal(t, []coordinator.AgentStats{{Agent: "fixer", Executions: 1, Successes: 1, SuccessRate: 1}}, second.Stats)
	assert.Equal(t, []coordinator.AgentStats{{Agent: "fixer", Executions: 4, Successes: 4, SuccessRate: 1}}, a.Coordinator.Stats())
	assert.Len(t, store.runs, 2)
}

func TestRunRequireCleanRefusesOutsideRepo(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plans.yml")
	require.NoError(t, os.WriteFile(planPath, []byte("- file: a.py\n  category: formatting\n"), 0o600))

	reg, err := NewRegistry(config.DefaultAgentsFile(), quietLogger())
	require.NoError(t, err)
	cfg := &config.Config{BatchSize: 10, AcceptanceThreshold: 0.7, AgentsFile: "unused"}
	a := NewApp(cfg, quietLogger(), reg, core.DefaultLadders(), NewCoordinator(cfg, reg, core.DefaultLadders(), quietLogger()), gitutil.NewClient(quietLogger()), nil)

	_, err = a.Run(context.Background(), RunOptions{PlanFile: planPath, RequireClean: true})
	assert.ErrorIs(t, err, gitutil.ErrDirtyTarget)
}
