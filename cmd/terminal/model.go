package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sevigo/code-fixer/internal/app"
	"github.com/sevigo/code-fixer/internal/coordinator"
	"github.com/sevigo/code-fixer/internal/core"
)

type model struct {
	styles styles
	opts   app.RunOptions

	app     *app.App
	cleanup func()
	cancel  context.CancelFunc
	done    chan coordinator.PlanResult

	viewport viewport.Model
	spinner  spinner.Model
	progress progress.Model

	total    int
	finished int
	lines    []string
	report   *app.RunReport
	err      error
}

func initialModel(theme ThemeName, opts app.RunOptions) *model {
	st := GetTheme(theme)

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = st.accent

	return &model{
		styles:   st,
		opts:     opts,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
		lines:    []string{st.inactive.Render("loading agents and plans...")},
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(initializeAppCmd(), m.spinner.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var vpCmd, spCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	m.spinner, spCmd = m.spinner.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.shutdown()
			return m, tea.Quit
		}

	case appInitializedMsg:
		if msg.err != nil {
			m.fail(fmt.Errorf("failed to initialize app: %w", msg.err))
			return m, nil
		}
		m.app = msg.app
		m.cleanup = msg.cleanup
		return m, loadPlansCmd(m.app, m.opts)

	case plansLoadedMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.total = len(msg.plans)
		m.lines = []string{m.styles.accent.Render(fmt.Sprintf("→ executing %d plan(s) from %s", m.total, m.opts.PlanFile))}
		m.refresh()

		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.done = make(chan coordinator.PlanResult, len(msg.plans))
		return m, tea.Batch(executeCmd(ctx, m.app, msg.plans, m.done), waitForPlanCmd(m.done))

	case planDoneMsg:
		m.finished++
		m.lines = append(m.lines, m.formatResult(coordinator.PlanResult(msg)))
		m.refresh()
		return m, tea.Batch(waitForPlanCmd(m.done), vpCmd, spCmd)

	case runFinishedMsg:
		m.report = msg.report
		m.finished = len(msg.report.Results)
		m.lines = append(m.lines, "", m.formatSummary(msg.report))
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 10
		m.progress.Width = min(msg.Width-8, 80)
		m.refresh()
	}

	return m, tea.Batch(vpCmd, spCmd)
}

func (m *model) View() string {
	header := m.styles.header.Render("CODE FIXER")

	var status string
	switch {
	case m.err != nil:
		status = m.styles.error.Render("✗ " + m.err.Error())
	case m.report != nil:
		status = m.styles.success.Render(fmt.Sprintf("✓ done in %s", m.report.Duration.Round(1e6))) +
			m.styles.inactive.Render("  (q to quit)")
	default:
		status = m.spinner.View() + " " + m.styles.accent.Render(fmt.Sprintf("%d/%d plans", m.finished, m.total))
	}

	var settings string
	if m.app != nil && m.app.Config != nil {
		cfg := m.app.Config
		settings = m.styles.inactive.Render(fmt.Sprintf("batch %d │ threshold %.2f │ retry %t │ agents %d",
			cfg.BatchSize, cfg.AcceptanceThreshold, cfg.UseRetry, m.app.Registry.Len()))
	}

	return m.styles.app.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			m.styles.viewport.Render(m.viewport.View()),
			m.styles.footer.Render(
				lipgloss.JoinVertical(lipgloss.Left,
					m.progress.ViewAs(m.percent()),
					status,
				),
			),
			settings,
		),
	)
}

func (m *model) percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.finished) / float64(m.total)
}

func (m *model) formatResult(r coordinator.PlanResult) string {
	state := string(r.State)
	switch r.State {
	case core.StateSucceeded:
		state = m.styles.success.Render("✓ " + state)
	case core.StatePartiallyAccepted:
		state = m.styles.warning.Render("~ " + state)
	default:
		state = m.styles.error.Render("✗ " + state)
	}

	agent := r.Agent
	if agent == "" {
		agent = "-"
	}
	line := fmt.Sprintf("%s  %s %s", state, r.Plan.FilePath, m.styles.inactive.Render(fmt.Sprintf("[%s via %s, %d attempt(s), %.2f]",
		r.Plan.Category, agent, len(r.History), r.Result.Confidence)))
	if !r.State.Accepted() && len(r.Result.RemainingIssues) > 0 {
		line += "\n    " + m.styles.inactive.Render(firstLine(r.Result.RemainingIssues[0]))
	}
	return line
}

func (m *model) formatSummary(report *app.RunReport) string {
	sum := report.Summary
	parts := []string{
		m.styles.success.Render(fmt.Sprintf("%d succeeded", sum.Succeeded)),
		m.styles.warning.Render(fmt.Sprintf("%d partial", sum.PartiallyAccepted)),
		m.styles.error.Render(fmt.Sprintf("%d exhausted", sum.Exhausted)),
		m.styles.error.Render(fmt.Sprintf("%d errored", sum.Errored)),
		m.styles.error.Render(fmt.Sprintf("%d unroutable", sum.Unroutable)),
	}
	lines := []string{strings.Join(parts, " │ ")}
	for _, s := range report.Stats {
		lines = append(lines, m.styles.inactive.Render(fmt.Sprintf("  %s: %d/%d (%.0f%%)", s.Agent, s.Successes, s.Executions, s.SuccessRate*100)))
	}
	return strings.Join(lines, "\n")
}

func (m *model) fail(err error) {
	m.err = err
	m.lines = append(m.lines, "", m.styles.error.Render("⚠ "+err.Error()))
	m.refresh()
}

func (m *model) refresh() {
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *model) shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.cleanup != nil {
		m.cleanup()
		m.cleanup = nil
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
