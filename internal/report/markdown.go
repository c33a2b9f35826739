// Package report turns a finished run into a Markdown document, for files and
// for styled terminal output.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/sevigo/code-fixer/internal/app"
	"github.com/sevigo/code-fixer/internal/coordinator"
	"github.com/sevigo/code-fixer/internal/core"
)

// Markdown renders the report as GitHub-flavored Markdown.
func Markdown(r *app.RunReport) string {
	var b strings.Builder
	sum := r.Summary

	b.WriteString("# Fix run\n\n")
	fmt.Fprintf(&b, "%d plan(s) in %s: **%d succeeded**, %d partially accepted, %d exhausted, %d errored, %d unroutable.\n\n",
		sum.Total, r.Duration.Round(1e6), sum.Succeeded, sum.PartiallyAccepted, sum.Exhausted, sum.Errored, sum.Unroutable)

	if len(r.Results) > 0 {
		b.WriteString("## Plans\n\n")
		b.WriteString("| # | File | Category | Agent | State | Confidence | Attempts |\n")
		b.WriteString("|---|------|----------|-------|-------|------------|----------|\n")
		for _, pr := range r.Results {
			fmt.Fprintf(&b, "| %d | `%s` | %s | %s | %s | %.2f | %d |\n",
				pr.Index, pr.Plan.FilePath, pr.Plan.Category, orDash(pr.Agent), pr.State, confidence(pr), len(pr.History))
		}
		b.WriteString("\n")
	}

	var open []coordinator.PlanResult
	for _, pr := range r.Results {
		if !pr.State.Accepted() || (pr.Result != nil && len(pr.Result.RemainingIssues) > 0) {
			open = append(open, pr)
		}
	}
	if len(open) > 0 {
		b.WriteString("## Needs attention\n\n")
		for _, pr := range open {
			fmt.Fprintf(&b, "### %d. `%s` (%s)\n\n", pr.Index, pr.Plan.FilePath, pr.State)
			for _, a := range pr.History {
				fmt.Fprintf(&b, "- attempt %d, %s: confidence %.2f", a.Attempt, strategyName(a.Strategy), a.Confidence)
				if a.Err != "" {
					fmt.Fprintf(&b, ", error: %s", a.Err)
				}
				b.WriteString("\n")
			}
			if pr.Result != nil {
				for _, issue := range pr.Result.RemainingIssues {
					fmt.Fprintf(&b, "- remaining: %s\n", oneLine(issue))
				}
				for _, rec := range pr.Result.Recommendations {
					fmt.Fprintf(&b, "- **%s**\n", rec)
				}
			}
			b.WriteString("\n")
		}
	}

	if len(r.Stats) > 0 {
		b.WriteString("## Agents\n\n")
		b.WriteString("| Agent | Executions | Successes | Success rate |\n")
		b.WriteString("|-------|------------|-----------|--------------|\n")
		for _, s := range r.Stats {
			fmt.Fprintf(&b, "| %s | %d | %d | %.0f%% |\n", s.Agent, s.Executions, s.Successes, s.SuccessRate*100)
		}
	}
	return b.String()
}

// Render styles Markdown for a terminal of the given width.
func Render(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

func confidence(pr coordinator.PlanResult) float64 {
	if pr.Result == nil {
		return 0
	}
	return pr.Result.Confidence
}

func strategyName(s core.Strategy) string {
	if s == "" {
		return "default strategy"
	}
	return string(s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
