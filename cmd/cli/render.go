package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/sevigo/code-fixer/internal/app"
	"github.com/sevigo/code-fixer/internal/core"
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

func stateColor(s core.State) *color.Color {
	switch s {
	case core.StateSucceeded:
		return successColor
	case core.StatePartiallyAccepted:
		return warnColor
	default:
		return errorColor
	}
}

func printReport(w io.Writer, report *app.RunReport, verbose bool) {
	titleColor.Fprintf(w, "Fix results (%d plans, %s)\n\n", report.Summary.Total, report.Duration.Round(1e6))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFILE\tCATEGORY\tAGENT\tSTATE\tCONFIDENCE\tATTEMPTS")
	for _, r := range report.Results {
		agent := r.Agent
		if agent == "" {
			agent = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.2f\t%d\n",
			r.Index,
			r.Plan.FilePath,
			r.Plan.Category,
			agent,
			stateColor(r.State).Sprint(r.State),
			r.Result.Confidence,
			len(r.History),
		)
	}
	_ = tw.Flush()

	for _, r := range report.Results {
		if !verbose && r.State.Accepted() && len(r.Result.RemainingIssues) == 0 {
			continue
		}
		fmt.Fprintln(w)
		boldColor.Fprintf(w, "[%d] %s (%s)\n", r.Index, r.Plan.FilePath, r.Plan.Category)
		for _, a := range r.History {
			line := fmt.Sprintf("attempt %d %s: success=%t confidence=%.2f", a.Attempt, strategyLabel(a.Strategy), a.Success, a.Confidence)
			if a.Err != "" {
				line += " error=" + a.Err
			}
			dimColor.Fprintf(w, "   ├── %s\n", line)
		}
		for _, fix := range r.Result.AppliedFixes {
			successColor.Fprintf(w, "   ✓ %s\n", fix)
		}
		for _, issue := range r.Result.RemainingIssues {
			errorColor.Fprintf(w, "   ✗ %s\n", firstLine(issue))
		}
		for _, rec := range r.Result.Recommendations {
			warnColor.Fprintf(w, "   → %s\n", rec)
		}
	}

	fmt.Fprintln(w)
	titleColor.Fprintln(w, "Agents")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tEXECUTIONS\tSUCCESSES\tSUCCESS RATE")
	for _, s := range report.Stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.0f%%\n", s.Agent, s.Executions, s.Successes, s.SuccessRate*100)
	}
	_ = tw.Flush()

	sum := report.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		successColor.Sprintf("%d succeeded", sum.Succeeded),
		warnColor.Sprintf("%d partial", sum.PartiallyAccepted),
		errorColor.Sprintf("%d exhausted", sum.Exhausted),
		errorColor.Sprintf("%d errored", sum.Errored),
		errorColor.Sprintf("%d unroutable", sum.Unroutable),
	)
}

func strategyLabel(s core.Strategy) string {
	if s == "" {
		return "default"
	}
	return string(s)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
