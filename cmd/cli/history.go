package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sevigo/code-fixer/internal/storage"
	"github.com/sevigo/code-fixer/internal/wire"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs and lifetime agent success rates (requires FIXER_DB_HOST)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		appInstance, cleanup, err := wire.InitializeApp()
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		defer cleanup()

		return printHistory(cmd.Context(), appInstance.Store, historyLimit)
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func printHistory(ctx context.Context, store storage.Store, limit int) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	totals, err := store.AgentTotals(ctx)
	if err != nil {
		return err
	}

	titleColor.Println("Recent runs")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tPLANS\tSUCCEEDED\tPARTIAL\tUNRESOLVED")
	for _, r := range runs {
		unresolved := r.Exhausted + r.Errored + r.Unroutable
		fmt.Fprintf(w, "%d\t%s\t%dms\t%d\t%s\t%s\t%s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.DurationMS,
			r.Total,
			successColor.Sprint(r.Succeeded),
			warnColor.Sprint(r.PartiallyAccepted),
			errorColor.Sprint(unresolved),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(runs) == 0 {
		dimColor.Println("  no runs recorded yet")
	}

	fmt.Println()
	titleColor.Println("Agents (all recorded runs)")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tEXECUTIONS\tSUCCESSES\tSUCCESS RATE")
	for _, s := range totals {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.0f%%\n", s.Agent, s.Executions, s.Successes, s.SuccessRate*100)
	}
	return w.Flush()
}
