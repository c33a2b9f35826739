package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sevigo/code-fixer/internal/app"
	fixreport "github.com/sevigo/code-fixer/internal/report"
	"github.com/sevigo/code-fixer/internal/wire"
)

var (
	runRoot         string
	runJSON         bool
	runRequireClean bool
	runVerbose      bool
	runMarkdown     bool
	runReportFile   string
)

var runCmd = &cobra.Command{
	Use:   "run [plan-file]",
	Short: "Execute every fix plan in a plan file",
	Long: `Execute every fix plan in a YAML or JSON plan file.

Relative target paths are resolved against --root, or against the plan file's
directory when --root is not given. The command exits non-zero when any plan
ends unresolved.

Examples:
  fixer run plans.yml
  fixer run --batch-size 4 --threshold 0.8 plans.json
  fixer run --require-clean --json plans.yml
  fixer run --markdown --report fixes.md plans.yml`,
	Args: cobra.ExactArgs(1),
	RunE: runPlans,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	runCmd.Flags().StringVar(&runRoot, "root", "", "Directory relative target paths are resolved against")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print results as JSON")
	runCmd.Flags().BoolVar(&runRequireClean, "require-clean", false, "Refuse to run when a target file has uncommitted git changes")
	runCmd.Flags().BoolVar(&runMarkdown, "markdown", false, "Print a styled Markdown report instead of tables")
	runCmd.Flags().StringVar(&runReportFile, "report", "", "Also write the Markdown report to this file")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Show every attempt of every plan")
	runCmd.Flags().Int("batch-size", 0, "Plans processed concurrently per batch (default 10)")
	runCmd.Flags().Float64("threshold", 0, "Confidence at which a partial fix is accepted (default 0.7)")
	runCmd.Flags().Duration("attempt-timeout", 0, "Time limit for a single agent attempt (0 disables)")
	runCmd.Flags().Bool("retry", true, "Walk the strategy ladder instead of a single attempt")

	bindFlag(runCmd, "BATCH_SIZE", "batch-size")
	bindFlag(runCmd, "ACCEPTANCE_THRESHOLD", "threshold")
	bindFlag(runCmd, "ATTEMPT_TIMEOUT", "attempt-timeout")
	bindFlag(runCmd, "USE_RETRY", "retry")
	rootCmd.AddCommand(runCmd)
}

func runPlans(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appInstance, cleanup, err := wire.InitializeApp()
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()

	report, err := appInstance.Run(ctx, app.RunOptions{
		PlanFile:     args[0],
		Root:         runRoot,
		RequireClean: runRequireClean,
	})
	if err != nil {
		return err
	}

	if runReportFile != "" {
		if err := os.WriteFile(runReportFile, []byte(fixreport.Markdown(report)), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	switch {
	case runJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return err
		}
	case runMarkdown:
		out, err := fixreport.Render(fixreport.Markdown(report), 0)
		if err != nil {
			return err
		}
		fmt.Print(out)
	default:
		printReport(os.Stdout, report, runVerbose)
	}

	if unresolved := report.Summary.Exhausted + report.Summary.Errored + report.Summary.Unroutable; unresolved > 0 {
		return fmt.Errorf("%d of %d plan(s) unresolved", unresolved, report.Summary.Total)
	}
	return ctxErr(ctx)
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	return nil
}
