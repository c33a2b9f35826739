package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "fixer",
	Short: "fixer routes fix plans to repair agents and applies them safely.",
	Long: `fixer executes fix plans produced by an analysis stage. Each plan is routed to
the most capable registered agent, plans for the same file never run at the same
time, and agents fall back through a ladder of increasingly conservative
strategies until a fix succeeds or is accepted on confidence.`,
	SilenceUsage: true,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.PersistentFlags().String("agents-file", "", "Path to the agents file (default .fixer.yml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")

	bindFlag(rootCmd, "AGENTS_FILE", "agents-file")
	bindFlag(rootCmd, "LOG_LEVEL", "log-level")
	bindFlag(rootCmd, "LOG_FORMAT", "log-format")
}

// bindFlag ties a flag to a viper key; an unset flag leaves env and defaults in charge.
func bindFlag(cmd *cobra.Command, key, name string) {
	flag := cmd.PersistentFlags().Lookup(name)
	if flag == nil {
		flag = cmd.Flags().Lookup(name)
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		slog.Error("Error binding flag", "flag", name, "error", err)
		os.Exit(1)
	}
}
