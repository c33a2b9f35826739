package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sevigo/code-fixer/internal/core"
	"github.com/sevigo/code-fixer/internal/wire"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List registered agents per category and the strategy ladder each category uses",
	RunE: func(_ *cobra.Command, _ []string) error {
		appInstance, cleanup, err := wire.InitializeApp()
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		defer cleanup()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tAGENTS\tLADDER")
		for _, category := range core.Categories() {
			names := []string{}
			for _, agent := range appInstance.Registry.Agents(category) {
				names = append(names, agent.Name)
			}
			agentList := strings.Join(names, ", ")
			if agentList == "" {
				agentList = dimColor.Sprint("(none)")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", category, agentList, formatLadder(appInstance.Ladders.For(category)))
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(agentsCmd)
}

func formatLadder(ladder []core.Strategy) string {
	steps := make([]string, 0, len(ladder))
	for _, s := range ladder {
		steps = append(steps, string(s))
	}
	return strings.Join(steps, " → ")
}
