package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sevigo/code-fixer/internal/app"
)

func main() {
	themeFlag := flag.String("theme", "", "UI theme (cyan, matrix, amber, dracula)")
	listThemes := flag.Bool("list-themes", false, "List all available themes")
	root := flag.String("root", "", "Directory relative target paths are resolved against")
	requireClean := flag.Bool("require-clean", false, "Refuse to run when a target file has uncommitted git changes")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <plan-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *listThemes {
		fmt.Println("Available themes:")
		for _, theme := range ListThemes() {
			fmt.Printf("  - %s\n", theme)
		}
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	selectedTheme := *themeFlag
	if selectedTheme == "" {
		selectedTheme = os.Getenv("FIXER_THEME")
	}
	if selectedTheme == "" {
		selectedTheme = string(ThemeCyan)
	}
	theme := ThemeName(selectedTheme)
	if _, ok := palettes[theme]; !ok {
		fmt.Printf("Invalid theme '%s'. Use --list-themes to see available options.\n", theme)
		os.Exit(1)
	}

	// Log lines would tear the alternate screen.
	if os.Getenv("FIXER_LOG_OUTPUT") == "" {
		_ = os.Setenv("FIXER_LOG_OUTPUT", "file")
	}

	m := initialModel(theme, app.RunOptions{
		PlanFile:     flag.Arg(0),
		Root:         *root,
		RequireClean: *requireClean,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("error running program", "error", err)
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
	m.shutdown()

	if m.err != nil {
		fmt.Fprintln(os.Stderr, m.err)
		os.Exit(1)
	}
	if m.report != nil {
		sum := m.report.Summary
		fmt.Printf("%d plan(s): %d succeeded, %d partial, %d exhausted, %d errored, %d unroutable\n",
			sum.Total, sum.Succeeded, sum.PartiallyAccepted, sum.Exhausted, sum.Errored, sum.Unroutable)
	}
}
