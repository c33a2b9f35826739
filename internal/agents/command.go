package agents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/sevigo/code-fixer/internal/core"
)

const (
	defaultProbeConfidence   = 0.5
	defaultSuccessConfidence = 1.0
	maxOutputInResult        = 2000
)

var ErrInvalidCommandSpec = errors.New("invalid command agent")

// CommandSpec describes an external tool exposed as an agent. Args and
// StrategyArgs are text/template strings rendered against the plan.
type CommandSpec struct {
	Name         string              `yaml:"name"`
	Categories   []string            `yaml:"categories"`
	Command      string              `yaml:"command"`
	Args         []string            `yaml:"args"`
	StrategyArgs map[string][]string `yaml:"strategy_args"`
	Extensions   []string            `yaml:"extensions"`
	Dir          string              `yaml:"dir"`
	Env          []string            `yaml:"env"`

	// Confidence is what Probe reports for issues the agent accepts.
	Confidence float64 `yaml:"confidence"`
	// SuccessConfidence is reported when the command exits 0.
	SuccessConfidence float64 `yaml:"success_confidence"`
	// FailureConfidence is reported when it exits non-zero. Setting it at or
	// above the acceptance threshold makes a failing tool count as partial.
	FailureConfidence float64 `yaml:"failure_confidence"`
}

// Command runs an external tool once per attempt.
type Command struct {
	spec         CommandSpec
	args         []*template.Template
	strategyArgs map[core.Strategy][]*template.Template
	extensions   map[string]struct{}
}

// argData is what argument templates can reference.
type argData struct {
	File     string
	Category core.Category
	Strategy core.Strategy
	Message  string
	Line     int
	Changes  []string
	Metadata map[string]string
}

// NewCommand validates spec and pre-parses its argument templates.
func NewCommand(spec CommandSpec) (*Command, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidCommandSpec)
	}
	if spec.Command == "" {
		return nil, fmt.Errorf("%w: %s has no command", ErrInvalidCommandSpec, spec.Name)
	}
	if spec.Confidence == 0 {
		spec.Confidence = defaultProbeConfidence
	}
	if spec.SuccessConfidence == 0 {
		spec.SuccessConfidence = defaultSuccessConfidence
	}

	c := &Command{
		spec:         spec,
		strategyArgs: make(map[core.Strategy][]*template.Template, len(spec.StrategyArgs)),
		extensions:   make(map[string]struct{}, len(spec.Extensions)),
	}

	var err error
	if c.args, err = parseArgs(spec.Name, spec.Args); err != nil {
		return nil, err
	}
	for name, args := range spec.StrategyArgs {
		strategy, err := core.ParseStrategy(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCommandSpec, spec.Name, err)
		}
		if c.strategyArgs[strategy], err = parseArgs(spec.Name, args); err != nil {
			return nil, err
		}
	}
	for _, ext := range spec.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.extensions[ext] = struct{}{}
	}
	return c, nil
}

func parseArgs(name string, args []string) ([]*template.Template, error) {
	out := make([]*template.Template, 0, len(args))
	for i, arg := range args {
		tmpl, err := template.New(fmt.Sprintf("%s-arg-%d", name, i)).Option("missingkey=zero").Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: argument %q: %w", ErrInvalidCommandSpec, name, arg, err)
		}
		out = append(out, tmpl)
	}
	return out, nil
}

// Categories returns the parsed categories the agent registers for.
func (c *Command) Categories() ([]core.Category, error) {
	out := make([]core.Category, 0, len(c.spec.Categories))
	for _, name := range c.spec.Categories {
		cat, err := core.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCommandSpec, c.spec.Name, err)
		}
		out = append(out, cat)
	}
	return out, nil
}

func (c *Command) Name() string { return c.spec.Name }

// Probe rejects files outside the configured extensions.
func (c *Command) Probe(issue core.Issue) float64 {
	if len(c.extensions) > 0 {
		if _, ok := c.extensions[strings.ToLower(filepath.Ext(issue.FilePath))]; !ok {
			return 0
		}
	}
	return c.spec.Confidence
}

// Apply runs the command for the plan's strategy. A strategy the tool has no
// arguments for is a quick failed attempt, so the ladder moves on.
func (c *Command) Apply(ctx context.Context, plan core.FixPlan) (*core.FixResult, error) {
	templates := c.args
	if plan.Strategy != "" && len(c.strategyArgs) > 0 {
		st, ok := c.strategyArgs[plan.Strategy]
		if !ok {
			return &core.FixResult{
				RemainingIssues: []string{fmt.Sprintf("%s has no %s mode", c.spec.Name, plan.Strategy)},
			}, nil
		}
		templates = st
	}

	args, err := c.render(templates, plan)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, c.spec.Command, args...)
	cmd.Dir = c.spec.Dir
	if len(c.spec.Env) > 0 {
		cmd.Env = append(os.Environ(), c.spec.Env...)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	invocation := strings.TrimSpace(c.spec.Command + " " + strings.Join(args, " "))
	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s interrupted: %w", c.spec.Name, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		return &core.FixResult{
			Success:       true,
			Confidence:    c.spec.SuccessConfidence,
			AppliedFixes:  []string{invocation},
			ModifiedFiles: []string{plan.FilePath},
		}, nil
	case errors.As(runErr, &exitErr):
		remaining := []string{plan.ToIssue().String()}
		if detail := truncate(strings.TrimSpace(out.String()), maxOutputInResult); detail != "" {
			remaining = append(remaining, detail)
		}
		return &core.FixResult{
			Confidence:      c.spec.FailureConfidence,
			RemainingIssues: remaining,
			Recommendations: []string{fmt.Sprintf("%s exited with code %d", invocation, exitErr.ExitCode())},
		}, nil
	default:
		return nil, fmt.Errorf("failed to run %s: %w", c.spec.Name, runErr)
	}
}

func (c *Command) render(templates []*template.Template, plan core.FixPlan) ([]string, error) {
	issue := plan.ToIssue()
	data := argData{
		File:     plan.FilePath,
		Category: plan.Category,
		Strategy: plan.Strategy,
		Message:  issue.Message,
		Line:     issue.Line,
		Changes:  plan.Changes,
		Metadata: plan.Metadata,
	}

	args := make([]string, 0, len(templates))
	var buf bytes.Buffer
	for _, tmpl := range templates {
		buf.Reset()
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
		}
		args = append(args, buf.String())
	}
	return args, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
