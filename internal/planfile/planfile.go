// Package planfile reads FixPlans written by the upstream analysis stage.
// Both YAML and JSON are accepted since JSON is valid YAML.
package planfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/code-fixer/internal/core"
)

var ErrInvalidPlan = errors.New("invalid fix plan")

type document struct {
	Plans []core.FixPlan `yaml:"plans"`
}

// Load reads plans from path. Relative target paths are resolved against
// root, or against the plan file's directory when root is empty.
func Load(path, root string) ([]core.FixPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	if root == "" {
		root = filepath.Dir(path)
	}
	return Parse(data, root)
}

// Parse decodes either {plans: [...]} or a bare list of plans.
func Parse(data []byte, root string) ([]core.FixPlan, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var plans []core.FixPlan
	if trimmed[0] == '[' || trimmed[0] == '-' {
		if err := yaml.Unmarshal(trimmed, &plans); err != nil {
			return nil, fmt.Errorf("failed to parse plan list: %w", err)
		}
	} else {
		var doc document
		if err := yaml.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse plan document: %w", err)
		}
		plans = doc.Plans
	}

	for i := range plans {
		if err := normalize(&plans[i], root); err != nil {
			return nil, fmt.Errorf("plan %d: %w", i, err)
		}
	}
	return plans, nil
}

func normalize(plan *core.FixPlan, root string) error {
	if plan.FilePath == "" && plan.Issue != nil {
		plan.FilePath = plan.Issue.FilePath
	}
	if plan.FilePath == "" {
		return fmt.Errorf("%w: missing file", ErrInvalidPlan)
	}
	if plan.Category == "" && plan.Issue != nil {
		plan.Category = plan.Issue.Category
	}

	category, err := core.ParseCategory(string(plan.Category))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	plan.Category = category

	if plan.Issue != nil {
		plan.Issue.Category = category
		if plan.Issue.Severity == "" {
			plan.Issue.Severity = core.SeverityMedium
		} else {
			plan.Issue.Severity = core.ParseSeverity(string(plan.Issue.Severity))
		}
	}

	if root != "" && !filepath.IsAbs(plan.FilePath) {
		plan.FilePath = filepath.Join(root, plan.FilePath)
	}
	if plan.Issue != nil {
		plan.Issue.FilePath = plan.FilePath
	}
	return nil
}
