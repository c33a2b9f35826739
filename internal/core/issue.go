// Package core defines the essential interfaces and data structures that form the
// backbone of the fix engine. Everything here is plain data plus the Agent
// contract, so the registry, lock table, retry manager and coordinator can all
// depend on it without depending on each other.
package core

import (
	"fmt"
	"strings"
)

// Category is the closed set of issue kinds an agent can claim.
type Category string

const (
	CategoryFormatting    Category = "formatting"
	CategoryTypeError     Category = "type_error"
	CategorySecurity      Category = "security"
	CategoryComplexity    Category = "complexity"
	CategoryDeadCode      Category = "dead_code"
	CategoryImportError   Category = "import_error"
	CategoryTestFailure   Category = "test_failure"
	CategoryDependency    Category = "dependency"
	CategoryDocumentation Category = "documentation"
	CategoryPerformance   Category = "performance"
)

var allCategories = []Category{
	CategoryFormatting,
	CategoryTypeError,
	CategorySecurity,
	CategoryComplexity,
	CategoryDeadCode,
	CategoryImportError,
	CategoryTestFailure,
	CategoryDependency,
	CategoryDocumentation,
	CategoryPerformance,
}

// Categories returns every known category in declaration order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts the canonical name in any case, with "-" or "_" separators.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Severity grades how urgent an issue is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity falls back to medium for anything unrecognised.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityLow:
		return SeverityLow
	case SeverityHigh:
		return SeverityHigh
	case SeverityCritical:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// Issue is a single detected problem. It is treated as immutable once created.
type Issue struct {
	Category Category `yaml:"category" json:"category"`
	Message  string   `yaml:"message" json:"message"`
	Severity Severity `yaml:"severity" json:"severity"`
	FilePath string   `yaml:"file" json:"file"`
	Line     int      `yaml:"line,omitempty" json:"line,omitempty"` // 0 when unknown
	Details  []string `yaml:"details,omitempty" json:"details,omitempty"`
}

// String renders the issue the way it shows up in logs and remaining-issue lists.
func (i Issue) String() string {
	loc := i.FilePath
	if i.Line > 0 {
		loc = fmt.Sprintf("%s:%d", i.FilePath, i.Line)
	}
	if i.Message == "" {
		return fmt.Sprintf("%s [%s]", loc, i.Category)
	}
	return fmt.Sprintf("%s [%s] %s", loc, i.Category, i.Message)
}
