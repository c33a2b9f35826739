package core

import "strconv"

// FixPlan is a bundle of proposed edits targeting one file to resolve one issue.
// Plans are produced upstream and consumed exactly once by the coordinator.
type FixPlan struct {
	FilePath string            `yaml:"file" json:"file"`
	Category Category          `yaml:"category" json:"category"`
	Changes  []string          `yaml:"changes,omitempty" json:"changes,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`

	// Issue is the originating issue when the upstream stage kept it.
	Issue *Issue `yaml:"issue,omitempty" json:"issue,omitempty"`

	// Strategy is set on the copy handed to an agent for a single attempt.
	// Empty means the agent should use its default approach.
	Strategy Strategy `yaml:"-" json:"strategy,omitempty"`
}

// ToIssue returns the attached issue, or one synthesised from the plan itself.
func (p FixPlan) ToIssue() Issue {
	if p.Issue != nil {
		issue := *p.Issue
		if issue.FilePath == "" {
			issue.FilePath = p.FilePath
		}
		if issue.Category == "" {
			issue.Category = p.Category
		}
		return issue
	}

	issue := Issue{
		Category: p.Category,
		FilePath: p.FilePath,
		Severity: ParseSeverity(p.Metadata["severity"]),
		Message:  p.Metadata["message"],
	}
	if line, err := strconv.Atoi(p.Metadata["line"]); err == nil && line > 0 {
		issue.Line = line
	}
	if issue.Message == "" && len(p.Changes) > 0 {
		issue.Message = p.Changes[0]
	}
	return issue
}

// WithStrategy returns a copy of the plan tagged for one attempt.
func (p FixPlan) WithStrategy(s Strategy) FixPlan {
	p.Strategy = s
	return p
}
