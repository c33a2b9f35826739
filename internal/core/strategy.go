package core

import (
	"fmt"
	"strings"
)

// Strategy names how aggressively an agent should repair an issue.
type Strategy string

const (
	StrategyMinimalEdit         Strategy = "minimal-edit"
	StrategyAddAnnotation       Strategy = "add-annotation"
	StrategyFunctionReplacement Strategy = "function-replacement"
	StrategySafeMerge           Strategy = "safe-merge"
	StrategyConservative        Strategy = "conservative"
)

var allStrategies = []Strategy{
	StrategyMinimalEdit,
	StrategyAddAnnotation,
	StrategyFunctionReplacement,
	StrategySafeMerge,
	StrategyConservative,
}

// ParseStrategy accepts the canonical name in any case, with "-" or "_" separators.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	for _, known := range allStrategies {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// ParseLadder parses an ordered list of strategy names.
func ParseLadder(names []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		st, err := ParseStrategy(n)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Ladders maps a category to its fallback ladder, least invasive first.
type Ladders map[Category][]Strategy

// DefaultLadders is the built-in policy. Annotation-shaped problems try an
// annotation before anything rewrites code; everything ends conservative.
func DefaultLadders() Ladders {
	return Ladders{
		CategoryFormatting:    {StrategyMinimalEdit, StrategyConservative},
		CategoryTypeError:     {StrategyAddAnnotation, StrategyMinimalEdit, StrategyFunctionReplacement, StrategyConservative},
		CategorySecurity:      {StrategyMinimalEdit, StrategySafeMerge, StrategyConservative},
		CategoryComplexity:    {StrategyFunctionReplacement, StrategyMinimalEdit, StrategyConservative},
		CategoryDeadCode:      {StrategyMinimalEdit, StrategyConservative},
		CategoryImportError:   {StrategyMinimalEdit, StrategySafeMerge, StrategyConservative},
		CategoryTestFailure:   {StrategyMinimalEdit, StrategyFunctionReplacement, StrategyConservative},
		CategoryDependency:    {StrategySafeMerge, StrategyConservative},
		CategoryDocumentation: {StrategyAddAnnotation, StrategyMinimalEdit},
		CategoryPerformance:   {StrategyMinimalEdit, StrategyFunctionReplacement, StrategyConservative},
	}
}

// For returns a copy of the ladder for c, or nil when none is configured.
func (l Ladders) For(c Category) []Strategy {
	ladder, ok := l[c]
	if !ok {
		return nil
	}
	return append([]Strategy(nil), ladder...)
}

// Merge overlays other on top of l and returns the result as a new map.
func (l Ladders) Merge(other Ladders) Ladders {
	out := make(Ladders, len(l)+len(other))
	for c, ladder := range l {
		out[c] = append([]Strategy(nil), ladder...)
	}
	for c, ladder := range other {
		out[c] = append([]Strategy(nil), ladder...)
	}
	return out
}
