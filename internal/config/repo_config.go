package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/code-fixer/internal/agents"
	"github.com/sevigo/code-fixer/internal/core"
)

// DefaultAgentsFileName is looked up in the working directory when nothing else is configured.
const DefaultAgentsFileName = ".fixer.yml"

var (
	ErrAgentsFileNotFound = errors.New("agents file not found")
	ErrAgentsFileParsing  = errors.New("agents file parsing failed")
)

// AgentsFile is the structure of the .fixer.yml file.
type AgentsFile struct {
	// Ladders overrides the built-in strategy ladder per category.
	// Example: {type_error: [add-annotation, minimal-edit, conservative]}
	Ladders map[string][]string `yaml:"ladders"`

	// Agents are external tools registered as command agents.
	Agents []agents.CommandSpec `yaml:"agents"`
}

// DefaultAgentsFile returns an empty file: built-in ladders, no agents.
func DefaultAgentsFile() *AgentsFile {
	return &AgentsFile{
		Ladders: map[string][]string{},
		Agents:  []agents.CommandSpec{},
	}
}

// LoadAgentsFile loads and parses an agents file. A missing file returns the
// defaults together with ErrAgentsFileNotFound so callers can decide whether
// that matters.
func LoadAgentsFile(path string) (*AgentsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultAgentsFile(), ErrAgentsFileNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	file := DefaultAgentsFile()
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAgentsFileParsing, err)
	}
	return file, nil
}

// StrategyLadders merges the file's ladders over core.DefaultLadders.
func (f *AgentsFile) StrategyLadders() (core.Ladders, error) {
	overrides := make(core.Ladders, len(f.Ladders))
	for name, steps := range f.Ladders {
		category, err := core.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("%w: ladders: %w", ErrAgentsFileParsing, err)
		}
		ladder, err := core.ParseLadder(steps)
		if err != nil {
			return nil, fmt.Errorf("%w: ladders.%s: %w", ErrAgentsFileParsing, name, err)
		}
		overrides[category] = ladder
	}
	return core.DefaultLadders().Merge(overrides), nil
}
