// Package registry maps issue categories to the agents able to repair them.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/sevigo/code-fixer/internal/core"
)

var (
	ErrNilAgent     = errors.New("agent must not be nil")
	ErrInvalidAgent = errors.New("invalid agent")
)

// Entry is a registered agent together with the name it reported when it
// was registered. Later code reads Name rather than calling the agent again.
type Entry struct {
	Name  string
	Agent core.Agent
}

// Registry is built once at startup and passed by reference; there is no
// package-level instance.
type Registry struct {
	mu     sync.RWMutex
	agents map[core.Category][]Entry
	logger *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		agents: make(map[core.Category][]Entry),
		logger: logger,
	}
}

// Register adds agent as a candidate for category. Registration order is the
// tie-breaker in Resolve.
func (r *Registry) Register(category core.Category, agent core.Agent) error {
	if agent == nil {
		return ErrNilAgent
	}
	name, err := agentName(agent)
	if err != nil {
		return err
	}
	if !category.Valid() {
		return fmt.Errorf("cannot register %q: %w: %q", name, core.ErrUnknownCategory, category)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[category] = append(r.agents[category], Entry{Name: name, Agent: agent})
	r.logger.Debug("registered agent", "agent", name, "category", category)
	return nil
}

func agentName(agent core.Agent) (name string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: Name panicked: %v", ErrInvalidAgent, rec)
		}
	}()
	return agent.Name(), nil
}

// Resolve returns the highest-probing agent for the issue's category.
func (r *Registry) Resolve(issue core.Issue) (Entry, bool) {
	r.mu.RLock()
	candidates := append([]Entry(nil), r.agents[issue.Category]...)
	r.mu.RUnlock()

	var (
		best      Entry
		found     bool
		bestScore = -1.0
	)
	for _, e := range candidates {
		score := r.probe(e, issue)
		// Strictly greater keeps the earliest registration on ties.
		if score > bestScore {
			best, bestScore, found = e, score, true
		}
	}
	return best, found
}

// probe shields Resolve from a misbehaving agent; a panic scores zero.
func (r *Registry) probe(e Entry, issue core.Issue) (score float64) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("agent probe panicked", "agent", e.Name, "panic", rec)
			score = 0
		}
	}()
	return core.ClampConfidence(e.Agent.Probe(issue))
}

// Agents returns the agents registered for category, in registration order.
func (r *Registry) Agents(category core.Category) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.agents[category]...)
}

// Categories returns every category with at least one agent, sorted.
func (r *Registry) Categories() []core.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Category, 0, len(r.agents))
	for c, list := range r.agents {
		if len(list) > 0 {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len counts registrations, so one agent on two categories counts twice.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, list := range r.agents {
		n += len(list)
	}
	return n
}
