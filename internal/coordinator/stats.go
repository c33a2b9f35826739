package coordinator

import (
	"sort"
	"sync"

	"github.com/sevigo/code-fixer/internal/core"
)

// AgentStats aggregates how one agent fared across a run. Executions count
// plans, not individual retry attempts.
type AgentStats struct {
	Agent       string  `json:"agent"`
	Executions  int     `json:"executions"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"success_rate"`
}

type statsTable struct {
	mu     sync.Mutex
	counts map[string]*AgentStats
}

func newStatsTable() *statsTable {
	return &statsTable{counts: make(map[string]*AgentStats)}
}

func (s *statsTable) record(agent string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.counts[agent]
	if !ok {
		st = &AgentStats{Agent: agent}
		s.counts[agent] = st
	}
	st.Executions++
	if success {
		st.Successes++
	}
	st.SuccessRate = float64(st.Successes) / float64(st.Executions)
}

func (s *statsTable) snapshot() []AgentStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]AgentStats, 0, len(s.counts))
	for _, st := range s.counts {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}

// StatsFor builds per-agent statistics from one result set only. Plans that
// never reached an agent are not counted.
func StatsFor(results []PlanResult) []AgentStats {
	table := newStatsTable()
	for _, r := range results {
		if r.Agent == "" || r.Result == nil {
			continue
		}
		table.record(r.Agent, r.Result.Success)
	}
	return table.snapshot()
}

// Summary counts results per terminal state.
type Summary struct {
	Total             int `json:"total"`
	Succeeded         int `json:"succeeded"`
	PartiallyAccepted int `json:"partially_accepted"`
	Exhausted         int `json:"exhausted"`
	Errored           int `json:"errored"`
	Unroutable        int `json:"unroutable"`
}

// Summarize tallies a result set.
func Summarize(results []PlanResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.State {
		case core.StateSucceeded:
			s.Succeeded++
		case core.StatePartiallyAccepted:
			s.PartiallyAccepted++
		case core.StateExhausted:
			s.Exhausted++
		case core.StateErrored:
			s.Errored++
		case core.StateUnroutable:
			s.Unroutable++
		}
	}
	return s
}
