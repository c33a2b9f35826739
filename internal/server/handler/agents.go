package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/code-fixer/internal/core"
	"github.com/sevigo/code-fixer/internal/registry"
)

// CategoryView describes who handles a category and how they fall back.
type CategoryView struct {
	Category core.Category   `json:"category"`
	Agents   []string        `json:"agents"`
	Ladder   []core.Strategy `json:"ladder"`
}

// AgentsHandler reports the registry contents.
type AgentsHandler struct {
	registry *registry.Registry
	ladders  core.Ladders
}

func NewAgentsHandler(reg *registry.Registry, ladders core.Ladders) *AgentsHandler {
	return &AgentsHandler{registry: reg, ladders: ladders}
}

// List returns every known category, including those without agents.
func (h *AgentsHandler) List(w http.ResponseWriter, _ *http.Request) {
	views := make([]CategoryView, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		views = append(views, h.view(c))
	}
	writeJSON(w, http.StatusOK, views)
}

// Get returns one category.
func (h *AgentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, err := core.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.view(category))
}

func (h *AgentsHandler) view(c core.Category) CategoryView {
	names := []string{}
	for _, a := range h.registry.Agents(c) {
		names = append(names, a.Name)
	}
	return CategoryView{Category: c, Agents: names, Ladder: h.ladders.For(c)}
}
