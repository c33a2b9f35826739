package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/code-fixer/internal/app"
	"github.com/sevigo/code-fixer/internal/server/handler"
)

// NewRouter creates and configures a new HTTP router with middleware and API routes.
func NewRouter(a *app.App, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		runs := handler.NewRunsHandler(a, a.Config.Server.Root, logger)
		catalog := handler.NewAgentsHandler(a.Registry, a.Ladders)

		r.Get("/agents", catalog.List)
		r.Get("/agents/{category}", catalog.Get)
		post := r.With()
		if timeout := a.Config.Server.RunTimeout; timeout > 0 {
			post = r.With(middleware.Timeout(timeout))
		}
		post.Post("/runs", runs.Create)
	})

	return r
}
