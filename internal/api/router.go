package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/ghmd/internal/catalog"
)

// NewRouter creates the /api sub-router. events, if non-nil, is mounted at
// GET /events.
func NewRouter(store catalog.Store, events http.Handler, logger *slog.Logger) chi.Router {
	h := NewHandler(store, logger)

	r := chi.NewRouter()
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/*", h.GetPost)
	r.Get("/search", h.Search)
	r.Get("/tags", h.Tags)
	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}
	return r
}

// NewServer builds the full dev server handler: health check, the /api
// routes and the built site from outputDir.
func NewServer(outputDir string, apiRouter http.Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Mount("/api", apiRouter)

	static := NoCache(http.FileServer(http.Dir(outputDir)))
	r.Method(http.MethodGet, "/*", static)
	r.Method(http.MethodHead, "/*", static)
	return r
}
