package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Prabal0202/VittaManthan/internal/api/handlers"
	"github.com/Prabal0202/VittaManthan/internal/api/middleware"
)

// NewRouter creates the router with all routes configured.
func NewRouter(h *handlers.QueryHandler, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// RequestID runs before Logger so request logs carry the id.
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         3600,
	}))

	r.Post("/ingest", h.Ingest)
	r.Post("/prompt", h.Prompt)
	r.Post("/query", h.Query)
	r.Post("/query/stream", h.PromptStream)

	r.Get("/status", h.Status)
	r.Get("/status/users", h.UsersStatus)

	r.Delete("/data/{userID}", func(w http.ResponseWriter, req *http.Request) {
		h.DeleteData(w, req, chi.URLParam(req, "userID"))
	})

	r.Get("/history/{userID}", func(w http.ResponseWriter, req *http.Request) {
		h.History(w, req, chi.URLParam(req, "userID"))
	})
	r.Get("/history/{userID}/recent", func(w http.ResponseWriter, req *http.Request) {
		h.RecentQueries(w, req, chi.URLParam(req, "userID"))
	})
	r.Get("/history/{userID}/stats", func(w http.ResponseWriter, req *http.Request) {
		h.HistoryStats(w, req, chi.URLParam(req, "userID"))
	})
	r.Delete("/history/{userID}", func(w http.ResponseWriter, req *http.Request) {
		h.DeleteHistory(w, req, chi.URLParam(req, "userID"))
	})

	r.Get("/healthz", h.Health)

	return r
}
