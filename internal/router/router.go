package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vidrag-backend/internal/handlers"
	"vidrag-backend/internal/middleware"
)

func New(
	videoHandler *handlers.VideoHandler,
	chatHandler *handlers.ChatHandler,
	adminHandler *handlers.AdminHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Ingestion rate limiter (10 req/min per IP)
	ingestLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Video Routes ────
		r.Route("/videos", func(r chi.Router) {
			r.Get("/", videoHandler.List)

			r.Group(func(r chi.Router) {
				r.Use(ingestLimiter.Middleware)
				r.Post("/process", videoHandler.Process)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/status", videoHandler.Status)
				r.Get("/stats", videoHandler.Stats)
				r.Get("/summary", chatHandler.Summary)
				r.Delete("/", videoHandler.Delete)
			})
		})

		// ──── Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			r.Post("/query", chatHandler.Query)
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Post("/cleanup", adminHandler.Cleanup)
		})
	})

	return r
}
