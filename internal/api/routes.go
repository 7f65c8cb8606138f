package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/lesson-designer/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET  /health
//	POST /api/v1/lessons
//	GET  /api/v1/festivals
//	GET  /api/v1/congregations/{id}/context
//	GET  /api/v1/topics
//	POST /api/v1/admin/reload      (admin key)
//	GET  /api/v1/admin/dataset     (admin key)
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)
	r.NotFound(handlers.NotFound)

	// ==========================================================================
	// Public routes
	// ==========================================================================
	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/lessons", handlers.GenerateLesson)
		r.Get("/festivals", handlers.GetFestivals)
		r.Get("/congregations/{id}/context", handlers.GetCongregationContext)
		r.Get("/topics", handlers.GetTopics)

		// ======================================================================
		// Admin routes (admin key only)
		// ======================================================================
		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminOnlyMiddleware(cfg, logger))
			r.Post("/reload", handlers.ReloadDataset)
			r.Get("/dataset", handlers.GetDatasetStats)
		})
	})

	return r
}
