package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/api/handlers"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/api/response"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/version"
)

// apiRateLimit caps requests per client IP and minute on /api/v1.
const apiRateLimit = 600

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthCheck)
	s.router.Get("/ws", s.wsHub.ServeWs)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	syncHandler := handlers.NewSyncHandler(s.worker, s.config, s.metrics)
	setHandler := handlers.NewSetHandler(s.worker)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(apiRateLimit, time.Minute))

		r.Post("/init", syncHandler.Initialise)
		r.Post("/login", syncHandler.Login)
		r.Post("/logout", syncHandler.Logout)
		r.Get("/status", syncHandler.GetStatus)

		r.Route("/sets", func(r chi.Router) {
			r.Get("/", setHandler.GetSets)
			r.Post("/sync", syncHandler.SyncSets)
			r.Get("/{code}/ratings", setHandler.GetRatings)
			r.Get("/{code}/chart", setHandler.GetChart)
		})

		r.Post("/template/sync", syncHandler.SyncTemplate)
		r.Post("/statistics/download", syncHandler.DownloadStatistics)

		r.Route("/ratings", func(r chi.Router) {
			r.Post("/calculate", syncHandler.CalculateRatings)
			r.Post("/cancel", syncHandler.CancelUpload)
		})

		r.Put("/custom-ratings/{idArena}", setHandler.PutCustomRating)

		r.Get("/backups", syncHandler.GetBackups)
		r.Post("/backups", syncHandler.Backup)

		if s.faults != nil {
			r.Put("/faults/{point}", handlers.NewFaultHandler(s.faults).SetFault)
		}
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "mtga-ratings-sync",
		"version": version.Version,
	})
}
