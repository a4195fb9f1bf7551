package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/recaplab/recap-api/internal/api"
	apiMiddleware "github.com/recaplab/recap-api/internal/api/middleware"
	"github.com/recaplab/recap-api/internal/telemetry"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.adminService, app.logger)
	adminHandler := api.NewAdminHandler(
		app.submitter,
		app.poller,
		app.consumer,
		app.jobStore,
		app.logger,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/admin", func(r chi.Router) {
		// Login endpoint (public)
		r.Post("/login", authHandler.Login)

		// Privileged pipeline operations
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(authMiddleware.RequireAdmin)

			r.Post("/batches", adminHandler.TriggerWeeklySummaries)
			r.Get("/batches", adminHandler.ListBatchJobs)
			r.Post("/batches/poll", adminHandler.PollBatches)
			r.Get("/batches/{id}", adminHandler.GetBatchJob)
			r.Post("/batches/{id}/consume", adminHandler.ConsumeBatch)
		})
	})

	// Operational endpoints
	r.Handle("/metrics", telemetry.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
