package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"fitdiary/internal/config"
	"fitdiary/internal/export"
	"fitdiary/internal/handlers"
	mw "fitdiary/internal/middleware"
	"fitdiary/internal/realtime"
	"fitdiary/internal/settings"
	"fitdiary/internal/store"
)

type routeDeps struct {
	users     store.UserStore
	records   store.RecordStore
	settings  *settings.Service
	hub       *realtime.Hub
	sink      export.Sink
	reminders handlers.ReminderEnsurer
}

func newRouter(cfg config.Config, logger *zap.Logger, d routeDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.ZapRequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(d.users, []byte(cfg.JWTSecret), d.reminders, logger)
	entriesHandler := handlers.NewEntriesHandler(d.records, cfg.EntryValidation, logger)
	dashboardHandler := handlers.NewDashboardHandler(d.records, d.settings, logger)
	exportHandler := handlers.NewExportHandler(d.records, d.sink, logger)
	settingsHandler := handlers.NewSettingsHandler(d.settings, d.hub, logger)
	authMW := mw.NewAuthMiddleware([]byte(cfg.JWTSecret))
	exportLimit := mw.NewRateLimiter(cfg.ExportRatePerMinute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", authHandler.Signup)
		api.Post("/auth/login", authHandler.Login)
		api.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)
			pr.Post("/entries", entriesHandler.Upsert)
			pr.Get("/entries", entriesHandler.List)
			pr.Get("/dashboard", dashboardHandler.Get)
			pr.Get("/series", dashboardHandler.Series)
			pr.Get("/mood-distribution", dashboardHandler.MoodDistribution)
			pr.Get("/settings", settingsHandler.Get)
			pr.Patch("/settings", settingsHandler.Patch)
			pr.Get("/ws", settingsHandler.Stream)

			pr.Group(func(ex chi.Router) {
				ex.Use(exportLimit.Limit)
				ex.Get("/export/csv", exportHandler.CSV)
				ex.Get("/export/pdf", exportHandler.PDF)
				ex.Post("/export", exportHandler.Save)
			})
		})
	})
	return r
}
