package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/georgeokwiri254/entered-on-audit/src/config"
	"github.com/georgeokwiri254/entered-on-audit/src/database"
	"github.com/georgeokwiri254/entered-on-audit/src/handlers"
	"github.com/georgeokwiri254/entered-on-audit/src/logger"
	"github.com/georgeokwiri254/entered-on-audit/src/processors"
	"github.com/georgeokwiri254/entered-on-audit/src/services"
	"github.com/georgeokwiri254/entered-on-audit/src/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retentionLoop purges runs past the configured retention once a day.
func retentionLoop(days int) {
	if days <= 0 {
		return
	}
	for {
		cutoff := time.Now().AddDate(0, 0, -days)
		if purged, err := store.PurgeRunsBefore(database.DB, cutoff); err != nil {
			logger.L.Error("Run retention purge failed", "error", err)
		} else if purged > 0 {
			logger.L.Info("Purged old audit runs", "count", purged, "cutoff", cutoff.Format("2006-01-02"))
		}
		time.Sleep(24 * time.Hour)
	}
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Entered On audit server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath, config.Cfg.MigrationsPath)

	rateEngine := processors.NewRateEngine(
		config.Cfg.TDFStandardRate,
		config.Cfg.TDFApartmentRate,
		config.Cfg.TDFNightCap,
		config.Cfg.TaxFactor,
	)

	auditService := services.NewAuditService(database.DB, rateEngine, config.Cfg.SummaryCacheTTL)
	auditHandler := handlers.NewAuditHandler(auditService)

	go retentionLoop(config.Cfg.RunRetentionDays)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Entered On audit backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/workbook", auditHandler.HandleWorkbookUpload)
		r.Post("/documents", auditHandler.HandleSubmitDocuments)
		r.Post("/audit/run", auditHandler.HandleRunAudit)
		r.Get("/audit/results", auditHandler.HandleResults)
		r.Get("/audit/export", auditHandler.HandleExport)
		r.Get("/audit/summary", auditHandler.HandleSummary)
		r.Get("/runs", auditHandler.HandleListRuns)
	})

	server := &http.Server{
		Addr:         ":" + config.Cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.L.Info("Server listening", "port", config.Cfg.Port)
	if err := server.ListenAndServe(); err != nil {
		logger.L.Error("Server failed", "error", err)
	}
}
