package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/analysisclient"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/api"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/auth"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/config"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/logging"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/metrics"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/pipeline"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/storage"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/ticker"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/websocket"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/pkg/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	closer, err := logging.Init(logging.Level(cfg.LogLevel, false), cfg.LogsFolder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Bool("analysis_service", cfg.AnalysisServiceEnabled()).
		Msg("starting BeyondCX analytics server")

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := storage.NewCache(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics cache")
	}

	authenticator, err := auth.New(auth.Options{
		SkipAuth:        cfg.SkipAuth,
		OIDCIssuer:      cfg.OIDCIssuer,
		VerifySignature: cfg.OIDCIssuer != "",
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize authentication")
	}

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger)
	go hub.Run(ctx)

	var service pipeline.AnalysisService
	if cfg.AnalysisServiceEnabled() {
		client := analysisclient.New(analysisclient.Config{
			BaseURL:  cfg.AnalysisServiceURL,
			Username: cfg.AnalysisServiceUser,
			Password: cfg.AnalysisServicePassword,
			Timeout:  cfg.AnalysisTimeout,
		}, log.Logger)
		service = analysisclient.NewRetrying(client, cfg.AnalysisMaxRetry, log.Logger)
	} else {
		log.Warn().Msg("ANALYSIS_SERVICE_URL not set, uploads are analysed locally")
	}

	if cfg.StatusInterval > 0 {
		go ticker.NewTicker(hub, cache, cfg.StatusInterval, log.Logger).Start(ctx)
	}

	runner := pipeline.New(service, cache, hub, log.Logger)
	analysis := api.NewAnalysisHandler(runner, cache, cfg.AnalysisOptions(), cfg.PeriodMonths, log.Logger)

	r := newRouter(cfg, authenticator, analysis, websocket.NewHandler(hub, cfg, log.Logger), log.Logger)

	// Uploads are analysed synchronously, so the write timeout covers the
	// retry budget as well
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.RequestBudget() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stops the hub and closes dashboard connections
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func newRouter(cfg *config.Config, authenticator *auth.Authenticator, analysis *api.AnalysisHandler, ws http.Handler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Public routes
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	r.Group(func(r chi.Router) {
		r.Use(authenticator.Middleware)

		r.Get("/ws", ws.ServeHTTP)

		r.Route("/api", func(r chi.Router) {
			r.Route("/analysis", func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAnalyst))
				r.Post("/", analysis.Upload)
				r.Post("/cached", analysis.Cached)
				r.Post("/synthetic", analysis.Synthetic)
			})

			r.Get("/cache", analysis.CacheStatus)
			r.With(auth.RequireRole(auth.RoleAdmin)).Delete("/cache", analysis.ClearCache)
		})
	})

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"beyondcx-analytics"}`)
}
