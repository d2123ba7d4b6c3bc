package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gridiron/ingestion/internal/api"
	"gridiron/ingestion/internal/app"
	"gridiron/ingestion/internal/config"
	"gridiron/ingestion/internal/ingest"
	"gridiron/ingestion/internal/metrics"
	"gridiron/ingestion/internal/scheduler"
)

const (
	jobTeamsPlayers    = "teams-players"
	jobGamesStatistics = "games-statistics"
)

func main() {
	// Setup logger
	setupLogger()

	log.Info().Msg("Starting Gridiron Data Ingestion Worker")

	// Load configuration
	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Str("provider", cfg.Provider).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	a, err := app.New(ctx, cfg, app.Options{Migrate: cfg.RunMigrations, Cache: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ingestion service")
	}
	defer a.Close()

	// Start metrics HTTP server
	var metricsServer *http.Server
	if cfg.EnableMetrics {
		metricsServer = newMetricsServer(cfg.MetricsPort, a)
		go serve(metricsServer, "metrics")
	}

	// Update system uptime and pool metrics
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				if a.DB != nil {
					a.DB.PoolStats()
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Register jobs; the schedule only runs when enabled
	sched := scheduler.NewScheduler()
	jobs := []scheduler.Job{
		scheduler.RefreshJob(jobTeamsPlayers, cfg.TeamsPlayersCron, a.Service, ingest.ClassTeams, ingest.ClassPlayers),
		scheduler.RefreshJob(jobGamesStatistics, cfg.GamesStatsCron, a.Service, ingest.ClassGames, ingest.ClassStatistics),
	}
	for _, job := range jobs {
		if err := sched.Register(job); err != nil {
			log.Fatal().Err(err).Msg("Failed to register job")
		}
	}
	if cfg.EnableScheduler {
		sched.Start(ctx)
	}

	// Start HTTP API
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           api.NewRouter(a.APIDeps()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go serve(apiServer, "api")

	// Run initial sync if enabled
	if cfg.InitialSyncEnabled {
		log.Info().Msg("Running initial data sync...")
		for _, job := range jobs {
			if err := sched.RunNow(ctx, job.Name); err != nil {
				log.Error().Err(err).Str("job", job.Name).Msg("Initial sync step failed, continuing anyway...")
			}
		}
		log.Info().Msg("Initial sync finished")
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Info().Msg("Shutting down HTTP servers...")
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Metrics server shutdown failed")
		}
	}

	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Cancelling in-flight refreshes...")
	a.Service.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// newMetricsServer exposes Prometheus metrics and a liveness check
func newMetricsServer(port int, a *app.App) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if a.DB != nil {
			if err := a.DB.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func serve(srv *http.Server, name string) {
	log.Info().Str("server", name).Str("addr", srv.Addr).Msg("Starting HTTP server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Str("server", name).Msg("HTTP server failed")
	}
}
