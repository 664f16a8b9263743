package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/database"
	"github.com/learnpath/engage-backend/internal/engagement"
	"github.com/learnpath/engage-backend/internal/handler"
	"github.com/learnpath/engage-backend/internal/logger"
	"github.com/learnpath/engage-backend/internal/repository"
	"github.com/learnpath/engage-backend/internal/router"
	"github.com/learnpath/engage-backend/internal/service"
	"github.com/learnpath/engage-backend/internal/validator"
	"github.com/learnpath/engage-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Engage Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	clientRepo := repository.NewClientRepository(pool)
	summaryRepo := repository.NewSummaryRepository(pool)
	alertRepo := repository.NewAlertRepository(pool)

	// ─── Initialize Engine + Services ──────────────────────────────────
	dispatcher := service.NewTelemetryDispatcher(rdb, cfg.TelemetryBufferSize, log)

	engineCfg := engagement.DefaultConfig()
	engineCfg.HistoryLimit = cfg.HistoryLimit
	engine := engagement.New(engineCfg, engagement.WithSink(dispatcher))

	authService := service.NewAuthService(cfg, rdb, clientRepo)
	engagementService := service.NewEngagementService(engine, cfg, rdb, summaryRepo, log)
	monitorService := service.NewMonitorService(engine, alertRepo, rdb, cfg, log)

	// ─── Initialize Handlers ───────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Engagement: handler.NewEngagementHandler(engagementService),
		Monitor:    handler.NewMonitorHandler(rdb, monitorService, log),
		WS:         handler.NewWSHandler(engagementService, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ──────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	telemetryWorker := worker.NewTelemetryWorker(pool, rdb, cfg, log)
	alertWorker := worker.NewAlertWorker(alertRepo, rdb, log)
	archiveWorker := worker.NewArchiveWorker(summaryRepo, rdb, log)
	reaper := worker.NewReaper(engagementService, cfg, log)

	go dispatcher.Run(workerCtx)
	go telemetryWorker.Start(workerCtx)
	go alertWorker.Start(workerCtx)
	go archiveWorker.Start(workerCtx)
	go reaper.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
