package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/cache"
	"github.com/Aditya06pandey1368/LMS-Project/internal/config"
	"github.com/Aditya06pandey1368/LMS-Project/internal/database"
	"github.com/Aditya06pandey1368/LMS-Project/internal/events"
	"github.com/Aditya06pandey1368/LMS-Project/internal/gemini"
	"github.com/Aditya06pandey1368/LMS-Project/internal/handler"
	"github.com/Aditya06pandey1368/LMS-Project/internal/logger"
	"github.com/Aditya06pandey1368/LMS-Project/internal/repository"
	"github.com/Aditya06pandey1368/LMS-Project/internal/router"
	"github.com/Aditya06pandey1368/LMS-Project/internal/service"
	"github.com/Aditya06pandey1368/LMS-Project/internal/validator"
	"github.com/Aditya06pandey1368/LMS-Project/internal/worker"
	"github.com/rs/zerolog"
)

// courseStats is read by the API and written by the stats worker.
type courseStats interface {
	service.CourseStatsReader
	worker.StatsRecorder
}

// backends are the storage-side dependencies chosen by STORE_DRIVER.
type backends struct {
	store   service.SessionStore
	locker  service.Locker
	notes   service.NotesCache
	stats   courseStats
	checks  map[string]handler.HealthCheck
	closers []func()
}

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Str("events", cfg.EventsDriver).
		Msg("Starting LMS mock test service")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Storage ───────────────────────────────────────────────────────
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer func() {
		for i := len(b.closers) - 1; i >= 0; i-- {
			b.closers[i]()
		}
	}()

	// ─── Event Bus ─────────────────────────────────────────────────────
	bus, err := events.NewBus(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open event bus")
	}
	defer bus.Close()

	// ─── Initialize Services ──────────────────────────────────────────
	generator := gemini.NewClient(cfg, log)
	authService := service.NewAuthService(cfg)
	mockTestService := service.NewMockTestService(b.store, generator, b.locker, events.NewWatermillPublisher(bus, log), cfg, log)
	exportService := service.NewExportService(mockTestService)
	statsService := service.NewStatsService(b.stats)
	noteService := service.NewNoteService(generator, b.notes, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		MockTest: handler.NewMockTestHandler(mockTestService, exportService, statsService, log),
		Notes:    handler.NewNotesHandler(noteService, log),
		WS:       handler.NewWSHandler(mockTestService, log, cfg.AllowedOrigins),
		System:   handler.NewSystemHandler(b.checks, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	statsWorker := worker.NewCourseStatsWorker(bus.Subscriber, bus.Topic, b.stats, log)
	// The in-process bus drops events nobody is subscribed to yet, so the
	// subscription must exist before the first request can finish a test.
	if err := statsWorker.Subscribe(workerCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to subscribe course stats worker")
	}
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		statsWorker.Run(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	// 2. Give the stats worker a moment to finish in-flight events.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(cfg.ShutdownDrainDuration):
		log.Warn().Msg("Course stats worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

func openBackends(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backends, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("Using in-memory storage; sessions are lost on restart")
		return &backends{
			store:  repository.NewMemorySessionRepository(),
			locker: cache.NewMemoryLocker(),
			notes:  cache.NewMemoryNotesCache(cfg.NotesCacheTTL),
			stats:  cache.NewMemoryCourseStats(),
			checks: map[string]handler.HealthCheck{},
		}, nil
	}

	if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
		return nil, err
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &backends{
		store:  repository.NewMockTestSessionRepository(pool),
		locker: cache.NewRedisLocker(rdb),
		notes:  cache.NewRedisNotesCache(rdb, cfg.NotesCacheTTL),
		stats:  cache.NewRedisCourseStats(rdb, log),
		checks: map[string]handler.HealthCheck{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		closers: []func(){
			pool.Close,
			func() { _ = rdb.Close() },
		},
	}, nil
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
