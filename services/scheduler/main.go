package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/demo-scheduler/pkg/cache"
	"github.com/diagnosis/demo-scheduler/pkg/config"
	"github.com/diagnosis/demo-scheduler/pkg/database"
	"github.com/diagnosis/demo-scheduler/pkg/events"
	"github.com/diagnosis/demo-scheduler/pkg/logger"
	mw "github.com/diagnosis/demo-scheduler/pkg/middleware"
	"github.com/diagnosis/demo-scheduler/pkg/telemetry"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/handlers"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/mailer"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/notice"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/repository"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing := telemetry.Setup(ctx, "scheduler", cfg.Telemetry)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Tracer shutdown error", "error", err)
		}
	}()

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to event bus
	var eventBus events.EventBus
	if cfg.NATS.URL != "" {
		eventBus, err = events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("NATS_URL not set, using in-process event bus")
		eventBus = events.NewMemoryEventBus()
	}
	defer eventBus.Close()

	var store mw.IdempotencyStore
	if cfg.Redis.URL != "" {
		rs, err := cache.NewRedisIdempotencyStore(ctx, cfg.Redis)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rs.Close()
		store = rs
	} else {
		logger.Warn("REDIS_URL not set, idempotency keys kept in memory")
		store = cache.NewMemoryIdempotencyStore()
	}

	notices := notice.NewBus(32)
	board := service.NewBoard()
	repo := repository.NewRequestRepository(pool)
	sched := service.NewScheduler(repo, board, eventBus, mailer.New(cfg.Email), notices, cfg.Scheduler)

	if err := sched.Refresh(ctx); err != nil {
		logger.Error("Initial load failed", "error", err)
	}

	unwatch, err := sched.Watch(eventBus)
	if err != nil {
		logger.Error("Failed to subscribe to request events", "error", err)
		os.Exit(1)
	}
	defer unwatch()

	h := handlers.New(sched, service.NewBulkCoordinator(sched), notices, cfg.Auth.JWTSecret)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("scheduler"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h.Routes(r, mw.IdempotencyMiddleware(store, cfg.Redis.IdempotencyTTL))

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     otelhttp.NewHandler(r, "scheduler"),
		ReadTimeout: cfg.Server.ReadTimeout,
		// notice stream clears its own write deadline
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down scheduler service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Scheduler service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting scheduler service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Scheduler service error", "error", err)
		os.Exit(1)
	}
}
