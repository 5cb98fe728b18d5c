package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	vlhttp "github.com/vendalink/vendalink/internal/adapter/http"
	vlnats "github.com/vendalink/vendalink/internal/adapter/nats"
	vlotel "github.com/vendalink/vendalink/internal/adapter/otel"
	"github.com/vendalink/vendalink/internal/adapter/postgres"
	"github.com/vendalink/vendalink/internal/adapter/ristretto"
	"github.com/vendalink/vendalink/internal/adapter/tenantdb"
	"github.com/vendalink/vendalink/internal/adapter/ws"
	"github.com/vendalink/vendalink/internal/config"
	"github.com/vendalink/vendalink/internal/domain/session"
	"github.com/vendalink/vendalink/internal/logger"
	"github.com/vendalink/vendalink/internal/middleware"
	"github.com/vendalink/vendalink/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"session_timeout", cfg.Session.Timeout,
		"strict_admission", cfg.Session.StrictAdmission,
	)

	ctx := context.Background()

	// --- Telemetry ---
	shutdownOtel, err := vlotel.Init(ctx, cfg.Logging.Service, cfg.Otel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(flushCtx); err != nil {
			slog.Warn("otel shutdown failed", "error", err)
		}
	}()

	metrics, err := vlotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	// Directory database
	pool, err := postgres.NewPool(ctx, cfg.Master)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("directory database connected")

	if err := postgres.RunMigrations(ctx, cfg.Master.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// Directory cache
	directoryCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("directory cache: %w", err)
	}
	defer directoryCache.Close()

	// NATS (optional)
	events := &service.Events{}
	if cfg.NATS.URL != "" {
		queue, err := vlnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Close() }()
		events.Queue = queue
	}

	// --- Services ---
	hub := ws.NewHub()
	events.Hub = hub

	store := postgres.NewStore(pool)
	clock := session.SystemClock{}

	factory := tenantdb.NewFactory(cfg.TenantPool, cfg.Breaker)
	registry := service.NewRegistry(factory)
	registry.SetMetrics(metrics)
	defer registry.Close()

	directory := service.NewDirectory(store, directoryCache, cfg.Cache.DirectoryTTL)
	admission := service.NewAdmissionController(store, clock, cfg.Session)
	authSvc := service.NewAuthService(directory, admission, registry, store, events, clock, cfg.Session)
	authSvc.SetMetrics(metrics)
	heartbeatSvc := service.NewHeartbeatService(store, clock, cfg.Session)
	heartbeatSvc.SetMetrics(metrics)
	tenantSvc := service.NewTenantService(store, registry, directory, admission)

	// --- HTTP ---
	handlers := &vlhttp.Handlers{
		Auth:       authSvc,
		Tenants:    tenantSvc,
		Heartbeats: heartbeatSvc,
		Hub:        hub,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(vlhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(vlhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(vlotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(middleware.Heartbeat(heartbeatSvc))

	vlhttp.MountRoutes(r, handlers, limiter.Handler, middleware.AdminKey(cfg.Admin.KeyHash))

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
