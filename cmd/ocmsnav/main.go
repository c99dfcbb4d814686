// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-nav/internal/cache"
	"github.com/olegiv/ocms-nav/internal/config"
	"github.com/olegiv/ocms-nav/internal/gateway"
	"github.com/olegiv/ocms-nav/internal/handler"
	"github.com/olegiv/ocms-nav/internal/logging"
	"github.com/olegiv/ocms-nav/internal/middleware"
	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/scheduler"
	"github.com/olegiv/ocms-nav/internal/service"
	"github.com/olegiv/ocms-nav/internal/store"
	"github.com/olegiv/ocms-nav/internal/transfer"
	"github.com/olegiv/ocms-nav/internal/version"
	"github.com/olegiv/ocms-nav/internal/webhook"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// eventCleanupSchedule runs the audit log pruning once a day.
const eventCleanupSchedule = "@daily"

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "oCMS Nav - navigation link manager\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_NAV_DB_DRIVER          Database driver: sqlite|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_NAV_DB_PATH            SQLite database path (default: ./data/ocms-nav.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_NAV_DB_DSN             MySQL DSN (required for mysql)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_NAV_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_NAV_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_NAV_REDIS_URL          Redis URL for shared caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_NAV_SNAPSHOT_SCHEDULE  Cron schedule for JSON snapshots (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_NAV_WEBHOOK_URLS       Comma-separated change notification URLs (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	if *showVersion {
		_, _ = fmt.Printf("ocms-nav %s\n", info)
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if cfg.DBDriver != store.DriverMySQL {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o750); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.Open(cfg.DBDriver, cfg.DataSource())
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.MigrateDriver(db, cfg.DBDriver); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.DoSeed); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	navCache, cacheInfo, err := cache.New(cache.Config{
		RedisURL:         cfg.RedisURL,
		Prefix:           cfg.CachePrefix,
		DefaultTTL:       cfg.CacheTTLDuration(),
		MaxSize:          cfg.CacheMaxSize,
		CleanupInterval:  time.Minute,
		FallbackToMemory: true,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = navCache.Close() }()
	switch {
	case cacheInfo.IsFallback:
		slog.Warn("cache initialized", "backend", cacheInfo.Backend, "note", "Redis unavailable, using fallback")
	case cacheInfo.Backend == "redis":
		slog.Info("cache initialized", "backend", "redis", "url", cache.MaskRedisURL(cfg.RedisURL))
	default:
		slog.Info("cache initialized", "backend", cacheInfo.Backend)
	}

	events := service.NewEventService(db)
	gw := gateway.NewCachedGateway(gateway.NewSQLGateway(db), navCache, cfg.CacheTTLDuration(), logger)
	navOpts := []service.ServiceOption{service.WithAuditor(events)}

	if cfg.WebhooksEnabled() {
		endpoints := make([]webhook.Endpoint, 0, len(cfg.WebhookURLs))
		for _, u := range cfg.WebhookURLs {
			endpoints = append(endpoints, webhook.Endpoint{URL: u, Secret: cfg.WebhookSecret})
		}
		dispatcher := webhook.NewDispatcher(endpoints, logger, webhook.DefaultConfig())
		dispatcher.Start(ctx)
		defer dispatcher.Stop()

		debounce := webhook.DefaultDebounceConfig()
		if cfg.WebhookDebounce > 0 {
			debounce.Interval = cfg.WebhookDebounce
		}
		debouncer := webhook.NewDebouncer(dispatcher, debounce)
		defer debouncer.Stop()

		navOpts = append(navOpts, service.WithChangeNotifier(debouncer))
		slog.Info("webhook notifications enabled", "endpoints", len(endpoints))
	}

	navService := service.NewNavService(gw, logger, navOpts...)

	// After a load failure mutations are refused until /api/navlinks/save reloads.
	if err := navService.Load(ctx); err != nil {
		slog.Error("loading navigation links", "error", err)
	}
	if navService.Seeded() {
		_ = events.LogSystemEvent(ctx, model.EventLevelInfo, "Started with default navigation links", nil)
	}

	sched := scheduler.New(logger)
	if cfg.SnapshotsEnabled() {
		snapshotter := scheduler.NewSnapshotter(transfer.NewExporter(navService, logger), cfg.SnapshotDir, "navlinks", cfg.SnapshotKeep)
		snapshotter.SetReadyCheck(navService.Loaded)
		if err := sched.AddSnapshotJob(cfg.SnapshotSchedule, snapshotter); err != nil {
			return fmt.Errorf("scheduling snapshots: %w", err)
		}
		slog.Info("snapshots enabled", "schedule", cfg.SnapshotSchedule, "dir", cfg.SnapshotDir)
	}
	if cfg.EventRetention > 0 {
		if err := sched.AddEventCleanupJob(eventCleanupSchedule, events, cfg.EventRetention); err != nil {
			return fmt.Errorf("scheduling event cleanup: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	var pinger handler.Pinger
	if p, ok := navCache.(handler.Pinger); ok {
		pinger = p
	}
	snapshotDir := ""
	if cfg.SnapshotsEnabled() {
		snapshotDir = cfg.SnapshotDir
	}
	healthHandler := handler.NewHealthHandler(db, pinger, snapshotDir, info)
	navHandler := handler.NewNavLinksHandler(navService, events, logger)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		r.Use(rateLimiter.Middleware())
		r.Mount("/navlinks", navHandler.Routes())
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", cfg.Env, "version", info.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
