// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the contactbook HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire mail, object storage and domain services.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/contactbook/internal/api"
	"github.com/taibuivan/contactbook/internal/contacts"
	"github.com/taibuivan/contactbook/internal/mail"
	"github.com/taibuivan/contactbook/internal/platform/config"
	"github.com/taibuivan/contactbook/internal/platform/constants"
	"github.com/taibuivan/contactbook/internal/platform/metrics"
	"github.com/taibuivan/contactbook/internal/platform/middleware"
	"github.com/taibuivan/contactbook/internal/platform/migration"
	"github.com/taibuivan/contactbook/internal/platform/objectstore"
	pgstore "github.com/taibuivan/contactbook/internal/platform/postgres"
	redisstore "github.com/taibuivan/contactbook/internal/platform/redis"
	"github.com/taibuivan/contactbook/internal/platform/sec"
	"github.com/taibuivan/contactbook/internal/users/account"
	"github.com/taibuivan/contactbook/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Bound startup so misconfiguration fails fast instead of hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), constants.StartupTimeout)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("postgres_pool_closing")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("redis_client_closing")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Metrics ────────────────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// ── 7. Mail ───────────────────────────────────────────────────────────
	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.AMQP.URL != "" {
		publisher := mail.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, appMetrics)
		defer func() {
			if cerr := publisher.Close(); cerr != nil {
				log.Error("mail_publisher_close_failed", slog.Any("error", cerr))
			}
		}()
		mailer = publisher
	} else {
		log.Warn("mail_broker_not_configured")
	}

	// ── 8. Avatar Storage ─────────────────────────────────────────────────
	var avatars account.AvatarStore
	if cfg.S3.Enabled() {
		store, err := objectstore.New(startupCtx, cfg.S3)
		must(log, err, "configure object storage")
		if perr := store.Ping(startupCtx); perr != nil {
			log.Warn("object_storage_unreachable", slog.Any("error", perr))
		}
		avatars = store
	} else {
		log.Warn("object_storage_not_configured")
	}

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	codec, err := sec.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.Algorithm)
	must(log, err, "initialize token codec")

	authService := auth.NewService(
		auth.NewPostgresDirectory(pool),
		auth.NewRedisSessionStore(rdb),
		sec.NewPasswordHasher(cfg.BcryptCost),
		codec,
		mailer,
		cfg.JWT.AccessTTL(),
		appMetrics,
	)
	accountService := account.NewService(authService, avatars)
	contactService := contacts.NewService(contacts.NewPostgresStore(pool))

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	profileLimiter := middleware.PerMinute(constants.ProfileRateLimitPerMinute)
	profileLimiter.StartCleanup(groupCtx)

	handlers := api.Handlers{
		Health: api.NewHealthHandlers(api.HealthDependencies{
			CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
			CheckCache:    func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) },
		}, log),
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Auth:     auth.NewHandler(authService, cfg.PublicBaseURL),
		Users:    account.NewHandler(accountService, profileLimiter),
		Contacts: contacts.NewHandler(contactService),
	}

	server := api.NewServer(groupCtx, cfg, log, authService, appMetrics, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))
		return server.Shutdown(constants.ShutdownTimeout)
	})

	if err := group.Wait(); err != nil {
		log.Error("server_stopped_with_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// Limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
