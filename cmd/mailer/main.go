// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command mailer drains the outbound mail queue and delivers every job over SMTP.
//
// The API publishes verification and password reset messages to RabbitMQ; this
// worker renders them and hands them to the configured relay. It can be scaled
// horizontally since deliveries are acknowledged one by one.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/contactbook/internal/mail"
	"github.com/taibuivan/contactbook/internal/platform/config"
	"github.com/taibuivan/contactbook/internal/platform/constants"
	"github.com/taibuivan/contactbook/internal/platform/metrics"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With(slog.String("app", "contactbook-mailer"))
	slog.SetDefault(log)

	cfg, err := config.LoadMailer()
	if err != nil {
		log.Error("startup_failure", slog.String("step", "load configuration"), slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.Debug {
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})).
			With(slog.String("app", "contactbook-mailer"))
		slog.SetDefault(log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	registry := prometheus.NewRegistry()
	collectors := metrics.New(registry)

	consumer := mail.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, mail.NewSMTPTransport(cfg.SMTP), log, collectors)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return consumer.Run(groupCtx)
	})

	if cfg.MetricsAddr != "" {
		server := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		}

		group.Go(func() error {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		group.Go(func() error {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	log.Info("mailer_started",
		slog.String("queue", cfg.AMQP.Queue),
		slog.String("smtp_host", cfg.SMTP.Host),
	)

	if err := group.Wait(); err != nil {
		log.Error("mailer_stopped_with_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("mailer_stopped_cleanly")
}
