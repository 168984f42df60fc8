// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command promote changes the role of an existing account.
//
// Administrators cannot be created through the API, so the first one is
// bootstrapped from the command line:
//
//	promote -email admin@example.com
//	promote -email someone@example.com -role user
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/taibuivan/contactbook/internal/mail"
	"github.com/taibuivan/contactbook/internal/platform/config"
	"github.com/taibuivan/contactbook/internal/platform/constants"
	pgstore "github.com/taibuivan/contactbook/internal/platform/postgres"
	redisstore "github.com/taibuivan/contactbook/internal/platform/redis"
	"github.com/taibuivan/contactbook/internal/platform/sec"
	"github.com/taibuivan/contactbook/internal/users/auth"
)

func main() {
	email := flag.String("email", "", "email address of the account to update")
	role := flag.String("role", string(sec.RoleAdmin), "role to assign (admin or user)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(log, *email, sec.UserRole(*role)); err != nil {
		log.Error("promote_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, email string, role sec.UserRole) error {
	if email == "" {
		flag.Usage()
		return errors.New("promote: -email is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.StartupTimeout)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := redisstore.NewClient(ctx, cfg.RedisURL, log)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	codec, err := sec.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.Algorithm)
	if err != nil {
		return err
	}

	service := auth.NewService(
		auth.NewPostgresDirectory(pool),
		auth.NewRedisSessionStore(rdb),
		sec.NewPasswordHasher(cfg.BcryptCost),
		codec,
		mail.LogMailer{},
		cfg.JWT.AccessTTL(),
		nil,
	)

	if err := service.SetRole(ctx, email, role); err != nil {
		return err
	}

	log.Info("role_updated", slog.String("email", email), slog.String("role", string(role)))
	return nil
}
