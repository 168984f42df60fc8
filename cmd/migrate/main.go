// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command migrate applies or rolls back the database schema.
//
// The API server applies pending migrations at boot; this tool exists for
// rollbacks and for running migrations ahead of a deploy:
//
//	migrate up
//	migrate down
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/taibuivan/contactbook/internal/platform/config"
	"github.com/taibuivan/contactbook/internal/platform/migration"
)

func main() {
	path := flag.String("path", "", "migrations directory (defaults to MIGRATION_PATH)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(log, flag.Arg(0), *path); err != nil {
		log.Error("migrate_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, direction, path string) error {
	cfg, err := config.LoadMigrate()
	if err != nil {
		return err
	}
	if path == "" {
		path = cfg.MigrationPath
	}

	switch direction {
	case "up":
		return migration.RunUp(cfg.DatabaseURL, path, log)
	case "down":
		return migration.RunDown(cfg.DatabaseURL, path, log)
	default:
		flag.Usage()
		return fmt.Errorf("migrate: unknown direction %q, want up or down", direction)
	}
}
