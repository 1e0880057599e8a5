// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package migration applies the SQL schema with golang-migrate at startup.

Migrations are read from any [fs.FS]: the embedded set shipped in the binary,
or a directory on disk when MIGRATION_PATH overrides it. A dirty database
stops the boot; it needs a human.
*/
package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Registers the "pgx5" database scheme.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

/*
RunUp applies every pending up migration found in migrations.

Parameters:
  - dsn: postgres:// or postgresql:// URL (rewritten to pgx5://)
  - migrations: fs.FS holding NNNNNN_name.up.sql / .down.sql pairs at its root
  - logger: *slog.Logger

Returns:
  - error: Unreadable source, dirty database or a failed migration
*/
func RunUp(dsn string, migrations fs.FS, logger *slog.Logger) error {
	source, err := iofs.New(migrations, ".")
	if err != nil {
		return fmt.Errorf("migration: open source: %w", err)
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", source, pgx5URL(dsn))
	if err != nil {
		return fmt.Errorf("migration: initialize: %w", err)
	}
	defer func() {
		sourceErr, databaseErr := migrator.Close()
		if err := errors.Join(sourceErr, databaseErr); err != nil {
			logger.Warn("migration_close_failed", slog.Any("error", err))
		}
	}()

	migrator.Log = &slogBridge{logger: logger}

	from, dirty, err := migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		from = 0
	case err != nil:
		return fmt.Errorf("migration: read version: %w", err)
	case dirty:
		return fmt.Errorf("migration: database is dirty at version %d", from)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migration_up_to_date", slog.Uint64("version", uint64(from)))
			return nil
		}
		return fmt.Errorf("migration: up: %w", err)
	}

	to, _, _ := migrator.Version()
	logger.Info("migration_applied", slog.Uint64("from_version", uint64(from)), slog.Uint64("to_version", uint64(to)))

	return nil
}

// pgx5URL swaps the scheme for the one the pgx/v5 driver registers.
func pgx5URL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

type slogBridge struct {
	logger *slog.Logger
}

func (bridge *slogBridge) Printf(format string, args ...any) {
	bridge.logger.Debug("migration_progress", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, args...))))
}

func (bridge *slogBridge) Verbose() bool {
	return false
}
