// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package postgres owns the pgx pool and the transaction plumbing every
repository shares.

Repositories never hold a transaction themselves: they call [Conn] with the
context they were given and join whatever [TxManager.WithinTx] opened
upstream, or fall back to the pool.
*/
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
)

const (
	maxConns          = 25
	minConns          = 4
	maxConnLifetime   = time.Hour
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second

	// Review transitions lock rows NOWAIT; anything else waiting on a row
	// lock gives up after this long and surfaces as TRANSITION_IN_PROGRESS.
	lockTimeout = 3 * time.Second
)

/*
NewPool parses dsn, applies the pool limits and per-session timeouts, and
pings before returning.

Parameters:
  - ctx: bounds the initial connect and ping
  - dsn: postgres:// URL or key=value string
  - logger: *slog.Logger

Returns:
  - *pgxpool.Pool: Connected pool; the caller closes it
  - error: Invalid DSN or unreachable server
*/
func NewPool(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}

	config.MaxConns = maxConns
	config.MinConns = minConns
	config.MaxConnLifetime = maxConnLifetime
	config.MaxConnIdleTime = maxConnIdleTime
	config.HealthCheckPeriod = healthCheckPeriod
	config.ConnConfig.ConnectTimeout = connectTimeout

	runtime := config.ConnConfig.RuntimeParams
	runtime["application_name"] = constants.AppName
	runtime["statement_timeout"] = fmt.Sprintf("%d", constants.GlobalRequestTimeout.Milliseconds())
	runtime["lock_timeout"] = fmt.Sprintf("%d", lockTimeout.Milliseconds())

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}

	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres_connected",
		slog.String("host", config.ConnConfig.Host),
		slog.String("database", config.ConnConfig.Database),
		slog.Int("max_conns", int(config.MaxConns)),
	)

	return pool, nil
}

// Ping round-trips to the server within pingTimeout.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}
