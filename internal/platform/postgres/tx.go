// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-shelf/internal/platform/ctxkey"
)

// # Transaction Plumbing

// DBTX is the subset of pgx used by repositories.
// Both [*pgxpool.Pool] and [pgx.Tx] satisfy this interface.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Transactor runs a function inside a single database transaction.
//
// Repositories called with the context handed to fn join the transaction
// automatically through [Conn].
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxManager is the pgxpool-backed [Transactor].
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager wraps a pool for transactional work.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

/*
WithinTx begins a transaction, runs fn, and commits on success.

Any error or panic rolls the transaction back; panics are rethrown.
Nested calls reuse the outer transaction.

Parameters:
  - ctx: context.Context
  - fn: func(ctx context.Context) error (Unit of work)

Returns:
  - error: The error from fn, or a begin/commit failure
*/
func (manager *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, nested := ctx.Value(ctxkey.KeyTx).(pgx.Tx); nested {
		return fn(ctx)
	}

	tx, err := manager.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin transaction: %w", err)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			_ = tx.Rollback(ctx)
			panic(recovered)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("postgres: commit transaction: %w", commitErr)
		}
	}()

	err = fn(context.WithValue(ctx, ctxkey.KeyTx, tx))
	return err
}

// Conn returns the transaction bound to ctx, or the pool when none is active.
func Conn(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx, ok := ctx.Value(ctxkey.KeyTx).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// InTx reports whether ctx carries an active transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(ctxkey.KeyTx).(pgx.Tx)
	return ok
}
