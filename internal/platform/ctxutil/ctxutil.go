// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil reads and writes the per-request values Shelf keeps in a
// [context.Context]: request ID, logger and the authenticated caller.
package ctxutil

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/taibuivan/yomira-shelf/internal/platform/ctxkey"
	"github.com/taibuivan/yomira-shelf/internal/platform/sec"
)

// WithRequestID attaches the correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID returns the correlation ID, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// WithLogger attaches a request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger returns the request-scoped logger, falling back to [slog.Default].
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// # Caller Identity

// ClaimsHolder lets an outer middleware observe claims attached further in
// the chain, after the request context has been replaced.
type ClaimsHolder struct {
	claims atomic.Pointer[sec.AuthClaims]
}

// Claims returns the recorded claims, or nil for anonymous requests.
func (holder *ClaimsHolder) Claims() *sec.AuthClaims {
	return holder.claims.Load()
}

// WithClaimsHolder installs holder; later [WithAuthUser] calls fill it.
func WithClaimsHolder(ctx context.Context, holder *ClaimsHolder) context.Context {
	return context.WithValue(ctx, ctxkey.KeyClaimsHolder, holder)
}

// WithAuthUser attaches the verified caller and records it in any installed [ClaimsHolder].
func WithAuthUser(ctx context.Context, claims *sec.AuthClaims) context.Context {
	if holder, ok := ctx.Value(ctxkey.KeyClaimsHolder).(*ClaimsHolder); ok {
		holder.claims.Store(claims)
	}
	return context.WithValue(ctx, ctxkey.KeyUser, claims)
}

// GetAuthUser returns the caller's claims, or nil for anonymous requests.
func GetAuthUser(ctx context.Context) *sec.AuthClaims {
	claims, _ := ctx.Value(ctxkey.KeyUser).(*sec.AuthClaims)
	return claims
}
