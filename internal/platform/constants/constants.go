// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package constants holds the fixed values Shelf does not expose as
// configuration: server timing, throttling, token naming, library bounds and
// the Redis key layout.
package constants

import "time"

const (
	AppName    = "shelf-api"
	AppVersion = "0.1.0-dev"
)

// # HTTP Server

const (
	// DefaultReadTimeout covers the whole request body, uploads included.
	DefaultReadTimeout       = 60 * time.Second
	DefaultWriteTimeout      = 60 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the handler deadline and the Postgres statement_timeout.
	GlobalRequestTimeout = 60 * time.Second

	// ShutdownTimeout is the grace period for in-flight requests on SIGTERM.
	ShutdownTimeout = 30 * time.Second
)

// # Per-IP Throttle

const (
	DefaultRateLimitRPS   = 50.0
	DefaultRateLimitBurst = 100

	// Buckets idle longer than RateLimitClientTTL are dropped on each sweep.
	RateLimitCleanupInterval = time.Minute
	RateLimitClientTTL       = 3 * time.Minute
)

// # Tokens

const (
	// AuthIssuer is written to and required in the "iss" claim.
	AuthIssuer = "shelf.yomira.app"

	// The refresh token travels only as an HttpOnly cookie scoped to /auth.
	RefreshTokenCookieName = "refresh_token"
	RefreshTokenCookiePath = "/api/v1/auth"
)

// # Library

const (
	// PlacementMaxAttempts is the highest "-N" suffix tried before a
	// placement gives up with PLACEMENT_EXHAUSTED. The bare name comes
	// first, so a placement makes PlacementMaxAttempts+1 tries in total
	// (name, name-1 ... name-100).
	PlacementMaxAttempts = 100

	RejectReasonMaxLength = 1000
	ReviewNotesMaxLength  = 2000

	// MultipartMemory is held in RAM while parsing an upload; the rest spills to disk.
	MultipartMemory int64 = 8 << 20

	// DefaultLockTTL expires a transition lock whose holder died.
	DefaultLockTTL = 30 * time.Second

	MimePDF = "application/pdf"
)

// # Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # Redis Keys

const (
	// RedisPrefixLoginAttempts + lowercased login counts recent failures.
	RedisPrefixLoginAttempts = "auth:login_attempts:"

	// RedisPrefixLock + "submission:{id}", "publication:{id}" or a "document:" identity key guards a transition.
	RedisPrefixLock = "lock:"

	// RedisChannelSettings carries reload notices between API instances.
	RedisChannelSettings = "settings:reload"
)
