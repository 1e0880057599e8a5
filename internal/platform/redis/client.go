// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis opens the shared go-redis client.

Shelf keeps nothing durable in Redis. It holds:

  - Transition locks (lock package), keyed by submission, publication or document.
  - The settings reload channel, one long-lived subscription per instance.
  - Failed-login counters that expire on their own.

Losing Redis therefore degrades the service without losing data.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 3 * time.Second
	ioTimeout   = 2 * time.Second
	pingTimeout = 2 * time.Second

	// The settings subscription pins one connection for the process lifetime.
	poolSize     = 12
	minIdleConns = 2
)

/*
NewClient parses redisURL (redis:// or rediss://), tunes the pool and
confirms the server answers before returning.

Parameters:
  - context: bounds the startup ping
  - redisURL: string
  - logger: *slog.Logger

Returns:
  - *redis.Client: Ready client; the caller closes it
  - error: Malformed URL or unreachable server
*/
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	options.PoolSize = poolSize
	options.MinIdleConns = minIdleConns
	options.DialTimeout = dialTimeout
	options.ReadTimeout = ioTimeout
	options.WriteTimeout = ioTimeout

	client := redis.NewClient(options)
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_connected", slog.String("addr", options.Addr), slog.Int("db", options.DB))

	return client, nil
}

// Ping round-trips a PING within pingTimeout.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}
