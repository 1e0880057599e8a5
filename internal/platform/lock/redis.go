// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
	"github.com/taibuivan/yomira-shelf/internal/platform/sec"
)

// releaseScript deletes the key only while it still holds our token,
// so an expired-and-reacquired lock is never released by the old owner.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a [Locker] shared by every API instance using the same Redis.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis builds a Redis-backed locker. Locks expire after ttl even if never released.
func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = constants.DefaultLockTTL
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// TryAcquire implements [Locker].
func (locker *Redis) TryAcquire(ctx context.Context, key string) (Release, error) {
	token, err := sec.GenerateSecureToken(16)
	if err != nil {
		return nil, err
	}

	redisKey := constants.RedisPrefixLock + key

	acquired, err := locker.client.SetNX(ctx, redisKey, token, locker.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
	}
	if !acquired {
		return nil, ErrLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release on a fresh context: the request context may already be cancelled.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			if err := releaseScript.Run(releaseCtx, locker.client, []string{redisKey}, token).Err(); err != nil {
				locker.logger.Warn("lock_release_failed",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
			}
		})
	}, nil
}
