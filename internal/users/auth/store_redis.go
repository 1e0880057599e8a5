// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
)

// The window starts at the first failure and is not extended by later ones.
var recordFailureScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisAttemptCounter implements [AttemptCounter] with expiring Redis counters.
type RedisAttemptCounter struct {
	client *redis.Client
	window time.Duration
}

// NewRedisAttemptCounter counts failures per login for window.
func NewRedisAttemptCounter(client *redis.Client, window time.Duration) *RedisAttemptCounter {
	return &RedisAttemptCounter{client: client, window: window}
}

func (counter *RedisAttemptCounter) key(login string) string {
	return constants.RedisPrefixLoginAttempts + login
}

// Failures implements [AttemptCounter].
func (counter *RedisAttemptCounter) Failures(context context.Context, login string) (int, error) {
	value, err := counter.client.Get(context, counter.key(login)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis_login_attempts_get: %w", err)
	}
	return value, nil
}

// RecordFailure implements [AttemptCounter].
func (counter *RedisAttemptCounter) RecordFailure(context context.Context, login string) (int, error) {
	current, err := recordFailureScript.Run(context, counter.client, []string{counter.key(login)}, counter.window.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("redis_login_attempts_record: %w", err)
	}
	return current, nil
}

// Reset implements [AttemptCounter].
func (counter *RedisAttemptCounter) Reset(context context.Context, login string) error {
	if err := counter.client.Del(context, counter.key(login)).Err(); err != nil {
		return fmt.Errorf("redis_login_attempts_reset: %w", err)
	}
	return nil
}
