// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
)

// RedisNotifier fans reload announcements out over a Redis channel.
type RedisNotifier struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisNotifier creates a notifier on [constants.RedisChannelSettings].
func NewRedisNotifier(client *redis.Client, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger}
}

// Publish implements [Notifier].
func (notifier *RedisNotifier) Publish(ctx context.Context) error {
	return notifier.client.Publish(ctx, constants.RedisChannelSettings, "reload").Err()
}

// Subscribe implements [Notifier]. It blocks until ctx ends.
//
// Our own announcements come back too; the extra reload is harmless.
func (notifier *RedisNotifier) Subscribe(ctx context.Context, onChange func()) error {
	subscription := notifier.client.Subscribe(ctx, constants.RedisChannelSettings)
	defer subscription.Close()

	// Wait for the confirmation so a failed subscribe surfaces here.
	if _, err := subscription.Receive(ctx); err != nil {
		return err
	}

	notifier.logger.Info("settings_subscription_started", slog.String("channel", constants.RedisChannelSettings))

	messages := subscription.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-messages:
			if !ok {
				return nil
			}
			onChange()
		}
	}
}
