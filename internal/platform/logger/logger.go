// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package logger builds the process-wide structured logger.

Records always go to stdout (JSON in production, text in development). When a
Sentry DSN is configured, error-level records are additionally fanned out to
Sentry through slog-sentry.
*/
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"

	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
)

// Options controls the handler chain.
type Options struct {
	Development bool
	Debug       bool
	SentryDSN   string
	Environment string
}

// New creates the base logger writing to out.
//
// The returned flush function drains buffered Sentry events and must be
// called before the process exits.
func New(out io.Writer, options Options) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if options.Debug || options.Development {
		level = slog.LevelDebug
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	if options.Development {
		handlers = append(handlers, slog.NewTextHandler(out, handlerOptions))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(out, handlerOptions))
	}

	flush := func() {}

	// Optional Sentry handler (errors only)
	if options.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         options.SentryDSN,
			Environment: options.Environment,
			Release:     constants.AppName + "@" + constants.AppVersion,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("logger: sentry init failed: %w", err)
		}

		handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
		flush = func() { sentry.Flush(2 * time.Second) }
	}

	var handler slog.Handler = handlers[0]
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	}

	logger := slog.New(handler).With(
		slog.String("app", constants.AppName),
		slog.String("version", constants.AppVersion),
	)

	return logger, flush, nil
}
