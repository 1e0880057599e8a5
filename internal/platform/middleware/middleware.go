// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware holds the HTTP chain every Shelf request passes through.

Order, outermost first, as wired by the api package:

	RequestID -> StructuredLogger -> PanicRecovery -> CORS -> RateLimit -> Authenticate

Authorization guards ([RequireAuth], [RequirePermission]) are attached per
route group. Domain handlers see a context that already carries the request
ID, the per-request logger and, when a bearer token was sent, the caller's claims.
*/
package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
	"github.com/taibuivan/yomira-shelf/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-shelf/internal/platform/respond"
	"github.com/taibuivan/yomira-shelf/pkg/uuid"
)

// maxRequestIDLength caps client-supplied correlation IDs before they reach logs.
const maxRequestIDLength = 128

// # Correlation

// RequestID echoes a well-formed X-Request-ID or mints a UUIDv7 one.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requestID := request.Header.Get(constants.HeaderXRequestID)
			if !printableID(requestID) {
				requestID = uuid.New()
			}

			writer.Header().Set(constants.HeaderXRequestID, requestID)
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithRequestID(request.Context(), requestID)))
		})
	}
}

func printableID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}

// # Access Log

// responseRecorder remembers what the handler wrote for the access log line.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (recorder *responseRecorder) WriteHeader(status int) {
	if recorder.status == 0 {
		recorder.status = status
	}
	recorder.ResponseWriter.WriteHeader(status)
}

func (recorder *responseRecorder) Write(body []byte) (int, error) {
	if recorder.status == 0 {
		recorder.status = http.StatusOK
	}
	n, err := recorder.ResponseWriter.Write(body)
	recorder.written += int64(n)
	return n, err
}

// Unwrap lets [http.ResponseController] reach the underlying writer.
func (recorder *responseRecorder) Unwrap() http.ResponseWriter {
	return recorder.ResponseWriter
}

/*
StructuredLogger stores a request-scoped child of logger in the context and
writes one "http_request_finished" line per request.

The level follows the status: 5xx logs at Error, 4xx at Warn, the rest at Info.
*/
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			started := time.Now()

			requestLogger := logger.With(
				slog.String("request_id", ctxutil.GetRequestID(request.Context())),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", RealIP(request)),
			)

			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			recorder := &responseRecorder{ResponseWriter: writer}

			// Authenticate runs further in; it leaves claims on a derived request.
			// The holder lets them surface here for the access line.
			holder := &ctxutil.ClaimsHolder{}
			ctx = ctxutil.WithClaimsHolder(ctx, holder)

			next.ServeHTTP(recorder, request.WithContext(ctx))

			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.Int("status", status),
				slog.Int64("bytes", recorder.written),
				slog.Duration("latency", time.Since(started)),
				slog.String("user_agent", request.UserAgent()),
			}
			if claims := holder.Claims(); claims != nil {
				attrs = append(attrs, slog.String("user_id", claims.UserID))
			}

			requestLogger.LogAttrs(ctx, level, "http_request_finished", attrs...)
		})
	}
}

// # Rate Limiting

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client address.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

func (limiter *ipLimiter) allow(ip string, now time.Time) bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	entry, ok := limiter.visitors[ip]
	if !ok {
		entry = &visitor{limiter: rate.NewLimiter(limiter.limit, limiter.burst)}
		limiter.visitors[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (limiter *ipLimiter) evictIdle(now time.Time) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	for ip, entry := range limiter.visitors {
		if now.Sub(entry.lastSeen) > constants.RateLimitClientTTL {
			delete(limiter.visitors, ip)
		}
	}
}

/*
RateLimit throttles each client IP with its own token bucket.

Idle buckets are swept every [constants.RateLimitCleanupInterval] until
context is cancelled. Rejected requests receive 429 RATE_LIMITED with a
Retry-After of one second.
*/
func RateLimit(context context.Context) func(http.Handler) http.Handler {
	limiter := &ipLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(constants.DefaultRateLimitRPS),
		burst:    constants.DefaultRateLimitBurst,
	}

	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				limiter.evictIdle(now)
			case <-context.Done():
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if !limiter.allow(RealIP(request), time.Now()) {
				respond.Error(writer, request, apperr.RateLimited(1))
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// # Recovery

// PanicRecovery turns a handler panic into a logged 500 INTERNAL_ERROR.
// [http.ErrAbortHandler] is re-raised so net/http can abort the connection.
func PanicRecovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "panic_recovered",
					slog.Any("panic", recovered),
					slog.String("stack", string(debug.Stack())),
				)
				respond.Error(writer, request, apperr.Internal(nil))
			}()

			next.ServeHTTP(writer, request)
		})
	}
}

// # CORS

// AppConfig is the slice of configuration the CORS middleware reads.
type AppConfig interface {
	IsDevelopment() bool
	AllowedOrigins() []string
}

const (
	corsAllowMethods  = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsAllowHeaders  = "Accept, Authorization, Content-Type, X-Request-ID"
	corsExposeHeaders = "Content-Disposition, Retry-After, X-Request-ID"
	corsMaxAge        = "600"
)

/*
CORS answers cross-origin requests from the configured origins.

Development mode reflects any origin. Preflight requests are answered with
204 whether or not the origin is accepted; browsers enforce the outcome.
*/
func CORS(cfg AppConfig) func(http.Handler) http.Handler {
	allowed := cfg.AllowedOrigins()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			header := writer.Header()
			header.Add("Vary", constants.HeaderOrigin)

			if cfg.IsDevelopment() || slices.Contains(allowed, origin) {
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			}

			if request.Method == http.MethodOptions && request.Header.Get("Access-Control-Request-Method") != "" {
				header.Set("Access-Control-Allow-Methods", corsAllowMethods)
				header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				header.Set("Access-Control-Max-Age", corsMaxAge)
				writer.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Helpers

// RealIP returns the client address: X-Real-IP, then the first
// X-Forwarded-For hop, then the connection's remote host.
func RealIP(request *http.Request) string {
	if ip := strings.TrimSpace(request.Header.Get(constants.HeaderXRealIP)); ip != "" {
		return ip
	}

	if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}
