// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-shelf/internal/platform/respond"
	"github.com/taibuivan/yomira-shelf/internal/platform/sec"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*sec.AuthClaims, error)
}

// PermissionChecker answers whether a role grants a permission, counting
// the "*" wildcard.
type PermissionChecker interface {
	RoleHasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

/*
Authenticate verifies an "Authorization: Bearer" header when one is sent.

Requests without the header continue anonymously. A malformed header or a
token that fails verification is answered with 401; it never downgrades to
anonymous.
*/
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(writer, request)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthUser(request.Context(), claims)))
		})
	}
}

// RequireAuth answers 401 unless [Authenticate] attached claims.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

/*
RequirePermission closes a route group to callers whose role lacks permission.

Anonymous callers get 401, authenticated ones without the grant 403. A failed
lookup counts as not granted. Services still check their own operations.
*/
func RequirePermission(checker PermissionChecker, permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			granted, err := checker.RoleHasPermission(request.Context(), claims.RoleID, permission)
			if err != nil {
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "permission_lookup_failed",
					slog.String("role_id", claims.RoleID),
					slog.String("permission", permission),
					slog.Any("error", err),
				)
			}
			if err != nil || !granted {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
