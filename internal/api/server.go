// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api assembles the Shelf HTTP surface: the middleware chain, the
/health and /ready probes, and every domain router under /api/v1.

Route map:

	/api/v1/auth           register, login, refresh, logout, change-password
	/api/v1/me             own profile and sessions (authenticated)
	/api/v1/submissions    upload and review workflow
	/api/v1/publications   catalogue, download, delete, restore
	/api/v1/admin/...      users, roles, permissions, settings (permission-gated)
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/library/publication"
	"github.com/taibuivan/yomira-shelf/internal/library/submission"
	"github.com/taibuivan/yomira-shelf/internal/platform/config"
	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
	"github.com/taibuivan/yomira-shelf/internal/platform/middleware"
	"github.com/taibuivan/yomira-shelf/internal/settings"
	"github.com/taibuivan/yomira-shelf/internal/users/account"
	"github.com/taibuivan/yomira-shelf/internal/users/auth"
)

// Server owns the router and the listening [http.Server].
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// Handlers are the mounted route sets, built in cmd/api.
type Handlers struct {
	Liveness  http.HandlerFunc
	Readiness http.HandlerFunc

	Auth         *auth.Handler
	Account      *account.Handler
	Access       *access.Handler
	Submissions  *submission.Handler
	Publications *publication.Handler
	Settings     *settings.Handler
}

/*
NewServer builds the router.

Parameters:
  - context: Stops the rate limiter's sweeper when cancelled
  - verifier: Bearer token verification
  - checker: Backs the /admin permission gates
*/
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, checker middleware.PermissionChecker, h Handlers) *Server {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID(),
		middleware.StructuredLogger(log),
		middleware.PanicRecovery(log),
		chimw.CleanPath,
		middleware.CORS(cfg),
		middleware.RateLimit(context),
		chimw.Timeout(constants.GlobalRequestTimeout),
		middleware.Authenticate(verifier),
		access.Scoped,
	)

	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", h.Auth.Routes())
		api.Mount("/submissions", h.Submissions.Routes())
		api.Mount("/publications", h.Publications.Routes())

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireAuth)
			protected.Mount("/me", h.Account.Routes())
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.RequireAuth)
			admin.With(middleware.RequirePermission(checker, access.PermUsersManage)).Mount("/users", h.Account.AdminRoutes())
			admin.With(middleware.RequirePermission(checker, access.PermRolesManage)).Mount("/roles", h.Access.RoleRoutes())
			admin.With(middleware.RequirePermission(checker, access.PermPermissionsManage)).Mount("/permissions", h.Access.PermissionRoutes())
			admin.With(middleware.RequirePermission(checker, access.PermSettingsManage)).Mount("/settings", h.Settings.Routes())
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler returns the router without the listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server stops; after Shutdown it returns
// [http.ErrServerClosed].
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits up to timeout for
// in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
