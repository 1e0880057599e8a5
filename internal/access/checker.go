// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/ctxkey"
)

// # Request Scope

// Scope memoizes role lookups for the lifetime of one request.
// Without a scope in the context every check queries storage again.
type Scope struct {
	mu          sync.Mutex
	roles       map[string]*Role
	permissions map[string]map[string]struct{}
}

// WithScope attaches a fresh [Scope] to ctx.
func WithScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxkey.KeyAccessScope, &Scope{
		roles:       make(map[string]*Role),
		permissions: make(map[string]map[string]struct{}),
	})
}

// ScopeFrom returns the scope bound to ctx, or nil.
func ScopeFrom(ctx context.Context) *Scope {
	scope, _ := ctx.Value(ctxkey.KeyAccessScope).(*Scope)
	return scope
}

// Scoped is the middleware that opens a [Scope] per request.
func Scoped(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		next.ServeHTTP(writer, request.WithContext(WithScope(request.Context())))
	})
}

// # Checker

// Checker answers permission and role questions for actors.
type Checker struct {
	roles  RoleLookup
	logger *slog.Logger
}

// NewChecker builds a checker over role storage.
func NewChecker(roles RoleLookup, logger *slog.Logger) *Checker {
	return &Checker{roles: roles, logger: logger}
}

func (checker *Checker) role(context context.Context, roleID string) (*Role, error) {
	scope := ScopeFrom(context)
	if scope != nil {
		scope.mu.Lock()
		cached, ok := scope.roles[roleID]
		scope.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	role, err := checker.roles.FindByID(context, roleID)
	if err != nil {
		return nil, err
	}

	if scope != nil {
		scope.mu.Lock()
		scope.roles[roleID] = role
		scope.mu.Unlock()
	}

	return role, nil
}

func (checker *Checker) permissionSet(context context.Context, roleID string) (map[string]struct{}, error) {
	scope := ScopeFrom(context)
	if scope != nil {
		scope.mu.Lock()
		cached, ok := scope.permissions[roleID]
		scope.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	permissions, err := checker.roles.ListPermissions(context, roleID)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(permissions))
	for _, permission := range permissions {
		set[permission.Name] = struct{}{}
	}

	if scope != nil {
		scope.mu.Lock()
		scope.permissions[roleID] = set
		scope.mu.Unlock()
	}

	return set, nil
}

/*
RoleHasPermission reports whether the role grants the permission, either
directly or through the wildcard.

Parameters:
  - context: context.Context
  - roleID: string
  - permission: string

Returns:
  - bool: Whether the grant exists
  - error: Storage failures
*/
func (checker *Checker) RoleHasPermission(context context.Context, roleID, permission string) (bool, error) {
	if roleID == "" {
		return false, nil
	}

	set, err := checker.permissionSet(context, roleID)
	if err != nil {
		return false, fmt.Errorf("access_checker_permissions_failed: %w", err)
	}

	if _, ok := set[Wildcard]; ok {
		return true, nil
	}

	_, ok := set[permission]
	return ok, nil
}

// IsAdmin reports whether the actor's role holds the wildcard.
func (checker *Checker) IsAdmin(context context.Context, actor Actor) bool {
	return checker.HasPermission(context, actor, Wildcard)
}

// HasPermission is [Checker.RoleHasPermission] for an actor. Lookup failures deny.
func (checker *Checker) HasPermission(context context.Context, actor Actor, permission string) bool {
	allowed, err := checker.RoleHasPermission(context, actor.RoleID, permission)
	if err != nil {
		checker.logger.Warn("permission_check_failed",
			slog.String("user_id", actor.UserID),
			slog.String("permission", permission),
			slog.String("error", err.Error()),
		)
		return false
	}
	return allowed
}

// HasRole reports whether the actor's role is named nameOrSlug, ignoring case.
func (checker *Checker) HasRole(context context.Context, actor Actor, nameOrSlug string) bool {
	if actor.RoleID == "" {
		return false
	}

	role, err := checker.role(context, actor.RoleID)
	if err != nil {
		if !apperr.IsNotFound(err) {
			checker.logger.Warn("role_check_failed",
				slog.String("user_id", actor.UserID),
				slog.String("error", err.Error()),
			)
		}
		return false
	}

	return role.Matches(nameOrSlug)
}

/*
Require fails with FORBIDDEN unless the actor holds the permission.

Returns:
  - error: apperr.Unauthorized for anonymous actors, apperr.Forbidden when denied,
    apperr.Internal when the grants could not be loaded
*/
func (checker *Checker) Require(context context.Context, actor Actor, permission string) error {
	if actor.UserID == "" {
		return apperr.Unauthorized("Authentication required")
	}

	allowed, err := checker.RoleHasPermission(context, actor.RoleID, permission)
	if err != nil {
		return apperr.Internal(err)
	}

	if !allowed {
		return apperr.Forbidden("Insufficient permissions")
	}

	return nil
}
