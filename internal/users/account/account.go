// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles profile management, session visibility and the
administrative user directory.

# Architecture

  - Entities: [SessionInfo] and [AdminView] are transport views over auth data.
  - Domain: This package depends on the auth package for the User entity and on
    access for role lookups and permission checks.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/yomira-shelf/internal/users/auth"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
	"github.com/taibuivan/yomira-shelf/pkg/slice"
)

// # Domain Entities

// SessionInfo is a session as shown to its owner. Token hashes never leave the service.
type SessionInfo struct {
	ID         string    `json:"id"`
	DeviceName string    `json:"device_name"`
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsCurrent  bool      `json:"is_current"`
	TokenHash  string    `json:"-"`
}

// AdminView is the administrative rendering of a user. Accounts hold a single
// role; Roles repeats it as a one-element list for admin clients that expect
// a collection. Nothing about it is persisted.
type AdminView struct {
	*auth.User
	Roles []auth.RoleRef `json:"roles"`
}

// NewAdminView wraps a user for admin responses.
func NewAdminView(user *auth.User) AdminView {
	view := AdminView{User: user, Roles: []auth.RoleRef{}}
	if user.Role != nil {
		view.Roles = append(view.Roles, *user.Role)
	}
	return view
}

// AdminViews maps users onto [AdminView]s.
func AdminViews(users []*auth.User) []AdminView {
	return slice.Map(users, NewAdminView)
}

// Filter narrows the admin user listing.
type Filter struct {
	Search string // Matches username, email or display name
	RoleID string
}

// # Repository Contracts

// AccountRepository defines the persistence contract for user accounts.
type AccountRepository interface {

	// FindByID retrieves a live account. Returns NOT_FOUND when missing or deleted.
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		List returns one page of live accounts, newest first.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - page: pagination.Params

		Returns:
		  - []*auth.User: The requested page
		  - int: Total matches across all pages
		  - error: Storage failures
	*/
	List(context context.Context, filter Filter, page pagination.Params) ([]*auth.User, int, error)

	// Create persists a new account. Duplicate username or email yields CONFLICT.
	Create(context context.Context, user *auth.User) error

	/*
		Update modifies username, email and display name.

		Parameters:
		  - context: context.Context
		  - user: *auth.User (Hydrated entity with changes)

		Returns:
		  - error: CONFLICT on duplicate identity, or storage failures
	*/
	Update(context context.Context, user *auth.User) error

	// UpdateRole assigns the account's single role.
	UpdateRole(context context.Context, userID, roleID string) error

	// SoftDelete flags an account as logically deleted.
	SoftDelete(context context.Context, id string) error
}

// SessionRepository defines the visibility and revocation contract for user sessions.
type SessionRepository interface {

	// FindActiveByUserID lists unrevoked, unexpired sessions, newest first.
	FindActiveByUserID(context context.Context, userID string) ([]SessionInfo, error)

	/*
		Revoke marks a session as revoked, scoped to its owner.

		Parameters:
		  - context: context.Context
		  - userID: string (Owner; sessions of other users are untouched)
		  - sessionID: string

		Returns:
		  - error: NOT_FOUND when the owner has no such active session
	*/
	Revoke(context context.Context, userID, sessionID string) error

	// RevokeOthers revokes every active session except currentSessionID.
	RevokeOthers(context context.Context, userID, currentSessionID string) error

	// RevokeAll terminates every session for a user.
	RevokeAll(context context.Context, userID string) error
}
