// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"

	"github.com/taibuivan/yomira-shelf/internal/access"
)

// UserRepository reads and writes live (not soft-deleted) accounts.
type UserRepository interface {
	FindByID(context context.Context, id string) (*User, error)

	// FindByLogin matches the email case-insensitively or the username exactly.
	FindByLogin(context context.Context, login string) (*User, error)

	// Exists reports which of email and username are already taken.
	Exists(context context.Context, email, username string) (emailTaken, usernameTaken bool, err error)

	Create(context context.Context, user *User) error
	UpdatePassword(context context.Context, userID, passwordHash string) error
}

// SessionRepository persists refresh-token sessions.
type SessionRepository interface {
	Create(context context.Context, session *Session) error

	// FindActive returns the unrevoked, unexpired session for tokenHash.
	FindActive(context context.Context, tokenHash string) (*Session, error)

	Revoke(context context.Context, sessionID string) error

	// RevokeOthers revokes every session of userID except keepID. An empty
	// keepID revokes them all.
	RevokeOthers(context context.Context, userID, keepID string) error
}

/*
AttemptCounter tracks failed logins per identifier inside a sliding window.

Implementations must expire counters on their own so a forgotten Reset
never locks an account forever.
*/
type AttemptCounter interface {
	Failures(context context.Context, key string) (int, error)
	RecordFailure(context context.Context, key string) (int, error)
	Reset(context context.Context, key string) error
}

// DefaultRoleProvider resolves the role given to new registrations.
type DefaultRoleProvider interface {
	DefaultRole(context context.Context) (*access.Role, error)
}
