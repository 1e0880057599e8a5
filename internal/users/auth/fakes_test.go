// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*User{}}
}

func (memory *memoryUsers) first(match func(*User) bool) (*User, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	for _, user := range memory.users {
		if match(user) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (memory *memoryUsers) FindByID(_ context.Context, id string) (*User, error) {
	return memory.first(func(user *User) bool { return user.ID == id })
}

func (memory *memoryUsers) FindByLogin(_ context.Context, login string) (*User, error) {
	return memory.first(func(user *User) bool {
		return strings.EqualFold(user.Email, login) || strings.EqualFold(user.Username, login)
	})
}

func (memory *memoryUsers) Exists(_ context.Context, email, username string) (bool, bool, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	var emailTaken, usernameTaken bool
	for _, user := range memory.users {
		emailTaken = emailTaken || strings.EqualFold(user.Email, email)
		usernameTaken = usernameTaken || user.Username == username
	}
	return emailTaken, usernameTaken, nil
}

func (memory *memoryUsers) Create(_ context.Context, user *User) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	clone := *user
	memory.users[user.ID] = &clone
	return nil
}

func (memory *memoryUsers) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	user, ok := memory.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = passwordHash
	return nil
}

func (memory *memoryUsers) remove(id string) {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	delete(memory.users, id)
}

type memorySession struct {
	Session
	revoked bool
}

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]*memorySession{}}
}

func (memory *memorySessions) Create(_ context.Context, session *Session) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	memory.sessions[session.ID] = &memorySession{Session: *session}
	return nil
}

func (memory *memorySessions) FindActive(_ context.Context, tokenHash string) (*Session, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	for _, stored := range memory.sessions {
		if stored.TokenHash == tokenHash && !stored.revoked && stored.ExpiresAt.After(time.Now()) {
			clone := stored.Session
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (memory *memorySessions) Revoke(_ context.Context, sessionID string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if stored, ok := memory.sessions[sessionID]; ok {
		stored.revoked = true
	}
	return nil
}

func (memory *memorySessions) RevokeOthers(_ context.Context, userID, keepID string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	for id, stored := range memory.sessions {
		if stored.UserID == userID && id != keepID {
			stored.revoked = true
		}
	}
	return nil
}

func (memory *memorySessions) active(userID string) int {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	count := 0
	for _, stored := range memory.sessions {
		if stored.UserID == userID && !stored.revoked {
			count++
		}
	}
	return count
}

// memoryAttempts never expires counters; tests reset them explicitly.
type memoryAttempts struct {
	mu       sync.Mutex
	counts   map[string]int
	unusable bool
}

func newMemoryAttempts() *memoryAttempts {
	return &memoryAttempts{counts: map[string]int{}}
}

var errCounterDown = errors.New("counter unavailable")

func (memory *memoryAttempts) Failures(_ context.Context, key string) (int, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if memory.unusable {
		return 0, errCounterDown
	}
	return memory.counts[key], nil
}

func (memory *memoryAttempts) RecordFailure(_ context.Context, key string) (int, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if memory.unusable {
		return 0, errCounterDown
	}
	memory.counts[key]++
	return memory.counts[key], nil
}

func (memory *memoryAttempts) Reset(_ context.Context, key string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if memory.unusable {
		return errCounterDown
	}
	delete(memory.counts, key)
	return nil
}

type stubTokens struct{}

func (stubTokens) GenerateAccessToken(userID, _, roleID string, _ time.Duration) (string, error) {
	return "access:" + userID + ":" + roleID, nil
}
