// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/users/account"
	"github.com/taibuivan/yomira-shelf/internal/users/auth"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
)

type memoryAccounts struct {
	mu      sync.Mutex
	users   map[string]*auth.User
	deleted map[string]bool
}

func newMemoryAccounts(users ...*auth.User) *memoryAccounts {
	memory := &memoryAccounts{users: map[string]*auth.User{}, deleted: map[string]bool{}}
	for _, user := range users {
		memory.users[user.ID] = user
	}
	return memory
}

func (memory *memoryAccounts) FindByID(_ context.Context, id string) (*auth.User, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	user, ok := memory.users[id]
	if !ok || memory.deleted[id] {
		return nil, apperr.NotFound("Account")
	}
	clone := *user
	return &clone, nil
}

func (memory *memoryAccounts) List(_ context.Context, filter account.Filter, page pagination.Params) ([]*auth.User, int, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	var matched []*auth.User
	for id, user := range memory.users {
		if memory.deleted[id] {
			continue
		}
		if filter.RoleID != "" && user.RoleID != filter.RoleID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(user.Username+" "+user.Email), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, user)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)
	return matched[start:end], total, nil
}

func (memory *memoryAccounts) Create(_ context.Context, user *auth.User) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	for _, existing := range memory.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return apperr.Conflict("Username or email is already in use")
		}
	}
	clone := *user
	memory.users[user.ID] = &clone
	return nil
}

func (memory *memoryAccounts) Update(_ context.Context, user *auth.User) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if _, ok := memory.users[user.ID]; !ok {
		return apperr.NotFound("Account")
	}
	clone := *user
	memory.users[user.ID] = &clone
	return nil
}

func (memory *memoryAccounts) UpdateRole(_ context.Context, userID, roleID string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	user, ok := memory.users[userID]
	if !ok {
		return apperr.NotFound("Account")
	}
	user.RoleID = roleID
	return nil
}

func (memory *memoryAccounts) SoftDelete(_ context.Context, id string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if _, ok := memory.users[id]; !ok || memory.deleted[id] {
		return apperr.NotFound("Account")
	}
	memory.deleted[id] = true
	return nil
}

type memorySessions struct {
	mu       sync.Mutex
	sessions []account.SessionInfo
	owners   map[string]string
	revoked  map[string]bool
}

func newMemorySessions() *memorySessions {
	return &memorySessions{owners: map[string]string{}, revoked: map[string]bool{}}
}

func (memory *memorySessions) add(userID string, session account.SessionInfo) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	memory.sessions = append(memory.sessions, session)
	memory.owners[session.ID] = userID
}

func (memory *memorySessions) FindActiveByUserID(_ context.Context, userID string) ([]account.SessionInfo, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	var active []account.SessionInfo
	for _, session := range memory.sessions {
		if memory.owners[session.ID] == userID && !memory.revoked[session.ID] {
			active = append(active, session)
		}
	}
	return active, nil
}

func (memory *memorySessions) Revoke(_ context.Context, userID, sessionID string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if memory.owners[sessionID] != userID || memory.revoked[sessionID] {
		return apperr.NotFound("Session")
	}
	memory.revoked[sessionID] = true
	return nil
}

func (memory *memorySessions) RevokeOthers(_ context.Context, userID, currentSessionID string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	for id, owner := range memory.owners {
		if owner == userID && id != currentSessionID {
			memory.revoked[id] = true
		}
	}
	return nil
}

func (memory *memorySessions) RevokeAll(ctx context.Context, userID string) error {
	return memory.RevokeOthers(ctx, userID, "")
}
