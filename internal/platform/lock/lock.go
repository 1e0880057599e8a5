// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package lock provides non-blocking, per-key mutual exclusion.

Review transitions hold a lock on "<kind>:<id>" for their whole duration.
A second caller does not queue behind the first; it receives [ErrLocked]
immediately and the API reports the conflict to the client.

Two implementations exist:

  - Memory: a keyed mutex for single-instance deployments and tests.
  - Redis: SET NX PX with a token-checked release, shared across instances.
*/
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
)

// ErrLocked is returned when another holder owns the key.
var ErrLocked = errors.New("lock: key is held by another caller")

// Release gives a held lock back. It is safe to call more than once.
type Release func()

// Locker acquires exclusive, non-blocking locks on string keys.
type Locker interface {
	TryAcquire(ctx context.Context, key string) (Release, error)
}

// Memory is an in-process [Locker].
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemory returns an empty in-process locker.
func NewMemory() *Memory {
	return &Memory{held: make(map[string]struct{})}
}

// TryAcquire implements [Locker].
func (memory *Memory) TryAcquire(_ context.Context, key string) (Release, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if _, taken := memory.held[key]; taken {
		return nil, ErrLocked
	}
	memory.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			memory.mu.Lock()
			delete(memory.held, key)
			memory.mu.Unlock()
		})
	}, nil
}

// Acquire takes key on locker and translates a held key into a
// TRANSITION_IN_PROGRESS AppError.
func Acquire(ctx context.Context, locker Locker, key string) (Release, error) {
	release, err := locker.TryAcquire(ctx, key)
	if errors.Is(err, ErrLocked) {
		return nil, apperr.TransitionInProgress().WithCause(err)
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("lock: acquire %s: %w", key, err))
	}
	return release, nil
}
