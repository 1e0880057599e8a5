// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/lock"
)

/*
TestMemory_Exclusive verifies that a held key rejects a second caller.
*/
func TestMemory_Exclusive(t *testing.T) {
	ctx := context.Background()
	locker := lock.NewMemory()

	release, err := locker.TryAcquire(ctx, "submission:1")
	require.NoError(t, err)

	_, err = locker.TryAcquire(ctx, "submission:1")
	assert.ErrorIs(t, err, lock.ErrLocked)

	// Other keys are independent
	otherRelease, err := locker.TryAcquire(ctx, "submission:2")
	require.NoError(t, err)
	otherRelease()

	release()
	release() // idempotent

	again, err := locker.TryAcquire(ctx, "submission:1")
	require.NoError(t, err)
	again()
}

/*
TestMemory_Concurrent verifies exactly one winner under contention.
*/
func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	locker := lock.NewMemory()

	var winners atomic.Int32
	var start sync.WaitGroup
	var done sync.WaitGroup
	start.Add(1)

	for range 16 {
		done.Add(1)
		go func() {
			defer done.Done()
			start.Wait()
			if _, err := locker.TryAcquire(ctx, "publication:42"); err == nil {
				winners.Add(1)
			}
		}()
	}

	start.Done()
	done.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

/*
TestAcquire_MapsHeldKey verifies the conflict surfaces as an API error.
*/
func TestAcquire_MapsHeldKey(t *testing.T) {
	ctx := context.Background()
	locker := lock.NewMemory()

	release, err := lock.Acquire(ctx, locker, "publication:1")
	require.NoError(t, err)
	defer release()

	_, err = lock.Acquire(ctx, locker, "publication:1")
	assert.True(t, apperr.HasCode(err, apperr.CodeTransitionInProgress))
	assert.ErrorIs(t, err, lock.ErrLocked)
}
