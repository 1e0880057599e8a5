// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/access/accesstest"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/settings"
	"github.com/taibuivan/yomira-shelf/pkg/pointer"
)

var (
	admin  = access.Actor{UserID: "u-admin", RoleID: accesstest.AdminRoleID}
	member = access.Actor{UserID: "u-member", RoleID: accesstest.MemberRoleID}
)

type memoryRepository struct {
	mu     sync.Mutex
	values map[string]string
	fail   error
}

func (repository *memoryRepository) Load(_ context.Context) (map[string]string, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.fail != nil {
		return nil, repository.fail
	}
	copied := make(map[string]string, len(repository.values))
	for key, value := range repository.values {
		copied[key] = value
	}
	return copied, nil
}

func (repository *memoryRepository) Save(_ context.Context, values map[string]string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.values == nil {
		repository.values = map[string]string{}
	}
	for key, value := range values {
		repository.values[key] = value
	}
	return nil
}

type countingNotifier struct {
	published  int
	subscribed chan func()
}

func (notifier *countingNotifier) Publish(_ context.Context) error {
	notifier.published++
	return nil
}

func (notifier *countingNotifier) Subscribe(ctx context.Context, onChange func()) error {
	if notifier.subscribed != nil {
		notifier.subscribed <- onChange
	}
	<-ctx.Done()
	return nil
}

func newStore(repository *memoryRepository, notifier settings.Notifier) *settings.Store {
	return settings.NewStore(repository, settings.Defaults(1<<20), accesstest.NewChecker(), accesstest.Tx{}, notifier, accesstest.Logger())
}

func TestStore_ServesDefaultsUntilReload(t *testing.T) {
	repository := &memoryRepository{values: map[string]string{settings.KeySubmissionsOpen: "false"}}
	store := newStore(repository, nil)

	assert.True(t, store.Current().SubmissionsOpen)

	require.NoError(t, store.Reload(context.Background()))
	assert.False(t, store.Current().SubmissionsOpen)
	assert.Equal(t, "Shelf", store.Current().SiteName)
}

func TestStore_ReloadSkipsMalformedValues(t *testing.T) {
	repository := &memoryRepository{values: map[string]string{
		settings.KeyMaxUploadBytes:   "lots",
		settings.KeyDegradedApproval: "true",
		"unknown_key":                "x",
	}}
	store := newStore(repository, nil)

	require.NoError(t, store.Reload(context.Background()))
	assert.Equal(t, int64(1<<20), store.Current().MaxUploadBytes)
	assert.True(t, store.Current().DegradedApproval)
}

func TestStore_ReloadKeepsSnapshotOnInvalidValues(t *testing.T) {
	repository := &memoryRepository{values: map[string]string{settings.KeyMaxUploadBytes: "10"}}
	store := newStore(repository, nil)

	err := store.Reload(context.Background())
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	assert.Equal(t, int64(1<<20), store.Current().MaxUploadBytes)

	repository.fail = errors.New("down")
	assert.Error(t, store.Reload(context.Background()))
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	notifier := &countingNotifier{}
	repository := &memoryRepository{}
	store := newStore(repository, notifier)

	updated, err := store.Update(ctx, admin, settings.Patch{
		SiteName:         pointer.To("  Town Library "),
		DegradedApproval: pointer.To(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Town Library", updated.SiteName)
	assert.True(t, updated.DegradedApproval)
	assert.True(t, updated.SubmissionsOpen)
	assert.Equal(t, "true", repository.values[settings.KeyDegradedApproval])
	assert.Equal(t, 1, notifier.published)

	t.Run("rejects out of range values", func(t *testing.T) {
		_, err := store.Update(ctx, admin, settings.Patch{MaxUploadBytes: pointer.To(int64(settings.MaxUploadBytes + 1))})
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

		_, err = store.Update(ctx, admin, settings.Patch{SiteName: pointer.To("   ")})
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		assert.Equal(t, "Town Library", store.Current().SiteName)
	})

	t.Run("requires settings.manage", func(t *testing.T) {
		_, err := store.Update(ctx, member, settings.Patch{SubmissionsOpen: pointer.To(false)})
		assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

		_, err = store.Get(ctx, member)
		assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	})
}

func TestStore_ListenReloadsOnPeerChange(t *testing.T) {
	notifier := &countingNotifier{subscribed: make(chan func(), 1)}
	repository := &memoryRepository{}
	store := newStore(repository, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Listen(ctx) }()

	var onChange func()
	select {
	case onChange = <-notifier.subscribed:
	case <-time.After(time.Second):
		t.Fatal("listener never subscribed")
	}

	require.NoError(t, repository.Save(context.Background(), map[string]string{settings.KeySubmissionsOpen: "false"}))
	onChange()
	assert.False(t, store.Current().SubmissionsOpen)

	cancel()
	assert.NoError(t, <-done)
}

func TestStore_ReloadAs(t *testing.T) {
	notifier := &countingNotifier{}
	store := newStore(&memoryRepository{values: map[string]string{settings.KeySiteName: "Annex"}}, notifier)

	current, err := store.ReloadAs(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, "Annex", current.SiteName)
	assert.Equal(t, 1, notifier.published)
}
