// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/platform/postgres"
)

// # Contracts

// Repository persists setting rows.
type Repository interface {

	// Load returns every stored row keyed by setting name.
	Load(context stdctx.Context) (map[string]string, error)

	/*
		Save upserts the given rows.

		Parameters:
		  - context: stdctx.Context
		  - values: map[string]string

		Returns:
		  - error: Storage failures
	*/
	Save(context stdctx.Context, values map[string]string) error
}

// Notifier tells peer instances that the stored settings changed.
type Notifier interface {
	Publish(context stdctx.Context) error
	Subscribe(context stdctx.Context, onChange func()) error
}

// Provider is the read side consumed by other packages.
type Provider interface {
	Current() Settings
}

// # Store

// Store serves the current snapshot and applies admin updates.
type Store struct {
	repository Repository
	checker    *access.Checker
	tx         postgres.Transactor
	notifier   Notifier
	defaults   Settings
	current    atomic.Pointer[Settings]
	logger     *slog.Logger
}

// NewStore creates a store serving defaults until the first [Store.Reload].
// A nil notifier disables cross-instance reloads.
func NewStore(repository Repository, defaults Settings, checker *access.Checker, tx postgres.Transactor, notifier Notifier, logger *slog.Logger) *Store {
	store := &Store{
		repository: repository,
		checker:    checker,
		tx:         tx,
		notifier:   notifier,
		defaults:   defaults,
		logger:     logger,
	}
	store.current.Store(&defaults)
	return store
}

// Current returns the snapshot. It never touches storage.
func (store *Store) Current() Settings {
	return *store.current.Load()
}

/*
Reload replaces the snapshot with what storage holds now.

Description: Stored values are laid over the defaults. A malformed value is
logged and skipped; if the result fails validation the previous snapshot is
kept and an error returned.

Parameters:
  - context: stdctx.Context

Returns:
  - error: Storage or validation failures
*/
func (store *Store) Reload(context stdctx.Context) error {
	rows, err := store.repository.Load(context)
	if err != nil {
		return fmt.Errorf("settings_reload_failed: %w", err)
	}

	next, malformed := decode(store.defaults, rows)
	for _, key := range malformed {
		store.logger.Warn("setting_value_malformed", slog.String("key", key))
	}

	if err := next.Validate(); err != nil {
		store.logger.Error("settings_reload_rejected", slog.String("error", err.Error()))
		return err
	}

	store.current.Store(&next)
	store.logger.Info("settings_reloaded",
		slog.Int64("max_upload_bytes", next.MaxUploadBytes),
		slog.Bool("degraded_approval", next.DegradedApproval),
		slog.Bool("submissions_open", next.SubmissionsOpen),
	)

	return nil
}

// Get returns the snapshot to an administrator.
func (store *Store) Get(context stdctx.Context, actor access.Actor) (Settings, error) {
	if err := store.checker.Require(context, actor, access.PermSettingsManage); err != nil {
		return Settings{}, err
	}
	return store.Current(), nil
}

/*
Update validates and persists a patch, reloads, and notifies peers.

Parameters:
  - context: stdctx.Context
  - actor: access.Actor (must hold settings.manage)
  - patch: Patch

Returns:
  - Settings: The new snapshot
  - error: Validation or storage failures
*/
func (store *Store) Update(context stdctx.Context, actor access.Actor, patch Patch) (Settings, error) {
	if err := store.checker.Require(context, actor, access.PermSettingsManage); err != nil {
		return Settings{}, err
	}

	next := patch.Apply(store.Current())
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}

	err := store.tx.WithinTx(context, func(context stdctx.Context) error {
		return store.repository.Save(context, next.encode())
	})
	if err != nil {
		return Settings{}, fmt.Errorf("settings_update_failed: %w", err)
	}

	if err := store.Reload(context); err != nil {
		return Settings{}, err
	}

	store.logger.Info("settings_updated", slog.String("actor_id", actor.UserID))
	store.announce(context)

	return store.Current(), nil
}

// ReloadAs is [Store.Reload] on behalf of an administrator; peers reload too.
func (store *Store) ReloadAs(context stdctx.Context, actor access.Actor) (Settings, error) {
	if err := store.checker.Require(context, actor, access.PermSettingsManage); err != nil {
		return Settings{}, err
	}

	if err := store.Reload(context); err != nil {
		return Settings{}, err
	}

	store.announce(context)

	return store.Current(), nil
}

func (store *Store) announce(context stdctx.Context) {
	if store.notifier == nil {
		return
	}
	if err := store.notifier.Publish(context); err != nil {
		store.logger.Warn("settings_publish_failed", slog.String("error", err.Error()))
	}
}

/*
Listen reloads whenever a peer announces a change, until ctx ends.

Parameters:
  - ctx: stdctx.Context (cancel to stop listening)

Returns:
  - error: Subscription failures; nil when ctx ends or no notifier is set
*/
func (store *Store) Listen(ctx stdctx.Context) error {
	if store.notifier == nil {
		return nil
	}

	return store.notifier.Subscribe(ctx, func() {
		if err := store.Reload(ctx); err != nil {
			store.logger.Warn("settings_peer_reload_failed", slog.String("error", err.Error()))
		}
	})
}
