// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publication_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/access/accesstest"
	"github.com/taibuivan/yomira-shelf/internal/library/document"
	"github.com/taibuivan/yomira-shelf/internal/library/librarytest"
	"github.com/taibuivan/yomira-shelf/internal/library/publication"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/lock"
	"github.com/taibuivan/yomira-shelf/internal/platform/storage"
	"github.com/taibuivan/yomira-shelf/internal/settings"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
)

var (
	admin     = access.Actor{UserID: "u-admin", RoleID: accesstest.AdminRoleID}
	librarian = access.Actor{UserID: "u-librarian", RoleID: accesstest.LibrarianRoleID}
	member    = access.Actor{UserID: "u-member", RoleID: accesstest.MemberRoleID}
)

const filename = "monthly-report-2024-03-15-2.pdf"

type fixture struct {
	service      *publication.Service
	publications *librarytest.Publications
	local        *storage.Local
	settings     *librarytest.Settings
	locker       *lock.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	placer, local := librarytest.Placement(t)
	fixture := &fixture{
		publications: librarytest.NewPublications(),
		local:        local,
		settings:     librarytest.NewSettings(),
		locker:       lock.NewMemory(),
	}
	fixture.service = publication.NewService(
		fixture.publications, librarytest.NoDuplicates{}, placer,
		accesstest.NewChecker(), fixture.locker, accesstest.Tx{}, fixture.settings, accesstest.Logger(),
	)
	return fixture
}

func (fixture *fixture) exists(t *testing.T, path string) bool {
	t.Helper()
	exists, err := fixture.local.Exists(context.Background(), path)
	require.NoError(t, err)
	return exists
}

func (fixture *fixture) store(t *testing.T) *publication.Publication {
	t.Helper()
	stored, err := fixture.service.Store(context.Background(), librarian, librarytest.Upload(filename, librarytest.PDF), document.Details{})
	require.NoError(t, err)
	return stored
}

func TestStore(t *testing.T) {
	fixture := newFixture(t)

	stored := fixture.store(t)
	assert.Equal(t, "monthly-report", stored.Name)
	assert.Equal(t, "monthly-report", stored.Title)
	assert.Equal(t, 2024, stored.Year)
	assert.Equal(t, 3, stored.Month)
	assert.Equal(t, 15, stored.Day)
	require.NotNil(t, stored.Page)
	assert.Equal(t, 2, *stored.Page)
	assert.Equal(t, "publications/monthly-report/2024/03/15/"+filename, stored.StoragePath)
	assert.Equal(t, "/files/"+stored.StoragePath, stored.URL)
	assert.Equal(t, librarian.UserID, stored.OwnerID)
	assert.True(t, fixture.exists(t, stored.StoragePath))

	t.Run("rejects the same document twice", func(t *testing.T) {
		_, err := fixture.service.Store(context.Background(), librarian, librarytest.Upload(filename, librarytest.PDF), document.Details{})
		assert.True(t, apperr.HasCode(err, apperr.CodeDuplicateSubmission))
		assert.Equal(t, 1, fixture.publications.Count())
	})

	t.Run("requires publications.create", func(t *testing.T) {
		_, err := fixture.service.Store(context.Background(), member, librarytest.Upload("other-2024-03-15.pdf", librarytest.PDF), document.Details{})
		assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	})

	t.Run("rejects malformed names without writing", func(t *testing.T) {
		_, err := fixture.service.Store(context.Background(), admin, librarytest.Upload("notes.pdf", librarytest.PDF), document.Details{})
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		assert.Equal(t, 1, fixture.publications.Count())
	})
}

func TestStore_RemovesFileWhenRowFails(t *testing.T) {
	fixture := newFixture(t)
	fixture.publications.Fail["Create"] = errors.New("insert failed")

	_, err := fixture.service.Store(context.Background(), librarian, librarytest.Upload(filename, librarytest.PDF), document.Details{Title: "March"})
	require.Error(t, err)
	assert.False(t, fixture.exists(t, "publications/monthly-report/2024/03/15/"+filename))
}

func TestStore_RespectsUploadLimit(t *testing.T) {
	fixture := newFixture(t)
	fixture.settings.Set(func(current *settings.Settings) { current.MaxUploadBytes = 16 })

	_, err := fixture.service.Store(context.Background(), librarian, librarytest.Upload(filename, librarytest.PDF), document.Details{})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

func TestDownload(t *testing.T) {
	fixture := newFixture(t)
	stored := fixture.store(t)

	content, record, err := fixture.service.Download(context.Background(), stored.ID)
	require.NoError(t, err)
	defer content.Close()

	body, err := io.ReadAll(content)
	require.NoError(t, err)
	assert.Equal(t, librarytest.PDF, body)
	assert.Equal(t, filename, record.OriginalFilename)
}

func TestDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t)
	stored := fixture.store(t)

	require.NoError(t, fixture.service.Delete(ctx, librarian, stored.ID))

	_, err := fixture.service.Get(ctx, stored.ID)
	assert.True(t, apperr.IsNotFound(err))
	assert.False(t, fixture.exists(t, stored.StoragePath))

	archived, total, err := fixture.service.ListDeleted(ctx, librarian, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, librarian.UserID, archived[0].DeletedByID)
	assert.Equal(t, "deleted-publications/monthly-report/2024/03/15/"+filename, archived[0].StoragePath)
	assert.True(t, fixture.exists(t, archived[0].StoragePath))

	restored, err := fixture.service.Restore(ctx, librarian, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, restored.ID)
	assert.Equal(t, stored.StoragePath, restored.StoragePath)
	assert.True(t, fixture.exists(t, restored.StoragePath))

	_, total, err = fixture.service.ListDeleted(ctx, librarian, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDelete_MovesFileBackWhenArchiveFails(t *testing.T) {
	fixture := newFixture(t)
	stored := fixture.store(t)
	fixture.publications.Fail["Archive"] = errors.New("archive failed")

	require.Error(t, fixture.service.Delete(context.Background(), librarian, stored.ID))
	assert.True(t, fixture.exists(t, stored.StoragePath))
	assert.Equal(t, 1, fixture.publications.Count())
}

func TestDelete_ToleratesMissingFile(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t)
	stored := fixture.store(t)
	require.NoError(t, fixture.local.Delete(ctx, stored.StoragePath))

	require.NoError(t, fixture.service.Delete(ctx, librarian, stored.ID))

	archived, err := fixture.publications.FindDeleted(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.StoragePath, archived.StoragePath)
}

func TestDelete_RejectsConcurrentChange(t *testing.T) {
	fixture := newFixture(t)
	stored := fixture.store(t)

	release, err := fixture.locker.TryAcquire(context.Background(), publication.LockKey(stored.ID))
	require.NoError(t, err)
	defer release()

	err = fixture.service.Delete(context.Background(), librarian, stored.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeTransitionInProgress))
}

func TestRestore_BlockedByLiveDuplicate(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t)
	stored := fixture.store(t)
	require.NoError(t, fixture.service.Delete(ctx, librarian, stored.ID))

	fixture.store(t)

	_, err := fixture.service.Restore(ctx, librarian, stored.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeDuplicateSubmission))
}

func TestRestore_MissingFileHonoursDegradedMode(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t)
	stored := fixture.store(t)
	require.NoError(t, fixture.service.Delete(ctx, librarian, stored.ID))

	archived, err := fixture.publications.FindDeleted(ctx, stored.ID)
	require.NoError(t, err)
	require.NoError(t, fixture.local.Delete(ctx, archived.StoragePath))

	_, err = fixture.service.Restore(ctx, librarian, stored.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeFileNotFound))

	fixture.settings.Set(func(current *settings.Settings) { current.DegradedApproval = true })
	restored, err := fixture.service.Restore(ctx, librarian, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, archived.StoragePath, restored.StoragePath)
}

func TestForceDelete_IsIrreversible(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t)
	stored := fixture.store(t)
	require.NoError(t, fixture.service.Delete(ctx, librarian, stored.ID))

	archived, err := fixture.publications.FindDeleted(ctx, stored.ID)
	require.NoError(t, err)

	t.Run("requires publications.force_delete", func(t *testing.T) {
		err := fixture.service.ForceDelete(ctx, librarian, stored.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	})

	require.NoError(t, fixture.service.ForceDelete(ctx, admin, stored.ID))
	assert.False(t, fixture.exists(t, archived.StoragePath))

	_, err = fixture.service.Restore(ctx, admin, stored.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestList_Filters(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t)
	fixture.store(t)

	_, err := fixture.service.Store(ctx, admin, librarytest.Upload("gazette-2023-07-01.pdf", librarytest.PDF), document.Details{Title: "Summer Gazette"})
	require.NoError(t, err)

	all, total, err := fixture.service.List(ctx, publication.Filter{}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	_, total, err = fixture.service.List(ctx, publication.Filter{Year: 2023}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	found, _, err := fixture.service.List(ctx, publication.Filter{Search: "summer"}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "gazette", found[0].Name)
}
