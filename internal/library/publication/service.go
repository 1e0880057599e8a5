// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publication

import (
	stdctx "context"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/library/document"
	"github.com/taibuivan/yomira-shelf/internal/library/placement"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/lock"
	"github.com/taibuivan/yomira-shelf/internal/platform/postgres"
	"github.com/taibuivan/yomira-shelf/internal/settings"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
	"github.com/taibuivan/yomira-shelf/pkg/uuid"
)

// LockKey names the lock serializing changes to one publication.
func LockKey(id string) string {
	return "publication:" + id
}

// Service implements publication listing, direct upload and the delete/restore lifecycle.
type Service struct {
	repository  Repository
	submissions document.DuplicateFinder
	placement   *placement.Service
	checker     *access.Checker
	locker      lock.Locker
	tx          postgres.Transactor
	settings    settings.Provider
	logger      *slog.Logger
}

// NewService constructs a publication service. submissions is consulted
// alongside the repository when a direct upload is checked for duplicates.
func NewService(
	repository Repository,
	submissions document.DuplicateFinder,
	placement *placement.Service,
	checker *access.Checker,
	locker lock.Locker,
	tx postgres.Transactor,
	settings settings.Provider,
	logger *slog.Logger,
) *Service {
	return &Service{
		repository:  repository,
		submissions: submissions,
		placement:   placement,
		checker:     checker,
		locker:      locker,
		tx:          tx,
		settings:    settings,
		logger:      logger,
	}
}

// # Public Reads

// List returns a page of publications.
func (service *Service) List(context stdctx.Context, filter Filter, page pagination.Params) ([]*Publication, int, error) {
	return service.repository.List(context, filter, page)
}

// Get returns one publication.
func (service *Service) Get(context stdctx.Context, id string) (*Publication, error) {
	return service.repository.FindByID(context, id)
}

// Download opens the publication's file. The caller closes the reader.
func (service *Service) Download(context stdctx.Context, id string) (io.ReadCloser, *Publication, error) {
	publication, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, nil, err
	}

	content, err := service.placement.Open(context, publication.StoragePath)
	if err != nil {
		return nil, nil, err
	}

	return content, publication, nil
}

// # Direct Upload

/*
Store publishes a document without moderation.

Description: The upload goes through the same filename, size, content and
duplicate rules as a submission, then lands directly in the permanent area.
If the row cannot be written the placed file is removed again.

Parameters:
  - context: stdctx.Context
  - actor: access.Actor (must hold publications.create)
  - upload: document.Upload
  - details: document.Details

Returns:
  - *Publication: The created record
  - error: VALIDATION_ERROR, DUPLICATE_SUBMISSION, storage or database failures
*/
func (service *Service) Store(context stdctx.Context, actor access.Actor, upload document.Upload, details document.Details) (*Publication, error) {
	if err := service.checker.Require(context, actor, access.PermPublicationsCreate); err != nil {
		return nil, err
	}

	details = details.Normalize()
	if err := details.Validate(); err != nil {
		return nil, err
	}

	inspection, err := document.Inspect(upload, service.settings.Current().MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	release, err := lock.Acquire(context, service.locker, inspection.Key.LockKey())
	if err != nil {
		return nil, err
	}
	defer release()

	if err := document.CheckDuplicate(context, inspection.Key, service.repository, service.submissions); err != nil {
		return nil, err
	}

	meta := inspection.Metadata
	target := placement.Target{Name: meta.Name, Year: meta.Year, Month: meta.Month, Day: meta.Day}

	storagePath, err := service.placement.Place(context, placement.AreaPermanent, target, upload.Filename, upload.Content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	publication := &Publication{
		ID:               uuid.New(),
		Name:             meta.Name,
		Title:            details.TitleOr(meta.Name),
		Description:      details.Description,
		OriginalFilename: upload.Filename,
		StoragePath:      storagePath,
		URL:              service.placement.URL(storagePath),
		MimeType:         inspection.MimeType,
		Size:             upload.Size,
		Year:             meta.Year,
		Month:            meta.Month,
		Day:              meta.Day,
		Page:             meta.Page,
		OwnerID:          actor.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := service.repository.Create(context, publication); err != nil {
		if removeErr := service.placement.Remove(context, storagePath); removeErr != nil {
			service.logger.Error("placed_file_orphaned",
				slog.String("path", storagePath),
				slog.String("error", removeErr.Error()),
			)
		}
		return nil, err
	}

	service.logger.Info("publication_stored",
		slog.String("publication_id", publication.ID),
		slog.String("owner_id", actor.UserID),
		slog.String("path", storagePath),
	)

	return publication, nil
}

// # Delete / Restore

/*
Delete soft-deletes a publication.

Description: The file moves into the archive area first; a file that is
already missing is logged and the archive row keeps the old path. The row
is then copied into the archive and removed in one transaction. If that
transaction fails the file is moved back.

Parameters:
  - context: stdctx.Context
  - actor: access.Actor (must hold publications.delete)
  - id: string

Returns:
  - error: NOT_FOUND, TRANSITION_IN_PROGRESS, storage or database failures
*/
func (service *Service) Delete(context stdctx.Context, actor access.Actor, id string) error {
	if err := service.checker.Require(context, actor, access.PermPublicationsDelete); err != nil {
		return err
	}

	release, err := lock.Acquire(context, service.locker, LockKey(id))
	if err != nil {
		return err
	}
	defer release()

	publication, err := service.repository.FindByID(context, id)
	if err != nil {
		return err
	}

	original := publication.StoragePath
	archivedPath, err := service.placement.Relocate(context, original, placement.AreaArchive, publication.Target(), path.Base(original))
	switch {
	case apperr.HasCode(err, apperr.CodeFileNotFound):
		service.logger.Warn("publication_file_missing",
			slog.String("publication_id", id),
			slog.String("path", original),
		)
		archivedPath = original
	case err != nil:
		return err
	}

	deleted := &Deleted{Publication: *publication, DeletedByID: actor.UserID, DeletedAt: time.Now().UTC()}
	deleted.StoragePath = archivedPath
	deleted.URL = ""

	err = service.tx.WithinTx(context, func(context stdctx.Context) error {
		if err := service.repository.Archive(context, deleted); err != nil {
			return err
		}
		return service.repository.Delete(context, id)
	})
	if err != nil {
		service.placement.MoveBack(context, archivedPath, original)
		return err
	}

	service.logger.Info("publication_deleted",
		slog.String("publication_id", id),
		slog.String("actor_id", actor.UserID),
	)

	return nil
}

// ListDeleted returns a page of the archive.
func (service *Service) ListDeleted(context stdctx.Context, actor access.Actor, page pagination.Params) ([]*Deleted, int, error) {
	if err := service.checker.Require(context, actor, access.PermPublicationsRestore); err != nil {
		return nil, 0, err
	}
	return service.repository.ListDeleted(context, page)
}

/*
Restore recreates an archived publication under its original id.

Description: A live publication holding the same document blocks the
restore. The file is moved back into the permanent area; when it is
missing the restore fails unless degraded approval is switched on.

Parameters:
  - context: stdctx.Context
  - actor: access.Actor (must hold publications.restore)
  - id: string (archive id, equal to the publication id)

Returns:
  - *Publication: The restored record
  - error: NOT_FOUND, DUPLICATE_SUBMISSION, FILE_NOT_FOUND, storage or database failures
*/
func (service *Service) Restore(context stdctx.Context, actor access.Actor, id string) (*Publication, error) {
	if err := service.checker.Require(context, actor, access.PermPublicationsRestore); err != nil {
		return nil, err
	}

	release, err := lock.Acquire(context, service.locker, LockKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	deleted, err := service.repository.FindDeleted(context, id)
	if err != nil {
		return nil, err
	}

	// The originating submission is approved and would match itself.
	if err := document.CheckDuplicate(context, deleted.Key(), service.repository); err != nil {
		return nil, err
	}

	archived := deleted.StoragePath
	restoredPath, err := service.placement.Relocate(context, archived, placement.AreaPermanent, deleted.Target(), path.Base(archived))
	switch {
	case apperr.HasCode(err, apperr.CodeFileNotFound) && service.settings.Current().DegradedApproval:
		service.logger.Warn("restore_without_file",
			slog.String("publication_id", id),
			slog.String("path", archived),
		)
		restoredPath = archived
	case err != nil:
		return nil, err
	}

	publication := deleted.Publication
	publication.StoragePath = restoredPath
	publication.URL = service.placement.URL(restoredPath)
	publication.UpdatedAt = time.Now().UTC()

	err = service.tx.WithinTx(context, func(context stdctx.Context) error {
		if err := service.repository.RemoveDeleted(context, id); err != nil {
			return err
		}
		return service.repository.Create(context, &publication)
	})
	if err != nil {
		service.placement.MoveBack(context, restoredPath, archived)
		return nil, err
	}

	service.logger.Info("publication_restored",
		slog.String("publication_id", id),
		slog.String("actor_id", actor.UserID),
	)

	return &publication, nil
}

/*
ForceDelete destroys an archived publication and its file. It cannot be undone.

The file goes first: a failed row delete leaves a row whose file is already
gone, and a retry then completes because removing a missing file succeeds.
*/
func (service *Service) ForceDelete(context stdctx.Context, actor access.Actor, id string) error {
	if err := service.checker.Require(context, actor, access.PermPublicationsForceDelete); err != nil {
		return err
	}

	release, err := lock.Acquire(context, service.locker, LockKey(id))
	if err != nil {
		return err
	}
	defer release()

	deleted, err := service.repository.FindDeleted(context, id)
	if err != nil {
		return err
	}

	if err := service.placement.Remove(context, deleted.StoragePath); err != nil {
		return err
	}

	if err := service.repository.RemoveDeleted(context, id); err != nil {
		return err
	}

	service.logger.Info("publication_destroyed",
		slog.String("publication_id", id),
		slog.String("actor_id", actor.UserID),
	)

	return nil
}
