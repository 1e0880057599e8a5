// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission

import (
	stdctx "context"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/library/document"
	"github.com/taibuivan/yomira-shelf/internal/library/placement"
	"github.com/taibuivan/yomira-shelf/internal/library/publication"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
	"github.com/taibuivan/yomira-shelf/internal/platform/lock"
	"github.com/taibuivan/yomira-shelf/internal/platform/postgres"
	"github.com/taibuivan/yomira-shelf/internal/platform/validate"
	"github.com/taibuivan/yomira-shelf/internal/settings"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
	"github.com/taibuivan/yomira-shelf/pkg/pointer"
	"github.com/taibuivan/yomira-shelf/pkg/uuid"
)

// LockKey names the lock serializing transitions of one submission.
func LockKey(id string) string {
	return "submission:" + id
}

// Service drives submissions through review.
type Service struct {
	repository   Repository
	publications publication.Repository
	placement    *placement.Service
	checker      *access.Checker
	locker       lock.Locker
	tx           postgres.Transactor
	settings     settings.Provider
	logger       *slog.Logger
	now          func() time.Time
}

// NewService constructs a submission service.
func NewService(
	repository Repository,
	publications publication.Repository,
	placement *placement.Service,
	checker *access.Checker,
	locker lock.Locker,
	tx postgres.Transactor,
	settings settings.Provider,
	logger *slog.Logger,
) *Service {
	return &Service{
		repository:   repository,
		publications: publications,
		placement:    placement,
		checker:      checker,
		locker:       locker,
		tx:           tx,
		settings:     settings,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// # Submit

/*
Submit stores an upload in the staging area as a pending submission.

Description: Nothing is written unless the filename follows the convention,
the content is a PDF within the upload limit, and no publication or live
submission already holds the same document. Uploads of the same document
are serialized so two concurrent copies cannot both pass the duplicate
check. A failed insert removes the staged file.

Parameters:
  - context: stdctx.Context
  - actor: access.Actor (must hold submissions.create)
  - upload: document.Upload
  - details: document.Details

Returns:
  - *Submission: The pending submission
  - error: VALIDATION_ERROR, DUPLICATE_SUBMISSION, SERVICE_UNAVAILABLE, storage or database failures
*/
func (service *Service) Submit(context stdctx.Context, actor access.Actor, upload document.Upload, details document.Details) (*Submission, error) {
	if err := service.checker.Require(context, actor, access.PermSubmissionsCreate); err != nil {
		return nil, err
	}

	current := service.settings.Current()
	if !current.SubmissionsOpen {
		return nil, apperr.ServiceUnavailable("Submissions are currently closed")
	}

	details = details.Normalize()
	if err := details.Validate(); err != nil {
		return nil, err
	}

	inspection, err := document.Inspect(upload, current.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	release, err := lock.Acquire(context, service.locker, inspection.Key.LockKey())
	if err != nil {
		return nil, err
	}
	defer release()

	if err := document.CheckDuplicate(context, inspection.Key, service.publications, service.repository); err != nil {
		return nil, err
	}

	meta := inspection.Metadata
	target := placement.Target{Name: meta.Name, Year: meta.Year, Month: meta.Month, Day: meta.Day}

	storagePath, err := service.placement.Place(context, placement.AreaStaging, target, upload.Filename, upload.Content)
	if err != nil {
		return nil, err
	}

	now := service.now()
	submission := &Submission{
		ID:               uuid.New(),
		Name:             meta.Name,
		Title:            details.TitleOr(meta.Name),
		Description:      details.Description,
		OriginalFilename: upload.Filename,
		StoragePath:      storagePath,
		URL:              service.placement.URL(storagePath),
		MimeType:         inspection.MimeType,
		Size:             upload.Size,
		Year:             &meta.Year,
		Month:            &meta.Month,
		Day:              &meta.Day,
		Page:             meta.Page,
		SubmitterID:      actor.UserID,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := service.repository.Create(context, submission); err != nil {
		if removeErr := service.placement.Remove(context, storagePath); removeErr != nil {
			service.logger.Error("staged_file_orphaned",
				slog.String("path", storagePath),
				slog.String("error", removeErr.Error()),
			)
		}
		return nil, err
	}

	service.logger.Info("submission_created",
		slog.String("submission_id", submission.ID),
		slog.String("submitter_id", actor.UserID),
		slog.String("path", storagePath),
	)

	return submission, nil
}

// # Review

// Approve publishes a pending submission. See [Service.approve].
func (service *Service) Approve(context stdctx.Context, actor access.Actor, id, notes string) (*Submission, error) {
	return service.approve(context, actor, id, notes, false)
}

// ApproveWithoutFile publishes a pending submission without touching its
// file, keeping the recorded path. It is the explicit override for uploads
// whose staged file is lost, and needs its own permission.
func (service *Service) ApproveWithoutFile(context stdctx.Context, actor access.Actor, id, notes string) (*Submission, error) {
	return service.approve(context, actor, id, notes, true)
}

/*
approve moves the staged file into the permanent area and records the
approval together with the new publication.

Description: The move happens before the transaction and is undone if the
transaction fails. When the file is missing or cannot be moved, approval
fails unless degraded approval is switched on in the settings; then it
proceeds with the recorded staging path and logs a warning.

Returns:
  - *Submission: The approved submission
  - error: INVALID_STATE, INCOMPLETE_METADATA, DUPLICATE_SUBMISSION,
    FILE_NOT_FOUND, TRANSITION_IN_PROGRESS, storage or database failures
*/
func (service *Service) approve(context stdctx.Context, actor access.Actor, id, notes string, withoutFile bool) (*Submission, error) {
	permission := access.PermSubmissionsReview
	if withoutFile {
		permission = access.PermSubmissionsApproveWithoutFile
	}
	if err := service.checker.Require(context, actor, permission); err != nil {
		return nil, err
	}

	notes = strings.TrimSpace(notes)
	if err := (&validate.Validator{}).MaxLen("notes", notes, constants.ReviewNotesMaxLength).Err(); err != nil {
		return nil, err
	}

	release, err := lock.Acquire(context, service.locker, LockKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	submission, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if err := submission.CheckApprovable(); err != nil {
		return nil, err
	}

	// A direct upload may have published the same document in the meantime.
	if err := document.CheckDuplicate(context, submission.Key(), service.publications); err != nil {
		return nil, err
	}

	target, _ := submission.Target()
	original := submission.StoragePath
	finalPath := original

	if withoutFile {
		service.logger.Warn("approval_without_file",
			slog.String("submission_id", id),
			slog.String("reviewer_id", actor.UserID),
			slog.String("path", original),
		)
	} else {
		finalPath, err = service.placement.Relocate(context, original, placement.AreaPermanent, target, path.Base(original))
		if err != nil {
			if !service.settings.Current().DegradedApproval {
				return nil, err
			}
			service.logger.Warn("approval_degraded",
				slog.String("submission_id", id),
				slog.String("path", original),
				slog.String("error", err.Error()),
			)
			finalPath = original
		}
	}

	now := service.now()
	created := &publication.Publication{
		ID:               uuid.New(),
		Name:             submission.Name,
		Title:            submission.Title,
		Description:      submission.Description,
		OriginalFilename: submission.OriginalFilename,
		StoragePath:      finalPath,
		URL:              service.placement.URL(finalPath),
		MimeType:         submission.MimeType,
		Size:             submission.Size,
		Year:             target.Year,
		Month:            target.Month,
		Day:              target.Day,
		Page:             submission.Page,
		OwnerID:          submission.SubmitterID,
		SubmissionID:     pointer.To(submission.ID),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var reviewNotes *string
	if notes != "" {
		reviewNotes = pointer.To(notes)
	}

	err = service.tx.WithinTx(context, func(context stdctx.Context) error {
		locked, err := service.lockRow(context, submission)
		if err != nil {
			return err
		}
		if err := service.publications.Create(context, created); err != nil {
			return err
		}
		if err := locked.Approve(actor.UserID, reviewNotes, created.ID, finalPath, created.URL, now); err != nil {
			return err
		}
		submission = locked
		return service.repository.SaveReview(context, locked)
	})
	if err != nil {
		service.placement.MoveBack(context, finalPath, original)
		return nil, err
	}

	service.logger.Info("submission_approved",
		slog.String("submission_id", id),
		slog.String("publication_id", created.ID),
		slog.String("reviewer_id", actor.UserID),
		slog.Bool("without_file", withoutFile),
	)

	return submission, nil
}

/*
Reject declines a pending submission. No file is moved.

Parameters:
  - context: stdctx.Context
  - actor: access.Actor (must hold submissions.review)
  - id: string
  - reason: string (required, at most 1000 characters)

Returns:
  - *Submission: The rejected submission
  - error: VALIDATION_ERROR, INVALID_STATE, TRANSITION_IN_PROGRESS or database failures
*/
func (service *Service) Reject(context stdctx.Context, actor access.Actor, id, reason string) (*Submission, error) {
	if err := service.checker.Require(context, actor, access.PermSubmissionsReview); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	err := (&validate.Validator{}).
		Required("reason", reason).
		MaxLen("reason", reason, constants.RejectReasonMaxLength).
		Err()
	if err != nil {
		return nil, err
	}

	release, err := lock.Acquire(context, service.locker, LockKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	submission, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if err := submission.CheckRejectable(); err != nil {
		return nil, err
	}

	err = service.tx.WithinTx(context, func(context stdctx.Context) error {
		locked, err := service.lockRow(context, submission)
		if err != nil {
			return err
		}
		if err := locked.Reject(actor.UserID, reason, service.now()); err != nil {
			return err
		}
		submission = locked
		return service.repository.SaveReview(context, locked)
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("submission_rejected",
		slog.String("submission_id", id),
		slog.String("reviewer_id", actor.UserID),
	)

	return submission, nil
}

/*
Revert returns a reviewed submission to pending.

Description: Reverting a rejection only clears the review record. Reverting
an approval also deletes the publication it created and moves the file back
to the staging area, so the submission can be reviewed again from scratch.
If that publication sits in the archive the revert is refused; the archived
copy has to be restored or purged first. Once it has been purged nothing is
left to unpublish and only the review record is cleared. A file that has
gone missing is logged and does not block the revert.

Returns:
  - *Submission: The pending submission
  - error: ALREADY_PENDING, CONFLICT, TRANSITION_IN_PROGRESS, storage or database failures
*/
func (service *Service) Revert(context stdctx.Context, actor access.Actor, id string) (*Submission, error) {
	if err := service.checker.Require(context, actor, access.PermSubmissionsReview); err != nil {
		return nil, err
	}

	release, err := lock.Acquire(context, service.locker, LockKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	submission, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if err := submission.CheckRevertible(); err != nil {
		return nil, err
	}

	var linked *publication.Publication
	if submission.Status == StatusApproved {
		linked, err = service.linkedPublication(context, submission)
		if err != nil {
			return nil, err
		}
	}

	if linked != nil {
		publicationLock, err := lock.Acquire(context, service.locker, publication.LockKey(linked.ID))
		if err != nil {
			return nil, err
		}
		defer publicationLock()
	}

	original := submission.StoragePath
	stagedPath := original

	if linked != nil {
		original = linked.StoragePath
		stagedPath, err = service.unpublishFile(context, submission, linked)
		if err != nil {
			return nil, err
		}
	}

	err = service.tx.WithinTx(context, func(context stdctx.Context) error {
		locked, err := service.lockRow(context, submission)
		if err != nil {
			return err
		}
		if linked != nil {
			if err := service.publications.Delete(context, linked.ID); err != nil {
				return err
			}
			locked.StoragePath = stagedPath
			locked.URL = service.placement.URL(stagedPath)
		}
		if err := locked.Revert(service.now()); err != nil {
			return err
		}
		submission = locked
		return service.repository.SaveReview(context, locked)
	})
	if err != nil {
		service.placement.MoveBack(context, stagedPath, original)
		return nil, err
	}

	attributes := []any{
		slog.String("submission_id", id),
		slog.String("reviewer_id", actor.UserID),
	}
	if linked != nil {
		attributes = append(attributes, slog.String("removed_publication_id", linked.ID))
	}
	service.logger.Info("submission_reverted", attributes...)

	return submission, nil
}

/*
linkedPublication loads the publication an approval created.

Returns:
  - *publication.Publication: The live publication, or nil once it has been purged
  - error: CONFLICT while the publication is archived, database failures
*/
func (service *Service) linkedPublication(context stdctx.Context, submission *Submission) (*publication.Publication, error) {
	if submission.PublicationID != nil {
		linked, err := service.publications.FindByID(context, *submission.PublicationID)
		if !apperr.IsNotFound(err) {
			return linked, err
		}
	}

	_, err := service.publications.FindDeletedBySubmission(context, submission.ID)
	switch {
	case err == nil:
		return nil, apperr.Conflict("The publication created by this approval is archived; restore or purge it first")
	case apperr.IsNotFound(err):
		service.logger.Warn("revert_publication_purged",
			slog.String("submission_id", submission.ID),
		)
		return nil, nil
	default:
		return nil, err
	}
}

// unpublishFile moves a publication's file back into the staging area and
// returns where it now lives.
func (service *Service) unpublishFile(context stdctx.Context, submission *Submission, linked *publication.Publication) (string, error) {
	stagedPath, err := service.placement.Relocate(context, linked.StoragePath, placement.AreaStaging, linked.Target(), path.Base(linked.StoragePath))
	if apperr.HasCode(err, apperr.CodeFileNotFound) {
		service.logger.Warn("revert_file_missing",
			slog.String("submission_id", submission.ID),
			slog.String("path", linked.StoragePath),
		)
		return linked.StoragePath, nil
	}
	return stagedPath, err
}

// lockRow re-reads the submission under a row lock and checks that nothing
// changed since it was loaded outside the transaction.
func (service *Service) lockRow(context stdctx.Context, loaded *Submission) (*Submission, error) {
	locked, err := service.repository.FindByIDForUpdate(context, loaded.ID)
	if err != nil {
		return nil, err
	}
	if locked.Status != loaded.Status || !locked.UpdatedAt.Equal(loaded.UpdatedAt) {
		return nil, apperr.TransitionInProgress()
	}
	return locked, nil
}

// # Reads

// IsReviewer reports whether the actor may see and review every submission.
func (service *Service) IsReviewer(context stdctx.Context, actor access.Actor) bool {
	return service.checker.HasPermission(context, actor, access.PermSubmissionsReview)
}

// List returns a page of submissions. Non-reviewers only see their own.
func (service *Service) List(context stdctx.Context, actor access.Actor, filter Filter, page pagination.Params) ([]*Submission, int, error) {
	if actor.UserID == "" {
		return nil, 0, apperr.Unauthorized("Authentication required")
	}

	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, 0, validate.FieldError("status", "Must be one of pending, approved, rejected")
		}
	}

	if !service.IsReviewer(context, actor) {
		filter.SubmitterID = actor.UserID
	}

	return service.repository.List(context, filter, page)
}

// Get returns one submission. Another user's submission is reported as
// missing to non-reviewers.
func (service *Service) Get(context stdctx.Context, actor access.Actor, id string) (*Submission, error) {
	submission, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if submission.SubmitterID != actor.UserID && !service.IsReviewer(context, actor) {
		return nil, apperr.NotFound("Submission")
	}

	return submission, nil
}

// Download opens the submission's file wherever it currently lives.
func (service *Service) Download(context stdctx.Context, actor access.Actor, id string) (io.ReadCloser, *Submission, error) {
	submission, err := service.Get(context, actor, id)
	if err != nil {
		return nil, nil, err
	}

	content, err := service.placement.Open(context, submission.StoragePath)
	if err != nil {
		return nil, nil, err
	}

	return content, submission, nil
}
