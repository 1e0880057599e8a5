// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package submission implements the moderation workflow for uploaded documents.

A submission starts pending with its file in the staging area. A reviewer
approves it, which moves the file into the permanent area and creates the
publication, or rejects it with a reason. Either decision can be reverted
back to pending; reverting an approval removes the publication it created
and returns the file to staging.

	pending  ──approve──▶ approved
	pending  ──reject───▶ rejected
	approved ──revert───▶ pending
	rejected ──revert───▶ pending

Every transition holds a lock on the submission id, so concurrent reviews of
the same record fail fast with TRANSITION_IN_PROGRESS instead of racing.
*/
package submission

import (
	"context"
	"time"

	"github.com/taibuivan/yomira-shelf/internal/library/document"
	"github.com/taibuivan/yomira-shelf/internal/library/placement"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
	"github.com/taibuivan/yomira-shelf/pkg/pointer"
)

// # Status

// Status is the moderation state of a submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether status is one of the three known states.
func (status Status) Valid() bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// # Entity

// Submission is an uploaded document and its review record.
//
// ReviewerID, ReviewedAt and ReviewNotes are set together, and only while
// the status is not pending. ReviewNotes holds the approval notes or the
// rejection reason.
type Submission struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	OriginalFilename string     `json:"original_filename"`
	StoragePath      string     `json:"-"`
	URL              string     `json:"url"`
	MimeType         string     `json:"mime_type"`
	Size             int64      `json:"size"`
	Year             *int       `json:"year"`
	Month            *int       `json:"month"`
	Day              *int       `json:"day"`
	Page             *int       `json:"page,omitempty"`
	SubmitterID      string     `json:"submitter_id"`
	Status           Status     `json:"status"`
	ReviewerID       *string    `json:"reviewer_id,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes      *string    `json:"review_notes,omitempty"`
	PublicationID    *string    `json:"publication_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// HasCompleteDate reports whether year, month and day are all present.
func (submission *Submission) HasCompleteDate() bool {
	return submission.Year != nil && submission.Month != nil && submission.Day != nil
}

// Key returns the duplicate-detection identity. It is only meaningful when
// [Submission.HasCompleteDate] holds.
func (submission *Submission) Key() document.Key {
	key := document.Key{
		OriginalFilename: submission.OriginalFilename,
		Size:             submission.Size,
		Page:             submission.Page,
	}
	if submission.HasCompleteDate() {
		key.Year, key.Month, key.Day = *submission.Year, *submission.Month, *submission.Day
	}
	return key
}

// Target returns the placement target, failing with INCOMPLETE_METADATA
// when a date part is missing.
func (submission *Submission) Target() (placement.Target, error) {
	if !submission.HasCompleteDate() {
		return placement.Target{}, apperr.IncompleteMetadata("Year, month and day are required to publish this submission")
	}
	return placement.Target{
		Name:  submission.Name,
		Year:  *submission.Year,
		Month: *submission.Month,
		Day:   *submission.Day,
	}, nil
}

// # Transitions

// checkPending fails with INVALID_STATE unless the submission awaits review.
func (submission *Submission) checkPending(action string) error {
	if submission.Status != StatusPending {
		return apperr.InvalidState("Only pending submissions can be " + action + "; this one is " + string(submission.Status))
	}
	return nil
}

// CheckApprovable reports why the submission cannot be approved, if anything.
func (submission *Submission) CheckApprovable() error {
	if err := submission.checkPending("approved"); err != nil {
		return err
	}
	_, err := submission.Target()
	return err
}

// CheckRejectable reports why the submission cannot be rejected, if anything.
func (submission *Submission) CheckRejectable() error {
	return submission.checkPending("rejected")
}

// CheckRevertible fails with ALREADY_PENDING for a submission never reviewed.
func (submission *Submission) CheckRevertible() error {
	if submission.Status == StatusPending {
		return apperr.AlreadyPending()
	}
	return nil
}

func (submission *Submission) review(status Status, reviewerID string, notes *string, at time.Time) {
	submission.Status = status
	submission.ReviewerID = pointer.To(reviewerID)
	submission.ReviewedAt = pointer.To(at)
	submission.ReviewNotes = notes
	submission.UpdatedAt = at
}

// Approve records an approval that produced publicationID with its file at storagePath.
func (submission *Submission) Approve(reviewerID string, notes *string, publicationID, storagePath, url string, at time.Time) error {
	if err := submission.CheckApprovable(); err != nil {
		return err
	}
	submission.review(StatusApproved, reviewerID, notes, at)
	submission.PublicationID = pointer.To(publicationID)
	submission.StoragePath = storagePath
	submission.URL = url
	return nil
}

// Reject records a rejection. The reason is stored as the review notes.
func (submission *Submission) Reject(reviewerID, reason string, at time.Time) error {
	if err := submission.CheckRejectable(); err != nil {
		return err
	}
	submission.review(StatusRejected, reviewerID, pointer.To(reason), at)
	return nil
}

// Revert returns the submission to pending and clears the review record.
func (submission *Submission) Revert(at time.Time) error {
	if err := submission.CheckRevertible(); err != nil {
		return err
	}
	submission.Status = StatusPending
	submission.ReviewerID = nil
	submission.ReviewedAt = nil
	submission.ReviewNotes = nil
	submission.PublicationID = nil
	submission.UpdatedAt = at
	return nil
}

// # Contracts

// Filter narrows a submission listing. Zero values match everything.
type Filter struct {
	Statuses    []Status
	SubmitterID string
	Search      string
}

// Repository persists submissions.
type Repository interface {

	// FindDuplicate only considers pending and approved submissions.
	document.DuplicateFinder

	Create(ctx context.Context, submission *Submission) error
	FindByID(ctx context.Context, id string) (*Submission, error)

	// FindByIDForUpdate row-locks the submission for the surrounding
	// transaction. A row locked elsewhere fails with TRANSITION_IN_PROGRESS.
	FindByIDForUpdate(ctx context.Context, id string) (*Submission, error)

	// SaveReview persists the status, review record, publication link and file location.
	SaveReview(ctx context.Context, submission *Submission) error

	List(ctx context.Context, filter Filter, page pagination.Params) ([]*Submission, int, error)
}
