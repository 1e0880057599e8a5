// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package publication manages the canonical, publicly listed documents.

A publication is created when a submission is approved or when an authorized
user stores a document directly. Deleting one is soft: the row moves into the
deleted-publication archive and the file into the archive area, from where it
can be restored or destroyed for good.
*/
package publication

import (
	"context"
	"time"

	"github.com/taibuivan/yomira-shelf/internal/library/document"
	"github.com/taibuivan/yomira-shelf/internal/library/placement"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
)

// # Entities

// Publication is a listed document.
type Publication struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	OriginalFilename string    `json:"original_filename"`
	StoragePath      string    `json:"-"`
	URL              string    `json:"url"`
	MimeType         string    `json:"mime_type"`
	Size             int64     `json:"size"`
	Year             int       `json:"year"`
	Month            int       `json:"month"`
	Day              int       `json:"day"`
	Page             *int      `json:"page,omitempty"`
	OwnerID          string    `json:"owner_id"`
	SubmissionID     *string   `json:"submission_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Key returns the duplicate-detection identity of the publication.
func (publication *Publication) Key() document.Key {
	return document.Key{
		OriginalFilename: publication.OriginalFilename,
		Size:             publication.Size,
		Year:             publication.Year,
		Month:            publication.Month,
		Day:              publication.Day,
		Page:             publication.Page,
	}
}

// Target returns where the publication's file belongs within an area.
func (publication *Publication) Target() placement.Target {
	return placement.Target{
		Name:  publication.Name,
		Year:  publication.Year,
		Month: publication.Month,
		Day:   publication.Day,
	}
}

// Deleted is an archived publication plus who removed it and when.
// It keeps the publication's id so a restore recreates the same record.
type Deleted struct {
	Publication
	DeletedByID string    `json:"deleted_by_id"`
	DeletedAt   time.Time `json:"deleted_at"`
}

// Filter narrows a publication listing. Zero values match everything.
type Filter struct {
	Name    string
	Search  string
	Year    int
	Month   int
	OwnerID string
}

// # Contracts

// Repository persists publications and their archive.
type Repository interface {
	document.DuplicateFinder

	Create(ctx context.Context, publication *Publication) error
	FindByID(ctx context.Context, id string) (*Publication, error)
	List(ctx context.Context, filter Filter, page pagination.Params) ([]*Publication, int, error)

	// Delete removes the live row. It does not archive it.
	Delete(ctx context.Context, id string) error

	Archive(ctx context.Context, deleted *Deleted) error
	FindDeleted(ctx context.Context, id string) (*Deleted, error)
	// FindDeletedBySubmission finds the archived publication an approval created.
	FindDeletedBySubmission(ctx context.Context, submissionID string) (*Deleted, error)
	ListDeleted(ctx context.Context, page pagination.Params) ([]*Deleted, int, error)
	RemoveDeleted(ctx context.Context, id string) error
}
