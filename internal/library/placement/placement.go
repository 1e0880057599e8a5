// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package placement decides where library documents live in blob storage.

A document is stored at

	{area root}/{slug(name)}/{YYYY}/{MM}/{DD}/{filename}

where the area is staging (awaiting review), permanent (published) or
archive (soft-deleted). An occupied target gets "-1", "-2", ... appended to
the filename stem. Nothing is ever overwritten.
*/
package placement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
	"github.com/taibuivan/yomira-shelf/internal/platform/storage"
	"github.com/taibuivan/yomira-shelf/pkg/slug"
)

// Area names one of the storage trees.
type Area string

const (
	AreaStaging   Area = "staging"
	AreaPermanent Area = "permanent"
	AreaArchive   Area = "archive"
)

// fallbackDirectory is used when a name slugifies to nothing.
const fallbackDirectory = "document"

var (
	// ErrExhausted is returned once every suffix up to the attempt bound is taken.
	ErrExhausted = errors.New("placement: no free filename")
)

// Target carries the parts that decide a document's directory.
type Target struct {
	Name  string
	Year  int
	Month int
	Day   int
}

// Roots maps each area onto its prefix inside the blob store.
type Roots struct {
	Staging   string
	Permanent string
	Archive   string
}

// Service computes paths and performs writes and moves through a [storage.Blob].
type Service struct {
	blob        storage.Blob
	roots       Roots
	maxAttempts int
	logger      *slog.Logger
}

// NewService creates a placement service over the given blob store.
func NewService(blob storage.Blob, roots Roots, logger *slog.Logger) *Service {
	return &Service{
		blob:        blob,
		roots:       roots,
		maxAttempts: constants.PlacementMaxAttempts,
		logger:      logger,
	}
}

// Root returns the prefix of an area.
func (service *Service) Root(area Area) string {
	switch area {
	case AreaPermanent:
		return service.roots.Permanent
	case AreaArchive:
		return service.roots.Archive
	default:
		return service.roots.Staging
	}
}

// Directory returns "{root}/{slug(name)}/{YYYY}/{MM}/{DD}".
func (service *Service) Directory(area Area, target Target) string {
	name := slug.From(target.Name)
	if name == "" {
		name = fallbackDirectory
	}

	return path.Join(
		service.Root(area),
		name,
		fmt.Sprintf("%04d", target.Year),
		fmt.Sprintf("%02d", target.Month),
		fmt.Sprintf("%02d", target.Day),
	)
}

// Path returns the unsuffixed location of filename in the target directory.
func (service *Service) Path(area Area, target Target, filename string) string {
	return path.Join(service.Directory(area, target), path.Base(filename))
}

// Candidate returns the attempt-th name for filename: attempt 0 is the
// name itself, attempt n inserts "-n" before the extension.
func Candidate(filename string, attempt int) string {
	if attempt == 0 {
		return filename
	}

	extension := path.Ext(filename)
	stem := strings.TrimSuffix(filename, extension)
	return fmt.Sprintf("%s-%d%s", stem, attempt, extension)
}

/*
Place writes content into the area and returns the path it was stored at.

Parameters:
  - ctx: context.Context
  - area: Area (staging or permanent)
  - target: Target (name and date parts)
  - filename: string (preferred file name)
  - content: io.Reader

Returns:
  - string: Final storage path
  - error: PLACEMENT_EXHAUSTED or STORAGE_ERROR AppErrors
*/
func (service *Service) Place(ctx context.Context, area Area, target Target, filename string, content io.Reader) (string, error) {
	directory := service.Directory(area, target)
	if err := service.blob.MakeDirectory(ctx, directory); err != nil {
		return "", apperr.StorageError(err)
	}

	// Exclusive creation makes a lost race surface as ErrExists; the next
	// candidate is only tried when the content can be rewound.
	seeker, rewindable := content.(io.Seeker)
	base := path.Base(filename)
	for attempt := 0; attempt <= service.maxAttempts; attempt++ {
		candidate := path.Join(directory, Candidate(base, attempt))

		exists, err := service.blob.Exists(ctx, candidate)
		if err != nil {
			return "", apperr.StorageError(err)
		}
		if exists {
			continue
		}

		err = service.blob.Put(ctx, candidate, content)
		if errors.Is(err, storage.ErrExists) {
			if !rewindable {
				return "", apperr.StorageError(fmt.Errorf("placement: %s was taken concurrently: %w", candidate, err))
			}
			if _, seekErr := seeker.Seek(0, io.SeekStart); seekErr != nil {
				return "", apperr.StorageError(seekErr)
			}
			continue
		}
		if err != nil {
			return "", apperr.StorageError(err)
		}

		service.logger.Debug("document_placed",
			slog.String("area", string(area)),
			slog.String("path", candidate),
		)

		return candidate, nil
	}

	return "", apperr.PlacementExhausted(fmt.Errorf("%w: %s", ErrExhausted, path.Join(directory, base)))
}

/*
Relocate moves an existing file into another area, keeping the preferred
filename when free. On any failure the source stays where it was.

Returns:
  - string: New storage path
  - error: FILE_NOT_FOUND, PLACEMENT_EXHAUSTED or STORAGE_ERROR AppErrors
*/
func (service *Service) Relocate(ctx context.Context, from string, area Area, target Target, filename string) (string, error) {
	exists, err := service.blob.Exists(ctx, from)
	if err != nil {
		return "", apperr.StorageError(err)
	}
	if !exists {
		return "", apperr.FileNotFound(fmt.Errorf("placement: %s missing", from))
	}

	directory := service.Directory(area, target)
	if err := service.blob.MakeDirectory(ctx, directory); err != nil {
		return "", apperr.StorageError(err)
	}

	base := path.Base(filename)
	for attempt := 0; attempt <= service.maxAttempts; attempt++ {
		candidate := path.Join(directory, Candidate(base, attempt))
		if candidate == from {
			return from, nil
		}

		err := service.blob.Move(ctx, from, candidate)
		if errors.Is(err, storage.ErrExists) {
			continue
		}
		if errors.Is(err, storage.ErrNotFound) {
			return "", apperr.FileNotFound(err)
		}
		if err != nil {
			return "", apperr.StorageError(err)
		}

		service.logger.Info("document_relocated",
			slog.String("from", from),
			slog.String("to", candidate),
			slog.String("area", string(area)),
		)

		return candidate, nil
	}

	return "", apperr.PlacementExhausted(fmt.Errorf("%w: %s", ErrExhausted, path.Join(directory, base)))
}

// MoveBack returns a file to a previously known path. It is used to undo a
// relocation when the surrounding database work fails.
func (service *Service) MoveBack(ctx context.Context, current, original string) {
	if current == original {
		return
	}

	if err := service.blob.Move(ctx, current, original); err != nil {
		service.logger.Error("document_move_back_failed",
			slog.String("from", current),
			slog.String("to", original),
			slog.String("error", err.Error()),
		)
	}
}

// Exists reports whether a file is stored at p.
func (service *Service) Exists(ctx context.Context, p string) (bool, error) {
	exists, err := service.blob.Exists(ctx, p)
	if err != nil {
		return false, apperr.StorageError(err)
	}
	return exists, nil
}

// Open streams a stored file.
func (service *Service) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	reader, err := service.blob.Get(ctx, p)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.FileNotFound(err)
	}
	if err != nil {
		return nil, apperr.StorageError(err)
	}
	return reader, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (service *Service) Remove(ctx context.Context, p string) error {
	err := service.blob.Delete(ctx, p)
	if err == nil || errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return apperr.StorageError(err)
}

// URL returns the public address of a stored file.
func (service *Service) URL(p string) string {
	return service.blob.URL(p)
}
