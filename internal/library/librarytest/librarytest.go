// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package librarytest provides in-memory collaborators for library service tests.
package librarytest

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/access/accesstest"
	"github.com/taibuivan/yomira-shelf/internal/library/document"
	"github.com/taibuivan/yomira-shelf/internal/library/placement"
	"github.com/taibuivan/yomira-shelf/internal/library/publication"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/storage"
	"github.com/taibuivan/yomira-shelf/internal/settings"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
)

// PDF is the smallest content the type sniffer accepts as a PDF.
var PDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// Roots are the area prefixes used by every library test.
var Roots = placement.Roots{
	Staging:   "temp-publications",
	Permanent: "publications",
	Archive:   "deleted-publications",
}

// Upload wraps content as an upload named filename.
func Upload(filename string, content []byte) document.Upload {
	return document.Upload{Filename: filename, Size: int64(len(content)), Content: bytes.NewReader(content)}
}

// Placement returns a placement service over a fresh local store.
func Placement(t *testing.T) (*placement.Service, *storage.Local) {
	t.Helper()

	local, err := storage.NewLocal(t.TempDir(), "/files")
	require.NoError(t, err)

	return placement.NewService(local, Roots, accesstest.Logger()), local
}

// # Settings

// Settings is a mutable [settings.Provider].
type Settings struct {
	mu    sync.Mutex
	value settings.Settings
}

// NewSettings returns defaults with a 1 MiB upload limit.
func NewSettings() *Settings {
	return &Settings{value: settings.Defaults(1 << 20)}
}

// Current implements [settings.Provider].
func (provider *Settings) Current() settings.Settings {
	provider.mu.Lock()
	defer provider.mu.Unlock()
	return provider.value
}

// Set changes the served settings.
func (provider *Settings) Set(change func(*settings.Settings)) {
	provider.mu.Lock()
	defer provider.mu.Unlock()
	change(&provider.value)
}

// # Duplicate Finders

// NoDuplicates never reports a match.
type NoDuplicates struct{}

// FindDuplicate implements [document.DuplicateFinder].
func (NoDuplicates) FindDuplicate(context.Context, document.Key) (string, error) {
	return "", nil
}

// # Publications

// Publications is an in-memory [publication.Repository].
type Publications struct {
	mu      sync.Mutex
	live    map[string]*publication.Publication
	deleted map[string]*publication.Deleted

	// Fail makes the named method return the error once.
	Fail map[string]error
}

// NewPublications returns an empty repository.
func NewPublications() *Publications {
	return &Publications{
		live:    map[string]*publication.Publication{},
		deleted: map[string]*publication.Deleted{},
		Fail:    map[string]error{},
	}
}

func (memory *Publications) failure(method string) error {
	err := memory.Fail[method]
	delete(memory.Fail, method)
	return err
}

// Count returns the number of live publications.
func (memory *Publications) Count() int {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	return len(memory.live)
}

// FindDuplicate implements [document.DuplicateFinder].
func (memory *Publications) FindDuplicate(_ context.Context, key document.Key) (string, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	for id, existing := range memory.live {
		if existing.Key().Matches(key) {
			return id, nil
		}
	}
	return "", nil
}

// Create implements [publication.Repository].
func (memory *Publications) Create(_ context.Context, record *publication.Publication) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if err := memory.failure("Create"); err != nil {
		return err
	}
	if _, taken := memory.live[record.ID]; taken {
		return apperr.Conflict("Resource already exists")
	}
	clone := *record
	memory.live[record.ID] = &clone
	return nil
}

// FindByID implements [publication.Repository].
func (memory *Publications) FindByID(_ context.Context, id string) (*publication.Publication, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	record, ok := memory.live[id]
	if !ok {
		return nil, apperr.NotFound("Publication")
	}
	clone := *record
	return &clone, nil
}

// List implements [publication.Repository].
func (memory *Publications) List(_ context.Context, filter publication.Filter, page pagination.Params) ([]*publication.Publication, int, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	var matched []*publication.Publication
	for _, record := range memory.live {
		if filter.Name != "" && !strings.EqualFold(record.Name, filter.Name) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(record.Name+" "+record.Title), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Year > 0 && record.Year != filter.Year {
			continue
		}
		if filter.Month > 0 && record.Month != filter.Month {
			continue
		}
		if filter.OwnerID != "" && record.OwnerID != filter.OwnerID {
			continue
		}
		clone := *record
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)
	return matched[start:end], total, nil
}

// Delete implements [publication.Repository].
func (memory *Publications) Delete(_ context.Context, id string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if err := memory.failure("Delete"); err != nil {
		return err
	}
	if _, ok := memory.live[id]; !ok {
		return apperr.NotFound("Publication")
	}
	delete(memory.live, id)
	return nil
}

// Archive implements [publication.Repository].
func (memory *Publications) Archive(_ context.Context, record *publication.Deleted) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if err := memory.failure("Archive"); err != nil {
		return err
	}
	clone := *record
	memory.deleted[record.ID] = &clone
	return nil
}

// FindDeleted implements [publication.Repository].
func (memory *Publications) FindDeleted(_ context.Context, id string) (*publication.Deleted, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	record, ok := memory.deleted[id]
	if !ok {
		return nil, apperr.NotFound("Deleted publication")
	}
	clone := *record
	return &clone, nil
}

// FindDeletedBySubmission implements [publication.Repository].
func (memory *Publications) FindDeletedBySubmission(_ context.Context, submissionID string) (*publication.Deleted, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	for _, record := range memory.deleted {
		if record.SubmissionID != nil && *record.SubmissionID == submissionID {
			clone := *record
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Deleted publication")
}

// ListDeleted implements [publication.Repository].
func (memory *Publications) ListDeleted(_ context.Context, page pagination.Params) ([]*publication.Deleted, int, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	archived := make([]*publication.Deleted, 0, len(memory.deleted))
	for _, record := range memory.deleted {
		clone := *record
		archived = append(archived, &clone)
	}
	sort.Slice(archived, func(i, j int) bool { return archived[i].DeletedAt.After(archived[j].DeletedAt) })

	total := len(archived)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)
	return archived[start:end], total, nil
}

// RemoveDeleted implements [publication.Repository].
func (memory *Publications) RemoveDeleted(_ context.Context, id string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if err := memory.failure("RemoveDeleted"); err != nil {
		return err
	}
	if _, ok := memory.deleted[id]; !ok {
		return apperr.NotFound("Deleted publication")
	}
	delete(memory.deleted, id)
	return nil
}
