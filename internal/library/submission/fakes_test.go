// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission_test

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/taibuivan/yomira-shelf/internal/library/document"
	"github.com/taibuivan/yomira-shelf/internal/library/submission"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
)

type memorySubmissions struct {
	mu      sync.Mutex
	records map[string]*submission.Submission
	fail    map[string]error
}

func newMemorySubmissions() *memorySubmissions {
	return &memorySubmissions{records: map[string]*submission.Submission{}, fail: map[string]error{}}
}

func (memory *memorySubmissions) failure(method string) error {
	err := memory.fail[method]
	delete(memory.fail, method)
	return err
}

func (memory *memorySubmissions) count() int {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	return len(memory.records)
}

func (memory *memorySubmissions) seed(record *submission.Submission) {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	memory.records[record.ID] = record
}

func (memory *memorySubmissions) FindDuplicate(_ context.Context, key document.Key) (string, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	for id, record := range memory.records {
		if record.Status == submission.StatusRejected || !record.HasCompleteDate() {
			continue
		}
		if record.Key().Matches(key) {
			return id, nil
		}
	}
	return "", nil
}

func (memory *memorySubmissions) Create(_ context.Context, record *submission.Submission) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if err := memory.failure("Create"); err != nil {
		return err
	}
	clone := *record
	memory.records[record.ID] = &clone
	return nil
}

func (memory *memorySubmissions) FindByID(_ context.Context, id string) (*submission.Submission, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	record, ok := memory.records[id]
	if !ok {
		return nil, apperr.NotFound("Submission")
	}
	clone := *record
	return &clone, nil
}

func (memory *memorySubmissions) FindByIDForUpdate(ctx context.Context, id string) (*submission.Submission, error) {
	return memory.FindByID(ctx, id)
}

func (memory *memorySubmissions) SaveReview(_ context.Context, record *submission.Submission) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if err := memory.failure("SaveReview"); err != nil {
		return err
	}
	if _, ok := memory.records[record.ID]; !ok {
		return apperr.NotFound("Submission")
	}
	clone := *record
	memory.records[record.ID] = &clone
	return nil
}

func (memory *memorySubmissions) List(_ context.Context, filter submission.Filter, page pagination.Params) ([]*submission.Submission, int, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	var matched []*submission.Submission
	for _, record := range memory.records {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, record.Status) {
			continue
		}
		if filter.SubmitterID != "" && record.SubmitterID != filter.SubmitterID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(record.Name+" "+record.Title), strings.ToLower(filter.Search)) {
			continue
		}
		clone := *record
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)
	return matched[start:end], total, nil
}
