// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"context"
	"fmt"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
)

// DuplicateFinder looks up a live record holding the same document.
type DuplicateFinder interface {

	// FindDuplicate returns the id of a matching record, or "" when none exists.
	FindDuplicate(ctx context.Context, key Key) (string, error)
}

// CheckDuplicate asks every finder in turn and fails with
// DUPLICATE_SUBMISSION naming the first match.
func CheckDuplicate(ctx context.Context, key Key, finders ...DuplicateFinder) error {
	for _, finder := range finders {
		existingID, err := finder.FindDuplicate(ctx, key)
		if err != nil {
			return err
		}
		if existingID != "" {
			return apperr.DuplicateSubmission(existingID)
		}
	}
	return nil
}

// LockKey names the key for serializing uploads of the same document.
func (key Key) LockKey() string {
	page := 0
	if key.Page != nil {
		page = *key.Page
	}
	return fmt.Sprintf("document:%04d-%02d-%02d:%d:%d:%s", key.Year, key.Month, key.Day, page, key.Size, key.OriginalFilename)
}

// Matches reports whether other names the same document.
func (key Key) Matches(other Key) bool {
	if key.OriginalFilename != other.OriginalFilename || key.Size != other.Size ||
		key.Year != other.Year || key.Month != other.Month || key.Day != other.Day {
		return false
	}
	if key.Page == nil || other.Page == nil {
		return key.Page == nil && other.Page == nil
	}
	return *key.Page == *other.Page
}
