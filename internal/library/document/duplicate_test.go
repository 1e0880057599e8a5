// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/library/document"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
)

type finderFunc func(ctx context.Context, key document.Key) (string, error)

func (fn finderFunc) FindDuplicate(ctx context.Context, key document.Key) (string, error) {
	return fn(ctx, key)
}

func TestCheckDuplicate(t *testing.T) {
	key := document.Key{OriginalFilename: "a-2024-01-01.pdf", Size: 10, Year: 2024, Month: 1, Day: 1}
	none := finderFunc(func(context.Context, document.Key) (string, error) { return "", nil })
	found := finderFunc(func(context.Context, document.Key) (string, error) { return "pub-1", nil })

	require.NoError(t, document.CheckDuplicate(context.Background(), key, none, none))

	err := document.CheckDuplicate(context.Background(), key, none, found)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, apperr.CodeDuplicateSubmission, appError.Code)
	assert.Equal(t, "pub-1", appError.Details[0].Message)
}

func TestKey_Matches(t *testing.T) {
	two, three := 2, 3
	base := document.Key{OriginalFilename: "r-2024-03-15-2.pdf", Size: 9, Year: 2024, Month: 3, Day: 15, Page: &two}

	same := base
	samePage := 2
	same.Page = &samePage
	assert.True(t, base.Matches(same))

	otherPage := base
	otherPage.Page = &three
	assert.False(t, base.Matches(otherPage))

	noPage := base
	noPage.Page = nil
	assert.False(t, base.Matches(noPage))

	otherSize := base
	otherSize.Size = 10
	assert.False(t, base.Matches(otherSize))
	assert.NotEqual(t, base.LockKey(), otherSize.LockKey())
}

func TestInspect(t *testing.T) {
	upload := func(name string, content []byte) document.Upload {
		return document.Upload{Filename: name, Size: int64(len(content)), Content: bytes.NewReader(content)}
	}

	inspection, err := document.Inspect(upload("monthly-report-2024-03-15-2.pdf", minimalPDF), 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "monthly-report", inspection.Metadata.Name)
	assert.Equal(t, "application/pdf", inspection.MimeType)
	assert.Equal(t, int64(len(minimalPDF)), inspection.Key.Size)

	_, err = document.Inspect(upload("monthly-report-2024-03-15.pdf", minimalPDF), 10)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = document.Inspect(upload("notes.pdf", minimalPDF), 1<<20)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = document.Inspect(upload("notes-2024-03-15.pdf", []byte("hello")), 1<<20)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = document.Inspect(upload("empty-2024-03-15.pdf", nil), 1<<20)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}
