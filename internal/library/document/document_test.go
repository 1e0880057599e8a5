// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/library/document"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
)

// minimalPDF is enough for content sniffing.
var minimalPDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

/*
TestParseFilename_Valid verifies the parts are split exactly as delimited.
*/
func TestParseFilename_Valid(t *testing.T) {
	tests := []struct {
		filename string
		name     string
		year     int
		month    int
		day      int
		page     int
	}{
		{"monthly-report-2024-03-15-2.pdf", "monthly-report", 2024, 3, 15, 2},
		{"monthly-report-2024-03-15.pdf", "monthly-report", 2024, 3, 15, 0},
		{"Gazette-1999-12-31.PDF", "Gazette", 1999, 12, 31, 0},
		{"leap-2024-02-29-10.pdf", "leap", 2024, 2, 29, 10},
		{"a-b-c-2020-01-01.pdf", "a-b-c", 2020, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			meta, err := document.ParseFilename(tt.filename)
			require.NoError(t, err)

			assert.Equal(t, tt.name, meta.Name)
			assert.Equal(t, tt.year, meta.Year)
			assert.Equal(t, tt.month, meta.Month)
			assert.Equal(t, tt.day, meta.Day)
			if tt.page == 0 {
				assert.Nil(t, meta.Page)
			} else {
				require.NotNil(t, meta.Page)
				assert.Equal(t, tt.page, *meta.Page)
			}
		})
	}
}

/*
TestParseFilename_Invalid verifies that deviations fail with a 422 validation error.
*/
func TestParseFilename_Invalid(t *testing.T) {
	filenames := []string{
		"notes.pdf",
		"report-2024-3-15.pdf",
		"report-2024-03-15.docx",
		"report-2023-02-29.pdf",
		"report-2024-13-01.pdf",
		"report-2024-04-31.pdf",
		"report-2024-03-15-0.pdf",
		"-2024-03-15.pdf",
		"",
	}

	for _, filename := range filenames {
		t.Run(filename, func(t *testing.T) {
			_, err := document.ParseFilename(filename)
			require.Error(t, err)

			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, apperr.CodeValidation, appError.Code)
			assert.Equal(t, 422, appError.HTTPStatus)
		})
	}
}

/*
TestDetectPDF verifies sniffing and that the reader is rewound.
*/
func TestDetectPDF(t *testing.T) {
	reader := bytes.NewReader(minimalPDF)

	mime, err := document.DetectPDF(reader)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mime)

	rest, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, minimalPDF, rest)

	_, err = document.DetectPDF(bytes.NewReader([]byte("plain text, not a pdf")))
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

/*
TestMetadataKey verifies the duplicate tuple carries the upload identity.
*/
func TestMetadataKey(t *testing.T) {
	meta, err := document.ParseFilename("monthly-report-2024-03-15-2.pdf")
	require.NoError(t, err)

	key := meta.Key("monthly-report-2024-03-15-2.pdf", 2048)
	assert.Equal(t, int64(2048), key.Size)
	assert.Equal(t, 2024, key.Year)
	assert.Equal(t, 2, *key.Page)
	assert.Equal(t, "monthly", document.Details{Title: ""}.TitleOr("monthly"))
}
