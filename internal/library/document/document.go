// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package document holds the filename convention and identity rules shared by
submissions and publications.

Every library document is uploaded as "{name}-{YYYY}-{MM}-{DD}[-{page}].pdf".
The parsed parts decide where the file is placed and, together with the
original filename and byte size, whether it duplicates an existing record.
*/
package document

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
)

var filenamePattern = regexp.MustCompile(`(?i)^(?P<name>.+?)-(?P<year>\d{4})-(?P<month>\d{2})-(?P<day>\d{2})(?:-(?P<page>\d+))?\.pdf$`)

// Metadata is what a conforming filename encodes.
type Metadata struct {
	Name  string
	Year  int
	Month int
	Day   int
	Page  *int
}

// Key identifies a document for duplicate detection.
type Key struct {
	OriginalFilename string
	Size             int64
	Year             int
	Month            int
	Day              int
	Page             *int
}

// Key combines the metadata with the upload's original name and size.
func (meta Metadata) Key(originalFilename string, size int64) Key {
	return Key{
		OriginalFilename: originalFilename,
		Size:             size,
		Year:             meta.Year,
		Month:            meta.Month,
		Day:              meta.Day,
		Page:             meta.Page,
	}
}

// ParseFilename extracts the metadata from a filename such as
// "monthly-report-2024-03-15-2.pdf". It fails with a 422 VALIDATION_ERROR
// when the name does not follow the convention or names an impossible date.
func ParseFilename(filename string) (Metadata, error) {
	match := filenamePattern.FindStringSubmatch(strings.TrimSpace(filename))
	if match == nil {
		return Metadata{}, invalid("Filename must follow name-YYYY-MM-DD[-page].pdf")
	}

	group := func(name string) string {
		return match[filenamePattern.SubexpIndex(name)]
	}

	year, _ := strconv.Atoi(group("year"))
	month, _ := strconv.Atoi(group("month"))
	day, _ := strconv.Atoi(group("day"))

	if !ValidDate(year, month, day) {
		return Metadata{}, invalid(fmt.Sprintf("Filename date %04d-%02d-%02d is not a calendar date", year, month, day))
	}

	meta := Metadata{Name: group("name"), Year: year, Month: month, Day: day}

	if raw := group("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Metadata{}, invalid("Filename page number must be at least 1")
		}
		meta.Page = &page
	}

	return meta, nil
}

// ValidDate reports whether the parts name a real calendar day.
func ValidDate(year, month, day int) bool {
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return date.Year() == year && int(date.Month()) == month && date.Day() == day
}

// DetectPDF sniffs the content type and rewinds the reader.
// Anything other than a PDF is rejected with a 422 VALIDATION_ERROR.
func DetectPDF(content io.ReadSeeker) (string, error) {
	detected, err := mimetype.DetectReader(content)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("document: sniff content: %w", err))
	}

	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return "", apperr.Internal(fmt.Errorf("document: rewind content: %w", err))
	}

	if !detected.Is(constants.MimePDF) {
		return "", invalid("File content must be a PDF document")
	}

	return constants.MimePDF, nil
}

func invalid(message string) error {
	return apperr.InvalidInput("Invalid document", apperr.FieldError{Field: "file", Message: message})
}
