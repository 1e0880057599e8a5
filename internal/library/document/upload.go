// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/taibuivan/yomira-shelf/internal/platform/validate"
)

// Bounds on the descriptive fields.
const (
	TitleMaxLength       = 255
	DescriptionMaxLength = 5000
)

// Upload is an incoming file as handed over by the HTTP layer.
type Upload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// Details are the optional descriptive fields supplied with an upload.
type Details struct {
	Title       string
	Description string
}

// Normalize trims both fields.
func (details Details) Normalize() Details {
	return Details{Title: strings.TrimSpace(details.Title), Description: strings.TrimSpace(details.Description)}
}

// Validate checks the field lengths.
func (details Details) Validate() error {
	return (&validate.Validator{}).
		MaxLen("title", details.Title, TitleMaxLength).
		MaxLen("description", details.Description, DescriptionMaxLength).
		Err()
}

// TitleOr returns the explicit title, falling back to the logical name.
func (details Details) TitleOr(name string) string {
	if details.Title != "" {
		return details.Title
	}
	return name
}

// Inspection is what [Inspect] learned about an upload.
type Inspection struct {
	Metadata Metadata
	MimeType string
	Key      Key
}

/*
Inspect runs the checks every upload path shares: the size bound, the
filename convention and PDF sniffing. The content is rewound on success.

Parameters:
  - upload: Upload
  - maxBytes: int64 (current upload limit)

Returns:
  - Inspection: Parsed metadata, MIME type and duplicate key
  - error: 422 VALIDATION_ERROR AppErrors
*/
func Inspect(upload Upload, maxBytes int64) (Inspection, error) {
	if upload.Size <= 0 {
		return Inspection{}, invalid("File is empty")
	}
	if maxBytes > 0 && upload.Size > maxBytes {
		return Inspection{}, invalid(fmt.Sprintf("File exceeds the upload limit of %d bytes", maxBytes))
	}

	meta, err := ParseFilename(upload.Filename)
	if err != nil {
		return Inspection{}, err
	}

	mime, err := DetectPDF(upload.Content)
	if err != nil {
		return Inspection{}, err
	}

	return Inspection{Metadata: meta, MimeType: mime, Key: meta.Key(upload.Filename, upload.Size)}, nil
}
