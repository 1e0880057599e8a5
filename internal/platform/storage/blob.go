// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage abstracts the blob store that holds uploaded documents.

Paths are slash-separated keys relative to the store root (for example
"publications/monthly-report/2024/03/15/monthly-report-2024-03-15.pdf").
Two backends are provided:

  - Local: a directory tree on disk, with rename-based moves.
  - S3: any S3-compatible bucket (AWS, R2, MinIO), with copy+delete moves.

# Guarantees

Put and Move never overwrite an existing object; they fail with [ErrExists]
so callers can pick another name. A failed Move leaves the source in place.
*/
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when the addressed object does not exist.
	ErrNotFound = errors.New("storage: object not found")

	// ErrExists is returned when a write would overwrite an existing object.
	ErrExists = errors.New("storage: object already exists")

	// ErrInvalidPath is returned for keys that escape the store root.
	ErrInvalidPath = errors.New("storage: invalid path")
)

// Blob is the contract shared by every storage backend.
type Blob interface {
	// Exists reports whether an object is stored at p.
	Exists(ctx context.Context, p string) (bool, error)

	// Get opens the object for reading. The caller closes the reader.
	Get(ctx context.Context, p string) (io.ReadCloser, error)

	// Put stores content at p without overwriting.
	Put(ctx context.Context, p string, content io.Reader) error

	// Move relocates an object without overwriting the destination.
	Move(ctx context.Context, from, to string) error

	// Delete removes the object at p.
	Delete(ctx context.Context, p string) error

	// MakeDirectory ensures the directory exists (no-op for flat object stores).
	MakeDirectory(ctx context.Context, p string) error

	// URL returns the public address of the object.
	URL(p string) string

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// Clean normalizes a key and rejects attempts to escape the root.
func Clean(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	cleaned := path.Clean("/" + p)
	cleaned = strings.TrimPrefix(cleaned, "/")

	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidPath
	}

	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return "", ErrInvalidPath
		}
	}

	return cleaned, nil
}
