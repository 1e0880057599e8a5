// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores objects in a directory tree on the local filesystem.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates the root directory if needed and returns a [Local] store.
func NewLocal(root, baseURL string) (*Local, error) {
	absolute, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}

	if err := os.MkdirAll(absolute, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}

	return &Local{root: absolute, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root returns the absolute directory backing the store.
func (local *Local) Root() string {
	return local.root
}

func (local *Local) full(p string) (string, error) {
	cleaned, err := Clean(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(local.root, filepath.FromSlash(cleaned)), nil
}

// Exists implements [Blob].
func (local *Local) Exists(_ context.Context, p string) (bool, error) {
	full, err := local.full(p)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: stat %s: %w", p, err)
	}

	return !info.IsDir(), nil
}

// Get implements [Blob].
func (local *Local) Get(_ context.Context, p string) (io.ReadCloser, error) {
	full, err := local.full(p)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", p, err)
	}

	return file, nil
}

/*
Put writes content to a temporary file next to the target, then hard-links it
into place. The link fails if the target exists, so concurrent writers can
never clobber each other and readers never observe a partial file.
*/
func (local *Local) Put(_ context.Context, p string, content io.Reader) error {
	full, err := local.full(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage: create directory for %s: %w", p, err)
	}

	return publish(full, func(temp *os.File) error {
		_, err := io.Copy(temp, content)
		return err
	})
}

/*
Move hard-links the object at its new path and then removes the original.
Linking fails when the target exists, so a concurrent move onto the same
path gets [ErrExists] rather than replacing the winner's file. Where links
are impossible (for example across devices) it falls back to copy, publish
and remove; the source is only removed once the destination is complete.
*/
func (local *Local) Move(_ context.Context, from, to string) error {
	source, err := local.full(from)
	if err != nil {
		return err
	}

	target, err := local.full(to)
	if err != nil {
		return err
	}

	if _, err := os.Stat(source); errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("storage: create directory for %s: %w", to, err)
	}

	err = os.Link(source, target)
	if errors.Is(err, fs.ErrExist) {
		return ErrExists
	}
	if err != nil {
		err = local.copyInto(source, target)
	}
	if err != nil {
		return err
	}

	if err := os.Remove(source); err != nil {
		_ = os.Remove(target)
		return fmt.Errorf("storage: remove %s after move: %w", from, err)
	}

	return nil
}

// copyInto publishes a copy of source at target without overwriting.
func (local *Local) copyInto(source, target string) error {
	sourceFile, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("storage: open %s: %w", source, err)
	}
	defer sourceFile.Close()

	return publish(target, func(temp *os.File) error {
		_, err := io.Copy(temp, sourceFile)
		return err
	})
}

// Delete implements [Blob].
func (local *Local) Delete(_ context.Context, p string) error {
	full, err := local.full(p)
	if err != nil {
		return err
	}

	err = os.Remove(full)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", p, err)
	}

	return nil
}

// MakeDirectory implements [Blob].
func (local *Local) MakeDirectory(_ context.Context, p string) error {
	full, err := local.full(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(full, 0o755); err != nil {
		return fmt.Errorf("storage: create directory %s: %w", p, err)
	}

	return nil
}

// URL implements [Blob].
func (local *Local) URL(p string) string {
	cleaned, err := Clean(p)
	if err != nil {
		return ""
	}
	return local.baseURL + "/" + cleaned
}

// Ping implements [Blob].
func (local *Local) Ping(_ context.Context) error {
	info, err := os.Stat(local.root)
	if err != nil {
		return fmt.Errorf("storage: root unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: root %s is not a directory", local.root)
	}
	return nil
}

// publish fills a temp file via write and links it to target exclusively.
func publish(target string, write func(temp *os.File) error) error {
	temp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}

	tempName := temp.Name()
	defer os.Remove(tempName)

	if err := write(temp); err != nil {
		_ = temp.Close()
		return fmt.Errorf("storage: write temp file: %w", err)
	}

	if err := temp.Sync(); err != nil {
		_ = temp.Close()
		return fmt.Errorf("storage: sync temp file: %w", err)
	}

	if err := temp.Close(); err != nil {
		return fmt.Errorf("storage: close temp file: %w", err)
	}

	if err := os.Link(tempName, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("storage: publish %s: %w", filepath.Base(target), err)
	}

	return nil
}
