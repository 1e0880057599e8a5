// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/platform/storage"
)

func newLocal(t *testing.T) *storage.Local {
	t.Helper()
	local, err := storage.NewLocal(t.TempDir(), "/files/")
	require.NoError(t, err)
	return local
}

func readAll(t *testing.T, local *storage.Local, p string) string {
	t.Helper()
	reader, err := local.Get(context.Background(), p)
	require.NoError(t, err)
	defer reader.Close()
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	return string(content)
}

/*
TestLocal_PutNeverOverwrites verifies exclusive creation.
*/
func TestLocal_PutNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)

	require.NoError(t, local.Put(ctx, "a/b/doc.pdf", strings.NewReader("first")))
	err := local.Put(ctx, "a/b/doc.pdf", strings.NewReader("second"))

	assert.ErrorIs(t, err, storage.ErrExists)
	assert.Equal(t, "first", readAll(t, local, "a/b/doc.pdf"))

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Join(local.Root(), "a", "b"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

/*
TestLocal_Move verifies relocation and the no-overwrite guarantee.
*/
func TestLocal_Move(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)

	require.NoError(t, local.Put(ctx, "staging/doc.pdf", strings.NewReader("pdf")))
	require.NoError(t, local.Move(ctx, "staging/doc.pdf", "permanent/2024/doc.pdf"))

	exists, err := local.Exists(ctx, "staging/doc.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, "pdf", readAll(t, local, "permanent/2024/doc.pdf"))

	require.NoError(t, local.Put(ctx, "staging/other.pdf", strings.NewReader("other")))
	assert.ErrorIs(t, local.Move(ctx, "staging/other.pdf", "permanent/2024/doc.pdf"), storage.ErrExists)
	assert.Equal(t, "other", readAll(t, local, "staging/other.pdf"))

	assert.ErrorIs(t, local.Move(ctx, "staging/missing.pdf", "x.pdf"), storage.ErrNotFound)
}

/*
TestLocal_ConcurrentMovesOntoOnePath verifies that racing moves never replace
each other: one wins, the other sees ErrExists and keeps its source.
*/
func TestLocal_ConcurrentMovesOntoOnePath(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)

	sources := []string{"staging/a/doc.pdf", "staging/b/doc.pdf"}
	for index, source := range sources {
		require.NoError(t, local.Put(ctx, source, strings.NewReader(fmt.Sprintf("content-%d", index))))
	}

	results := make([]error, len(sources))
	var wg sync.WaitGroup
	for index, source := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[index] = local.Move(ctx, source, "permanent/doc.pdf")
		}()
	}
	wg.Wait()

	var moved, refused int
	for index, err := range results {
		switch {
		case err == nil:
			moved++
			assert.Equal(t, fmt.Sprintf("content-%d", index), readAll(t, local, "permanent/doc.pdf"))
		case errors.Is(err, storage.ErrExists):
			refused++
			assert.Equal(t, fmt.Sprintf("content-%d", index), readAll(t, local, sources[index]))
		default:
			t.Fatalf("unexpected move error: %v", err)
		}
	}
	assert.Equal(t, 1, moved)
	assert.Equal(t, 1, refused)
}

/*
TestLocal_PathEscape verifies that keys cannot leave the root.
*/
func TestLocal_PathEscape(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)

	assert.ErrorIs(t, local.Put(ctx, "../outside.pdf", strings.NewReader("x")), storage.ErrInvalidPath)
	_, err := local.Exists(ctx, "a/../../etc/passwd")
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}

/*
TestLocal_DeleteAndURL covers deletion and public URL building.
*/
func TestLocal_DeleteAndURL(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)

	require.NoError(t, local.Put(ctx, "doc.pdf", strings.NewReader("x")))
	require.NoError(t, local.Delete(ctx, "doc.pdf"))
	assert.ErrorIs(t, local.Delete(ctx, "doc.pdf"), storage.ErrNotFound)

	assert.Equal(t, "/files/publications/doc.pdf", local.URL("publications/doc.pdf"))
	assert.NoError(t, local.Ping(ctx))
}

/*
TestClean covers key normalization.
*/
func TestClean(t *testing.T) {
	cleaned, err := storage.Clean("/publications//x/./doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "publications/x/doc.pdf", cleaned)

	_, err = storage.Clean("")
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}
