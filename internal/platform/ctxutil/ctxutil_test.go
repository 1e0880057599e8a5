// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-shelf/internal/platform/sec"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	ctx = ctxutil.WithRequestID(ctx, "req-42")
	assert.Equal(t, "req-42", ctxutil.GetRequestID(ctx))
}

func TestLogger_FallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	assert.Same(t, slog.Default(), ctxutil.GetLogger(ctx))

	scoped := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Same(t, scoped, ctxutil.GetLogger(ctxutil.WithLogger(ctx, scoped)))
}

func TestAuthUser(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ctxutil.GetAuthUser(ctx))

	claims := &sec.AuthClaims{UserID: "u-1", RoleID: "r-librarian"}
	got := ctxutil.GetAuthUser(ctxutil.WithAuthUser(ctx, claims))

	require.NotNil(t, got)
	assert.Equal(t, "u-1", got.UserID)
}

func TestClaimsHolder_SeesInnerAuthentication(t *testing.T) {
	holder := &ctxutil.ClaimsHolder{}
	outer := ctxutil.WithClaimsHolder(context.Background(), holder)
	assert.Nil(t, holder.Claims())

	inner := ctxutil.WithRequestID(outer, "req-1")
	ctxutil.WithAuthUser(inner, &sec.AuthClaims{UserID: "u-2"})

	require.NotNil(t, holder.Claims())
	assert.Equal(t, "u-2", holder.Claims().UserID)
	assert.Nil(t, ctxutil.GetAuthUser(outer))
}
