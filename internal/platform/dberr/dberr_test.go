// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/dberr"
)

/*
TestWrap verifies SQLSTATE classification into application errors.
*/
func TestWrap(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"no_rows", pgx.ErrNoRows, apperr.CodeNotFound},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, apperr.CodeConflict},
		{"foreign_key", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, apperr.CodeConflict},
		{"lock", &pgconn.PgError{Code: pgerrcode.LockNotAvailable}, apperr.CodeTransitionInProgress},
		{"unknown", errors.New("boom"), apperr.CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, apperr.HasCode(dberr.Wrap(tc.err, "test_action"), tc.code))
		})
	}

	assert.NoError(t, dberr.Wrap(nil, "noop"))
}

/*
TestNotFoundAs verifies resource naming on missing rows.
*/
func TestNotFoundAs(t *testing.T) {
	err := dberr.NotFoundAs(pgx.ErrNoRows, "Publication", "find")
	assert.Equal(t, "Publication not found", err.Error())
	assert.True(t, dberr.IsUniqueViolation(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
}
