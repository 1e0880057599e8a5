// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
)

/*
TestConstructors verifies the status/code pairing of every library error kind.
*/
func TestConstructors(t *testing.T) {
	cases := []struct {
		name   string
		err    *apperr.AppError
		code   string
		status int
	}{
		{"incomplete", apperr.IncompleteMetadata("x"), apperr.CodeIncompleteMetadata, http.StatusUnprocessableEntity},
		{"duplicate", apperr.DuplicateSubmission("abc"), apperr.CodeDuplicateSubmission, http.StatusConflict},
		{"invalid_state", apperr.InvalidState("x"), apperr.CodeInvalidState, http.StatusConflict},
		{"pending", apperr.AlreadyPending(), apperr.CodeAlreadyPending, http.StatusConflict},
		{"in_progress", apperr.TransitionInProgress(), apperr.CodeTransitionInProgress, http.StatusConflict},
		{"file_missing", apperr.FileNotFound(nil), apperr.CodeFileNotFound, http.StatusNotFound},
		{"storage", apperr.StorageError(nil), apperr.CodeStorage, http.StatusInternalServerError},
		{"exhausted", apperr.PlacementExhausted(nil), apperr.CodePlacementExhausted, http.StatusInsufficientStorage},
		{"invalid_input", apperr.InvalidInput("x"), apperr.CodeValidation, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.status, tc.err.HTTPStatus)
		})
	}
}

/*
TestAs_Chain verifies extraction through fmt.Errorf wrapping.
*/
func TestAs_Chain(t *testing.T) {
	base := apperr.NotFound("Submission")
	wrapped := fmt.Errorf("submission_service_get_failed: %w", base)

	extracted := apperr.As(wrapped)
	require.NotNil(t, extracted)
	assert.Equal(t, "Submission not found", extracted.Message)
	assert.True(t, apperr.IsNotFound(wrapped))
	assert.False(t, apperr.HasCode(errors.New("plain"), apperr.CodeNotFound))
}

/*
TestWithCause verifies that the original error value is left untouched.
*/
func TestWithCause(t *testing.T) {
	cause := errors.New("disk full")
	base := apperr.StorageError(nil)

	withCause := base.WithCause(cause)
	assert.Nil(t, base.Cause)
	assert.ErrorIs(t, withCause, cause)
}

/*
TestRateLimited carries the retry hint.
*/
func TestRateLimited(t *testing.T) {
	err := apperr.RateLimited(900)

	assert.Equal(t, http.StatusTooManyRequests, err.HTTPStatus)
	assert.Equal(t, 900, err.RetryAfter)
	assert.Contains(t, err.Message, "900s")
}

/*
TestDuplicateSubmission exposes the existing record ID.
*/
func TestDuplicateSubmission(t *testing.T) {
	err := apperr.DuplicateSubmission("sub-7")

	require.Len(t, err.Details, 1)
	assert.Equal(t, "existing_id", err.Details[0].Field)
	assert.Equal(t, "sub-7", err.Details[0].Message)
}
