// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/respond"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
)

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	return body
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter string
	}{
		{"app error", apperr.NotFound("Publication"), http.StatusNotFound, apperr.CodeNotFound, ""},
		{"wrapped app error", errors.Join(errors.New("ctx"), apperr.AlreadyPending()), http.StatusConflict, apperr.CodeAlreadyPending, ""},
		{"plain error hidden", errors.New("pq: relation missing"), http.StatusInternalServerError, apperr.CodeInternal, ""},
		{"rate limited", apperr.RateLimited(30), http.StatusTooManyRequests, apperr.CodeRateLimited, "30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respond.Error(recorder, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, tt.retryAfter, recorder.Header().Get("Retry-After"))

			body := decode(t, recorder)
			assert.Equal(t, tt.code, body["code"])
			assert.NotContains(t, body["error"], "pq:")
		})
	}
}

func TestError_ValidationDetails(t *testing.T) {
	recorder := httptest.NewRecorder()
	err := apperr.ValidationError("Invalid input", apperr.FieldError{Field: "title", Message: "Required"})
	respond.Error(recorder, httptest.NewRequest(http.MethodPost, "/", nil), err)

	body := decode(t, recorder)
	details, ok := body["details"].([]any)
	require.True(t, ok)
	assert.Len(t, details, 1)
}

func TestPaginated(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.Paginated(recorder, []string{"a", "b"}, pagination.NewMeta(1, 2, 5))

	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decode(t, recorder)
	meta := body["meta"].(map[string]any)
	assert.EqualValues(t, 3, meta["total_pages"])
}

func TestFile(t *testing.T) {
	recorder := httptest.NewRecorder()
	content := io.NopCloser(strings.NewReader("%PDF-1.7"))
	respond.File(recorder, httptest.NewRequest(http.MethodGet, "/", nil), content, "", `issue "7".pdf`)

	assert.Equal(t, "application/octet-stream", recorder.Header().Get("Content-Type"))
	assert.Contains(t, recorder.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "%PDF-1.7", recorder.Body.String())
}
