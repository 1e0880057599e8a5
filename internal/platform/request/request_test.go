// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/yomira-shelf/internal/platform/request"
	"github.com/taibuivan/yomira-shelf/internal/platform/sec"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Reason string `json:"reason"`
	}

	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{"object", `{"reason":"blurry scan"}`, true},
		{"empty", ``, false},
		{"malformed", `{"reason":`, false},
		{"trailing value", `{"reason":"a"} {"reason":"b"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var target payload
			request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := requestutil.DecodeJSON(request, &target)

			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, "blurry scan", target.Reason)
				return
			}
			assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		})
	}
}

func multipartRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("title", "  March issue  "))
	if field != "" {
		part, err := form.CreateFormFile(field, "monthly-2024-03.pdf")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())

	request := httptest.NewRequest(http.MethodPost, "/", &body)
	request.Header.Set("Content-Type", form.FormDataContentType())
	return request
}

func TestFormFile(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		request := multipartRequest(t, "file", []byte("%PDF-1.7 body"))
		file, header, err := requestutil.FormFile(httptest.NewRecorder(), request, "file", 1024)
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "monthly-2024-03.pdf", header.Filename)
		assert.Equal(t, "March issue", requestutil.FormValue(request, "title"))
	})

	t.Run("missing part", func(t *testing.T) {
		_, _, err := requestutil.FormFile(httptest.NewRecorder(), multipartRequest(t, "", nil), "file", 1024)
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	})

	t.Run("over the limit", func(t *testing.T) {
		request := multipartRequest(t, "file", bytes.Repeat([]byte("x"), 2048))
		_, _, err := requestutil.FormFile(httptest.NewRecorder(), request, "file", 1024)
		require.Error(t, err)
		assert.Equal(t, "file", apperr.As(err).Details[0].Field)
	})
}

func TestQueryInt(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/?year=2024&page=abc", nil)

	assert.Equal(t, 2024, requestutil.QueryInt(request, "year", 0))
	assert.Equal(t, 1, requestutil.QueryInt(request, "page", 1))
	assert.Equal(t, 7, requestutil.QueryInt(request, "month", 7))
}

func TestRequiredUserID(t *testing.T) {
	anonymous := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := requestutil.RequiredUserID(anonymous)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	authenticated := anonymous.WithContext(ctxutil.WithAuthUser(anonymous.Context(), &sec.AuthClaims{UserID: "u-1"}))
	userID, err := requestutil.RequiredUserID(authenticated)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
}
