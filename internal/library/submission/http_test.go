// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/library/librarytest"
	"github.com/taibuivan/yomira-shelf/internal/library/submission"
	"github.com/taibuivan/yomira-shelf/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-shelf/internal/platform/sec"
)

// asActor injects claims the way the authentication middleware would.
func asActor(actor access.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := &sec.AuthClaims{UserID: actor.UserID, RoleID: actor.RoleID}
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthUser(request.Context(), claims)))
		})
	}
}

func serve(fixture *fixture, actor access.Actor, request *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Use(asActor(actor))
	router.Mount("/submissions", submission.NewHandler(fixture.service, fixture.settings).Routes())

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, form.WriteField("title", "March report"))
	require.NoError(t, form.Close())

	request := httptest.NewRequest(http.MethodPost, "/submissions/", &body)
	request.Header.Set("Content-Type", form.FormDataContentType())
	return request
}

type envelope struct {
	Data  submission.Submission `json:"data"`
	Code  string                `json:"code"`
	Error string                `json:"error"`
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestHTTP_SubmitAndReview(t *testing.T) {
	fixture := newFixture(t)

	recorder := serve(fixture, member, uploadRequest(t, reportFile, librarytest.PDF))
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	created := decode(t, recorder).Data
	assert.Equal(t, submission.StatusPending, created.Status)
	assert.Equal(t, "March report", created.Title)

	recorder = serve(fixture, member, httptest.NewRequest(http.MethodPost, "/submissions/"+created.ID+"/approve", nil))
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	approve := httptest.NewRequest(http.MethodPost, "/submissions/"+created.ID+"/approve", strings.NewReader(`{"notes":"ok"}`))
	recorder = serve(fixture, librarian, approve)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	approved := decode(t, recorder).Data
	assert.Equal(t, submission.StatusApproved, approved.Status)
	assert.Equal(t, "ok", *approved.ReviewNotes)

	recorder = serve(fixture, librarian, httptest.NewRequest(http.MethodPost, "/submissions/"+created.ID+"/approve", nil))
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "INVALID_STATE", decode(t, recorder).Code)

	recorder = serve(fixture, librarian, httptest.NewRequest(http.MethodPost, "/submissions/"+created.ID+"/revert", nil))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, submission.StatusPending, decode(t, recorder).Data.Status)
}

func TestHTTP_SubmitRejectsBadFilename(t *testing.T) {
	fixture := newFixture(t)

	recorder := serve(fixture, member, uploadRequest(t, "notes.pdf", librarytest.PDF))
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, recorder).Code)
	assert.Zero(t, fixture.submissions.count())
}

func TestHTTP_RejectRequiresReason(t *testing.T) {
	fixture := newFixture(t)
	created := fixture.submit(t, member, reportFile)

	request := httptest.NewRequest(http.MethodPost, "/submissions/"+created.ID+"/reject", strings.NewReader(`{"reason":""}`))
	recorder := serve(fixture, librarian, request)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	request = httptest.NewRequest(http.MethodPost, "/submissions/"+created.ID+"/reject", strings.NewReader(`{"reason":"unreadable"}`))
	recorder = serve(fixture, librarian, request)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, submission.StatusRejected, decode(t, recorder).Data.Status)
}
