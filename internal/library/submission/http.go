// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/library/document"
	"github.com/taibuivan/yomira-shelf/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-shelf/internal/platform/request"
	"github.com/taibuivan/yomira-shelf/internal/platform/respond"
	"github.com/taibuivan/yomira-shelf/internal/settings"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
	"github.com/taibuivan/yomira-shelf/pkg/query"
	"github.com/taibuivan/yomira-shelf/pkg/slice"
)

// Handler implements the submission HTTP surface.
type Handler struct {
	service  *Service
	settings settings.Provider
}

// NewHandler constructs a new submission [Handler].
func NewHandler(service *Service, provider settings.Provider) *Handler {
	return &Handler{service: service, settings: provider}
}

// Routes returns the router mounted at /submissions. Every route needs a session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Post("/", handler.submit)
	router.Get("/{id}", handler.get)
	router.Get("/{id}/download", handler.download)

	router.Post("/{id}/approve", handler.approve)
	router.Post("/{id}/approve-without-file", handler.approveWithoutFile)
	router.Post("/{id}/reject", handler.reject)
	router.Post("/{id}/revert", handler.revert)

	return router
}

// # Submitter Endpoints

/*
POST /api/v1/submissions.

Request (multipart/form-data):
  - file: PDF named name-YYYY-MM-DD[-page].pdf
  - title, description: optional

Response:
  - 201: Submission (pending)
  - 409: Duplicate document
  - 422: Filename or content rejected
  - 503: Submissions closed
*/
func (handler *Handler) submit(writer http.ResponseWriter, request *http.Request) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	file, header, err := requestutil.FormFile(writer, request, "file", handler.settings.Current().MaxUploadBytes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer file.Close()

	upload := document.Upload{Filename: header.Filename, Size: header.Size, Content: file}
	details := document.Details{
		Title:       requestutil.FormValue(request, "title"),
		Description: requestutil.FormValue(request, "description"),
	}

	submission, err := handler.service.Submit(request.Context(), actor, upload, details)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, submission)
}

/*
GET /api/v1/submissions.

Query:
  - status: comma separated (pending,approved,rejected)
  - submitter_id: reviewers only; others always see their own
  - q, page, limit
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromRequest(request)
	filter := Filter{
		Statuses:    slice.Map(query.StringSlice(request.URL.Query().Get("status")), func(raw string) Status { return Status(raw) }),
		SubmitterID: request.URL.Query().Get("submitter_id"),
		Search:      request.URL.Query().Get("q"),
	}

	submissions, total, err := handler.service.List(request.Context(), actor, filter, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, submissions, pagination.NewMeta(page.Page, page.Limit, total))
}

// GET /api/v1/submissions/{id}.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	submission, err := handler.service.Get(request.Context(), actor, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, submission)
}

// GET /api/v1/submissions/{id}/download.
func (handler *Handler) download(writer http.ResponseWriter, request *http.Request) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	content, submission, err := handler.service.Download(request.Context(), actor, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.File(writer, request, content, submission.MimeType, submission.OriginalFilename)
}

// # Reviewer Endpoints

type approveRequest struct {
	Notes string `json:"notes"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// decodeOptional decodes a JSON body when one was sent.
func decodeOptional(request *http.Request, target any) error {
	if request.ContentLength == 0 {
		return nil
	}
	return requestutil.DecodeJSON(request, target)
}

/*
POST /api/v1/submissions/{id}/approve.

Request:
  - body: {"notes": "optional"}

Response:
  - 200: Submission (approved)
  - 404: File missing (strict mode)
  - 409: Not pending, duplicate publication or concurrent review
  - 422: Incomplete date metadata
*/
func (handler *Handler) approve(writer http.ResponseWriter, request *http.Request) {
	handler.approveWith(writer, request, handler.service.Approve)
}

// POST /api/v1/submissions/{id}/approve-without-file.
func (handler *Handler) approveWithoutFile(writer http.ResponseWriter, request *http.Request) {
	handler.approveWith(writer, request, handler.service.ApproveWithoutFile)
}

type approveFunc func(ctx context.Context, actor access.Actor, id, notes string) (*Submission, error)

func (handler *Handler) approveWith(writer http.ResponseWriter, request *http.Request, approve approveFunc) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body approveRequest
	if err := decodeOptional(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	submission, err := approve(request.Context(), actor, requestutil.ID(request, "id"), body.Notes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, submission)
}

/*
POST /api/v1/submissions/{id}/reject.

Request:
  - body: {"reason": "required, at most 1000 characters"}
*/
func (handler *Handler) reject(writer http.ResponseWriter, request *http.Request) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body rejectRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	submission, err := handler.service.Reject(request.Context(), actor, requestutil.ID(request, "id"), body.Reason)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, submission)
}

// POST /api/v1/submissions/{id}/revert.
func (handler *Handler) revert(writer http.ResponseWriter, request *http.Request) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	submission, err := handler.service.Revert(request.Context(), actor, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, submission)
}
