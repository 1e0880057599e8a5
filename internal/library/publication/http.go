// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publication

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/library/document"
	"github.com/taibuivan/yomira-shelf/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-shelf/internal/platform/request"
	"github.com/taibuivan/yomira-shelf/internal/platform/respond"
	"github.com/taibuivan/yomira-shelf/internal/settings"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
)

// Handler implements the publication HTTP surface.
type Handler struct {
	service  *Service
	settings settings.Provider
}

// NewHandler constructs a new publication [Handler]. The settings provider
// supplies the current upload limit.
func NewHandler(service *Service, provider settings.Provider) *Handler {
	return &Handler{service: service, settings: provider}
}

// Routes returns the router mounted at /publications. Reads are public;
// everything else requires a session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)
	router.Get("/{id}/download", handler.download)

	router.Group(func(router chi.Router) {
		router.Use(middleware.RequireAuth)

		router.Post("/", handler.store)
		router.Delete("/{id}", handler.delete)

		router.Get("/deleted", handler.listDeleted)
		router.Post("/deleted/{id}/restore", handler.restore)
		router.Delete("/deleted/{id}", handler.forceDelete)
	})

	return router
}

// # Public Endpoints

/*
GET /api/v1/publications.

Query:
  - name, q, year, month, owner_id
  - page, limit

Response:
  - 200: []Publication (paginated)
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)
	filter := Filter{
		Name:    request.URL.Query().Get("name"),
		Search:  request.URL.Query().Get("q"),
		Year:    requestutil.QueryInt(request, "year", 0),
		Month:   requestutil.QueryInt(request, "month", 0),
		OwnerID: request.URL.Query().Get("owner_id"),
	}

	publications, total, err := handler.service.List(request.Context(), filter, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, publications, pagination.NewMeta(page.Page, page.Limit, total))
}

// GET /api/v1/publications/{id}.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	publication, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, publication)
}

// GET /api/v1/publications/{id}/download.
func (handler *Handler) download(writer http.ResponseWriter, request *http.Request) {
	content, publication, err := handler.service.Download(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.File(writer, request, content, publication.MimeType, publication.OriginalFilename)
}

// # Management Endpoints

/*
POST /api/v1/publications.

Request (multipart/form-data):
  - file: PDF named name-YYYY-MM-DD[-page].pdf
  - title, description: optional

Response:
  - 201: Publication
  - 409: Duplicate document
  - 422: Filename or content rejected
*/
func (handler *Handler) store(writer http.ResponseWriter, request *http.Request) {
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

	publication, err := handler.service.Store(request.Context(), actor, upload, details)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, publication)
}

// DELETE /api/v1/publications/{id} moves the publication into the archive.
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), actor, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// GET /api/v1/publications/deleted.
func (handler *Handler) listDeleted(writer http.ResponseWriter, request *http.Request) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromRequest(request)
	archived, total, err := handler.service.ListDeleted(request.Context(), actor, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, archived, pagination.NewMeta(page.Page, page.Limit, total))
}

// POST /api/v1/publications/deleted/{id}/restore.
func (handler *Handler) restore(writer http.ResponseWriter, request *http.Request) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	publication, err := handler.service.Restore(request.Context(), actor, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, publication)
}

// DELETE /api/v1/publications/deleted/{id} destroys the archived record and file.
func (handler *Handler) forceDelete(writer http.ResponseWriter, request *http.Request) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ForceDelete(request.Context(), actor, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
