// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-shelf/internal/access"
	requestutil "github.com/taibuivan/yomira-shelf/internal/platform/request"
	"github.com/taibuivan/yomira-shelf/internal/platform/respond"
)

// Handler exposes the settings store to administrators.
type Handler struct {
	store *Store
}

// NewHandler constructs a new settings [Handler].
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Routes returns the router mounted at /settings.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.get)
	router.Patch("/", handler.update)
	router.Post("/reload", handler.reload)

	return router
}

// GET /api/v1/settings.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	current, err := handler.store.Get(request.Context(), actor)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, current)
}

/*
PATCH /api/v1/settings.

Request:
  - body: Patch (omitted fields are unchanged)

Response:
  - 200: Settings
  - 400: Validation failure
  - 403: Missing settings.manage
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.store.Update(request.Context(), actor, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

// POST /api/v1/settings/reload re-reads storage on every instance.
func (handler *Handler) reload(writer http.ResponseWriter, request *http.Request) {
	actor, err := access.RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	current, err := handler.store.ReloadAs(request.Context(), actor)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, current)
}
