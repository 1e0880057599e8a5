// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/yomira-shelf/internal/platform/request"
	"github.com/taibuivan/yomira-shelf/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the admin HTTP surface for roles and permissions.
type Handler struct {
	service *Service
}

// NewHandler constructs a new access [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RoleRoutes returns the router mounted at /admin/roles.
func (handler *Handler) RoleRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listRoles)
	router.Post("/", handler.createRole)
	router.Get("/{id}", handler.getRole)
	router.Patch("/{id}", handler.updateRole)
	router.Delete("/{id}", handler.deleteRole)
	router.Put("/{id}/permissions", handler.syncRolePermissions)

	return router
}

// PermissionRoutes returns the router mounted at /admin/permissions.
func (handler *Handler) PermissionRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listPermissions)
	router.Post("/", handler.createPermission)
	router.Get("/{id}", handler.getPermission)
	router.Patch("/{id}", handler.updatePermission)
	router.Delete("/{id}", handler.deletePermission)

	return router
}

// # Role Endpoints

type roleRequest struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	IsDefault   bool     `json:"is_default"`
	Permissions []string `json:"permissions"`
}

func (body roleRequest) input() RoleInput {
	return RoleInput{
		Name:        body.Name,
		Slug:        body.Slug,
		Description: body.Description,
		IsDefault:   body.IsDefault,
		Permissions: body.Permissions,
	}
}

/*
GET /api/v1/admin/roles.

Response:
  - 200: []Role with permissions
  - 403: Missing roles.manage
*/
func (handler *Handler) listRoles(writer http.ResponseWriter, request *http.Request) {
	actor, err := RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	roles, err := handler.service.ListRoles(request.Context(), actor)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, roles)
}

/*
POST /api/v1/admin/roles.

Request:
  - body: roleRequest

Response:
  - 201: Role
  - 400: Validation failure
  - 409: Duplicate slug
*/
func (handler *Handler) createRole(writer http.ResponseWriter, request *http.Request) {
	actor, err := RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body roleRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.service.CreateRole(request.Context(), actor, body.input())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, role)
}

// GET /api/v1/admin/roles/{id}.
func (handler *Handler) getRole(writer http.ResponseWriter, request *http.Request) {
	actor, err := RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.service.GetRole(request.Context(), actor, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

// PATCH /api/v1/admin/roles/{id}.
func (handler *Handler) updateRole(writer http.ResponseWriter, request *http.Request) {
	actor, err := RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body roleRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.service.UpdateRole(request.Context(), actor, requestutil.ID(request, "id"), body.input())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

/*
DELETE /api/v1/admin/roles/{id}.

Response:
  - 204: Deleted
  - 409: Role is default or still assigned
*/
func (handler *Handler) deleteRole(writer http.ResponseWriter, request *http.Request) {
	actor, err := RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteRole(request.Context(), actor, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// PUT /api/v1/admin/roles/{id}/permissions with {"permissions": ["name", ...]}.
func (handler *Handler) syncRolePermissions(writer http.ResponseWriter, request *http.Request) {
	actor, err := RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body struct {
		Permissions []string `json:"permissions"`
	}
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.service.SyncRolePermissions(request.Context(), actor, requestutil.ID(request, "id"), body.Permissions)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

// # Permission Endpoints

type permissionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group"`
}

// GET /api/v1/admin/permissions (grouped).
func (handler *Handler) listPermissions(writer http.ResponseWriter, request *http.Request) {
	actor, err := RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	groups, err := handler.service.ListPermissions(request.Context(), actor)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, groups)
}

// POST /api/v1/admin/permissions.
func (handler *Handler) createPermission(writer http.ResponseWriter, request *http.Request) {
	actor, err := RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body permissionRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	permission, err := handler.service.CreatePermission(request.Context(), actor, PermissionInput(body))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, permission)
}

// GET /api/v1/admin/permissions/{id}.
func (handler *Handler) getPermission(writer http.ResponseWriter, request *http.Request) {
	actor, err := RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	permission, err := handler.service.GetPermission(request.Context(), actor, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, permission)
}

// PATCH /api/v1/admin/permissions/{id}.
func (handler *Handler) updatePermission(writer http.ResponseWriter, request *http.Request) {
	actor, err := RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body permissionRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	permission, err := handler.service.UpdatePermission(request.Context(), actor, requestutil.ID(request, "id"), PermissionInput(body))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, permission)
}

// DELETE /api/v1/admin/permissions/{id}.
func (handler *Handler) deletePermission(writer http.ResponseWriter, request *http.Request) {
	actor, err := RequiredActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeletePermission(request.Context(), actor, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
