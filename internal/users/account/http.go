// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
	requestutil "github.com/taibuivan/yomira-shelf/internal/platform/request"
	"github.com/taibuivan/yomira-shelf/internal/platform/respond"
	"github.com/taibuivan/yomira-shelf/internal/platform/sec"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
)

// Handler serves /me and /admin/users.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns the self-service router mounted at /me.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", self(handler.getMe))
	router.Patch("/", self(handler.updateMe))
	router.Delete("/", self(handler.deleteMe))

	router.Get("/sessions", self(handler.listSessions))
	router.Delete("/sessions", self(handler.revokeOtherSessions))
	router.Delete("/sessions/{id}", self(handler.revokeSession))

	return router
}

// AdminRoutes returns the user directory mounted at /admin/users.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", admin(handler.listUsers))
	router.Post("/", admin(handler.createUser))
	router.Get("/{id}", admin(handler.getUser))
	router.Patch("/{id}", admin(handler.updateUser))
	router.Put("/{id}/role", admin(handler.updateUserRole))
	router.Delete("/{id}", admin(handler.deleteUser))

	return router
}

// # Adapters

// selfHandler serves the caller's own account. A non-nil error is written
// with respond.Error.
type selfHandler func(writer http.ResponseWriter, request *http.Request, userID string) error

func self(next selfHandler) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		userID, err := requestutil.RequiredUserID(request)
		if err == nil {
			err = next(writer, request, userID)
		}
		if err != nil {
			respond.Error(writer, request, err)
		}
	}
}

// adminHandler acts on other accounts on behalf of actor.
type adminHandler func(writer http.ResponseWriter, request *http.Request, actor access.Actor) error

func admin(next adminHandler) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		actor, err := access.RequiredActor(request)
		if err == nil {
			err = next(writer, request, actor)
		}
		if err != nil {
			respond.Error(writer, request, err)
		}
	}
}

// currentTokenHash identifies the caller's session by its refresh cookie.
func currentTokenHash(request *http.Request) string {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return sec.HashToken(cookie.Value)
}

// # Profile

// GET /api/v1/me returns the private profile with its role summary.
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request, userID string) error {
	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		return err
	}
	respond.OK(writer, user)
	return nil
}

type updateMeRequest struct {
	DisplayName *string `json:"display_name"`
}

/*
PATCH /api/v1/me

Response:
  - 200: Updated profile
  - 400: Display name outside 2..50 characters
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request, userID string) error {
	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		return err
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput(input))
	if err != nil {
		return err
	}
	respond.OK(writer, user)
	return nil
}

// DELETE /api/v1/me soft-deletes the account and signs out every device.
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request, userID string) error {
	if err := handler.accountService.DeleteAccount(request.Context(), userID); err != nil {
		return err
	}
	respond.NoContent(writer)
	return nil
}

// # Sessions

// GET /api/v1/me/sessions lists signed-in devices; the one holding the
// request's refresh cookie is flagged is_current.
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request, userID string) error {
	sessions, err := handler.accountService.ListSessions(request.Context(), userID, currentTokenHash(request))
	if err != nil {
		return err
	}
	respond.OK(writer, sessions)
	return nil
}

func (handler *Handler) revokeSession(writer http.ResponseWriter, request *http.Request, userID string) error {
	if err := handler.accountService.RevokeSession(request.Context(), userID, requestutil.ID(request, "id")); err != nil {
		return err
	}
	respond.NoContent(writer)
	return nil
}

// DELETE /api/v1/me/sessions signs out every device but the caller's.
func (handler *Handler) revokeOtherSessions(writer http.ResponseWriter, request *http.Request, userID string) error {
	if err := handler.accountService.RevokeOtherSessions(request.Context(), userID, currentTokenHash(request)); err != nil {
		return err
	}
	respond.NoContent(writer)
	return nil
}

// # Directory

/*
GET /api/v1/admin/users

Request:
  - q: Matches username, email or display name
  - role_id: Exact role
  - page, limit

Response:
  - 200: Paginated []AdminView
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request, actor access.Actor) error {
	page := pagination.FromRequest(request)
	query := request.URL.Query()

	users, total, err := handler.accountService.ListUsers(request.Context(), actor, Filter{
		Search: query.Get("q"),
		RoleID: query.Get("role_id"),
	}, page)
	if err != nil {
		return err
	}

	respond.Paginated(writer, users, pagination.NewMeta(page.Page, page.Limit, total))
	return nil
}

func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request, actor access.Actor) error {
	user, err := handler.accountService.GetUser(request.Context(), actor, requestutil.ID(request, "id"))
	if err != nil {
		return err
	}
	respond.OK(writer, user)
	return nil
}

type createUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	RoleID      string `json:"role_id"`
	Verified    bool   `json:"is_verified"`
}

/*
POST /api/v1/admin/users

Response:
  - 201: AdminView
  - 409: Username or email taken
  - 422: Unknown role
*/
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request, actor access.Actor) error {
	var body createUserRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		return err
	}

	user, err := handler.accountService.CreateUser(request.Context(), actor, CreateUserInput(body))
	if err != nil {
		return err
	}
	respond.Created(writer, user)
	return nil
}

type updateUserRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	DisplayName *string `json:"display_name"`
}

func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request, actor access.Actor) error {
	var body updateUserRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		return err
	}

	user, err := handler.accountService.UpdateUser(request.Context(), actor, requestutil.ID(request, "id"), UpdateUserInput(body))
	if err != nil {
		return err
	}
	respond.OK(writer, user)
	return nil
}

type updateRoleRequest struct {
	RoleID string `json:"role_id"`
}

/*
PUT /api/v1/admin/users/{id}/role

Response:
  - 200: AdminView
  - 409: Target is the caller
  - 422: Unknown role
*/
func (handler *Handler) updateUserRole(writer http.ResponseWriter, request *http.Request, actor access.Actor) error {
	var body updateRoleRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		return err
	}

	user, err := handler.accountService.UpdateUserRole(request.Context(), actor, requestutil.ID(request, "id"), body.RoleID)
	if err != nil {
		return err
	}
	respond.OK(writer, user)
	return nil
}

// DELETE /api/v1/admin/users/{id}; the caller cannot delete themselves.
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request, actor access.Actor) error {
	if err := handler.accountService.DeleteUser(request.Context(), actor, requestutil.ID(request, "id")); err != nil {
		return err
	}
	respond.NoContent(writer)
	return nil
}
