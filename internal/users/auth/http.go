// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
	"github.com/taibuivan/yomira-shelf/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-shelf/internal/platform/request"
	"github.com/taibuivan/yomira-shelf/internal/platform/respond"
)

// Handler serves the /auth endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router mounted at /auth.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	router.With(middleware.RequireAuth).Post("/change-password", handler.changePassword)

	return router
}

// # Payloads

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        *User  `json:"user"`
}

// # Cookie helpers

func refreshCookie(value string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    value,
		Path:     constants.RefreshTokenCookiePath,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	} else {
		cookie.Expires = expires
	}
	return cookie
}

func refreshToken(request *http.Request) string {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func client(request *http.Request) Client {
	return Client{UserAgent: request.UserAgent(), IPAddress: middleware.RealIP(request)}
}

func writeIssued(writer http.ResponseWriter, issued *Issued) {
	http.SetCookie(writer, refreshCookie(issued.RefreshToken, issued.RefreshExpiresAt))
	respond.OK(writer, tokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(AccessTokenTTL / time.Second),
		User:        issued.User,
	})
}

// # Endpoints

/*
POST /api/v1/auth/register

Response:
  - 201: User holding the default role
  - 400: Validation failure
  - 409: Username or email already in use
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.Register(request.Context(), RegisterInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
POST /api/v1/auth/login

Response:
  - 200: Access token, user; refresh token set as an HttpOnly cookie
  - 401: Bad credentials
  - 429: Login locked after repeated failures
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	issued, err := handler.service.Login(request.Context(), input.Login, input.Password, client(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writeIssued(writer, issued)
}

// POST /api/v1/auth/refresh rotates the refresh cookie.
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	token := refreshToken(request)
	if token == "" {
		respond.Error(writer, request, apperr.Unauthorized("Missing refresh token"))
		return
	}

	issued, err := handler.service.Refresh(request.Context(), token, client(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writeIssued(writer, issued)
}

// POST /api/v1/auth/logout always clears the cookie.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if token := refreshToken(request); token != "" {
		if err := handler.service.Logout(request.Context(), token); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	http.SetCookie(writer, refreshCookie("", time.Time{}))
	respond.NoContent(writer)
}

// POST /api/v1/auth/change-password keeps the calling session alive.
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.ChangePassword(request.Context(), claims.UserID, input.CurrentPassword, input.NewPassword, refreshToken(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
