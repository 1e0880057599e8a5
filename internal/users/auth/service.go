// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/sec"
	"github.com/taibuivan/yomira-shelf/internal/platform/validate"
	"github.com/taibuivan/yomira-shelf/pkg/uuid"
)

// TokenProvider signs access tokens.
type TokenProvider interface {
	GenerateAccessToken(userID, username, roleID string, timeToLive time.Duration) (string, error)
}

// Service implements registration, login and refresh-session use cases.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	attempts AttemptCounter
	tokens   TokenProvider
	roles    DefaultRoleProvider
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the auth [Service].
func NewService(
	users UserRepository,
	sessions SessionRepository,
	attempts AttemptCounter,
	tokens TokenProvider,
	roles DefaultRoleProvider,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		attempts: attempts,
		tokens:   tokens,
		roles:    roles,
		logger:   logger,
		now:      time.Now,
	}
}

// # Registration

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

func (input *RegisterInput) normalize() {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if input.DisplayName == "" {
		input.DisplayName = input.Username
	}
}

func (input RegisterInput) validate() error {
	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, UsernameMinLength).
		MaxLen(FieldUsername, input.Username, UsernameMaxLength).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, PasswordMinLength).
		MaxLen(FieldDisplayName, input.DisplayName, DisplayNameMaxLength)

	return validator.Err()
}

/*
Register creates an account holding the default role.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: The new account with its role summary
  - error: VALIDATION_ERROR, CONFLICT when the email or username is taken
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	emailTaken, usernameTaken, err := service.users.Exists(context, input.Email, input.Username)
	if err != nil {
		return nil, err
	}
	switch {
	case emailTaken:
		return nil, apperr.Conflict("Email is already registered")
	case usernameTaken:
		return nil, apperr.Conflict("Username is already taken")
	}

	role, err := service.roles.DefaultRole(context)
	if err != nil {
		return nil, fmt.Errorf("auth_default_role: %w", err)
	}

	hash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_hash_password: %w", err)
	}

	now := service.now()
	user := &User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		DisplayName:  input.DisplayName,
		RoleID:       role.ID,
		Role:         &RoleRef{ID: role.ID, Name: role.Name, Slug: role.Slug},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := service.users.Create(context, user); err != nil {
		return nil, err
	}

	service.logger.Info("user_registered", slog.String("user_id", user.ID), slog.String("role_id", user.RoleID))

	return user, nil
}

// # Login

// Client identifies where a session is opened from.
type Client struct {
	UserAgent string
	IPAddress string
}

/*
Login checks a username-or-email and password pair and opens a session.

Unknown logins and wrong passwords share one message. After
[MaxLoginFailures] wrong passwords the login is refused outright until the
counter expires, even with the right password.
*/
func (service *Service) Login(context context.Context, login, password string, client Client) (*Issued, error) {
	key := strings.ToLower(strings.TrimSpace(login))
	if key == "" || password == "" {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	failures, err := service.attempts.Failures(context, key)
	if err != nil {
		// Without the counter, logins proceed unthrottled.
		service.logger.Warn("login_throttle_unavailable", slog.Any("error", err))
	}
	if failures >= MaxLoginFailures {
		return nil, apperr.RateLimited(int(LoginLockout / time.Second))
	}

	user, err := service.users.FindByLogin(context, key)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}

	if user == nil || !sec.CheckPasswordHash(password, user.PasswordHash) {
		if _, err := service.attempts.RecordFailure(context, key); err != nil {
			service.logger.Warn("login_throttle_unavailable", slog.Any("error", err))
		}
		service.logger.Info("login_rejected", slog.String("ip", client.IPAddress))
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	if err := service.attempts.Reset(context, key); err != nil {
		service.logger.Warn("login_throttle_unavailable", slog.Any("error", err))
	}

	return service.issue(context, user, client)
}

// Logout revokes the session behind refreshToken. Unknown tokens are ignored.
func (service *Service) Logout(context context.Context, refreshToken string) error {
	session, err := service.sessions.FindActive(context, sec.HashToken(refreshToken))
	if apperr.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return service.sessions.Revoke(context, session.ID)
}

/*
Refresh rotates a refresh token: the presented session is revoked and a new
pair is issued with the account's current role.

Returns:
  - *Issued: New credentials
  - error: UNAUTHORIZED for unknown, revoked or expired tokens and for deleted accounts
*/
func (service *Service) Refresh(context context.Context, refreshToken string, client Client) (*Issued, error) {
	session, err := service.sessions.FindActive(context, sec.HashToken(refreshToken))
	if apperr.IsNotFound(err) {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}
	if err != nil {
		return nil, err
	}

	if err := service.sessions.Revoke(context, session.ID); err != nil {
		return nil, err
	}

	user, err := service.users.FindByID(context, session.UserID)
	if apperr.IsNotFound(err) {
		return nil, apperr.Unauthorized("Account no longer exists")
	}
	if err != nil {
		return nil, err
	}

	return service.issue(context, user, client)
}

func (service *Service) issue(context context.Context, user *User, client Client) (*Issued, error) {
	accessToken, err := service.tokens.GenerateAccessToken(user.ID, user.Username, user.RoleID, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_sign_access_token: %w", err)
	}

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_generate_refresh_token: %w", err)
	}

	now := service.now()
	session := &Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
		ExpiresAt: now.Add(RefreshTokenTTL),
		CreatedAt: now,
	}
	if err := service.sessions.Create(context, session); err != nil {
		return nil, err
	}

	return &Issued{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: session.ExpiresAt,
		User:             user,
	}, nil
}

// # Credentials

/*
ChangePassword replaces the caller's password after checking the current one.

Every other session is revoked; the one identified by currentRefreshToken
survives so the caller stays signed in.
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword, currentRefreshToken string) error {
	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, currentPassword).
		Required(FieldNewPassword, newPassword).
		MinLen(FieldNewPassword, newPassword, PasswordMinLength)
	if err := validator.Err(); err != nil {
		return err
	}

	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hash, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_hash_password: %w", err)
	}

	if err := service.users.UpdatePassword(context, userID, hash); err != nil {
		return err
	}

	keep := ""
	if currentRefreshToken != "" {
		if session, err := service.sessions.FindActive(context, sec.HashToken(currentRefreshToken)); err == nil && session.UserID == userID {
			keep = session.ID
		}
	}
	if err := service.sessions.RevokeOthers(context, userID, keep); err != nil {
		return err
	}

	service.logger.Info("password_changed", slog.String("user_id", userID))

	return nil
}
