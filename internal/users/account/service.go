// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/postgres"
	"github.com/taibuivan/yomira-shelf/internal/platform/sec"
	"github.com/taibuivan/yomira-shelf/internal/platform/validate"
	"github.com/taibuivan/yomira-shelf/internal/users/auth"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
	"github.com/taibuivan/yomira-shelf/pkg/uuid"
)

// # Service Layer

// Service orchestrates profile, session and user-directory use cases.
type Service struct {
	accountRepository AccountRepository
	sessionRepository SessionRepository
	roles             access.RoleLookup
	checker           *access.Checker
	tx                postgres.Transactor
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(
	accountRepo AccountRepository,
	sessionRepo SessionRepository,
	roles access.RoleLookup,
	checker *access.Checker,
	tx postgres.Transactor,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessionRepository: sessionRepo,
		roles:             roles,
		checker:           checker,
		tx:                tx,
		logger:            logger,
	}
}

// # Profile Management

// GetProfile retrieves the private profile of a user.
func (service *Service) GetProfile(context stdctx.Context, userID string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return user, nil
}

// UpdateProfileInput defines the self-editable subset of profile fields.
type UpdateProfileInput struct {
	DisplayName *string
}

/*
UpdateProfile applies a partial set of changes to the caller's own profile.

Parameters:
  - context: stdctx.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Validation or storage failures
*/
func (service *Service) UpdateProfile(context stdctx.Context, userID string, input UpdateProfileInput) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}

	if err := validateDisplayName(user.DisplayName); err != nil {
		return nil, err
	}

	if err := service.accountRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

func validateDisplayName(name string) error {
	return (&validate.Validator{}).
		MinLen(auth.FieldDisplayName, name, 2).
		MaxLen(auth.FieldDisplayName, name, 50).
		Err()
}

/*
DeleteAccount soft-deletes the caller's account and signs out every device.

Parameters:
  - context: stdctx.Context
  - userID: string

Returns:
  - error: Execution failures
*/
func (service *Service) DeleteAccount(context stdctx.Context, userID string) error {
	err := service.tx.WithinTx(context, func(context stdctx.Context) error {
		if err := service.accountRepository.SoftDelete(context, userID); err != nil {
			return err
		}
		return service.sessionRepository.RevokeAll(context, userID)
	})
	if err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	service.logger.Warn("user_account_deleted", slog.String("user_id", userID))

	return nil
}

// # Session Security

/*
ListSessions lists the user's active devices, flagging the one whose refresh
token hashes to currentTokenHash.

Parameters:
  - context: stdctx.Context
  - userID: string
  - currentTokenHash: string (Empty when the caller has no refresh cookie)

Returns:
  - []SessionInfo: Active devices
  - error: Retrieval failures
*/
func (service *Service) ListSessions(context stdctx.Context, userID, currentTokenHash string) ([]SessionInfo, error) {
	sessions, err := service.sessionRepository.FindActiveByUserID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_sessions_failed: %w", err)
	}

	for index := range sessions {
		sessions[index].IsCurrent = currentTokenHash != "" && sessions[index].TokenHash == currentTokenHash
	}

	return sessions, nil
}

// RevokeSession terminates one of the user's sessions by ID.
func (service *Service) RevokeSession(context stdctx.Context, userID, sessionID string) error {
	if err := service.sessionRepository.Revoke(context, userID, sessionID); err != nil {
		return fmt.Errorf("account_service_revoke_session_failed: %w", err)
	}

	service.logger.Info("user_session_revoked",
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
	)

	return nil
}

/*
RevokeOtherSessions terminates every session except the caller's current one.

Description: The current session is identified by the refresh token's hash.
Without one, every session is revoked.

Parameters:
  - context: stdctx.Context
  - userID: string
  - currentTokenHash: string

Returns:
  - error: Revocation failures
*/
func (service *Service) RevokeOtherSessions(context stdctx.Context, userID, currentTokenHash string) error {
	sessions, err := service.ListSessions(context, userID, currentTokenHash)
	if err != nil {
		return err
	}

	currentID := ""
	for _, session := range sessions {
		if session.IsCurrent {
			currentID = session.ID
		}
	}

	if currentID == "" {
		err = service.sessionRepository.RevokeAll(context, userID)
	} else {
		err = service.sessionRepository.RevokeOthers(context, userID, currentID)
	}
	if err != nil {
		return fmt.Errorf("account_service_revoke_others_failed: %w", err)
	}

	service.logger.Info("user_other_sessions_revoked", slog.String("user_id", userID))

	return nil
}

// # User Directory (Admin)

// ListUsers returns a page of accounts in their admin rendering.
func (service *Service) ListUsers(context stdctx.Context, actor access.Actor, filter Filter, page pagination.Params) ([]AdminView, int, error) {
	if err := service.checker.Require(context, actor, access.PermUsersManage); err != nil {
		return nil, 0, err
	}

	users, total, err := service.accountRepository.List(context, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_users_failed: %w", err)
	}

	return AdminViews(users), total, nil
}

// GetUser retrieves one account in its admin rendering.
func (service *Service) GetUser(context stdctx.Context, actor access.Actor, id string) (AdminView, error) {
	if err := service.checker.Require(context, actor, access.PermUsersManage); err != nil {
		return AdminView{}, err
	}

	user, err := service.accountRepository.FindByID(context, id)
	if err != nil {
		return AdminView{}, err
	}

	return NewAdminView(user), nil
}

// CreateUserInput carries the fields an administrator sets on a new account.
type CreateUserInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	RoleID      string
	Verified    bool
}

/*
CreateUser provisions an account with an explicit role.

Parameters:
  - context: stdctx.Context
  - actor: access.Actor (must hold users.manage)
  - input: CreateUserInput

Returns:
  - AdminView: Created account
  - error: Validation, unknown role, conflict or storage failures
*/
func (service *Service) CreateUser(context stdctx.Context, actor access.Actor, input CreateUserInput) (AdminView, error) {
	if err := service.checker.Require(context, actor, access.PermUsersManage); err != nil {
		return AdminView{}, err
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.DisplayName == "" {
		input.DisplayName = input.Username
	}

	err := (&validate.Validator{}).
		Required(auth.FieldUsername, input.Username).
		MinLen(auth.FieldUsername, input.Username, 3).
		MaxLen(auth.FieldUsername, input.Username, 50).
		Required(auth.FieldEmail, input.Email).
		Email(auth.FieldEmail, input.Email).
		Required(auth.FieldPassword, input.Password).
		MinLen(auth.FieldPassword, input.Password, auth.PasswordMinLength).
		Required("role_id", input.RoleID).
		Err()
	if err != nil {
		return AdminView{}, err
	}

	role, err := service.resolveRole(context, input.RoleID)
	if err != nil {
		return AdminView{}, err
	}

	hash, err := sec.HashPassword(input.Password)
	if err != nil {
		return AdminView{}, fmt.Errorf("account_service_hash_failed: %w", err)
	}

	now := time.Now()
	user := &auth.User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		DisplayName:  input.DisplayName,
		RoleID:       role.ID,
		Role:         &auth.RoleRef{ID: role.ID, Name: role.Name, Slug: role.Slug},
		IsVerified:   input.Verified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := service.accountRepository.Create(context, user); err != nil {
		return AdminView{}, err
	}

	service.logger.Info("user_created",
		slog.String("user_id", user.ID),
		slog.String("role_id", role.ID),
		slog.String("actor_id", actor.UserID),
	)

	return NewAdminView(user), nil
}

func (service *Service) resolveRole(context stdctx.Context, roleID string) (*access.Role, error) {
	role, err := service.roles.FindByID(context, roleID)
	if apperr.IsNotFound(err) {
		return nil, apperr.InvalidInput("Unknown role", apperr.FieldError{Field: "role_id", Message: "Role does not exist"})
	}
	return role, err
}

// UpdateUserInput carries optional identity changes made by an administrator.
type UpdateUserInput struct {
	Username    *string
	Email       *string
	DisplayName *string
}

// UpdateUser edits another account's identity fields.
func (service *Service) UpdateUser(context stdctx.Context, actor access.Actor, id string, input UpdateUserInput) (AdminView, error) {
	if err := service.checker.Require(context, actor, access.PermUsersManage); err != nil {
		return AdminView{}, err
	}

	user, err := service.accountRepository.FindByID(context, id)
	if err != nil {
		return AdminView{}, err
	}

	if input.Username != nil {
		user.Username = strings.TrimSpace(*input.Username)
	}
	if input.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}

	err = (&validate.Validator{}).
		Required(auth.FieldUsername, user.Username).
		MinLen(auth.FieldUsername, user.Username, 3).
		MaxLen(auth.FieldUsername, user.Username, 50).
		Email(auth.FieldEmail, user.Email).
		MaxLen(auth.FieldDisplayName, user.DisplayName, 50).
		Err()
	if err != nil {
		return AdminView{}, err
	}

	if err := service.accountRepository.Update(context, user); err != nil {
		return AdminView{}, err
	}

	service.logger.Info("user_updated", slog.String("user_id", id), slog.String("actor_id", actor.UserID))

	return NewAdminView(user), nil
}

/*
UpdateUserRole replaces the account's single role.

Description: Administrators cannot change their own role, so the last admin
cannot demote themselves by accident.

Parameters:
  - context: stdctx.Context
  - actor: access.Actor (must hold users.manage)
  - id: string
  - roleID: string

Returns:
  - AdminView: Account with its new role
  - error: Unknown role, self-change conflict or storage failures
*/
func (service *Service) UpdateUserRole(context stdctx.Context, actor access.Actor, id, roleID string) (AdminView, error) {
	if err := service.checker.Require(context, actor, access.PermUsersManage); err != nil {
		return AdminView{}, err
	}

	if id == actor.UserID {
		return AdminView{}, apperr.Conflict("You cannot change your own role")
	}

	role, err := service.resolveRole(context, roleID)
	if err != nil {
		return AdminView{}, err
	}

	user, err := service.accountRepository.FindByID(context, id)
	if err != nil {
		return AdminView{}, err
	}

	if err := service.accountRepository.UpdateRole(context, id, role.ID); err != nil {
		return AdminView{}, err
	}

	previous := user.RoleID
	user.RoleID = role.ID
	user.Role = &auth.RoleRef{ID: role.ID, Name: role.Name, Slug: role.Slug}

	service.logger.Warn("user_role_changed",
		slog.String("user_id", id),
		slog.String("from_role_id", previous),
		slog.String("to_role_id", role.ID),
		slog.String("actor_id", actor.UserID),
	)

	return NewAdminView(user), nil
}

// DeleteUser soft-deletes another account and revokes its sessions.
func (service *Service) DeleteUser(context stdctx.Context, actor access.Actor, id string) error {
	if err := service.checker.Require(context, actor, access.PermUsersManage); err != nil {
		return err
	}

	if id == actor.UserID {
		return apperr.Conflict("Use the profile endpoint to delete your own account")
	}

	err := service.tx.WithinTx(context, func(context stdctx.Context) error {
		if err := service.accountRepository.SoftDelete(context, id); err != nil {
			return err
		}
		return service.sessionRepository.RevokeAll(context, id)
	})
	if err != nil {
		return err
	}

	service.logger.Warn("user_deleted", slog.String("user_id", id), slog.String("actor_id", actor.UserID))

	return nil
}
