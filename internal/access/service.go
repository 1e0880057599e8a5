// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/postgres"
	"github.com/taibuivan/yomira-shelf/internal/platform/validate"
	"github.com/taibuivan/yomira-shelf/pkg/slug"
	"github.com/taibuivan/yomira-shelf/pkg/uuid"
)

// # Service Layer

// Service orchestrates role and permission administration.
type Service struct {
	roles       RoleRepository
	permissions PermissionRepository
	checker     *Checker
	tx          postgres.Transactor
	logger      *slog.Logger
}

// NewService constructs a new access [Service].
func NewService(roles RoleRepository, permissions PermissionRepository, checker *Checker, tx postgres.Transactor, logger *slog.Logger) *Service {
	return &Service{
		roles:       roles,
		permissions: permissions,
		checker:     checker,
		tx:          tx,
		logger:      logger,
	}
}

// # Permission Catalog

// PermissionInput carries the writable permission fields.
type PermissionInput struct {
	Name        string
	Description string
	Group       string
}

func (input PermissionInput) validate() error {
	return (&validate.Validator{}).
		Required("name", input.Name).
		MaxLen("name", input.Name, 100).
		Permission("name", input.Name).
		MaxLen("description", input.Description, 500).
		MaxLen("group", input.Group, 100).
		Err()
}

// ListPermissions returns the full catalog, grouped for display.
func (service *Service) ListPermissions(context stdctx.Context, actor Actor) ([]PermissionGroup, error) {
	if err := service.checker.Require(context, actor, PermPermissionsManage); err != nil {
		return nil, err
	}

	permissions, err := service.permissions.List(context)
	if err != nil {
		return nil, fmt.Errorf("access_service_list_permissions_failed: %w", err)
	}

	return GroupPermissions(permissions), nil
}

// GetPermission retrieves one permission.
func (service *Service) GetPermission(context stdctx.Context, actor Actor, id string) (*Permission, error) {
	if err := service.checker.Require(context, actor, PermPermissionsManage); err != nil {
		return nil, err
	}
	return service.permissions.FindByID(context, id)
}

/*
CreatePermission adds a permission to the catalog.

Parameters:
  - context: stdctx.Context
  - actor: Actor (must hold permissions.manage)
  - input: PermissionInput

Returns:
  - *Permission: Created record
  - error: Validation, conflict or storage failures
*/
func (service *Service) CreatePermission(context stdctx.Context, actor Actor, input PermissionInput) (*Permission, error) {
	if err := service.checker.Require(context, actor, PermPermissionsManage); err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	permission := &Permission{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Group:       input.Group,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := service.permissions.Create(context, permission); err != nil {
		return nil, err
	}

	service.logger.Info("permission_created",
		slog.String("permission_id", permission.ID),
		slog.String("name", permission.Name),
		slog.String("actor_id", actor.UserID),
	)

	return permission, nil
}

// UpdatePermission renames or re-describes a permission.
func (service *Service) UpdatePermission(context stdctx.Context, actor Actor, id string, input PermissionInput) (*Permission, error) {
	if err := service.checker.Require(context, actor, PermPermissionsManage); err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	if err := input.validate(); err != nil {
		return nil, err
	}

	permission, err := service.permissions.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	permission.Name = input.Name
	permission.Description = input.Description
	permission.Group = input.Group
	permission.UpdatedAt = time.Now()

	if err := service.permissions.Update(context, permission); err != nil {
		return nil, err
	}

	service.logger.Info("permission_updated", slog.String("permission_id", id), slog.String("actor_id", actor.UserID))

	return permission, nil
}

// DeletePermission removes a permission; roles holding it lose the grant.
func (service *Service) DeletePermission(context stdctx.Context, actor Actor, id string) error {
	if err := service.checker.Require(context, actor, PermPermissionsManage); err != nil {
		return err
	}

	permission, err := service.permissions.FindByID(context, id)
	if err != nil {
		return err
	}

	// Losing the wildcard would lock every administrator out.
	if permission.Name == Wildcard {
		return apperr.Conflict("The wildcard permission cannot be deleted")
	}

	if err := service.permissions.Delete(context, id); err != nil {
		return err
	}

	service.logger.Warn("permission_deleted",
		slog.String("permission_id", id),
		slog.String("name", permission.Name),
		slog.String("actor_id", actor.UserID),
	)

	return nil
}

// # Role Management

// RoleInput carries the writable role fields.
type RoleInput struct {
	Name        string
	Slug        string
	Description string
	IsDefault   bool
	Permissions []string // Permission names; nil leaves grants untouched on update
}

func (input *RoleInput) normalize() error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Slug == "" {
		input.Slug = slug.From(input.Name)
	}

	return (&validate.Validator{}).
		Required("name", input.Name).
		MaxLen("name", input.Name, 100).
		Required("slug", input.Slug).
		Slug("slug", input.Slug).
		MaxLen("description", input.Description, 500).
		Err()
}

// ListRoles returns every role with its permissions attached.
func (service *Service) ListRoles(context stdctx.Context, actor Actor) ([]*Role, error) {
	if err := service.checker.Require(context, actor, PermRolesManage); err != nil {
		return nil, err
	}

	roles, err := service.roles.List(context)
	if err != nil {
		return nil, fmt.Errorf("access_service_list_roles_failed: %w", err)
	}

	for _, role := range roles {
		if role.Permissions, err = service.roles.ListPermissions(context, role.ID); err != nil {
			return nil, fmt.Errorf("access_service_list_roles_failed: %w", err)
		}
	}

	return roles, nil
}

// GetRole retrieves a role and its permissions.
func (service *Service) GetRole(context stdctx.Context, actor Actor, id string) (*Role, error) {
	if err := service.checker.Require(context, actor, PermRolesManage); err != nil {
		return nil, err
	}
	return service.loadRole(context, id)
}

func (service *Service) loadRole(context stdctx.Context, id string) (*Role, error) {
	role, err := service.roles.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if role.Permissions, err = service.roles.ListPermissions(context, id); err != nil {
		return nil, fmt.Errorf("access_service_get_role_failed: %w", err)
	}

	return role, nil
}

// DefaultRole returns the role given to new accounts.
func (service *Service) DefaultRole(context stdctx.Context) (*Role, error) {
	return service.roles.FindDefault(context)
}

/*
CreateRole persists a role, its grants and, if flagged, its default status.

Description: Flagging a role default clears the flag everywhere else in the
same transaction, so at most one default role ever exists.

Parameters:
  - context: stdctx.Context
  - actor: Actor (must hold roles.manage)
  - input: RoleInput

Returns:
  - *Role: Created role with permissions
  - error: Validation, conflict or storage failures
*/
func (service *Service) CreateRole(context stdctx.Context, actor Actor, input RoleInput) (*Role, error) {
	if err := service.checker.Require(context, actor, PermRolesManage); err != nil {
		return nil, err
	}

	if err := input.normalize(); err != nil {
		return nil, err
	}

	now := time.Now()
	role := &Role{
		ID:          uuid.New(),
		Name:        input.Name,
		Slug:        input.Slug,
		Description: input.Description,
		IsDefault:   input.IsDefault,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := service.tx.WithinTx(context, func(context stdctx.Context) error {
		if role.IsDefault {
			if err := service.roles.ClearDefault(context, role.ID); err != nil {
				return err
			}
		}

		if err := service.roles.Create(context, role); err != nil {
			return err
		}

		return service.syncPermissions(context, role.ID, input.Permissions)
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("role_created",
		slog.String("role_id", role.ID),
		slog.String("slug", role.Slug),
		slog.String("actor_id", actor.UserID),
	)

	return service.loadRole(context, role.ID)
}

// UpdateRole modifies a role. A nil permission list leaves grants untouched.
func (service *Service) UpdateRole(context stdctx.Context, actor Actor, id string, input RoleInput) (*Role, error) {
	if err := service.checker.Require(context, actor, PermRolesManage); err != nil {
		return nil, err
	}

	if err := input.normalize(); err != nil {
		return nil, err
	}

	err := service.tx.WithinTx(context, func(context stdctx.Context) error {
		role, err := service.roles.FindByID(context, id)
		if err != nil {
			return err
		}

		// The default role can only move, never vanish.
		if role.IsDefault && !input.IsDefault {
			return apperr.Conflict("Flag another role as default instead of unsetting the current one")
		}

		if input.IsDefault {
			if err := service.roles.ClearDefault(context, id); err != nil {
				return err
			}
		}

		role.Name = input.Name
		role.Slug = input.Slug
		role.Description = input.Description
		role.IsDefault = input.IsDefault
		role.UpdatedAt = time.Now()

		if err := service.roles.Update(context, role); err != nil {
			return err
		}

		if input.Permissions == nil {
			return nil
		}

		return service.syncPermissions(context, id, input.Permissions)
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("role_updated", slog.String("role_id", id), slog.String("actor_id", actor.UserID))

	return service.loadRole(context, id)
}

// SyncRolePermissions replaces a role's grants with exactly the named permissions.
func (service *Service) SyncRolePermissions(context stdctx.Context, actor Actor, id string, names []string) (*Role, error) {
	if err := service.checker.Require(context, actor, PermRolesManage); err != nil {
		return nil, err
	}

	err := service.tx.WithinTx(context, func(context stdctx.Context) error {
		if _, err := service.roles.FindByID(context, id); err != nil {
			return err
		}
		return service.syncPermissions(context, id, names)
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("role_permissions_synced",
		slog.String("role_id", id),
		slog.Int("count", len(names)),
		slog.String("actor_id", actor.UserID),
	)

	return service.loadRole(context, id)
}

func (service *Service) syncPermissions(context stdctx.Context, roleID string, names []string) error {
	if len(names) == 0 {
		return service.roles.SetPermissions(context, roleID, nil)
	}

	permissions, err := service.permissions.FindByNames(context, names)
	if err != nil {
		return err
	}

	known := make(map[string]string, len(permissions))
	for _, permission := range permissions {
		known[permission.Name] = permission.ID
	}

	v := &validate.Validator{}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, ok := known[name]
		v.Custom("permissions", !ok, "Unknown permission: "+name)
		if ok {
			ids = append(ids, id)
		}
	}
	if err := v.Err(); err != nil {
		return err
	}

	return service.roles.SetPermissions(context, roleID, ids)
}

// DeleteRole removes a role nobody holds. The default role cannot be removed.
func (service *Service) DeleteRole(context stdctx.Context, actor Actor, id string) error {
	if err := service.checker.Require(context, actor, PermRolesManage); err != nil {
		return err
	}

	err := service.tx.WithinTx(context, func(context stdctx.Context) error {
		role, err := service.roles.FindByID(context, id)
		if err != nil {
			return err
		}

		if role.IsDefault {
			return apperr.Conflict("The default role cannot be deleted")
		}

		holders, err := service.roles.CountUsers(context, id)
		if err != nil {
			return err
		}
		if holders > 0 {
			return apperr.Conflict(fmt.Sprintf("Role is assigned to %d user(s)", holders))
		}

		return service.roles.Delete(context, id)
	})
	if err != nil {
		return err
	}

	service.logger.Warn("role_deleted", slog.String("role_id", id), slog.String("actor_id", actor.UserID))

	return nil
}
