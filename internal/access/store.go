// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import "context"

// # Permission Data Access

// PermissionRepository defines the persistence contract for the permission catalog.
type PermissionRepository interface {

	/*
		List returns every permission ordered by group, then name.

		Parameters:
		  - context: context.Context

		Returns:
		  - []*Permission: Full catalog
		  - error: Database retrieval failures
	*/
	List(context context.Context) ([]*Permission, error)

	// FindByID retrieves a permission by UUID. Returns NOT_FOUND when missing.
	FindByID(context context.Context, id string) (*Permission, error)

	/*
		FindByNames resolves permission names to records.

		Parameters:
		  - context: context.Context
		  - names: []string

		Returns:
		  - []*Permission: Matching records (unknown names are omitted)
		  - error: Database retrieval failures
	*/
	FindByNames(context context.Context, names []string) ([]*Permission, error)

	// Create persists a new permission. Duplicate names yield CONFLICT.
	Create(context context.Context, permission *Permission) error

	// Update modifies name, description and group.
	Update(context context.Context, permission *Permission) error

	// Delete removes the permission and detaches it from every role.
	Delete(context context.Context, id string) error
}

// # Role Data Access

// RoleLookup is the read-only slice of role storage used by the [Checker].
type RoleLookup interface {
	FindByID(context context.Context, id string) (*Role, error)
	ListPermissions(context context.Context, roleID string) ([]*Permission, error)
}

// RoleRepository defines the persistence contract for roles and their grants.
type RoleRepository interface {
	RoleLookup

	/*
		List returns all roles ordered by name, without their permissions.

		Parameters:
		  - context: context.Context

		Returns:
		  - []*Role: All roles
		  - error: Database retrieval failures
	*/
	List(context context.Context) ([]*Role, error)

	// FindBySlug retrieves a role by its slug.
	FindBySlug(context context.Context, slug string) (*Role, error)

	/*
		FindDefault retrieves the role assigned to new registrations.

		Returns:
		  - *Role: The single default role
		  - error: NOT_FOUND if no role is flagged default
	*/
	FindDefault(context context.Context) (*Role, error)

	// Create persists a new role. Duplicate slugs yield CONFLICT.
	Create(context context.Context, role *Role) error

	// Update modifies the mutable fields of a role, including the default flag.
	Update(context context.Context, role *Role) error

	// Delete removes a role and its permission links.
	Delete(context context.Context, id string) error

	/*
		ClearDefault unsets the default flag on every role except exceptID.

		Parameters:
		  - context: context.Context
		  - exceptID: string (Role that keeps the flag)

		Returns:
		  - error: Database execution failures
	*/
	ClearDefault(context context.Context, exceptID string) error

	// CountUsers returns how many accounts currently hold the role.
	CountUsers(context context.Context, roleID string) (int, error)

	/*
		SetPermissions replaces the role's grants with exactly permissionIDs.

		Parameters:
		  - context: context.Context
		  - roleID: string
		  - permissionIDs: []string

		Returns:
		  - error: Database execution failures
	*/
	SetPermissions(context context.Context, roleID string, permissionIDs []string) error
}
