// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access owns roles, permissions and the permission check.

Every user holds exactly one [Role]; a role grants a set of [Permission]s.
Administration is a capability, not a name: a role granting the wildcard
permission "*" passes every check.

# Core Responsibility

  - Catalog: CRUD for permissions, grouped by a free-text category for UI display.
  - Roles: CRUD, permission sync, and the single default role given at registration.
  - Checks: [Checker] answers "may this actor do X", memoized per request by [Scope].
*/
package access

import (
	"strings"
	"time"
)

// # Well-known Permissions

const (
	// Wildcard grants every permission. Holding it makes a role administrative.
	Wildcard = "*"

	PermSubmissionsCreate             = "submissions.create"
	PermSubmissionsReview             = "submissions.review"
	PermSubmissionsApproveWithoutFile = "submissions.approve_without_file"
	PermPublicationsCreate            = "publications.create"
	PermPublicationsDelete            = "publications.delete"
	PermPublicationsRestore           = "publications.restore"
	PermPublicationsForceDelete       = "publications.force_delete"
	PermUsersManage                   = "users.manage"
	PermRolesManage                   = "roles.manage"
	PermPermissionsManage             = "permissions.manage"
	PermSettingsManage                = "settings.manage"
)

// Seeded role slugs.
const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
	RoleMember    = "member"
)

// # Core Entities

// Permission is a named capability that roles may grant.
type Permission struct {
	ID          string    `json:"id"` // UUIDv7
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Group       string    `json:"group"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Role is the single authorization profile attached to a user.
type Role struct {
	ID          string        `json:"id"` // UUIDv7
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description"`
	IsDefault   bool          `json:"is_default"`
	Permissions []*Permission `json:"permissions,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Matches reports whether nameOrSlug names this role, ignoring case.
func (role *Role) Matches(nameOrSlug string) bool {
	return strings.EqualFold(role.Name, nameOrSlug) || strings.EqualFold(role.Slug, nameOrSlug)
}

// PermissionGroup is the catalog view used by admin screens.
type PermissionGroup struct {
	Group       string        `json:"group"`
	Permissions []*Permission `json:"permissions"`
}

// GroupPermissions buckets permissions by their group, keeping input order.
func GroupPermissions(permissions []*Permission) []PermissionGroup {
	var groups []PermissionGroup
	index := map[string]int{}

	for _, permission := range permissions {
		position, seen := index[permission.Group]
		if !seen {
			position = len(groups)
			index[permission.Group] = position
			groups = append(groups, PermissionGroup{Group: permission.Group})
		}
		groups[position].Permissions = append(groups[position].Permissions, permission)
	}

	return groups
}
