// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package accesstest provides in-memory role and permission storage for tests.
package accesstest

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
)

// Well-known role IDs seeded by [Seeded].
const (
	AdminRoleID     = "role-admin"
	LibrarianRoleID = "role-librarian"
	MemberRoleID    = "role-member"
)

// Store is an in-memory [access.RoleRepository] and [access.PermissionRepository].
type Store struct {
	mu          sync.Mutex
	roles       map[string]*access.Role
	permissions map[string]*access.Permission
	grants      map[string]map[string]bool // roleID -> permissionID
	holders     map[string]int

	// Lookups counts ListPermissions calls so memoization can be asserted.
	Lookups int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		roles:       map[string]*access.Role{},
		permissions: map[string]*access.Permission{},
		grants:      map[string]map[string]bool{},
		holders:     map[string]int{},
	}
}

// Seeded returns a store holding admin (wildcard), librarian (review and
// publication management) and member (default, submit only) roles.
func Seeded() *Store {
	store := NewStore()

	names := []string{
		access.Wildcard,
		access.PermSubmissionsCreate,
		access.PermSubmissionsReview,
		access.PermSubmissionsApproveWithoutFile,
		access.PermPublicationsCreate,
		access.PermPublicationsDelete,
		access.PermPublicationsRestore,
		access.PermPublicationsForceDelete,
		access.PermUsersManage,
		access.PermRolesManage,
		access.PermPermissionsManage,
		access.PermSettingsManage,
	}
	for _, name := range names {
		store.AddPermission(&access.Permission{ID: "perm-" + name, Name: name, Group: "library"})
	}

	store.AddRole(&access.Role{ID: AdminRoleID, Name: "Admin", Slug: access.RoleAdmin}, access.Wildcard)
	store.AddRole(&access.Role{ID: LibrarianRoleID, Name: "Librarian", Slug: access.RoleLibrarian},
		access.PermSubmissionsCreate, access.PermSubmissionsReview, access.PermPublicationsCreate,
		access.PermPublicationsDelete, access.PermPublicationsRestore)
	store.AddRole(&access.Role{ID: MemberRoleID, Name: "Member", Slug: access.RoleMember, IsDefault: true},
		access.PermSubmissionsCreate)

	return store
}

// NewChecker returns a checker over a freshly seeded store.
func NewChecker() *access.Checker {
	return access.NewChecker(Seeded(), Logger())
}

// Logger discards all output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// AddPermission inserts a permission directly.
func (store *Store) AddPermission(permission *access.Permission) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.permissions[permission.ID] = permission
}

// AddRole inserts a role granting the named permissions.
func (store *Store) AddRole(role *access.Role, permissionNames ...string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.roles[role.ID] = role
	store.grants[role.ID] = map[string]bool{}
	for _, name := range permissionNames {
		for id, permission := range store.permissions {
			if permission.Name == name {
				store.grants[role.ID][id] = true
			}
		}
	}
}

// SetHolders fakes the number of accounts holding a role.
func (store *Store) SetHolders(roleID string, count int) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.holders[roleID] = count
}

// DefaultRoles lists the IDs of roles flagged default.
func (store *Store) DefaultRoles() []string {
	store.mu.Lock()
	defer store.mu.Unlock()

	var ids []string
	for id, role := range store.roles {
		if role.IsDefault {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func cloneRole(role *access.Role) *access.Role {
	clone := *role
	clone.Permissions = nil
	return &clone
}

// # RoleRepository

func (store *Store) List(_ context.Context) ([]*access.Role, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	roles := make([]*access.Role, 0, len(store.roles))
	for _, role := range store.roles {
		roles = append(roles, cloneRole(role))
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (store *Store) FindByID(_ context.Context, id string) (*access.Role, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	role, ok := store.roles[id]
	if !ok {
		return nil, apperr.NotFound("Role")
	}
	return cloneRole(role), nil
}

func (store *Store) FindBySlug(_ context.Context, slug string) (*access.Role, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, role := range store.roles {
		if role.Slug == slug {
			return cloneRole(role), nil
		}
	}
	return nil, apperr.NotFound("Role")
}

func (store *Store) FindDefault(_ context.Context) (*access.Role, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, role := range store.roles {
		if role.IsDefault {
			return cloneRole(role), nil
		}
	}
	return nil, apperr.NotFound("Default role")
}

func (store *Store) Create(_ context.Context, role *access.Role) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.roles {
		if existing.Slug == role.Slug {
			return apperr.Conflict("A role with this name or slug already exists")
		}
	}
	store.roles[role.ID] = cloneRole(role)
	store.grants[role.ID] = map[string]bool{}
	return nil
}

func (store *Store) Update(_ context.Context, role *access.Role) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.roles[role.ID]; !ok {
		return apperr.NotFound("Role")
	}
	store.roles[role.ID] = cloneRole(role)
	return nil
}

func (store *Store) Delete(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.roles[id]; ok {
		delete(store.roles, id)
		delete(store.grants, id)
		return nil
	}
	if _, ok := store.permissions[id]; ok {
		delete(store.permissions, id)
		for _, granted := range store.grants {
			delete(granted, id)
		}
		return nil
	}
	return apperr.NotFound("Resource")
}

func (store *Store) ClearDefault(_ context.Context, exceptID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for id, role := range store.roles {
		if id != exceptID {
			role.IsDefault = false
		}
	}
	return nil
}

func (store *Store) CountUsers(_ context.Context, roleID string) (int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.holders[roleID], nil
}

func (store *Store) ListPermissions(_ context.Context, roleID string) ([]*access.Permission, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.Lookups++

	var permissions []*access.Permission
	for id := range store.grants[roleID] {
		if permission, ok := store.permissions[id]; ok {
			permissions = append(permissions, permission)
		}
	}
	sort.Slice(permissions, func(i, j int) bool { return permissions[i].Name < permissions[j].Name })
	return permissions, nil
}

func (store *Store) SetPermissions(_ context.Context, roleID string, permissionIDs []string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	granted := map[string]bool{}
	for _, id := range permissionIDs {
		granted[id] = true
	}
	store.grants[roleID] = granted
	return nil
}

// # PermissionRepository

// Permissions adapts the store to [access.PermissionRepository]; the method
// names overlap with the role side so the adapter keeps them apart.
func (store *Store) Permissions() access.PermissionRepository {
	return permissionView{store: store}
}

type permissionView struct {
	store *Store
}

func (view permissionView) List(_ context.Context) ([]*access.Permission, error) {
	view.store.mu.Lock()
	defer view.store.mu.Unlock()

	permissions := make([]*access.Permission, 0, len(view.store.permissions))
	for _, permission := range view.store.permissions {
		permissions = append(permissions, permission)
	}
	sort.Slice(permissions, func(i, j int) bool {
		if permissions[i].Group != permissions[j].Group {
			return permissions[i].Group < permissions[j].Group
		}
		return permissions[i].Name < permissions[j].Name
	})
	return permissions, nil
}

func (view permissionView) FindByID(_ context.Context, id string) (*access.Permission, error) {
	view.store.mu.Lock()
	defer view.store.mu.Unlock()

	permission, ok := view.store.permissions[id]
	if !ok {
		return nil, apperr.NotFound("Permission")
	}
	clone := *permission
	return &clone, nil
}

func (view permissionView) FindByNames(_ context.Context, names []string) ([]*access.Permission, error) {
	view.store.mu.Lock()
	defer view.store.mu.Unlock()

	wanted := map[string]bool{}
	for _, name := range names {
		wanted[name] = true
	}

	var permissions []*access.Permission
	for _, permission := range view.store.permissions {
		if wanted[permission.Name] {
			permissions = append(permissions, permission)
		}
	}
	return permissions, nil
}

func (view permissionView) Create(_ context.Context, permission *access.Permission) error {
	view.store.mu.Lock()
	defer view.store.mu.Unlock()

	for _, existing := range view.store.permissions {
		if existing.Name == permission.Name {
			return apperr.Conflict("A permission with this name already exists")
		}
	}
	clone := *permission
	view.store.permissions[permission.ID] = &clone
	return nil
}

func (view permissionView) Update(_ context.Context, permission *access.Permission) error {
	view.store.mu.Lock()
	defer view.store.mu.Unlock()

	if _, ok := view.store.permissions[permission.ID]; !ok {
		return apperr.NotFound("Permission")
	}
	clone := *permission
	view.store.permissions[permission.ID] = &clone
	return nil
}

func (view permissionView) Delete(ctx context.Context, id string) error {
	view.store.mu.Lock()
	_, ok := view.store.permissions[id]
	view.store.mu.Unlock()

	if !ok {
		return apperr.NotFound("Permission")
	}
	return view.store.Delete(ctx, id)
}

// # Transactions

// Tx is a pass-through [postgres.Transactor] for tests.
type Tx struct{}

// WithinTx runs fn directly.
func (Tx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
