// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/access/accesstest"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
)

var (
	admin  = access.Actor{UserID: "admin-1", RoleID: accesstest.AdminRoleID}
	member = access.Actor{UserID: "member-1", RoleID: accesstest.MemberRoleID}
)

func newService(t *testing.T) (*access.Service, *accesstest.Store) {
	t.Helper()

	store := accesstest.Seeded()
	checker := access.NewChecker(store, accesstest.Logger())
	return access.NewService(store, store.Permissions(), checker, accesstest.Tx{}, accesstest.Logger()), store
}

func TestService_CreateRole(t *testing.T) {
	ctx := context.Background()

	t.Run("derives slug and grants permissions", func(t *testing.T) {
		service, _ := newService(t)

		role, err := service.CreateRole(ctx, admin, access.RoleInput{
			Name:        "Archivist",
			Permissions: []string{access.PermPublicationsRestore, access.PermPublicationsDelete},
		})
		require.NoError(t, err)

		assert.Equal(t, "archivist", role.Slug)
		require.Len(t, role.Permissions, 2)
		assert.Equal(t, access.PermPublicationsDelete, role.Permissions[0].Name)
	})

	t.Run("new default role steals the flag", func(t *testing.T) {
		service, store := newService(t)

		role, err := service.CreateRole(ctx, admin, access.RoleInput{Name: "Guest", IsDefault: true})
		require.NoError(t, err)

		assert.Equal(t, []string{role.ID}, store.DefaultRoles())
	})

	t.Run("unknown permission is a validation error", func(t *testing.T) {
		service, _ := newService(t)

		_, err := service.CreateRole(ctx, admin, access.RoleInput{Name: "Odd", Permissions: []string{"nope.never"}})
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	})

	t.Run("requires roles.manage", func(t *testing.T) {
		service, _ := newService(t)

		_, err := service.CreateRole(ctx, member, access.RoleInput{Name: "Sneaky"})
		assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	})
}

func TestService_UpdateRole(t *testing.T) {
	ctx := context.Background()

	t.Run("cannot unset the current default", func(t *testing.T) {
		service, _ := newService(t)

		_, err := service.UpdateRole(ctx, admin, accesstest.MemberRoleID, access.RoleInput{Name: "Member", IsDefault: false})
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
	})

	t.Run("nil permissions keep grants", func(t *testing.T) {
		service, _ := newService(t)

		role, err := service.UpdateRole(ctx, admin, accesstest.LibrarianRoleID, access.RoleInput{Name: "Curator"})
		require.NoError(t, err)

		assert.Equal(t, "curator", role.Slug)
		assert.Len(t, role.Permissions, 5)
	})

	t.Run("moving the default flag", func(t *testing.T) {
		service, store := newService(t)

		_, err := service.UpdateRole(ctx, admin, accesstest.LibrarianRoleID, access.RoleInput{Name: "Librarian", IsDefault: true})
		require.NoError(t, err)

		assert.Equal(t, []string{accesstest.LibrarianRoleID}, store.DefaultRoles())
	})
}

func TestService_SyncRolePermissions(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	role, err := service.SyncRolePermissions(ctx, admin, accesstest.LibrarianRoleID, []string{access.PermSubmissionsReview})
	require.NoError(t, err)
	require.Len(t, role.Permissions, 1)
	assert.Equal(t, access.PermSubmissionsReview, role.Permissions[0].Name)

	role, err = service.SyncRolePermissions(ctx, admin, accesstest.LibrarianRoleID, nil)
	require.NoError(t, err)
	assert.Empty(t, role.Permissions)
}

func TestService_DeleteRole(t *testing.T) {
	ctx := context.Background()

	t.Run("default role is protected", func(t *testing.T) {
		service, _ := newService(t)

		err := service.DeleteRole(ctx, admin, accesstest.MemberRoleID)
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
	})

	t.Run("held role is protected", func(t *testing.T) {
		service, store := newService(t)
		store.SetHolders(accesstest.LibrarianRoleID, 3)

		err := service.DeleteRole(ctx, admin, accesstest.LibrarianRoleID)
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
	})

	t.Run("unheld role is removed", func(t *testing.T) {
		service, store := newService(t)

		require.NoError(t, service.DeleteRole(ctx, admin, accesstest.LibrarianRoleID))

		_, err := store.FindByID(ctx, accesstest.LibrarianRoleID)
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestService_Permissions(t *testing.T) {
	ctx := context.Background()

	t.Run("create and list grouped", func(t *testing.T) {
		service, _ := newService(t)

		_, err := service.CreatePermission(ctx, admin, access.PermissionInput{Name: "reports.view", Group: "reports"})
		require.NoError(t, err)

		groups, err := service.ListPermissions(ctx, admin)
		require.NoError(t, err)

		var names []string
		for _, group := range groups {
			names = append(names, group.Group)
		}
		assert.Contains(t, names, "reports")
	})

	t.Run("malformed name rejected", func(t *testing.T) {
		service, _ := newService(t)

		_, err := service.CreatePermission(ctx, admin, access.PermissionInput{Name: "Has Spaces"})
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		service, _ := newService(t)

		_, err := service.CreatePermission(ctx, admin, access.PermissionInput{Name: access.PermUsersManage})
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
	})

	t.Run("wildcard cannot be deleted", func(t *testing.T) {
		service, _ := newService(t)

		err := service.DeletePermission(ctx, admin, "perm-"+access.Wildcard)
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
	})

	t.Run("deleting a permission revokes it", func(t *testing.T) {
		service, _ := newService(t)

		require.NoError(t, service.DeletePermission(ctx, admin, "perm-"+access.PermSubmissionsReview))

		role, err := service.GetRole(ctx, admin, accesstest.LibrarianRoleID)
		require.NoError(t, err)
		for _, permission := range role.Permissions {
			assert.NotEqual(t, access.PermSubmissionsReview, permission.Name)
		}
	})

	t.Run("member cannot manage catalog", func(t *testing.T) {
		service, _ := newService(t)

		_, err := service.ListPermissions(ctx, member)
		assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	})
}
