// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/dberr"
	"github.com/taibuivan/yomira-shelf/internal/platform/postgres"
)

// # Permission Repository

// PostgresPermissionRepository implements [PermissionRepository] using pgx.
type PostgresPermissionRepository struct {
	db *pgxpool.Pool
}

// NewPostgresPermissionRepository creates a new permission repository.
func NewPostgresPermissionRepository(db *pgxpool.Pool) *PostgresPermissionRepository {
	return &PostgresPermissionRepository{db: db}
}

const permissionColumns = `id, name, description, groupname, createdat, updatedat`

func scanPermission(row pgx.Row) (*Permission, error) {
	permission := &Permission{}
	err := row.Scan(
		&permission.ID, &permission.Name, &permission.Description, &permission.Group,
		&permission.CreatedAt, &permission.UpdatedAt,
	)
	return permission, err
}

func collectPermissions(rows pgx.Rows, action string) ([]*Permission, error) {
	defer rows.Close()

	var permissions []*Permission
	for rows.Next() {
		permission, err := scanPermission(rows)
		if err != nil {
			return nil, dberr.Wrap(err, action)
		}
		permissions = append(permissions, permission)
	}

	return permissions, dberr.Wrap(rows.Err(), action)
}

// List implements [PermissionRepository].
func (repository *PostgresPermissionRepository) List(context context.Context) ([]*Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM users.permission ORDER BY groupname ASC, name ASC`

	rows, err := postgres.Conn(context, repository.db).Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_permissions")
	}

	return collectPermissions(rows, "scan_permission")
}

// FindByID implements [PermissionRepository].
func (repository *PostgresPermissionRepository) FindByID(context context.Context, id string) (*Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM users.permission WHERE id = $1`

	permission, err := scanPermission(postgres.Conn(context, repository.db).QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.NotFoundAs(err, "Permission", "find_permission_by_id")
	}

	return permission, nil
}

// FindByNames implements [PermissionRepository].
func (repository *PostgresPermissionRepository) FindByNames(context context.Context, names []string) ([]*Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM users.permission WHERE name = ANY($1) ORDER BY name ASC`

	rows, err := postgres.Conn(context, repository.db).Query(context, query, names)
	if err != nil {
		return nil, dberr.Wrap(err, "find_permissions_by_names")
	}

	return collectPermissions(rows, "scan_permission")
}

// Create implements [PermissionRepository].
func (repository *PostgresPermissionRepository) Create(context context.Context, permission *Permission) error {
	const query = `
		INSERT INTO users.permission (id, name, description, groupname, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := postgres.Conn(context, repository.db).Exec(context, query,
		permission.ID, permission.Name, permission.Description, permission.Group,
		permission.CreatedAt, permission.UpdatedAt,
	)
	if dberr.IsUniqueViolation(err) {
		return apperr.Conflict("A permission with this name already exists")
	}

	return dberr.Wrap(err, "create_permission")
}

// Update implements [PermissionRepository].
func (repository *PostgresPermissionRepository) Update(context context.Context, permission *Permission) error {
	const query = `
		UPDATE users.permission
		SET name = $2, description = $3, groupname = $4, updatedat = $5
		WHERE id = $1
	`
	tag, err := postgres.Conn(context, repository.db).Exec(context, query,
		permission.ID, permission.Name, permission.Description, permission.Group, permission.UpdatedAt,
	)
	if dberr.IsUniqueViolation(err) {
		return apperr.Conflict("A permission with this name already exists")
	}
	if err != nil {
		return dberr.Wrap(err, "update_permission")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Permission")
	}

	return nil
}

// Delete implements [PermissionRepository]. Role links cascade in the schema.
func (repository *PostgresPermissionRepository) Delete(context context.Context, id string) error {
	tag, err := postgres.Conn(context, repository.db).Exec(context, `DELETE FROM users.permission WHERE id = $1`, id)
	if err != nil {
		return dberr.Wrap(err, "delete_permission")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Permission")
	}

	return nil
}

// # Role Repository

// PostgresRoleRepository implements [RoleRepository] using pgx.
type PostgresRoleRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRoleRepository creates a new role repository.
func NewPostgresRoleRepository(db *pgxpool.Pool) *PostgresRoleRepository {
	return &PostgresRoleRepository{db: db}
}

const roleColumns = `id, name, slug, description, isdefault, createdat, updatedat`

func scanRole(row pgx.Row) (*Role, error) {
	role := &Role{}
	err := row.Scan(
		&role.ID, &role.Name, &role.Slug, &role.Description, &role.IsDefault,
		&role.CreatedAt, &role.UpdatedAt,
	)
	return role, err
}

// List implements [RoleRepository].
func (repository *PostgresRoleRepository) List(context context.Context) ([]*Role, error) {
	query := `SELECT ` + roleColumns + ` FROM users.role ORDER BY name ASC`

	rows, err := postgres.Conn(context, repository.db).Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_roles")
	}
	defer rows.Close()

	var roles []*Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_role")
		}
		roles = append(roles, role)
	}

	return roles, dberr.Wrap(rows.Err(), "list_roles")
}

// FindByID implements [RoleRepository].
func (repository *PostgresRoleRepository) FindByID(context context.Context, id string) (*Role, error) {
	query := `SELECT ` + roleColumns + ` FROM users.role WHERE id = $1`

	role, err := scanRole(postgres.Conn(context, repository.db).QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.NotFoundAs(err, "Role", "find_role_by_id")
	}

	return role, nil
}

// FindBySlug implements [RoleRepository].
func (repository *PostgresRoleRepository) FindBySlug(context context.Context, slug string) (*Role, error) {
	query := `SELECT ` + roleColumns + ` FROM users.role WHERE slug = $1`

	role, err := scanRole(postgres.Conn(context, repository.db).QueryRow(context, query, slug))
	if err != nil {
		return nil, dberr.NotFoundAs(err, "Role", "find_role_by_slug")
	}

	return role, nil
}

// FindDefault implements [RoleRepository].
func (repository *PostgresRoleRepository) FindDefault(context context.Context) (*Role, error) {
	query := `SELECT ` + roleColumns + ` FROM users.role WHERE isdefault LIMIT 1`

	role, err := scanRole(postgres.Conn(context, repository.db).QueryRow(context, query))
	if err != nil {
		return nil, dberr.NotFoundAs(err, "Default role", "find_default_role")
	}

	return role, nil
}

// Create implements [RoleRepository].
func (repository *PostgresRoleRepository) Create(context context.Context, role *Role) error {
	const query = `
		INSERT INTO users.role (id, name, slug, description, isdefault, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := postgres.Conn(context, repository.db).Exec(context, query,
		role.ID, role.Name, role.Slug, role.Description, role.IsDefault, role.CreatedAt, role.UpdatedAt,
	)
	if dberr.IsUniqueViolation(err) {
		return apperr.Conflict("A role with this name or slug already exists")
	}

	return dberr.Wrap(err, "create_role")
}

// Update implements [RoleRepository].
func (repository *PostgresRoleRepository) Update(context context.Context, role *Role) error {
	const query = `
		UPDATE users.role
		SET name = $2, slug = $3, description = $4, isdefault = $5, updatedat = $6
		WHERE id = $1
	`
	tag, err := postgres.Conn(context, repository.db).Exec(context, query,
		role.ID, role.Name, role.Slug, role.Description, role.IsDefault, role.UpdatedAt,
	)
	if dberr.IsUniqueViolation(err) {
		return apperr.Conflict("A role with this name or slug already exists")
	}
	if err != nil {
		return dberr.Wrap(err, "update_role")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Role")
	}

	return nil
}

// Delete implements [RoleRepository].
func (repository *PostgresRoleRepository) Delete(context context.Context, id string) error {
	tag, err := postgres.Conn(context, repository.db).Exec(context, `DELETE FROM users.role WHERE id = $1`, id)
	if err != nil {
		return dberr.Wrap(err, "delete_role")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Role")
	}

	return nil
}

// ClearDefault implements [RoleRepository].
func (repository *PostgresRoleRepository) ClearDefault(context context.Context, exceptID string) error {
	const query = `UPDATE users.role SET isdefault = FALSE, updatedat = $2 WHERE isdefault AND id <> $1`

	_, err := postgres.Conn(context, repository.db).Exec(context, query, exceptID, time.Now())
	return dberr.Wrap(err, "clear_default_role")
}

// CountUsers implements [RoleRepository].
func (repository *PostgresRoleRepository) CountUsers(context context.Context, roleID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users.account WHERE roleid = $1 AND deletedat IS NULL`

	var count int
	if err := postgres.Conn(context, repository.db).QueryRow(context, query, roleID).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "count_role_users")
	}

	return count, nil
}

// ListPermissions implements [RoleLookup].
func (repository *PostgresRoleRepository) ListPermissions(context context.Context, roleID string) ([]*Permission, error) {
	const query = `
		SELECT p.id, p.name, p.description, p.groupname, p.createdat, p.updatedat
		FROM users.permission p
		JOIN users.rolepermission rp ON rp.permissionid = p.id
		WHERE rp.roleid = $1
		ORDER BY p.groupname ASC, p.name ASC
	`
	rows, err := postgres.Conn(context, repository.db).Query(context, query, roleID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_role_permissions")
	}

	return collectPermissions(rows, "scan_role_permission")
}

// SetPermissions implements [RoleRepository]. Callers wrap it in a transaction.
func (repository *PostgresRoleRepository) SetPermissions(context context.Context, roleID string, permissionIDs []string) error {
	conn := postgres.Conn(context, repository.db)

	if _, err := conn.Exec(context, `DELETE FROM users.rolepermission WHERE roleid = $1`, roleID); err != nil {
		return dberr.Wrap(err, "clear_role_permissions")
	}

	if len(permissionIDs) == 0 {
		return nil
	}

	const query = `
		INSERT INTO users.rolepermission (roleid, permissionid)
		SELECT $1, unnest($2::uuid[])
	`
	_, err := conn.Exec(context, query, roleID, permissionIDs)
	return dberr.Wrap(err, "insert_role_permissions")
}
