// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/dberr"
	"github.com/taibuivan/yomira-shelf/internal/platform/postgres"
	"github.com/taibuivan/yomira-shelf/internal/users/auth"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
)

// # Repository Implementations

// PostgresAccountRepository implements [AccountRepository] using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new Postgres implementation for profile management.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// PostgresSessionRepository implements [SessionRepository] using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new Postgres implementation for session auditing.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// # AccountRepository Methods

// FindByID implements [AccountRepository].
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	query := auth.UserSelect + ` WHERE a.id = $1 AND a.deletedat IS NULL`

	user, err := auth.ScanUser(postgres.Conn(context, repository.pool).QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.NotFoundAs(err, "Account", "find_account")
	}

	return user, nil
}

/*
List returns a filtered page of live accounts.

Description: Search is a case-insensitive substring match over username,
email and display name. The total is counted with the same predicate.

Parameters:
  - context: context.Context
  - filter: Filter
  - page: pagination.Params

Returns:
  - []*auth.User: Accounts on the page
  - int: Total matches
  - error: Storage failures
*/
func (repository *PostgresAccountRepository) List(context context.Context, filter Filter, page pagination.Params) ([]*auth.User, int, error) {
	conditions := []string{"a.deletedat IS NULL"}
	var args []any

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		position := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(a.username ILIKE $%d OR a.email ILIKE $%d OR a.displayname ILIKE $%d)", position, position, position))
	}
	if filter.RoleID != "" {
		args = append(args, filter.RoleID)
		conditions = append(conditions, fmt.Sprintf("a.roleid = $%d", len(args)))
	}

	where := " WHERE " + strings.Join(conditions, " AND ")
	db := postgres.Conn(context, repository.pool)

	var total int
	countQuery := `SELECT COUNT(*) FROM users.account a` + where
	if err := db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_accounts")
	}

	args = append(args, page.Limit, page.Offset())
	query := auth.UserSelect + where +
		fmt.Sprintf(" ORDER BY a.createdat DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_accounts")
	}
	defer rows.Close()

	users := make([]*auth.User, 0, page.Limit)
	for rows.Next() {
		user, err := auth.ScanUser(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_account")
		}
		users = append(users, user)
	}

	return users, total, dberr.Wrap(rows.Err(), "list_accounts")
}

// Create implements [AccountRepository].
func (repository *PostgresAccountRepository) Create(context context.Context, user *auth.User) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, passwordhash, displayname, roleid, isverified, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := postgres.Conn(context, repository.pool).Exec(context, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.DisplayName,
		user.RoleID, user.IsVerified, user.CreatedAt, user.UpdatedAt,
	)
	if dberr.IsUniqueViolation(err) {
		return apperr.Conflict("Username or email is already in use").WithCause(err)
	}

	return dberr.Wrap(err, "create_account")
}

// Update implements [AccountRepository].
func (repository *PostgresAccountRepository) Update(context context.Context, user *auth.User) error {
	const query = `
		UPDATE users.account
		SET username = $2, email = $3, displayname = $4, updatedat = $5
		WHERE id = $1 AND deletedat IS NULL`

	user.UpdatedAt = time.Now()
	tag, err := postgres.Conn(context, repository.pool).Exec(context, query,
		user.ID, user.Username, user.Email, user.DisplayName, user.UpdatedAt,
	)
	if dberr.IsUniqueViolation(err) {
		return apperr.Conflict("Username or email is already in use").WithCause(err)
	}
	if err != nil {
		return dberr.Wrap(err, "update_account")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}

// UpdateRole implements [AccountRepository].
func (repository *PostgresAccountRepository) UpdateRole(context context.Context, userID, roleID string) error {
	const query = `UPDATE users.account SET roleid = $2, updatedat = NOW() WHERE id = $1 AND deletedat IS NULL`

	tag, err := postgres.Conn(context, repository.pool).Exec(context, query, userID, roleID)
	if err != nil {
		return dberr.Wrap(err, "update_account_role")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}

// SoftDelete implements [AccountRepository].
func (repository *PostgresAccountRepository) SoftDelete(context context.Context, id string) error {
	const query = `UPDATE users.account SET deletedat = NOW() WHERE id = $1 AND deletedat IS NULL`

	tag, err := postgres.Conn(context, repository.pool).Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "soft_delete_account")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}

// # SessionRepository Methods

// FindActiveByUserID implements [SessionRepository].
func (repository *PostgresSessionRepository) FindActiveByUserID(context context.Context, userID string) ([]SessionInfo, error) {
	const query = `
		SELECT id, useragent, ipaddress, createdat, expiresat, tokenhash
		FROM users.session
		WHERE userid = $1 AND revokedat IS NULL AND expiresat > NOW()
		ORDER BY createdat DESC`

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_active_sessions")
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var session SessionInfo
		if err := rows.Scan(&session.ID, &session.DeviceName, &session.IPAddress,
			&session.CreatedAt, &session.ExpiresAt, &session.TokenHash); err != nil {
			return nil, dberr.Wrap(err, "scan_session")
		}
		sessions = append(sessions, session)
	}

	return sessions, dberr.Wrap(rows.Err(), "list_active_sessions")
}

// Revoke implements [SessionRepository].
func (repository *PostgresSessionRepository) Revoke(context context.Context, userID, sessionID string) error {
	const query = `UPDATE users.session SET revokedat = NOW() WHERE id = $1 AND userid = $2 AND revokedat IS NULL`

	tag, err := repository.pool.Exec(context, query, sessionID, userID)
	if err != nil {
		return dberr.Wrap(err, "revoke_session")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Session")
	}

	return nil
}

// RevokeOthers implements [SessionRepository].
func (repository *PostgresSessionRepository) RevokeOthers(context context.Context, userID, currentSessionID string) error {
	const query = `UPDATE users.session SET revokedat = NOW() WHERE userid = $1 AND id != $2 AND revokedat IS NULL`

	_, err := repository.pool.Exec(context, query, userID, currentSessionID)
	return dberr.Wrap(err, "revoke_other_sessions")
}

// RevokeAll implements [SessionRepository].
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, userID string) error {
	const query = `UPDATE users.session SET revokedat = NOW() WHERE userid = $1 AND revokedat IS NULL`

	_, err := postgres.Conn(context, repository.pool).Exec(context, query, userID)
	return dberr.Wrap(err, "revoke_all_sessions")
}
