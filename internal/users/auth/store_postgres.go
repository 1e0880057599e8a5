// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/dberr"
	"github.com/taibuivan/yomira-shelf/internal/platform/postgres"
)

// # User Repository

// UserSelect selects a live account joined with its role summary. Callers
// append their own WHERE clause (the account alias is "a").
const UserSelect = `
	SELECT a.id, a.username, a.email, a.passwordhash, a.displayname, a.roleid,
	       r.name, r.slug, a.isverified, a.createdat, a.updatedat
	FROM users.account a
	JOIN users.role r ON r.id = a.roleid`

/*
ScanUser hydrates a [User] from a row produced by [UserSelect].

Parameters:
  - row: pgx.Row

Returns:
  - *User: Account with Role populated
  - error: Raw scan error (pgx.ErrNoRows when missing)
*/
func ScanUser(row pgx.Row) (*User, error) {
	user := &User{Role: &RoleRef{}}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.DisplayName, &user.RoleID,
		&user.Role.Name, &user.Role.Slug, &user.IsVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	user.Role.ID = user.RoleID
	return user, err
}

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create implements [UserRepository]. A race on email or username surfaces as CONFLICT.
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (id, username, email, passwordhash, displayname, roleid, isverified, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := postgres.Conn(context, repository.pool).Exec(context, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.DisplayName,
		user.RoleID, user.IsVerified, user.CreatedAt, user.UpdatedAt,
	)
	if dberr.IsUniqueViolation(err) {
		return apperr.Conflict("Username or email is already in use").WithCause(err)
	}

	return dberr.Wrap(err, "create_user")
}

func (repository *PostgresUserRepository) findOne(context context.Context, where, action string, arg any) (*User, error) {
	query := UserSelect + ` WHERE ` + where + ` AND a.deletedat IS NULL`

	user, err := ScanUser(postgres.Conn(context, repository.pool).QueryRow(context, query, arg))
	if err != nil {
		return nil, dberr.NotFoundAs(err, "User", action)
	}

	return user, nil
}

// FindByID implements [UserRepository].
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	return repository.findOne(context, `a.id = $1`, "find_user_by_id", id)
}

// FindByLogin implements [UserRepository].
func (repository *PostgresUserRepository) FindByLogin(context context.Context, login string) (*User, error) {
	return repository.findOne(context, `(lower(a.email) = lower($1) OR lower(a.username) = lower($1))`, "find_user_by_login", login)
}

/*
Exists checks both identifiers in one round trip. Soft-deleted accounts still
hold their email and username.
*/
func (repository *PostgresUserRepository) Exists(context context.Context, email, username string) (bool, bool, error) {
	const query = `
		SELECT
			EXISTS (SELECT 1 FROM users.account WHERE lower(email) = lower($1)),
			EXISTS (SELECT 1 FROM users.account WHERE username = $2)`

	var emailTaken, usernameTaken bool
	err := postgres.Conn(context, repository.pool).QueryRow(context, query, email, username).Scan(&emailTaken, &usernameTaken)
	if err != nil {
		return false, false, dberr.Wrap(err, "check_account_identity")
	}

	return emailTaken, usernameTaken, nil
}

// UpdatePassword implements [UserRepository].
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, passwordHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL`

	tag, err := postgres.Conn(context, repository.pool).Exec(context, query, userID, passwordHash)
	if err != nil {
		return dberr.Wrap(err, "update_user_password")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// # Session Repository

// PostgresSessionRepository implements the SessionRepository interface.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// Create implements [SessionRepository].
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	const query = `
		INSERT INTO users.session (id, userid, tokenhash, useragent, ipaddress, expiresat, createdat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := postgres.Conn(context, repository.pool).Exec(context, query,
		session.ID, session.UserID, session.TokenHash,
		session.UserAgent, session.IPAddress, session.ExpiresAt, session.CreatedAt,
	)

	return dberr.Wrap(err, "create_session")
}

// FindActive implements [SessionRepository].
func (repository *PostgresSessionRepository) FindActive(context context.Context, tokenHash string) (*Session, error) {
	const query = `
		SELECT id, userid, tokenhash, useragent, ipaddress, expiresat, createdat
		FROM users.session
		WHERE tokenhash = $1 AND revokedat IS NULL AND expiresat > NOW()`

	session := &Session{}
	err := postgres.Conn(context, repository.pool).QueryRow(context, query, tokenHash).Scan(
		&session.ID, &session.UserID, &session.TokenHash,
		&session.UserAgent, &session.IPAddress, &session.ExpiresAt, &session.CreatedAt,
	)
	if err != nil {
		return nil, dberr.NotFoundAs(err, "Session", "find_session")
	}

	return session, nil
}

// Revoke implements [SessionRepository].
func (repository *PostgresSessionRepository) Revoke(context context.Context, sessionID string) error {
	const query = `UPDATE users.session SET revokedat = NOW() WHERE id = $1 AND revokedat IS NULL`
	_, err := postgres.Conn(context, repository.pool).Exec(context, query, sessionID)
	return dberr.Wrap(err, "revoke_session")
}

// RevokeOthers implements [SessionRepository].
func (repository *PostgresSessionRepository) RevokeOthers(context context.Context, userID, keepID string) error {
	query := `UPDATE users.session SET revokedat = NOW() WHERE userid = $1 AND revokedat IS NULL`
	args := []any{userID}
	if keepID != "" {
		query += ` AND id <> $2`
		args = append(args, keepID)
	}

	_, err := postgres.Conn(context, repository.pool).Exec(context, query, args...)
	return dberr.Wrap(err, "revoke_sessions")
}
