// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publication

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-shelf/internal/library/document"
	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/dberr"
	"github.com/taibuivan/yomira-shelf/internal/platform/postgres"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
)

// PostgresRepository implements [Repository] over library.publication and
// library.deletedpublication.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new publication repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const columns = `id, name, title, description, originalfilename, storagepath, url, mimetype, size,
	year, month, day, page, ownerid, submissionid, createdat, updatedat`

func scanPublication(row pgx.Row, extra ...any) (*Publication, error) {
	publication := &Publication{}
	targets := []any{
		&publication.ID, &publication.Name, &publication.Title, &publication.Description,
		&publication.OriginalFilename, &publication.StoragePath, &publication.URL, &publication.MimeType,
		&publication.Size, &publication.Year, &publication.Month, &publication.Day, &publication.Page,
		&publication.OwnerID, &publication.SubmissionID, &publication.CreatedAt, &publication.UpdatedAt,
	}
	err := row.Scan(append(targets, extra...)...)
	return publication, err
}

func values(publication *Publication) []any {
	return []any{
		publication.ID, publication.Name, publication.Title, publication.Description,
		publication.OriginalFilename, publication.StoragePath, publication.URL, publication.MimeType,
		publication.Size, publication.Year, publication.Month, publication.Day, publication.Page,
		publication.OwnerID, publication.SubmissionID, publication.CreatedAt, publication.UpdatedAt,
	}
}

// FindDuplicate implements [document.DuplicateFinder].
func (repository *PostgresRepository) FindDuplicate(context context.Context, key document.Key) (string, error) {
	const query = `
		SELECT id FROM library.publication
		WHERE originalfilename = $1 AND size = $2 AND year = $3 AND month = $4 AND day = $5
		  AND page IS NOT DISTINCT FROM $6
		LIMIT 1`

	var id string
	err := postgres.Conn(context, repository.pool).QueryRow(context, query,
		key.OriginalFilename, key.Size, key.Year, key.Month, key.Day, key.Page,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", dberr.Wrap(err, "find_duplicate_publication")
	}

	return id, nil
}

/*
Create implements [Repository].

Description: When the publication came from a submission whose link was
cleared by an earlier delete, the link is restored in the same statement
batch so a later revert finds the record again.
*/
func (repository *PostgresRepository) Create(context context.Context, publication *Publication) error {
	query := `INSERT INTO library.publication (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	db := postgres.Conn(context, repository.pool)
	if _, err := db.Exec(context, query, values(publication)...); err != nil {
		return dberr.Wrap(err, "create_publication")
	}

	if publication.SubmissionID != nil {
		const relink = `
			UPDATE library.submission SET publicationid = $1
			WHERE id = $2 AND status = 'approved' AND publicationid IS NULL`
		if _, err := db.Exec(context, relink, publication.ID, *publication.SubmissionID); err != nil {
			return dberr.Wrap(err, "relink_submission")
		}
	}

	return nil
}

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Publication, error) {
	query := `SELECT ` + columns + ` FROM library.publication WHERE id = $1`

	publication, err := scanPublication(postgres.Conn(context, repository.pool).QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.NotFoundAs(err, "Publication", "find_publication")
	}

	return publication, nil
}

/*
List implements [Repository].

Description: Name matches exactly (case-insensitive); Search is a substring
match over name, title and description. Newest publication dates first.
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter, page pagination.Params) ([]*Publication, int, error) {
	var conditions []string
	var args []any

	if name := strings.TrimSpace(filter.Name); name != "" {
		args = append(args, name)
		conditions = append(conditions, fmt.Sprintf("lower(name) = lower($%d)", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		position := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR title ILIKE $%d OR description ILIKE $%d)", position, position, position))
	}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)))
	}
	if filter.Month > 0 {
		args = append(args, filter.Month)
		conditions = append(conditions, fmt.Sprintf("month = $%d", len(args)))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("ownerid = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	db := postgres.Conn(context, repository.pool)

	var total int
	if err := db.QueryRow(context, `SELECT COUNT(*) FROM library.publication`+where, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_publications")
	}

	args = append(args, page.Limit, page.Offset())
	query := `SELECT ` + columns + ` FROM library.publication` + where +
		fmt.Sprintf(" ORDER BY year DESC, month DESC, day DESC, page ASC NULLS FIRST, createdat DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_publications")
	}
	defer rows.Close()

	publications := make([]*Publication, 0, page.Limit)
	for rows.Next() {
		publication, err := scanPublication(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_publication")
		}
		publications = append(publications, publication)
	}

	return publications, total, dberr.Wrap(rows.Err(), "list_publications")
}

// Delete implements [Repository].
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	tag, err := postgres.Conn(context, repository.pool).Exec(context, `DELETE FROM library.publication WHERE id = $1`, id)
	if err != nil {
		return dberr.Wrap(err, "delete_publication")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Publication")
	}
	return nil
}

// # Archive

// Archive implements [Repository].
func (repository *PostgresRepository) Archive(context context.Context, deleted *Deleted) error {
	query := `INSERT INTO library.deletedpublication (` + columns + `, deletedbyid, deletedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	args := append(values(&deleted.Publication), deleted.DeletedByID, deleted.DeletedAt)
	if _, err := postgres.Conn(context, repository.pool).Exec(context, query, args...); err != nil {
		return dberr.Wrap(err, "archive_publication")
	}
	return nil
}

func scanDeleted(row pgx.Row) (*Deleted, error) {
	deleted := &Deleted{}
	publication, err := scanPublication(row, &deleted.DeletedByID, &deleted.DeletedAt)
	if err != nil {
		return nil, err
	}
	deleted.Publication = *publication
	return deleted, nil
}

// FindDeleted implements [Repository].
func (repository *PostgresRepository) FindDeleted(context context.Context, id string) (*Deleted, error) {
	query := `SELECT ` + columns + `, deletedbyid, deletedat FROM library.deletedpublication WHERE id = $1`

	deleted, err := scanDeleted(postgres.Conn(context, repository.pool).QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.NotFoundAs(err, "Deleted publication", "find_deleted_publication")
	}

	return deleted, nil
}

// FindDeletedBySubmission implements [Repository].
func (repository *PostgresRepository) FindDeletedBySubmission(context context.Context, submissionID string) (*Deleted, error) {
	query := `SELECT ` + columns + `, deletedbyid, deletedat FROM library.deletedpublication
		WHERE submissionid = $1 ORDER BY deletedat DESC LIMIT 1`

	deleted, err := scanDeleted(postgres.Conn(context, repository.pool).QueryRow(context, query, submissionID))
	if err != nil {
		return nil, dberr.NotFoundAs(err, "Deleted publication", "find_deleted_publication_by_submission")
	}

	return deleted, nil
}

// ListDeleted implements [Repository].
func (repository *PostgresRepository) ListDeleted(context context.Context, page pagination.Params) ([]*Deleted, int, error) {
	db := postgres.Conn(context, repository.pool)

	var total int
	if err := db.QueryRow(context, `SELECT COUNT(*) FROM library.deletedpublication`).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_deleted_publications")
	}

	query := `SELECT ` + columns + `, deletedbyid, deletedat FROM library.deletedpublication
		ORDER BY deletedat DESC LIMIT $1 OFFSET $2`

	rows, err := db.Query(context, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_deleted_publications")
	}
	defer rows.Close()

	var archived []*Deleted
	for rows.Next() {
		deleted, err := scanDeleted(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_deleted_publication")
		}
		archived = append(archived, deleted)
	}

	return archived, total, dberr.Wrap(rows.Err(), "list_deleted_publications")
}

// RemoveDeleted implements [Repository].
func (repository *PostgresRepository) RemoveDeleted(context context.Context, id string) error {
	tag, err := postgres.Conn(context, repository.pool).Exec(context, `DELETE FROM library.deletedpublication WHERE id = $1`, id)
	if err != nil {
		return dberr.Wrap(err, "remove_deleted_publication")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Deleted publication")
	}
	return nil
}
