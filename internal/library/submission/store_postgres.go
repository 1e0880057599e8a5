// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission

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
	"github.com/taibuivan/yomira-shelf/pkg/slice"
)

// PostgresRepository implements [Repository] over library.submission.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new submission repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const columns = `id, name, title, description, originalfilename, storagepath, url, mimetype, size,
	year, month, day, page, submitterid, status, reviewerid, reviewedat, reviewnotes, publicationid,
	createdat, updatedat`

func scanSubmission(row pgx.Row) (*Submission, error) {
	submission := &Submission{}
	err := row.Scan(
		&submission.ID, &submission.Name, &submission.Title, &submission.Description,
		&submission.OriginalFilename, &submission.StoragePath, &submission.URL, &submission.MimeType,
		&submission.Size, &submission.Year, &submission.Month, &submission.Day, &submission.Page,
		&submission.SubmitterID, &submission.Status, &submission.ReviewerID, &submission.ReviewedAt,
		&submission.ReviewNotes, &submission.PublicationID, &submission.CreatedAt, &submission.UpdatedAt,
	)
	return submission, err
}

// FindDuplicate implements [document.DuplicateFinder]. Rejected submissions
// do not block a new upload of the same document.
func (repository *PostgresRepository) FindDuplicate(context context.Context, key document.Key) (string, error) {
	const query = `
		SELECT id FROM library.submission
		WHERE status IN ('pending', 'approved')
		  AND originalfilename = $1 AND size = $2 AND year = $3 AND month = $4 AND day = $5
		  AND page IS NOT DISTINCT FROM $6
		ORDER BY createdat ASC
		LIMIT 1`

	var id string
	err := postgres.Conn(context, repository.pool).QueryRow(context, query,
		key.OriginalFilename, key.Size, key.Year, key.Month, key.Day, key.Page,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", dberr.Wrap(err, "find_duplicate_submission")
	}

	return id, nil
}

// Create implements [Repository].
func (repository *PostgresRepository) Create(context context.Context, submission *Submission) error {
	query := `INSERT INTO library.submission (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	_, err := postgres.Conn(context, repository.pool).Exec(context, query,
		submission.ID, submission.Name, submission.Title, submission.Description,
		submission.OriginalFilename, submission.StoragePath, submission.URL, submission.MimeType,
		submission.Size, submission.Year, submission.Month, submission.Day, submission.Page,
		submission.SubmitterID, submission.Status, submission.ReviewerID, submission.ReviewedAt,
		submission.ReviewNotes, submission.PublicationID, submission.CreatedAt, submission.UpdatedAt,
	)
	return dberr.Wrap(err, "create_submission")
}

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Submission, error) {
	query := `SELECT ` + columns + ` FROM library.submission WHERE id = $1`

	submission, err := scanSubmission(postgres.Conn(context, repository.pool).QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.NotFoundAs(err, "Submission", "find_submission")
	}

	return submission, nil
}

// FindByIDForUpdate implements [Repository]. NOWAIT turns a held row lock
// into SQLSTATE 55P03, which [dberr.Wrap] reports as TRANSITION_IN_PROGRESS.
func (repository *PostgresRepository) FindByIDForUpdate(context context.Context, id string) (*Submission, error) {
	query := `SELECT ` + columns + ` FROM library.submission WHERE id = $1 FOR UPDATE NOWAIT`

	submission, err := scanSubmission(postgres.Conn(context, repository.pool).QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.NotFoundAs(err, "Submission", "lock_submission")
	}

	return submission, nil
}

// SaveReview implements [Repository].
func (repository *PostgresRepository) SaveReview(context context.Context, submission *Submission) error {
	const query = `
		UPDATE library.submission
		SET status = $2, reviewerid = $3, reviewedat = $4, reviewnotes = $5, publicationid = $6,
		    storagepath = $7, url = $8, updatedat = $9
		WHERE id = $1`

	tag, err := postgres.Conn(context, repository.pool).Exec(context, query,
		submission.ID, submission.Status, submission.ReviewerID, submission.ReviewedAt,
		submission.ReviewNotes, submission.PublicationID, submission.StoragePath, submission.URL,
		submission.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "save_submission_review")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Submission")
	}

	return nil
}

/*
List implements [Repository].

Description: Oldest first, so the review queue reads in arrival order.
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter, page pagination.Params) ([]*Submission, int, error) {
	var conditions []string
	var args []any

	if len(filter.Statuses) > 0 {
		args = append(args, slice.Map(filter.Statuses, func(status Status) string { return string(status) }))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.SubmitterID != "" {
		args = append(args, filter.SubmitterID)
		conditions = append(conditions, fmt.Sprintf("submitterid = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		position := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR title ILIKE $%d OR originalfilename ILIKE $%d)", position, position, position))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	db := postgres.Conn(context, repository.pool)

	var total int
	if err := db.QueryRow(context, `SELECT COUNT(*) FROM library.submission`+where, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_submissions")
	}

	args = append(args, page.Limit, page.Offset())
	query := `SELECT ` + columns + ` FROM library.submission` + where +
		fmt.Sprintf(" ORDER BY createdat ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_submissions")
	}
	defer rows.Close()

	submissions := make([]*Submission, 0, page.Limit)
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_submission")
		}
		submissions = append(submissions, submission)
	}

	return submissions, total, dberr.Wrap(rows.Err(), "list_submissions")
}
