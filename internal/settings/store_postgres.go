// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-shelf/internal/platform/dberr"
	"github.com/taibuivan/yomira-shelf/internal/platform/postgres"
)

// PostgresRepository implements [Repository] over system.setting.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new settings repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Load implements [Repository].
func (repository *PostgresRepository) Load(context context.Context) (map[string]string, error) {
	rows, err := postgres.Conn(context, repository.db).Query(context, `SELECT key, value FROM system.setting`)
	if err != nil {
		return nil, dberr.Wrap(err, "load_settings")
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, dberr.Wrap(err, "scan_setting")
		}
		values[key] = value
	}

	return values, dberr.Wrap(rows.Err(), "load_settings")
}

// Save implements [Repository].
func (repository *PostgresRepository) Save(context context.Context, values map[string]string) error {
	query := `
		INSERT INTO system.setting (key, value, updatedat)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updatedat = NOW()`

	conn := postgres.Conn(context, repository.db)
	for key, value := range values {
		if _, err := conn.Exec(context, query, key, value); err != nil {
			return dberr.Wrap(err, "save_setting")
		}
	}

	return nil
}
