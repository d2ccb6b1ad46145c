package synclog

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRecorder persists run events in PostgreSQL.
type PostgresRecorder struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

func (r *PostgresRecorder) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO sync_log (id, run_id, mode, status, message, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.RunID, entry.Mode, entry.Status, entry.Message, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("append sync log: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Recent(ctx context.Context, count int) ([]Entry, error) {
	if count <= 0 {
		count = 20
	}
	query := `
		SELECT id, run_id, mode, status, message, logged_at
		FROM sync_log
		ORDER BY logged_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, count)
	if err != nil {
		return nil, fmt.Errorf("query sync log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Mode, &e.Status, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync log: %w", err)
	}
	return out, nil
}

// Schema is the sync_log table DDL.
const Schema = `
CREATE TABLE IF NOT EXISTS sync_log (
	id        TEXT PRIMARY KEY,
	run_id    TEXT NOT NULL,
	mode      TEXT NOT NULL,
	status    TEXT NOT NULL,
	message   TEXT NOT NULL DEFAULT '',
	logged_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sync_log_logged_at_idx ON sync_log (logged_at DESC);
`
