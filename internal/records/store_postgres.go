package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"dirsync/internal/sync/models"
	"dirsync/pkg/platform/sentinel"
)

// PostgresStore persists employee records in PostgreSQL. Pure I/O; the
// orchestrator owns lifecycle and linkage rules.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const employeeColumns = `id, title, email, external_id, status, principal_name, given_name,
	surname, job_title, department, office, phone, employee_type, company, last_synced_at`

func (s *PostgresStore) QueryAll(ctx context.Context) ([]*models.TargetRecord, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var out []*models.TargetRecord
	for rows.Next() {
		rec, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindByExternalIDOrEmail(ctx context.Context, externalID, email string) (*models.TargetRecord, error) {
	// external_id is the authoritative link; email is the first-sync
	// fallback. Mirrors the in-memory index used by full syncs.
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE (external_id = $1 AND $1 <> '')
		   OR (lower(email) = lower($2) AND $2 <> '')
		ORDER BY (external_id = $1 AND $1 <> '') DESC
		LIMIT 1
	`
	rec, err := scanEmployee(s.db.QueryRowContext(ctx, query, externalID, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.TargetRecord) (int64, error) {
	query := `
		INSERT INTO employees (title, email, external_id, status, principal_name, given_name,
			surname, job_title, department, office, phone, employee_type, company, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		rec.Title,
		rec.Email,
		nullString(rec.ExternalID),
		string(rec.Status),
		rec.PrincipalName,
		rec.GivenName,
		rec.Surname,
		rec.JobTitle,
		rec.Department,
		rec.Office,
		rec.Phone,
		rec.EmployeeType,
		rec.Company,
		rec.LastSyncedAt,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("create employee %s: %w", rec.ExternalID, sentinel.ErrConflict)
		}
		return 0, fmt.Errorf("create employee: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, rec *models.TargetRecord) error {
	query := `
		UPDATE employees
		SET title = $2, email = $3, external_id = $4, status = $5, principal_name = $6,
			given_name = $7, surname = $8, job_title = $9, department = $10, office = $11,
			phone = $12, employee_type = $13, company = $14, last_synced_at = $15
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Title,
		rec.Email,
		nullString(rec.ExternalID),
		string(rec.Status),
		rec.PrincipalName,
		rec.GivenName,
		rec.Surname,
		rec.JobTitle,
		rec.Department,
		rec.Office,
		rec.Phone,
		rec.EmployeeType,
		rec.Company,
		rec.LastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update employee rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type employeeRow interface {
	Scan(dest ...any) error
}

func scanEmployee(row employeeRow) (*models.TargetRecord, error) {
	var rec models.TargetRecord
	var externalID sql.NullString
	var status string
	var lastSynced sql.NullTime
	if err := row.Scan(
		&rec.ID,
		&rec.Title,
		&rec.Email,
		&externalID,
		&status,
		&rec.PrincipalName,
		&rec.GivenName,
		&rec.Surname,
		&rec.JobTitle,
		&rec.Department,
		&rec.Office,
		&rec.Phone,
		&rec.EmployeeType,
		&rec.Company,
		&lastSynced,
	); err != nil {
		return nil, err
	}
	if externalID.Valid {
		rec.ExternalID = externalID.String
	}
	rec.Status = models.LifecycleStatus(status)
	if lastSynced.Valid {
		rec.LastSyncedAt = lastSynced.Time
	} else {
		rec.LastSyncedAt = time.Time{}
	}
	return &rec, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// Schema is the employees table DDL, applied by migrations and reused by the
// integration test fixture.
const Schema = `
CREATE TABLE IF NOT EXISTS employees (
	id             BIGSERIAL PRIMARY KEY,
	title          TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	external_id    TEXT UNIQUE,
	status         TEXT NOT NULL DEFAULT 'Active',
	principal_name TEXT NOT NULL DEFAULT '',
	given_name     TEXT NOT NULL DEFAULT '',
	surname        TEXT NOT NULL DEFAULT '',
	job_title      TEXT NOT NULL DEFAULT '',
	department     TEXT NOT NULL DEFAULT '',
	office         TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	employee_type  TEXT NOT NULL DEFAULT '',
	company        TEXT NOT NULL DEFAULT '',
	last_synced_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS employees_email_idx ON employees (lower(email));
`
