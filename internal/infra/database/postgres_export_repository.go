// internal/infra/database/postgres_export_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"export_stats_bot/internal/domain/export"

	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE PostgreSQL reports for unique constraint failures.
const uniqueViolation = "23505"

const exportColumns = `id, export_date, successful, month, week, year, weekday, created_at`

type PostgresExportRepository struct {
	db    *sql.DB
	table string // quoted identifier
	index string // quoted identifier of the per-day unique index
}

func NewPostgresExportRepository(db *sql.DB, tableName string) *PostgresExportRepository {
	return &PostgresExportRepository{
		db:    db,
		table: pq.QuoteIdentifier(tableName),
		index: pq.QuoteIdentifier(tableName + "_day_unique"),
	}
}

// EnsureSchema creates the exports table and its per-day unique index if they are missing.
func (r *PostgresExportRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + r.table + ` (
			id          BIGSERIAL PRIMARY KEY,
			export_date TIMESTAMPTZ NOT NULL,
			export_day  DATE NOT NULL,
			successful  BOOLEAN NOT NULL,
			month       SMALLINT NOT NULL,
			week        SMALLINT NOT NULL,
			year        SMALLINT NOT NULL,
			weekday     VARCHAR(3) NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + r.index + ` ON ` + r.table + ` (export_day)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error ensuring export schema: %w: %w", export.ErrStoreUnavailable, err)
		}
	}
	return nil
}

func (r *PostgresExportRepository) FindInRange(ctx context.Context, start, end time.Time) ([]*export.Record, error) {
	var conds []string
	var args []interface{}
	if !start.IsZero() {
		args = append(args, lowerBound(start))
		conds = append(conds, fmt.Sprintf("export_date >= $%d", len(args)))
	}
	if !end.IsZero() {
		args = append(args, upperBound(end))
		conds = append(conds, fmt.Sprintf("export_date <= $%d", len(args)))
	}

	query := `SELECT ` + exportColumns + ` FROM ` + r.table + whereClause(conds) + ` ORDER BY export_date ASC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying exports in range: %w: %w", export.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *PostgresExportRepository) FindLatest(ctx context.Context, filter export.Filter, limit int) ([]*export.Record, error) {
	conds, args := filterConditions(filter)
	query := `SELECT ` + exportColumns + ` FROM ` + r.table + whereClause(conds) + ` ORDER BY export_date DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying latest exports: %w: %w", export.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *PostgresExportRepository) Count(ctx context.Context, filter export.Filter) (int, error) {
	conds, args := filterConditions(filter)
	query := `SELECT COUNT(*) FROM ` + r.table + whereClause(conds)

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting exports: %w: %w", export.ErrStoreUnavailable, err)
	}
	return count, nil
}

func (r *PostgresExportRepository) Insert(ctx context.Context, rec *export.Record) error {
	query := `INSERT INTO ` + r.table + ` (export_date, export_day, successful, month, week, year, weekday)
               VALUES ($1, $2::date, $3, $4, $5, $6, $7)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		rec.Date.UTC(), rec.Date.UTC().Format("2006-01-02"), rec.Successful,
		rec.Month, rec.Week, rec.Year, rec.Weekday,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return export.ErrDuplicateRecord
		}
		return fmt.Errorf("error inserting export: %w: %w", export.ErrStoreUnavailable, err)
	}
	return nil
}

func filterConditions(filter export.Filter) ([]string, []interface{}) {
	var conds []string
	var args []interface{}
	if filter.Successful != nil {
		args = append(args, *filter.Successful)
		conds = append(conds, fmt.Sprintf("successful = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, lowerBound(filter.From))
		conds = append(conds, fmt.Sprintf("export_date >= $%d", len(args)))
	}
	return conds, args
}

// TIMESTAMPTZ keeps microseconds and rounds anything finer, so an inclusive
// bound sent with nanoseconds can slide onto the neighbouring value.
// lowerBound rounds up and upperBound truncates to keep the range exact.
func lowerBound(t time.Time) time.Time {
	t = t.UTC()
	if tr := t.Truncate(time.Microsecond); !tr.Equal(t) {
		return tr.Add(time.Microsecond)
	}
	return t
}

func upperBound(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// Helper to scan multiple rows
func scanRecords(rows *sql.Rows) ([]*export.Record, error) {
	records := make([]*export.Record, 0)
	for rows.Next() {
		rec := export.Record{}
		if err := rows.Scan(
			&rec.ID, &rec.Date, &rec.Successful, &rec.Month, &rec.Week,
			&rec.Year, &rec.Weekday, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning export row: %w: %w", export.ErrStoreUnavailable, err)
		}
		rec.Date = rec.Date.UTC()
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating export rows: %w: %w", export.ErrStoreUnavailable, err)
	}
	return records, nil
}
