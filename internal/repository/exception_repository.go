package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"service-scheduler/internal/domain"
)

type ExceptionRepository interface {
	Upsert(ctx context.Context, exception domain.Exception) error
	GetBySlotAndDate(ctx context.Context, slotID uuid.UUID, date time.Time) (domain.Exception, error)
	ListByDateRange(ctx context.Context, from time.Time, to time.Time) ([]domain.Exception, error)
	ListBySlot(ctx context.Context, slotID uuid.UUID) ([]domain.Exception, error)
}

type ExceptionPostgresRepository struct {
	execer Execer
}

func NewExceptionPostgresRepository(execer Execer) *ExceptionPostgresRepository {
	return &ExceptionPostgresRepository{execer: execer}
}

func (r *ExceptionPostgresRepository) Upsert(ctx context.Context, exception domain.Exception) error {
	const query = `
INSERT INTO scheduler.exceptions (
	id,
	slot_id,
	exception_date,
	type,
	start_time,
	end_time,
	title,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
ON CONFLICT (slot_id, exception_date)
DO UPDATE SET
	type = EXCLUDED.type,
	start_time = EXCLUDED.start_time,
	end_time = EXCLUDED.end_time,
	title = EXCLUDED.title,
	updated_at = now()
`

	var title sql.NullString
	if exception.Title != nil {
		title = sql.NullString{String: *exception.Title, Valid: true}
	}

	_, err := r.execer.ExecContext(
		ctx,
		query,
		exception.ID,
		exception.SlotID,
		exception.Date,
		string(exception.Type),
		exception.StartTime,
		exception.EndTime,
		title,
	)
	return err
}

func (r *ExceptionPostgresRepository) GetBySlotAndDate(ctx context.Context, slotID uuid.UUID, date time.Time) (domain.Exception, error) {
	const query = `
SELECT id, slot_id, exception_date, type, start_time, end_time, title
FROM scheduler.exceptions
WHERE slot_id = $1 AND exception_date = $2
`

	row := r.execer.QueryRowContext(ctx, query, slotID, date)
	return scanException(row.Scan)
}

func (r *ExceptionPostgresRepository) ListByDateRange(ctx context.Context, from time.Time, to time.Time) ([]domain.Exception, error) {
	const query = `
SELECT id, slot_id, exception_date, type, start_time, end_time, title
FROM scheduler.exceptions
WHERE exception_date BETWEEN $1 AND $2
ORDER BY exception_date ASC
`

	rows, err := r.execer.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectExceptions(rows)
}

func (r *ExceptionPostgresRepository) ListBySlot(ctx context.Context, slotID uuid.UUID) ([]domain.Exception, error) {
	const query = `
SELECT id, slot_id, exception_date, type, start_time, end_time, title
FROM scheduler.exceptions
WHERE slot_id = $1
ORDER BY exception_date ASC
`

	rows, err := r.execer.QueryContext(ctx, query, slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectExceptions(rows)
}

func collectExceptions(rows *sql.Rows) ([]domain.Exception, error) {
	var exceptions []domain.Exception
	for rows.Next() {
		exception, err := scanException(rows.Scan)
		if err != nil {
			return nil, err
		}
		exceptions = append(exceptions, exception)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exceptions, nil
}

func scanException(scan func(dest ...any) error) (domain.Exception, error) {
	var exception domain.Exception
	var excType string
	var startTime sql.NullTime
	var endTime sql.NullTime
	var title sql.NullString
	if err := scan(
		&exception.ID,
		&exception.SlotID,
		&exception.Date,
		&excType,
		&startTime,
		&endTime,
		&title,
	); err != nil {
		return domain.Exception{}, err
	}

	exception.Type = domain.ExceptionType(excType)
	if startTime.Valid {
		exception.StartTime = &startTime.Time
	}
	if endTime.Valid {
		exception.EndTime = &endTime.Time
	}
	if title.Valid {
		exception.Title = &title.String
	}

	return exception, nil
}
