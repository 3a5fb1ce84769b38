package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"service-scheduler/internal/domain"
)

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SlotRepository interface {
	Create(ctx context.Context, slot domain.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Slot, error)
	List(ctx context.Context) ([]domain.Slot, error)
	CountByWeekday(ctx context.Context, weekday int) (int, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type SlotPostgresRepository struct {
	execer Execer
}

func NewSlotPostgresRepository(execer Execer) *SlotPostgresRepository {
	return &SlotPostgresRepository{execer: execer}
}

func (r *SlotPostgresRepository) Create(ctx context.Context, slot domain.Slot) error {
	const query = `
INSERT INTO scheduler.slots (
	id,
	weekday,
	start_time,
	end_time,
	title,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, now(), now())
`

	_, err := r.execer.ExecContext(
		ctx,
		query,
		slot.ID,
		slot.Weekday,
		slot.StartTime,
		slot.EndTime,
		nullString(slot.Title),
	)
	return err
}

func (r *SlotPostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Slot, error) {
	const query = `
SELECT id, weekday, start_time, end_time, title
FROM scheduler.slots
WHERE id = $1
`

	var slot domain.Slot
	var title sql.NullString
	err := r.execer.QueryRowContext(ctx, query, id).Scan(
		&slot.ID,
		&slot.Weekday,
		&slot.StartTime,
		&slot.EndTime,
		&title,
	)
	if err != nil {
		return domain.Slot{}, err
	}
	if title.Valid {
		slot.Title = title.String
	}

	return slot, nil
}

func (r *SlotPostgresRepository) List(ctx context.Context) ([]domain.Slot, error) {
	const query = `
SELECT id, weekday, start_time, end_time, title
FROM scheduler.slots
ORDER BY weekday ASC, start_time ASC
`

	rows, err := r.execer.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		var slot domain.Slot
		var title sql.NullString
		if err := rows.Scan(
			&slot.ID,
			&slot.Weekday,
			&slot.StartTime,
			&slot.EndTime,
			&title,
		); err != nil {
			return nil, err
		}
		if title.Valid {
			slot.Title = title.String
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

func (r *SlotPostgresRepository) CountByWeekday(ctx context.Context, weekday int) (int, error) {
	const query = `
SELECT count(*)
FROM scheduler.slots
WHERE weekday = $1
`

	var count int
	if err := r.execer.QueryRowContext(ctx, query, weekday).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SlotPostgresRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	// Exceptions referencing the slot go with it via ON DELETE CASCADE.
	const query = `
DELETE FROM scheduler.slots
WHERE id = $1
`

	result, err := r.execer.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
