package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"service-scheduler/internal/cache"
	"service-scheduler/internal/domain"
	"service-scheduler/internal/projection"
	"service-scheduler/internal/repository"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("weekday slot capacity exceeded")
)

type SchedulerService struct {
	txManager repository.TxManager
	cache     *cache.OccurrenceCache
}

func NewSchedulerService(txManager repository.TxManager, occurrenceCache *cache.OccurrenceCache) *SchedulerService {
	return &SchedulerService{
		txManager: txManager,
		cache:     occurrenceCache,
	}
}

// CreateSlot adds a recurring rule for a weekday. At most
// domain.MaxSlotsPerWeekday rules may exist per weekday; the check and the
// insert run in one transaction, so a failed attempt leaves the store
// untouched. startTime >= endTime is deliberately not rejected.
func (s *SchedulerService) CreateSlot(
	ctx context.Context,
	weekday int,
	startTime time.Time,
	endTime time.Time,
	title string,
) (domain.Slot, error) {
	if weekday < 0 || weekday > 6 {
		return domain.Slot{}, ErrInvalidInput
	}

	slot := domain.Slot{
		ID:        uuid.New(),
		Weekday:   weekday,
		StartTime: startTime,
		EndTime:   endTime,
		Title:     title,
	}

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		count, err := repos.Slots.CountByWeekday(ctx, weekday)
		if err != nil {
			return err
		}
		if count >= domain.MaxSlotsPerWeekday {
			return ErrCapacityExceeded
		}

		if err := repos.Slots.Create(ctx, slot); err != nil {
			return err
		}

		return repos.Outbox.Insert(ctx, domain.ScheduleEvent{
			EventType: "SlotCreated",
			Payload: domain.SlotCreatedPayload{
				SlotID:    slot.ID.String(),
				Weekday:   slot.Weekday,
				StartTime: formatTime(slot.StartTime),
				EndTime:   formatTime(slot.EndTime),
				Title:     slot.Title,
			},
		})
	})
	if err != nil {
		return domain.Slot{}, err
	}

	s.cache.Purge()
	return slot, nil
}

// DeleteSlot removes a recurring rule entirely. Exceptions referencing it are
// removed in the same transaction via the cascading foreign key.
func (s *SchedulerService) DeleteSlot(ctx context.Context, slotID uuid.UUID) error {
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		deleted, err := repos.Slots.Delete(ctx, slotID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotFound
		}

		return repos.Outbox.Insert(ctx, domain.ScheduleEvent{
			EventType: "SlotDeleted",
			Payload:   domain.SlotDeletedPayload{SlotID: slotID.String()},
		})
	})
	if err != nil {
		return err
	}

	s.cache.Purge()
	return nil
}

// OverrideOccurrence supersedes a single occurrence of a slot on one date.
// Fields left nil fall back to the prior value on the existing exception for
// that date if it has one, else to the base slot; repeated partial overrides
// therefore accumulate. A nil title inherits, an explicit empty title clears
// the override so projection falls back to the slot title.
func (s *SchedulerService) OverrideOccurrence(
	ctx context.Context,
	slotID uuid.UUID,
	date time.Time,
	startTime *time.Time,
	endTime *time.Time,
	title *string,
) error {
	localDate := truncateToDateLocal(date)

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		slot, err := repos.Slots.GetByID(ctx, slotID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		existing, err := repos.Exceptions.GetBySlotAndDate(ctx, slotID, localDate)
		hasExisting := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		exception := mergeOverride(slot, existing, hasExisting, localDate, startTime, endTime, title)
		if err := repos.Exceptions.Upsert(ctx, exception); err != nil {
			return err
		}

		var resolvedTitle string
		if exception.Title != nil {
			resolvedTitle = *exception.Title
		}
		return repos.Outbox.Insert(ctx, domain.ScheduleEvent{
			EventType: "OccurrenceOverridden",
			Payload: domain.OccurrenceOverriddenPayload{
				SlotID:    slotID.String(),
				Date:      localDate.Format("2006-01-02"),
				StartTime: formatTimePtr(exception.StartTime),
				EndTime:   formatTimePtr(exception.EndTime),
				Title:     resolvedTitle,
			},
		})
	})
	if err != nil {
		return err
	}

	s.cache.Purge()
	return nil
}

// CancelOccurrence suppresses a single occurrence of a slot on one date. Any
// override fields on an existing exception for that date are cleared. There
// is no operation to restore a cancelled occurrence.
func (s *SchedulerService) CancelOccurrence(ctx context.Context, slotID uuid.UUID, date time.Time) error {
	localDate := truncateToDateLocal(date)

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if _, err := repos.Slots.GetByID(ctx, slotID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		exception := domain.Exception{
			ID:     uuid.New(),
			SlotID: slotID,
			Date:   localDate,
			Type:   domain.ExceptionTypeDelete,
		}
		if err := repos.Exceptions.Upsert(ctx, exception); err != nil {
			return err
		}

		return repos.Outbox.Insert(ctx, domain.ScheduleEvent{
			EventType: "OccurrenceCancelled",
			Payload: domain.OccurrenceCancelledPayload{
				SlotID: slotID.String(),
				Date:   localDate.Format("2006-01-02"),
			},
		})
	})
	if err != nil {
		return err
	}

	s.cache.Purge()
	return nil
}

// GetOccurrences projects all recurring rules and their exceptions onto the
// window of `days` consecutive dates starting at windowStart.
func (s *SchedulerService) GetOccurrences(ctx context.Context, windowStart time.Time, days int) ([]domain.Occurrence, error) {
	if days <= 0 {
		return nil, ErrInvalidInput
	}

	start := truncateToDateLocal(windowStart)
	if cached, ok := s.cache.Get(start, days); ok {
		return cached, nil
	}

	window := projection.Window{Start: start, Days: days}
	var occurrences []domain.Occurrence
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		slots, err := repos.Slots.List(ctx)
		if err != nil {
			return err
		}

		exceptions, err := repos.Exceptions.ListByDateRange(ctx, window.Start, window.End())
		if err != nil {
			return err
		}

		occurrences = projection.Project(slots, exceptions, window)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Store(start, days, occurrences)
	return occurrences, nil
}

func mergeOverride(
	slot domain.Slot,
	existing domain.Exception,
	hasExisting bool,
	date time.Time,
	startTime *time.Time,
	endTime *time.Time,
	title *string,
) domain.Exception {
	exception := domain.Exception{
		ID:     uuid.New(),
		SlotID: slot.ID,
		Date:   date,
		Type:   domain.ExceptionTypeUpdate,
	}

	resolvedStart := slot.StartTime
	if hasExisting && existing.StartTime != nil {
		resolvedStart = *existing.StartTime
	}
	if startTime != nil {
		resolvedStart = *startTime
	}
	exception.StartTime = &resolvedStart

	resolvedEnd := slot.EndTime
	if hasExisting && existing.EndTime != nil {
		resolvedEnd = *existing.EndTime
	}
	if endTime != nil {
		resolvedEnd = *endTime
	}
	exception.EndTime = &resolvedEnd

	if title != nil {
		exception.Title = title
	} else if hasExisting {
		exception.Title = existing.Title
	}

	return exception
}

func truncateToDateLocal(t time.Time) time.Time {
	local := t.In(time.Local)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}

func formatTime(t time.Time) string {
	return t.Format("15:04")
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
