// Package inmem provides a map-backed TxManager used as a storage double in
// tests. It mirrors the Postgres schema's behavior where the service depends
// on it: cascade-delete of exceptions, the (slot_id, exception_date)
// uniqueness rule, and rollback-on-error atomicity.
package inmem

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"service-scheduler/internal/domain"
	"service-scheduler/internal/repository"
)

const dateLayout = "2006-01-02"

type Store struct {
	mu         sync.Mutex
	slots      map[uuid.UUID]domain.Slot
	exceptions map[uuid.UUID]domain.Exception
	outbox     []outboxRow
}

type outboxRow struct {
	event     repository.OutboxEvent
	published bool
}

func NewStore() *Store {
	return &Store{
		slots:      make(map[uuid.UUID]domain.Slot),
		exceptions: make(map[uuid.UUID]domain.Exception),
	}
}

// WithTx serializes access and restores the pre-call state when fn fails, so
// a failed operation leaves the store unchanged, like a rolled-back
// transaction would.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshotSlots := make(map[uuid.UUID]domain.Slot, len(s.slots))
	for id, slot := range s.slots {
		snapshotSlots[id] = slot
	}
	snapshotExceptions := make(map[uuid.UUID]domain.Exception, len(s.exceptions))
	for id, exception := range s.exceptions {
		snapshotExceptions[id] = exception
	}
	snapshotOutbox := make([]outboxRow, len(s.outbox))
	copy(snapshotOutbox, s.outbox)

	repos := repository.TxRepositories{
		Slots:      &slotRepo{store: s},
		Exceptions: &exceptionRepo{store: s},
		Outbox:     &outboxRepo{store: s},
	}

	if err := fn(ctx, repos); err != nil {
		s.slots = snapshotSlots
		s.exceptions = snapshotExceptions
		s.outbox = snapshotOutbox
		return err
	}

	return nil
}

type slotRepo struct {
	store *Store
}

func (r *slotRepo) Create(ctx context.Context, slot domain.Slot) error {
	r.store.slots[slot.ID] = slot
	return nil
}

func (r *slotRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Slot, error) {
	slot, ok := r.store.slots[id]
	if !ok {
		return domain.Slot{}, sql.ErrNoRows
	}
	return slot, nil
}

func (r *slotRepo) List(ctx context.Context) ([]domain.Slot, error) {
	slots := make([]domain.Slot, 0, len(r.store.slots))
	for _, slot := range r.store.slots {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Weekday != slots[j].Weekday {
			return slots[i].Weekday < slots[j].Weekday
		}
		if !slots[i].StartTime.Equal(slots[j].StartTime) {
			return slots[i].StartTime.Before(slots[j].StartTime)
		}
		return slots[i].ID.String() < slots[j].ID.String()
	})
	return slots, nil
}

func (r *slotRepo) CountByWeekday(ctx context.Context, weekday int) (int, error) {
	count := 0
	for _, slot := range r.store.slots {
		if slot.Weekday == weekday {
			count++
		}
	}
	return count, nil
}

func (r *slotRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := r.store.slots[id]; !ok {
		return false, nil
	}
	delete(r.store.slots, id)
	for excID, exception := range r.store.exceptions {
		if exception.SlotID == id {
			delete(r.store.exceptions, excID)
		}
	}
	return true, nil
}

type exceptionRepo struct {
	store *Store
}

func (r *exceptionRepo) Upsert(ctx context.Context, exception domain.Exception) error {
	for id, existing := range r.store.exceptions {
		if existing.SlotID == exception.SlotID && sameDate(existing.Date, exception.Date) {
			exception.ID = id
			r.store.exceptions[id] = exception
			return nil
		}
	}
	r.store.exceptions[exception.ID] = exception
	return nil
}

func (r *exceptionRepo) GetBySlotAndDate(ctx context.Context, slotID uuid.UUID, date time.Time) (domain.Exception, error) {
	for _, exception := range r.store.exceptions {
		if exception.SlotID == slotID && sameDate(exception.Date, date) {
			return exception, nil
		}
	}
	return domain.Exception{}, sql.ErrNoRows
}

func (r *exceptionRepo) ListByDateRange(ctx context.Context, from time.Time, to time.Time) ([]domain.Exception, error) {
	fromKey := from.Format(dateLayout)
	toKey := to.Format(dateLayout)

	var exceptions []domain.Exception
	for _, exception := range r.store.exceptions {
		key := exception.Date.Format(dateLayout)
		if key >= fromKey && key <= toKey {
			exceptions = append(exceptions, exception)
		}
	}
	sort.Slice(exceptions, func(i, j int) bool {
		return exceptions[i].Date.Before(exceptions[j].Date)
	})
	return exceptions, nil
}

func (r *exceptionRepo) ListBySlot(ctx context.Context, slotID uuid.UUID) ([]domain.Exception, error) {
	var exceptions []domain.Exception
	for _, exception := range r.store.exceptions {
		if exception.SlotID == slotID {
			exceptions = append(exceptions, exception)
		}
	}
	sort.Slice(exceptions, func(i, j int) bool {
		return exceptions[i].Date.Before(exceptions[j].Date)
	})
	return exceptions, nil
}

type outboxRepo struct {
	store *Store
}

func (r *outboxRepo) Insert(ctx context.Context, event domain.ScheduleEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	r.store.outbox = append(r.store.outbox, outboxRow{
		event: repository.OutboxEvent{
			ID:        uuid.New(),
			EventType: event.EventType,
			Payload:   payload,
		},
	})
	return nil
}

func (r *outboxRepo) ListUnpublished(ctx context.Context, limit int) ([]repository.OutboxEvent, error) {
	var events []repository.OutboxEvent
	for _, row := range r.store.outbox {
		if row.published {
			continue
		}
		events = append(events, row.event)
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (r *outboxRepo) MarkPublished(ctx context.Context, id uuid.UUID) error {
	for i, row := range r.store.outbox {
		if row.event.ID == id {
			r.store.outbox[i].published = true
		}
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	return a.Format(dateLayout) == b.Format(dateLayout)
}
