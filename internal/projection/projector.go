package projection

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"service-scheduler/internal/domain"
)

const dateLayout = "2006-01-02"

// Window is an inclusive range of consecutive calendar days starting at
// Start. Start is expected to be truncated to midnight.
type Window struct {
	Start time.Time
	Days  int
}

func (w Window) End() time.Time {
	if w.Days <= 0 {
		return w.Start
	}
	return w.Start.AddDate(0, 0, w.Days-1)
}

type exceptionKey struct {
	slotID uuid.UUID
	date   string
}

// Project materializes the concrete occurrences for a window from the
// recurring slot set and the per-date exceptions overlapping the window.
// Pure and reentrant: it never touches storage and never mutates its inputs.
//
// For each date in the window and each slot matching that date's weekday:
// no exception emits the slot verbatim, an update exception emits the
// exception's resolved times (title falls back to the slot title when the
// exception's is empty), a delete exception suppresses the occurrence.
// Output is ordered by date, then start time within a date; the sort is
// stable, so repeated projections of the same input agree.
func Project(slots []domain.Slot, exceptions []domain.Exception, window Window) []domain.Occurrence {
	byKey := make(map[exceptionKey]domain.Exception, len(exceptions))
	for _, exc := range exceptions {
		byKey[exceptionKey{slotID: exc.SlotID, date: exc.Date.Format(dateLayout)}] = exc
	}

	occurrences := make([]domain.Occurrence, 0, window.Days*len(slots))
	for i := 0; i < window.Days; i++ {
		date := window.Start.AddDate(0, 0, i)
		weekday := int(date.Weekday())

		for _, slot := range slots {
			if slot.Weekday != weekday {
				continue
			}

			exc, hasException := byKey[exceptionKey{slotID: slot.ID, date: date.Format(dateLayout)}]
			if !hasException {
				occurrences = append(occurrences, domain.Occurrence{
					SlotID:    slot.ID,
					Date:      date,
					Weekday:   weekday,
					StartTime: slot.StartTime,
					EndTime:   slot.EndTime,
					Title:     slot.Title,
				})
				continue
			}

			if exc.Type == domain.ExceptionTypeDelete {
				continue
			}

			occurrences = append(occurrences, applyException(slot, exc, date, weekday))
		}
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		if !occurrences[i].Date.Equal(occurrences[j].Date) {
			return occurrences[i].Date.Before(occurrences[j].Date)
		}
		return occurrences[i].StartTime.Before(occurrences[j].StartTime)
	})

	return occurrences
}

func applyException(slot domain.Slot, exc domain.Exception, date time.Time, weekday int) domain.Occurrence {
	originalID := slot.ID
	occurrence := domain.Occurrence{
		SlotID:         slot.ID,
		Date:           date,
		Weekday:        weekday,
		StartTime:      slot.StartTime,
		EndTime:        slot.EndTime,
		Title:          slot.Title,
		IsException:    true,
		OriginalSlotID: &originalID,
	}

	// Update exceptions carry fully resolved times; the nil checks only
	// guard against rows written before the merge rule existed.
	if exc.StartTime != nil {
		occurrence.StartTime = *exc.StartTime
	}
	if exc.EndTime != nil {
		occurrence.EndTime = *exc.EndTime
	}
	if exc.Title != nil && *exc.Title != "" {
		occurrence.Title = *exc.Title
	}

	return occurrence
}
