package projection

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"service-scheduler/internal/domain"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	require.NoError(t, err)
	return parsed
}

func clock(hour, minute int) time.Time {
	return time.Date(2000, 1, 1, hour, minute, 0, 0, time.Local)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func strPtr(s string) *string {
	return &s
}

func gymSlot() domain.Slot {
	return domain.Slot{
		ID:        uuid.New(),
		Weekday:   1, // Monday
		StartTime: clock(9, 0),
		EndTime:   clock(10, 0),
		Title:     "Gym",
	}
}

func TestProjectPlainWeek(t *testing.T) {
	slot := gymSlot()
	window := Window{Start: date(t, "2025-01-06"), Days: 7} // Monday

	occurrences := Project([]domain.Slot{slot}, nil, window)

	require.Len(t, occurrences, 1)
	occ := occurrences[0]
	require.Equal(t, slot.ID, occ.SlotID)
	require.Equal(t, date(t, "2025-01-06"), occ.Date)
	require.Equal(t, 1, occ.Weekday)
	require.Equal(t, clock(9, 0), occ.StartTime)
	require.Equal(t, clock(10, 0), occ.EndTime)
	require.Equal(t, "Gym", occ.Title)
	require.False(t, occ.IsException)
	require.Nil(t, occ.OriginalSlotID)
}

func TestProjectOnePerMatchingWeekday(t *testing.T) {
	slot := gymSlot()
	window := Window{Start: date(t, "2025-01-05"), Days: 21} // Sunday, 3 full weeks

	occurrences := Project([]domain.Slot{slot}, nil, window)

	require.Len(t, occurrences, 3)
	require.Equal(t, date(t, "2025-01-06"), occurrences[0].Date)
	require.Equal(t, date(t, "2025-01-13"), occurrences[1].Date)
	require.Equal(t, date(t, "2025-01-20"), occurrences[2].Date)
}

func TestProjectUpdateException(t *testing.T) {
	slot := gymSlot()
	exc := domain.Exception{
		ID:        uuid.New(),
		SlotID:    slot.ID,
		Date:      date(t, "2025-01-06"),
		Type:      domain.ExceptionTypeUpdate,
		StartTime: timePtr(clock(11, 0)),
		EndTime:   timePtr(clock(10, 0)),
	}
	window := Window{Start: date(t, "2025-01-06"), Days: 7}

	occurrences := Project([]domain.Slot{slot}, []domain.Exception{exc}, window)

	require.Len(t, occurrences, 1)
	occ := occurrences[0]
	require.Equal(t, clock(11, 0), occ.StartTime)
	require.Equal(t, clock(10, 0), occ.EndTime)
	require.Equal(t, "Gym", occ.Title)
	require.True(t, occ.IsException)
	require.NotNil(t, occ.OriginalSlotID)
	require.Equal(t, slot.ID, *occ.OriginalSlotID)
}

func TestProjectTitleFallback(t *testing.T) {
	slot := gymSlot()
	window := Window{Start: date(t, "2025-01-06"), Days: 7}

	exc := domain.Exception{
		ID:        uuid.New(),
		SlotID:    slot.ID,
		Date:      date(t, "2025-01-06"),
		Type:      domain.ExceptionTypeUpdate,
		StartTime: timePtr(clock(9, 0)),
		EndTime:   timePtr(clock(10, 0)),
		Title:     strPtr(""),
	}
	occurrences := Project([]domain.Slot{slot}, []domain.Exception{exc}, window)
	require.Len(t, occurrences, 1)
	require.Equal(t, "Gym", occurrences[0].Title)

	exc.Title = strPtr("Yoga")
	occurrences = Project([]domain.Slot{slot}, []domain.Exception{exc}, window)
	require.Len(t, occurrences, 1)
	require.Equal(t, "Yoga", occurrences[0].Title)
}

func TestProjectDeleteExceptionSuppressesExactlyOne(t *testing.T) {
	slot := gymSlot()
	exc := domain.Exception{
		ID:     uuid.New(),
		SlotID: slot.ID,
		Date:   date(t, "2025-01-13"),
		Type:   domain.ExceptionTypeDelete,
	}
	window := Window{Start: date(t, "2025-01-06"), Days: 21}

	occurrences := Project([]domain.Slot{slot}, []domain.Exception{exc}, window)

	require.Len(t, occurrences, 2)
	require.Equal(t, date(t, "2025-01-06"), occurrences[0].Date)
	require.Equal(t, date(t, "2025-01-20"), occurrences[1].Date)
}

func TestProjectExceptionForOtherSlotIgnored(t *testing.T) {
	slot := gymSlot()
	exc := domain.Exception{
		ID:     uuid.New(),
		SlotID: uuid.New(),
		Date:   date(t, "2025-01-06"),
		Type:   domain.ExceptionTypeDelete,
	}
	window := Window{Start: date(t, "2025-01-06"), Days: 7}

	occurrences := Project([]domain.Slot{slot}, []domain.Exception{exc}, window)

	require.Len(t, occurrences, 1)
	require.False(t, occurrences[0].IsException)
}

func TestProjectOrdering(t *testing.T) {
	early := domain.Slot{ID: uuid.New(), Weekday: 1, StartTime: clock(8, 0), EndTime: clock(9, 0), Title: "Early"}
	late := domain.Slot{ID: uuid.New(), Weekday: 1, StartTime: clock(17, 0), EndTime: clock(18, 0), Title: "Late"}
	sunday := domain.Slot{ID: uuid.New(), Weekday: 0, StartTime: clock(12, 0), EndTime: clock(13, 0), Title: "Sunday"}
	window := Window{Start: date(t, "2025-01-06"), Days: 7} // Mon..Sun

	// Slot order reversed on purpose; output must sort by date then start.
	occurrences := Project([]domain.Slot{late, sunday, early}, nil, window)

	require.Len(t, occurrences, 3)
	require.Equal(t, "Early", occurrences[0].Title)
	require.Equal(t, "Late", occurrences[1].Title)
	require.Equal(t, "Sunday", occurrences[2].Title)
	require.Equal(t, date(t, "2025-01-12"), occurrences[2].Date)
}

func TestProjectDeterministic(t *testing.T) {
	a := domain.Slot{ID: uuid.New(), Weekday: 3, StartTime: clock(9, 0), EndTime: clock(10, 0), Title: "A"}
	b := domain.Slot{ID: uuid.New(), Weekday: 3, StartTime: clock(9, 0), EndTime: clock(11, 0), Title: "B"}
	exc := domain.Exception{
		ID:        uuid.New(),
		SlotID:    a.ID,
		Date:      date(t, "2025-01-08"),
		Type:      domain.ExceptionTypeUpdate,
		StartTime: timePtr(clock(9, 0)),
		EndTime:   timePtr(clock(12, 0)),
	}
	slots := []domain.Slot{a, b}
	exceptions := []domain.Exception{exc}
	window := Window{Start: date(t, "2025-01-06"), Days: 14}

	first := Project(slots, exceptions, window)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Project(slots, exceptions, window))
	}
}

func TestProjectArbitraryWindowLengths(t *testing.T) {
	slot := gymSlot()

	occurrences := Project([]domain.Slot{slot}, nil, Window{Start: date(t, "2025-01-06"), Days: 1})
	require.Len(t, occurrences, 1)

	occurrences = Project([]domain.Slot{slot}, nil, Window{Start: date(t, "2025-01-07"), Days: 1})
	require.Empty(t, occurrences)

	occurrences = Project([]domain.Slot{slot}, nil, Window{Start: date(t, "2025-01-06"), Days: 0})
	require.Empty(t, occurrences)
}

func TestWindowEnd(t *testing.T) {
	window := Window{Start: date(t, "2025-01-06"), Days: 7}
	require.Equal(t, date(t, "2025-01-12"), window.End())

	window = Window{Start: date(t, "2025-01-06"), Days: 0}
	require.Equal(t, date(t, "2025-01-06"), window.End())
}
