package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxSlotsPerWeekday caps how many recurring slots a single weekday may hold.
const MaxSlotsPerWeekday = 2

// Slot is a weekly recurring rule: one occurrence per matching weekday,
// indefinitely, until the slot is deleted or superseded per-date by an
// exception.
type Slot struct {
	ID        uuid.UUID
	Weekday   int // 0 = Sunday .. 6 = Saturday
	StartTime time.Time
	EndTime   time.Time
	Title     string
}
