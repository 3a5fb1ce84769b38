package domain

import (
	"time"

	"github.com/google/uuid"
)

// Occurrence is a concrete, dated instance produced by projecting slots and
// exceptions onto a window. It is never persisted.
type Occurrence struct {
	SlotID         uuid.UUID
	Date           time.Time
	Weekday        int
	StartTime      time.Time
	EndTime        time.Time
	Title          string
	IsException    bool
	OriginalSlotID *uuid.UUID
}
