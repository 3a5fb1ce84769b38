package domain

import (
	"time"

	"github.com/google/uuid"
)

type ExceptionType string

const (
	ExceptionTypeUpdate ExceptionType = "update"
	ExceptionTypeDelete ExceptionType = "delete"
)

// Exception overrides or cancels a single occurrence of a slot on one
// calendar date. At most one exception exists per (slot, date); a later
// request for the same date overwrites it in place. For an update exception
// StartTime and EndTime are always resolved at write time and never nil;
// Title may be nil (inherit) or empty (cleared, projection falls back to the
// slot title).
type Exception struct {
	ID        uuid.UUID
	SlotID    uuid.UUID
	Date      time.Time
	Type      ExceptionType
	StartTime *time.Time
	EndTime   *time.Time
	Title     *string
}
