package domain

type ScheduleEvent struct {
	EventType string
	Payload   any
}

type SlotCreatedPayload struct {
	SlotID    string
	Weekday   int
	StartTime string
	EndTime   string
	Title     string
}

type SlotDeletedPayload struct {
	SlotID string
}

type OccurrenceOverriddenPayload struct {
	SlotID    string
	Date      string
	StartTime string
	EndTime   string
	Title     string
}

type OccurrenceCancelledPayload struct {
	SlotID string
	Date   string
}
