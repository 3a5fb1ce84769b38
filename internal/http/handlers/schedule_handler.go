package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"service-scheduler/internal/domain"
	"service-scheduler/internal/service"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	defaultWindowDays = 7
)

var validate = validator.New()

type ScheduleHandler struct {
	service *service.SchedulerService
}

func NewScheduleHandler(svc *service.SchedulerService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

func (h *ScheduleHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /api/slots", h.handleGetOccurrences)
	mux.HandleFunc("POST /api/slots", h.handleCreateSlot)
	mux.HandleFunc("PUT /api/slots/{id}", h.handleOverrideOccurrence)
	mux.HandleFunc("DELETE /api/slots/{id}", h.handleDeleteSlot)
}

type createSlotRequest struct {
	Weekday   *int   `json:"weekday" validate:"required,min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Title     string `json:"title"`
}

type overrideOccurrenceRequest struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Title     *string `json:"title"`
}

type slotResponse struct {
	ID        string `json:"id"`
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Title     string `json:"title,omitempty"`
}

type occurrenceResponse struct {
	ID             string  `json:"id"`
	Date           string  `json:"date"`
	Weekday        int     `json:"weekday"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	Title          string  `json:"title,omitempty"`
	IsException    bool    `json:"is_exception"`
	OriginalSlotID *string `json:"original_slot_id,omitempty"`
}

func (h *ScheduleHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GET /api/slots?weekStart=YYYY-MM-DD[&days=N]
func (h *ScheduleHandler) handleGetOccurrences(w http.ResponseWriter, r *http.Request) {
	weekStart := r.URL.Query().Get("weekStart")
	if weekStart == "" {
		writeError(w, http.StatusBadRequest, "weekStart parameter is required")
		return
	}
	start, err := time.ParseInLocation(dateLayout, weekStart, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "weekStart must be in YYYY-MM-DD format")
		return
	}

	days := defaultWindowDays
	if rawDays := r.URL.Query().Get("days"); rawDays != "" {
		days, err = strconv.Atoi(rawDays)
		if err != nil || days <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
	}

	occurrences, err := h.service.GetOccurrences(r.Context(), start, days)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	response := make([]occurrenceResponse, 0, len(occurrences))
	for _, occurrence := range occurrences {
		response = append(response, occurrenceToResponse(occurrence))
	}
	writeJSON(w, http.StatusOK, response)
}

// POST /api/slots
func (h *ScheduleHandler) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	var req createSlotRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "weekday, start_time, and end_time are required; weekday must be between 0 (Sunday) and 6 (Saturday)")
		return
	}

	startTime, err := time.ParseInLocation(timeLayout, req.StartTime, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_time must be in HH:MM format")
		return
	}
	endTime, err := time.ParseInLocation(timeLayout, req.EndTime, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_time must be in HH:MM format")
		return
	}

	slot, err := h.service.CreateSlot(r.Context(), *req.Weekday, startTime, endTime, req.Title)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, slotResponse{
		ID:        slot.ID.String(),
		Weekday:   slot.Weekday,
		StartTime: slot.StartTime.Format(timeLayout),
		EndTime:   slot.EndTime.Format(timeLayout),
		Title:     slot.Title,
	})
}

// PUT /api/slots/{id}?date=YYYY-MM-DD
func (h *ScheduleHandler) handleOverrideOccurrence(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot ID")
		return
	}

	date, ok := requireDateParam(w, r)
	if !ok {
		return
	}

	var req overrideOccurrenceRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	startTime, err := parseTimeOptional(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_time must be in HH:MM format")
		return
	}
	endTime, err := parseTimeOptional(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_time must be in HH:MM format")
		return
	}

	if err := h.service.OverrideOccurrence(r.Context(), slotID, date, startTime, endTime, req.Title); err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Slot updated successfully"})
}

// DELETE /api/slots/{id}[?date=YYYY-MM-DD]
// With a date the single occurrence is cancelled; without one the recurring
// rule and all its exceptions are removed.
func (h *ScheduleHandler) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot ID")
		return
	}

	if r.URL.Query().Get("date") == "" {
		if err := h.service.DeleteSlot(r.Context(), slotID); err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Slot deleted successfully"})
		return
	}

	date, ok := requireDateParam(w, r)
	if !ok {
		return
	}
	if err := h.service.CancelOccurrence(r.Context(), slotID, date); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Slot deleted for specific date"})
}

func (h *ScheduleHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, service.ErrCapacityExceeded):
		writeError(w, http.StatusBadRequest, "maximum 2 slots allowed per weekday")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "slot not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func occurrenceToResponse(occurrence domain.Occurrence) occurrenceResponse {
	response := occurrenceResponse{
		ID:          occurrence.SlotID.String(),
		Date:        occurrence.Date.Format(dateLayout),
		Weekday:     occurrence.Weekday,
		StartTime:   occurrence.StartTime.Format(timeLayout),
		EndTime:     occurrence.EndTime.Format(timeLayout),
		Title:       occurrence.Title,
		IsException: occurrence.IsException,
	}
	if occurrence.OriginalSlotID != nil {
		original := occurrence.OriginalSlotID.String()
		response.OriginalSlotID = &original
	}
	return response
}

func requireDateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "date parameter is required")
		return time.Time{}, false
	}
	date, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return date, true
}

func parseTimeOptional(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(timeLayout, *value, time.Local)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
