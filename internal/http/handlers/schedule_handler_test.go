package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"service-scheduler/internal/repository/inmem"
	"service-scheduler/internal/service"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	svc := service.NewSchedulerService(inmem.NewStore(), nil)
	mux := http.NewServeMux()
	NewScheduleHandler(svc).Register(mux)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func createSlot(t *testing.T, mux *http.ServeMux, body string) map[string]any {
	t.Helper()
	rec := doRequest(t, mux, http.MethodPost, "/api/slots", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var slot map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slot))
	return slot
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestMux(t), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateSlot(t *testing.T) {
	mux := newTestMux(t)

	slot := createSlot(t, mux, `{"weekday":1,"start_time":"09:00","end_time":"10:00","title":"Gym"}`)
	require.NotEmpty(t, slot["id"])
	require.Equal(t, float64(1), slot["weekday"])
	require.Equal(t, "09:00", slot["start_time"])
	require.Equal(t, "10:00", slot["end_time"])
	require.Equal(t, "Gym", slot["title"])
}

func TestCreateSlotValidation(t *testing.T) {
	mux := newTestMux(t)

	cases := []string{
		`{"start_time":"09:00","end_time":"10:00"}`,            // weekday missing
		`{"weekday":9,"start_time":"09:00","end_time":"10:00"}`, // weekday out of range
		`{"weekday":1,"end_time":"10:00"}`,                      // start_time missing
		`{"weekday":1,"start_time":"9am","end_time":"10:00"}`,   // bad time format
		`not json`,
	}
	for _, body := range cases {
		rec := doRequest(t, mux, http.MethodPost, "/api/slots", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestCreateSlotCapacity(t *testing.T) {
	mux := newTestMux(t)

	createSlot(t, mux, `{"weekday":1,"start_time":"09:00","end_time":"10:00"}`)
	createSlot(t, mux, `{"weekday":1,"start_time":"17:00","end_time":"18:00"}`)

	rec := doRequest(t, mux, http.MethodPost, "/api/slots", `{"weekday":1,"start_time":"20:00","end_time":"21:00"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "maximum 2 slots allowed per weekday")
}

func TestGetOccurrences(t *testing.T) {
	mux := newTestMux(t)
	createSlot(t, mux, `{"weekday":1,"start_time":"09:00","end_time":"10:00","title":"Gym"}`)

	rec := doRequest(t, mux, http.MethodGet, "/api/slots?weekStart=2025-01-06", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var occurrences []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &occurrences))
	require.Len(t, occurrences, 1)
	require.Equal(t, "2025-01-06", occurrences[0]["date"])
	require.Equal(t, "09:00", occurrences[0]["start_time"])
	require.Equal(t, false, occurrences[0]["is_exception"])
}

func TestGetOccurrencesValidation(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/slots", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/api/slots?weekStart=06-01-2025", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/api/slots?weekStart=2025-01-06&days=0", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOccurrencesCustomWindow(t *testing.T) {
	mux := newTestMux(t)
	createSlot(t, mux, `{"weekday":1,"start_time":"09:00","end_time":"10:00"}`)

	rec := doRequest(t, mux, http.MethodGet, "/api/slots?weekStart=2025-01-06&days=14", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var occurrences []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &occurrences))
	require.Len(t, occurrences, 2)
}

func TestOverrideOccurrence(t *testing.T) {
	mux := newTestMux(t)
	slot := createSlot(t, mux, `{"weekday":1,"start_time":"09:00","end_time":"10:00","title":"Gym"}`)
	id := slot["id"].(string)

	rec := doRequest(t, mux, http.MethodPut, "/api/slots/"+id+"?date=2025-01-06", `{"start_time":"11:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/api/slots?weekStart=2025-01-06", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var occurrences []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &occurrences))
	require.Len(t, occurrences, 1)
	require.Equal(t, "11:00", occurrences[0]["start_time"])
	require.Equal(t, "10:00", occurrences[0]["end_time"])
	require.Equal(t, "Gym", occurrences[0]["title"])
	require.Equal(t, true, occurrences[0]["is_exception"])
	require.Equal(t, id, occurrences[0]["original_slot_id"])
}

func TestOverrideOccurrenceValidation(t *testing.T) {
	mux := newTestMux(t)
	slot := createSlot(t, mux, `{"weekday":1,"start_time":"09:00","end_time":"10:00"}`)
	id := slot["id"].(string)

	rec := doRequest(t, mux, http.MethodPut, "/api/slots/not-a-uuid?date=2025-01-06", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, mux, http.MethodPut, "/api/slots/"+id, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, mux, http.MethodPut, "/api/slots/"+id+"?date=2025/01/06", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, mux, http.MethodPut, "/api/slots/"+id+"?date=2025-01-06", `{"start_time":"eleven"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOverrideUnknownSlot(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(t, mux, http.MethodPut, "/api/slots/6a39011e-cd73-4556-8a34-1e8ac36525b9?date=2025-01-06", `{"start_time":"11:00"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelOccurrence(t *testing.T) {
	mux := newTestMux(t)
	slot := createSlot(t, mux, `{"weekday":1,"start_time":"09:00","end_time":"10:00"}`)
	id := slot["id"].(string)

	rec := doRequest(t, mux, http.MethodDelete, "/api/slots/"+id+"?date=2025-01-06", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Slot deleted for specific date")

	rec = doRequest(t, mux, http.MethodGet, "/api/slots?weekStart=2025-01-06", "")
	var occurrences []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &occurrences))
	require.Empty(t, occurrences)

	// The rule itself survives for other weeks.
	rec = doRequest(t, mux, http.MethodGet, "/api/slots?weekStart=2025-01-13", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &occurrences))
	require.Len(t, occurrences, 1)
}

func TestDeleteSlot(t *testing.T) {
	mux := newTestMux(t)
	slot := createSlot(t, mux, `{"weekday":1,"start_time":"09:00","end_time":"10:00"}`)
	id := slot["id"].(string)

	rec := doRequest(t, mux, http.MethodDelete, "/api/slots/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, mux, http.MethodDelete, "/api/slots/"+id, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/api/slots?weekStart=2025-01-06", "")
	var occurrences []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &occurrences))
	require.Empty(t, occurrences)
}
