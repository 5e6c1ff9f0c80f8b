package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/slotbook/slotbook/internal/clock"
	"github.com/slotbook/slotbook/internal/model"
	"github.com/slotbook/slotbook/internal/schedule"
)

type fakeStore struct {
	appts []model.Appointment
	fail  bool
}

func (s *fakeStore) ListAll(_ context.Context) ([]model.Appointment, error) {
	if s.fail {
		return nil, errors.New("store unavailable")
	}
	out := make([]model.Appointment, len(s.appts))
	copy(out, s.appts)
	return out, nil
}

func (s *fakeStore) Insert(_ context.Context, appt model.Appointment) error {
	if s.fail {
		return errors.New("store unavailable")
	}
	s.appts = append(s.appts, appt)
	return nil
}

func (s *fakeStore) DeleteByID(_ context.Context, id string) error {
	if s.fail {
		return errors.New("store unavailable")
	}
	kept := s.appts[:0]
	for _, a := range s.appts {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.appts = kept
	return nil
}

// Wednesday 2024-01-03 08:00 IST, before opening.
var testNow = time.Date(2024, 1, 3, 8, 0, 0, 0, clock.Location)

func newTestMux(store AppointmentStore) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAppointmentHandler(store, clock.Fixed{Instant: testNow}, schedule.NewPlanner(schedule.DefaultConfig()), logger)
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	return rw
}

func TestList_SortedByDateTime(t *testing.T) {
	store := &fakeStore{appts: []model.Appointment{
		{ID: "b", DateTime: "2024-01-04T10:00", Name: "B", Email: "b@example.com"},
		{ID: "a", DateTime: "2024-01-03T09:30", Name: "A", Email: "a@example.com"},
		{ID: "c", DateTime: "2024-01-04T09:00", Name: "C", Email: "c@example.com"},
	}}
	rw := doJSON(t, newTestMux(store), http.MethodGet, "/api/appointments", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rw.Code)
	}

	var got []model.Appointment
	if err := json.Unmarshal(rw.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := []string{"a", "c", "b"}
	if len(got) != len(want) {
		t.Fatalf("expected %d appointments, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestList_EmptyStoreReturnsEmptyArray(t *testing.T) {
	rw := doJSON(t, newTestMux(&fakeStore{}), http.MethodGet, "/api/appointments", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rw.Code)
	}
	if body := rw.Body.String(); body != "[]" {
		t.Fatalf("body = %q, want []", body)
	}
}

func TestAvailable_MarksBookedSlot(t *testing.T) {
	store := &fakeStore{appts: []model.Appointment{
		{ID: "a", DateTime: "2024-01-03T10:00", Name: "A", Email: "a@example.com"},
	}}
	rw := doJSON(t, newTestMux(store), http.MethodGet, "/api/appointments/available", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rw.Code)
	}

	var days []model.DayAvailability
	if err := json.Unmarshal(rw.Body.Bytes(), &days); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(days) != 5 {
		t.Fatalf("expected 5 days, got %d", len(days))
	}
	if days[0].Day != "2024-01-03" {
		t.Fatalf("first day = %q, want 2024-01-03", days[0].Day)
	}
	if len(days[0].Slots) != 16 {
		t.Fatalf("expected 16 slots before opening, got %d", len(days[0].Slots))
	}
	var checked bool
	for _, s := range days[0].Slots {
		if s.Time == "10:00" {
			checked = true
			if s.Available {
				t.Fatal("booked 10:00 slot reported available")
			}
		}
	}
	if !checked {
		t.Fatal("10:00 slot missing from today")
	}
}

func TestCreate_RoundTrip(t *testing.T) {
	store := &fakeStore{}
	mux := newTestMux(store)

	rw := doJSON(t, mux, http.MethodPost, "/api/appointments", map[string]string{
		"date":  "2024-01-03",
		"time":  "10:00",
		"name":  "Asha",
		"email": "asha@example.com",
		"phone": "9876543210",
	})
	if rw.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rw.Code, rw.Body.String())
	}
	var created model.Appointment
	if err := json.Unmarshal(rw.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" || created.DateTime != "2024-01-03T10:00" {
		t.Fatalf("unexpected created appointment: %+v", created)
	}

	listRW := doJSON(t, mux, http.MethodGet, "/api/appointments", nil)
	var listed []model.Appointment
	if err := json.Unmarshal(listRW.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID || listed[0].DateTime != created.DateTime {
		t.Fatalf("created appointment missing from list: %+v", listed)
	}

	delRW := doJSON(t, mux, http.MethodDelete, "/api/appointments/"+created.ID, nil)
	if delRW.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", delRW.Code)
	}
	var delResp map[string]string
	if err := json.Unmarshal(delRW.Body.Bytes(), &delResp); err != nil {
		t.Fatalf("decode delete response: %v", err)
	}
	if delResp["message"] != "Appointment canceled" {
		t.Fatalf("delete message = %q", delResp["message"])
	}

	afterRW := doJSON(t, mux, http.MethodGet, "/api/appointments", nil)
	if body := afterRW.Body.String(); body != "[]" {
		t.Fatalf("appointment still listed after delete: %s", body)
	}
}

func TestCreate_MissingFields(t *testing.T) {
	rw := doJSON(t, newTestMux(&fakeStore{}), http.MethodPost, "/api/appointments", map[string]string{
		"date": "2024-01-03",
		"time": "10:00",
	})
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rw.Code)
	}
	assertErrorBody(t, rw)
}

func TestCreate_PastBooking(t *testing.T) {
	rw := doJSON(t, newTestMux(&fakeStore{}), http.MethodPost, "/api/appointments", map[string]string{
		"date":  "2024-01-01",
		"time":  "09:00",
		"name":  "Asha",
		"email": "asha@example.com",
	})
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rw.Code)
	}
	assertErrorBody(t, rw)
}

func TestCreate_SlotTaken(t *testing.T) {
	store := &fakeStore{appts: []model.Appointment{
		{ID: "a", DateTime: "2024-01-03T10:00", Name: "A", Email: "a@example.com"},
	}}
	rw := doJSON(t, newTestMux(store), http.MethodPost, "/api/appointments", map[string]string{
		"date":  "2024-01-03",
		"time":  "10:00",
		"name":  "Asha",
		"email": "asha@example.com",
	})
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rw.Code)
	}
	assertErrorBody(t, rw)
	if len(store.appts) != 1 {
		t.Fatalf("rejected booking must not be stored, have %d records", len(store.appts))
	}
}

func TestCreate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewReader([]byte("{not json")))
	rw := httptest.NewRecorder()
	newTestMux(&fakeStore{}).ServeHTTP(rw, req)
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rw.Code)
	}
}

func TestDelete_UnknownIDStillSucceeds(t *testing.T) {
	rw := doJSON(t, newTestMux(&fakeStore{}), http.MethodDelete, "/api/appointments/no-such-id", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rw.Code)
	}
}

func TestStoreFailureReturns500(t *testing.T) {
	mux := newTestMux(&fakeStore{fail: true})
	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/appointments"},
		{http.MethodGet, "/api/appointments/available"},
		{http.MethodDelete, "/api/appointments/some-id"},
	} {
		rw := doJSON(t, mux, tc.method, tc.path, nil)
		if rw.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s: status = %d, want 500", tc.method, tc.path, rw.Code)
		}
		assertErrorBody(t, rw)
	}
}

func assertErrorBody(t *testing.T, rw *httptest.ResponseRecorder) {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%s)", err, rw.Body.String())
	}
	if body["error"] == "" {
		t.Fatalf("expected error field, got %s", rw.Body.String())
	}
}
