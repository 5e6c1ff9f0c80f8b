package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/slotbook/slotbook/internal/booking"
	"github.com/slotbook/slotbook/internal/clock"
	"github.com/slotbook/slotbook/internal/model"
	"github.com/slotbook/slotbook/internal/schedule"
	"github.com/slotbook/slotbook/internal/storage"
)

// AppointmentStore is the gateway to the appointment table: an unordered
// full scan plus point insert and delete. Handlers never assume ordering
// or transactional coupling between a scan and a following insert.
type AppointmentStore interface {
	ListAll(ctx context.Context) ([]model.Appointment, error)
	Insert(ctx context.Context, appt model.Appointment) error
	DeleteByID(ctx context.Context, id string) error
}

type AppointmentHandler struct {
	store   AppointmentStore
	clk     clock.Clock
	planner *schedule.Planner
	logger  *slog.Logger
}

func NewAppointmentHandler(store AppointmentStore, clk clock.Clock, planner *schedule.Planner, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		store:   store,
		clk:     clk,
		planner: planner,
		logger:  logger,
	}
}

func (h *AppointmentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /api/appointments", h.List)
	mux.HandleFunc("GET /api/appointments/available", h.Available)
	mux.HandleFunc("POST /api/appointments", h.Create)
	mux.HandleFunc("DELETE /api/appointments/{id}", h.Delete)
}

func (h *AppointmentHandler) Root(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Appointment Booking API is running..."))
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	appts, err := h.store.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list appointments failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}

	// The scan is unordered; the API contract is ascending by dateTime.
	// Lexicographic order of the token is chronological order.
	sort.Slice(appts, func(i, j int) bool { return appts[i].DateTime < appts[j].DateTime })

	if appts == nil {
		appts = []model.Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

func (h *AppointmentHandler) Available(w http.ResponseWriter, r *http.Request) {
	appts, err := h.store.ListAll(r.Context())
	if err != nil {
		h.logger.Error("availability scan failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load availability")
		return
	}

	days := h.planner.Plan(h.clk.Now(), bookedSet(appts))
	writeJSON(w, http.StatusOK, days)
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req booking.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	appts, err := h.store.ListAll(r.Context())
	if err != nil {
		h.logger.Error("booking scan failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to check existing bookings")
		return
	}

	appt, err := booking.Validate(req, h.clk.Now(), bookedSet(appts))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Insert(r.Context(), appt); err != nil {
		if storage.IsUniqueViolation(err) {
			writeError(w, http.StatusBadRequest, booking.ErrSlotTaken.Error())
			return
		}
		h.logger.Error("insert appointment failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}

	h.logger.Info("appointment booked", "id", appt.ID, "date_time", appt.DateTime)
	writeJSON(w, http.StatusCreated, appt)
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "appointment id required")
		return
	}

	if err := h.store.DeleteByID(r.Context(), id); err != nil {
		h.logger.Error("delete appointment failed", "err", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to cancel appointment")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment canceled"})
}

func bookedSet(appts []model.Appointment) map[string]struct{} {
	set := make(map[string]struct{}, len(appts))
	for _, a := range appts {
		set[a.DateTime] = struct{}{}
	}
	return set
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
