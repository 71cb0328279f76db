package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ginecare/booking-platform/internal/booking"
	"github.com/ginecare/booking-platform/internal/schedule"
	"github.com/ginecare/booking-platform/pkg/logging"
)

// ScheduleStore reads and writes the clinic's scheduling policy.
type ScheduleStore interface {
	Get(ctx context.Context) (*schedule.Config, error)
	Set(ctx context.Context, cfg *schedule.Config) error
}

// AdminHandler serves the staff calendar and schedule management endpoints.
type AdminHandler struct {
	engine    Engine
	schedules ScheduleStore
	logger    *logging.Logger
}

func NewAdminHandler(engine Engine, schedules ScheduleStore, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{engine: engine, schedules: schedules, logger: logger}
}

// ListAppointments returns the full calendar for a date, cancelled included.
// Route: GET /admin/appointments?date=YYYY-MM-DD
func (h *AdminHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "bad_request", Message: "date is required"})
		return
	}
	appts, err := h.engine.ListByDate(r.Context(), date)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	if appts == nil {
		appts = []booking.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "appointments": appts})
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Reschedule moves an appointment to a new slot.
// Route: PATCH /admin/appointments/{id}
func (h *AdminHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "bad_request", Message: "invalid JSON body"})
		return
	}
	appt, err := h.engine.Reschedule(r.Context(), id, req.Date, req.Time)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type statusRequest struct {
	Status booking.Status `json:"status"`
}

// UpdateStatus applies a lifecycle transition.
// Route: POST /admin/appointments/{id}/status
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "bad_request", Message: "invalid JSON body"})
		return
	}
	appt, err := h.engine.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// GetSchedule returns the active scheduling policy.
// Route: GET /admin/schedule
func (h *AdminHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.schedules.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load schedule config", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{ErrorCode: "storage_unavailable", Message: "schedule config unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// PutSchedule replaces the scheduling policy. Existing appointments are never
// touched; the new policy applies to subsequent requests only.
// Route: PUT /admin/schedule
func (h *AdminHandler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	var cfg schedule.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "bad_request", Message: "invalid JSON body"})
		return
	}
	if err := h.schedules.Set(r.Context(), &cfg); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{ErrorCode: "invalid_schedule", Message: err.Error()})
		return
	}
	h.logger.Info("schedule config updated")
	writeJSON(w, http.StatusOK, &cfg)
}

func (h *AdminHandler) appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "bad_request", Message: "id must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}
