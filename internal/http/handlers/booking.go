package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ginecare/booking-platform/internal/booking"
	"github.com/ginecare/booking-platform/internal/services"
	"github.com/ginecare/booking-platform/pkg/logging"
)

// Engine is the slice of the allocator the HTTP layer uses.
type Engine interface {
	Availability(ctx context.Context, date string, svc services.ServiceType) ([]booking.Slot, error)
	Allocate(ctx context.Context, req booking.AllocateRequest) (*booking.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, newDate, newTime string) (*booking.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status booking.Status) (*booking.Appointment, error)
	ListByDate(ctx context.Context, date string) ([]booking.Appointment, error)
}

// BookingHandler serves the patient-facing booking endpoints.
type BookingHandler struct {
	engine Engine
	logger *logging.Logger
}

func NewBookingHandler(engine Engine, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{engine: engine, logger: logger}
}

type availabilityResponse struct {
	Date        string               `json:"date"`
	ServiceType services.ServiceType `json:"service_type"`
	Slots       []booking.Slot       `json:"slots"`
}

// GetAvailability lists the slots for a date.
// Route: GET /api/availability?date=YYYY-MM-DD&service_type=consultation
func (h *BookingHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "bad_request", Message: "date is required"})
		return
	}
	svc := services.ServiceType(strings.TrimSpace(r.URL.Query().Get("service_type")))
	if svc == "" {
		svc = services.Consultation
	}

	slots, err := h.engine.Availability(r.Context(), date, svc)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{Date: date, ServiceType: svc, Slots: slots})
}

// CreateAppointment books a slot.
// Route: POST /api/appointments
func (h *BookingHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req booking.AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "bad_request", Message: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.PatientName) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "bad_request", Message: "patient_name is required"})
		return
	}

	appt, err := h.engine.Allocate(r.Context(), req)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}
