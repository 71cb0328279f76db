// Package booking implements the slot allocation engine: the single place
// that decides whether a requested appointment is legal and free, and that
// keeps concurrent requests from double-booking the same time.
package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/ginecare/booking-platform/internal/schedule"
	"github.com/ginecare/booking-platform/internal/services"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending                 Status = "pending"
	StatusConfirmed               Status = "confirmed"
	StatusAttended                Status = "attended"
	StatusNoShow                  Status = "no_show"
	StatusCancelledByPatient      Status = "cancelled_by_patient"
	StatusCancelledByProfessional Status = "cancelled_by_professional"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusAttended, StatusNoShow,
		StatusCancelledByPatient, StatusCancelledByProfessional:
		return true
	}
	return false
}

// Active reports whether the appointment still occupies its slot. Cancelled
// appointments are kept for audit/statistics but excluded from conflict
// checks.
func (s Status) Active() bool {
	return s != StatusCancelledByPatient && s != StatusCancelledByProfessional
}

// Cancelled reports whether the appointment was cancelled by either side.
func (s Status) Cancelled() bool {
	return !s.Active()
}

// Appointment is one booking. Duration and end time are derived from the
// service catalog, never stored.
type Appointment struct {
	ID           uuid.UUID            `json:"id"`
	Date         time.Time            `json:"date"`
	Start        schedule.TimeOfDay   `json:"time"`
	ServiceType  services.ServiceType `json:"service_type"`
	Status       Status               `json:"status"`
	PatientName  string               `json:"patient_name"`
	PatientEmail string               `json:"patient_email,omitempty"`
	PatientPhone string               `json:"patient_phone,omitempty"`
	Notes        string               `json:"notes,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// Duration resolves the appointment's length from the service catalog.
// Rows with a retired service type fall back to the base unit so conflict
// checks stay total.
func (a *Appointment) Duration() time.Duration {
	d, err := services.ResolveDuration(a.ServiceType)
	if err != nil {
		return services.DefaultDuration
	}
	return d
}

// End is the derived end of the half-open occupied interval [Start, End).
func (a *Appointment) End() schedule.TimeOfDay {
	return a.Start.Add(a.Duration())
}

// StartsAt anchors the appointment on the clinic's timeline.
func (a *Appointment) StartsAt(loc *time.Location) time.Time {
	return a.Start.At(a.Date, loc)
}
