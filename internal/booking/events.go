package booking

import "github.com/ginecare/booking-platform/internal/schedule"

// Event types recorded after a successful commit. Downstream consumers
// (email reminders, calendar export) tolerate being skipped or failing.
const (
	EventAppointmentCreated     = "appointment.created.v1"
	EventAppointmentRescheduled = "appointment.rescheduled.v1"
	EventAppointmentCancelled   = "appointment.cancelled.v1"
)

// AppointmentEvent is the outbox payload shared by all appointment events.
type AppointmentEvent struct {
	AppointmentID string `json:"appointment_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	ServiceType   string `json:"service_type"`
	Status        string `json:"status"`
	PatientName   string `json:"patient_name"`
	PatientEmail  string `json:"patient_email,omitempty"`
}

// NewAppointmentEvent snapshots an appointment for the outbox.
func NewAppointmentEvent(appt *Appointment) AppointmentEvent {
	return AppointmentEvent{
		AppointmentID: appt.ID.String(),
		Date:          appt.Date.Format(schedule.DateLayout),
		Time:          appt.Start.String(),
		ServiceType:   string(appt.ServiceType),
		Status:        string(appt.Status),
		PatientName:   appt.PatientName,
		PatientEmail:  appt.PatientEmail,
	}
}
