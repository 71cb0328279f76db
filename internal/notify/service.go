package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ginecare/booking-platform/internal/booking"
	"github.com/ginecare/booking-platform/internal/events"
	"github.com/ginecare/booking-platform/pkg/logging"
)

// Service turns appointment events into patient emails. It runs behind the
// outbox deliverer, so a send failure is retried on the next drain and never
// affects the booking itself.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates the reminder service.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// Handle implements events.DeliveryHandler.
func (s *Service) Handle(ctx context.Context, entry events.OutboxEntry) error {
	if s.email == nil {
		s.logger.Debug("notify: email sender not configured, skipping", "type", entry.Type)
		return nil
	}

	var evt booking.AppointmentEvent
	if err := json.Unmarshal(entry.Payload, &evt); err != nil {
		// A payload we cannot parse will never parse; log and drop.
		s.logger.Error("notify: bad appointment event payload", "error", err, "event_id", entry.ID)
		return nil
	}
	if evt.PatientEmail == "" {
		s.logger.Debug("notify: appointment has no patient email, skipping", "appointment_id", evt.AppointmentID)
		return nil
	}

	msg, ok := composeEmail(entry.Type, evt)
	if !ok {
		return nil
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send reminder: %w", err)
	}
	return nil
}

func composeEmail(eventType string, evt booking.AppointmentEvent) (EmailMessage, bool) {
	msg := EmailMessage{
		To:     evt.PatientEmail,
		ToName: evt.PatientName,
	}
	switch eventType {
	case booking.EventAppointmentCreated:
		msg.Subject = fmt.Sprintf("Appointment confirmed for %s at %s", evt.Date, evt.Time)
		msg.Body = fmt.Sprintf(
			"Hello %s,\n\nYour appointment (%s) is booked for %s at %s.\n\nIf you cannot attend, please cancel or reschedule in advance.",
			evt.PatientName, evt.ServiceType, evt.Date, evt.Time)
	case booking.EventAppointmentRescheduled:
		msg.Subject = fmt.Sprintf("Appointment moved to %s at %s", evt.Date, evt.Time)
		msg.Body = fmt.Sprintf(
			"Hello %s,\n\nYour appointment (%s) was moved to %s at %s.",
			evt.PatientName, evt.ServiceType, evt.Date, evt.Time)
	case booking.EventAppointmentCancelled:
		msg.Subject = fmt.Sprintf("Appointment on %s cancelled", evt.Date)
		msg.Body = fmt.Sprintf(
			"Hello %s,\n\nYour appointment (%s) on %s at %s was cancelled.",
			evt.PatientName, evt.ServiceType, evt.Date, evt.Time)
	default:
		return EmailMessage{}, false
	}
	return msg, true
}
