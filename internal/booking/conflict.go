package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/ginecare/booking-platform/internal/schedule"
	"github.com/ginecare/booking-platform/internal/services"
)

// Candidate is a requested slot checked against a date's existing
// appointments. ExcludeID removes the appointment's own row on reschedule so
// it does not conflict with itself.
type Candidate struct {
	Start     schedule.TimeOfDay
	Service   services.ServiceType
	ExcludeID uuid.UUID
}

func (c Candidate) duration() time.Duration {
	d, err := services.ResolveDuration(c.Service)
	if err != nil {
		return services.DefaultDuration
	}
	return d
}

// exactMatchOnly reports whether this side of a pair degrades conflict
// detection from interval overlap to exact start-time equality: the Special
// Slot, and regenerative therapy. The latter mirrors the clinic's historical
// behavior and may place visually overlapping bookings; it is intentionally
// preserved, not tightened.
func exactMatchOnly(start schedule.TimeOfDay, svc services.ServiceType) bool {
	return start == SpecialSlot || services.IsSpecialCaseService(svc)
}

// FindConflicts returns the active appointments the candidate collides with.
// Two appointments conflict iff their half-open [start, end) intervals
// overlap, checked in both directions; a pair containing the Special Slot or
// a special-case service conflicts only on an exact start-time match.
func FindConflicts(cand Candidate, existing []Appointment) []Appointment {
	candEnd := cand.Start.Add(cand.duration())
	var conflicts []Appointment
	for _, appt := range existing {
		if !appt.Status.Active() {
			continue
		}
		if cand.ExcludeID != uuid.Nil && appt.ID == cand.ExcludeID {
			continue
		}
		if exactMatchOnly(cand.Start, cand.Service) || exactMatchOnly(appt.Start, appt.ServiceType) {
			if appt.Start == cand.Start {
				conflicts = append(conflicts, appt)
			}
			continue
		}
		if cand.Start < appt.End() && appt.Start < candEnd {
			conflicts = append(conflicts, appt)
		}
	}
	return conflicts
}

// Conflicts reports whether the candidate collides with any active
// appointment on the date.
func Conflicts(cand Candidate, existing []Appointment) bool {
	return len(FindConflicts(cand, existing)) > 0
}
