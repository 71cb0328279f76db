package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ginecare/booking-platform/internal/schedule"
	"github.com/ginecare/booking-platform/internal/services"
)

// Slot is one entry of the pickable-slot list.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Availability enumerates every grid slot in the resolved window for the
// date and tags each as available or not, using exactly the same validator
// and conflict detector as Allocate. Slots whose start has already passed
// are dropped when the date is today.
func (a *Allocator) Availability(ctx context.Context, dateStr string, svc services.ServiceType) ([]Slot, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	loc := cfg.Location()
	date, err := time.ParseInLocation(schedule.DateLayout, dateStr, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrBadRequest, dateStr)
	}
	if _, err := services.ResolveDuration(svc); err != nil {
		return nil, Reject(CodeInvalidServiceType, "unknown service type %q", svc)
	}

	var existing []Appointment
	err = a.withRetry(ctx, func() error {
		var opErr error
		existing, opErr = a.store.ListActiveByDate(ctx, date)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	now := a.now().In(loc)
	today := now.Format(schedule.DateLayout) == dateStr
	nowMinutes := schedule.TimeOfDay(now.Hour()*60 + now.Minute())

	slots := make([]Slot, 0)
	for _, start := range candidateStarts(cfg.WindowFor(date)) {
		if today && start <= nowMinutes {
			continue
		}
		available := ValidateSlot(date, start, svc, cfg) == nil &&
			!Conflicts(Candidate{Start: start, Service: svc}, existing)
		slots = append(slots, Slot{Time: start.String(), Available: available})
	}
	a.metrics.ObserveAvailabilityQuery()
	return slots, nil
}

// candidateStarts lists the 20-minute grid points of the window plus the
// Special Slot, which is offered regardless of the window.
func candidateStarts(window schedule.DayWindow) []schedule.TimeOfDay {
	var starts []schedule.TimeOfDay
	sawSpecial := false
	for t := window.Start; t < window.End; t += GridMinutes {
		starts = append(starts, t)
		if t == SpecialSlot {
			sawSpecial = true
		}
	}
	if !sawSpecial {
		starts = append(starts, SpecialSlot)
		sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	}
	return starts
}
