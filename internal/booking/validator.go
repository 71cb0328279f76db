package booking

import (
	"time"

	"github.com/ginecare/booking-platform/internal/schedule"
	"github.com/ginecare/booking-platform/internal/services"
)

const (
	// GridMinutes is the scheduling granularity.
	GridMinutes = 20
	// LegacyGridMinutes keeps the old 30-minute combined-service grid
	// bookable.
	LegacyGridMinutes = 30
	// ExtendedStepMinutes is the sub-grid for 40-minute services, counted
	// from the window start.
	ExtendedStepMinutes = 40
	// GraceMinutes lets a service finish slightly after closing time.
	GraceMinutes = 20
)

// SpecialSlot is the clinic's guaranteed squeeze-in time of day. It is
// exempt from hours, grid and extended-alignment rules and from
// interval-overlap conflicts; only an exact start-time match with another
// active appointment rejects it.
var SpecialSlot = schedule.MustTimeOfDay("11:40")

// ValidateSlot decides structural legality of a candidate appointment
// independent of other bookings. Checks run in a fixed order and the first
// failure wins, each with its own rejection code.
func ValidateSlot(date time.Time, start schedule.TimeOfDay, svc services.ServiceType, cfg *schedule.Config) error {
	duration, err := services.ResolveDuration(svc)
	if err != nil {
		return Reject(CodeInvalidServiceType, "unknown service type %q", svc)
	}

	if !cfg.IsWorkDay(date) {
		return Reject(CodeNotAWorkingDay, "%s is not a working day", date.Format(schedule.DateLayout))
	}
	if cfg.InVacation(date) {
		return Reject(CodeInVacationPeriod, "%s falls in a vacation period", date.Format(schedule.DateLayout))
	}
	if cfg.IsBlockedDay(date) {
		return Reject(CodeDateBlocked, "%s is blocked", date.Format(schedule.DateLayout))
	}

	window := cfg.WindowFor(date)
	isSpecialSlot := start == SpecialSlot

	if !isSpecialSlot {
		if start < window.Start {
			return Reject(CodeOutsideWorkingHours, "%s is before opening time %s", start, window.Start)
		}
		if services.IsSpecialCaseService(svc) {
			// Special-case services fit any open slot regardless of
			// residual time to close.
			if start >= window.End {
				return Reject(CodeOutsideWorkingHours, "%s is after closing time %s", start, window.End)
			}
		} else if start.Add(duration) > window.End+GraceMinutes {
			return Reject(CodeOutsideWorkingHours, "%s + %s runs past closing time %s", start, duration, window.End)
		}

		minute := start.Minute()
		if minute%GridMinutes != 0 && minute%LegacyGridMinutes != 0 {
			return Reject(CodeMisalignedGrid, "%s is not on the %d-minute grid", start, GridMinutes)
		}

		if duration == time.Duration(ExtendedStepMinutes)*time.Minute {
			if (int(start)-int(window.Start))%ExtendedStepMinutes != 0 {
				return Reject(CodeMisalignedExtendedServiceStart, "%s is not on the %d-minute sub-grid from %s", start, ExtendedStepMinutes, window.Start)
			}
		}
	}

	if cfg.IsBlockedSlot(date, start) {
		return Reject(CodeSlotBlocked, "%s on %s is blocked", start, date.Format(schedule.DateLayout))
	}

	return nil
}
