// Package schedule holds the clinic's working-hours policy: the weekly
// pattern, per-date overrides, vacations and admin-set exclusions.
package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

// ISO date format used for all per-date keys and ranges.
const DateLayout = "2006-01-02"

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// It marshals as "HH:MM".
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" in 24-hour format.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("schedule: parse time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// MustTimeOfDay is ParseTimeOfDay for literals in tests and defaults.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Minute returns the minute-of-hour component.
func (t TimeOfDay) Minute() int {
	return int(t) % 60
}

// Add shifts the time by a duration, truncated to whole minutes.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Minute)
}

// At anchors the wall-clock time on a calendar date in the given location.
func (t TimeOfDay) At(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(t)/60, int(t)%60, 0, 0, loc)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DayWindow is the open interval of a working day.
type DayWindow struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// DateRange is an inclusive [start, end] range of ISO dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether the ISO date falls inside the range.
func (r DateRange) Contains(date string) bool {
	return r.Start <= date && date <= r.End
}

// Config is the clinic's singleton scheduling policy. Times are wall-clock
// in the clinic timezone, never UTC or client-local.
type Config struct {
	WorkDays               []string               `json:"work_days"`
	StartTime              TimeOfDay              `json:"start_time"`
	EndTime                TimeOfDay              `json:"end_time"`
	OccasionalWorkDays     []string               `json:"occasional_work_days,omitempty"`
	OccasionalWorkDayTimes map[string]DayWindow   `json:"occasional_work_day_times,omitempty"`
	VacationPeriods        []DateRange            `json:"vacation_periods,omitempty"`
	BlockedDays            []string               `json:"blocked_days,omitempty"`
	BlockedTimeSlots       map[string][]TimeOfDay `json:"blocked_time_slots,omitempty"`
	Timezone               string                 `json:"timezone"`
}

// DefaultConfig is the policy used before the admin has saved one:
// Wednesdays 09:00-12:00, clinic timezone Europe/Madrid.
func DefaultConfig() *Config {
	return &Config{
		WorkDays:  []string{"wednesday"},
		StartTime: MustTimeOfDay("09:00"),
		EndTime:   MustTimeOfDay("12:00"),
		Timezone:  "Europe/Madrid",
	}
}

// Validate checks structural invariants before the config is saved.
func (c *Config) Validate() error {
	if c.StartTime >= c.EndTime {
		return fmt.Errorf("schedule: start time %s must be before end time %s", c.StartTime, c.EndTime)
	}
	for date, window := range c.OccasionalWorkDayTimes {
		if window.Start >= window.End {
			return fmt.Errorf("schedule: override for %s: start %s must be before end %s", date, window.Start, window.End)
		}
	}
	for _, period := range c.VacationPeriods {
		if period.Start > period.End {
			return fmt.Errorf("schedule: vacation period %s..%s is inverted", period.Start, period.End)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("schedule: invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the clinic timezone, falling back to UTC if the saved
// value no longer loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsWorkDay reports whether the date is open for booking from either the
// weekly pattern or an occasional-date override. Vacations and blocked days
// are separate checks with their own rejection reasons.
func (c *Config) IsWorkDay(date time.Time) bool {
	key := date.Format(DateLayout)
	for _, d := range c.OccasionalWorkDays {
		if d == key {
			return true
		}
	}
	weekday := NormalizeWeekday(date.Weekday().String())
	for _, d := range c.WorkDays {
		if NormalizeWeekday(d) == weekday {
			return true
		}
	}
	return false
}

// InVacation reports whether the date falls inside any vacation period.
func (c *Config) InVacation(date time.Time) bool {
	key := date.Format(DateLayout)
	for _, period := range c.VacationPeriods {
		if period.Contains(key) {
			return true
		}
	}
	return false
}

// IsBlockedDay reports whether the whole date was excluded by the admin.
func (c *Config) IsBlockedDay(date time.Time) bool {
	key := date.Format(DateLayout)
	for _, d := range c.BlockedDays {
		if d == key {
			return true
		}
	}
	return false
}

// IsBlockedSlot reports whether the specific time of day was excluded for
// the date.
func (c *Config) IsBlockedSlot(date time.Time, t TimeOfDay) bool {
	for _, blocked := range c.BlockedTimeSlots[date.Format(DateLayout)] {
		if blocked == t {
			return true
		}
	}
	return false
}

// WindowFor resolves the effective working window for a date: the per-date
// override when present, else the default daily window.
func (c *Config) WindowFor(date time.Time) DayWindow {
	if window, ok := c.OccasionalWorkDayTimes[date.Format(DateLayout)]; ok {
		return window
	}
	return DayWindow{Start: c.StartTime, End: c.EndTime}
}
