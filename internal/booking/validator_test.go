package booking

import (
	"testing"
	"time"

	"github.com/ginecare/booking-platform/internal/schedule"
	"github.com/ginecare/booking-platform/internal/services"
)

// Wednesday-only clinic, 09:00-12:00, matching the smallest real setup.
func testConfig() *schedule.Config {
	return &schedule.Config{
		WorkDays:  []string{"Miércoles"},
		StartTime: schedule.MustTimeOfDay("09:00"),
		EndTime:   schedule.MustTimeOfDay("12:00"),
		Timezone:  "Europe/Madrid",
	}
}

func testDate(t *testing.T, iso string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	date, err := time.ParseInLocation(schedule.DateLayout, iso, loc)
	if err != nil {
		t.Fatalf("parse date %s: %v", iso, err)
	}
	return date
}

const (
	wednesday = "2026-09-02"
	tuesday   = "2026-09-01"
)

func assertCode(t *testing.T, err error, want Code) {
	t.Helper()
	r, ok := RejectionFrom(err)
	if !ok {
		t.Fatalf("expected rejection %s, got %v", want, err)
	}
	if r.Code != want {
		t.Fatalf("rejection code = %s, want %s", r.Code, want)
	}
}

func TestValidateSlotWorkingDay(t *testing.T) {
	cfg := testConfig()

	if err := ValidateSlot(testDate(t, wednesday), schedule.MustTimeOfDay("09:00"), services.Consultation, cfg); err != nil {
		t.Fatalf("wednesday 09:00 should be valid: %v", err)
	}
	assertCode(t,
		ValidateSlot(testDate(t, tuesday), schedule.MustTimeOfDay("09:00"), services.Consultation, cfg),
		CodeNotAWorkingDay)
}

func TestValidateSlotOccasionalWorkDay(t *testing.T) {
	cfg := testConfig()
	cfg.OccasionalWorkDays = []string{"2026-09-04"} // a Friday
	cfg.OccasionalWorkDayTimes = map[string]schedule.DayWindow{
		"2026-09-04": {Start: schedule.MustTimeOfDay("16:00"), End: schedule.MustTimeOfDay("19:00")},
	}

	if err := ValidateSlot(testDate(t, "2026-09-04"), schedule.MustTimeOfDay("16:20"), services.Consultation, cfg); err != nil {
		t.Fatalf("occasional work day with override hours should be valid: %v", err)
	}
	assertCode(t,
		ValidateSlot(testDate(t, "2026-09-04"), schedule.MustTimeOfDay("09:00"), services.Consultation, cfg),
		CodeOutsideWorkingHours)
}

func TestValidateSlotVacationAndBlocks(t *testing.T) {
	cfg := testConfig()
	cfg.VacationPeriods = []schedule.DateRange{{Start: "2026-09-01", End: "2026-09-05"}}
	assertCode(t,
		ValidateSlot(testDate(t, wednesday), schedule.MustTimeOfDay("09:00"), services.Consultation, cfg),
		CodeInVacationPeriod)

	cfg = testConfig()
	cfg.BlockedDays = []string{wednesday}
	assertCode(t,
		ValidateSlot(testDate(t, wednesday), schedule.MustTimeOfDay("09:00"), services.Consultation, cfg),
		CodeDateBlocked)

	cfg = testConfig()
	cfg.BlockedTimeSlots = map[string][]schedule.TimeOfDay{
		wednesday: {schedule.MustTimeOfDay("09:20")},
	}
	assertCode(t,
		ValidateSlot(testDate(t, wednesday), schedule.MustTimeOfDay("09:20"), services.Consultation, cfg),
		CodeSlotBlocked)
}

func TestValidateSlotHours(t *testing.T) {
	cfg := testConfig()
	date := testDate(t, wednesday)

	assertCode(t,
		ValidateSlot(date, schedule.MustTimeOfDay("08:40"), services.Consultation, cfg),
		CodeOutsideWorkingHours)

	// 12:00 + 20min finishes inside the 20-minute grace past closing.
	if err := ValidateSlot(date, schedule.MustTimeOfDay("12:00"), services.Consultation, cfg); err != nil {
		t.Fatalf("slot finishing inside the grace window should be valid: %v", err)
	}
	assertCode(t,
		ValidateSlot(date, schedule.MustTimeOfDay("12:20"), services.Consultation, cfg),
		CodeOutsideWorkingHours)

	// A 40-minute service cannot start at closing time even with grace.
	assertCode(t,
		ValidateSlot(date, schedule.MustTimeOfDay("12:00"), services.Biopsy, cfg),
		CodeOutsideWorkingHours)
}

func TestValidateSlotGrid(t *testing.T) {
	cfg := testConfig()
	date := testDate(t, wednesday)

	assertCode(t,
		ValidateSlot(date, schedule.MustTimeOfDay("09:10"), services.Consultation, cfg),
		CodeMisalignedGrid)

	// Legacy 30-minute grid stays bookable for the combined service.
	if err := ValidateSlot(date, schedule.MustTimeOfDay("09:30"), services.ConsultationPap, cfg); err != nil {
		t.Fatalf("30-minute grid should be accepted: %v", err)
	}
	if err := ValidateSlot(date, schedule.MustTimeOfDay("09:30"), services.Consultation, cfg); err != nil {
		t.Fatalf("30-minute grid should be accepted for any service: %v", err)
	}
}

func TestValidateSlotExtendedServiceAlignment(t *testing.T) {
	cfg := testConfig()
	date := testDate(t, wednesday)

	assertCode(t,
		ValidateSlot(date, schedule.MustTimeOfDay("09:20"), services.Biopsy, cfg),
		CodeMisalignedExtendedServiceStart)
	if err := ValidateSlot(date, schedule.MustTimeOfDay("09:40"), services.Biopsy, cfg); err != nil {
		t.Fatalf("09:40 is on the 40-minute sub-grid from 09:00: %v", err)
	}
	if err := ValidateSlot(date, schedule.MustTimeOfDay("10:20"), services.IUDInsertion, cfg); err != nil {
		t.Fatalf("10:20 is on the 40-minute sub-grid from 09:00: %v", err)
	}
}

func TestValidateSlotSpecialSlotWaivers(t *testing.T) {
	cfg := testConfig()
	date := testDate(t, wednesday)

	// 11:40 waives grid, extended alignment and hours for every service.
	for _, svc := range services.All() {
		if err := ValidateSlot(date, SpecialSlot, svc, cfg); err != nil {
			t.Errorf("special slot should be valid for %s: %v", svc, err)
		}
	}

	// Even when the resolved window is elsewhere entirely.
	cfg.OccasionalWorkDays = []string{"2026-09-04"}
	cfg.OccasionalWorkDayTimes = map[string]schedule.DayWindow{
		"2026-09-04": {Start: schedule.MustTimeOfDay("16:00"), End: schedule.MustTimeOfDay("19:00")},
	}
	if err := ValidateSlot(testDate(t, "2026-09-04"), SpecialSlot, services.Consultation, cfg); err != nil {
		t.Fatalf("special slot should be valid outside the window: %v", err)
	}

	// But not on a closed day, and not when explicitly blocked.
	assertCode(t,
		ValidateSlot(testDate(t, tuesday), SpecialSlot, services.Consultation, cfg),
		CodeNotAWorkingDay)
	cfg.BlockedTimeSlots = map[string][]schedule.TimeOfDay{wednesday: {SpecialSlot}}
	assertCode(t,
		ValidateSlot(date, SpecialSlot, services.Consultation, cfg),
		CodeSlotBlocked)
}

func TestValidateSlotSpecialCaseServiceIgnoresResidualTime(t *testing.T) {
	cfg := testConfig()
	cfg.OccasionalWorkDays = []string{"2026-09-04"}
	cfg.OccasionalWorkDayTimes = map[string]schedule.DayWindow{
		"2026-09-04": {Start: schedule.MustTimeOfDay("09:20"), End: schedule.MustTimeOfDay("10:10")},
	}
	date := testDate(t, "2026-09-04")

	// 10:00 + 40min runs past 10:10+grace, rejected for a normal extended
	// service but fine for the special-case one, which only needs an open
	// slot before closing.
	assertCode(t,
		ValidateSlot(date, schedule.MustTimeOfDay("10:00"), services.Biopsy, cfg),
		CodeOutsideWorkingHours)
	if err := ValidateSlot(date, schedule.MustTimeOfDay("10:00"), services.RegenerativeTherapy, cfg); err != nil {
		t.Fatalf("special-case service should fit any open slot: %v", err)
	}
}

func TestValidateSlotUnknownService(t *testing.T) {
	assertCode(t,
		ValidateSlot(testDate(t, wednesday), schedule.MustTimeOfDay("09:00"), "massage", testConfig()),
		CodeInvalidServiceType)
}
