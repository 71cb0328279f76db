package booking

import (
	"testing"

	"github.com/google/uuid"

	"github.com/ginecare/booking-platform/internal/schedule"
	"github.com/ginecare/booking-platform/internal/services"
)

func appt(timeStr string, svc services.ServiceType, status Status) Appointment {
	return Appointment{
		ID:          uuid.New(),
		Start:       schedule.MustTimeOfDay(timeStr),
		ServiceType: svc,
		Status:      status,
	}
}

func TestConflictsExactSlot(t *testing.T) {
	existing := []Appointment{appt("09:00", services.Consultation, StatusConfirmed)}

	if !Conflicts(Candidate{Start: schedule.MustTimeOfDay("09:00"), Service: services.Consultation}, existing) {
		t.Error("same start must conflict")
	}
	if Conflicts(Candidate{Start: schedule.MustTimeOfDay("09:20"), Service: services.Consultation}, existing) {
		t.Error("next grid slot after a 20-minute booking must be free")
	}
}

func TestConflictsIntervalOverlapBothDirections(t *testing.T) {
	// Existing 40-minute booking extends into later slots that look free
	// at their own start time.
	existing := []Appointment{appt("09:00", services.Biopsy, StatusPending)}
	if !Conflicts(Candidate{Start: schedule.MustTimeOfDay("09:20"), Service: services.Consultation}, existing) {
		t.Error("slot inside an existing 40-minute interval must conflict")
	}
	if Conflicts(Candidate{Start: schedule.MustTimeOfDay("09:40"), Service: services.Consultation}, existing) {
		t.Error("slot starting exactly at the existing end must be free")
	}

	// And a long candidate crossing a later short booking.
	existing = []Appointment{appt("09:40", services.Consultation, StatusPending)}
	if !Conflicts(Candidate{Start: schedule.MustTimeOfDay("09:20"), Service: services.IUDInsertion}, existing) {
		t.Error("40-minute candidate crossing an existing booking must conflict")
	}
}

func TestConflictsIgnoresCancelled(t *testing.T) {
	existing := []Appointment{
		appt("09:00", services.Consultation, StatusCancelledByPatient),
		appt("09:20", services.Consultation, StatusCancelledByProfessional),
	}
	if Conflicts(Candidate{Start: schedule.MustTimeOfDay("09:00"), Service: services.Consultation}, existing) {
		t.Error("cancelled appointments must not block slots")
	}
}

func TestConflictsExcludesOwnID(t *testing.T) {
	own := appt("09:00", services.Consultation, StatusConfirmed)
	existing := []Appointment{own}

	cand := Candidate{Start: schedule.MustTimeOfDay("09:00"), Service: services.Consultation, ExcludeID: own.ID}
	if Conflicts(cand, existing) {
		t.Error("an appointment must not conflict with itself on reschedule")
	}
}

func TestConflictsSpecialSlotExactMatchOnly(t *testing.T) {
	// 11:20 + 40min covers 11:40 entirely, yet the special slot stays
	// offerable: only an exact 11:40 start rejects it.
	existing := []Appointment{appt("11:20", services.Biopsy, StatusConfirmed)}
	cand := Candidate{Start: SpecialSlot, Service: services.Consultation}
	if Conflicts(cand, existing) {
		t.Error("special slot must ignore interval overlap")
	}

	existing = append(existing, appt("11:40", services.Consultation, StatusPending))
	if !Conflicts(cand, existing) {
		t.Error("exact start match must reject the special slot")
	}
}

func TestConflictsSpecialSlotBlocksOnlyExactFromOtherSide(t *testing.T) {
	// An existing special-slot booking does not block a booking that
	// merely overlaps it.
	existing := []Appointment{appt("11:40", services.Consultation, StatusConfirmed)}
	if Conflicts(Candidate{Start: schedule.MustTimeOfDay("11:20"), Service: services.Biopsy}, existing) {
		t.Error("overlapping the special slot booking is allowed")
	}
	if !Conflicts(Candidate{Start: schedule.MustTimeOfDay("11:40"), Service: services.Biopsy}, existing) {
		t.Error("exact start on the special slot booking must conflict")
	}
}

func TestConflictsRegenerativeTherapyExactMatchOnly(t *testing.T) {
	existing := []Appointment{appt("09:40", services.Consultation, StatusConfirmed)}

	// The 40-minute special-case service may overlap another booking's
	// interval as long as no one starts at the same instant. Historical
	// behavior, preserved as-is.
	cand := Candidate{Start: schedule.MustTimeOfDay("09:20"), Service: services.RegenerativeTherapy}
	if Conflicts(cand, existing) {
		t.Error("special-case service should only conflict on exact start")
	}

	cand.Start = schedule.MustTimeOfDay("09:40")
	if !Conflicts(cand, existing) {
		t.Error("exact start must still conflict for the special-case service")
	}

	// Symmetric: an existing special-case booking only blocks its exact
	// start for others.
	existing = []Appointment{appt("09:00", services.RegenerativeTherapy, StatusConfirmed)}
	if Conflicts(Candidate{Start: schedule.MustTimeOfDay("09:20"), Service: services.Consultation}, existing) {
		t.Error("overlapping a special-case booking's tail is allowed")
	}
	if !Conflicts(Candidate{Start: schedule.MustTimeOfDay("09:00"), Service: services.Consultation}, existing) {
		t.Error("exact start on a special-case booking must conflict")
	}
}

func TestFindConflictsReturnsAllCollisions(t *testing.T) {
	existing := []Appointment{
		appt("09:00", services.Consultation, StatusConfirmed),
		appt("09:20", services.Consultation, StatusConfirmed),
		appt("10:00", services.Consultation, StatusConfirmed),
	}
	found := FindConflicts(Candidate{Start: schedule.MustTimeOfDay("09:00"), Service: services.Biopsy}, existing)
	if len(found) != 2 {
		t.Fatalf("expected 2 conflicts for a 09:00-09:40 candidate, got %d", len(found))
	}
}
