package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ginecare/booking-platform/internal/schedule"
	"github.com/ginecare/booking-platform/internal/services"
	"github.com/ginecare/booking-platform/pkg/logging"
)

// memStore is an in-memory Store with the same atomicity contract as the
// real repository: the conflict check and the write run under one lock.
type memStore struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]Appointment
	failTimes int
	calls     int
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[uuid.UUID]Appointment)}
}

func (s *memStore) activeOn(date time.Time) []Appointment {
	key := date.Format(schedule.DateLayout)
	var out []Appointment
	for _, a := range s.rows {
		if a.Date.Format(schedule.DateLayout) == key && a.Status.Active() {
			out = append(out, a)
		}
	}
	return out
}

func (s *memStore) AllocateInTx(ctx context.Context, date time.Time, appt *Appointment, check func(existing []Appointment) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failTimes > 0 {
		s.failTimes--
		return errors.New("connection reset")
	}
	if err := check(s.activeOn(date)); err != nil {
		return err
	}
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	s.rows[appt.ID] = *appt
	return nil
}

func (s *memStore) RescheduleInTx(ctx context.Context, id uuid.UUID, date time.Time, start schedule.TimeOfDay, check func(existing []Appointment) error) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failTimes > 0 {
		s.failTimes--
		return nil, errors.New("connection reset")
	}
	if err := check(s.activeOn(date)); err != nil {
		return nil, err
	}
	row, ok := s.rows[id]
	if !ok {
		return nil, Reject(CodeAppointmentNotFound, "appointment %s not found", id)
	}
	row.Date = date
	row.Start = start
	row.UpdatedAt = time.Now()
	s.rows[id] = row
	return &row, nil
}

func (s *memStore) ListActiveByDate(ctx context.Context, date time.Time) ([]Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTimes > 0 {
		s.failTimes--
		return nil, errors.New("connection reset")
	}
	return s.activeOn(date), nil
}

func (s *memStore) ListByDate(ctx context.Context, date time.Time) ([]Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := date.Format(schedule.DateLayout)
	var out []Appointment
	for _, a := range s.rows {
		if a.Date.Format(schedule.DateLayout) == key {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, Reject(CodeAppointmentNotFound, "appointment %s not found", id)
	}
	return &row, nil
}

func (s *memStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, Reject(CodeAppointmentNotFound, "appointment %s not found", id)
	}
	row.Status = status
	row.UpdatedAt = time.Now()
	s.rows[id] = row
	return &row, nil
}

type memSink struct {
	mu    sync.Mutex
	types []string
}

func (s *memSink) Insert(ctx context.Context, eventType string, payload any) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types = append(s.types, eventType)
	return uuid.New(), nil
}

func newTestAllocator(store *memStore) (*Allocator, *memSink) {
	sink := &memSink{}
	alloc := NewAllocator(store, schedule.StaticSource{Config: testConfig()}, logging.New("error")).
		WithEvents(sink)
	return alloc, sink
}

func allocRequest(timeStr string) AllocateRequest {
	return AllocateRequest{
		Date:         wednesday,
		Time:         timeStr,
		ServiceType:  services.Consultation,
		PatientName:  "Ana",
		PatientEmail: "ana@example.com",
	}
}

func TestAllocateSuccess(t *testing.T) {
	store := newMemStore()
	alloc, sink := newTestAllocator(store)

	appt, err := alloc.Allocate(context.Background(), allocRequest("09:20"))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if appt.Status != StatusPending {
		t.Errorf("status = %s, want pending", appt.Status)
	}
	if appt.Start.String() != "09:20" {
		t.Errorf("start = %s", appt.Start)
	}
	if len(sink.types) != 1 || sink.types[0] != EventAppointmentCreated {
		t.Errorf("events = %v", sink.types)
	}
}

func TestAllocateSlotTaken(t *testing.T) {
	store := newMemStore()
	alloc, _ := newTestAllocator(store)
	ctx := context.Background()

	if _, err := alloc.Allocate(ctx, allocRequest("09:20")); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	store.calls = 0

	_, err := alloc.Allocate(ctx, allocRequest("09:20"))
	assertCode(t, err, CodeSlotTaken)
	if store.calls != 1 {
		t.Errorf("rejections must not retry, store called %d times", store.calls)
	}
}

func TestAllocateBadInput(t *testing.T) {
	alloc, _ := newTestAllocator(newMemStore())
	ctx := context.Background()

	req := allocRequest("09:20")
	req.Date = "02/09/2026"
	if _, err := alloc.Allocate(ctx, req); !errors.Is(err, ErrBadRequest) {
		t.Errorf("bad date should be ErrBadRequest, got %v", err)
	}

	req = allocRequest("9 am")
	if _, err := alloc.Allocate(ctx, req); !errors.Is(err, ErrBadRequest) {
		t.Errorf("bad time should be ErrBadRequest, got %v", err)
	}

	req = allocRequest("09:20")
	req.ServiceType = "massage"
	assertCode(t, func() error { _, err := alloc.Allocate(ctx, req); return err }(), CodeInvalidServiceType)
}

func TestAllocateRetriesTransientErrors(t *testing.T) {
	store := newMemStore()
	store.failTimes = 2
	alloc, _ := newTestAllocator(store)

	appt, err := alloc.Allocate(context.Background(), allocRequest("09:20"))
	if err != nil {
		t.Fatalf("Allocate after transient failures: %v", err)
	}
	if appt == nil || store.calls != 3 {
		t.Errorf("expected 3 store calls, got %d", store.calls)
	}
}

func TestAllocateRetriesExhausted(t *testing.T) {
	store := newMemStore()
	store.failTimes = retryAttempts
	alloc, _ := newTestAllocator(store)

	_, err := alloc.Allocate(context.Background(), allocRequest("09:20"))
	assertCode(t, err, CodeStorageUnavailable)
	if len(store.rows) != 0 {
		t.Error("failed allocation must not persist anything")
	}
}

func TestAllocateConcurrentSameSlot(t *testing.T) {
	store := newMemStore()
	alloc, _ := newTestAllocator(store)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := alloc.Allocate(context.Background(), allocRequest("10:00"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, taken int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		if r, ok := RejectionFrom(err); ok && r.Code == CodeSlotTaken {
			taken++
		} else {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || taken != 1 {
		t.Fatalf("wins = %d, slot_taken = %d; want exactly one of each", wins, taken)
	}
	if len(store.rows) != 1 {
		t.Fatalf("store holds %d rows, want 1", len(store.rows))
	}
}

func TestRescheduleToOwnSlot(t *testing.T) {
	store := newMemStore()
	alloc, sink := newTestAllocator(store)
	ctx := context.Background()

	appt, err := alloc.Allocate(ctx, allocRequest("09:20"))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// Moving onto its own slot must not conflict with itself.
	moved, err := alloc.Reschedule(ctx, appt.ID, wednesday, "09:20")
	if err != nil {
		t.Fatalf("Reschedule onto own slot: %v", err)
	}
	if moved.Start.String() != "09:20" {
		t.Errorf("start = %s", moved.Start)
	}
	if sink.types[len(sink.types)-1] != EventAppointmentRescheduled {
		t.Errorf("events = %v", sink.types)
	}
}

func TestRescheduleConflictAndNotFound(t *testing.T) {
	store := newMemStore()
	alloc, _ := newTestAllocator(store)
	ctx := context.Background()

	first, err := alloc.Allocate(ctx, allocRequest("09:00"))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	second, err := alloc.Allocate(ctx, allocRequest("09:20"))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	_, err = alloc.Reschedule(ctx, second.ID, wednesday, "09:00")
	assertCode(t, err, CodeSlotTaken)

	// The first booking is untouched by the failed move.
	got, err := alloc.store.GetByID(ctx, first.ID)
	if err != nil || got.Start.String() != "09:00" {
		t.Fatalf("first booking changed: %v %v", got, err)
	}

	_, err = alloc.Reschedule(ctx, uuid.New(), wednesday, "10:00")
	assertCode(t, err, CodeAppointmentNotFound)
}

func TestUpdateStatus(t *testing.T) {
	store := newMemStore()
	alloc, sink := newTestAllocator(store)
	ctx := context.Background()

	appt, err := alloc.Allocate(ctx, allocRequest("09:20"))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if _, err := alloc.UpdateStatus(ctx, appt.ID, Status("done")); !errors.Is(err, ErrBadRequest) {
		t.Errorf("unknown status should be ErrBadRequest, got %v", err)
	}

	updated, err := alloc.UpdateStatus(ctx, appt.ID, StatusCancelledByPatient)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != StatusCancelledByPatient {
		t.Errorf("status = %s", updated.Status)
	}
	if sink.types[len(sink.types)-1] != EventAppointmentCancelled {
		t.Errorf("cancellation should emit an event, got %v", sink.types)
	}

	// The freed slot is bookable again.
	if _, err := alloc.Allocate(ctx, allocRequest("09:20")); err != nil {
		t.Fatalf("rebooking a cancelled slot: %v", err)
	}
}
