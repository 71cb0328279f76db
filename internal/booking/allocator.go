package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ginecare/booking-platform/internal/observability/metrics"
	"github.com/ginecare/booking-platform/internal/schedule"
	"github.com/ginecare/booking-platform/internal/services"
	"github.com/ginecare/booking-platform/pkg/logging"
)

var bookingTracer = otel.Tracer("ginecare.internal.booking")

const (
	retryAttempts = 3
	retryBackoff  = 100 * time.Millisecond
)

// Store is the appointment persistence the allocator runs against. The
// InTx methods execute the conflict check and the write atomically with
// respect to other allocations on the same date.
type Store interface {
	AllocateInTx(ctx context.Context, date time.Time, appt *Appointment, check func(existing []Appointment) error) error
	RescheduleInTx(ctx context.Context, id uuid.UUID, date time.Time, start schedule.TimeOfDay, check func(existing []Appointment) error) (*Appointment, error)
	ListActiveByDate(ctx context.Context, date time.Time) ([]Appointment, error)
	ListByDate(ctx context.Context, date time.Time) ([]Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error)
}

// EventSink records post-commit events for fire-and-forget delivery. Sink
// failures are logged and never un-book an appointment.
type EventSink interface {
	Insert(ctx context.Context, eventType string, payload any) (uuid.UUID, error)
}

// Allocator orchestrates duration resolution, slot validation and conflict
// detection against a consistent snapshot, and persists atomically.
type Allocator struct {
	store     Store
	schedules schedule.Source
	events    EventSink
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewAllocator wires the engine. events and metrics are optional.
func NewAllocator(store Store, schedules schedule.Source, logger *logging.Logger) *Allocator {
	if store == nil {
		panic("booking: store required")
	}
	if schedules == nil {
		panic("booking: schedule source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Allocator{
		store:     store,
		schedules: schedules,
		logger:    logger,
		now:       time.Now,
	}
}

// WithEvents attaches the post-commit event sink.
func (a *Allocator) WithEvents(sink EventSink) *Allocator {
	a.events = sink
	return a
}

// WithMetrics attaches booking metrics.
func (a *Allocator) WithMetrics(m *metrics.BookingMetrics) *Allocator {
	a.metrics = m
	return a
}

// WithClock overrides the wall clock; tests pin "today".
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	if now != nil {
		a.now = now
	}
	return a
}

// AllocateRequest is a patient's booking request.
type AllocateRequest struct {
	Date         string               `json:"date"`
	Time         string               `json:"time"`
	ServiceType  services.ServiceType `json:"service_type"`
	PatientName  string               `json:"patient_name"`
	PatientEmail string               `json:"patient_email"`
	PatientPhone string               `json:"patient_phone"`
	Notes        string               `json:"notes"`
}

// Allocate validates the requested slot, checks conflicts against a
// consistent snapshot and persists the appointment, all atomically per date.
func (a *Allocator) Allocate(ctx context.Context, req AllocateRequest) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.allocate")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.date", req.Date),
		attribute.String("booking.time", req.Time),
		attribute.String("booking.service", string(req.ServiceType)),
	)
	started := a.now()
	defer func() { a.metrics.ObserveAllocationLatency(a.now().Sub(started).Seconds()) }()

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, a.observe("allocate", err)
	}
	date, start, err := parseSlot(req.Date, req.Time, cfg.Location())
	if err != nil {
		return nil, err
	}
	if _, err := services.ResolveDuration(req.ServiceType); err != nil {
		return nil, a.observe("allocate", Reject(CodeInvalidServiceType, "unknown service type %q", req.ServiceType))
	}
	if err := ValidateSlot(date, start, req.ServiceType, cfg); err != nil {
		return nil, a.observe("allocate", err)
	}

	appt := &Appointment{
		ID:           uuid.New(),
		Date:         date,
		Start:        start,
		ServiceType:  req.ServiceType,
		Status:       StatusPending,
		PatientName:  req.PatientName,
		PatientEmail: req.PatientEmail,
		PatientPhone: req.PatientPhone,
		Notes:        req.Notes,
	}
	check := func(existing []Appointment) error {
		if found := FindConflicts(Candidate{Start: start, Service: req.ServiceType}, existing); len(found) > 0 {
			return Reject(CodeSlotTaken, "%s on %s is already booked", start, req.Date)
		}
		return nil
	}
	err = a.withRetry(ctx, func() error {
		return a.store.AllocateInTx(ctx, date, appt, check)
	})
	if err != nil {
		span.RecordError(err)
		return nil, a.observe("allocate", err)
	}

	a.metrics.ObserveAllocation("allocate", "allocated")
	a.logger.Info("appointment allocated",
		"appointment_id", appt.ID,
		"date", req.Date,
		"time", start.String(),
		"service", req.ServiceType,
	)
	a.record(ctx, EventAppointmentCreated, appt)
	return appt, nil
}

// Reschedule moves an existing appointment, re-running the full validation
// against all other appointments on the target date.
func (a *Allocator) Reschedule(ctx context.Context, id uuid.UUID, newDate, newTime string) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.reschedule")
	defer span.End()
	span.SetAttributes(attribute.String("booking.appointment_id", id.String()))
	started := a.now()
	defer func() { a.metrics.ObserveAllocationLatency(a.now().Sub(started).Seconds()) }()

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, a.observe("reschedule", err)
	}
	date, start, err := parseSlot(newDate, newTime, cfg.Location())
	if err != nil {
		return nil, err
	}

	current, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, a.observe("reschedule", err)
	}
	if err := ValidateSlot(date, start, current.ServiceType, cfg); err != nil {
		return nil, a.observe("reschedule", err)
	}

	check := func(existing []Appointment) error {
		cand := Candidate{Start: start, Service: current.ServiceType, ExcludeID: id}
		if found := FindConflicts(cand, existing); len(found) > 0 {
			return Reject(CodeSlotTaken, "%s on %s is already booked", start, newDate)
		}
		return nil
	}
	var moved *Appointment
	err = a.withRetry(ctx, func() error {
		var txErr error
		moved, txErr = a.store.RescheduleInTx(ctx, id, date, start, check)
		return txErr
	})
	if err != nil {
		span.RecordError(err)
		return nil, a.observe("reschedule", err)
	}

	a.metrics.ObserveAllocation("reschedule", "allocated")
	a.logger.Info("appointment rescheduled",
		"appointment_id", id,
		"date", newDate,
		"time", start.String(),
	)
	a.record(ctx, EventAppointmentRescheduled, moved)
	return moved, nil
}

// UpdateStatus applies a staff status transition.
func (a *Allocator) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrBadRequest, status)
	}
	appt, err := a.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	a.logger.Info("appointment status updated", "appointment_id", id, "status", status)
	if status.Cancelled() {
		a.record(ctx, EventAppointmentCancelled, appt)
	}
	return appt, nil
}

// ListByDate returns the admin calendar for a date, cancelled rows included.
func (a *Allocator) ListByDate(ctx context.Context, dateStr string) ([]Appointment, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	date, err := time.ParseInLocation(schedule.DateLayout, dateStr, cfg.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrBadRequest, dateStr)
	}
	return a.store.ListByDate(ctx, date)
}

func (a *Allocator) loadConfig(ctx context.Context) (*schedule.Config, error) {
	cfg, err := a.schedules.Get(ctx)
	if err != nil {
		return nil, rejectWithCause(CodeStorageUnavailable, err, "schedule config unavailable")
	}
	return cfg, nil
}

// withRetry retries transient storage errors a bounded number of times with
// a fixed backoff. Rejections are deterministic and returned immediately.
func (a *Allocator) withRetry(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if _, ok := RejectionFrom(err); ok {
			return err
		}
		lastErr = err
		a.metrics.ObserveStorageRetry()
		a.logger.Warn("transient storage error during allocation", "attempt", attempt, "error", err)
		if attempt < retryAttempts {
			select {
			case <-ctx.Done():
				return rejectWithCause(CodeStorageUnavailable, ctx.Err(), "allocation cancelled")
			case <-time.After(retryBackoff):
			}
		}
	}
	return rejectWithCause(CodeStorageUnavailable, lastErr, "storage unavailable after %d attempts", retryAttempts)
}

func (a *Allocator) observe(operation string, err error) error {
	if r, ok := RejectionFrom(err); ok {
		a.metrics.ObserveAllocation(operation, "rejected")
		a.metrics.ObserveRejection(string(r.Code))
	}
	return err
}

func (a *Allocator) record(ctx context.Context, eventType string, appt *Appointment) {
	if a.events == nil || appt == nil {
		return
	}
	if _, err := a.events.Insert(ctx, eventType, NewAppointmentEvent(appt)); err != nil {
		a.logger.Error("failed to record appointment event", "type", eventType, "error", err)
	}
}

func parseSlot(dateStr, timeStr string, loc *time.Location) (time.Time, schedule.TimeOfDay, error) {
	date, err := time.ParseInLocation(schedule.DateLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: invalid date %q", ErrBadRequest, dateStr)
	}
	start, err := schedule.ParseTimeOfDay(timeStr)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: invalid time %q", ErrBadRequest, timeStr)
	}
	return date, start, nil
}
