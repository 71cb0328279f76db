package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ginecare/booking-platform/internal/schedule"
	"github.com/ginecare/booking-platform/internal/services"
)

// db is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository persists appointments in postgres. Same-date allocations are
// serialized with a per-date advisory lock inside the transaction; a partial
// unique index on the start instant backs up exact-start races across
// instances.
type Repository struct {
	db  db
	loc *time.Location
}

// NewRepository creates a repository backed by a pgx pool. Appointments are
// read back in the clinic timezone.
func NewRepository(pool *pgxpool.Pool, loc *time.Location) *Repository {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return newRepositoryWithDB(pool, loc)
}

func newRepositoryWithDB(database db, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.UTC
	}
	return &Repository{db: database, loc: loc}
}

const appointmentColumns = `id, service_type, starts_at, status, patient_name, patient_email, patient_phone, notes, created_at, updated_at`

// AllocateInTx fetches the date's active appointments, runs the conflict
// check and inserts the new row, atomically with respect to concurrent
// allocations for the same date.
func (r *Repository) AllocateInTx(ctx context.Context, date time.Time, appt *Appointment, check func(existing []Appointment) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("booking: begin allocate: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	dateKey := date.Format(schedule.DateLayout)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, dateKey); err != nil {
		return fmt.Errorf("booking: lock date %s: %w", dateKey, err)
	}

	existing, err := r.listActive(ctx, tx, dateKey)
	if err != nil {
		return err
	}
	if err := check(existing); err != nil {
		return err
	}

	startsAt := appt.Start.At(appt.Date, r.loc)
	query := `
		INSERT INTO appointments (id, appointment_date, starts_at, service_type, status, patient_name, patient_email, patient_phone, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		appt.ID, dateKey, startsAt, string(appt.ServiceType), string(appt.Status),
		appt.PatientName, appt.PatientEmail, appt.PatientPhone, appt.Notes,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Reject(CodeSlotTaken, "%s on %s is already booked", appt.Start, dateKey)
		}
		return fmt.Errorf("booking: insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("booking: commit allocate: %w", err)
	}
	return nil
}

// RescheduleInTx moves an appointment to a new slot under the same per-date
// serialization as AllocateInTx.
func (r *Repository) RescheduleInTx(ctx context.Context, id uuid.UUID, date time.Time, start schedule.TimeOfDay, check func(existing []Appointment) error) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking: begin reschedule: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	dateKey := date.Format(schedule.DateLayout)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, dateKey); err != nil {
		return nil, fmt.Errorf("booking: lock date %s: %w", dateKey, err)
	}

	existing, err := r.listActive(ctx, tx, dateKey)
	if err != nil {
		return nil, err
	}
	if err := check(existing); err != nil {
		return nil, err
	}

	startsAt := start.At(date, r.loc)
	query := `
		UPDATE appointments
		SET appointment_date = $2, starts_at = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + appointmentColumns
	row := tx.QueryRow(ctx, query, id, dateKey, startsAt)
	appt, err := r.scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Reject(CodeAppointmentNotFound, "appointment %s not found", id)
		}
		if isUniqueViolation(err) {
			return nil, Reject(CodeSlotTaken, "%s on %s is already booked", start, dateKey)
		}
		return nil, fmt.Errorf("booking: reschedule appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("booking: commit reschedule: %w", err)
	}
	return appt, nil
}

// ListActiveByDate returns the non-cancelled appointments for a date in
// start order.
func (r *Repository) ListActiveByDate(ctx context.Context, date time.Time) ([]Appointment, error) {
	return r.listActive(ctx, r.db, date.Format(schedule.DateLayout))
}

// ListByDate returns every appointment for a date, cancelled included.
func (r *Repository) ListByDate(ctx context.Context, date time.Time) ([]Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE appointment_date = $1
		ORDER BY starts_at
	`
	return r.queryAppointments(ctx, r.db, query, date.Format(schedule.DateLayout))
}

// GetByID loads one appointment.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1
	`
	appt, err := r.scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Reject(CodeAppointmentNotFound, "appointment %s not found", id)
		}
		return nil, fmt.Errorf("booking: load appointment: %w", err)
	}
	return appt, nil
}

// UpdateStatus applies a status transition and returns the updated row.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + appointmentColumns
	appt, err := r.scanAppointment(r.db.QueryRow(ctx, query, id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Reject(CodeAppointmentNotFound, "appointment %s not found", id)
		}
		return nil, fmt.Errorf("booking: update status: %w", err)
	}
	return appt, nil
}

func (r *Repository) listActive(ctx context.Context, q rowQuerier, dateKey string) ([]Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE appointment_date = $1
		  AND status NOT IN ('cancelled_by_patient', 'cancelled_by_professional')
		ORDER BY starts_at
	`
	return r.queryAppointments(ctx, q, query, dateKey)
}

func (r *Repository) queryAppointments(ctx context.Context, q rowQuerier, query string, args ...any) ([]Appointment, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("booking: query appointments: %w", err)
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		appt, err := r.scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("booking: scan appointment: %w", err)
		}
		appts = append(appts, *appt)
	}
	return appts, rows.Err()
}

func (r *Repository) scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		appt        Appointment
		serviceType string
		status      string
		startsAt    time.Time
	)
	err := row.Scan(&appt.ID, &serviceType, &startsAt, &status,
		&appt.PatientName, &appt.PatientEmail, &appt.PatientPhone, &appt.Notes,
		&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	local := startsAt.In(r.loc)
	appt.Date = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	appt.Start = schedule.TimeOfDay(local.Hour()*60 + local.Minute())
	appt.ServiceType = services.ServiceType(serviceType)
	appt.Status = Status(status)
	return &appt, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
