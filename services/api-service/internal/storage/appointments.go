package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fracto-health/fracto/libs/db"
	"github.com/fracto-health/fracto/services/api-service/internal/model"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Create inserts a new Booked appointment. There is deliberately no prior
// existence check: the partial unique index on (doctor_id, appointment_date,
// time_slot) rejects a second slot-occupying row, and callers map that unique
// violation to a booking conflict.
func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) error {
	return tx.QueryRow(ctx, `
		INSERT INTO appointments (id, user_id, doctor_id, appointment_date, time_slot, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, appt.ID, appt.UserID, appt.DoctorID, appt.Date, appt.TimeSlot, appt.Status).Scan(&appt.CreatedAt)
}

// OccupiedSlots returns the time-slot tokens held by a Booked or Approved
// appointment for the doctor on the given day.
func (r *AppointmentRepository) OccupiedSlots(ctx context.Context, doctorID string, date time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT time_slot
		FROM appointments
		WHERE doctor_id = $1
			AND appointment_date = $2
			AND status IN ('Booked', 'Approved')
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var taken []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		taken = append(taken, slot)
	}
	return taken, rows.Err()
}

// GetForUpdate loads an appointment inside tx with a row lock, so a status
// transition reads and writes the same version.
func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	var appt model.Appointment
	err := tx.QueryRow(ctx, `
		SELECT id, user_id, doctor_id, appointment_date, time_slot, status, created_at
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&appt.ID, &appt.UserID, &appt.DoctorID, &appt.Date, &appt.TimeSlot, &appt.Status, &appt.CreatedAt)
	if err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepository) SetStatus(ctx context.Context, tx pgx.Tx, id string, status model.Status) error {
	_, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
	`, id, status)
	return err
}

const appointmentSelect = `
	SELECT a.id, a.user_id, a.doctor_id, a.appointment_date, a.time_slot, a.status, a.created_at,
		d.id, d.name, d.specialization_id, d.city, d.rating, d.user_id, d.created_at,
		s.id, s.name, s.created_at,
		u.id, u.username, u.role
	FROM appointments a
	JOIN doctors d ON d.id = a.doctor_id
	JOIN specializations s ON s.id = d.specialization_id
	JOIN users u ON u.id = a.user_id
`

func (r *AppointmentRepository) ListByUser(ctx context.Context, userID string) ([]model.Appointment, error) {
	return r.query(ctx, appointmentSelect+`
		WHERE a.user_id = $1
		ORDER BY a.appointment_date DESC, a.time_slot DESC
	`, userID)
}

func (r *AppointmentRepository) ListAll(ctx context.Context) ([]model.Appointment, error) {
	return r.query(ctx, appointmentSelect+`
		ORDER BY a.appointment_date DESC, a.time_slot DESC
	`)
}

func (r *AppointmentRepository) query(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		var appt model.Appointment
		var d model.Doctor
		var s model.Specialization
		var u model.User
		err := rows.Scan(
			&appt.ID, &appt.UserID, &appt.DoctorID, &appt.Date, &appt.TimeSlot, &appt.Status, &appt.CreatedAt,
			&d.ID, &d.Name, &d.SpecializationID, &d.City, &d.Rating, &d.UserID, &d.CreatedAt,
			&s.ID, &s.Name, &s.CreatedAt,
			&u.ID, &u.Username, &u.Role,
		)
		if err != nil {
			return nil, err
		}
		d.Specialization = &s
		appt.Doctor = &d
		appt.User = &u
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}
