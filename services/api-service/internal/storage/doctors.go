package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/fracto-health/fracto/libs/db"
	"github.com/fracto-health/fracto/services/api-service/internal/model"
)

type DoctorRepository struct {
	pool *db.Pool
}

// DoctorFilter narrows Search. Zero values mean "no constraint".
type DoctorFilter struct {
	City             string
	SpecializationID string
	MinRating        float64
	// FreeOn excludes doctors holding a slot-occupying appointment on the day.
	FreeOn *time.Time
}

func NewDoctorRepository(pool *db.Pool) *DoctorRepository {
	return &DoctorRepository{pool: pool}
}

func (r *DoctorRepository) Create(ctx context.Context, d model.Doctor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, specialization_id, city, user_id)
		VALUES ($1, $2, $3, $4, $5)
	`, d.ID, d.Name, d.SpecializationID, d.City, d.UserID)
	return err
}

const doctorSelect = `
	SELECT d.id, d.name, d.specialization_id, d.city, d.rating, d.user_id, d.created_at,
		s.id, s.name, s.created_at
	FROM doctors d
	JOIN specializations s ON s.id = d.specialization_id
`

func (r *DoctorRepository) GetByID(ctx context.Context, id string) (model.Doctor, error) {
	row := r.pool.QueryRow(ctx, doctorSelect+` WHERE d.id = $1`, id)
	return scanDoctor(row)
}

func (r *DoctorRepository) List(ctx context.Context) ([]model.Doctor, error) {
	return r.query(ctx, doctorSelect+` ORDER BY d.name ASC`)
}

func (r *DoctorRepository) Search(ctx context.Context, f DoctorFilter) ([]model.Doctor, error) {
	query := doctorSelect + ` WHERE 1=1`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.City != "" {
		query += ` AND d.city ILIKE ` + arg("%"+f.City+"%")
	}
	if f.SpecializationID != "" {
		query += ` AND d.specialization_id = ` + arg(f.SpecializationID)
	}
	if f.MinRating > 0 {
		query += ` AND d.rating >= ` + arg(f.MinRating)
	}
	if f.FreeOn != nil {
		query += ` AND NOT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.doctor_id = d.id
				AND a.appointment_date = ` + arg(*f.FreeOn) + `
				AND a.status IN ('Booked', 'Approved')
		)`
	}
	query += ` ORDER BY d.rating DESC, d.name ASC`

	return r.query(ctx, query, args...)
}

func (r *DoctorRepository) Update(ctx context.Context, d model.Doctor) error {
	var id string
	return r.pool.QueryRow(ctx, `
		UPDATE doctors
		SET name = $2,
			specialization_id = $3,
			city = $4,
			user_id = $5
		WHERE id = $1
		RETURNING id
	`, d.ID, d.Name, d.SpecializationID, d.City, d.UserID).Scan(&id)
}

func (r *DoctorRepository) Delete(ctx context.Context, id string) error {
	var deleted string
	return r.pool.QueryRow(ctx, `
		DELETE FROM doctors
		WHERE id = $1
		RETURNING id
	`, id).Scan(&deleted)
}

func (r *DoctorRepository) query(ctx context.Context, query string, args ...any) ([]model.Doctor, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []model.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDoctor(row rowScanner) (model.Doctor, error) {
	var d model.Doctor
	var s model.Specialization
	err := row.Scan(
		&d.ID, &d.Name, &d.SpecializationID, &d.City, &d.Rating, &d.UserID, &d.CreatedAt,
		&s.ID, &s.Name, &s.CreatedAt,
	)
	if err != nil {
		return model.Doctor{}, err
	}
	d.Specialization = &s
	return d, nil
}
