package storage

import (
	"context"

	"github.com/fracto-health/fracto/libs/db"
	"github.com/fracto-health/fracto/services/api-service/internal/model"
)

type SpecializationRepository struct {
	pool *db.Pool
}

func NewSpecializationRepository(pool *db.Pool) *SpecializationRepository {
	return &SpecializationRepository{pool: pool}
}

// Create inserts a specialization. Case-insensitive name uniqueness is
// enforced by the store's unique index on lower(name).
func (r *SpecializationRepository) Create(ctx context.Context, s model.Specialization) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO specializations (id, name)
		VALUES ($1, $2)
	`, s.ID, s.Name)
	return err
}

func (r *SpecializationRepository) GetByID(ctx context.Context, id string) (model.Specialization, error) {
	var s model.Specialization
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at
		FROM specializations
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err != nil {
		return model.Specialization{}, err
	}
	return s, nil
}

func (r *SpecializationRepository) List(ctx context.Context) ([]model.Specialization, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, created_at
		FROM specializations
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var specs []model.Specialization
	for rows.Next() {
		var s model.Specialization
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, rows.Err()
}

func (r *SpecializationRepository) Update(ctx context.Context, s model.Specialization) error {
	var id string
	return r.pool.QueryRow(ctx, `
		UPDATE specializations
		SET name = $2
		WHERE id = $1
		RETURNING id
	`, s.ID, s.Name).Scan(&id)
}

func (r *SpecializationRepository) Delete(ctx context.Context, id string) error {
	var deleted string
	return r.pool.QueryRow(ctx, `
		DELETE FROM specializations
		WHERE id = $1
		RETURNING id
	`, id).Scan(&deleted)
}
