package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fracto-health/fracto/libs/db"
	"github.com/fracto-health/fracto/services/api-service/internal/model"
)

type RatingRepository struct {
	pool *db.Pool
}

func NewRatingRepository(pool *db.Pool) *RatingRepository {
	return &RatingRepository{pool: pool}
}

func (r *RatingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Submit upserts the caller's rating for a doctor and recomputes the doctor's
// stored average, both inside the caller's transaction. A repeat submission
// by the same user replaces their previous value rather than adding a second
// row. Returns the new average.
func (r *RatingRepository) Submit(ctx context.Context, tx pgx.Tx, rating *model.Rating) (float64, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO ratings (id, doctor_id, user_id, rating)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (doctor_id, user_id)
		DO UPDATE SET rating = EXCLUDED.rating, updated_at = now()
	`, rating.ID, rating.DoctorID, rating.UserID, rating.Value)
	if err != nil {
		return 0, err
	}

	var avg float64
	err = tx.QueryRow(ctx, `
		UPDATE doctors
		SET rating = COALESCE((SELECT AVG(rating) FROM ratings WHERE doctor_id = $1), 0)
		WHERE id = $1
		RETURNING rating
	`, rating.DoctorID).Scan(&avg)
	if err != nil {
		return 0, err
	}
	return avg, nil
}

func (r *RatingRepository) ListByDoctor(ctx context.Context, doctorID string) ([]model.Rating, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, user_id, rating, created_at, updated_at
		FROM ratings
		WHERE doctor_id = $1
		ORDER BY updated_at DESC
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []model.Rating
	for rows.Next() {
		var rt model.Rating
		if err := rows.Scan(&rt.ID, &rt.DoctorID, &rt.UserID, &rt.Value, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, err
		}
		ratings = append(ratings, rt)
	}
	return ratings, rows.Err()
}
