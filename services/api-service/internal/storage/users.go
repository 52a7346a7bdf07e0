package storage

import (
	"context"

	"github.com/fracto-health/fracto/libs/db"
	"github.com/fracto-health/fracto/services/api-service/internal/model"
)

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user model.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Username, user.PasswordHash, user.Role)
	return err
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.scanOne(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE username = $1
	`, username)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.scanOne(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE id = $1
	`, id)
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update rewrites username, role and password hash. Returns pgx.ErrNoRows
// via the RETURNING clause when the user is gone.
func (r *UserRepository) Update(ctx context.Context, user model.User) error {
	var id string
	return r.pool.QueryRow(ctx, `
		UPDATE users
		SET username = $2,
			password_hash = $3,
			role = $4
		WHERE id = $1
		RETURNING id
	`, user.ID, user.Username, user.PasswordHash, user.Role).Scan(&id)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	var deleted string
	return r.pool.QueryRow(ctx, `
		DELETE FROM users
		WHERE id = $1
		RETURNING id
	`, id).Scan(&deleted)
}

func (r *UserRepository) scanOne(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}
