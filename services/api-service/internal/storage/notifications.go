package storage

import (
	"context"

	"github.com/fracto-health/fracto/libs/db"
	"github.com/fracto-health/fracto/services/api-service/internal/model"
)

type NotificationRepository struct {
	pool *db.Pool
}

func NewNotificationRepository(pool *db.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, message)
		VALUES ($1, $2, $3)
		RETURNING is_read, created_at
	`, n.ID, n.UserID, n.Message).Scan(&n.IsRead, &n.CreatedAt)
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

func (r *NotificationRepository) GetByID(ctx context.Context, id string) (model.Notification, error) {
	var n model.Notification
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, message, is_read, created_at
		FROM notifications
		WHERE id = $1
	`, id).Scan(&n.ID, &n.UserID, &n.Message, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return model.Notification{}, err
	}
	return n, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	var read bool
	return r.pool.QueryRow(ctx, `
		UPDATE notifications
		SET is_read = true
		WHERE id = $1
		RETURNING is_read
	`, id).Scan(&read)
}
