// Package notify records notifications and pushes them to connected clients.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fracto-health/fracto/services/api-service/internal/model"
	"github.com/fracto-health/fracto/services/api-service/internal/ws"
)

type Store interface {
	Create(ctx context.Context, n *model.Notification) error
}

type Pusher interface {
	Push(userID string, event ws.Event)
}

// Dispatcher persists a notification and then pushes it to the user's open
// websocket connections. The row is the durable record; the push is
// best effort and its absence (user offline, marshal failure) never fails
// the notify call.
type Dispatcher struct {
	store  Store
	pusher Pusher
	logger *slog.Logger
}

func NewDispatcher(store Store, pusher Pusher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, pusher: pusher, logger: logger}
}

func (d *Dispatcher) Notify(ctx context.Context, userID, message string) error {
	n := &model.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Message: message,
	}
	if err := d.store.Create(ctx, n); err != nil {
		return err
	}

	d.pusher.Push(userID, ws.Event{
		Type:    "ReceiveNotification",
		ID:      n.ID,
		Message: n.Message,
		IsRead:  n.IsRead,
	})
	d.logger.Info("notification dispatched", "user_id", userID, "notification_id", n.ID)
	return nil
}
