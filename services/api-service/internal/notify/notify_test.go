package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fracto-health/fracto/services/api-service/internal/model"
	"github.com/fracto-health/fracto/services/api-service/internal/ws"
)

type fakeStore struct {
	created []model.Notification
	err     error
}

func (f *fakeStore) Create(_ context.Context, n *model.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, *n)
	return nil
}

type fakePusher struct {
	pushed []ws.Event
}

func (f *fakePusher) Push(_ string, ev ws.Event) {
	f.pushed = append(f.pushed, ev)
}

func TestNotifyPersistsAndPushes(t *testing.T) {
	store := &fakeStore{}
	pusher := &fakePusher{}
	d := NewDispatcher(store, pusher, slog.New(slog.DiscardHandler))

	if err := d.Notify(context.Background(), "u1", "Your appointment was approved"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("created %d rows, want 1", len(store.created))
	}
	if store.created[0].UserID != "u1" {
		t.Errorf("UserID = %q, want u1", store.created[0].UserID)
	}
	if len(pusher.pushed) != 1 {
		t.Fatalf("pushed %d events, want 1", len(pusher.pushed))
	}
	ev := pusher.pushed[0]
	if ev.Type != "ReceiveNotification" {
		t.Errorf("Type = %q, want ReceiveNotification", ev.Type)
	}
	if ev.ID != store.created[0].ID {
		t.Errorf("event id %q does not match stored row %q", ev.ID, store.created[0].ID)
	}
}

func TestNotifyStoreErrorSkipsPush(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	pusher := &fakePusher{}
	d := NewDispatcher(store, pusher, slog.New(slog.DiscardHandler))

	if err := d.Notify(context.Background(), "u1", "msg"); err == nil {
		t.Fatal("want error when store fails")
	}
	if len(pusher.pushed) != 0 {
		t.Errorf("pushed %d events, want 0", len(pusher.pushed))
	}
}
