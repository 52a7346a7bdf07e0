package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fracto-health/fracto/libs/httpx"
	"github.com/fracto-health/fracto/services/api-service/internal/model"
	"github.com/fracto-health/fracto/services/api-service/internal/storage"
)

type NotificationHandler struct {
	notifs *storage.NotificationRepository
	logger *slog.Logger
}

func NewNotificationHandler(notifs *storage.NotificationRepository, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifs: notifs, logger: logger}
}

type notificationResponse struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	IsRead    bool   `json:"isRead"`
	CreatedAt string `json:"createdAt"`
}

func toNotificationResponse(n model.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *NotificationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := httpx.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	notifs, err := h.notifs.ListByUser(r.Context(), claims.Sub)
	if err != nil {
		h.logger.Error("list notifications failed", "err", err)
		http.Error(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}
	resp := make([]notificationResponse, 0, len(notifs))
	for _, n := range notifs {
		resp = append(resp, toNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, resp)
}

// MarkRead flips is_read for a notification the caller owns. Someone else's
// notification is 403, a missing one 404.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims := httpx.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id := r.PathValue("id")
	if !validID(id) {
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	}
	notif, err := h.notifs.GetByID(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get notification failed", "err", err)
		http.Error(w, "failed to load notification", http.StatusInternalServerError)
		return
	}
	if notif.UserID != claims.Sub {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.notifs.MarkRead(r.Context(), notif.ID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		h.logger.Error("mark read failed", "err", err)
		http.Error(w, "failed to update notification", http.StatusInternalServerError)
		return
	}
	notif.IsRead = true
	writeJSON(w, http.StatusOK, toNotificationResponse(notif))
}
