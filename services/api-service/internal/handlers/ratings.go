package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fracto-health/fracto/libs/httpx"
	"github.com/fracto-health/fracto/services/api-service/internal/model"
	"github.com/fracto-health/fracto/services/api-service/internal/outbox"
	"github.com/fracto-health/fracto/services/api-service/internal/storage"
)

type RatingHandler struct {
	ratings *storage.RatingRepository
	doctors *storage.DoctorRepository
	outbox  *outbox.Repository
	logger  *slog.Logger
}

func NewRatingHandler(ratings *storage.RatingRepository, doctors *storage.DoctorRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{ratings: ratings, doctors: doctors, outbox: outboxRepo, logger: logger}
}

type ratingRequest struct {
	DoctorID    string `json:"doctorId"`
	RatingValue int    `json:"ratingValue"`
}

type ratingResponse struct {
	DoctorID  string  `json:"doctorId"`
	NewRating float64 `json:"newRating"`
}

// Submit upserts the caller's rating and returns the doctor's recomputed
// average. The upsert and the recompute run in one transaction, so two
// concurrent submissions cannot leave the stored mean stale.
func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := httpx.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.DoctorID = strings.TrimSpace(req.DoctorID)
	if req.DoctorID == "" {
		http.Error(w, "doctorId required", http.StatusBadRequest)
		return
	}
	if !validID(req.DoctorID) {
		http.Error(w, "invalid doctorId", http.StatusBadRequest)
		return
	}
	if req.RatingValue < 1 || req.RatingValue > 5 {
		http.Error(w, "ratingValue must be between 1 and 5", http.StatusBadRequest)
		return
	}

	if _, err := h.doctors.GetByID(r.Context(), req.DoctorID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get doctor failed", "err", err)
		http.Error(w, "failed to load doctor", http.StatusInternalServerError)
		return
	}

	rating := model.Rating{
		ID:       uuid.NewString(),
		DoctorID: req.DoctorID,
		UserID:   claims.Sub,
		Value:    req.RatingValue,
	}

	ctx := r.Context()
	tx, err := h.ratings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	avg, err := h.ratings.Submit(ctx, tx, &rating)
	if err != nil {
		// The doctor row can vanish between the existence check and the
		// upsert; the FK violation is the authoritative signal.
		if storage.IsForeignKeyViolation(err) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("submit rating failed", "err", err)
		http.Error(w, "failed to submit rating", http.StatusInternalServerError)
		return
	}

	evt, err := outbox.DoctorRatedEvent(rating, avg)
	if err != nil {
		http.Error(w, "failed to build event", http.StatusInternalServerError)
		return
	}
	if err := h.outbox.Insert(ctx, tx, evt); err != nil {
		h.logger.Error("outbox insert failed", "err", err)
		http.Error(w, "failed to record event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ratingResponse{DoctorID: rating.DoctorID, NewRating: avg})
}
