package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fracto-health/fracto/libs/httpx"
	"github.com/fracto-health/fracto/services/api-service/internal/model"
	"github.com/fracto-health/fracto/services/api-service/internal/outbox"
	"github.com/fracto-health/fracto/services/api-service/internal/slots"
	"github.com/fracto-health/fracto/services/api-service/internal/storage"
)

// Notifier delivers a user-facing notification. Delivery failures after a
// committed transition are logged, never propagated.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

type AppointmentHandler struct {
	appts    *storage.AppointmentRepository
	doctors  *storage.DoctorRepository
	outbox   *outbox.Repository
	calendar slots.Calendar
	notifier Notifier
	logger   *slog.Logger
}

func NewAppointmentHandler(
	appts *storage.AppointmentRepository,
	doctors *storage.DoctorRepository,
	outboxRepo *outbox.Repository,
	calendar slots.Calendar,
	notifier Notifier,
	logger *slog.Logger,
) *AppointmentHandler {
	return &AppointmentHandler{
		appts:    appts,
		doctors:  doctors,
		outbox:   outboxRepo,
		calendar: calendar,
		notifier: notifier,
		logger:   logger,
	}
}

type bookRequest struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
}

type appointmentResponse struct {
	ID             string `json:"id"`
	DoctorID       string `json:"doctorId"`
	DoctorName     string `json:"doctorName,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	UserID         string `json:"userId"`
	Username       string `json:"username,omitempty"`
	Date           string `json:"date"`
	TimeSlot       string `json:"timeSlot"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
}

func toAppointmentResponse(a model.Appointment) appointmentResponse {
	resp := appointmentResponse{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		UserID:    a.UserID,
		Date:      a.Date.Format("2006-01-02"),
		TimeSlot:  a.TimeSlot,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.Doctor != nil {
		resp.DoctorName = a.Doctor.Name
		if a.Doctor.Specialization != nil {
			resp.Specialization = a.Doctor.Specialization.Name
		}
	}
	if a.User != nil {
		resp.Username = a.User.Username
	}
	return resp
}

// Slots lists the free slot tokens for a doctor on a day: the calendar's
// candidate set minus tokens held by a Booked or Approved appointment.
func (h *AppointmentHandler) Slots(w http.ResponseWriter, r *http.Request) {
	day, err := time.ParseInLocation("2006-01-02", r.PathValue("date"), time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	doctorID := r.PathValue("doctorId")
	if !validID(doctorID) {
		http.Error(w, "doctor not found", http.StatusNotFound)
		return
	}

	if _, err := h.doctors.GetByID(r.Context(), doctorID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get doctor failed", "err", err)
		http.Error(w, "failed to load doctor", http.StatusInternalServerError)
		return
	}

	occupied, err := h.appts.OccupiedSlots(r.Context(), doctorID, day)
	if err != nil {
		h.logger.Error("load occupied slots failed", "err", err)
		http.Error(w, "failed to load slots", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, h.calendar.Available(occupied))
}

// Book inserts the appointment without checking availability first. The
// partial unique index is the arbiter: when two requests race for one slot,
// exactly one insert succeeds and the other surfaces here as a conflict.
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	claims := httpx.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.DoctorID = strings.TrimSpace(req.DoctorID)
	req.TimeSlot = strings.TrimSpace(req.TimeSlot)
	if req.DoctorID == "" || req.Date == "" || req.TimeSlot == "" {
		http.Error(w, "doctorId, date, and timeSlot required", http.StatusBadRequest)
		return
	}
	if !validID(req.DoctorID) {
		http.Error(w, "invalid doctorId", http.StatusBadRequest)
		return
	}
	day, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	if !h.calendar.Contains(req.TimeSlot) {
		http.Error(w, "invalid time slot", http.StatusBadRequest)
		return
	}

	doctor, err := h.doctors.GetByID(r.Context(), req.DoctorID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get doctor failed", "err", err)
		http.Error(w, "failed to load doctor", http.StatusInternalServerError)
		return
	}

	appt := model.Appointment{
		ID:       uuid.NewString(),
		UserID:   claims.Sub,
		DoctorID: doctor.ID,
		Date:     day,
		TimeSlot: req.TimeSlot,
		Status:   model.StatusBooked,
		Doctor:   &doctor,
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.appts.Create(ctx, tx, &appt); err != nil {
		if storage.IsUniqueViolation(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		// The doctor or the booking account can vanish between the lookup
		// and the insert; the FK violation is the authoritative signal.
		if storage.IsForeignKeyViolation(err) {
			http.Error(w, "doctor or user no longer exists", http.StatusNotFound)
			return
		}
		h.logger.Error("create appointment failed", "err", err)
		http.Error(w, "failed to book appointment", http.StatusInternalServerError)
		return
	}

	if err := h.insertEvent(ctx, tx, outbox.EventAppointmentBooked, appt); err != nil {
		http.Error(w, "failed to record booking event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	when := fmt.Sprintf("%s at %s", appt.Date.Format("2006-01-02"), appt.TimeSlot)
	h.notifyUser(ctx, appt.UserID, fmt.Sprintf("Your appointment with %s on %s is booked.", doctor.Name, when))
	if doctor.UserID != nil {
		h.notifyUser(ctx, *doctor.UserID, fmt.Sprintf("New appointment booked for %s.", when))
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *AppointmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := httpx.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	appts, err := h.appts.ListByUser(r.Context(), claims.Sub)
	if err != nil {
		h.logger.Error("list appointments failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	h.writeAppointments(w, appts)
}

func (h *AppointmentHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	appts, err := h.appts.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list appointments failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	h.writeAppointments(w, appts)
}

// Cancel is the user-facing cancellation: the owner or an admin may cancel a
// Booked appointment. Anyone else with a valid token gets 403.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := httpx.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	h.transition(w, r, model.StatusCancelled, func(appt model.Appointment) bool {
		return appt.UserID == claims.Sub || claims.Role == model.RoleAdmin
	})
}

func (h *AppointmentHandler) AdminApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.StatusApproved, nil)
}

func (h *AppointmentHandler) AdminCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.StatusCancelled, nil)
}

func (h *AppointmentHandler) AdminReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.StatusRejected, nil)
}

// transition moves an appointment to a terminal status under a row lock.
// allowed, when non-nil, is the ownership check; a nil check means the route
// is already role-gated.
func (h *AppointmentHandler) transition(w http.ResponseWriter, r *http.Request, to model.Status, allowed func(model.Appointment) bool) {
	id := r.PathValue("id")
	if !validID(id) {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.appts.GetForUpdate(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("load appointment failed", "err", err)
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	if allowed != nil && !allowed(appt) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if !model.CanTransition(appt.Status, to) {
		http.Error(w, fmt.Sprintf("appointment cannot be %s", strings.ToLower(string(to))), http.StatusConflict)
		return
	}

	if err := h.appts.SetStatus(ctx, tx, appt.ID, to); err != nil {
		h.logger.Error("status update failed", "err", err)
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}
	appt.Status = to

	if err := h.insertEvent(ctx, tx, eventTypeFor(to), appt); err != nil {
		http.Error(w, "failed to record event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	h.notifyTransition(ctx, appt)
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func eventTypeFor(status model.Status) string {
	switch status {
	case model.StatusApproved:
		return outbox.EventAppointmentApproved
	case model.StatusRejected:
		return outbox.EventAppointmentRejected
	default:
		return outbox.EventAppointmentCancelled
	}
}

func (h *AppointmentHandler) insertEvent(ctx context.Context, tx pgx.Tx, eventType string, appt model.Appointment) error {
	evt, err := outbox.AppointmentEvent(eventType, appt)
	if err != nil {
		h.logger.Error("build event failed", "err", err)
		return err
	}
	if err := h.outbox.Insert(ctx, tx, evt); err != nil {
		h.logger.Error("outbox insert failed", "err", err)
		return err
	}
	return nil
}

// notifyTransition tells the appointment owner, and the doctor's linked
// account when one exists, about a committed status change.
func (h *AppointmentHandler) notifyTransition(ctx context.Context, appt model.Appointment) {
	when := fmt.Sprintf("%s at %s", appt.Date.Format("2006-01-02"), appt.TimeSlot)
	verb := strings.ToLower(string(appt.Status))
	h.notifyUser(ctx, appt.UserID, fmt.Sprintf("Your appointment on %s was %s.", when, verb))

	doctor, err := h.doctors.GetByID(ctx, appt.DoctorID)
	if err != nil {
		h.logger.Warn("doctor lookup for notification failed", "err", err)
		return
	}
	if doctor.UserID != nil {
		h.notifyUser(ctx, *doctor.UserID, fmt.Sprintf("Appointment on %s was %s.", when, verb))
	}
}

func (h *AppointmentHandler) notifyUser(ctx context.Context, userID, message string) {
	if err := h.notifier.Notify(ctx, userID, message); err != nil {
		h.logger.Warn("notification failed", "user_id", userID, "err", err)
	}
}

func (h *AppointmentHandler) writeAppointments(w http.ResponseWriter, appts []model.Appointment) {
	resp := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		resp = append(resp, toAppointmentResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}
