package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/fracto-health/fracto/libs/db"
	"github.com/fracto-health/fracto/services/api-service/internal/model"
	"github.com/fracto-health/fracto/services/api-service/internal/outbox"
	"github.com/fracto-health/fracto/services/api-service/internal/slots"
	"github.com/fracto-health/fracto/services/api-service/internal/storage"
)

type stubNotifier struct{}

func (stubNotifier) Notify(context.Context, string, string) error { return nil }

func integrationPool(t *testing.T) *db.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := storage.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return pool
}

func integrationUser(t *testing.T, pool *db.Pool) string {
	t.Helper()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     "u-" + uuid.NewString(),
		PasswordHash: "x",
		Role:         model.RoleUser,
	}
	if err := storage.NewUserRepository(pool).Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func integrationDoctor(t *testing.T, pool *db.Pool) string {
	t.Helper()
	ctx := context.Background()
	spec := model.Specialization{ID: uuid.NewString(), Name: "spec-" + uuid.NewString()}
	if err := storage.NewSpecializationRepository(pool).Create(ctx, spec); err != nil {
		t.Fatalf("seed specialization: %v", err)
	}
	doctor := model.Doctor{
		ID:               uuid.NewString(),
		Name:             "Dr. Test",
		SpecializationID: spec.ID,
		City:             "Dhaka",
	}
	if err := storage.NewDoctorRepository(pool).Create(ctx, doctor); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	return doctor.ID
}

// Drives Book and Cancel through the real repositories: the first booking
// succeeds, a second for the same slot conflicts, a booking by a deleted
// account maps the FK violation to 404, and cancelling frees the slot.
func TestBookingLifecycle(t *testing.T) {
	const secret = "test-secret"
	pool := integrationPool(t)

	appts := storage.NewAppointmentRepository(pool)
	doctors := storage.NewDoctorRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	h := NewAppointmentHandler(appts, doctors, outboxRepo, slots.NewCalendar(9, 17), stubNotifier{}, testLogger())

	userID := integrationUser(t, pool)
	doctorID := integrationDoctor(t, pool)
	body := `{"doctorId":"` + doctorID + `","date":"2030-06-15","timeSlot":"11:00"}`

	book := func(sub string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/appointment/book", strings.NewReader(body))
		return authedAs(t, h.Book, secret, sub, model.RoleUser, req)
	}

	rec := book(userID)
	if rec.Code != http.StatusOK {
		t.Fatalf("book status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var booked appointmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &booked); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if booked.Status != string(model.StatusBooked) || booked.DoctorName != "Dr. Test" {
		t.Fatalf("response = %+v", booked)
	}

	otherID := integrationUser(t, pool)
	if rec := book(otherID); rec.Code != http.StatusConflict {
		t.Fatalf("double booking status = %d, want 409", rec.Code)
	}

	// A subject with no user row fails the FK on insert, after the doctor
	// check has already passed.
	if rec := book(uuid.NewString()); rec.Code != http.StatusNotFound {
		t.Fatalf("booking by missing user status = %d, want 404", rec.Code)
	}

	cancelReq := httptest.NewRequest(http.MethodPut, "/appointment/cancel/"+booked.ID, nil)
	cancelReq.SetPathValue("id", booked.ID)
	if rec := authedAs(t, h.Cancel, secret, userID, model.RoleUser, cancelReq); rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, want 200: %s", rec.Code, rec.Body)
	}

	if rec := book(otherID); rec.Code != http.StatusOK {
		t.Fatalf("rebooking freed slot status = %d, want 200: %s", rec.Code, rec.Body)
	}
}
