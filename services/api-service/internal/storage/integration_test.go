package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fracto-health/fracto/libs/db"
	"github.com/fracto-health/fracto/services/api-service/internal/model"
)

// These tests exercise the store's SQL against a real Postgres. They run only
// when DATABASE_URL is set; every fixture uses fresh ids so runs are
// independent and nothing needs cleanup.

func testPool(t *testing.T) *db.Pool {
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
	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return pool
}

func seedUser(t *testing.T, pool *db.Pool) string {
	t.Helper()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     "u-" + uuid.NewString(),
		PasswordHash: "x",
		Role:         model.RoleUser,
	}
	if err := NewUserRepository(pool).Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func seedDoctor(t *testing.T, pool *db.Pool) string {
	t.Helper()
	ctx := context.Background()
	spec := model.Specialization{ID: uuid.NewString(), Name: "spec-" + uuid.NewString()}
	if err := NewSpecializationRepository(pool).Create(ctx, spec); err != nil {
		t.Fatalf("seed specialization: %v", err)
	}
	doctor := model.Doctor{
		ID:               uuid.NewString(),
		Name:             "Dr. Test",
		SpecializationID: spec.ID,
		City:             "Dhaka",
	}
	if err := NewDoctorRepository(pool).Create(ctx, doctor); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	return doctor.ID
}

// Two inserts for one (doctor, date, slot) cannot both commit while one holds
// the slot; cancelling the holder frees it again.
func TestBookingConflictAndRelease(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	appts := NewAppointmentRepository(pool)

	userID := seedUser(t, pool)
	doctorID := seedDoctor(t, pool)
	day := time.Date(2030, 5, 20, 0, 0, 0, 0, time.UTC)

	book := func(id string) error {
		tx, err := appts.Begin(ctx)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()
		appt := model.Appointment{
			ID:       id,
			UserID:   userID,
			DoctorID: doctorID,
			Date:     day,
			TimeSlot: "10:00",
			Status:   model.StatusBooked,
		}
		if err := appts.Create(ctx, tx, &appt); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	first := uuid.NewString()
	if err := book(first); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if err := book(uuid.NewString()); !IsUniqueViolation(err) {
		t.Fatalf("second booking err = %v, want unique violation", err)
	}

	occupied, err := appts.OccupiedSlots(ctx, doctorID, day)
	if err != nil {
		t.Fatalf("occupied slots: %v", err)
	}
	if len(occupied) != 1 || occupied[0] != "10:00" {
		t.Fatalf("occupied = %v, want [10:00]", occupied)
	}

	tx, err := appts.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := appts.SetStatus(ctx, tx, first, model.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit cancel: %v", err)
	}

	occupied, err = appts.OccupiedSlots(ctx, doctorID, day)
	if err != nil {
		t.Fatalf("occupied slots: %v", err)
	}
	if len(occupied) != 0 {
		t.Fatalf("occupied after cancel = %v, want empty", occupied)
	}
	if err := book(uuid.NewString()); err != nil {
		t.Fatalf("rebooking freed slot: %v", err)
	}
}

func TestCreateAppointmentMissingDoctorIsFKViolation(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	appts := NewAppointmentRepository(pool)

	userID := seedUser(t, pool)
	tx, err := appts.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt := model.Appointment{
		ID:       uuid.NewString(),
		UserID:   userID,
		DoctorID: uuid.NewString(),
		Date:     time.Date(2030, 5, 20, 0, 0, 0, 0, time.UTC),
		TimeSlot: "10:00",
		Status:   model.StatusBooked,
	}
	if err := appts.Create(ctx, tx, &appt); !IsForeignKeyViolation(err) {
		t.Fatalf("err = %v, want foreign key violation", err)
	}
}

// A repeat submission by the same user replaces their row, and the doctor's
// stored rating always equals the current mean.
func TestRatingUpsertRecomputesMean(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	ratings := NewRatingRepository(pool)
	doctors := NewDoctorRepository(pool)

	doctorID := seedDoctor(t, pool)
	userID := seedUser(t, pool)

	submit := func(userID string, value int) float64 {
		tx, err := ratings.Begin(ctx)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()
		rt := model.Rating{ID: uuid.NewString(), DoctorID: doctorID, UserID: userID, Value: value}
		avg, err := ratings.Submit(ctx, tx, &rt)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("commit: %v", err)
		}
		return avg
	}

	if avg := submit(userID, 5); avg != 5 {
		t.Fatalf("avg after 5 = %v, want 5", avg)
	}
	if avg := submit(userID, 3); avg != 3 {
		t.Fatalf("avg after resubmit 3 = %v, want 3", avg)
	}

	list, err := ratings.ListByDoctor(ctx, doctorID)
	if err != nil {
		t.Fatalf("list ratings: %v", err)
	}
	if len(list) != 1 || list[0].Value != 3 {
		t.Fatalf("ratings = %+v, want one row with value 3", list)
	}

	other := seedUser(t, pool)
	if avg := submit(other, 5); avg != 4 {
		t.Fatalf("avg with second rater = %v, want 4", avg)
	}

	doctor, err := doctors.GetByID(ctx, doctorID)
	if err != nil {
		t.Fatalf("get doctor: %v", err)
	}
	if doctor.Rating != 4 {
		t.Fatalf("stored rating = %v, want 4", doctor.Rating)
	}
}
