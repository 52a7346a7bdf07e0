package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fracto-health/fracto/services/api-service/internal/model"
)

func TestAppointmentEvent(t *testing.T) {
	appt := model.Appointment{
		ID:       "a1",
		UserID:   "u1",
		DoctorID: "d1",
		Date:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		TimeSlot: "10:00",
		Status:   model.StatusBooked,
	}

	evt, err := AppointmentEvent(EventAppointmentBooked, appt)
	if err != nil {
		t.Fatalf("AppointmentEvent: %v", err)
	}
	if evt.AggregateType != "appointment" || evt.AggregateID != "a1" {
		t.Errorf("aggregate = %s/%s, want appointment/a1", evt.AggregateType, evt.AggregateID)
	}
	if evt.EventType != "appointment.booked" {
		t.Errorf("EventType = %q", evt.EventType)
	}

	var payload map[string]any
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		t.Fatalf("payload not valid json: %v", err)
	}
	if payload["timeSlot"] != "10:00" {
		t.Errorf("timeSlot = %v", payload["timeSlot"])
	}
	if payload["status"] != "Booked" {
		t.Errorf("status = %v", payload["status"])
	}
}
