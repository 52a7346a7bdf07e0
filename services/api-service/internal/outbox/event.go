// Package outbox implements a transactional outbox for appointment lifecycle
// events. Rows are written in the same transaction as the state change and a
// background publisher relays them to Kafka, so downstream consumers never
// see an event for a change that rolled back.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/fracto-health/fracto/services/api-service/internal/model"
)

// Topic name equals EventType, one event kind per topic.
const (
	EventAppointmentBooked    = "appointment.booked"
	EventAppointmentApproved  = "appointment.approved"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentRejected  = "appointment.rejected"
	EventDoctorRated          = "doctor.rated"
)

type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type appointmentPayload struct {
	AppointmentID string    `json:"appointmentId"`
	UserID        string    `json:"userId"`
	DoctorID      string    `json:"doctorId"`
	Date          time.Time `json:"date"`
	TimeSlot      string    `json:"timeSlot"`
	Status        string    `json:"status"`
}

type ratingPayload struct {
	DoctorID  string  `json:"doctorId"`
	UserID    string  `json:"userId"`
	Value     int     `json:"value"`
	NewRating float64 `json:"newRating"`
}

// DoctorRatedEvent builds the outbox envelope for a rating submission,
// carrying the doctor's recomputed average.
func DoctorRatedEvent(rating model.Rating, newAverage float64) (Event, error) {
	payload, err := json.Marshal(ratingPayload{
		DoctorID:  rating.DoctorID,
		UserID:    rating.UserID,
		Value:     rating.Value,
		NewRating: newAverage,
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "doctor",
		AggregateID:   rating.DoctorID,
		EventType:     EventDoctorRated,
		Payload:       payload,
	}, nil
}

// AppointmentEvent builds the outbox envelope for an appointment change.
func AppointmentEvent(eventType string, appt model.Appointment) (Event, error) {
	payload, err := json.Marshal(appointmentPayload{
		AppointmentID: appt.ID,
		UserID:        appt.UserID,
		DoctorID:      appt.DoctorID,
		Date:          appt.Date,
		TimeSlot:      appt.TimeSlot,
		Status:        string(appt.Status),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
