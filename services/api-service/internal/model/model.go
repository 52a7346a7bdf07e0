package model

import "time"

type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

type Specialization struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Doctor.Rating is derived: the mean of all rating rows for the doctor,
// recomputed by the store whenever a rating is submitted.
type Doctor struct {
	ID               string
	Name             string
	SpecializationID string
	City             string
	Rating           float64
	UserID           *string
	CreatedAt        time.Time

	Specialization *Specialization
}

type Appointment struct {
	ID        string
	UserID    string
	DoctorID  string
	Date      time.Time
	TimeSlot  string
	Status    Status
	CreatedAt time.Time

	Doctor *Doctor
	User   *User
}

type Rating struct {
	ID        string
	DoctorID  string
	UserID    string
	Value     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Notification struct {
	ID        string
	UserID    string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
