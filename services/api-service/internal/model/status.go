package model

// Status is the appointment lifecycle state. Booked is the only initial
// state; the other three are terminal.
type Status string

const (
	StatusBooked    Status = "Booked"
	StatusApproved  Status = "Approved"
	StatusCancelled Status = "Cancelled"
	StatusRejected  Status = "Rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusBooked, StatusApproved, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// CanTransition reports whether an appointment may move from one status to
// another. Only Booked appointments can change state.
func CanTransition(from, to Status) bool {
	if from != StatusBooked {
		return false
	}
	switch to {
	case StatusApproved, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// OccupiesSlot reports whether an appointment in this status blocks its
// (doctor, date, time slot) tuple. An approved appointment holds the slot
// just like a booked one; cancelled and rejected ones free it.
func (s Status) OccupiesSlot() bool {
	return s == StatusBooked || s == StatusApproved
}
