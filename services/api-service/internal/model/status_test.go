package model

import "testing"

func TestCanTransition(t *testing.T) {
	terminal := []Status{StatusApproved, StatusCancelled, StatusRejected}

	for _, to := range terminal {
		if !CanTransition(StatusBooked, to) {
			t.Fatalf("expected Booked -> %s to be allowed", to)
		}
	}
	if CanTransition(StatusBooked, StatusBooked) {
		t.Fatal("Booked -> Booked should not be allowed")
	}

	for _, from := range terminal {
		for _, to := range []Status{StatusBooked, StatusApproved, StatusCancelled, StatusRejected} {
			if CanTransition(from, to) {
				t.Fatalf("expected %s -> %s to be rejected (terminal state)", from, to)
			}
		}
	}
}

func TestOccupiesSlot(t *testing.T) {
	if !StatusBooked.OccupiesSlot() || !StatusApproved.OccupiesSlot() {
		t.Fatal("Booked and Approved should occupy the slot")
	}
	if StatusCancelled.OccupiesSlot() || StatusRejected.OccupiesSlot() {
		t.Fatal("Cancelled and Rejected should free the slot")
	}
}

func TestStatusValid(t *testing.T) {
	if Status("Pending").Valid() {
		t.Fatal("unknown status should not be valid")
	}
	if !StatusBooked.Valid() {
		t.Fatal("Booked should be valid")
	}
}
