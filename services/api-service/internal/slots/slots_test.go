package slots

import "testing"

func TestAll(t *testing.T) {
	cal := NewCalendar(9, 17)
	tokens := cal.All()
	if len(tokens) != 9 {
		t.Fatalf("expected 9 tokens, got %d", len(tokens))
	}
	if tokens[0] != "09:00" {
		t.Fatalf("expected first token 09:00, got %s", tokens[0])
	}
	if tokens[len(tokens)-1] != "17:00" {
		t.Fatalf("expected last token 17:00, got %s", tokens[len(tokens)-1])
	}
}

func TestAvailable(t *testing.T) {
	cal := NewCalendar(9, 17)
	available := cal.Available([]string{"09:00", "13:00"})
	if len(available) != 7 {
		t.Fatalf("expected 7 available tokens, got %d", len(available))
	}
	for _, token := range available {
		if token == "09:00" || token == "13:00" {
			t.Fatalf("occupied token %s should not be available", token)
		}
	}
}

func TestAvailableAllTaken(t *testing.T) {
	cal := NewCalendar(9, 10)
	available := cal.Available([]string{"09:00", "10:00"})
	if len(available) != 0 {
		t.Fatalf("expected no available tokens, got %v", available)
	}
}

func TestContains(t *testing.T) {
	cal := NewCalendar(9, 17)
	if !cal.Contains("12:00") {
		t.Fatal("12:00 should be in the calendar")
	}
	for _, token := range []string{"08:00", "18:00", "12:30", "noon", ""} {
		if cal.Contains(token) {
			t.Fatalf("token %q should not be in the calendar", token)
		}
	}
}

func TestNewCalendarBadBounds(t *testing.T) {
	cal := NewCalendar(20, 8)
	tokens := cal.All()
	if tokens[0] != "09:00" || tokens[len(tokens)-1] != "17:00" {
		t.Fatalf("expected fallback to business hours, got %v", tokens)
	}
}
