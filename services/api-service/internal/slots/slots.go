// Package slots computes the bookable time-slot tokens for a doctor's day.
// The candidate set is a fixed hourly calendar ("09:00" ... "17:00" by
// default); a slot is available when no appointment occupies it.
package slots

import "fmt"

type Calendar struct {
	startHour int
	endHour   int
}

// NewCalendar builds a calendar emitting one slot token per hour in
// [startHour, endHour]. Out-of-range bounds fall back to business hours.
func NewCalendar(startHour, endHour int) Calendar {
	if startHour < 0 || startHour > 23 || endHour < startHour || endHour > 23 {
		startHour, endHour = 9, 17
	}
	return Calendar{startHour: startHour, endHour: endHour}
}

// All returns every slot token in the calendar, in order.
func (c Calendar) All() []string {
	tokens := make([]string, 0, c.endHour-c.startHour+1)
	for h := c.startHour; h <= c.endHour; h++ {
		tokens = append(tokens, fmt.Sprintf("%02d:00", h))
	}
	return tokens
}

// Contains reports whether token is a slot this calendar can book.
func (c Calendar) Contains(token string) bool {
	for _, t := range c.All() {
		if t == token {
			return true
		}
	}
	return false
}

// Available returns the calendar's tokens minus the occupied ones.
func (c Calendar) Available(occupied []string) []string {
	taken := make(map[string]struct{}, len(occupied))
	for _, t := range occupied {
		taken[t] = struct{}{}
	}

	available := make([]string, 0, c.endHour-c.startHour+1)
	for _, t := range c.All() {
		if _, ok := taken[t]; !ok {
			available = append(available, t)
		}
	}
	return available
}
