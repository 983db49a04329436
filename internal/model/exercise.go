package model

import (
	"math"
	"time"
)

// MaxDuration is the largest duration every store can hold (a 32-bit column).
const MaxDuration = math.MaxInt32

// DisplayDateLayout renders dates the way clients expect them, e.g. "Mon Jan 01 2024".
const DisplayDateLayout = "Mon Jan 02 2006"

// Exercise is a single logged activity owned by a user.
type Exercise struct {
	ID          string
	UserID      string
	Description string
	// Duration is in whole minutes.
	Duration  int
	Date      time.Time
	CreatedAt time.Time
}

// DisplayDate returns the exercise date in DisplayDateLayout.
func (e *Exercise) DisplayDate() string {
	return e.Date.Format(DisplayDateLayout)
}

// CalendarDate strips the time of day from t, keeping the calendar date
// observed in t's own location. The result is midnight UTC.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date of the system clock.
func Today() time.Time {
	return CalendarDate(time.Now())
}
