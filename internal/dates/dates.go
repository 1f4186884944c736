package dates

import (
	"math"
	"time"

	"github.com/jinzhu/now"
)

// Layout is the calendar date format used on the wire and in exports.
const Layout = "2006-01-02"

// Clock returns the current instant. Handlers and services take one so tests can pin "today".
type Clock func() time.Time

// SystemClock returns a Clock reading the wall clock in loc.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return func() time.Time { return time.Now().In(loc) }
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	return now.With(t).BeginningOfDay()
}

// DaysBetween returns the number of calendar days from a to b.
// The result is negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(Day(b).Sub(Day(a)).Hours() / 24))
}

// AddDays shifts t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// Parse reads a YYYY-MM-DD date, falling back to RFC3339.
func Parse(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(Layout, s, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Format renders t as YYYY-MM-DD, or "" for nil.
func Format(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(Layout)
}

// Ptr returns a pointer to t.
func Ptr(t time.Time) *time.Time {
	return &t
}
