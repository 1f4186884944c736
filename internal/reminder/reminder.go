// Package reminder derives reminder dates from due dates.
//
// Two policies coexist: the device payment dashboard warns well ahead of the end of a
// payment period (TieredLeadTime) while calendar tasks are reminded the day before
// (FlatOneDayLeadTime).
package reminder

import (
	"time"

	"cpap-admin-server/internal/dates"
)

const (
	longLeadDays  = 30
	shortLeadDays = 5
)

// TieredLeadTime returns paymentEnd minus 30 days when more than 30 days remain at today,
// minus 5 days when 1 to 30 days remain. It returns false once the date is due or past.
func TieredLeadTime(paymentEnd, today time.Time) (time.Time, bool) {
	remaining := dates.DaysBetween(today, paymentEnd)
	switch {
	case remaining > longLeadDays:
		return dates.AddDays(paymentEnd, -longLeadDays), true
	case remaining > 0:
		return dates.AddDays(paymentEnd, -shortLeadDays), true
	default:
		return time.Time{}, false
	}
}

// FlatOneDayLeadTime is the day before due.
func FlatOneDayLeadTime(due time.Time) time.Time {
	return dates.AddDays(due, -1)
}
