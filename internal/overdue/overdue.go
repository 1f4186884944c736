// Package overdue classifies how timely the payments of a rented device are.
package overdue

import (
	"time"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/payment"
)

// Status is the timeliness of a payment set.
type Status string

const (
	StatusPaid       Status = "PAID"
	StatusPending    Status = "PENDING"
	StatusOverdue    Status = "OVERDUE"
	StatusEndingSoon Status = "ENDING_SOON"
	StatusCritical   Status = "CRITICAL"
)

const (
	criticalDays   = 1
	endingSoonDays = 3
	lookaheadDays  = 7
)

// Input is a device's payment set with its aggregated amounts.
type Input struct {
	Payments      []payment.Record
	RentalEndDate *time.Time
	TotalAmount   float64
	PaidAmount    float64
}

// Result is the outcome of Evaluate.
type Result struct {
	Status         Status
	OverdueDays    int
	PaymentEndDate *time.Time
	NextDueDate    *time.Time
}

// PaymentEndDate is the latest period end (or CNAM support end) across payments,
// defaulting to the rental's own end date.
func PaymentEndDate(payments []payment.Record, rentalEnd *time.Time) *time.Time {
	var end *time.Time
	later := func(t *time.Time) {
		if t != nil && (end == nil || t.After(*end)) {
			end = t
		}
	}
	for _, p := range payments {
		later(p.PeriodEnd)
		if d, ok := p.Details.(payment.CNAMDetails); ok {
			later(d.EndDate)
		}
	}
	if end == nil {
		return rentalEnd
	}
	return end
}

// Evaluate applies the status chain in order, first match wins:
// nothing outstanding, overdue, a due date within a week, otherwise pending.
func Evaluate(in Input, today time.Time) Result {
	res := Result{Status: StatusPending, PaymentEndDate: PaymentEndDate(in.Payments, in.RentalEndDate)}

	if in.TotalAmount-in.PaidAmount <= 0 {
		res.Status = StatusPaid
		return res
	}

	unpaid := make([]payment.Record, 0, len(in.Payments))
	for _, p := range in.Payments {
		if !p.Settled(today) {
			unpaid = append(unpaid, p)
		}
	}

	if days, ok := overdueDays(unpaid, res.PaymentEndDate, today); ok {
		res.Status = StatusOverdue
		res.OverdueDays = days
		return res
	}

	if next, until, ok := soonestDue(unpaid, today); ok {
		res.NextDueDate = next
		switch {
		case until <= criticalDays:
			res.Status = StatusCritical
		case until <= endingSoonDays:
			res.Status = StatusEndingSoon
		}
	}
	return res
}

// EvaluatePayment evaluates a single record on its own, its due date standing in for
// the rental end.
func EvaluatePayment(r payment.Record, today time.Time) Result {
	return Evaluate(Input{
		Payments:      []payment.Record{r},
		RentalEndDate: r.DueDate,
		TotalAmount:   payment.Due(r),
		PaidAmount:    payment.Paid(r, today),
	}, today)
}

func overdueDays(unpaid []payment.Record, end *time.Time, today time.Time) (int, bool) {
	marked := false
	overdue := false
	days := 0
	for _, p := range unpaid {
		if p.Overdue.IsOverdue != nil {
			marked = true
		}
		if !p.Overdue.Flagged() {
			continue
		}
		overdue = true
		ref := p.Overdue.Date
		if ref == nil {
			ref = end
		}
		days = max(days, p.Overdue.Days, elapsed(ref, today))
	}
	if overdue {
		return days, true
	}
	if !marked && end != nil && dates.DaysBetween(*end, today) > 0 {
		for _, p := range unpaid {
			days = max(days, p.Overdue.Days)
		}
		return max(days, elapsed(end, today)), true
	}
	return 0, false
}

func soonestDue(unpaid []payment.Record, today time.Time) (*time.Time, int, bool) {
	var next *time.Time
	best := lookaheadDays + 1
	for _, p := range unpaid {
		due := p.DueDate
		if due == nil {
			due = p.PeriodEnd
		}
		if due == nil {
			continue
		}
		until := dates.DaysBetween(today, *due)
		if until >= 0 && until <= lookaheadDays && until < best {
			best, next = until, due
		}
	}
	return next, best, next != nil
}

func elapsed(ref *time.Time, today time.Time) int {
	if ref == nil {
		return 0
	}
	return max(0, dates.DaysBetween(*ref, today))
}
