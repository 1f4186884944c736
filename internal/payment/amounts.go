package payment

import (
	"math"
	"time"
)

// Due is what the record asks for in total.
func Due(r Record) float64 {
	switch d := r.Details.(type) {
	case CashDetails:
		if d.Total > 0 {
			return d.Total
		}
	case CNAMDetails:
		if d.SupportAmount > 0 {
			return d.SupportAmount
		}
	}
	return r.Amount
}

// Paid is the part of Due received by today. An unsettled cash record counts its deposit.
func Paid(r Record, today time.Time) float64 {
	if r.Settled(today) {
		return Due(r)
	}
	if d, ok := r.Details.(CashDetails); ok {
		return math.Min(d.Deposit, Due(r))
	}
	return 0
}

// Outstanding is the part of Due still owed at today. Never negative.
func Outstanding(r Record, today time.Time) float64 {
	return math.Max(0, Due(r)-Paid(r, today))
}

// Totals sums Due, Paid and Outstanding over records.
func Totals(records []Record, today time.Time) (total, paid, outstanding float64) {
	for _, r := range records {
		total += Due(r)
		paid += Paid(r, today)
	}
	total = roundCents(total)
	paid = roundCents(paid)
	return total, paid, math.Max(0, roundCents(total-paid))
}
