package payment

import (
	"math"
	"time"

	"cpap-admin-server/internal/dates"
)

// daysPerMonth approximates a calendar month when converting day spans back to months.
const daysPerMonth = 30.44

// CashRemaining is the unpaid part of a cash total after the deposit. Never negative.
func CashRemaining(total, deposit float64) float64 {
	return math.Max(0, total-deposit)
}

// CNAMEndDate is the last covered day of a support period: a one-month period starting
// on January 1st ends on January 31st.
func CNAMEndDate(debut time.Time, months int) time.Time {
	return debut.AddDate(0, months, -1)
}

// CNAMDurationMonths converts a support period back to whole months.
// It returns 0 when either date is missing.
func CNAMDurationMonths(debut, end *time.Time) int {
	if debut == nil || end == nil {
		return 0
	}
	days := dates.DaysBetween(*debut, *end) + 1
	return int(math.Round(float64(days) / daysPerMonth))
}

// CNAMDebutDate inverts CNAMEndDate.
func CNAMDebutDate(end time.Time, months int) time.Time {
	return end.AddDate(0, 0, 1).AddDate(0, -months, 0)
}

// CompleteCNAMPeriod derives the missing member of {debut, months, end} from the two present.
// Debut and months win when all three are given, keeping the end date consistent.
func CompleteCNAMPeriod(d CNAMDetails) CNAMDetails {
	switch {
	case d.DebutDate != nil && d.SupportMonths > 0:
		d.EndDate = dates.Ptr(CNAMEndDate(*d.DebutDate, d.SupportMonths))
	case d.DebutDate != nil && d.EndDate != nil:
		d.SupportMonths = CNAMDurationMonths(d.DebutDate, d.EndDate)
	case d.EndDate != nil && d.SupportMonths > 0:
		d.DebutDate = dates.Ptr(CNAMDebutDate(*d.EndDate, d.SupportMonths))
	}
	return d
}

// InstallmentAmount splits total into count parts rounded to cents; 0 when count <= 0.
func InstallmentAmount(total float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	return roundCents(total / float64(count))
}

// NextInstallmentDate returns the date of installment index (0-based) from start.
// An unknown frequency leaves start unchanged.
func NextInstallmentDate(start time.Time, freq Frequency, index int) time.Time {
	switch freq {
	case Weekly:
		return start.AddDate(0, 0, 7*index)
	case Monthly:
		return start.AddDate(0, index, 0)
	case Quarterly:
		return start.AddDate(0, 3*index, 0)
	case Yearly:
		return start.AddDate(index, 0, 0)
	default:
		return start
	}
}

// Normalize recomputes the derived fields of a record: the cash rest and the CNAM period.
func Normalize(r Record) Record {
	switch d := r.Details.(type) {
	case CashDetails:
		d.Rest = CashRemaining(d.Total, d.Deposit)
		r.Details = d
	case CNAMDetails:
		r.Details = CompleteCNAMPeriod(d)
	}
	return r
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
