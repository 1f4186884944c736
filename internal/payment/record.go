// Package payment holds the payment record variants and the pure arithmetic over them:
// balances, CNAM support periods and installment schedules.
package payment

import (
	"errors"
	"time"
)

var (
	// ErrInvalidInput marks counts, frequencies or amounts that cannot form a schedule.
	ErrInvalidInput = errors.New("invalid payment input")
	// ErrMissingData marks a record lacking a field a computation needs.
	ErrMissingData = errors.New("missing payment data")
)

// Method is the payment method a record is keyed by.
type Method string

const (
	MethodCash     Method = "CASH"
	MethodCheque   Method = "CHEQUE"
	MethodTraite   Method = "TRAITE"
	MethodCNAM     Method = "CNAM"
	MethodVirement Method = "VIREMENT"
	MethodMondat   Method = "MONDAT"
)

// Methods lists every supported method.
var Methods = []Method{MethodCash, MethodCheque, MethodTraite, MethodCNAM, MethodVirement, MethodMondat}

// CNAMStatus is the insurer's decision on a reimbursement file.
type CNAMStatus string

const (
	CNAMPending  CNAMStatus = "ATTENTE"
	CNAMAccepted CNAMStatus = "ACCORD"
	CNAMRefused  CNAMStatus = "REFUSE"
)

// Frequency spaces successive installments.
type Frequency string

const (
	Weekly    Frequency = "WEEKLY"
	Monthly   Frequency = "MONTHLY"
	Quarterly Frequency = "QUARTERLY"
	Yearly    Frequency = "YEARLY"
)

// OverdueMarker is overdue tracking optionally cached on a record.
// A nil IsOverdue means the record predates overdue tracking.
type OverdueMarker struct {
	Date      *time.Time
	IsOverdue *bool
	Days      int
}

// Flagged reports whether the record was explicitly marked overdue.
func (m OverdueMarker) Flagged() bool {
	return m.IsOverdue != nil && *m.IsOverdue
}

// Record is one payment with the fields shared by every method.
type Record struct {
	ID          string
	Amount      float64
	DueDate     *time.Time
	PaymentDate *time.Time
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Overdue     OverdueMarker
	Details     Details
}

// Method returns the method of the record's details, or "" when none are set.
func (r Record) Method() Method {
	if r.Details == nil {
		return ""
	}
	return r.Details.Method()
}

// Settled reports whether the record was paid on or before today.
func (r Record) Settled(today time.Time) bool {
	return r.PaymentDate != nil && !r.PaymentDate.After(today)
}

// In returns a copy of r with every date expressed in loc. Stores that hand dates back
// in another zone would otherwise land them on the wrong calendar day.
func (r Record) In(loc *time.Location) Record {
	if loc == nil {
		return r
	}
	r.DueDate = in(r.DueDate, loc)
	r.PaymentDate = in(r.PaymentDate, loc)
	r.PeriodStart = in(r.PeriodStart, loc)
	r.PeriodEnd = in(r.PeriodEnd, loc)
	r.Overdue.Date = in(r.Overdue.Date, loc)
	switch d := r.Details.(type) {
	case CashDetails:
		d.RestDate = in(d.RestDate, loc)
		r.Details = d
	case ChequeDetails:
		d.Date = in(d.Date, loc)
		r.Details = d
	case TraiteDetails:
		d.DueDate = in(d.DueDate, loc)
		r.Details = d
	case CNAMDetails:
		d.DebutDate = in(d.DebutDate, loc)
		d.EndDate = in(d.EndDate, loc)
		d.FollowupDate = in(d.FollowupDate, loc)
		r.Details = d
	}
	return r
}

func in(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(loc)
	return &v
}

// Details is the method-specific part of a record. The set of implementations is closed.
type Details interface {
	Method() Method
	details()
}

// CashDetails covers a deposit with the remainder paid later or in installments.
type CashDetails struct {
	Total             float64
	Deposit           float64
	Rest              float64
	RestDate          *time.Time
	Installments      int
	InstallmentAmount float64
	Frequency         Frequency
}

// ChequeDetails covers one or several post-dated cheques.
type ChequeDetails struct {
	Number       string
	Date         *time.Time
	Installments int
}

// TraiteDetails covers a promissory note.
type TraiteDetails struct {
	Number  string
	DueDate *time.Time
}

// CNAMDetails covers national health insurance reimbursement.
type CNAMDetails struct {
	Status        CNAMStatus
	SupportAmount float64
	DebutDate     *time.Time
	SupportMonths int
	EndDate       *time.Time
	FollowupDate  *time.Time
}

// VirementDetails covers bank transfers.
type VirementDetails struct {
	Reference string
}

// MondatDetails covers postal money orders.
type MondatDetails struct {
	Reference string
}

func (CashDetails) Method() Method     { return MethodCash }
func (ChequeDetails) Method() Method   { return MethodCheque }
func (TraiteDetails) Method() Method   { return MethodTraite }
func (CNAMDetails) Method() Method     { return MethodCNAM }
func (VirementDetails) Method() Method { return MethodVirement }
func (MondatDetails) Method() Method   { return MethodMondat }

func (CashDetails) details()     {}
func (ChequeDetails) details()   {}
func (TraiteDetails) details()   {}
func (CNAMDetails) details()     {}
func (VirementDetails) details() {}
func (MondatDetails) details()   {}
