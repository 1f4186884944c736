package payment

import (
	"fmt"
	"time"
)

// Schedule caps.
const (
	MaxCashInstallments   = 36
	MaxChequeInstallments = 24
	MaxCNAMMonths         = 120
	previewOccurrences    = 12
)

// ScheduleEntry is one expected payment of a schedule.
type ScheduleEntry struct {
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
}

// GenerateSchedulePreview expands a record into its expected payments in date order.
func GenerateSchedulePreview(r Record) ([]ScheduleEntry, error) {
	if r.Amount < 0 {
		return nil, fmt.Errorf("%w: negative amount %.2f", ErrInvalidInput, r.Amount)
	}
	switch d := r.Details.(type) {
	case CashDetails:
		return cashSchedule(r, d)
	case ChequeDetails:
		return chequeSchedule(r, d)
	case TraiteDetails:
		start := d.DueDate
		if start == nil {
			start = r.DueDate
		}
		return recurring(start, r.Amount, "Traite")
	case VirementDetails:
		return recurring(r.DueDate, r.Amount, "Virement")
	case CNAMDetails:
		return cnamSchedule(d)
	case MondatDetails:
		if r.DueDate == nil {
			return nil, fmt.Errorf("%w: mondat without due date", ErrMissingData)
		}
		return []ScheduleEntry{{Date: *r.DueDate, Amount: r.Amount, Description: "Mandat"}}, nil
	case nil:
		return nil, fmt.Errorf("%w: payment %s has no method", ErrMissingData, r.ID)
	}
	return nil, fmt.Errorf("%w: unsupported details %T", ErrInvalidInput, r.Details)
}

func cashSchedule(r Record, d CashDetails) ([]ScheduleEntry, error) {
	if err := checkCount(d.Installments, MaxCashInstallments, "cash installments"); err != nil {
		return nil, err
	}
	if d.Installments == 0 {
		return cashDepositAndRest(r, d)
	}
	if r.DueDate == nil {
		return nil, fmt.Errorf("%w: cash installments without due date", ErrMissingData)
	}
	if d.InstallmentAmount <= 0 {
		return nil, fmt.Errorf("%w: cash installment amount must be positive", ErrInvalidInput)
	}
	entries := make([]ScheduleEntry, 0, d.Installments)
	for i := 0; i < d.Installments; i++ {
		entries = append(entries, ScheduleEntry{
			Date:        NextInstallmentDate(*r.DueDate, d.Frequency, i),
			Amount:      d.InstallmentAmount,
			Description: fmt.Sprintf("Versement %d/%d", i+1, d.Installments),
		})
	}
	return entries, nil
}

func cashDepositAndRest(r Record, d CashDetails) ([]ScheduleEntry, error) {
	first := r.PaymentDate
	if first == nil {
		first = r.DueDate
	}
	if first == nil {
		return nil, fmt.Errorf("%w: cash payment without payment or due date", ErrMissingData)
	}
	deposit := d.Deposit
	if d.Total == 0 && deposit == 0 {
		deposit = r.Amount
	}
	entries := []ScheduleEntry{{Date: *first, Amount: deposit, Description: "Acompte"}}
	if rest := CashRemaining(d.Total, d.Deposit); rest > 0 && d.RestDate != nil {
		entries = append(entries, ScheduleEntry{Date: *d.RestDate, Amount: rest, Description: "Reste"})
	}
	return entries, nil
}

func chequeSchedule(r Record, d ChequeDetails) ([]ScheduleEntry, error) {
	n := d.Installments
	if n == 0 {
		n = 1
	}
	if err := checkCount(n, MaxChequeInstallments, "cheque installments"); err != nil {
		return nil, err
	}
	start := d.Date
	if start == nil {
		start = r.DueDate
	}
	if start == nil {
		return nil, fmt.Errorf("%w: cheque without date", ErrMissingData)
	}
	amount := InstallmentAmount(r.Amount, n)
	entries := make([]ScheduleEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, ScheduleEntry{
			Date:        NextInstallmentDate(*start, Monthly, i),
			Amount:      amount,
			Description: fmt.Sprintf("Chèque %d/%d", i+1, n),
		})
	}
	return entries, nil
}

func recurring(start *time.Time, amount float64, label string) ([]ScheduleEntry, error) {
	if start == nil {
		return nil, fmt.Errorf("%w: %s without due date", ErrMissingData, label)
	}
	entries := make([]ScheduleEntry, 0, previewOccurrences)
	for i := 0; i < previewOccurrences; i++ {
		entries = append(entries, ScheduleEntry{
			Date:        NextInstallmentDate(*start, Monthly, i),
			Amount:      amount,
			Description: fmt.Sprintf("%s %d/%d", label, i+1, previewOccurrences),
		})
	}
	return entries, nil
}

func cnamSchedule(d CNAMDetails) ([]ScheduleEntry, error) {
	d = CompleteCNAMPeriod(d)
	if d.SupportMonths == 0 {
		return nil, fmt.Errorf("%w: CNAM support period unknown", ErrMissingData)
	}
	if err := checkCount(d.SupportMonths, MaxCNAMMonths, "CNAM support months"); err != nil {
		return nil, err
	}
	if d.DebutDate == nil {
		return nil, fmt.Errorf("%w: CNAM without start date", ErrMissingData)
	}
	monthly := InstallmentAmount(d.SupportAmount, d.SupportMonths)
	entries := make([]ScheduleEntry, 0, d.SupportMonths)
	for i := 0; i < d.SupportMonths; i++ {
		entries = append(entries, ScheduleEntry{
			Date:        NextInstallmentDate(*d.DebutDate, Monthly, i),
			Amount:      monthly,
			Description: fmt.Sprintf("CNAM mois %d/%d", i+1, d.SupportMonths),
		})
	}
	return entries, nil
}

func checkCount(n, max int, what string) error {
	if n < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, what)
	}
	if n > max {
		return fmt.Errorf("%w: %d %s exceeds %d", ErrInvalidInput, n, what, max)
	}
	return nil
}
