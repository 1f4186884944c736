package models

import (
	"time"

	"cpap-admin-server/internal/payment"
)

// Payment is the stored form of a payment record: one flat row whose optional columns
// are meaningful only for the matching Type. ToRecord turns it into its typed variant.
type Payment struct {
	BaseModel
	SaleID      *string        `gorm:"size:36;index" json:"saleId,omitempty"`
	RentalID    *string        `gorm:"size:36;index" json:"rentalId,omitempty"`
	Type        payment.Method `gorm:"size:20;not null" json:"type"`
	Amount      float64        `json:"amount"`
	DueDate     *time.Time     `gorm:"index" json:"dueDate,omitempty"`
	PaymentDate *time.Time     `json:"paymentDate,omitempty"`
	PeriodStart *time.Time     `json:"periodStartDate,omitempty"`
	PeriodEnd   *time.Time     `json:"periodEndDate,omitempty"`
	Notes       string         `gorm:"type:text" json:"notes,omitempty"`

	CashTotal             float64           `json:"cashTotal,omitempty"`
	CashAcompte           float64           `json:"cashAcompte,omitempty"`
	CashRest              float64           `json:"cashRest,omitempty"`
	CashRestDate          *time.Time        `json:"cashRestDate,omitempty"`
	CashInstallments      int               `json:"cashInstallments,omitempty"`
	CashInstallmentAmount float64           `json:"cashInstallmentAmount,omitempty"`
	CashFrequency         payment.Frequency `gorm:"size:20" json:"cashFrequency,omitempty"`

	ChequeNumber       string     `gorm:"size:50" json:"chequeNumber,omitempty"`
	ChequeDate         *time.Time `json:"chequeDate,omitempty"`
	ChequeInstallments int        `json:"chequeInstallments,omitempty"`
	TraiteNumber       string     `gorm:"size:50" json:"traiteNumber,omitempty"`
	TraiteDueDate      *time.Time `json:"traiteDueDate,omitempty"`
	TransferReference  string     `gorm:"size:100" json:"transferReference,omitempty"`
	MondatReference    string     `gorm:"size:100" json:"mondatReference,omitempty"`

	CNAMStatus        payment.CNAMStatus `gorm:"size:20" json:"cnamStatus,omitempty"`
	CNAMSupportAmount float64            `json:"cnamSupportAmount,omitempty"`
	CNAMDebutDate     *time.Time         `json:"cnamDebutDate,omitempty"`
	CNAMSupportMonths int                `json:"cnamSupportMonths,omitempty"`
	CNAMEndDate       *time.Time         `json:"cnamEndDate,omitempty"`
	CNAMFollowupDate  *time.Time         `json:"cnamFollowupDate,omitempty"`

	OverdueDate *time.Time `json:"overdueDate,omitempty"`
	IsOverdue   *bool      `json:"isOverdue,omitempty"`
	OverdueDays int        `json:"overdueDays,omitempty"`
}

// ToRecord converts the row to its typed payment record.
func (p *Payment) ToRecord() payment.Record {
	r := payment.Record{
		ID:          p.ID,
		Amount:      p.Amount,
		DueDate:     p.DueDate,
		PaymentDate: p.PaymentDate,
		PeriodStart: p.PeriodStart,
		PeriodEnd:   p.PeriodEnd,
		Overdue: payment.OverdueMarker{
			Date:      p.OverdueDate,
			IsOverdue: p.IsOverdue,
			Days:      p.OverdueDays,
		},
	}
	switch p.Type {
	case payment.MethodCash:
		r.Details = payment.CashDetails{
			Total:             p.CashTotal,
			Deposit:           p.CashAcompte,
			Rest:              p.CashRest,
			RestDate:          p.CashRestDate,
			Installments:      p.CashInstallments,
			InstallmentAmount: p.CashInstallmentAmount,
			Frequency:         p.CashFrequency,
		}
	case payment.MethodCheque:
		r.Details = payment.ChequeDetails{Number: p.ChequeNumber, Date: p.ChequeDate, Installments: p.ChequeInstallments}
	case payment.MethodTraite:
		r.Details = payment.TraiteDetails{Number: p.TraiteNumber, DueDate: p.TraiteDueDate}
	case payment.MethodCNAM:
		r.Details = payment.CNAMDetails{
			Status:        p.CNAMStatus,
			SupportAmount: p.CNAMSupportAmount,
			DebutDate:     p.CNAMDebutDate,
			SupportMonths: p.CNAMSupportMonths,
			EndDate:       p.CNAMEndDate,
			FollowupDate:  p.CNAMFollowupDate,
		}
	case payment.MethodVirement:
		r.Details = payment.VirementDetails{Reference: p.TransferReference}
	case payment.MethodMondat:
		r.Details = payment.MondatDetails{Reference: p.MondatReference}
	}
	return r
}

// Normalize recomputes the derived columns (cash rest, CNAM period) in place.
func (p *Payment) Normalize() {
	switch d := payment.Normalize(p.ToRecord()).Details.(type) {
	case payment.CashDetails:
		p.CashRest = d.Rest
	case payment.CNAMDetails:
		p.CNAMDebutDate = d.DebutDate
		p.CNAMSupportMonths = d.SupportMonths
		p.CNAMEndDate = d.EndDate
	}
}

// Records converts rows in order.
func Records(payments []Payment) []payment.Record {
	out := make([]payment.Record, len(payments))
	for i := range payments {
		out[i] = payments[i].ToRecord()
	}
	return out
}
