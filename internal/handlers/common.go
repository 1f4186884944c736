package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/payment"
	"cpap-admin-server/internal/repository"
	"cpap-admin-server/internal/utils"
)

// respondDBError maps a lookup failure to 404 or 500.
func respondDBError(c *gin.Context, err error, what string) {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(c, what+" not found")
		return
	}
	utils.InternalServerError(c, "Database error: "+err.Error())
}

// optionalDate parses a YYYY-MM-DD (or RFC 3339) value; empty means absent.
func optionalDate(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := dates.Parse(s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// PaymentRequest is a payment as entered on a sale or a rental. Only the fields of the
// chosen type are read.
type PaymentRequest struct {
	Type        string  `json:"type" binding:"required" validate:"paymethod"`
	Amount      float64 `json:"amount" binding:"gte=0"`
	DueDate     string  `json:"dueDate"`
	PaymentDate string  `json:"paymentDate"`
	PeriodStart string  `json:"periodStartDate"`
	PeriodEnd   string  `json:"periodEndDate"`
	Notes       string  `json:"notes"`

	CashTotal        float64 `json:"cashTotal" binding:"gte=0"`
	CashAcompte      float64 `json:"cashAcompte" binding:"gte=0"`
	CashRestDate     string  `json:"cashRestDate"`
	CashInstallments int     `json:"cashInstallments" binding:"gte=0"`
	CashFrequency    string  `json:"cashFrequency" binding:"omitempty,oneof=WEEKLY MONTHLY QUARTERLY YEARLY"`

	ChequeNumber       string `json:"chequeNumber"`
	ChequeDate         string `json:"chequeDate"`
	ChequeInstallments int    `json:"chequeInstallments" binding:"gte=0"`
	TraiteNumber       string `json:"traiteNumber"`
	TraiteDueDate      string `json:"traiteDueDate"`
	TransferReference  string `json:"transferReference"`
	MondatReference    string `json:"mondatReference"`

	CNAMStatus        string  `json:"cnamStatus" binding:"omitempty,oneof=ATTENTE ACCORD REFUSE"`
	CNAMSupportAmount float64 `json:"cnamSupportAmount" binding:"gte=0"`
	CNAMDebutDate     string  `json:"cnamDebutDate"`
	CNAMSupportMonths int     `json:"cnamSupportMonths" binding:"gte=0"`
	CNAMEndDate       string  `json:"cnamEndDate"`
	CNAMFollowupDate  string  `json:"cnamFollowupDate"`

	OverdueDate string `json:"overdueDate"`
	IsOverdue   *bool  `json:"isOverdue"`
}

// toModel converts the request into a normalized payment row.
func (r PaymentRequest) toModel(loc *time.Location) (models.Payment, error) {
	p := models.Payment{
		Type:               payment.Method(r.Type),
		Amount:             r.Amount,
		Notes:              r.Notes,
		CashTotal:          r.CashTotal,
		CashAcompte:        r.CashAcompte,
		CashInstallments:   r.CashInstallments,
		CashFrequency:      payment.Frequency(r.CashFrequency),
		ChequeNumber:       r.ChequeNumber,
		ChequeInstallments: r.ChequeInstallments,
		TraiteNumber:       r.TraiteNumber,
		TransferReference:  r.TransferReference,
		MondatReference:    r.MondatReference,
		CNAMStatus:         payment.CNAMStatus(r.CNAMStatus),
		CNAMSupportAmount:  r.CNAMSupportAmount,
		CNAMSupportMonths:  r.CNAMSupportMonths,
		IsOverdue:          r.IsOverdue,
	}

	fields := []struct {
		raw string
		dst **time.Time
	}{
		{r.DueDate, &p.DueDate},
		{r.PaymentDate, &p.PaymentDate},
		{r.PeriodStart, &p.PeriodStart},
		{r.PeriodEnd, &p.PeriodEnd},
		{r.CashRestDate, &p.CashRestDate},
		{r.ChequeDate, &p.ChequeDate},
		{r.TraiteDueDate, &p.TraiteDueDate},
		{r.CNAMDebutDate, &p.CNAMDebutDate},
		{r.CNAMEndDate, &p.CNAMEndDate},
		{r.CNAMFollowupDate, &p.CNAMFollowupDate},
		{r.OverdueDate, &p.OverdueDate},
	}
	for _, f := range fields {
		t, err := optionalDate(f.raw, loc)
		if err != nil {
			return p, err
		}
		*f.dst = t
	}

	if p.Type == payment.MethodCash && p.CashInstallments > 0 {
		// Without a cash total the installments split the payment amount.
		base := p.CashTotal
		if base == 0 {
			base = p.Amount
		}
		p.CashInstallmentAmount = payment.InstallmentAmount(base, p.CashInstallments)
	}
	if p.Type == payment.MethodCNAM && p.CNAMStatus == "" {
		p.CNAMStatus = payment.CNAMPending
	}
	p.Normalize()

	// Reject shapes that cannot produce a schedule, such as installment counts over the cap.
	if _, err := payment.GenerateSchedulePreview(p.ToRecord()); errors.Is(err, payment.ErrInvalidInput) {
		return p, err
	}
	return p, nil
}
