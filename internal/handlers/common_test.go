package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpap-admin-server/internal/payment"
)

func TestPaymentRequestToModel(t *testing.T) {
	t.Run("cash rest and installment amount", func(t *testing.T) {
		p, err := PaymentRequest{
			Type:             "CASH",
			Amount:           400,
			CashTotal:        1000,
			CashAcompte:      400,
			CashInstallments: 3,
			DueDate:          "2024-03-01",
		}.toModel(time.UTC)
		require.NoError(t, err)
		assert.Equal(t, 600.0, p.CashRest)
		assert.Equal(t, 333.33, p.CashInstallmentAmount)
		require.NotNil(t, p.DueDate)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *p.DueDate)
	})

	t.Run("installments split the amount without a cash total", func(t *testing.T) {
		p, err := PaymentRequest{
			Type:             "CASH",
			Amount:           600,
			CashInstallments: 3,
			DueDate:          "2024-03-01",
		}.toModel(time.UTC)
		require.NoError(t, err)
		assert.Equal(t, 200.0, p.CashInstallmentAmount)

		entries, err := payment.GenerateSchedulePreview(p.ToRecord())
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, 200.0, entries[2].Amount)
	})

	t.Run("cnam period is completed", func(t *testing.T) {
		p, err := PaymentRequest{
			Type:              "CNAM",
			CNAMSupportAmount: 1200,
			CNAMDebutDate:     "2024-01-15",
			CNAMSupportMonths: 6,
		}.toModel(time.UTC)
		require.NoError(t, err)
		assert.Equal(t, payment.CNAMPending, p.CNAMStatus)
		require.NotNil(t, p.CNAMEndDate)
		assert.Equal(t, time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC), *p.CNAMEndDate)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := PaymentRequest{Type: "VIREMENT", DueDate: "31/12/2024"}.toModel(time.UTC)
		assert.Error(t, err)
	})

	t.Run("too many installments", func(t *testing.T) {
		_, err := PaymentRequest{Type: "CHEQUE", Amount: 100, ChequeInstallments: 99, ChequeDate: "2024-01-01"}.toModel(time.UTC)
		assert.ErrorIs(t, err, payment.ErrInvalidInput)
	})
}
