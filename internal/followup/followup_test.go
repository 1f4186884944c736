package followup

import (
	"testing"
	"time"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/payment"
	"cpap-admin-server/internal/severity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func in(days int) *time.Time {
	return dates.Ptr(today.AddDate(0, 0, days))
}

func TestDiagnosticFollowupTaskSevere(t *testing.T) {
	task, err := DiagnosticFollowupTask(Reading{ID: "d1", Date: day(2024, 1, 1), IAH: 35, PatientID: "p1", PatientName: "Amine Ben Salah"}, today)
	require.NoError(t, err)
	require.NotNil(t, task)

	assert.Equal(t, models.TaskDiagnosticFollowup, task.Type)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Equal(t, day(2024, 1, 8), task.DueDate)
	require.NotNil(t, task.Notifications.ReminderDate)
	assert.Equal(t, day(2024, 1, 7), *task.Notifications.ReminderDate)
	assert.True(t, task.Notifications.Enabled)
	assert.False(t, task.Completed)
	assert.Equal(t, "p1", *task.PatientID)
	assert.Equal(t, "diagnostic-followup:d1", task.SourceKey)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, today, task.CreatedAt)
}

func TestDiagnosticFollowupTaskOnlyForSevere(t *testing.T) {
	for _, iah := range []float64{0, 15, 16, 29, 29.9} {
		task, err := DiagnosticFollowupTask(Reading{ID: "d", Date: today, IAH: iah}, today)
		require.NoError(t, err)
		assert.Nil(t, task, "iah=%v", iah)
	}
}

func TestDiagnosticFollowupTaskInvalidInput(t *testing.T) {
	_, err := DiagnosticFollowupTask(Reading{IAH: -1}, today)
	assert.ErrorIs(t, err, severity.ErrInvalidInput)
}

func TestCashRestTask(t *testing.T) {
	rec := payment.Normalize(payment.Record{
		ID:      "pay1",
		Amount:  300,
		Details: payment.CashDetails{Total: 1000, Deposit: 300, RestDate: dates.Ptr(day(2024, 3, 1))},
	})
	assert.Equal(t, 700.0, rec.Details.(payment.CashDetails).Rest)

	task := CashRestTask(rec, "Amine", "sale1", today)
	require.NotNil(t, task)
	assert.Equal(t, day(2024, 3, 1), task.DueDate)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, day(2024, 2, 29), *task.Notifications.ReminderDate)
	assert.Equal(t, "sale1", task.RelatedData["saleId"])
	assert.Equal(t, 700.0, task.RelatedData["amount"])
}

func TestCashRestTaskNullability(t *testing.T) {
	restDates := []*time.Time{nil, dates.Ptr(day(2024, 3, 1))}
	rests := []float64{-10, 0, 0.01, 700}
	for _, rd := range restDates {
		for _, rest := range rests {
			rec := payment.Record{ID: "p", Details: payment.CashDetails{Total: 1000, Rest: rest, RestDate: rd}}
			task := CashRestTask(rec, "X", "s", today)
			if rd == nil || rest <= 0 {
				assert.Nil(t, task, "rest=%v date=%v", rest, rd)
			} else {
				assert.NotNil(t, task, "rest=%v date=%v", rest, rd)
			}
		}
	}
	assert.Nil(t, CashRestTask(payment.Record{Details: payment.ChequeDetails{}}, "X", "s", today))
}

func TestCNAMFollowupTask(t *testing.T) {
	rec := payment.Record{ID: "c1", Details: payment.CNAMDetails{Status: payment.CNAMPending, SupportAmount: 1200, FollowupDate: dates.Ptr(day(2024, 7, 1))}}
	task := CNAMFollowupTask(rec, "Amine", "sale1", today)
	require.NotNil(t, task)
	assert.Equal(t, models.TaskCNAMFollowup, task.Type)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Equal(t, day(2024, 6, 30), *task.Notifications.ReminderDate)

	accepted := payment.Record{ID: "c2", Details: payment.CNAMDetails{Status: payment.CNAMAccepted, FollowupDate: dates.Ptr(day(2024, 7, 1))}}
	assert.Nil(t, CNAMFollowupTask(accepted, "Amine", "sale1", today))

	noDate := payment.Record{ID: "c3", Details: payment.CNAMDetails{Status: payment.CNAMPending}}
	assert.Nil(t, CNAMFollowupTask(noDate, "Amine", "sale1", today))
}

func TestPaymentReminderTaskPriorities(t *testing.T) {
	yes := true
	cases := []struct {
		name     string
		rec      payment.Record
		want     models.TaskPriority
		wantNone bool
	}{
		{name: "due in a week", rec: payment.Record{ID: "a", Amount: 100, DueDate: in(7)}, wantNone: true},
		{name: "due in three days", rec: payment.Record{ID: "b", Amount: 100, DueDate: in(3)}, want: models.PriorityMedium},
		{name: "due tomorrow", rec: payment.Record{ID: "c", Amount: 100, DueDate: in(1)}, want: models.PriorityHigh},
		{name: "due today", rec: payment.Record{ID: "d", Amount: 100, DueDate: in(0)}, want: models.PriorityHigh},
		{name: "two days late", rec: payment.Record{ID: "e", Amount: 100, DueDate: in(-2)}, want: models.PriorityHigh},
		{name: "flagged ten days late", rec: payment.Record{ID: "f", Amount: 100, DueDate: in(-10),
			Overdue: payment.OverdueMarker{IsOverdue: &yes, Days: 10}}, want: models.PriorityUrgent},
		{name: "paid", rec: payment.Record{ID: "g", Amount: 100, DueDate: in(1), PaymentDate: in(-1)}, wantNone: true},
		{name: "no due date", rec: payment.Record{ID: "h", Amount: 100}, wantNone: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.rec.Details = payment.VirementDetails{}
			task := PaymentReminderTask(tc.rec, "Amine", "r1", today)
			if tc.wantNone {
				assert.Nil(t, task)
				return
			}
			require.NotNil(t, task)
			assert.Equal(t, tc.want, task.Priority)
			assert.Equal(t, "payment-reminder:"+tc.rec.ID, task.SourceKey)
		})
	}
}

func TestPaymentReminderTaskPhrasing(t *testing.T) {
	upcoming := PaymentReminderTask(payment.Record{ID: "u", Amount: 80, DueDate: in(2), Details: payment.TraiteDetails{}}, "Amine", "r1", today)
	require.NotNil(t, upcoming)
	assert.Contains(t, upcoming.Title, "à venir")
	assert.Equal(t, false, upcoming.RelatedData["isOverdue"])

	late := PaymentReminderTask(payment.Record{ID: "l", Amount: 80, DueDate: in(-2), Details: payment.TraiteDetails{}}, "Amine", "r1", today)
	require.NotNil(t, late)
	assert.Contains(t, late.Title, "retard")
	assert.Equal(t, 2, late.RelatedData["overdueDays"])
}

func TestOverduePaymentTask(t *testing.T) {
	rec := payment.Record{ID: "o1", Amount: 150, Overdue: payment.OverdueMarker{Date: in(-3)}, Details: payment.ChequeDetails{}}
	task := OverduePaymentTask(rec, "Amine", "r1", today)
	require.NotNil(t, task)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Equal(t, 3, task.RelatedData["overdueDays"])

	rec.Overdue.Date = in(-8)
	task = OverduePaymentTask(rec, "Amine", "r1", today)
	require.NotNil(t, task)
	assert.Equal(t, models.PriorityUrgent, task.Priority)

	rec.Overdue.Date = in(0)
	assert.Nil(t, OverduePaymentTask(rec, "Amine", "r1", today))

	rec.Overdue.Date = nil
	assert.Nil(t, OverduePaymentTask(rec, "Amine", "r1", today))

	rec.Overdue.Date = in(-8)
	rec.PaymentDate = in(-1)
	assert.Nil(t, OverduePaymentTask(rec, "Amine", "r1", today))
}
