// Package followup turns diagnostics and payments into calendar tasks.
//
// Every function is pure given today and returns nil when no task is warranted.
package followup

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/overdue"
	"cpap-admin-server/internal/payment"
	"cpap-admin-server/internal/reminder"
	"cpap-admin-server/internal/severity"
)

const (
	diagnosticFollowupDays = 7
	reminderWindowDays     = 3
	urgentAfterDays        = 7
)

// Reading is a diagnostic as the factory sees it.
type Reading struct {
	ID          string
	Date        time.Time
	IAH         float64
	PatientID   string
	PatientName string
}

// Source keys make generation idempotent: one task per key.
func DiagnosticKey(diagnosticID string) string { return "diagnostic-followup:" + diagnosticID }
func CashRestKey(paymentID string) string      { return "cash-rest:" + paymentID }
func CNAMKey(paymentID string) string          { return "cnam-followup:" + paymentID }
func ReminderKey(paymentID string) string      { return "payment-reminder:" + paymentID }
func OverdueKey(paymentID string) string       { return "payment-overdue:" + paymentID }

// DiagnosticFollowupTask schedules a follow-up a week after a severe reading.
func DiagnosticFollowupTask(r Reading, today time.Time) (*models.Task, error) {
	class, err := severity.Classify(r.IAH)
	if err != nil {
		return nil, err
	}
	if class.Level != severity.LevelSevere {
		return nil, nil
	}

	due := dates.AddDays(dates.Day(r.Date), diagnosticFollowupDays)
	t := newTask(models.TaskDiagnosticFollowup, models.PriorityHigh, due, today)
	t.Title = fmt.Sprintf("Suivi diagnostic - %s", r.PatientName)
	t.Description = fmt.Sprintf("IAH %s (%s) le %s : contacter le patient pour la mise en place du traitement.",
		severity.FormatIAHValue(r.IAH), class.LabelFr, r.Date.Format(dates.Layout))
	t.PatientName = r.PatientName
	if r.PatientID != "" {
		t.PatientID = &r.PatientID
	}
	t.SourceKey = DiagnosticKey(r.ID)
	t.RelatedData = map[string]interface{}{
		"diagnosticId": r.ID,
		"iahResult":    r.IAH,
		"severity":     string(class.Level),
	}
	return t, nil
}

// CashRestTask reminds to collect the remainder of a cash sale.
func CashRestTask(r payment.Record, patientName, saleID string, today time.Time) *models.Task {
	d, ok := r.Details.(payment.CashDetails)
	if !ok || d.RestDate == nil || d.Rest <= 0 {
		return nil
	}

	t := newTask(models.TaskPaymentReminder, models.PriorityMedium, dates.Day(*d.RestDate), today)
	t.Title = fmt.Sprintf("Reste à payer - %s", patientName)
	t.Description = fmt.Sprintf("Encaisser le reste de %.2f sur un total de %.2f (acompte %.2f).", d.Rest, d.Total, d.Deposit)
	t.PatientName = patientName
	t.SourceKey = CashRestKey(r.ID)
	t.RelatedData = map[string]interface{}{
		"paymentId": r.ID,
		"saleId":    saleID,
		"amount":    d.Rest,
	}
	return t
}

// CNAMFollowupTask reminds to chase a reimbursement file still awaiting a decision.
func CNAMFollowupTask(r payment.Record, patientName, saleID string, today time.Time) *models.Task {
	d, ok := r.Details.(payment.CNAMDetails)
	if !ok || d.FollowupDate == nil || d.Status != payment.CNAMPending {
		return nil
	}

	t := newTask(models.TaskCNAMFollowup, models.PriorityHigh, dates.Day(*d.FollowupDate), today)
	t.Title = fmt.Sprintf("Suivi dossier CNAM - %s", patientName)
	t.Description = fmt.Sprintf("Dossier CNAM en attente (prise en charge %.2f) : relancer la caisse.", d.SupportAmount)
	t.PatientName = patientName
	t.SourceKey = CNAMKey(r.ID)
	t.RelatedData = map[string]interface{}{
		"paymentId":     r.ID,
		"saleId":        saleID,
		"supportAmount": d.SupportAmount,
	}
	return t
}

// PaymentReminderTask flags a rental payment due within three days, or already late.
func PaymentReminderTask(r payment.Record, patientName, rentalID string, today time.Time) *models.Task {
	if r.Settled(today) {
		return nil
	}
	late, lateDays := lateness(r, today)
	until := 0
	if r.DueDate != nil {
		until = dates.DaysBetween(today, *r.DueDate)
	}
	if !late && (r.DueDate == nil || until > reminderWindowDays) {
		return nil
	}

	priority := models.PriorityMedium
	switch {
	case late && lateDays > urgentAfterDays:
		priority = models.PriorityUrgent
	case late:
		priority = models.PriorityHigh
	case until <= 1:
		priority = models.PriorityHigh
	}

	due := dates.Day(today)
	if r.DueDate != nil {
		due = dates.Day(*r.DueDate)
	}
	t := newTask(models.TaskPaymentReminder, priority, due, today)
	if late {
		t.Title = fmt.Sprintf("Paiement en retard - %s", patientName)
		t.Description = fmt.Sprintf("Paiement %s de %.2f en retard de %d jour(s).", methodLabel(r), r.Amount, lateDays)
	} else {
		t.Title = fmt.Sprintf("Paiement à venir - %s", patientName)
		t.Description = fmt.Sprintf("Paiement %s de %.2f dû le %s.", methodLabel(r), r.Amount, due.Format(dates.Layout))
	}
	t.PatientName = patientName
	t.SourceKey = ReminderKey(r.ID)
	t.RelatedData = map[string]interface{}{
		"paymentId":   r.ID,
		"rentalId":    rentalID,
		"amount":      r.Amount,
		"isOverdue":   late,
		"overdueDays": lateDays,
	}
	return t
}

// OverduePaymentTask flags a payment whose overdue date has passed.
func OverduePaymentTask(r payment.Record, patientName, rentalID string, today time.Time) *models.Task {
	ref := r.Overdue.Date
	if ref == nil || r.Settled(today) {
		return nil
	}
	elapsed := dates.DaysBetween(*ref, today)
	if elapsed <= 0 {
		return nil
	}
	days := max(elapsed, r.Overdue.Days)

	priority := models.PriorityHigh
	if days > urgentAfterDays {
		priority = models.PriorityUrgent
	}
	t := newTask(models.TaskPaymentReminder, priority, dates.Day(today), today)
	t.Title = fmt.Sprintf("Retard de paiement - %s", patientName)
	t.Description = fmt.Sprintf("Paiement %s de %.2f en retard depuis le %s (%d jour(s)).",
		methodLabel(r), r.Amount, ref.Format(dates.Layout), days)
	t.PatientName = patientName
	t.SourceKey = OverdueKey(r.ID)
	t.RelatedData = map[string]interface{}{
		"paymentId":   r.ID,
		"rentalId":    rentalID,
		"amount":      r.Amount,
		"overdueDays": days,
	}
	return t
}

// lateness reports whether r is overdue and by how many days. A due date already past
// counts even when the record was never flagged.
func lateness(r payment.Record, today time.Time) (bool, int) {
	if res := overdue.EvaluatePayment(r, today); res.Status == overdue.StatusOverdue {
		return true, res.OverdueDays
	}
	if r.DueDate != nil {
		if until := dates.DaysBetween(today, *r.DueDate); until < 0 {
			return true, max(-until, r.Overdue.Days)
		}
	}
	return false, 0
}

func newTask(kind models.TaskType, priority models.TaskPriority, due, today time.Time) *models.Task {
	t := &models.Task{
		Type:     kind,
		Priority: priority,
		Date:     due,
		DueDate:  due,
		Notifications: models.TaskNotifications{
			Enabled:      true,
			ReminderDate: dates.Ptr(reminder.FlatOneDayLeadTime(due)),
		},
	}
	t.ID = uuid.NewString()
	t.CreatedAt = today
	return t
}

func methodLabel(r payment.Record) string {
	if m := r.Method(); m != "" {
		return string(m)
	}
	return "inconnu"
}
