package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/followup"
	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/repository"
)

// TaskService turns diagnostics, sales and rental payments into calendar tasks and
// manages their lifecycle.
type TaskService struct {
	db    *gorm.DB
	tasks repository.TaskRepository
	log   *zap.Logger
	clock dates.Clock
}

// NewTaskService creates a TaskService.
func NewTaskService(db *gorm.DB, tasks repository.TaskRepository, log *zap.Logger, clock dates.Clock) *TaskService {
	return &TaskService{db: db, tasks: tasks, log: log, clock: clock}
}

// Today is the service's current date.
func (s *TaskService) Today() time.Time {
	return dates.Day(s.clock())
}

// OnDiagnostic records the follow-up of a severe reading. It returns nil when none is needed.
func (s *TaskService) OnDiagnostic(ctx context.Context, d *models.Diagnostic, patientName string) (*models.Task, error) {
	t, err := followup.DiagnosticFollowupTask(followup.Reading{
		ID:          d.ID,
		Date:        d.Date,
		IAH:         d.IAHResult,
		PatientID:   d.PatientID,
		PatientName: patientName,
	}, s.Today())
	if err != nil || t == nil {
		return nil, err
	}
	if _, err := s.record(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// OnSale records the cash remainder and CNAM follow-ups of a sale's payments.
func (s *TaskService) OnSale(ctx context.Context, sale *models.Sale, patientName string) ([]models.Task, error) {
	today := s.Today()
	var created []models.Task
	for i := range sale.Payments {
		rec := sale.Payments[i].ToRecord().In(today.Location())
		for _, t := range []*models.Task{
			followup.CashRestTask(rec, patientName, sale.ID, today),
			followup.CNAMFollowupTask(rec, patientName, sale.ID, today),
		} {
			if t == nil {
				continue
			}
			t.PatientID = &sale.PatientID
			outcome, err := s.record(ctx, t)
			if err != nil {
				return created, err
			}
			if outcome == taskCreated {
				created = append(created, *t)
			}
		}
	}
	return created, nil
}

// OnRentalPayment records the reminder and overdue tasks a rental payment warrants today.
func (s *TaskService) OnRentalPayment(ctx context.Context, rental *models.Rental, p *models.Payment, patientName string) ([]models.Task, error) {
	created, _, err := s.derivePaymentTasks(ctx, rental, p, patientName)
	return created, err
}

// SyncResult counts what a sync changed.
type SyncResult struct {
	Created   int `json:"created"`
	Refreshed int `json:"refreshed"`
}

// SyncPaymentTasks re-derives payment tasks across active rentals. Missing tasks are
// recorded and open ones follow the payment, so an upcoming reminder turns into a late
// one once the due date passes.
func (s *TaskService) SyncPaymentTasks(ctx context.Context) (SyncResult, error) {
	var rentals []models.Rental
	err := s.db.WithContext(ctx).
		Preload("Patient").
		Preload("Payments").
		Where("status = ?", models.RentalActive).
		Find(&rentals).Error
	if err != nil {
		return SyncResult{}, fmt.Errorf("load active rentals: %w", err)
	}

	var res SyncResult
	for i := range rentals {
		r := &rentals[i]
		for j := range r.Payments {
			created, refreshed, err := s.derivePaymentTasks(ctx, r, &r.Payments[j], r.Patient.FullName())
			if err != nil {
				return res, err
			}
			res.Created += len(created)
			res.Refreshed += refreshed
		}
	}
	s.log.Info("payment tasks synced",
		zap.Int("rentals", len(rentals)),
		zap.Int("created", res.Created),
		zap.Int("refreshed", res.Refreshed))
	return res, nil
}

func (s *TaskService) derivePaymentTasks(ctx context.Context, rental *models.Rental, p *models.Payment, patientName string) ([]models.Task, int, error) {
	today := s.Today()
	rec := p.ToRecord().In(today.Location())
	var created []models.Task
	refreshed := 0
	for _, t := range []*models.Task{
		followup.PaymentReminderTask(rec, patientName, rental.ID, today),
		followup.OverduePaymentTask(rec, patientName, rental.ID, today),
		followup.CashRestTask(rec, patientName, "", today),
		followup.CNAMFollowupTask(rec, patientName, "", today),
	} {
		if t == nil {
			continue
		}
		t.PatientID = &rental.PatientID
		outcome, err := s.record(ctx, t)
		if err != nil {
			return created, refreshed, err
		}
		switch outcome {
		case taskCreated:
			created = append(created, *t)
		case taskRefreshed:
			refreshed++
		}
	}
	return created, refreshed, nil
}

// CreateManual records a task entered by staff.
func (s *TaskService) CreateManual(ctx context.Context, t *models.Task) error {
	if t.Type == "" {
		t.Type = models.TaskManual
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.DueDate.IsZero() {
		t.DueDate = t.Date
	}
	if err := s.tasks.Append(ctx, t); err != nil {
		s.log.Error("failed to append task", zap.Error(err), zap.String("title", t.Title))
		return err
	}
	return nil
}

// Get returns a task by id.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

// ListRange returns the tasks of a calendar window.
func (s *TaskService) ListRange(ctx context.Context, from, to time.Time, f repository.TaskFilter) ([]models.Task, error) {
	return s.tasks.ListByDateRange(ctx, from, to, f)
}

// ListByPatient returns every task of a patient.
func (s *TaskService) ListByPatient(ctx context.Context, patientID string) ([]models.Task, error) {
	return s.tasks.ListByPatient(ctx, patientID)
}

// SetCompleted toggles a task's completion.
func (s *TaskService) SetCompleted(ctx context.Context, id string, completed bool) (*models.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Completed = completed
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// MarkReminderSent records that a task's reminder went out.
func (s *TaskService) MarkReminderSent(ctx context.Context, id string) (*models.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Notifications.ReminderSent = true
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DueReminders lists open tasks whose reminder is due by the end of today.
func (s *TaskService) DueReminders(ctx context.Context) ([]models.Task, error) {
	endOfDay := dates.AddDays(s.Today(), 1).Add(-time.Nanosecond)
	return s.tasks.ListDueReminders(ctx, endOfDay)
}

type taskOutcome int

const (
	taskUnchanged taskOutcome = iota
	taskCreated
	taskRefreshed
)

// record stores t unless a task with the same source key exists. An existing open task
// takes t's wording and priority when they differ; completed ones are left alone.
func (s *TaskService) record(ctx context.Context, t *models.Task) (taskOutcome, error) {
	if t.SourceKey != "" {
		existing, err := s.tasks.FindBySourceKey(ctx, t.SourceKey)
		switch {
		case err == nil:
			return s.refresh(ctx, existing, t)
		case !errors.Is(err, repository.ErrNotFound):
			return taskUnchanged, err
		}
	}
	if err := s.tasks.Append(ctx, t); err != nil {
		s.log.Error("failed to append task", zap.Error(err), zap.String("source_key", t.SourceKey))
		return taskUnchanged, err
	}
	s.log.Info("task created",
		zap.String("task_id", t.ID),
		zap.String("type", string(t.Type)),
		zap.String("priority", string(t.Priority)),
		zap.String("source_key", t.SourceKey))
	return taskCreated, nil
}

func (s *TaskService) refresh(ctx context.Context, existing, derived *models.Task) (taskOutcome, error) {
	if existing.Completed ||
		(existing.Title == derived.Title &&
			existing.Description == derived.Description &&
			existing.Priority == derived.Priority) {
		s.log.Debug("task already recorded", zap.String("source_key", existing.SourceKey))
		*derived = *existing
		return taskUnchanged, nil
	}

	previous := existing.Priority
	existing.Title = derived.Title
	existing.Description = derived.Description
	existing.Priority = derived.Priority
	existing.RelatedData = derived.RelatedData
	if err := s.tasks.Refresh(ctx, existing); err != nil {
		s.log.Error("failed to refresh task", zap.Error(err), zap.String("task_id", existing.ID))
		return taskUnchanged, err
	}
	s.log.Info("task refreshed",
		zap.String("task_id", existing.ID),
		zap.String("from_priority", string(previous)),
		zap.String("priority", string(existing.Priority)),
		zap.String("source_key", existing.SourceKey))
	*derived = *existing
	return taskRefreshed, nil
}
