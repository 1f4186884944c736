// Package repository persists calendar tasks.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"cpap-admin-server/internal/models"
)

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = errors.New("task not found")

// TaskFilter narrows ListByDateRange. Zero values match everything.
type TaskFilter struct {
	PatientID string
	Type      models.TaskType
	Completed *bool
}

// TaskRepository stores the tasks produced by the follow-up factory and by staff.
type TaskRepository interface {
	Append(ctx context.Context, t *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	ListByDateRange(ctx context.Context, from, to time.Time, f TaskFilter) ([]models.Task, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.Task, error)
	ListDueReminders(ctx context.Context, asOf time.Time) ([]models.Task, error)
	FindBySourceKey(ctx context.Context, key string) (*models.Task, error)
	Update(ctx context.Context, t *models.Task) error
	Refresh(ctx context.Context, t *models.Task) error
}

// GormTaskRepository is the gorm implementation of TaskRepository.
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a GormTaskRepository.
func NewTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) Append(ctx context.Context, t *models.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *GormTaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByDateRange returns tasks whose date falls in [from, to], by date then priority.
func (r *GormTaskRepository) ListByDateRange(ctx context.Context, from, to time.Time, f TaskFilter) ([]models.Task, error) {
	q := r.db.WithContext(ctx).Where("date >= ? AND date <= ?", from, to)
	if f.PatientID != "" {
		q = q.Where("patient_id = ?", f.PatientID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Completed != nil {
		q = q.Where("completed = ?", *f.Completed)
	}
	var tasks []models.Task
	if err := q.Order("date asc").Order("created_at asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *GormTaskRepository) ListByPatient(ctx context.Context, patientID string) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).Order("date asc").Find(&tasks).Error
	return tasks, err
}

// ListDueReminders returns open tasks whose reminder is enabled, unsent and due at asOf.
func (r *GormTaskRepository) ListDueReminders(ctx context.Context, asOf time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("completed = ? AND notification_enabled = ? AND notification_reminder_sent = ?", false, true, false).
		Where("notification_reminder_date IS NOT NULL AND notification_reminder_date <= ?", asOf).
		Order("notification_reminder_date asc").
		Find(&tasks).Error
	return tasks, err
}

// FindBySourceKey returns the oldest task derived from key.
func (r *GormTaskRepository) FindBySourceKey(ctx context.Context, key string) (*models.Task, error) {
	var t models.Task
	err := r.db.WithContext(ctx).Where("source_key = ?", key).Order("created_at asc").First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Update persists the mutable fields of a task: completion and reminder state.
func (r *GormTaskRepository) Update(ctx context.Context, t *models.Task) error {
	res := r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
		"completed":                  t.Completed,
		"notification_enabled":       t.Notifications.Enabled,
		"notification_reminder_sent": t.Notifications.ReminderSent,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Refresh rewrites the wording, priority and related data of a task. Its place on the
// calendar is kept.
func (r *GormTaskRepository) Refresh(ctx context.Context, t *models.Task) error {
	res := r.db.WithContext(ctx).Model(t).
		Select("title", "description", "priority", "related_data").
		Updates(t)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
