package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Task{}))
	return db
}

func task(title string, date time.Time, patientID string) *models.Task {
	t := &models.Task{
		Title:    title,
		Type:     models.TaskManual,
		Priority: models.PriorityMedium,
		Date:     date,
		DueDate:  date,
		Notifications: models.TaskNotifications{
			Enabled:      true,
			ReminderDate: dates.Ptr(date.AddDate(0, 0, -1)),
		},
	}
	if patientID != "" {
		t.PatientID = &patientID
	}
	return t
}

func TestAppendAndGet(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()

	tk := task("Appeler le patient", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "p1")
	tk.RelatedData = map[string]interface{}{"saleId": "s1", "amount": 700.0}
	tk.SourceKey = "cash-rest:x"
	require.NoError(t, repo.Append(ctx, tk))
	require.NotEmpty(t, tk.ID)

	got, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Appeler le patient", got.Title)
	assert.Equal(t, "s1", got.RelatedData["saleId"])
	assert.Equal(t, 700.0, got.RelatedData["amount"])
	assert.True(t, got.Notifications.Enabled)
	require.NotNil(t, got.Notifications.ReminderDate)

	found, err := repo.FindBySourceKey(ctx, "cash-rest:x")
	require.NoError(t, err)
	assert.Equal(t, tk.ID, found.ID)
	_, err = repo.FindBySourceKey(ctx, "cash-rest:y")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByDateRange(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(ctx, task("b", base.AddDate(0, 0, 2), "p1")))
	require.NoError(t, repo.Append(ctx, task("a", base, "p2")))
	require.NoError(t, repo.Append(ctx, task("out", base.AddDate(0, 1, 0), "p1")))

	got, err := repo.ListByDateRange(ctx, base, base.AddDate(0, 0, 7), TaskFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Title)
	assert.Equal(t, "b", got[1].Title)

	got, err = repo.ListByDateRange(ctx, base, base.AddDate(0, 2, 0), TaskFilter{PatientID: "p1"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	done := true
	got, err = repo.ListByDateRange(ctx, base, base.AddDate(0, 2, 0), TaskFilter{Completed: &done})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateAndDueReminders(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	soon := task("soon", base, "p1")
	later := task("later", base.AddDate(0, 0, 10), "p1")
	require.NoError(t, repo.Append(ctx, soon))
	require.NoError(t, repo.Append(ctx, later))

	due, err := repo.ListDueReminders(ctx, base)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "soon", due[0].Title)

	soon.Notifications.ReminderSent = true
	require.NoError(t, repo.Update(ctx, soon))

	due, err = repo.ListDueReminders(ctx, base)
	require.NoError(t, err)
	assert.Empty(t, due)

	later.Completed = true
	require.NoError(t, repo.Update(ctx, later))
	got, err := repo.GetByID(ctx, later.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	byPatient, err := repo.ListByPatient(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, byPatient, 2)

	assert.ErrorIs(t, repo.Update(ctx, &models.Task{BaseModel: models.BaseModel{ID: "nope"}}), ErrNotFound)
}

func TestRefresh(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	tk := task("Paiement à venir", base, "p1")
	tk.Priority = models.PriorityMedium
	tk.SourceKey = "payment-reminder:x"
	tk.RelatedData = map[string]interface{}{"overdueDays": 0.0}
	require.NoError(t, repo.Append(ctx, tk))

	tk.Title = "Paiement en retard"
	tk.Priority = models.PriorityUrgent
	tk.DueDate = base.AddDate(0, 0, 1)
	tk.RelatedData = map[string]interface{}{"overdueDays": 12.0}
	require.NoError(t, repo.Refresh(ctx, tk))

	got, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paiement en retard", got.Title)
	assert.Equal(t, models.PriorityUrgent, got.Priority)
	assert.True(t, got.DueDate.Equal(base))
	assert.Equal(t, 12.0, got.RelatedData["overdueDays"])
	assert.True(t, got.Date.Equal(base))

	missing := task("x", base, "p1")
	missing.ID = "missing"
	assert.ErrorIs(t, repo.Refresh(ctx, missing), ErrNotFound)
}
