package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/overdue"
	"cpap-admin-server/internal/payment"
	"cpap-admin-server/internal/repository"
)

var today = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func newTaskService(db *gorm.DB) *TaskService {
	return NewTaskService(db, repository.NewTaskRepository(db), zap.NewNop(), dates.Fixed(today))
}

func seedRental(t *testing.T, db *gorm.DB, payments ...models.Payment) *models.Rental {
	t.Helper()
	patient := models.Patient{FirstName: "Amel", LastName: "Trabelsi", Phone: "22000000"}
	require.NoError(t, db.Create(&patient).Error)
	device := models.Device{Name: "AirSense 10", Model: "S10", SerialNumber: "SN-" + t.Name(), Status: models.DeviceRented}
	require.NoError(t, db.Create(&device).Error)

	rental := models.Rental{
		PatientID: patient.ID,
		DeviceID:  device.ID,
		StartDate: today.AddDate(0, -2, 0),
		Status:    models.RentalActive,
		Payments:  payments,
	}
	require.NoError(t, db.Create(&rental).Error)
	return &rental
}

func TestOnDiagnosticCreatesOneFollowup(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	ctx := context.Background()

	diag := &models.Diagnostic{PatientID: "p1", Date: today, IAHResult: 42}
	diag.ID = "d1"

	task, err := svc.OnDiagnostic(ctx, diag, "Amel Trabelsi")
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, models.TaskDiagnosticFollowup, task.Type)
	assert.Equal(t, today.AddDate(0, 0, 7), task.DueDate)

	// A second call for the same reading is a no-op.
	_, err = svc.OnDiagnostic(ctx, diag, "Amel Trabelsi")
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&models.Task{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestOnDiagnosticIgnoresMildReadings(t *testing.T) {
	svc := newTaskService(setupTestDB(t))
	diag := &models.Diagnostic{PatientID: "p1", Date: today, IAHResult: 12}
	diag.ID = "d2"

	task, err := svc.OnDiagnostic(context.Background(), diag, "x")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestOnSaleCashRestAndCNAM(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)

	sale := &models.Sale{PatientID: "p1", Date: today}
	sale.ID = "s1"
	cash := models.Payment{Type: payment.MethodCash, Amount: 300, CashTotal: 1000, CashAcompte: 300, CashRest: 700, CashRestDate: dates.Ptr(today.AddDate(0, 1, 0))}
	cash.ID = "pay-cash"
	cnam := models.Payment{Type: payment.MethodCNAM, CNAMStatus: payment.CNAMPending, CNAMSupportAmount: 500, CNAMFollowupDate: dates.Ptr(today.AddDate(0, 0, 15))}
	cnam.ID = "pay-cnam"
	sale.Payments = []models.Payment{cash, cnam}

	created, err := svc.OnSale(context.Background(), sale, "Amel Trabelsi")
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, models.TaskPaymentReminder, created[0].Type)
	assert.Equal(t, models.TaskCNAMFollowup, created[1].Type)
	require.NotNil(t, created[0].PatientID)
	assert.Equal(t, "p1", *created[0].PatientID)

	again, err := svc.OnSale(context.Background(), sale, "Amel Trabelsi")
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestSyncPaymentTasks(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	ctx := context.Background()

	soon := models.Payment{Type: payment.MethodCheque, Amount: 120, DueDate: dates.Ptr(today.AddDate(0, 0, 2))}
	late := models.Payment{Type: payment.MethodTraite, Amount: 120, DueDate: dates.Ptr(today.AddDate(0, 0, -10))}
	far := models.Payment{Type: payment.MethodCash, Amount: 120, DueDate: dates.Ptr(today.AddDate(0, 0, 20))}
	seedRental(t, db, soon, late, far)

	res, err := svc.SyncPaymentTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	tasks, err := svc.ListRange(ctx, today.AddDate(0, 0, -30), today.AddDate(0, 0, 30), repository.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, models.PriorityUrgent, tasks[0].Priority)
	assert.Equal(t, "Amel Trabelsi", tasks[0].PatientName)
	assert.Equal(t, models.PriorityMedium, tasks[1].Priority)

	res, err = svc.SyncPaymentTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{}, res)
}

func TestSyncPaymentTasksEscalatesOnceDue(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	transfer := models.Payment{Type: payment.MethodVirement, Amount: 90, DueDate: dates.Ptr(today.AddDate(0, 0, 2))}
	seedRental(t, db, transfer)

	res, err := newTaskService(db).SyncPaymentTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Created: 1}, res)

	later := NewTaskService(db, repository.NewTaskRepository(db), zap.NewNop(), dates.Fixed(today.AddDate(0, 0, 14)))
	res, err = later.SyncPaymentTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Refreshed: 1}, res)

	tasks, err := later.ListRange(ctx, today.AddDate(0, 0, -30), today.AddDate(0, 0, 30), repository.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.PriorityUrgent, tasks[0].Priority)
	assert.Equal(t, "Paiement en retard - Amel Trabelsi", tasks[0].Title)
	assert.Contains(t, tasks[0].Description, "12 jour(s)")
	assert.Equal(t, true, tasks[0].RelatedData["isOverdue"])
	assert.True(t, tasks[0].DueDate.Equal(today.AddDate(0, 0, 2)))

	res, err = later.SyncPaymentTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{}, res)
}

func TestSyncPaymentTasksLeavesCompletedTasks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	transfer := models.Payment{Type: payment.MethodVirement, Amount: 90, DueDate: dates.Ptr(today.AddDate(0, 0, 2))}
	seedRental(t, db, transfer)

	svc := newTaskService(db)
	_, err := svc.SyncPaymentTasks(ctx)
	require.NoError(t, err)
	tasks, err := svc.ListRange(ctx, today, today.AddDate(0, 0, 7), repository.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	_, err = svc.SetCompleted(ctx, tasks[0].ID, true)
	require.NoError(t, err)

	later := NewTaskService(db, repository.NewTaskRepository(db), zap.NewNop(), dates.Fixed(today.AddDate(0, 0, 14)))
	res, err := later.SyncPaymentTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{}, res)

	got, err := later.Get(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, got.Priority)
	assert.True(t, got.Completed)
}

// Dates stored as UTC instants still fall on the business day they were entered for.
func TestPaymentTasksInBusinessTimezone(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tunis := time.FixedZone("CET", 60*60)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, tunis)

	// Midnight on 12 June in Tunis, as a UTC-configured driver hands it back.
	due := time.Date(2024, 6, 11, 23, 0, 0, 0, time.UTC)
	seedRental(t, db, models.Payment{Type: payment.MethodVirement, Amount: 90, DueDate: &due, PeriodEnd: &due})

	svc := NewTaskService(db, repository.NewTaskRepository(db), zap.NewNop(), dates.Fixed(now))
	res, err := svc.SyncPaymentTasks(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)

	tasks, err := svc.ListRange(ctx, today.AddDate(0, 0, -1), today.AddDate(0, 0, 7), repository.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.PriorityMedium, tasks[0].Priority)
	assert.True(t, tasks[0].DueDate.Equal(time.Date(2024, 6, 12, 0, 0, 0, 0, tunis)))

	rows, err := NewDashboardService(db, dates.Fixed(now)).DevicePaymentStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].PaymentEndDate)
	assert.Equal(t, "2024-06-12", rows[0].PaymentEndDate.Format(dates.Layout))
}

func TestTaskLifecycle(t *testing.T) {
	svc := newTaskService(setupTestDB(t))
	ctx := context.Background()

	task := &models.Task{
		Title: "Livrer le masque",
		Date:  today,
		Notifications: models.TaskNotifications{
			Enabled:      true,
			ReminderDate: dates.Ptr(today.AddDate(0, 0, -1)),
		},
	}
	require.NoError(t, svc.CreateManual(ctx, task))
	assert.Equal(t, models.TaskManual, task.Type)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, today, task.DueDate)

	due, err := svc.DueReminders(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)

	got, err := svc.MarkReminderSent(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.Notifications.ReminderSent)

	due, err = svc.DueReminders(ctx)
	require.NoError(t, err)
	assert.Empty(t, due)

	got, err = svc.SetCompleted(ctx, task.ID, true)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	_, err = svc.SetCompleted(ctx, "missing", true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDevicePaymentStatuses(t *testing.T) {
	db := setupTestDB(t)
	svc := NewDashboardService(db, dates.Fixed(today))

	paid := models.Payment{Type: payment.MethodCash, Amount: 100, PaymentDate: dates.Ptr(today.AddDate(0, 0, -30))}
	open := models.Payment{Type: payment.MethodCheque, Amount: 100, DueDate: dates.Ptr(today.AddDate(0, 0, 1)), PeriodEnd: dates.Ptr(today.AddDate(0, 2, 0))}
	seedRental(t, db, paid, open)

	rows, err := svc.DevicePaymentStatuses(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "AirSense 10", row.Name)
	assert.Equal(t, overdue.StatusCritical, row.PaymentStatus)
	assert.Equal(t, 200.0, row.TotalAmount)
	assert.Equal(t, 100.0, row.PaidAmount)
	assert.Equal(t, 100.0, row.OutstandingAmount)
	require.NotNil(t, row.ReminderDate)
	assert.Nil(t, row.OverdueDays)
}

func TestPaymentSchedule(t *testing.T) {
	db := setupTestDB(t)
	svc := NewDashboardService(db, dates.Fixed(today))

	p := models.Payment{Type: payment.MethodCheque, Amount: 300, ChequeDate: dates.Ptr(today), ChequeInstallments: 3}
	require.NoError(t, db.Create(&p).Error)

	entries, err := svc.PaymentSchedule(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 100.0, entries[0].Amount)

	_, err = svc.PaymentSchedule(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}
