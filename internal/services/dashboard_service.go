package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/overdue"
	"cpap-admin-server/internal/payment"
)

// ErrPaymentNotFound is returned when a payment id is unknown.
var ErrPaymentNotFound = errors.New("payment not found")

// DashboardService projects rentals and payments for the dashboard.
type DashboardService struct {
	db    *gorm.DB
	clock dates.Clock
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(db *gorm.DB, clock dates.Clock) *DashboardService {
	return &DashboardService{db: db, clock: clock}
}

// DevicePaymentStatuses returns one row per actively rented device.
func (s *DashboardService) DevicePaymentStatuses(ctx context.Context) ([]overdue.DeviceWithPaymentStatus, error) {
	var rentals []models.Rental
	err := s.db.WithContext(ctx).
		Preload("Device").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Where("status = ?", models.RentalActive).
		Order("start_date asc").
		Find(&rentals).Error
	if err != nil {
		return nil, fmt.Errorf("load active rentals: %w", err)
	}

	today := dates.Day(s.clock())
	loc := today.Location()
	rows := make([]overdue.DeviceWithPaymentStatus, 0, len(rentals))
	for _, r := range rentals {
		dev := overdue.DeviceInfo{
			ID:           r.Device.ID,
			Name:         r.Device.Name,
			Model:        r.Device.Model,
			SerialNumber: r.Device.SerialNumber,
		}
		records := models.Records(r.Payments)
		for i := range records {
			records[i] = records[i].In(loc)
		}
		var end *time.Time
		if r.EndDate != nil {
			end = dates.Ptr(r.EndDate.In(loc))
		}
		rows = append(rows, overdue.Project(dev, end, records, today))
	}
	return rows, nil
}

// PaymentSchedule expands a stored payment into its schedule preview.
func (s *DashboardService) PaymentSchedule(ctx context.Context, paymentID string) ([]payment.ScheduleEntry, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).First(&p, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment.GenerateSchedulePreview(p.ToRecord().In(s.clock().Location()))
}
