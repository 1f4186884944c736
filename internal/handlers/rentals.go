package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/middleware"
	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/services"
	"cpap-admin-server/internal/utils"
)

// RentalHandler handles device rentals and their payments.
type RentalHandler struct {
	DB       *gorm.DB
	Tasks    *services.TaskService
	Log      *zap.Logger
	Location *time.Location
}

// NewRentalHandler creates a new RentalHandler.
func NewRentalHandler(db *gorm.DB, tasks *services.TaskService, log *zap.Logger, loc *time.Location) *RentalHandler {
	return &RentalHandler{DB: db, Tasks: tasks, Log: log, Location: loc}
}

var errDeviceUnavailable = errors.New("device is not available")

// lendDevice marks the rental's device RENTED and stores the rental in one transaction.
// The status flip only matches an AVAILABLE device, so of two concurrent rentals of the
// same device one gets errDeviceUnavailable.
func lendDevice(db *gorm.DB, rental *models.Rental) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Device{}).
			Where("id = ? AND status = ?", rental.DeviceID, models.DeviceAvailable).
			Update("status", models.DeviceRented)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errDeviceUnavailable
		}
		return tx.Omit("Patient", "Device").Create(rental).Error
	})
}

// CreateRentalRequest represents the request body for lending a device.
type CreateRentalRequest struct {
	PatientID   string           `json:"patientId" binding:"required"`
	DeviceID    string           `json:"deviceId" binding:"required"`
	StartDate   string           `json:"startDate" binding:"required"`
	EndDate     string           `json:"endDate"`
	MonthlyRate float64          `json:"monthlyRate" binding:"gte=0"`
	Notes       string           `json:"notes"`
	Payments    []PaymentRequest `json:"payments" binding:"dive"`
}

// CreateRental lends an available device to a patient.
func (h *RentalHandler) CreateRental(c *gin.Context) {
	var req CreateRentalRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	for i := range req.Payments {
		if err := utils.Validate(req.Payments[i]); err != nil {
			utils.ValidationFailed(c, err)
			return
		}
	}

	start, err := dates.Parse(req.StartDate, h.Location)
	if err != nil {
		utils.BadRequest(c, "Invalid startDate: "+err.Error())
		return
	}
	end, err := optionalDate(req.EndDate, h.Location)
	if err != nil {
		utils.BadRequest(c, "Invalid endDate: "+err.Error())
		return
	}
	if end != nil && end.Before(start) {
		utils.BadRequest(c, "endDate must not precede startDate")
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", req.PatientID).Error; err != nil {
		respondDBError(c, err, "Patient")
		return
	}
	var device models.Device
	if err := h.DB.First(&device, "id = ?", req.DeviceID).Error; err != nil {
		respondDBError(c, err, "Device")
		return
	}
	if device.Status != models.DeviceAvailable {
		utils.Conflict(c, "Device is not available")
		return
	}

	createdBy, _ := middleware.GetUserIDFromContext(c)
	rental := models.Rental{
		PatientID:   patient.ID,
		DeviceID:    device.ID,
		StartDate:   start,
		EndDate:     end,
		MonthlyRate: req.MonthlyRate,
		Status:      models.RentalActive,
		Notes:       req.Notes,
		CreatedBy:   createdBy,
	}
	if rental.MonthlyRate == 0 {
		rental.MonthlyRate = device.RentalPrice
	}
	for i, pr := range req.Payments {
		p, err := pr.toModel(h.Location)
		if err != nil {
			utils.BadRequest(c, fmt.Sprintf("Invalid payment %d: %v", i+1, err))
			return
		}
		rental.Payments = append(rental.Payments, p)
	}

	if err := lendDevice(h.DB, &rental); err != nil {
		if errors.Is(err, errDeviceUnavailable) {
			utils.Conflict(c, "Device is not available")
			return
		}
		utils.InternalServerError(c, "Failed to create rental: "+err.Error())
		return
	}
	rental.Device = device
	rental.Device.Status = models.DeviceRented

	for i := range rental.Payments {
		if _, err := h.Tasks.OnRentalPayment(c.Request.Context(), &rental, &rental.Payments[i], patient.FullName()); err != nil {
			h.Log.Error("failed to create payment follow-ups", zap.Error(err), zap.String("rental_id", rental.ID))
		}
	}
	utils.Created(c, "Rental created successfully", rental)
}

// GetRentals lists rentals, optionally filtered by ?status= and ?patientId=.
func (h *RentalHandler) GetRentals(c *gin.Context) {
	q := h.DB.Preload("Device").Preload("Payments").Order("start_date desc")
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}
	if id := c.Query("patientId"); id != "" {
		q = q.Where("patient_id = ?", id)
	}

	var rentals []models.Rental
	if err := q.Find(&rentals).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch rentals: "+err.Error())
		return
	}
	utils.List(c, "Rentals fetched successfully", rentals)
}

// GetRentalByID handles fetching a single rental with its device and payments.
func (h *RentalHandler) GetRentalByID(c *gin.Context) {
	var rental models.Rental
	if err := h.DB.Preload("Device").Preload("Payments").First(&rental, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, err, "Rental")
		return
	}
	utils.Success(c, "Rental fetched successfully", rental)
}

// AddPayment attaches a payment to an active rental and schedules its reminders.
func (h *RentalHandler) AddPayment(c *gin.Context) {
	var req PaymentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var rental models.Rental
	if err := h.DB.Preload("Patient").First(&rental, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, err, "Rental")
		return
	}
	if rental.Status != models.RentalActive {
		utils.Conflict(c, "Rental is not active")
		return
	}

	p, err := req.toModel(h.Location)
	if err != nil {
		utils.BadRequest(c, "Invalid payment: "+err.Error())
		return
	}
	p.RentalID = &rental.ID
	if err := h.DB.Create(&p).Error; err != nil {
		utils.InternalServerError(c, "Failed to add payment: "+err.Error())
		return
	}

	tasks, err := h.Tasks.OnRentalPayment(c.Request.Context(), &rental, &p, rental.Patient.FullName())
	if err != nil {
		h.Log.Error("failed to create payment follow-ups", zap.Error(err), zap.String("payment_id", p.ID))
	}
	utils.Created(c, "Payment added successfully", gin.H{"payment": p, "tasks": tasks})
}

// SettlePaymentRequest records when a payment was received.
type SettlePaymentRequest struct {
	PaymentDate string `json:"paymentDate" binding:"required"`
}

// SettlePayment records the receipt of a rental payment and clears its overdue marker.
func (h *RentalHandler) SettlePayment(c *gin.Context) {
	var req SettlePaymentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	paidOn, err := dates.Parse(req.PaymentDate, h.Location)
	if err != nil {
		utils.BadRequest(c, "Invalid paymentDate: "+err.Error())
		return
	}

	var p models.Payment
	if err := h.DB.First(&p, "id = ? AND rental_id = ?", c.Param("paymentId"), c.Param("id")).Error; err != nil {
		respondDBError(c, err, "Payment")
		return
	}
	notOverdue := false
	p.PaymentDate = &paidOn
	p.IsOverdue = &notOverdue
	p.OverdueDays = 0
	if err := h.DB.Save(&p).Error; err != nil {
		utils.InternalServerError(c, "Failed to update payment: "+err.Error())
		return
	}
	utils.Success(c, "Payment settled successfully", p)
}

// EndRentalRequest closes a rental. The end date defaults to today.
type EndRentalRequest struct {
	EndDate string `json:"endDate"`
	Status  string `json:"status" binding:"omitempty,oneof=ENDED CANCELLED"`
	Notes   string `json:"notes"`
}

// EndRental closes an active rental and returns its device to the inventory.
func (h *RentalHandler) EndRental(c *gin.Context) {
	var req EndRentalRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var rental models.Rental
	if err := h.DB.First(&rental, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, err, "Rental")
		return
	}
	if rental.Status != models.RentalActive {
		utils.Conflict(c, "Rental is already closed")
		return
	}

	end := h.Tasks.Today()
	if req.EndDate != "" {
		d, err := dates.Parse(req.EndDate, h.Location)
		if err != nil {
			utils.BadRequest(c, "Invalid endDate: "+err.Error())
			return
		}
		end = d
	}
	rental.EndDate = &end
	rental.Status = models.RentalEnded
	if req.Status != "" {
		rental.Status = models.RentalStatus(req.Status)
	}
	if req.Notes != "" {
		rental.Notes = req.Notes
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Patient", "Device", "Payments").Save(&rental).Error; err != nil {
			return err
		}
		return tx.Model(&models.Device{}).Where("id = ?", rental.DeviceID).Update("status", models.DeviceAvailable).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to end rental: "+err.Error())
		return
	}
	utils.Success(c, "Rental ended successfully", rental)
}
