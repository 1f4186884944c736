package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/middleware"
	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/payment"
	"cpap-admin-server/internal/services"
	"cpap-admin-server/internal/utils"
)

// SaleHandler handles equipment sales.
type SaleHandler struct {
	DB       *gorm.DB
	Tasks    *services.TaskService
	Log      *zap.Logger
	Location *time.Location
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(db *gorm.DB, tasks *services.TaskService, log *zap.Logger, loc *time.Location) *SaleHandler {
	return &SaleHandler{DB: db, Tasks: tasks, Log: log, Location: loc}
}

// SaleItemRequest is one line of a sale.
type SaleItemRequest struct {
	DeviceID    *string `json:"deviceId"`
	Description string  `json:"description" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,gte=1"`
	UnitPrice   float64 `json:"unitPrice" binding:"gte=0"`
}

// CreateSaleRequest represents a sale with its items and payments.
type CreateSaleRequest struct {
	PatientID   string            `json:"patientId" binding:"required"`
	Date        string            `json:"date"`
	TotalAmount float64           `json:"totalAmount" binding:"gte=0"`
	Notes       string            `json:"notes"`
	Items       []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	Payments    []PaymentRequest  `json:"payments" binding:"dive"`
}

// CreateSale records a sale, marks sold devices and schedules its payment follow-ups.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req CreateSaleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	for i := range req.Payments {
		if err := utils.Validate(req.Payments[i]); err != nil {
			utils.ValidationFailed(c, err)
			return
		}
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", req.PatientID).Error; err != nil {
		respondDBError(c, err, "Patient")
		return
	}

	date := h.Tasks.Today()
	if req.Date != "" {
		d, err := dates.Parse(req.Date, h.Location)
		if err != nil {
			utils.BadRequest(c, "Invalid date: "+err.Error())
			return
		}
		date = d
	}

	createdBy, _ := middleware.GetUserIDFromContext(c)
	sale := models.Sale{
		PatientID:   patient.ID,
		Date:        date,
		TotalAmount: req.TotalAmount,
		Status:      models.SalePending,
		Notes:       req.Notes,
		CreatedBy:   createdBy,
	}
	var itemsTotal float64
	for _, it := range req.Items {
		item := models.SaleItem{DeviceID: it.DeviceID, Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		itemsTotal += item.LineTotal()
		sale.Items = append(sale.Items, item)
	}
	if sale.TotalAmount == 0 {
		sale.TotalAmount = itemsTotal
	}
	for i, pr := range req.Payments {
		p, err := pr.toModel(h.Location)
		if err != nil {
			utils.BadRequest(c, fmt.Sprintf("Invalid payment %d: %v", i+1, err))
			return
		}
		sale.Payments = append(sale.Payments, p)
	}

	today := h.Tasks.Today()
	_, _, outstanding := payment.Totals(models.Records(sale.Payments), today)
	if len(sale.Payments) > 0 && outstanding == 0 {
		sale.Status = models.SaleCompleted
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		for _, it := range sale.Items {
			if it.DeviceID == nil {
				continue
			}
			res := tx.Model(&models.Device{}).
				Where("id = ? AND status = ?", *it.DeviceID, models.DeviceAvailable).
				Update("status", models.DeviceSold)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("device %s is not available", *it.DeviceID)
			}
		}
		return tx.Create(&sale).Error
	})
	if err != nil {
		utils.BadRequest(c, "Failed to create sale: "+err.Error())
		return
	}

	if _, err := h.Tasks.OnSale(c.Request.Context(), &sale, patient.FullName()); err != nil {
		h.Log.Error("failed to create sale follow-ups", zap.Error(err), zap.String("sale_id", sale.ID))
	}
	utils.Created(c, "Sale created successfully", sale)
}

// GetSales lists sales, newest first, optionally filtered by ?patientId=.
func (h *SaleHandler) GetSales(c *gin.Context) {
	q := h.DB.Preload("Items").Preload("Payments").Order("date desc")
	if id := c.Query("patientId"); id != "" {
		q = q.Where("patient_id = ?", id)
	}

	var sales []models.Sale
	if err := q.Find(&sales).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch sales: "+err.Error())
		return
	}
	utils.List(c, "Sales fetched successfully", sales)
}

// GetSaleByID handles fetching a single sale with its items and payments.
func (h *SaleHandler) GetSaleByID(c *gin.Context) {
	var sale models.Sale
	if err := h.DB.Preload("Items").Preload("Payments").First(&sale, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, err, "Sale")
		return
	}
	utils.Success(c, "Sale fetched successfully", sale)
}
