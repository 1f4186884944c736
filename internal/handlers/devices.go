package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/utils"
)

// DeviceHandler handles the equipment inventory.
type DeviceHandler struct {
	DB *gorm.DB
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(db *gorm.DB) *DeviceHandler {
	return &DeviceHandler{DB: db}
}

// DeviceRequest is the body of device create and update.
type DeviceRequest struct {
	Name         string  `json:"name" binding:"required"`
	Type         string  `json:"type" binding:"required,oneof=CPAP VNI CONCENTRATEUR MASQUE ACCESSOIRE BOUTEILLE_OXYGENE POLYGRAPHE"`
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	SerialNumber string  `json:"serialNumber" binding:"required"`
	Status       string  `json:"status" binding:"omitempty,oneof=AVAILABLE RENTED SOLD MAINTENANCE"`
	SellingPrice float64 `json:"sellingPrice" binding:"gte=0"`
	RentalPrice  float64 `json:"rentalPrice" binding:"gte=0"`
	Notes        string  `json:"notes"`
}

func (r DeviceRequest) apply(d *models.Device) {
	d.Name = r.Name
	d.Type = models.DeviceType(r.Type)
	d.Brand = r.Brand
	d.Model = r.Model
	d.SerialNumber = r.SerialNumber
	if r.Status != "" {
		d.Status = models.DeviceStatus(r.Status)
	}
	d.SellingPrice = r.SellingPrice
	d.RentalPrice = r.RentalPrice
	d.Notes = r.Notes
}

// CreateDevice handles adding a unit to the inventory.
func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var req DeviceRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if h.serialTaken(c, req.SerialNumber, "") {
		return
	}

	device := models.Device{Status: models.DeviceAvailable}
	req.apply(&device)
	if err := h.DB.Create(&device).Error; err != nil {
		utils.InternalServerError(c, "Failed to create device: "+err.Error())
		return
	}
	utils.Created(c, "Device created successfully", device)
}

// GetDevices lists devices, optionally filtered by ?status= and ?type=.
func (h *DeviceHandler) GetDevices(c *gin.Context) {
	q := h.DB.Order("name asc")
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}
	if t := c.Query("type"); t != "" {
		q = q.Where("type = ?", t)
	}

	var devices []models.Device
	if err := q.Find(&devices).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch devices: "+err.Error())
		return
	}
	utils.List(c, "Devices fetched successfully", devices)
}

// GetDeviceByID handles fetching a single device.
func (h *DeviceHandler) GetDeviceByID(c *gin.Context) {
	var device models.Device
	if err := h.DB.First(&device, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, err, "Device")
		return
	}
	utils.Success(c, "Device fetched successfully", device)
}

// UpdateDevice replaces a device's details.
func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	var req DeviceRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var device models.Device
	if err := h.DB.First(&device, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, err, "Device")
		return
	}
	if h.serialTaken(c, req.SerialNumber, device.ID) {
		return
	}
	req.apply(&device)
	if err := h.DB.Save(&device).Error; err != nil {
		utils.InternalServerError(c, "Failed to update device: "+err.Error())
		return
	}
	utils.Success(c, "Device updated successfully", device)
}

// DeleteDevice removes a device that is not rented out.
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	var device models.Device
	if err := h.DB.First(&device, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, err, "Device")
		return
	}
	if device.Status == models.DeviceRented {
		utils.Conflict(c, "Device is currently rented")
		return
	}
	if err := h.DB.Delete(&device).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete device: "+err.Error())
		return
	}
	utils.Success(c, "Device deleted successfully", nil)
}

// serialTaken answers 409 when another device already carries serial.
func (h *DeviceHandler) serialTaken(c *gin.Context, serial, exceptID string) bool {
	var other models.Device
	err := h.DB.Where("serial_number = ? AND id <> ?", serial, exceptID).First(&other).Error
	switch {
	case err == nil:
		utils.Conflict(c, "A device with this serial number already exists")
		return true
	case !errors.Is(err, gorm.ErrRecordNotFound):
		utils.InternalServerError(c, "Database error: "+err.Error())
		return true
	}
	return false
}
