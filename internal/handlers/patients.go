package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/utils"
)

// PatientHandler handles patient records.
type PatientHandler struct {
	DB       *gorm.DB
	Location *time.Location
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(db *gorm.DB, loc *time.Location) *PatientHandler {
	return &PatientHandler{DB: db, Location: loc}
}

// PatientRequest is the body of patient create and update.
type PatientRequest struct {
	FirstName    string  `json:"firstName" binding:"required"`
	LastName     string  `json:"lastName" binding:"required"`
	CIN          string  `json:"cin"`
	Phone        string  `json:"phone" binding:"required"`
	PhoneAlt     string  `json:"phoneAlt"`
	Address      string  `json:"address"`
	DateOfBirth  string  `json:"dateOfBirth"`
	CNAMID       string  `json:"cnamId"`
	DoctorName   string  `json:"doctorName"`
	TechnicianID *string `json:"technicianId"`
	Notes        string  `json:"notes"`
}

func (r PatientRequest) apply(p *models.Patient, loc *time.Location) error {
	dob, err := optionalDate(r.DateOfBirth, loc)
	if err != nil {
		return err
	}
	p.FirstName = r.FirstName
	p.LastName = r.LastName
	p.CIN = r.CIN
	p.Phone = r.Phone
	p.PhoneAlt = r.PhoneAlt
	p.Address = r.Address
	p.DateOfBirth = dob
	p.CNAMID = r.CNAMID
	p.DoctorName = r.DoctorName
	p.TechnicianID = r.TechnicianID
	p.Notes = r.Notes
	return nil
}

// CreatePatient handles creating a patient.
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req PatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var patient models.Patient
	if err := req.apply(&patient, h.Location); err != nil {
		utils.BadRequest(c, "Invalid dateOfBirth: "+err.Error())
		return
	}
	if err := h.DB.Create(&patient).Error; err != nil {
		utils.InternalServerError(c, "Failed to create patient: "+err.Error())
		return
	}
	utils.Created(c, "Patient created successfully", patient)
}

// GetPatients lists patients, optionally filtered by ?search= on name, CIN or phone.
func (h *PatientHandler) GetPatients(c *gin.Context) {
	q := h.DB.Order("last_name asc, first_name asc")
	if s := c.Query("search"); s != "" {
		like := "%" + s + "%"
		q = q.Where("first_name LIKE ? OR last_name LIKE ? OR cin LIKE ? OR phone LIKE ?", like, like, like, like)
	}

	var patients []models.Patient
	if err := q.Find(&patients).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch patients: "+err.Error())
		return
	}
	utils.List(c, "Patients fetched successfully", patients)
}

// GetPatientByID handles fetching a single patient.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, err, "Patient")
		return
	}
	utils.Success(c, "Patient fetched successfully", patient)
}

// UpdatePatient replaces a patient's details.
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var req PatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, err, "Patient")
		return
	}
	if err := req.apply(&patient, h.Location); err != nil {
		utils.BadRequest(c, "Invalid dateOfBirth: "+err.Error())
		return
	}
	if err := h.DB.Save(&patient).Error; err != nil {
		utils.InternalServerError(c, "Failed to update patient: "+err.Error())
		return
	}
	utils.Success(c, "Patient updated successfully", patient)
}

// DeletePatient removes a patient that has no active rental.
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, err, "Patient")
		return
	}

	var active int64
	if err := h.DB.Model(&models.Rental{}).Where("patient_id = ? AND status = ?", patient.ID, models.RentalActive).Count(&active).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}
	if active > 0 {
		utils.Conflict(c, "Patient has an active rental")
		return
	}

	if err := h.DB.Delete(&patient).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete patient: "+err.Error())
		return
	}
	utils.Success(c, "Patient deleted successfully", nil)
}
