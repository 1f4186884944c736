package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/middleware"
	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/services"
	"cpap-admin-server/internal/severity"
	"cpap-admin-server/internal/utils"
)

// DiagnosticHandler handles sleep study results.
type DiagnosticHandler struct {
	DB       *gorm.DB
	Tasks    *services.TaskService
	Log      *zap.Logger
	Location *time.Location
}

// NewDiagnosticHandler creates a new DiagnosticHandler.
func NewDiagnosticHandler(db *gorm.DB, tasks *services.TaskService, log *zap.Logger, loc *time.Location) *DiagnosticHandler {
	return &DiagnosticHandler{DB: db, Tasks: tasks, Log: log, Location: loc}
}

// CreateDiagnosticRequest represents a recorded sleep study. The index is given either
// as a number or as text, where a decimal comma is accepted.
type CreateDiagnosticRequest struct {
	PatientID  string   `json:"patientId" binding:"required"`
	Date       string   `json:"date" binding:"required"`
	IAHResult  *float64 `json:"iahResult"`
	IAHText    string   `json:"iahText"`
	DeviceUsed string   `json:"deviceUsed"`
	Notes      string   `json:"notes"`
}

// DiagnosticResponse is a diagnostic with its severity.
type DiagnosticResponse struct {
	models.Diagnostic
	IAHDisplay string                  `json:"iahDisplay"`
	Severity   severity.Classification `json:"severity"`
	Task       *models.Task            `json:"followupTask,omitempty"`
}

func newDiagnosticResponse(d models.Diagnostic) (DiagnosticResponse, error) {
	class, err := severity.Classify(d.IAHResult)
	if err != nil {
		return DiagnosticResponse{}, err
	}
	return DiagnosticResponse{Diagnostic: d, IAHDisplay: severity.FormatIAHValue(d.IAHResult), Severity: class}, nil
}

// CreateDiagnostic records a sleep study and schedules the follow-up of severe results.
func (h *DiagnosticHandler) CreateDiagnostic(c *gin.Context) {
	var req CreateDiagnosticRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var iah float64
	switch {
	case req.IAHResult != nil:
		iah = *req.IAHResult
		if err := severity.Validate(iah); err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
	case req.IAHText != "":
		v, err := severity.ParseIAH(req.IAHText)
		if err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
		iah = v
	default:
		utils.BadRequest(c, "iahResult is required")
		return
	}

	date, err := dates.Parse(req.Date, h.Location)
	if err != nil {
		utils.BadRequest(c, "Invalid date: "+err.Error())
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", req.PatientID).Error; err != nil {
		respondDBError(c, err, "Patient")
		return
	}

	createdBy, _ := middleware.GetUserIDFromContext(c)
	diag := models.Diagnostic{
		PatientID:  patient.ID,
		Date:       date,
		IAHResult:  iah,
		DeviceUsed: req.DeviceUsed,
		Notes:      req.Notes,
		CreatedBy:  createdBy,
	}
	if err := h.DB.Create(&diag).Error; err != nil {
		utils.InternalServerError(c, "Failed to create diagnostic: "+err.Error())
		return
	}

	resp, err := newDiagnosticResponse(diag)
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}
	task, err := h.Tasks.OnDiagnostic(c.Request.Context(), &diag, patient.FullName())
	if err != nil {
		// A missing follow-up does not undo the diagnostic.
		h.Log.Error("failed to create diagnostic follow-up", zap.Error(err), zap.String("diagnostic_id", diag.ID))
	}
	resp.Task = task

	utils.Created(c, "Diagnostic created successfully", resp)
}

// GetDiagnostics lists diagnostics, newest first, optionally filtered by ?severity=.
func (h *DiagnosticHandler) GetDiagnostics(c *gin.Context) {
	h.list(c, h.DB)
}

// GetDiagnosticsForPatient lists a patient's diagnostics, newest first.
func (h *DiagnosticHandler) GetDiagnosticsForPatient(c *gin.Context) {
	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, err, "Patient")
		return
	}
	h.list(c, h.DB.Where("patient_id = ?", patient.ID))
}

func (h *DiagnosticHandler) list(c *gin.Context, q *gorm.DB) {
	var diags []models.Diagnostic
	if err := q.Order("date desc").Find(&diags).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch diagnostics: "+err.Error())
		return
	}

	want := severity.Level(c.Query("severity"))
	out := make([]DiagnosticResponse, 0, len(diags))
	for _, d := range diags {
		resp, err := newDiagnosticResponse(d)
		if err != nil {
			h.Log.Warn("diagnostic with invalid index", zap.String("diagnostic_id", d.ID), zap.Float64("iah", d.IAHResult))
			continue
		}
		if want != "" && resp.Severity.Level != want {
			continue
		}
		out = append(out, resp)
	}
	utils.List(c, "Diagnostics fetched successfully", out)
}

// GetDiagnosticByID handles fetching a single diagnostic.
func (h *DiagnosticHandler) GetDiagnosticByID(c *gin.Context) {
	var diag models.Diagnostic
	if err := h.DB.First(&diag, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, err, "Diagnostic")
		return
	}
	resp, err := newDiagnosticResponse(diag)
	if err != nil {
		if errors.Is(err, severity.ErrInvalidInput) {
			utils.Unprocessable(c, err.Error())
			return
		}
		utils.InternalServerError(c, err.Error())
		return
	}
	utils.Success(c, "Diagnostic fetched successfully", resp)
}
