package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/export"
	"cpap-admin-server/internal/overdue"
	"cpap-admin-server/internal/payment"
	"cpap-admin-server/internal/services"
	"cpap-admin-server/internal/utils"
)

// DashboardHandler serves the device payment dashboard and payment schedules.
type DashboardHandler struct {
	Dashboard *services.DashboardService
	Log       *zap.Logger
	Clock     dates.Clock
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboard *services.DashboardService, log *zap.Logger, clock dates.Clock) *DashboardHandler {
	return &DashboardHandler{Dashboard: dashboard, Log: log, Clock: clock}
}

// GetDevicePaymentStatuses lists rented devices with their payment status, optionally
// filtered by ?status=.
func (h *DashboardHandler) GetDevicePaymentStatuses(c *gin.Context) {
	rows, ok := h.rows(c)
	if !ok {
		return
	}
	utils.List(c, "Device payment statuses fetched successfully", rows)
}

// ExportDevicePaymentStatuses downloads the dashboard as a workbook.
func (h *DashboardHandler) ExportDevicePaymentStatuses(c *gin.Context) {
	rows, ok := h.rows(c)
	if !ok {
		return
	}
	body, err := export.DeviceStatuses(rows)
	if err != nil {
		h.Log.Error("dashboard export failed", zap.Error(err))
		utils.InternalServerError(c, "Failed to build export")
		return
	}
	utils.Attachment(c, export.Filename("paiements-appareils", h.Clock()), export.ContentType, body)
}

// GetPaymentSchedule returns the expected payments of a stored payment.
func (h *DashboardHandler) GetPaymentSchedule(c *gin.Context) {
	entries, ok := h.schedule(c)
	if !ok {
		return
	}
	utils.List(c, "Payment schedule fetched successfully", entries)
}

// ExportPaymentSchedule downloads a payment schedule as a workbook.
func (h *DashboardHandler) ExportPaymentSchedule(c *gin.Context) {
	entries, ok := h.schedule(c)
	if !ok {
		return
	}
	body, err := export.Schedule(entries)
	if err != nil {
		h.Log.Error("schedule export failed", zap.Error(err), zap.String("payment_id", c.Param("id")))
		utils.InternalServerError(c, "Failed to build export")
		return
	}
	utils.Attachment(c, export.Filename("echeancier-"+c.Param("id"), h.Clock()), export.ContentType, body)
}

func (h *DashboardHandler) rows(c *gin.Context) ([]overdue.DeviceWithPaymentStatus, bool) {
	rows, err := h.Dashboard.DevicePaymentStatuses(c.Request.Context())
	if err != nil {
		utils.InternalServerError(c, "Failed to compute payment statuses: "+err.Error())
		return nil, false
	}
	if want := overdue.Status(c.Query("status")); want != "" {
		filtered := rows[:0]
		for _, r := range rows {
			if r.PaymentStatus == want {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	return rows, true
}

func (h *DashboardHandler) schedule(c *gin.Context) ([]payment.ScheduleEntry, bool) {
	entries, err := h.Dashboard.PaymentSchedule(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		return entries, true
	case errors.Is(err, services.ErrPaymentNotFound):
		utils.NotFound(c, "Payment not found")
	case errors.Is(err, payment.ErrMissingData), errors.Is(err, payment.ErrInvalidInput):
		utils.BadRequest(c, err.Error())
	default:
		utils.InternalServerError(c, "Failed to build schedule: "+err.Error())
	}
	return nil, false
}
