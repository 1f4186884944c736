package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/repository"
	"cpap-admin-server/internal/services"
	"cpap-admin-server/internal/utils"
)

// TaskHandler serves the follow-up calendar.
type TaskHandler struct {
	Tasks    *services.TaskService
	Location *time.Location
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *services.TaskService, loc *time.Location) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Location: loc}
}

// GetTasks lists tasks between ?from= and ?to= (default: the current month), with
// optional ?patientId=, ?type= and ?completed= filters.
func (h *TaskHandler) GetTasks(c *gin.Context) {
	today := h.Tasks.Today()
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)

	if s := c.Query("from"); s != "" {
		t, err := dates.Parse(s, h.Location)
		if err != nil {
			utils.BadRequest(c, "Invalid from: "+err.Error())
			return
		}
		from = t
	}
	if s := c.Query("to"); s != "" {
		t, err := dates.Parse(s, h.Location)
		if err != nil {
			utils.BadRequest(c, "Invalid to: "+err.Error())
			return
		}
		to = dates.AddDays(dates.Day(t), 1).Add(-time.Nanosecond)
	}
	if to.Before(from) {
		utils.BadRequest(c, "to must not precede from")
		return
	}

	filter := repository.TaskFilter{
		PatientID: c.Query("patientId"),
		Type:      models.TaskType(c.Query("type")),
	}
	if s := c.Query("completed"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			utils.BadRequest(c, "Invalid completed flag")
			return
		}
		filter.Completed = &v
	}

	tasks, err := h.Tasks.ListRange(c.Request.Context(), from, to, filter)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch tasks: "+err.Error())
		return
	}
	utils.List(c, "Tasks fetched successfully", tasks)
}

// GetPatientTasks lists every task of a patient.
func (h *TaskHandler) GetPatientTasks(c *gin.Context) {
	tasks, err := h.Tasks.ListByPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch tasks: "+err.Error())
		return
	}
	utils.List(c, "Tasks fetched successfully", tasks)
}

// CreateTaskRequest is a task entered by hand.
type CreateTaskRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description"`
	Type         string  `json:"type" binding:"omitempty,oneof=DIAGNOSTIC_FOLLOWUP PAYMENT_REMINDER CNAM_FOLLOWUP CUSTOM MANUAL"`
	Priority     string  `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Date         string  `json:"date" binding:"required"`
	DueDate      string  `json:"dueDate"`
	PatientID    *string `json:"patientId"`
	PatientName  string  `json:"patientName"`
	Reminder     bool    `json:"reminder"`
	ReminderDate string  `json:"reminderDate"`
}

// CreateTask records a manual task.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	date, err := dates.Parse(req.Date, h.Location)
	if err != nil {
		utils.BadRequest(c, "Invalid date: "+err.Error())
		return
	}
	due, err := optionalDate(req.DueDate, h.Location)
	if err != nil {
		utils.BadRequest(c, "Invalid dueDate: "+err.Error())
		return
	}
	remindAt, err := optionalDate(req.ReminderDate, h.Location)
	if err != nil {
		utils.BadRequest(c, "Invalid reminderDate: "+err.Error())
		return
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		Type:        models.TaskType(req.Type),
		Priority:    models.TaskPriority(req.Priority),
		Date:        date,
		PatientID:   req.PatientID,
		PatientName: req.PatientName,
	}
	if due != nil {
		task.DueDate = *due
	}
	if req.Reminder || remindAt != nil {
		task.Notifications.Enabled = true
		task.Notifications.ReminderDate = remindAt
		if remindAt == nil {
			task.Notifications.ReminderDate = dates.Ptr(dates.AddDays(dates.Day(date), -1))
		}
	}

	if err := h.Tasks.CreateManual(c.Request.Context(), &task); err != nil {
		utils.InternalServerError(c, "Failed to create task: "+err.Error())
		return
	}
	utils.Created(c, "Task created successfully", task)
}

// CompleteTaskRequest sets a task's completion.
type CompleteTaskRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// SetTaskCompleted toggles a task's completion.
func (h *TaskHandler) SetTaskCompleted(c *gin.Context) {
	var req CompleteTaskRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	task, err := h.Tasks.SetCompleted(c.Request.Context(), c.Param("id"), *req.Completed)
	if err != nil {
		respondDBError(c, err, "Task")
		return
	}
	utils.Success(c, "Task updated successfully", task)
}

// GetDueReminders lists open tasks whose reminder is due today or earlier.
func (h *TaskHandler) GetDueReminders(c *gin.Context) {
	tasks, err := h.Tasks.DueReminders(c.Request.Context())
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch reminders: "+err.Error())
		return
	}
	utils.List(c, "Due reminders fetched successfully", tasks)
}

// MarkReminderSent records that a task's reminder went out.
func (h *TaskHandler) MarkReminderSent(c *gin.Context) {
	task, err := h.Tasks.MarkReminderSent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDBError(c, err, "Task")
		return
	}
	utils.Success(c, "Reminder marked as sent", task)
}

// SyncTasks re-derives payment tasks across active rentals.
func (h *TaskHandler) SyncTasks(c *gin.Context) {
	res, err := h.Tasks.SyncPaymentTasks(c.Request.Context())
	if err != nil {
		utils.InternalServerError(c, "Failed to sync tasks: "+err.Error())
		return
	}
	utils.Success(c, "Tasks synced successfully", res)
}
