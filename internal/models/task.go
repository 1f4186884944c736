package models

import (
	"time"
)

// TaskType tells what produced a task.
type TaskType string

const (
	TaskDiagnosticFollowup TaskType = "DIAGNOSTIC_FOLLOWUP"
	TaskPaymentReminder    TaskType = "PAYMENT_REMINDER"
	TaskCNAMFollowup       TaskType = "CNAM_FOLLOWUP"
	TaskCustom             TaskType = "CUSTOM"
	TaskManual             TaskType = "MANUAL"
)

// TaskPriority orders tasks on the calendar.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

// TaskNotifications controls the reminder of a task.
type TaskNotifications struct {
	Enabled      bool       `json:"enabled"`
	ReminderDate *time.Time `gorm:"index" json:"reminderDate,omitempty"`
	ReminderSent bool       `json:"reminderSent"`
}

// Task is a calendar follow-up. Staff change Completed and Notifications.ReminderSent;
// a generated task that is still open also follows its source as it is re-derived.
type Task struct {
	BaseModel
	Title         string                 `gorm:"size:255;not null" json:"title"`
	Description   string                 `gorm:"type:text" json:"description"`
	Type          TaskType               `gorm:"size:30;index" json:"type"`
	Priority      TaskPriority           `gorm:"size:10" json:"priority"`
	Date          time.Time              `gorm:"index" json:"date"`
	DueDate       time.Time              `json:"dueDate"`
	Completed     bool                   `json:"completed"`
	PatientID     *string                `gorm:"size:36;index" json:"patientId,omitempty"`
	PatientName   string                 `gorm:"size:200" json:"patientName,omitempty"`
	RelatedData   map[string]interface{} `gorm:"serializer:json" json:"relatedData,omitempty"`
	SourceKey     string                 `gorm:"size:120;index" json:"sourceKey,omitempty"`
	Notifications TaskNotifications      `gorm:"embedded;embeddedPrefix:notification_" json:"notifications"`
}
