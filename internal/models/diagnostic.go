package models

import (
	"time"
)

// Diagnostic is a sleep study result for a patient.
type Diagnostic struct {
	BaseModel
	PatientID  string    `gorm:"size:36;index;not null" json:"patientId"`
	Date       time.Time `gorm:"index" json:"date"`
	IAHResult  float64   `json:"iahResult"`
	DeviceUsed string    `gorm:"size:100" json:"deviceUsed,omitempty"`
	Notes      string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy  string    `gorm:"size:36" json:"createdBy,omitempty"`

	Patient Patient `gorm:"foreignKey:PatientID" json:"-"`
}
