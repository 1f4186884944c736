package models

import (
	"time"
)

// RentalStatus of a rental.
type RentalStatus string

const (
	RentalActive    RentalStatus = "ACTIVE"
	RentalEnded     RentalStatus = "ENDED"
	RentalCancelled RentalStatus = "CANCELLED"
)

// Rental is a device lent to a patient for a period, paid through a payment schedule.
type Rental struct {
	BaseModel
	PatientID   string       `gorm:"size:36;index;not null" json:"patientId"`
	DeviceID    string       `gorm:"size:36;index;not null" json:"deviceId"`
	StartDate   time.Time    `json:"startDate"`
	EndDate     *time.Time   `json:"endDate,omitempty"`
	MonthlyRate float64      `json:"monthlyRate"`
	Status      RentalStatus `gorm:"size:20;default:'ACTIVE'" json:"status"`
	Notes       string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy   string       `gorm:"size:36" json:"createdBy,omitempty"`

	Patient  Patient   `gorm:"foreignKey:PatientID" json:"-"`
	Device   Device    `gorm:"foreignKey:DeviceID" json:"device"`
	Payments []Payment `gorm:"foreignKey:RentalID" json:"payments"`
}
