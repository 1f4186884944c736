package models

import (
	"strings"
	"time"
)

// Patient is a person followed for sleep apnea.
type Patient struct {
	BaseModel
	FirstName    string     `gorm:"size:100;not null" json:"firstName"`
	LastName     string     `gorm:"size:100;not null" json:"lastName"`
	CIN          string     `gorm:"size:20;index" json:"cin,omitempty"`
	Phone        string     `gorm:"size:30" json:"phone"`
	PhoneAlt     string     `gorm:"size:30" json:"phoneAlt,omitempty"`
	Address      string     `gorm:"size:255" json:"address,omitempty"`
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty"`
	CNAMID       string     `gorm:"size:50" json:"cnamId,omitempty"`
	DoctorName   string     `gorm:"size:150" json:"doctorName,omitempty"`
	TechnicianID *string    `gorm:"size:36;index" json:"technicianId,omitempty"`
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`

	Diagnostics []Diagnostic `gorm:"foreignKey:PatientID" json:"-"`
	Rentals     []Rental     `gorm:"foreignKey:PatientID" json:"-"`
	Sales       []Sale       `gorm:"foreignKey:PatientID" json:"-"`
}

// FullName joins first and last name.
func (p *Patient) FullName() string {
	return joinName(p.FirstName, p.LastName)
}

func joinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
