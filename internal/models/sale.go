package models

import (
	"time"
)

// SaleStatus of a sale.
type SaleStatus string

const (
	SalePending   SaleStatus = "PENDING"
	SaleCompleted SaleStatus = "COMPLETED"
	SaleCancelled SaleStatus = "CANCELLED"
)

// Sale is the sale of equipment to a patient, paid through one or more payments.
type Sale struct {
	BaseModel
	PatientID   string     `gorm:"size:36;index;not null" json:"patientId"`
	Date        time.Time  `json:"date"`
	TotalAmount float64    `json:"totalAmount"`
	Status      SaleStatus `gorm:"size:20" json:"status"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy   string     `gorm:"size:36" json:"createdBy,omitempty"`

	Patient  Patient    `gorm:"foreignKey:PatientID" json:"-"`
	Items    []SaleItem `gorm:"foreignKey:SaleID" json:"items"`
	Payments []Payment  `gorm:"foreignKey:SaleID" json:"payments"`
}

// SaleItem is one line of a sale.
type SaleItem struct {
	BaseModel
	SaleID      string  `gorm:"size:36;index;not null" json:"saleId"`
	DeviceID    *string `gorm:"size:36" json:"deviceId,omitempty"`
	Description string  `gorm:"size:255" json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// LineTotal is quantity times unit price.
func (i SaleItem) LineTotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}
