package models

// DeviceType is the kind of equipment.
type DeviceType string

const (
	DeviceCPAP          DeviceType = "CPAP"
	DeviceVNI           DeviceType = "VNI"
	DeviceConcentrator  DeviceType = "CONCENTRATEUR"
	DeviceMask          DeviceType = "MASQUE"
	DeviceAccessory     DeviceType = "ACCESSOIRE"
	DeviceOxygenBottle  DeviceType = "BOUTEILLE_OXYGENE"
	DeviceDiagnosticKit DeviceType = "POLYGRAPHE"
)

// DeviceStatus tracks where a unit is.
type DeviceStatus string

const (
	DeviceAvailable   DeviceStatus = "AVAILABLE"
	DeviceRented      DeviceStatus = "RENTED"
	DeviceSold        DeviceStatus = "SOLD"
	DeviceMaintenance DeviceStatus = "MAINTENANCE"
)

// Device is one serialized unit of equipment.
type Device struct {
	BaseModel
	Name         string       `gorm:"size:150;not null" json:"name"`
	Type         DeviceType   `gorm:"size:30" json:"type"`
	Brand        string       `gorm:"size:100" json:"brand,omitempty"`
	Model        string       `gorm:"size:100" json:"model"`
	SerialNumber string       `gorm:"size:100;uniqueIndex" json:"serialNumber"`
	Status       DeviceStatus `gorm:"size:20;default:'AVAILABLE'" json:"status"`
	SellingPrice float64      `json:"sellingPrice"`
	RentalPrice  float64      `json:"rentalPrice"`
	Notes        string       `gorm:"type:text" json:"notes,omitempty"`
}
