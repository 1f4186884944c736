package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cpap-admin-server/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// Two rentals that both saw the device as available: only the first one lends it.
func TestLendDeviceOnlyOnce(t *testing.T) {
	db := setupTestDB(t)
	patient := models.Patient{FirstName: "Amel", LastName: "Trabelsi", Phone: "22000000"}
	require.NoError(t, db.Create(&patient).Error)
	device := models.Device{Name: "AirSense 10", Model: "S10", SerialNumber: "SN-1", Status: models.DeviceAvailable}
	require.NoError(t, db.Create(&device).Error)

	newRental := func() *models.Rental {
		return &models.Rental{
			PatientID: patient.ID,
			DeviceID:  device.ID,
			StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			Status:    models.RentalActive,
		}
	}

	first := newRental()
	require.NoError(t, lendDevice(db, first))
	assert.NotEmpty(t, first.ID)

	assert.ErrorIs(t, lendDevice(db, newRental()), errDeviceUnavailable)

	var count int64
	require.NoError(t, db.Model(&models.Rental{}).Where("device_id = ?", device.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var stored models.Device
	require.NoError(t, db.First(&stored, "id = ?", device.ID).Error)
	assert.Equal(t, models.DeviceRented, stored.Status)
}

func TestLendDeviceUnknownDevice(t *testing.T) {
	db := setupTestDB(t)
	rental := &models.Rental{PatientID: "p1", DeviceID: "missing", StartDate: time.Now(), Status: models.RentalActive}

	assert.ErrorIs(t, lendDevice(db, rental), errDeviceUnavailable)

	var count int64
	require.NoError(t, db.Model(&models.Rental{}).Count(&count).Error)
	assert.Zero(t, count)
}
