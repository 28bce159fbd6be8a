package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/techeasyserve/techeasyserve-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "Failed to connect to test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db), "Failed to migrate test database")

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func createTechnician(t *testing.T, db *gorm.DB, username string, mutate ...func(*models.Technician)) models.Technician {
	t.Helper()

	tech := models.Technician{
		Username:           username,
		Email:              username + "@example.com",
		PasswordHash:       "hash",
		EmailVerified:      true,
		VerificationStatus: models.VerificationPending,
		FirebaseKycStatus:  models.KycPending,
		AvailabilityStatus: models.Available,
	}
	for _, m := range mutate {
		m(&tech)
	}
	require.NoError(t, db.Create(&tech).Error)
	return tech
}
