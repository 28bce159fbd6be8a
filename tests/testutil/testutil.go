package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// It fails the test immediately if GO_ENV is not "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: tests must run with GO_ENV=test, current GO_ENV=%q", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test. Use it in suite setup.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
	RequireTestEnvironment(t)
}

// TestConfig is the configuration every suite runs with. Rate limiting is off and
// CORS accepts any origin.
func TestConfig() *config.Config {
	return &config.Config{
		GoEnv:                   "test",
		Port:                    "8080",
		LogLevel:                "error",
		BaseURL:                 "http://localhost:8080",
		JWTSecret:               "integration-test-secret",
		JWTIssuer:               "techeasyserve-api",
		JWTAudience:             "techeasyserve-clients",
		JWTExpiry:               time.Hour,
		KYCAutoApproveThreshold: 0.95,
		MatchRadiusKm:           50,
		CORSAllowedOrigins:      []string{"*"},
	}
}

// NewTestDB opens a private in-memory SQLite database, migrates it and installs it
// as the application database. It is closed when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	// every connection to :memory: is a new database
	sqlDB.SetMaxOpenConns(1)

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	config.SetDB(db)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}
