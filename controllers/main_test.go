package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/middleware"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "Failed to connect to test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db), "Failed to migrate test database")
	t.Cleanup(func() { sqlDB.Close() })

	config.SetDB(db)
	config.SetConfig(&config.Config{
		GoEnv:                   "test",
		BaseURL:                 "http://localhost:8080",
		JWTSecret:               "test-secret",
		JWTIssuer:               "techeasyserve-api",
		JWTAudience:             "techeasyserve-clients",
		JWTExpiry:               time.Hour,
		KYCAutoApproveThreshold: 0.95,
		MatchRadiusKm:           50,
	})
	services.NewMockNotifier().SetAsMockForTesting()
	return db
}

// testRouter mounts one handler behind a middleware that plays the given principal.
// A nil principal leaves the request anonymous.
func testRouter(method, path string, handler gin.HandlerFunc, principal *middleware.Principal) *gin.Engine {
	router := gin.New()
	router.Handle(method, path, func(c *gin.Context) {
		if principal != nil {
			middleware.SetPrincipal(c, *principal)
		}
		c.Next()
	}, handler)
	return router
}

func as(role models.Role, id uint) *middleware.Principal {
	return &middleware.Principal{ID: id, Role: role, Username: "tester"}
}

func performJSON(router *gin.Engine, method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		json.NewEncoder(&buf).Encode(b)
	}
	req, _ := http.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response should be valid JSON: %s", w.Body.String())
	return response
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	response := decodeResponse(t, w)
	errorObj, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "expected an error object in %s", w.Body.String())
	return errorObj["code"].(string)
}

func responseData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	response := decodeResponse(t, w)
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "expected a data object in %s", w.Body.String())
	return data
}

func seedUser(t *testing.T, db *gorm.DB, username string, verified bool) models.User {
	t.Helper()
	hash, err := services.HashPassword("password123")
	require.NoError(t, err)
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		IsVerified:   verified,
		Role:         models.RoleUser,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	category := models.Category{Name: name}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func seedTechnician(t *testing.T, db *gorm.DB, username string, status models.VerificationStatus) models.Technician {
	t.Helper()
	hash, err := services.HashPassword("password123")
	require.NoError(t, err)
	technician := models.Technician{
		Username:           username,
		Email:              username + "@example.com",
		PasswordHash:       hash,
		EmailVerified:      true,
		VerificationStatus: status,
		FirebaseKycStatus:  models.KycPending,
		AvailabilityStatus: models.Available,
		Version:            1,
	}
	require.NoError(t, db.Create(&technician).Error)
	return technician
}

func seedAppointment(t *testing.T, db *gorm.DB, clientID, technicianID uint, status models.AppointmentStatus) models.Appointment {
	t.Helper()
	appointment := models.Appointment{
		ClientID:        clientID,
		TechnicianID:    technicianID,
		ServiceType:     "Plumbing",
		AppointmentDate: time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC),
		Status:          status,
	}
	require.NoError(t, db.Create(&appointment).Error)
	return appointment
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
