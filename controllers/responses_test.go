package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techeasyserve/techeasyserve-api/models"
)

func TestLookupErrors(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		route        string
		target       string
		handler      gin.HandlerFunc
		body         map[string]interface{}
		notFoundCode string
	}{
		{
			name:         "Create rating",
			method:       http.MethodPost,
			route:        "/api/v1/ratings",
			target:       "/api/v1/ratings",
			handler:      CreateRating,
			body:         map[string]interface{}{"technicianId": 999, "score": 4},
			notFoundCode: "TECHNICIAN_NOT_FOUND",
		},
		{
			name:         "List technician ratings",
			method:       http.MethodGet,
			route:        "/api/v1/ratings/technician/:technicianId",
			target:       "/api/v1/ratings/technician/999",
			handler:      ListTechnicianRatings,
			notFoundCode: "TECHNICIAN_NOT_FOUND",
		},
		{
			name:         "Technician location",
			method:       http.MethodGet,
			route:        "/api/v1/locations/technician/:technicianId",
			target:       "/api/v1/locations/technician/999",
			handler:      GetTechnicianLocation,
			notFoundCode: "LOCATION_NOT_FOUND",
		},
		{
			name:         "Create appointment",
			method:       http.MethodPost,
			route:        "/api/v1/appointments",
			target:       "/api/v1/appointments",
			handler:      CreateAppointment,
			body:         map[string]interface{}{"technicianId": 999, "serviceType": "Plumbing", "appointmentDate": "2026-11-02T09:00:00Z"},
			notFoundCode: "TECHNICIAN_NOT_FOUND",
		},
		{
			name:         "Get service",
			method:       http.MethodGet,
			route:        "/api/v1/services/:id",
			target:       "/api/v1/services/999",
			handler:      GetService,
			notFoundCode: "SERVICE_NOT_FOUND",
		},
		{
			name:         "Send message",
			method:       http.MethodPost,
			route:        "/api/v1/messages",
			target:       "/api/v1/messages",
			handler:      SendMessage,
			body:         map[string]interface{}{"appointmentId": 999, "content": "hello"},
			notFoundCode: "APPOINTMENT_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+" reports a missing row as not found", func(t *testing.T) {
			setupTestDB(t)
			router := testRouter(tt.method, tt.route, tt.handler, as(models.RoleUser, 1))

			w := performJSON(router, tt.method, tt.target, tt.body)

			assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
			assert.Equal(t, tt.notFoundCode, errorCode(t, w))
		})

		t.Run(tt.name+" reports a broken database as an internal error", func(t *testing.T) {
			db := setupTestDB(t)
			sqlDB, err := db.DB()
			require.NoError(t, err)
			require.NoError(t, sqlDB.Close())
			router := testRouter(tt.method, tt.route, tt.handler, as(models.RoleUser, 1))

			w := performJSON(router, tt.method, tt.target, tt.body)

			assert.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())
			assert.Equal(t, "DATABASE_ERROR", errorCode(t, w))
		})
	}
}
