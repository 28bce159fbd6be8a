package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techeasyserve/techeasyserve-api/middleware"
	"github.com/techeasyserve/techeasyserve-api/models"
)

func TestCreateAppointment(t *testing.T) {
	db := setupTestDB(t)
	client := seedUser(t, db, "client", true)
	technician := seedTechnician(t, db, "fundi", models.VerificationVerified)

	router := testRouter(http.MethodPost, "/api/v1/appointments", CreateAppointment, as(models.RoleUser, client.ID))

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Valid booking",
			body:           map[string]interface{}{"technicianId": technician.ID, "serviceType": "Plumbing", "appointmentDate": "2026-11-02T09:00:00Z"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Unknown technician",
			body:           map[string]interface{}{"technicianId": 999, "serviceType": "Plumbing", "appointmentDate": "2026-11-02T09:00:00Z"},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "TECHNICIAN_NOT_FOUND",
		},
		{
			name:           "Missing date",
			body:           map[string]interface{}{"technicianId": technician.ID, "serviceType": "Plumbing"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(router, http.MethodPost, "/api/v1/appointments", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(t, w))
				return
			}
			data := responseData(t, w)
			assert.Equal(t, "PENDING", data["status"])
			assert.Equal(t, float64(client.ID), data["clientId"], "The client is always the caller")
		})
	}
}

func TestListAppointments(t *testing.T) {
	db := setupTestDB(t)
	client := seedUser(t, db, "client", true)
	otherClient := seedUser(t, db, "other", true)
	technician := seedTechnician(t, db, "fundi", models.VerificationVerified)
	seedAppointment(t, db, client.ID, technician.ID, models.AppointmentPending)
	seedAppointment(t, db, client.ID, technician.ID, models.AppointmentConfirmed)
	seedAppointment(t, db, otherClient.ID, technician.ID, models.AppointmentPending)

	tests := []struct {
		name           string
		path           string
		route          string
		role           models.Role
		callerID       uint
		expectedStatus int
		expectedTotal  float64
	}{
		{"Client sees own", "/api/v1/appointments/client/" + uintString(client.ID), "/api/v1/appointments/client/:clientId", models.RoleUser, client.ID, http.StatusOK, 2},
		{"Client cannot see others", "/api/v1/appointments/client/" + uintString(client.ID), "/api/v1/appointments/client/:clientId", models.RoleUser, otherClient.ID, http.StatusForbidden, 0},
		{"Admin sees any client", "/api/v1/appointments/client/" + uintString(otherClient.ID), "/api/v1/appointments/client/:clientId", models.RoleAdmin, 1, http.StatusOK, 1},
		{"Technician sees own", "/api/v1/appointments/technician/" + uintString(technician.ID), "/api/v1/appointments/technician/:technicianId", models.RoleTechnician, technician.ID, http.StatusOK, 3},
		{"Client cannot list a technician", "/api/v1/appointments/technician/" + uintString(technician.ID), "/api/v1/appointments/technician/:technicianId", models.RoleUser, technician.ID, http.StatusForbidden, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := ListClientAppointments
			if tt.route == "/api/v1/appointments/technician/:technicianId" {
				handler = ListTechnicianAppointments
			}
			router := testRouter(http.MethodGet, tt.route, handler, as(tt.role, tt.callerID))
			w := performJSON(router, http.MethodGet, tt.path, nil)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedTotal, responseData(t, w)["total"])
			}
		})
	}
}

func TestUpdateAndCancelAppointment(t *testing.T) {
	db := setupTestDB(t)
	client := seedUser(t, db, "client", true)
	stranger := seedUser(t, db, "stranger", true)
	technician := seedTechnician(t, db, "fundi", models.VerificationVerified)
	appointment := seedAppointment(t, db, client.ID, technician.ID, models.AppointmentPending)
	completed := seedAppointment(t, db, client.ID, technician.ID, models.AppointmentCompleted)
	target := "/api/v1/appointments/" + uintString(appointment.ID)

	update := testRouter(http.MethodPut, "/api/v1/appointments/:id", UpdateAppointment, as(models.RoleTechnician, technician.ID))
	w := performJSON(update, http.MethodPut, target, map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CONFIRMED", responseData(t, w)["status"])

	w = performJSON(update, http.MethodPut, target, map[string]string{"status": "DONE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	strangerUpdate := testRouter(http.MethodPut, "/api/v1/appointments/:id", UpdateAppointment, as(models.RoleUser, stranger.ID))
	w = performJSON(strangerUpdate, http.MethodPut, target, map[string]string{"serviceType": "Roofing"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	cancel := testRouter(http.MethodDelete, "/api/v1/appointments/:id", CancelAppointment, as(models.RoleUser, client.ID))
	w = performJSON(cancel, http.MethodDelete, "/api/v1/appointments/"+uintString(completed.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "APPOINTMENT_COMPLETED", errorCode(t, w))

	w = performJSON(cancel, http.MethodDelete, target, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CANCELLED", responseData(t, w)["status"])

	var reloaded models.Appointment
	require.NoError(t, db.First(&reloaded, appointment.ID).Error, "Cancelling keeps the row")
	assert.Equal(t, models.AppointmentCancelled, reloaded.Status)

	w = performJSON(update, http.MethodPut, target, map[string]string{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "APPOINTMENT_CANCELLED", errorCode(t, w))

	w = performJSON(cancel, http.MethodDelete, "/api/v1/appointments/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "APPOINTMENT_NOT_FOUND", errorCode(t, w))
}

func TestCompletedAppointmentIsFinal(t *testing.T) {
	db := setupTestDB(t)
	client := seedUser(t, db, "client", true)
	technician := seedTechnician(t, db, "fundi", models.VerificationVerified)
	completed := seedAppointment(t, db, client.ID, technician.ID, models.AppointmentCompleted)
	target := "/api/v1/appointments/" + uintString(completed.ID)

	tests := []struct {
		name      string
		principal *middleware.Principal
		body      map[string]string
	}{
		{"client cancels through update", as(models.RoleUser, client.ID), map[string]string{"status": "CANCELLED"}},
		{"technician reopens", as(models.RoleTechnician, technician.ID), map[string]string{"status": "PENDING"}},
		{"technician confirms again", as(models.RoleTechnician, technician.ID), map[string]string{"status": "CONFIRMED"}},
		{"client reschedules", as(models.RoleUser, client.ID), map[string]string{"appointmentDate": "2026-12-01T10:00:00Z"}},
		{"admin cancels through update", as(models.RoleAdmin, 99), map[string]string{"status": "CANCELLED"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := testRouter(http.MethodPut, "/api/v1/appointments/:id", UpdateAppointment, tt.principal)
			w := performJSON(router, http.MethodPut, target, tt.body)

			assert.Equal(t, http.StatusConflict, w.Code)
			assert.Equal(t, "APPOINTMENT_COMPLETED", errorCode(t, w))

			var reloaded models.Appointment
			require.NoError(t, db.First(&reloaded, completed.ID).Error)
			assert.Equal(t, models.AppointmentCompleted, reloaded.Status)
		})
	}
}
