package acceptance

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/services"
)

type TechnicianOnboardingTestSuite struct {
	serverSuite
}

func (s *TechnicianOnboardingTestSuite) createCategory(adminToken, name string) models.Category {
	status, env := s.doJSON(http.MethodPost, "/api/v1/categories", map[string]string{"name": name}, adminToken)
	s.Require().Equal(http.StatusCreated, status, env.Error.Message)

	var category models.Category
	s.decode(env, &category)
	return category
}

func (s *TechnicianOnboardingTestSuite) register(username string, categoryID uint) models.Technician {
	status, env := s.doMultipart("/api/v1/technicians", map[string]string{
		"username":   username,
		"email":      username + "@example.com",
		"password":   "fundi-pass",
		"categoryId": strconv.FormatUint(uint64(categoryID), 10),
	}, username+"-id.pdf", []byte("%PDF-1.4 national id"))
	s.Require().Equal(http.StatusCreated, status, env.Error.Message)

	var technician models.Technician
	s.decode(env, &technician)
	return technician
}

func (s *TechnicianOnboardingTestSuite) verifyEmail(email string) {
	var link string
	for _, sent := range s.notifier.SentOfKind("verify_email") {
		if sent.Recipient == email {
			link = sent.Link
		}
	}
	s.Require().NotEmpty(link, "no verification email for %s", email)

	status, _ := s.followLink(link)
	s.Require().Equal(http.StatusOK, status)
}

func (s *TechnicianOnboardingTestSuite) TestOnboardingThroughAdminReview() {
	adminToken := s.createAdmin()
	category := s.createCategory(adminToken, "Plumbing")

	technician := s.register("wanjiku", category.ID)
	s.Equal(models.VerificationPending, technician.VerificationStatus)
	s.Require().NotNil(technician.Documents)
	s.True(s.storage.FileExists(*technician.Documents))

	s.verifyEmail("wanjiku@example.com")
	token := s.login("/api/v1/technicians/login", "wanjiku", "fundi-pass")

	// upstream verification is not confident enough to auto-approve
	status, env := s.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/technicians/%d/firebase-kyc", technician.ID), map[string]interface{}{
		"firebaseKycStatus": "FIREBASE_VERIFIED",
		"firebaseKycData":   map[string]interface{}{"provider": "firebase", "documentType": "national_id"},
		"confidenceScore":   0.9,
	}, token)
	s.Require().Equal(http.StatusOK, status, env.Error.Message)
	var outcome services.KYCOutcome
	s.decode(env, &outcome)
	s.True(outcome.RequiresAdminReview)
	s.Len(s.notifier.SentOfKind("admin_review"), 1)

	// still pending, so the technician is not matchable yet
	status, _ = s.doJSON(http.MethodPost, "/api/v1/locations", map[string]interface{}{
		"latitude":  -1.2921,
		"longitude": 36.8219,
		"address":   "Moi Avenue, Nairobi",
	}, token)
	s.Require().Equal(http.StatusOK, status)
	status, env = s.doJSON(http.MethodPost, "/api/v1/technicians/nearest", map[string]float64{"latitude": -1.29, "longitude": 36.82}, "")
	s.Equal(http.StatusNotFound, status)
	s.Equal("NO_TECHNICIAN_FOUND", env.Error.Code)

	status, env = s.doJSON(http.MethodGet, "/api/v1/admin/technicians/pending", nil, adminToken)
	s.Require().Equal(http.StatusOK, status)
	s.Contains(string(env.Data), `"username":"wanjiku"`)

	status, env = s.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/admin/technicians/%d/approve", technician.ID), nil, adminToken)
	s.Require().Equal(http.StatusOK, status, env.Error.Message)

	status, env = s.doJSON(http.MethodPost, "/api/v1/technicians/nearest", map[string]float64{"latitude": -1.29, "longitude": 36.82}, "")
	s.Require().Equal(http.StatusOK, status)
	var match services.TechnicianMatch
	s.decode(env, &match)
	s.Equal(technician.ID, match.Technician.ID)
	s.Less(match.Distance, 1.0)

	// the technician can read their own document link, the public cannot
	status, env = s.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/technicians/%d", technician.ID), nil, token)
	s.Require().Equal(http.StatusOK, status)
	var own models.Technician
	s.decode(env, &own)
	s.Require().NotNil(own.DocumentURL)
	s.Contains(*own.DocumentURL, "mock=true")

	status, env = s.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/technicians/%d", technician.ID), nil, "")
	s.Require().Equal(http.StatusOK, status)
	var public models.Technician
	s.decode(env, &public)
	s.Nil(public.DocumentURL)
	s.Equal(models.VerificationVerified, public.VerificationStatus)
}

func (s *TechnicianOnboardingTestSuite) TestRejectedTechnicianIsFinal() {
	adminToken := s.createAdmin()
	category := s.createCategory(adminToken, "Electrical")
	technician := s.register("otieno", category.ID)
	s.verifyEmail("otieno@example.com")
	token := s.login("/api/v1/technicians/login", "otieno", "fundi-pass")

	status, env := s.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/technicians/%d/firebase-kyc", technician.ID), map[string]interface{}{
		"firebaseKycStatus": "FIREBASE_REJECTED",
		"firebaseKycData":   map[string]interface{}{"failureReason": "document expired"},
	}, token)
	s.Require().Equal(http.StatusOK, status, env.Error.Message)
	var outcome services.KYCOutcome
	s.decode(env, &outcome)
	s.False(outcome.RequiresAdminReview)
	s.Equal(models.VerificationRejected, outcome.Technician.VerificationStatus)

	status, env = s.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/technicians/%d/firebase-kyc", technician.ID), map[string]interface{}{
		"firebaseKycStatus": "FIREBASE_VERIFIED",
		"confidenceScore":   0.99,
	}, token)
	s.Equal(http.StatusConflict, status)
	s.Equal("KYC_FINALIZED", env.Error.Code)

	status, env = s.doJSON(http.MethodGet, "/api/v1/admin/kyc/statistics", nil, adminToken)
	s.Require().Equal(http.StatusOK, status)
	var stats services.KYCStatistics
	s.decode(env, &stats)
	s.EqualValues(1, stats.FirebaseRejected)
	s.EqualValues(0, stats.AwaitingAdminReview)
}

func (s *TechnicianOnboardingTestSuite) TestDuplicateRegistrationDiscardsUpload() {
	adminToken := s.createAdmin()
	category := s.createCategory(adminToken, "Carpentry")
	s.register("kamau", category.ID)
	s.Equal(1, s.storage.Count())

	status, env := s.doMultipart("/api/v1/technicians", map[string]string{
		"username":   "kamau",
		"email":      "kamau@example.com",
		"password":   "fundi-pass",
		"categoryId": strconv.FormatUint(uint64(category.ID), 10),
	}, "second.pdf", []byte("%PDF-1.4"))
	s.Equal(http.StatusConflict, status)
	s.Equal("TECHNICIAN_EXISTS", env.Error.Code)
	s.Equal(1, s.storage.Count())
}

func TestTechnicianOnboardingTestSuite(t *testing.T) {
	suite.Run(t, new(TechnicianOnboardingTestSuite))
}
