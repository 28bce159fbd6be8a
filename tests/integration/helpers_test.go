package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/routes"
	"github.com/techeasyserve/techeasyserve-api/services"
	"github.com/techeasyserve/techeasyserve-api/tests/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// apiSuite is embedded by every integration suite. Each test gets a fresh database,
// fresh mocks and a router wired exactly as in production.
type apiSuite struct {
	suite.Suite
	router   *gin.Engine
	db       *gorm.DB
	cfg      *config.Config
	notifier *services.MockNotifier
	gateway  *services.MockPaymentGateway
	storage  *services.MockS3Service
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func (s *apiSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(s.T())
}

func (s *apiSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.cfg = testutil.TestConfig()
	config.SetConfig(s.cfg)

	s.notifier = services.NewMockNotifier()
	s.notifier.SetAsMockForTesting()
	s.gateway = services.NewMockPaymentGateway()
	s.gateway.SetAsMockForTesting()
	s.storage = services.NewMockS3Service()
	services.InitDocumentService(s.storage)

	s.router = routes.NewRouter(context.Background(), s.cfg, zap.NewNop())
}

func (s *apiSuite) TearDownTest() {
	services.SetDocumentService(nil)
}

// makeRequest performs a JSON request against the router. body may be nil.
func (s *apiSuite) makeRequest(method, url string, body interface{}, auth string) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *apiSuite) decode(env envelope, out interface{}) {
	s.Require().NoError(json.Unmarshal(env.Data, out))
}

func (s *apiSuite) tokenFor(id uint, role models.Role) string {
	return testutil.BearerToken(s.T(), s.cfg, id, role)
}

func (s *apiSuite) createUser(username string) models.User {
	hash, err := services.HashPassword("password123")
	s.Require().NoError(err)
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		IsVerified:   true,
		Role:         models.RoleUser,
	}
	s.Require().NoError(s.db.Create(&user).Error)
	return user
}

func (s *apiSuite) createTechnician(username string, status models.VerificationStatus) models.Technician {
	hash, err := services.HashPassword("password123")
	s.Require().NoError(err)
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
	s.Require().NoError(s.db.Create(&technician).Error)
	return technician
}
