package acceptance

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

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

// serverSuite runs the full API behind a real HTTP server
type serverSuite struct {
	suite.Suite
	server   *httptest.Server
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
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *serverSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(s.T())
}

func (s *serverSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.cfg = testutil.TestConfig()
	config.SetConfig(s.cfg)

	s.notifier = services.NewMockNotifier()
	s.notifier.SetAsMockForTesting()
	s.gateway = services.NewMockPaymentGateway()
	s.gateway.SetAsMockForTesting()
	s.storage = services.NewMockS3Service()
	services.InitDocumentService(s.storage)

	s.server = httptest.NewServer(routes.NewRouter(context.Background(), s.cfg, zap.NewNop()))
}

func (s *serverSuite) TearDownTest() {
	s.server.Close()
	services.SetDocumentService(nil)
}

func (s *serverSuite) do(req *http.Request) (int, envelope) {
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	var env envelope
	s.Require().NoError(json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func (s *serverSuite) doJSON(method, path string, body interface{}, token string) (int, envelope) {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

func (s *serverSuite) doMultipart(path string, fields map[string]string, filename string, content []byte) (int, envelope) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		s.Require().NoError(writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("document", filename)
		s.Require().NoError(err)
		_, err = part.Write(content)
		s.Require().NoError(err)
	}
	s.Require().NoError(writer.Close())

	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return s.do(req)
}

func (s *serverSuite) decode(env envelope, out interface{}) {
	s.Require().NoError(json.Unmarshal(env.Data, out))
}

// followLink replays a link the notifier would have emailed, against the test server
func (s *serverSuite) followLink(link string) (int, envelope) {
	u, err := url.Parse(link)
	s.Require().NoError(err)
	s.Require().True(strings.HasPrefix(link, s.cfg.BaseURL), link)

	req, err := http.NewRequest(http.MethodGet, s.server.URL+u.RequestURI(), nil)
	s.Require().NoError(err)
	return s.do(req)
}

func (s *serverSuite) login(path, username, password string) string {
	status, env := s.doJSON(http.MethodPost, path, map[string]string{"username": username, "password": password}, "")
	s.Require().Equal(http.StatusOK, status, env.Error.Message)

	var token struct {
		Token string `json:"token"`
	}
	s.decode(env, &token)
	return token.Token
}

// createAdmin inserts an admin account and logs it in
func (s *serverSuite) createAdmin() string {
	hash, err := services.HashPassword("admin-password")
	s.Require().NoError(err)
	s.Require().NoError(s.db.Create(&models.User{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: hash,
		IsVerified:   true,
		Role:         models.RoleAdmin,
	}).Error)
	return s.login("/api/v1/users/login", "admin", "admin-password")
}
