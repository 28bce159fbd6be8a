package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/techeasyserve/techeasyserve-api/config"
)

// STKPushRequest asks the customer's phone to authorize a payment
type STKPushRequest struct {
	Amount           float64
	PhoneNumber      string
	AccountReference string
	Description      string
	CallbackURL      string
}

// STKPushResponse is the gateway's acknowledgement of an STK push
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// PaymentGateway starts mobile-money collections
type PaymentGateway interface {
	InitiateSTKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error)
}

var paymentGatewayInstance PaymentGateway

// InitPaymentGateway selects the Daraja gateway when credentials are configured, the simulated one otherwise
func InitPaymentGateway(cfg *config.Config) PaymentGateway {
	if cfg.DarajaEnabled() {
		paymentGatewayInstance = NewDarajaGateway(cfg)
	} else {
		paymentGatewayInstance = NewSimulatedGateway()
	}
	return paymentGatewayInstance
}

// GetPaymentGateway returns the initialized payment gateway instance
func GetPaymentGateway() PaymentGateway {
	return paymentGatewayInstance
}

// SetPaymentGateway sets the payment gateway instance (primarily for testing)
func SetPaymentGateway(gw PaymentGateway) {
	paymentGatewayInstance = gw
}

// DarajaGateway talks to the Safaricom Daraja API
type DarajaGateway struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortCode      string
	passkey        string
	httpClient     *http.Client
	now            func() time.Time
}

// NewDarajaGateway creates a Daraja client from the application configuration
func NewDarajaGateway(cfg *config.Config) *DarajaGateway {
	return &DarajaGateway{
		baseURL:        strings.TrimRight(cfg.DarajaBaseURL, "/"),
		consumerKey:    cfg.DarajaConsumerKey,
		consumerSecret: cfg.DarajaConsumerSecret,
		shortCode:      cfg.DarajaShortCode,
		passkey:        cfg.DarajaPasskey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

type darajaTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// accessToken fetches an OAuth token with the client credentials grant
func (g *DarajaGateway) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(g.consumerKey, g.consumerSecret)

	var token darajaTokenResponse
	if err := g.do(req, &token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrPaymentGateway)
	}
	return token.AccessToken, nil
}

// InitiateSTKPush sends a Lipa na M-Pesa online request
func (g *DarajaGateway) InitiateSTKPush(ctx context.Context, push STKPushRequest) (*STKPushResponse, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := g.now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(g.shortCode + g.passkey + timestamp))
	description := push.Description
	if description == "" {
		description = "Payment for services"
	}

	payload := map[string]interface{}{
		"BusinessShortCode": g.shortCode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            int64(math.Ceil(push.Amount)),
		"PartyA":            push.PhoneNumber,
		"PartyB":            g.shortCode,
		"PhoneNumber":       push.PhoneNumber,
		"CallBackURL":       push.CallbackURL,
		"AccountReference":  push.AccountReference,
		"TransactionDesc":   description,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode STK push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	var resp STKPushResponse
	if err := g.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: missing CheckoutRequestID (%s)", ErrPaymentGateway, resp.ResponseDescription)
	}
	return &resp, nil
}

func (g *DarajaGateway) do(req *http.Request, out interface{}) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s returned status %d: %s", ErrPaymentGateway, req.URL.Path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrPaymentGateway, err)
	}
	return nil
}

// SimulatedGateway acknowledges every push with a synthetic checkout id
type SimulatedGateway struct{}

// NewSimulatedGateway creates a gateway for environments without Daraja credentials
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{}
}

func (SimulatedGateway) InitiateSTKPush(_ context.Context, req STKPushRequest) (*STKPushResponse, error) {
	id := NewTransactionID()
	return &STKPushResponse{
		MerchantRequestID:   "SIM_" + ksuid.New().String(),
		CheckoutRequestID:   id,
		ResponseCode:        "0",
		ResponseDescription: "Success. Request accepted for processing",
		CustomerMessage:     fmt.Sprintf("Simulated payment of %.2f for %s", req.Amount, req.AccountReference),
	}, nil
}

// NewTransactionID returns a synthetic, sortable transaction id
func NewTransactionID() string {
	return "DARAJA_" + ksuid.New().String()
}
