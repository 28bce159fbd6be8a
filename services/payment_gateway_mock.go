package services

import (
	"context"
	"fmt"
	"sync"
)

// MockPaymentGateway is a mock implementation of PaymentGateway for testing
type MockPaymentGateway struct {
	mu       sync.Mutex
	requests []STKPushRequest
	next     int
	// Err, when set, is returned instead of a response
	Err error
}

// NewMockPaymentGateway creates a new mock payment gateway
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

// SetAsMockForTesting sets this mock as the global payment gateway instance for testing
func (m *MockPaymentGateway) SetAsMockForTesting() {
	SetPaymentGateway(m)
}

// InitiateSTKPush records the request and returns ws_CO_MOCK_<n> checkout ids
func (m *MockPaymentGateway) InitiateSTKPush(_ context.Context, req STKPushRequest) (*STKPushResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	m.next++
	return &STKPushResponse{
		MerchantRequestID: fmt.Sprintf("MR_MOCK_%d", m.next),
		CheckoutRequestID: fmt.Sprintf("ws_CO_MOCK_%d", m.next),
		ResponseCode:      "0",
	}, nil
}

// Requests returns the STK pushes received so far
func (m *MockPaymentGateway) Requests() []STKPushRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]STKPushRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
