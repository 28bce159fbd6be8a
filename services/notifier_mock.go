package services

import (
	"context"
	"sync"

	"github.com/techeasyserve/techeasyserve-api/models"
)

// SentNotification records one call made to MockNotifier
type SentNotification struct {
	Kind         string
	TechnicianID uint
	Recipient    string
	Decision     string
	Link         string
	Tokens       []string
	Push         PushMessage
}

// MockNotifier is a mock implementation of Notifier for testing
type MockNotifier struct {
	mu   sync.Mutex
	sent []SentNotification
	// Err, when set, is returned from every call
	Err error
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// SetAsMockForTesting sets this mock as the global notifier instance for testing
func (m *MockNotifier) SetAsMockForTesting() {
	SetNotifier(m)
}

func (m *MockNotifier) record(n SentNotification) error {
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()
	return m.Err
}

func (m *MockNotifier) NotifyAdminReview(_ context.Context, technician *models.Technician, _ models.KycData) error {
	return m.record(SentNotification{Kind: "admin_review", TechnicianID: technician.ID})
}

func (m *MockNotifier) NotifyVerificationDecision(_ context.Context, technician *models.Technician, decision string, _ string) error {
	return m.record(SentNotification{Kind: "decision", TechnicianID: technician.ID, Recipient: technician.Email, Decision: decision})
}

func (m *MockNotifier) SendVerificationEmail(_ context.Context, email, link string) error {
	return m.record(SentNotification{Kind: "verify_email", Recipient: email, Link: link})
}

func (m *MockNotifier) SendPasswordReset(_ context.Context, email, link string) error {
	return m.record(SentNotification{Kind: "password_reset", Recipient: email, Link: link})
}

func (m *MockNotifier) SendPush(_ context.Context, tokens []string, msg PushMessage) (int, error) {
	if err := m.record(SentNotification{Kind: "push", Tokens: tokens, Push: msg}); err != nil {
		return 0, err
	}
	return len(tokens), nil
}

// Sent returns a copy of the recorded notifications
func (m *MockNotifier) Sent() []SentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentNotification, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentOfKind returns the recorded notifications of one kind
func (m *MockNotifier) SentOfKind(kind string) []SentNotification {
	var out []SentNotification
	for _, n := range m.Sent() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
