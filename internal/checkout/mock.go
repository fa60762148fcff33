package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Mock is an in-memory Provider. Webhook payloads are JSON-encoded
// CompletedPayment values and the signature must equal Secret.
type Mock struct {
	Secret string

	mu       sync.Mutex
	Requests []SessionRequest
}

func NewMock(secret string) *Mock {
	return &Mock{Secret: secret}
}

func (m *Mock) CreateSession(_ context.Context, req SessionRequest) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	id := fmt.Sprintf("cs_mock_%d", len(m.Requests))
	return &Session{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (m *Mock) ParseWebhook(payload []byte, signature string) (*CompletedPayment, error) {
	if signature != m.Secret {
		return nil, ErrInvalidSignature
	}
	var p CompletedPayment
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode mock event: %w", err)
	}
	if p.SessionID == "" {
		return nil, nil
	}
	return &p, nil
}
