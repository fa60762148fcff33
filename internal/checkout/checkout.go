// Package checkout creates hosted payment sessions for tenants and turns
// verified provider webhooks into completed payments.
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Metadata keys attached to every session.
const (
	MetaTenantID     = "tenant_id"
	MetaBillingMonth = "billing_month"
	MetaPaymentType  = "payment_type"
)

// SessionRequest describes a single rent payment.
type SessionRequest struct {
	TenantID     string
	BillingMonth string // YYYY-MM
	PaymentType  string
	Amount       decimal.Decimal
	Description  string
	SuccessURL   string
	CancelURL    string
}

// Session is a created checkout session. URL is where the tenant is
// redirected to pay.
type Session struct {
	ID  string
	URL string
}

// CompletedPayment is a payment confirmed by a verified webhook.
type CompletedPayment struct {
	SessionID    string
	TenantID     string
	BillingMonth string
	PaymentType  string
	Amount       decimal.Decimal
	PaidAt       time.Time
}

// Provider is a hosted checkout service.
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)

	// ParseWebhook verifies the payload signature. It returns nil without
	// error for verified events that do not complete a payment.
	ParseWebhook(payload []byte, signature string) (*CompletedPayment, error)
}
