package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType classifies what a payment is for.
type PaymentType string

const (
	PaymentRent        PaymentType = "rent"
	PaymentDeposit     PaymentType = "deposit"
	PaymentMaintenance PaymentType = "maintenance"
	PaymentOther       PaymentType = "other"
)

// Valid reports whether t is a known payment type.
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentRent, PaymentDeposit, PaymentMaintenance, PaymentOther:
		return true
	}
	return false
}

// PaymentMethod is how the money was received.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodUPI          PaymentMethod = "upi"
	MethodBankTransfer PaymentMethod = "bank-transfer"
	MethodCheque       PaymentMethod = "cheque"
	MethodOnline       PaymentMethod = "online"
	MethodOther        PaymentMethod = "other"
)

// Payment is one entry in a tenant's payment ledger.
// Payments are append-only; deletion is an administrative escape hatch.
type Payment struct {
	ID       string
	TenantID string

	// Amount is always positive for well-formed records.
	Amount decimal.Decimal

	// PaidOn is the calendar date the money was received.
	PaidOn time.Time

	// BillingMonth is the month the payment is intended to satisfy, formatted
	// "2006-01". Empty for legacy records that only carry PaidOn.
	BillingMonth string

	Type   PaymentType
	Method PaymentMethod
	Notes  string

	// ExternalRef identifies the payment at the checkout provider (for
	// example a Stripe checkout session id). Unique when set.
	ExternalRef string

	CreatedAt int64
}

// PaymentView is a payment joined with its tenant and room.
type PaymentView struct {
	Payment
	TenantName string
	RoomNumber string
	BuildingID string
}
