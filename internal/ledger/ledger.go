// Package ledger evaluates a tenant's payment ledger against their monthly
// billing terms. Everything here is pure: no I/O, no logging, no shared state.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType classifies a payment record. Only deposits are treated
// specially: they never count toward a month's rent.
type PaymentType string

const (
	TypeRent        PaymentType = "rent"
	TypeDeposit     PaymentType = "deposit"
	TypeMaintenance PaymentType = "maintenance"
	TypeOther       PaymentType = "other"
)

// BillingTerms are the monthly charges of a tenant's contract.
type BillingTerms struct {
	MonthlyRent        decimal.Decimal
	MonthlyMaintenance decimal.Decimal
}

// TotalDue returns rent plus maintenance.
func (t BillingTerms) TotalDue() decimal.Decimal {
	return t.MonthlyRent.Add(t.MonthlyMaintenance)
}

// PaymentRecord is the evaluator's view of one payment.
type PaymentRecord struct {
	ID       string
	TenantID string
	Amount   decimal.Decimal

	// PaidOn is the calendar date the payment was received.
	PaidOn time.Time

	// BillingMonth is nil for legacy records that only carry PaidOn.
	BillingMonth *MonthKey

	// Type defaults to rent when empty.
	Type PaymentType
}

// EffectiveType returns the record's type, defaulting to rent.
func (p PaymentRecord) EffectiveType() PaymentType {
	if p.Type == "" {
		return TypeRent
	}
	return p.Type
}

// AppliesTo reports whether the record counts toward month. Deposits and
// non-positive amounts never count. An explicit billing month takes priority
// over the paid-on date.
func (p PaymentRecord) AppliesTo(month MonthKey) bool {
	if p.EffectiveType() == TypeDeposit || !p.Amount.IsPositive() {
		return false
	}
	if p.BillingMonth != nil {
		return *p.BillingMonth == month
	}
	return month.Contains(p.PaidOn)
}

// Outcome is the payment state of a month.
type Outcome string

const (
	Paid    Outcome = "paid"
	Partial Outcome = "partial"
	Pending Outcome = "pending"
)

// MonthStatus is the result of evaluating one month.
type MonthStatus struct {
	Month     MonthKey        `json:"month"`
	TotalDue  decimal.Decimal `json:"total_due"`
	TotalPaid decimal.Decimal `json:"total_paid"`

	// Shortfall is TotalDue - TotalPaid when positive, zero otherwise.
	Shortfall decimal.Decimal `json:"shortfall"`
	Outcome   Outcome         `json:"outcome"`
}

// EvaluateMonth computes whether month is paid, partially paid or pending.
//
// Algorithm:
//   - total due = rent + maintenance; nothing owed means Paid
//   - total paid = sum of records that apply to month (see AppliesTo)
//   - no payment is Pending, paid >= due is Paid (overpayment allowed),
//     anything else is Partial with the shortfall reported
//
// The result does not depend on the order of payments.
func EvaluateMonth(terms BillingTerms, payments []PaymentRecord, month MonthKey) MonthStatus {
	status := MonthStatus{
		Month:     month,
		TotalDue:  terms.TotalDue(),
		TotalPaid: decimal.Zero,
		Shortfall: decimal.Zero,
	}
	if !status.TotalDue.IsPositive() {
		status.Outcome = Paid
		return status
	}

	for _, p := range payments {
		if p.AppliesTo(month) {
			status.TotalPaid = status.TotalPaid.Add(p.Amount)
		}
	}

	switch {
	case status.TotalPaid.IsZero():
		status.Outcome = Pending
		status.Shortfall = status.TotalDue
	case status.TotalPaid.GreaterThanOrEqual(status.TotalDue):
		status.Outcome = Paid
	default:
		status.Outcome = Partial
		status.Shortfall = status.TotalDue.Sub(status.TotalPaid)
	}
	return status
}

// History evaluates n consecutive months ending at through, oldest first.
func History(terms BillingTerms, payments []PaymentRecord, through MonthKey, n int) []MonthStatus {
	if n <= 0 {
		return nil
	}
	out := make([]MonthStatus, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, EvaluateMonth(terms, payments, through.AddMonths(-i)))
	}
	return out
}

// InvalidRecords returns the IDs of records whose amount is not positive.
// EvaluateMonth silently excludes them; callers are expected to log these.
func InvalidRecords(payments []PaymentRecord) []string {
	var ids []string
	for _, p := range payments {
		if !p.Amount.IsPositive() {
			ids = append(ids, p.ID)
		}
	}
	return ids
}
