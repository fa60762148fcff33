package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/rentroll/internal/cache"
	"github.com/mmynk/rentroll/internal/checkout"
	"github.com/mmynk/rentroll/internal/eventlog"
	"github.com/mmynk/rentroll/internal/ledger"
	"github.com/mmynk/rentroll/internal/metrics"
	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/storage"
)

// MaxHistoryMonths bounds History requests.
const MaxHistoryMonths = 36

// PaymentInput is the form for recording a payment.
type PaymentInput struct {
	TenantID string `validate:"required" label:"tenant"`
	Amount   decimal.Decimal
	PaidOn   time.Time `label:"paid on"`

	// BillingMonth is YYYY-MM (or a YYYY-MM-DD date inside the month).
	// Empty means the paid-on date decides which month the payment covers.
	BillingMonth string `label:"billing month"`

	Type   models.PaymentType   `validate:"omitempty,oneof=rent deposit maintenance other"`
	Method models.PaymentMethod `validate:"omitempty,oneof=cash upi bank-transfer cheque online other"`
	Notes  string               `validate:"max=500"`
}

// Dashboard is the management overview for one month.
type Dashboard struct {
	Month            ledger.MonthKey
	BuildingCount    int
	ActiveTenants    int
	Summary          ledger.BuildingSummary
	MonthlyPotential decimal.Decimal
	Tenants          []TenantMonth

	PreviousMonth        ledger.MonthKey
	PreviousMonthRevenue decimal.Decimal
	Transactions         []*models.PaymentView
}

// PaymentService manages the payment ledger and evaluates it.
type PaymentService struct {
	store    storage.Store
	cache    cache.Cache
	provider checkout.Provider
	metrics  *metrics.Metrics
	events   eventlog.Logger
	baseURL  string
}

// NewPaymentService creates a PaymentService. provider may be nil, which
// disables online payment.
func NewPaymentService(store storage.Store, c cache.Cache, provider checkout.Provider, m *metrics.Metrics, events eventlog.Logger, baseURL string) *PaymentService {
	return &PaymentService{
		store:    store,
		cache:    c,
		provider: provider,
		metrics:  m,
		events:   events,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// CheckoutEnabled reports whether tenants can pay online.
func (s *PaymentService) CheckoutEnabled() bool {
	return s.provider != nil
}

// RecordPayment appends a payment to a tenant's ledger.
func (s *PaymentService) RecordPayment(ctx context.Context, in PaymentInput) (*models.Payment, error) {
	p, err := s.buildPayment(in)
	if err != nil {
		return nil, err
	}
	t, err := s.store.GetTenant(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		slog.Error("RecordPayment failed", "tenant_id", in.TenantID, "error", err)
		return nil, err
	}
	s.afterPayment(ctx, t, p)
	return p, nil
}

func (s *PaymentService) buildPayment(in PaymentInput) (*models.Payment, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, invalid("amount must be greater than zero")
	}
	if in.PaidOn.IsZero() {
		return nil, invalid("paid on date is required")
	}

	p := &models.Payment{
		TenantID: in.TenantID,
		Amount:   in.Amount,
		PaidOn:   in.PaidOn,
		Type:     in.Type,
		Method:   in.Method,
		Notes:    in.Notes,
	}
	if m := strings.TrimSpace(in.BillingMonth); m != "" {
		month, err := ledger.ParseMonth(m)
		if err != nil {
			return nil, invalid("billing month %q is not a valid month", m)
		}
		p.BillingMonth = month.String()
	}
	if p.Type == "" {
		p.Type = models.PaymentRent
	}
	if p.Method == "" {
		p.Method = models.MethodCash
	}
	return p, nil
}

func (s *PaymentService) afterPayment(ctx context.Context, t *models.TenantView, p *models.Payment) {
	slog.Info("Payment recorded",
		"payment_id", p.ID,
		"tenant_id", p.TenantID,
		"amount", p.Amount.String(),
		"billing_month", p.BillingMonth,
		"method", p.Method,
	)
	s.metrics.ObservePayment(string(p.Method))
	invalidateSummaries(ctx, s.cache, t.BuildingID)
	s.events.Log(eventlog.NewEvent(
		eventlog.WithType(eventlog.PaymentRecorded),
		eventlog.WithSubject(p.TenantID),
		eventlog.WithData(map[string]string{
			"amount":        p.Amount.String(),
			"billing_month": p.BillingMonth,
			"type":          string(p.Type),
			"method":        string(p.Method),
		}),
	))
}

// ListPayments returns a tenant's payments, newest first.
func (s *PaymentService) ListPayments(ctx context.Context, tenantID string) ([]*models.Payment, error) {
	return s.store.ListPayments(ctx, tenantID)
}

// ListPaymentsForTenants returns the payments of several tenants between
// from and to (inclusive, zero means unbounded).
func (s *PaymentService) ListPaymentsForTenants(ctx context.Context, tenantIDs []string, from, to time.Time) ([]*models.PaymentView, error) {
	if len(tenantIDs) == 0 {
		return nil, nil
	}
	return s.store.ListPaymentsForTenants(ctx, storage.PaymentFilter{TenantIDs: tenantIDs, From: from, To: to})
}

// DeletePayment removes a mistaken entry from the ledger.
// GetPayment returns a single ledger record.
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	return s.store.GetPayment(ctx, id)
}

func (s *PaymentService) DeletePayment(ctx context.Context, id string) error {
	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return err
	}
	t, err := s.store.GetTenant(ctx, p.TenantID)
	if err != nil {
		return err
	}
	if err := s.store.DeletePayment(ctx, id); err != nil {
		slog.Error("DeletePayment failed", "payment_id", id, "error", err)
		return err
	}

	slog.Info("Payment deleted", "payment_id", id, "tenant_id", p.TenantID)
	invalidateSummaries(ctx, s.cache, t.BuildingID)
	s.events.Log(eventlog.NewEvent(
		eventlog.WithType(eventlog.PaymentDeleted),
		eventlog.WithSubject(p.TenantID),
		eventlog.WithData(map[string]string{"amount": p.Amount.String(), "paid_on": p.PaidOn.Format(models.DateLayout)}),
	))
	return nil
}

func (s *PaymentService) tenantLedger(ctx context.Context, tenantID string) (*models.TenantView, []ledger.PaymentRecord, error) {
	t, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	payments, err := s.store.ListPayments(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	records := toRecords(payments)
	logInvalidRecords(tenantID, records)
	return t, records, nil
}

// MonthStatus evaluates a tenant's ledger for month.
func (s *PaymentService) MonthStatus(ctx context.Context, tenantID string, month ledger.MonthKey) (ledger.MonthStatus, error) {
	t, records, err := s.tenantLedger(ctx, tenantID)
	if err != nil {
		return ledger.MonthStatus{}, err
	}
	status := ledger.EvaluateMonth(termsOf(&t.Tenant), records, month)
	s.metrics.ObserveOutcome(string(status.Outcome))
	return status, nil
}

// History evaluates the n months ending at through, oldest first.
func (s *PaymentService) History(ctx context.Context, tenantID string, through ledger.MonthKey, n int) ([]ledger.MonthStatus, error) {
	if n < 1 || n > MaxHistoryMonths {
		return nil, invalid("months must be between 1 and %d", MaxHistoryMonths)
	}
	t, records, err := s.tenantLedger(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ledger.History(termsOf(&t.Tenant), records, through, n), nil
}

// Dashboard builds the management overview for month.
func (s *PaymentService) Dashboard(ctx context.Context, month ledger.MonthKey) (*Dashboard, error) {
	buildings, err := s.store.ListBuildings(ctx)
	if err != nil {
		return nil, err
	}
	tenants, err := s.store.ListTenants(ctx, "")
	if err != nil {
		return nil, err
	}

	rows, summary, err := evaluateTenants(ctx, s.store, tenants, month)
	if err != nil {
		slog.Error("Dashboard failed", "month", month.String(), "error", err)
		return nil, err
	}

	d := &Dashboard{
		Month:                month,
		BuildingCount:        len(buildings),
		ActiveTenants:        len(rows),
		Summary:              summary,
		MonthlyPotential:     decimal.Zero,
		Tenants:              rows,
		PreviousMonth:        month.Prev(),
		PreviousMonthRevenue: decimal.Zero,
	}
	for _, r := range rows {
		d.MonthlyPotential = d.MonthlyPotential.Add(r.Tenant.MonthlyTotal())
	}

	prev := month.Prev()
	d.Transactions, err = s.store.ListPaymentsForTenants(ctx, storage.PaymentFilter{From: prev.Start(), To: prev.End()})
	if err != nil {
		return nil, err
	}
	for _, p := range d.Transactions {
		d.PreviousMonthRevenue = d.PreviousMonthRevenue.Add(p.Amount)
	}
	return d, nil
}

// StartCheckout opens a hosted payment session for what the tenant still
// owes for month.
func (s *PaymentService) StartCheckout(ctx context.Context, tenantID string, month ledger.MonthKey) (*checkout.Session, error) {
	if s.provider == nil {
		return nil, ErrCheckoutDisabled
	}
	t, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive() {
		return nil, invalid("tenant %s has vacated", t.Name)
	}
	status, err := s.MonthStatus(ctx, tenantID, month)
	if err != nil {
		return nil, err
	}
	if status.Outcome == ledger.Paid || !status.Shortfall.IsPositive() {
		return nil, fmt.Errorf("%s: %w", month, ErrNothingDue)
	}

	sess, err := s.provider.CreateSession(ctx, checkout.SessionRequest{
		TenantID:     tenantID,
		BillingMonth: month.String(),
		PaymentType:  string(models.PaymentRent),
		Amount:       status.Shortfall,
		Description:  fmt.Sprintf("Rent for %s", month.Start().Format("January 2006")),
		SuccessURL:   s.baseURL + "/tenant/dashboard?payment=success",
		CancelURL:    s.baseURL + "/tenant/dashboard?payment=cancelled",
	})
	if err != nil {
		slog.Error("StartCheckout failed", "tenant_id", tenantID, "error", err)
		return nil, err
	}

	slog.Info("Checkout started", "tenant_id", tenantID, "session_id", sess.ID, "amount", status.Shortfall.String())
	s.events.Log(eventlog.NewEvent(
		eventlog.WithType(eventlog.CheckoutStarted),
		eventlog.WithSubject(tenantID),
		eventlog.WithData(map[string]string{"session_id": sess.ID, "amount": status.Shortfall.String()}),
	))
	return sess, nil
}

// CompleteCheckout records the payment confirmed by a verified webhook.
// Replayed events are detected by the session ID and reported as not
// recorded without error.
func (s *PaymentService) CompleteCheckout(ctx context.Context, cp *checkout.CompletedPayment) (*models.Payment, bool, error) {
	if cp.SessionID == "" {
		return nil, false, invalid("checkout session id is required")
	}
	paymentType := models.PaymentType(cp.PaymentType)
	if !paymentType.Valid() {
		paymentType = models.PaymentRent
	}
	p, err := s.buildPayment(PaymentInput{
		TenantID:     cp.TenantID,
		Amount:       cp.Amount,
		PaidOn:       cp.PaidAt.UTC().Truncate(24 * time.Hour),
		BillingMonth: cp.BillingMonth,
		Type:         paymentType,
		Method:       models.MethodOnline,
		Notes:        "Online checkout",
	})
	if err != nil {
		return nil, false, err
	}
	p.ExternalRef = cp.SessionID

	t, err := s.store.GetTenant(ctx, cp.TenantID)
	if err != nil {
		return nil, false, err
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			slog.Info("Checkout already recorded", "session_id", cp.SessionID)
			return nil, false, nil
		}
		slog.Error("CompleteCheckout failed", "session_id", cp.SessionID, "error", err)
		return nil, false, err
	}
	s.afterPayment(ctx, t, p)
	return p, true, nil
}
