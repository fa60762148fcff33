package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/mmynk/rentroll/internal/checkout"
	"github.com/mmynk/rentroll/internal/ledger"
	"github.com/mmynk/rentroll/internal/models"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestRecordPayment(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	_, _, created := seedTenant(t, env)
	id := created.Tenant.ID

	t.Run("defaults type and method", func(t *testing.T) {
		p, err := env.payments.RecordPayment(ctx, PaymentInput{TenantID: id, Amount: d("5000"), PaidOn: day("2024-03-03")})
		if err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}
		if p.Type != models.PaymentRent || p.Method != models.MethodCash || p.BillingMonth != "" {
			t.Errorf("unexpected payment: %+v", p)
		}
	})

	t.Run("billing month canonicalized", func(t *testing.T) {
		p, err := env.payments.RecordPayment(ctx, PaymentInput{
			TenantID: id, Amount: d("1"), PaidOn: day("2024-04-02"), BillingMonth: "2024-03-15",
			Method: models.MethodUPI,
		})
		if err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}
		if p.BillingMonth != "2024-03" {
			t.Errorf("BillingMonth = %q, want 2024-03", p.BillingMonth)
		}
	})

	invalid := []struct {
		name  string
		input PaymentInput
	}{
		{"zero amount", PaymentInput{TenantID: id, Amount: d("0"), PaidOn: day("2024-03-01")}},
		{"negative amount", PaymentInput{TenantID: id, Amount: d("-10"), PaidOn: day("2024-03-01")}},
		{"missing date", PaymentInput{TenantID: id, Amount: d("10")}},
		{"bad month", PaymentInput{TenantID: id, Amount: d("10"), PaidOn: day("2024-03-01"), BillingMonth: "March"}},
		{"bad type", PaymentInput{TenantID: id, Amount: d("10"), PaidOn: day("2024-03-01"), Type: "bonus"}},
		{"bad method", PaymentInput{TenantID: id, Amount: d("10"), PaidOn: day("2024-03-01"), Method: "crypto"}},
		{"missing tenant", PaymentInput{Amount: d("10"), PaidOn: day("2024-03-01")}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.payments.RecordPayment(ctx, tt.input); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestMonthStatusAndHistory(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	_, _, created := seedTenant(t, env)
	id := created.Tenant.ID

	for _, in := range []PaymentInput{
		// February rent paid late in March, tagged to February.
		{TenantID: id, Amount: d("12500"), PaidOn: day("2024-03-02"), BillingMonth: "2024-02"},
		// Partial March payment without a tag.
		{TenantID: id, Amount: d("8000"), PaidOn: day("2024-03-10")},
		// Deposit never counts.
		{TenantID: id, Amount: d("24000"), PaidOn: day("2024-03-01"), Type: models.PaymentDeposit},
	} {
		if _, err := env.payments.RecordPayment(ctx, in); err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}
	}

	status, err := env.payments.MonthStatus(ctx, id, march())
	if err != nil {
		t.Fatalf("MonthStatus failed: %v", err)
	}
	want := ledger.MonthStatus{
		Month:     march(),
		TotalDue:  d("12500"),
		TotalPaid: d("8000"),
		Shortfall: d("4500"),
		Outcome:   ledger.Partial,
	}
	if diff := cmp.Diff(want, status, decimalEqual); diff != "" {
		t.Errorf("MonthStatus mismatch (-want +got):\n%s", diff)
	}

	history, err := env.payments.History(ctx, id, march(), 3)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	var outcomes []ledger.Outcome
	for _, h := range history {
		outcomes = append(outcomes, h.Outcome)
	}
	if diff := cmp.Diff([]ledger.Outcome{ledger.Pending, ledger.Paid, ledger.Partial}, outcomes); diff != "" {
		t.Errorf("History outcomes mismatch (-want +got):\n%s", diff)
	}

	if _, err := env.payments.History(ctx, id, march(), 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero months, got %v", err)
	}
}

func TestDashboard(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	b, rooms, created := seedTenant(t, env)

	second, err := env.tenants.CreateTenant(ctx, TenantInput{
		BuildingID:    b.ID,
		RoomID:        rooms[1].ID,
		TenantDetails: TenantDetails{Name: "Ravi", Rent: d("10000"), AgreementStart: day("2024-01-01")},
	})
	if err != nil {
		t.Fatalf("CreateTenant failed: %v", err)
	}

	for _, in := range []PaymentInput{
		{TenantID: created.Tenant.ID, Amount: d("12500"), PaidOn: day("2024-03-05")},
		{TenantID: second.Tenant.ID, Amount: d("9000"), PaidOn: day("2024-02-04")},
		{TenantID: second.Tenant.ID, Amount: d("1000"), PaidOn: day("2024-02-20")},
	} {
		if _, err := env.payments.RecordPayment(ctx, in); err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}
	}

	dash, err := env.payments.Dashboard(ctx, march())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if dash.BuildingCount != 1 || dash.ActiveTenants != 2 {
		t.Errorf("counts = %d buildings, %d tenants", dash.BuildingCount, dash.ActiveTenants)
	}
	if dash.Summary.PaidCount != 1 || dash.Summary.PendingCount != 1 {
		t.Errorf("unexpected summary: %+v", dash.Summary)
	}
	if !dash.MonthlyPotential.Equal(d("22500")) {
		t.Errorf("MonthlyPotential = %s, want 22500", dash.MonthlyPotential)
	}
	if dash.PreviousMonth.String() != "2024-02" || !dash.PreviousMonthRevenue.Equal(d("10000")) {
		t.Errorf("previous month = %s revenue %s", dash.PreviousMonth, dash.PreviousMonthRevenue)
	}
	if len(dash.Transactions) != 2 || dash.Transactions[0].TenantName != "Ravi" {
		t.Errorf("unexpected transactions: %d", len(dash.Transactions))
	}
}

func TestCheckout(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	_, _, created := seedTenant(t, env)
	id := created.Tenant.ID

	if _, err := env.payments.RecordPayment(ctx, PaymentInput{TenantID: id, Amount: d("2500"), PaidOn: day("2024-03-01")}); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	sess, err := env.payments.StartCheckout(ctx, id, march())
	if err != nil {
		t.Fatalf("StartCheckout failed: %v", err)
	}
	if sess.URL == "" {
		t.Error("expected redirect URL")
	}
	req := env.provider.Requests[0]
	if !req.Amount.Equal(d("10000")) || req.BillingMonth != "2024-03" || req.TenantID != id {
		t.Errorf("unexpected session request: %+v", req)
	}
	if req.SuccessURL != "http://rent.test/tenant/dashboard?payment=success" {
		t.Errorf("SuccessURL = %q", req.SuccessURL)
	}

	completed := &checkout.CompletedPayment{
		SessionID:    sess.ID,
		TenantID:     id,
		BillingMonth: "2024-03",
		PaymentType:  "rent",
		Amount:       d("10000"),
		PaidAt:       time.Date(2024, 3, 20, 15, 4, 5, 0, time.UTC),
	}
	p, recorded, err := env.payments.CompleteCheckout(ctx, completed)
	if err != nil || !recorded {
		t.Fatalf("CompleteCheckout = %v, %v", recorded, err)
	}
	if p.Method != models.MethodOnline || p.ExternalRef != sess.ID || !p.PaidOn.Equal(day("2024-03-20")) {
		t.Errorf("unexpected payment: %+v", p)
	}

	t.Run("replayed webhook is ignored", func(t *testing.T) {
		_, recorded, err := env.payments.CompleteCheckout(ctx, completed)
		if err != nil || recorded {
			t.Errorf("replay = %v, %v; want false, nil", recorded, err)
		}
		payments, _ := env.payments.ListPayments(ctx, id)
		if len(payments) != 2 {
			t.Errorf("expected 2 payments, got %d", len(payments))
		}
	})

	t.Run("nothing due", func(t *testing.T) {
		if _, err := env.payments.StartCheckout(ctx, id, march()); !errors.Is(err, ErrNothingDue) {
			t.Errorf("expected ErrNothingDue, got %v", err)
		}
	})

	t.Run("vacated tenant", func(t *testing.T) {
		if err := env.tenants.VacateTenant(ctx, id); err != nil {
			t.Fatalf("VacateTenant failed: %v", err)
		}
		before := len(env.provider.Requests)
		if _, err := env.payments.StartCheckout(ctx, id, ledger.NewMonthKey(2024, time.February)); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(env.provider.Requests) != before {
			t.Error("no session should be created for a vacated tenant")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		svc := NewPaymentService(env.store, env.cache, nil, nil, nil, "")
		if _, err := svc.StartCheckout(ctx, id, march()); !errors.Is(err, ErrCheckoutDisabled) {
			t.Errorf("expected ErrCheckoutDisabled, got %v", err)
		}
	})
}
