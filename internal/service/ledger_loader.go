package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/rentroll/internal/ledger"
	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/storage"
)

// TenantMonth pairs a tenant with its evaluated month.
type TenantMonth struct {
	Tenant *models.TenantView
	Status ledger.MonthStatus
}

func termsOf(t *models.Tenant) ledger.BillingTerms {
	return ledger.BillingTerms{
		MonthlyRent:        t.Rent,
		MonthlyMaintenance: t.Maintenance,
	}
}

// toRecord converts a stored payment into the evaluator's view. A stored
// billing month that does not parse is treated as absent so the paid-on
// date decides.
func toRecord(p *models.Payment) ledger.PaymentRecord {
	rec := ledger.PaymentRecord{
		ID:       p.ID,
		TenantID: p.TenantID,
		Amount:   p.Amount,
		PaidOn:   p.PaidOn,
		Type:     ledger.PaymentType(p.Type),
	}
	if p.BillingMonth != "" {
		if m, err := ledger.ParseMonth(p.BillingMonth); err == nil {
			rec.BillingMonth = &m
		} else {
			slog.Warn("ignoring unparseable billing month", "payment_id", p.ID, "billing_month", p.BillingMonth)
		}
	}
	return rec
}

func toRecords(payments []*models.Payment) []ledger.PaymentRecord {
	records := make([]ledger.PaymentRecord, len(payments))
	for i, p := range payments {
		records[i] = toRecord(p)
	}
	return records
}

func logInvalidRecords(tenantID string, records []ledger.PaymentRecord) {
	if ids := ledger.InvalidRecords(records); len(ids) > 0 {
		slog.Warn("payment records with non-positive amounts ignored",
			"tenant_id", tenantID,
			"payment_ids", ids,
		)
	}
}

// loadRecords fetches the ledgers of the given tenants keyed by tenant ID.
func loadRecords(ctx context.Context, store storage.PaymentStore, tenantIDs []string) (map[string][]ledger.PaymentRecord, error) {
	byTenant := make(map[string][]ledger.PaymentRecord, len(tenantIDs))
	if len(tenantIDs) == 0 {
		return byTenant, nil
	}
	payments, err := store.ListPaymentsForTenants(ctx, storage.PaymentFilter{TenantIDs: tenantIDs})
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	for _, p := range payments {
		byTenant[p.TenantID] = append(byTenant[p.TenantID], toRecord(&p.Payment))
	}
	for id, records := range byTenant {
		logInvalidRecords(id, records)
	}
	return byTenant, nil
}

// evaluateTenants evaluates month for every active tenant in tenants.
func evaluateTenants(ctx context.Context, store storage.PaymentStore, tenants []*models.TenantView, month ledger.MonthKey) ([]TenantMonth, ledger.BuildingSummary, error) {
	var ids []string
	var terms []ledger.TenantTerms
	for _, t := range tenants {
		if !t.IsActive() {
			continue
		}
		ids = append(ids, t.ID)
		terms = append(terms, ledger.TenantTerms{TenantID: t.ID, Terms: termsOf(&t.Tenant), Active: true})
	}

	byTenant, err := loadRecords(ctx, store, ids)
	if err != nil {
		return nil, ledger.BuildingSummary{}, err
	}

	rows := make([]TenantMonth, 0, len(ids))
	for _, t := range tenants {
		if !t.IsActive() {
			continue
		}
		rows = append(rows, TenantMonth{
			Tenant: t,
			Status: ledger.EvaluateMonth(termsOf(&t.Tenant), byTenant[t.ID], month),
		})
	}
	return rows, ledger.SummarizeBuilding(terms, byTenant, month), nil
}
