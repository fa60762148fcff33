package ledger

import "github.com/shopspring/decimal"

// TenantTerms is the minimal tenant information needed for a building rollup.
type TenantTerms struct {
	TenantID string
	Terms    BillingTerms
	Active   bool
}

// BuildingSummary tallies month outcomes across a building's active tenants.
type BuildingSummary struct {
	Month          MonthKey        `json:"month"`
	OccupiedCount  int             `json:"occupied_count"`
	PaidCount      int             `json:"paid_count"`
	PartialCount   int             `json:"partial_count"`
	PendingCount   int             `json:"pending_count"`
	TotalDue       decimal.Decimal `json:"total_due"`
	TotalCollected decimal.Decimal `json:"total_collected"`
}

// Unpaid returns the number of tenants that have not fully paid.
func (s BuildingSummary) Unpaid() int {
	return s.PartialCount + s.PendingCount
}

// SummarizeBuilding applies EvaluateMonth to every active tenant and tallies
// the outcomes. Vacated tenants are skipped. Tenants missing from
// paymentsByTenant are evaluated against an empty ledger.
func SummarizeBuilding(tenants []TenantTerms, paymentsByTenant map[string][]PaymentRecord, month MonthKey) BuildingSummary {
	summary := BuildingSummary{
		Month:          month,
		TotalDue:       decimal.Zero,
		TotalCollected: decimal.Zero,
	}
	for _, t := range tenants {
		if !t.Active {
			continue
		}
		summary.OccupiedCount++

		status := EvaluateMonth(t.Terms, paymentsByTenant[t.TenantID], month)
		summary.TotalDue = summary.TotalDue.Add(status.TotalDue)
		summary.TotalCollected = summary.TotalCollected.Add(status.TotalPaid)

		switch status.Outcome {
		case Paid:
			summary.PaidCount++
		case Partial:
			summary.PartialCount++
		default:
			summary.PendingCount++
		}
	}
	return summary
}
