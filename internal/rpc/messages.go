package rpc

import "github.com/mmynk/rentroll/internal/ledger"

// Months are "YYYY-MM"; an empty month means the current month.

type GetMonthStatusRequest struct {
	TenantID string `json:"tenant_id"`
	Month    string `json:"month"`
}

type GetMonthStatusResponse struct {
	Status ledger.MonthStatus `json:"status"`
}

type GetPaymentHistoryRequest struct {
	TenantID string `json:"tenant_id"`
	Month    string `json:"month"`
	Months   int    `json:"months"`
}

type GetPaymentHistoryResponse struct {
	Statuses []ledger.MonthStatus `json:"statuses"`
}

type SummarizeBuildingRequest struct {
	BuildingID string `json:"building_id"`
	Month      string `json:"month"`
}

type SummarizeBuildingResponse struct {
	Summary ledger.BuildingSummary `json:"summary"`
	Unpaid  int                    `json:"unpaid"`
}
