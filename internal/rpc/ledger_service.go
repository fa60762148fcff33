// Package rpc exposes read-only ledger queries as a Connect service.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/rentroll/internal/auth"
	"github.com/mmynk/rentroll/internal/ledger"
	"github.com/mmynk/rentroll/internal/middleware"
	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/service"
	"github.com/mmynk/rentroll/internal/storage"
)

const (
	// LedgerServiceName is the fully-qualified name of the service.
	LedgerServiceName = "rentroll.v1.LedgerService"

	GetMonthStatusProcedure    = "/" + LedgerServiceName + "/GetMonthStatus"
	GetPaymentHistoryProcedure = "/" + LedgerServiceName + "/GetPaymentHistory"
	SummarizeBuildingProcedure = "/" + LedgerServiceName + "/SummarizeBuilding"
)

// LedgerService answers month status queries for tenants and buildings.
type LedgerService struct {
	payments *service.PaymentService
	property *service.PropertyService
	now      func() time.Time
}

func NewLedgerService(payments *service.PaymentService, property *service.PropertyService) *LedgerService {
	return &LedgerService{payments: payments, property: property, now: time.Now}
}

// NewLedgerServiceHandler builds an HTTP handler that serves the service and
// returns the path to mount it on.
func NewLedgerServiceHandler(svc *LedgerService, jwtManager *auth.JWTManager) (string, http.Handler) {
	opts := []connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor()),
	}
	mux := http.NewServeMux()
	mux.Handle(GetMonthStatusProcedure, connect.NewUnaryHandler(GetMonthStatusProcedure, svc.GetMonthStatus, opts...))
	mux.Handle(GetPaymentHistoryProcedure, connect.NewUnaryHandler(GetPaymentHistoryProcedure, svc.GetPaymentHistory, opts...))
	mux.Handle(SummarizeBuildingProcedure, connect.NewUnaryHandler(SummarizeBuildingProcedure, svc.SummarizeBuilding, opts...))
	return "/" + LedgerServiceName + "/", mux
}

func (s *LedgerService) month(raw string) (ledger.MonthKey, error) {
	if raw == "" {
		return ledger.MonthOf(s.now()), nil
	}
	m, err := ledger.ParseMonth(raw)
	if err != nil {
		return ledger.MonthKey{}, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid month %q", raw))
	}
	return m, nil
}

// authorizeTenant allows management and the tenant themself.
func authorizeTenant(ctx context.Context, tenantID string) error {
	user := middleware.UserFromContext(ctx)
	if user == nil {
		return connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	if tenantID == "" {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("tenant_id is required"))
	}
	if user.Role == models.RoleManagement || user.TenantID == tenantID {
		return nil
	}
	return connect.NewError(connect.CodePermissionDenied, errors.New("tenants may only read their own ledger"))
}

// GetMonthStatus evaluates one month of a tenant's ledger.
func (s *LedgerService) GetMonthStatus(ctx context.Context, req *connect.Request[GetMonthStatusRequest]) (*connect.Response[GetMonthStatusResponse], error) {
	slog.Info("GetMonthStatus request received", "tenant_id", req.Msg.TenantID, "month", req.Msg.Month)

	if err := authorizeTenant(ctx, req.Msg.TenantID); err != nil {
		return nil, err
	}
	month, err := s.month(req.Msg.Month)
	if err != nil {
		return nil, err
	}

	status, err := s.payments.MonthStatus(ctx, req.Msg.TenantID, month)
	if err != nil {
		slog.Error("GetMonthStatus failed", "tenant_id", req.Msg.TenantID, "error", err)
		return nil, connectError(err)
	}
	return connect.NewResponse(&GetMonthStatusResponse{Status: status}), nil
}

// GetPaymentHistory evaluates the last Months months ending at Month.
func (s *LedgerService) GetPaymentHistory(ctx context.Context, req *connect.Request[GetPaymentHistoryRequest]) (*connect.Response[GetPaymentHistoryResponse], error) {
	slog.Info("GetPaymentHistory request received",
		"tenant_id", req.Msg.TenantID,
		"month", req.Msg.Month,
		"months", req.Msg.Months,
	)

	if err := authorizeTenant(ctx, req.Msg.TenantID); err != nil {
		return nil, err
	}
	month, err := s.month(req.Msg.Month)
	if err != nil {
		return nil, err
	}
	n := req.Msg.Months
	if n == 0 {
		n = 12
	}

	statuses, err := s.payments.History(ctx, req.Msg.TenantID, month, n)
	if err != nil {
		slog.Error("GetPaymentHistory failed", "tenant_id", req.Msg.TenantID, "error", err)
		return nil, connectError(err)
	}
	return connect.NewResponse(&GetPaymentHistoryResponse{Statuses: statuses}), nil
}

// SummarizeBuilding returns the month rollup of a building. Management only.
func (s *LedgerService) SummarizeBuilding(ctx context.Context, req *connect.Request[SummarizeBuildingRequest]) (*connect.Response[SummarizeBuildingResponse], error) {
	slog.Info("SummarizeBuilding request received", "building_id", req.Msg.BuildingID, "month", req.Msg.Month)

	if user := middleware.UserFromContext(ctx); user == nil || user.Role != models.RoleManagement {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("management only"))
	}
	month, err := s.month(req.Msg.Month)
	if err != nil {
		return nil, err
	}

	summary, err := s.property.Summary(ctx, req.Msg.BuildingID, month)
	if err != nil {
		slog.Error("SummarizeBuilding failed", "building_id", req.Msg.BuildingID, "error", err)
		return nil, connectError(err)
	}
	return connect.NewResponse(&SummarizeBuildingResponse{Summary: summary, Unpaid: summary.Unpaid()}), nil
}

// connectError maps service and storage errors to Connect codes.
func connectError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, service.ErrRoomOccupied), errors.Is(err, service.ErrNothingDue):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, service.ErrCheckoutDisabled):
		return connect.NewError(connect.CodeUnimplemented, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
