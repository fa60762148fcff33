package rpc

import (
	"context"

	"connectrpc.com/connect"
)

// LedgerServiceClient calls LedgerService over Connect with the JSON codec.
type LedgerServiceClient struct {
	getMonthStatus    *connect.Client[GetMonthStatusRequest, GetMonthStatusResponse]
	getPaymentHistory *connect.Client[GetPaymentHistoryRequest, GetPaymentHistoryResponse]
	summarizeBuilding *connect.Client[SummarizeBuildingRequest, SummarizeBuildingResponse]
}

func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &LedgerServiceClient{
		getMonthStatus:    connect.NewClient[GetMonthStatusRequest, GetMonthStatusResponse](httpClient, baseURL+GetMonthStatusProcedure, opts...),
		getPaymentHistory: connect.NewClient[GetPaymentHistoryRequest, GetPaymentHistoryResponse](httpClient, baseURL+GetPaymentHistoryProcedure, opts...),
		summarizeBuilding: connect.NewClient[SummarizeBuildingRequest, SummarizeBuildingResponse](httpClient, baseURL+SummarizeBuildingProcedure, opts...),
	}
}

func (c *LedgerServiceClient) GetMonthStatus(ctx context.Context, req *connect.Request[GetMonthStatusRequest]) (*connect.Response[GetMonthStatusResponse], error) {
	return c.getMonthStatus.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetPaymentHistory(ctx context.Context, req *connect.Request[GetPaymentHistoryRequest]) (*connect.Response[GetPaymentHistoryResponse], error) {
	return c.getPaymentHistory.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) SummarizeBuilding(ctx context.Context, req *connect.Request[SummarizeBuildingRequest]) (*connect.Response[SummarizeBuildingResponse], error) {
	return c.summarizeBuilding.CallUnary(ctx, req)
}
