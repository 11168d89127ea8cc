package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarworks/marketledger/internal/domain"
	"github.com/bazaarworks/marketledger/internal/usecase"
)

type stubLedgerService struct {
	recordRevenueFunc  func(ctx context.Context, input usecase.RecordOrderRevenueInput) ([]*domain.LedgerEntry, error)
	recordAdjustment   func(ctx context.Context, input usecase.RecordManualAdjustmentInput) (*domain.LedgerEntry, error)
	recordClawback     func(ctx context.Context, input usecase.RecordRefundClawbackInput) (*domain.LedgerEntry, error)
	getBalanceFunc     func(ctx context.Context, retailerID string) (*usecase.Balance, error)
	getHistoryFunc     func(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error)
	releaseEntriesFunc func(ctx context.Context, asOf time.Time) (int64, error)
}

func (s *stubLedgerService) RecordOrderRevenue(ctx context.Context, input usecase.RecordOrderRevenueInput) ([]*domain.LedgerEntry, error) {
	return s.recordRevenueFunc(ctx, input)
}

func (s *stubLedgerService) RecordManualAdjustment(ctx context.Context, input usecase.RecordManualAdjustmentInput) (*domain.LedgerEntry, error) {
	return s.recordAdjustment(ctx, input)
}

func (s *stubLedgerService) RecordRefundClawback(ctx context.Context, input usecase.RecordRefundClawbackInput) (*domain.LedgerEntry, error) {
	return s.recordClawback(ctx, input)
}

func (s *stubLedgerService) GetAvailableBalance(ctx context.Context, retailerID string) (*usecase.Balance, error) {
	return s.getBalanceFunc(ctx, retailerID)
}

func (s *stubLedgerService) GetLedgerHistory(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	return s.getHistoryFunc(ctx, filter)
}

func (s *stubLedgerService) ReleaseDueEntries(ctx context.Context, asOf time.Time) (int64, error) {
	return s.releaseEntriesFunc(ctx, asOf)
}

func TestRecordRevenueHandler(t *testing.T) {
	svc := &stubLedgerService{
		recordRevenueFunc: func(ctx context.Context, input usecase.RecordOrderRevenueInput) ([]*domain.LedgerEntry, error) {
			assert.Equal(t, "ord-1", input.OrderID)
			assert.True(t, input.GrossAmount.Equal(decimal.RequireFromString("200.00")))
			return []*domain.LedgerEntry{
				{ID: "e1", RetailerID: input.RetailerID, TransactionType: domain.TransactionOrderRevenue, EntryType: domain.EntryCredit, Amount: input.GrossAmount, Status: domain.EntryPending},
				{ID: "e2", RetailerID: input.RetailerID, TransactionType: domain.TransactionPlatformFee, EntryType: domain.EntryDebit, Amount: decimal.RequireFromString("20.00"), Status: domain.EntryPending},
			}, nil
		},
	}
	h := NewLedgerHandler(svc)

	body := `{"order_id":"ord-1","retailer_id":"ret-1","gross_amount":"200.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger/revenue", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.RecordRevenue(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "ORDER_REVENUE", entries[0]["transaction_type"])
	assert.Equal(t, "PLATFORM_FEE", entries[1]["transaction_type"])
}

func TestRecordRevenueHandlerBadBody(t *testing.T) {
	h := NewLedgerHandler(&stubLedgerService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger/revenue", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.RecordRevenue(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordRevenueHandlerValidationError(t *testing.T) {
	svc := &stubLedgerService{
		recordRevenueFunc: func(ctx context.Context, input usecase.RecordOrderRevenueInput) ([]*domain.LedgerEntry, error) {
			return nil, domain.ErrMissingOrderID
		},
	}
	h := NewLedgerHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger/revenue", strings.NewReader(`{"retailer_id":"ret-1"}`))
	rec := httptest.NewRecorder()

	h.RecordRevenue(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBalanceHandler(t *testing.T) {
	svc := &stubLedgerService{
		getBalanceFunc: func(ctx context.Context, retailerID string) (*usecase.Balance, error) {
			assert.Equal(t, "ret-1", retailerID)
			return &usecase.Balance{
				RetailerID:       retailerID,
				AvailableBalance: decimal.RequireFromString("110.00"),
				EntryCount:       2,
			}, nil
		},
	}
	h := NewLedgerHandler(svc)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/retailers/ret-1/balance", nil), "retailerID", "ret-1")
	rec := httptest.NewRecorder()

	h.GetBalance(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "110.00", resp["available_balance"])
	assert.Equal(t, float64(2), resp["entry_count"])
}

func TestHistoryHandlerRejectsUnknownFilters(t *testing.T) {
	h := NewLedgerHandler(&stubLedgerService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger?status=LIMBO", nil)
	rec := httptest.NewRecorder()
	h.History(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/ledger?transaction_type=GIFT", nil)
	rec = httptest.NewRecorder()
	h.History(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReleaseHoldsHandler(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := &stubLedgerService{
		releaseEntriesFunc: func(ctx context.Context, got time.Time) (int64, error) {
			assert.True(t, got.Equal(asOf))
			return 3, nil
		},
	}
	h := NewLedgerHandler(svc)

	body := `{"as_of":"2025-06-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger/release", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ReleaseHolds(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"released":3}`, rec.Body.String())
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
