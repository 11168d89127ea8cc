package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bazaarworks/marketledger/internal/adapter/http/dto"
	"github.com/bazaarworks/marketledger/internal/domain"
	"github.com/bazaarworks/marketledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	RecordOrderRevenue(ctx context.Context, input usecase.RecordOrderRevenueInput) ([]*domain.LedgerEntry, error)
	RecordManualAdjustment(ctx context.Context, input usecase.RecordManualAdjustmentInput) (*domain.LedgerEntry, error)
	RecordRefundClawback(ctx context.Context, input usecase.RecordRefundClawbackInput) (*domain.LedgerEntry, error)
	GetAvailableBalance(ctx context.Context, retailerID string) (*usecase.Balance, error)
	GetLedgerHistory(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error)
	ReleaseDueEntries(ctx context.Context, asOf time.Time) (int64, error)
}

// LedgerHandler handles ledger-related HTTP requests.
type LedgerHandler struct {
	ledger LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// RecordRevenue records order revenue plus its platform fee.
func (h *LedgerHandler) RecordRevenue(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordRevenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entries, err := h.ledger.RecordOrderRevenue(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LedgerEntriesFromDomain(entries))
}

// RecordAdjustment records a manual adjustment.
func (h *LedgerHandler) RecordAdjustment(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ledger.RecordManualAdjustment(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LedgerEntryFromDomain(entry))
}

// RecordClawback records a refund clawback.
func (h *LedgerHandler) RecordClawback(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordClawbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ledger.RecordRefundClawback(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LedgerEntryFromDomain(entry))
}

// ReleaseHolds releases due PENDING entries. Called by the external
// hold-release scheduler.
func (h *LedgerHandler) ReleaseHolds(w http.ResponseWriter, r *http.Request) {
	var req dto.ReleaseHoldsRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	released, err := h.ledger.ReleaseDueEntries(r.Context(), asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReleaseHoldsResponse{Released: released})
}

// GetBalance returns a retailer's available balance.
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	retailerID := chi.URLParam(r, "retailerID")
	if retailerID == "" {
		writeError(w, http.StatusBadRequest, "missing retailer ID", "")
		return
	}

	balance, err := h.ledger.GetAvailableBalance(r.Context(), retailerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromUseCase(balance))
}

// History lists ledger entries.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	filter := domain.LedgerFilter{
		RetailerID:      r.URL.Query().Get("retailer_id"),
		Status:          domain.EntryStatus(r.URL.Query().Get("status")),
		TransactionType: domain.TransactionType(r.URL.Query().Get("transaction_type")),
		Limit:           parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset:          parseIntQuery(r, "offset", 0),
	}

	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status filter", string(filter.Status))
		return
	}
	if filter.TransactionType != "" && !filter.TransactionType.Valid() {
		writeError(w, http.StatusBadRequest, "invalid transaction type filter", string(filter.TransactionType))
		return
	}

	entries, err := h.ledger.GetLedgerHistory(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListLedgerResponse{
		Entries: dto.LedgerEntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}
