package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bazaarworks/marketledger/internal/adapter/http/dto"
	"github.com/bazaarworks/marketledger/internal/domain"
	"github.com/bazaarworks/marketledger/internal/usecase"
)

// SettlementService defines the behavior needed by SettlementHandler.
type SettlementService interface {
	ExecuteSettlement(ctx context.Context, input usecase.ExecuteSettlementInput) (*usecase.SettlementSummary, error)
	GetSettlements(ctx context.Context, filter domain.SettlementFilter) ([]*domain.Settlement, error)
	GetSettlementDetails(ctx context.Context, settlementID string) (*usecase.SettlementDetails, error)
	UnfreezeRetailer(ctx context.Context, retailerID string) error
}

// SettlementHandler handles settlement-related HTTP requests.
type SettlementHandler struct {
	settlements SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlements SettlementService) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

// Execute runs a payout for a retailer.
func (h *SettlementHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req dto.ExecuteSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	summary, err := h.settlements.ExecuteSettlement(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SummaryFromUseCase(summary))
}

// List lists settlements.
func (h *SettlementHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.SettlementFilter{
		RetailerID: r.URL.Query().Get("retailer_id"),
		Limit:      parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset:     parseIntQuery(r, "offset", 0),
	}

	settlements, err := h.settlements.GetSettlements(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListSettlementsResponse{
		Settlements: dto.SettlementsFromDomain(settlements),
		Total:       int64(len(settlements)),
	})
}

// Get returns a settlement with its full allocation audit trail.
func (h *SettlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing settlement ID", "")
		return
	}

	details, err := h.settlements.GetSettlementDetails(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DetailsFromUseCase(details))
}

// Unfreeze lifts an integrity freeze for a retailer.
func (h *SettlementHandler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	retailerID := chi.URLParam(r, "retailerID")
	if retailerID == "" {
		writeError(w, http.StatusBadRequest, "missing retailer ID", "")
		return
	}

	if err := h.settlements.UnfreezeRetailer(r.Context(), retailerID); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "unfrozen"})
}
