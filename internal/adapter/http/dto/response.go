package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bazaarworks/marketledger/internal/domain"
	"github.com/bazaarworks/marketledger/internal/usecase"
)

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	ID              string          `json:"id"`
	RetailerID      string          `json:"retailer_id"`
	WarehouseID     string          `json:"warehouse_id,omitempty"`
	OrderID         string          `json:"order_id,omitempty"`
	OrderItemID     string          `json:"order_item_id,omitempty"`
	TransactionType string          `json:"transaction_type"`
	EntryType       string          `json:"entry_type"`
	Amount          decimal.Decimal `json:"amount"`
	SettledAmount   decimal.Decimal `json:"settled_amount"`
	Status          string          `json:"status"`
	TriggerDate     time.Time       `json:"trigger_date"`
	Notes           string          `json:"notes,omitempty"`
	CreatedBy       string          `json:"created_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LedgerEntryFromDomain converts a domain entry to a response.
func LedgerEntryFromDomain(e *domain.LedgerEntry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:              e.ID,
		RetailerID:      e.RetailerID,
		WarehouseID:     e.WarehouseID,
		OrderID:         e.OrderID,
		OrderItemID:     e.OrderItemID,
		TransactionType: string(e.TransactionType),
		EntryType:       string(e.EntryType),
		Amount:          e.Amount,
		SettledAmount:   e.SettledAmount,
		Status:          string(e.Status),
		TriggerDate:     e.TriggerDate,
		Notes:           e.Notes,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// LedgerEntriesFromDomain converts domain entries to responses.
func LedgerEntriesFromDomain(entries []*domain.LedgerEntry) []*LedgerEntryResponse {
	result := make([]*LedgerEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = LedgerEntryFromDomain(e)
	}
	return result
}

// ListLedgerResponse is a page of ledger history.
type ListLedgerResponse struct {
	Entries []*LedgerEntryResponse `json:"entries"`
	Total   int64                  `json:"total"`
}

// BalanceResponse is a retailer's point-in-time available balance.
type BalanceResponse struct {
	RetailerID       string          `json:"retailer_id"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	EntryCount       int             `json:"entry_count"`
}

// BalanceFromUseCase converts a balance to a response.
func BalanceFromUseCase(b *usecase.Balance) *BalanceResponse {
	return &BalanceResponse{
		RetailerID:       b.RetailerID,
		AvailableBalance: b.AvailableBalance,
		EntryCount:       b.EntryCount,
	}
}

// ReleaseHoldsResponse reports how many entries a release pass moved to
// AVAILABLE.
type ReleaseHoldsResponse struct {
	Released int64 `json:"released"`
}

// SettlementResponse represents a settlement in API responses.
type SettlementResponse struct {
	ID              string          `json:"id"`
	RetailerID      string          `json:"retailer_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMode     string          `json:"payment_mode"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	ReceiptURL      string          `json:"receipt_url,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Status          string          `json:"status"`
	SettledBy       string          `json:"settled_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// SettlementFromDomain converts a domain settlement to a response.
func SettlementFromDomain(s *domain.Settlement) *SettlementResponse {
	return &SettlementResponse{
		ID:              s.ID,
		RetailerID:      s.RetailerID,
		Amount:          s.Amount,
		PaymentMode:     s.PaymentMode,
		ReferenceNumber: s.ReferenceNumber,
		ReceiptURL:      s.ReceiptURL,
		Notes:           s.Notes,
		Status:          string(s.Status),
		SettledBy:       s.SettledBy,
		CreatedAt:       s.CreatedAt,
	}
}

// SettlementsFromDomain converts domain settlements to responses.
func SettlementsFromDomain(settlements []*domain.Settlement) []*SettlementResponse {
	result := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		result[i] = SettlementFromDomain(s)
	}
	return result
}

// ListSettlementsResponse is a page of settlement history.
type ListSettlementsResponse struct {
	Settlements []*SettlementResponse `json:"settlements"`
	Total       int64                 `json:"total"`
}

// SettlementSummaryResponse is the result of an executed settlement.
type SettlementSummaryResponse struct {
	SettlementID   string          `json:"settlement_id"`
	RetailerID     string          `json:"retailer_id"`
	Amount         decimal.Decimal `json:"amount"`
	EntriesTouched int             `json:"entries_touched"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SummaryFromUseCase converts a settlement summary to a response.
func SummaryFromUseCase(s *usecase.SettlementSummary) *SettlementSummaryResponse {
	return &SettlementSummaryResponse{
		SettlementID:   s.SettlementID,
		RetailerID:     s.RetailerID,
		Amount:         s.Amount,
		EntriesTouched: s.EntriesTouched,
		CreatedAt:      s.CreatedAt,
	}
}

// AllocationResponse is one mapping row with the consumed entry.
type AllocationResponse struct {
	MappingID     string               `json:"mapping_id"`
	LedgerID      string               `json:"ledger_id"`
	AmountApplied decimal.Decimal      `json:"amount_applied"`
	Entry         *LedgerEntryResponse `json:"entry,omitempty"`
}

// SettlementDetailsResponse joins a settlement with its allocations.
type SettlementDetailsResponse struct {
	Settlement  *SettlementResponse   `json:"settlement"`
	Allocations []*AllocationResponse `json:"allocations"`
}

// DetailsFromUseCase converts settlement details to a response.
func DetailsFromUseCase(d *usecase.SettlementDetails) *SettlementDetailsResponse {
	allocations := make([]*AllocationResponse, len(d.Allocations))
	for i, a := range d.Allocations {
		resp := &AllocationResponse{
			MappingID:     a.Mapping.ID,
			LedgerID:      a.Mapping.LedgerID,
			AmountApplied: a.Mapping.AmountApplied,
		}
		if a.Entry != nil {
			resp.Entry = LedgerEntryFromDomain(a.Entry)
		}
		allocations[i] = resp
	}

	return &SettlementDetailsResponse{
		Settlement:  SettlementFromDomain(d.Settlement),
		Allocations: allocations,
	}
}

// ErrorResponse represents an error in API responses. Requested and
// Available are present only for insufficient-balance rejections.
type ErrorResponse struct {
	Error     string           `json:"error"`
	Message   string           `json:"message,omitempty"`
	Requested *decimal.Decimal `json:"requested,omitempty"`
	Available *decimal.Decimal `json:"available,omitempty"`
}
