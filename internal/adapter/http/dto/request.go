package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bazaarworks/marketledger/internal/domain"
	"github.com/bazaarworks/marketledger/internal/usecase"
)

// RecordRevenueRequest represents a delivered order item to record.
type RecordRevenueRequest struct {
	OrderID     string           `json:"order_id"`
	OrderItemID string           `json:"order_item_id,omitempty"`
	RetailerID  string           `json:"retailer_id"`
	WarehouseID string           `json:"warehouse_id,omitempty"`
	GrossAmount decimal.Decimal  `json:"gross_amount"`
	PlatformFee *decimal.Decimal `json:"platform_fee,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordRevenueRequest) ToUseCaseInput() usecase.RecordOrderRevenueInput {
	return usecase.RecordOrderRevenueInput{
		OrderID:     r.OrderID,
		OrderItemID: r.OrderItemID,
		RetailerID:  r.RetailerID,
		WarehouseID: r.WarehouseID,
		GrossAmount: r.GrossAmount,
		PlatformFee: r.PlatformFee,
		Notes:       r.Notes,
	}
}

// RecordAdjustmentRequest represents a manual adjustment.
type RecordAdjustmentRequest struct {
	RetailerID  string          `json:"retailer_id"`
	WarehouseID string          `json:"warehouse_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	EntryType   string          `json:"entry_type"`
	Notes       string          `json:"notes"`
	ActorID     string          `json:"actor_id"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordAdjustmentRequest) ToUseCaseInput() usecase.RecordManualAdjustmentInput {
	return usecase.RecordManualAdjustmentInput{
		RetailerID:  r.RetailerID,
		WarehouseID: r.WarehouseID,
		Amount:      r.Amount,
		EntryType:   domain.EntryType(r.EntryType),
		Notes:       r.Notes,
		ActorID:     r.ActorID,
	}
}

// RecordClawbackRequest represents a refund clawback.
type RecordClawbackRequest struct {
	OrderID      string          `json:"order_id"`
	OrderItemID  string          `json:"order_item_id,omitempty"`
	RetailerID   string          `json:"retailer_id"`
	WarehouseID  string          `json:"warehouse_id,omitempty"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	Notes        string          `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordClawbackRequest) ToUseCaseInput() usecase.RecordRefundClawbackInput {
	return usecase.RecordRefundClawbackInput{
		OrderID:      r.OrderID,
		OrderItemID:  r.OrderItemID,
		RetailerID:   r.RetailerID,
		WarehouseID:  r.WarehouseID,
		RefundAmount: r.RefundAmount,
		Notes:        r.Notes,
	}
}

// ExecuteSettlementRequest represents a payout request.
type ExecuteSettlementRequest struct {
	RetailerID      string          `json:"retailer_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMode     string          `json:"payment_mode"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	ReceiptURL      string          `json:"receipt_url,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	ActorID         string          `json:"actor_id"`
}

// ToUseCaseInput converts to use case input.
func (r *ExecuteSettlementRequest) ToUseCaseInput() usecase.ExecuteSettlementInput {
	return usecase.ExecuteSettlementInput{
		RetailerID:      r.RetailerID,
		Amount:          r.Amount,
		PaymentMode:     r.PaymentMode,
		ReferenceNumber: r.ReferenceNumber,
		ReceiptURL:      r.ReceiptURL,
		Notes:           r.Notes,
		ActorID:         r.ActorID,
	}
}

// ReleaseHoldsRequest asks for due PENDING entries to be released. AsOf
// defaults to now when omitted.
type ReleaseHoldsRequest struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}
