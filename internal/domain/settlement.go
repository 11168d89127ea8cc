package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementStatus is the state of a payout record. The engine only ever
// persists COMPLETED settlements; a failed attempt leaves no record.
type SettlementStatus string

const (
	SettlementCompleted SettlementStatus = "COMPLETED"
)

// Settlement is one payout event to one retailer. It and its mappings are
// created together atomically and are immutable afterwards.
type Settlement struct {
	ID              string
	RetailerID      string
	Amount          decimal.Decimal
	PaymentMode     string
	ReferenceNumber string
	ReceiptURL      string
	Notes           string
	Status          SettlementStatus
	SettledBy       string
	CreatedAt       time.Time
}

// Validate checks the settlement request fields.
func (s *Settlement) Validate() error {
	if s.RetailerID == "" {
		return ErrMissingRetailerID
	}
	if s.PaymentMode == "" {
		return ErrMissingPaymentMode
	}
	if s.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// SettlementLedgerMapping records the portion of one ledger entry consumed
// by one settlement. The mapping rows for a settlement are its audit trail:
// their applied amounts sum to the settlement amount.
type SettlementLedgerMapping struct {
	ID            string
	SettlementID  string
	LedgerID      string
	AmountApplied decimal.Decimal
	CreatedAt     time.Time
}

// SettlementAllocation joins a mapping row with the ledger entry it consumed,
// for the settlement detail view.
type SettlementAllocation struct {
	Mapping *SettlementLedgerMapping
	Entry   *LedgerEntry
}

// SettlementFilter narrows settlement history reads.
type SettlementFilter struct {
	RetailerID string
	Limit      int
	Offset     int
}
