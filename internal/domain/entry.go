package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies the business event behind a ledger entry.
type TransactionType string

const (
	TransactionOrderRevenue     TransactionType = "ORDER_REVENUE"
	TransactionPlatformFee      TransactionType = "PLATFORM_FEE"
	TransactionManualAdjustment TransactionType = "MANUAL_ADJUSTMENT"
	TransactionRefundClawback   TransactionType = "REFUND_CLAWBACK"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionOrderRevenue, TransactionPlatformFee, TransactionManualAdjustment, TransactionRefundClawback:
		return true
	}
	return false
}

// EntryType is the direction of a ledger entry relative to the retailer.
type EntryType string

const (
	EntryCredit EntryType = "CREDIT"
	EntryDebit  EntryType = "DEBIT"
)

// Valid reports whether t is CREDIT or DEBIT.
func (t EntryType) Valid() bool {
	return t == EntryCredit || t == EntryDebit
}

// EntryStatus is the settlement lifecycle state of a ledger entry.
// PENDING entries are on hold and invisible to settlements until the hold
// window elapses and the release transition moves them to AVAILABLE.
// SETTLED is terminal; corrections are new compensating entries.
type EntryStatus string

const (
	EntryPending          EntryStatus = "PENDING"
	EntryAvailable        EntryStatus = "AVAILABLE"
	EntryPartiallySettled EntryStatus = "PARTIALLY_SETTLED"
	EntrySettled          EntryStatus = "SETTLED"
)

// Valid reports whether s is a known entry status.
func (s EntryStatus) Valid() bool {
	switch s {
	case EntryPending, EntryAvailable, EntryPartiallySettled, EntrySettled:
		return true
	}
	return false
}

// LedgerEntry is one immutable economic fact about one retailer.
// Amount, EntryType and TransactionType are write-once; only Status and
// SettledAmount change after creation, and only through settlement
// allocation or hold release.
type LedgerEntry struct {
	ID              string
	RetailerID      string
	WarehouseID     string
	OrderID         string
	OrderItemID     string
	TransactionType TransactionType
	EntryType       EntryType
	Amount          decimal.Decimal
	SettledAmount   decimal.Decimal
	Status          EntryStatus
	TriggerDate     time.Time
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Remaining returns the unsettled portion of the entry.
func (e *LedgerEntry) Remaining() decimal.Decimal {
	return e.Amount.Sub(e.SettledAmount)
}

// Settleable reports whether a settlement may still consume from this entry.
func (e *LedgerEntry) Settleable() bool {
	if e.Status != EntryAvailable && e.Status != EntryPartiallySettled {
		return false
	}
	return e.Remaining().IsPositive()
}

// StatusAfterSettling returns the status the entry must carry once its
// settled amount becomes newSettled. Amounts are exact decimals, so the
// settled check is exact equality rather than a rounding tolerance.
func (e *LedgerEntry) StatusAfterSettling(newSettled decimal.Decimal) EntryStatus {
	if newSettled.Equal(e.Amount) {
		return EntrySettled
	}
	return EntryPartiallySettled
}

// Validate checks the creation-time invariants of the entry.
func (e *LedgerEntry) Validate() error {
	if e.RetailerID == "" {
		return ErrMissingRetailerID
	}
	if !e.TransactionType.Valid() {
		return ErrInvalidTransactionType
	}
	if !e.EntryType.Valid() {
		return ErrInvalidEntryType
	}
	if !e.Status.Valid() {
		return ErrInvalidEntryStatus
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if e.SettledAmount.IsNegative() || e.SettledAmount.GreaterThan(e.Amount) {
		return ErrSettledAmountOutOfBounds
	}
	return nil
}

// LedgerFilter narrows ledger history reads.
type LedgerFilter struct {
	RetailerID      string
	Status          EntryStatus
	TransactionType TransactionType
	Limit           int
	Offset          int
}
