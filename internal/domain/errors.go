package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Validation errors: nothing has been written when these are returned.
	ErrMissingRetailerID        = errors.New("retailer id is required")
	ErrMissingOrderID           = errors.New("order id is required")
	ErrMissingPaymentMode       = errors.New("payment mode is required")
	ErrMissingNotes             = errors.New("notes are required")
	ErrInvalidAmount            = errors.New("amount must be positive")
	ErrInvalidEntryType         = errors.New("entry type must be CREDIT or DEBIT")
	ErrInvalidTransactionType   = errors.New("unknown transaction type")
	ErrInvalidEntryStatus       = errors.New("unknown entry status")
	ErrSettledAmountOutOfBounds = errors.New("settled amount outside [0, amount]")

	// Lookup errors.
	ErrEntryNotFound      = errors.New("ledger entry not found")
	ErrSettlementNotFound = errors.New("settlement not found")

	// ErrStaleEntry is returned by the store when a conditional settled-amount
	// update matches no row: the entry changed under us despite the lock.
	ErrStaleEntry = errors.New("ledger entry changed concurrently")

	// ErrRetailerFrozen blocks settlement execution after an integrity alert
	// until an operator investigates and lifts the freeze.
	ErrRetailerFrozen = errors.New("settlements frozen for retailer")
)

// InsufficientBalanceError rejects a payout that exceeds the retailer's
// available balance. Both numbers are carried so callers can surface them.
type InsufficientBalanceError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s",
		e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

// InvariantViolationError reports that the settlement walk could not place
// the full payout across entries the balance check said were sufficient.
// It indicates a concurrency-control bug or data corruption, never a
// transient condition.
type InvariantViolationError struct {
	RetailerID string
	Remaining  decimal.Decimal
	Reason     string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("settlement invariant violated for retailer %s: %s (unallocated %s)",
		e.RetailerID, e.Reason, e.Remaining.StringFixed(2))
}
