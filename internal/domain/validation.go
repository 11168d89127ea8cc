package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountTooLarge = errors.New("amount exceeds maximum allowed")
	ErrNotesTooLong   = errors.New("notes exceed maximum length")
)

const (
	// MaxAmount caps a single entry or payout amount.
	MaxAmount = "1000000000000"

	// MaxNotesLength caps free-text provenance notes.
	MaxNotesLength = 1024

	// Pagination bounds for history reads.
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ValidateAmount validates an entry or payout amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum is %s", ErrAmountTooLarge, MaxAmount)
	}

	return nil
}

// ValidateNotes validates free-text notes.
func ValidateNotes(notes string) error {
	if len(notes) > MaxNotesLength {
		return fmt.Errorf("%w: maximum is %d characters", ErrNotesTooLong, MaxNotesLength)
	}
	return nil
}

// ClampPagination normalizes pagination parameters to safe bounds.
func ClampPagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
