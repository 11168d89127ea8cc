package usecase

import "time"

const (
	// DefaultHoldWindow is the delay before order revenue becomes withdrawable.
	DefaultHoldWindow = 72 * time.Hour

	// DefaultPlatformFeeRate applies when the caller does not supply an
	// explicit platform fee for an order revenue event.
	DefaultPlatformFeeRate = "0.10"

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour
)

// Settlement rejection reasons for metrics labels.
const (
	RejectValidation          = "validation"
	RejectInsufficientBalance = "insufficient_balance"
	RejectFrozen              = "frozen"
)
