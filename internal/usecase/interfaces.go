package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bazaarworks/marketledger/internal/domain"
)

// LedgerEntryRepository defines data access for ledger entries.
type LedgerEntryRepository interface {
	Create(ctx context.Context, entry *domain.LedgerEntry) error
	CreateTx(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)

	// ListSettleable returns the retailer's AVAILABLE and PARTIALLY_SETTLED
	// entries oldest-first (created_at, then id). Snapshot read, no locks.
	ListSettleable(ctx context.Context, retailerID string) ([]*domain.LedgerEntry, error)

	// ListSettleableForUpdate is ListSettleable under row locks held for the
	// duration of tx. This is the settlement engine's FIFO read.
	ListSettleableForUpdate(ctx context.Context, tx Transaction, retailerID string) ([]*domain.LedgerEntry, error)

	// ApplySettlement conditionally advances an entry's settled amount and
	// status. The update matches only if the stored settled amount still
	// equals fromSettled; otherwise domain.ErrStaleEntry is returned.
	ApplySettlement(ctx context.Context, tx Transaction, id string, fromSettled, toSettled decimal.Decimal, status domain.EntryStatus, updatedAt time.Time) error

	// ReleaseDue moves PENDING entries whose trigger date has passed to
	// AVAILABLE and reports how many were released.
	ReleaseDue(ctx context.Context, asOf time.Time) (int64, error)

	List(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error)
}

// SettlementRepository defines data access for settlements and their
// ledger mappings.
type SettlementRepository interface {
	Create(ctx context.Context, tx Transaction, settlement *domain.Settlement) error
	CreateMappings(ctx context.Context, tx Transaction, mappings []*domain.SettlementLedgerMapping) error
	GetByID(ctx context.Context, id string) (*domain.Settlement, error)
	List(ctx context.Context, filter domain.SettlementFilter) ([]*domain.Settlement, error)
	GetAllocations(ctx context.Context, settlementID string) ([]*domain.SettlementAllocation, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique, lexically sortable IDs. Sortability matters:
// entry ids are the FIFO tie-break for entries created at the same instant.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient store failures (deadlocks,
// serialization conflicts). Permanent errors pass through untouched.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// FreezeStore tracks retailers whose settlements are blocked after an
// integrity alert.
type FreezeStore interface {
	Freeze(ctx context.Context, retailerID, reason string) error
	IsFrozen(ctx context.Context, retailerID string) (bool, string, error)
	Unfreeze(ctx context.Context, retailerID string) error
}

// IdempotencyStore handles idempotency key storage for mutating requests.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// EngineMetrics receives business-level counters from the services.
type EngineMetrics interface {
	EntryRecorded(transactionType domain.TransactionType)
	HoldsReleased(count int64)
	SettlementExecuted(amount decimal.Decimal, entriesTouched int)
	SettlementRejected(reason string)
	InvariantViolation()
}
