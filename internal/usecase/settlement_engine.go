package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/bazaarworks/marketledger/internal/domain"
)

// SettlementEngine converts a payout request into a FIFO allocation across
// the retailer's unsettled credits and commits the whole write set (ledger
// updates, settlement record, mapping rows) as one atomic unit.
type SettlementEngine struct {
	txManager      TransactionManager
	entryRepo      LedgerEntryRepository
	settlementRepo SettlementRepository
	freezeStore    FreezeStore
	retrier        Retrier
	idGen          IDGenerator
	metrics        EngineMetrics
	logger         zerolog.Logger
}

// NewSettlementEngine creates a new SettlementEngine. retrier, freezeStore
// and metrics may be nil.
func NewSettlementEngine(
	txManager TransactionManager,
	entryRepo LedgerEntryRepository,
	settlementRepo SettlementRepository,
	freezeStore FreezeStore,
	retrier Retrier,
	idGen IDGenerator,
	metrics EngineMetrics,
	logger zerolog.Logger,
) *SettlementEngine {
	return &SettlementEngine{
		txManager:      txManager,
		entryRepo:      entryRepo,
		settlementRepo: settlementRepo,
		freezeStore:    freezeStore,
		retrier:        retrier,
		idGen:          idGen,
		metrics:        metrics,
		logger:         logger,
	}
}

// ExecuteSettlementInput represents a payout request for one retailer.
type ExecuteSettlementInput struct {
	RetailerID      string
	Amount          decimal.Decimal
	PaymentMode     string
	ReferenceNumber string
	ReceiptURL      string
	Notes           string
	ActorID         string
}

// SettlementSummary is the result of an executed settlement.
type SettlementSummary struct {
	SettlementID   string
	RetailerID     string
	Amount         decimal.Decimal
	EntriesTouched int
	CreatedAt      time.Time
}

// ExecuteSettlement validates the request, then runs the locked
// read-compute-write sequence, retrying only on transient store conflicts.
// On an invariant violation nothing is committed and the retailer is frozen
// until an operator investigates.
func (e *SettlementEngine) ExecuteSettlement(ctx context.Context, input ExecuteSettlementInput) (*SettlementSummary, error) {
	if input.RetailerID == "" {
		e.countRejection(RejectValidation)
		return nil, domain.ErrMissingRetailerID
	}
	if input.PaymentMode == "" {
		e.countRejection(RejectValidation)
		return nil, domain.ErrMissingPaymentMode
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		e.countRejection(RejectValidation)
		return nil, err
	}
	if err := domain.ValidateNotes(input.Notes); err != nil {
		e.countRejection(RejectValidation)
		return nil, err
	}

	if e.freezeStore != nil {
		frozen, reason, err := e.freezeStore.IsFrozen(ctx, input.RetailerID)
		if err != nil {
			return nil, err
		}
		if frozen {
			e.countRejection(RejectFrozen)
			return nil, fmt.Errorf("%w: %s", domain.ErrRetailerFrozen, reason)
		}
	}

	var summary *SettlementSummary
	operation := func() error {
		s, err := e.settleOnce(ctx, input)
		if err != nil {
			return err
		}
		summary = s
		return nil
	}

	var err error
	if e.retrier != nil {
		err = e.retrier.Retry(ctx, operation)
	} else {
		err = operation()
	}

	if err != nil {
		var ibe *domain.InsufficientBalanceError
		if errors.As(err, &ibe) {
			e.countRejection(RejectInsufficientBalance)
			return nil, err
		}

		var ive *domain.InvariantViolationError
		if errors.As(err, &ive) {
			e.handleInvariantViolation(ctx, ive)
		}

		return nil, err
	}

	if e.metrics != nil {
		e.metrics.SettlementExecuted(summary.Amount, summary.EntriesTouched)
	}

	e.logger.Info().
		Str("settlement_id", summary.SettlementID).
		Str("retailer_id", summary.RetailerID).
		Str("amount", summary.Amount.StringFixed(2)).
		Int("entries_touched", summary.EntriesTouched).
		Msg("settlement executed")

	return summary, nil
}

// settleOnce runs one attempt of the locked allocation transaction.
func (e *SettlementEngine) settleOnce(ctx context.Context, input ExecuteSettlementInput) (*SettlementSummary, error) {
	tx, err := e.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Row locks on the retailer's settleable entries serialize concurrent
	// settlements for the same retailer without blocking other retailers.
	entries, err := e.entryRepo.ListSettleableForUpdate(ctx, tx, input.RetailerID)
	if err != nil {
		return nil, err
	}

	totalAvailable := AvailableOf(entries)
	if input.Amount.GreaterThan(totalAvailable) {
		return nil, &domain.InsufficientBalanceError{
			Requested: input.Amount,
			Available: totalAvailable,
		}
	}

	now := time.Now().UTC()
	settlementID := e.idGen.Generate()

	// Debits already reduced totalAvailable; the walk consumes credits only,
	// oldest first.
	remaining := input.Amount
	var mappings []*domain.SettlementLedgerMapping
	for _, entry := range entries {
		if remaining.IsZero() {
			break
		}
		if entry.EntryType == domain.EntryDebit {
			continue
		}

		entryRemaining := entry.Remaining()
		if !entryRemaining.IsPositive() {
			continue
		}

		applied := decimal.Min(remaining, entryRemaining)
		newSettled := entry.SettledAmount.Add(applied)
		newStatus := entry.StatusAfterSettling(newSettled)

		err := e.entryRepo.ApplySettlement(ctx, tx, entry.ID, entry.SettledAmount, newSettled, newStatus, now)
		if err != nil {
			if errors.Is(err, domain.ErrStaleEntry) {
				return nil, &domain.InvariantViolationError{
					RetailerID: input.RetailerID,
					Remaining:  remaining,
					Reason:     "entry " + entry.ID + " changed under settlement lock",
				}
			}
			return nil, err
		}

		mappings = append(mappings, &domain.SettlementLedgerMapping{
			ID:            e.idGen.Generate(),
			SettlementID:  settlementID,
			LedgerID:      entry.ID,
			AmountApplied: applied,
			CreatedAt:     now,
		})

		remaining = remaining.Sub(applied)
	}

	if remaining.IsPositive() {
		// The balance check said the funds were there; the walk disagrees.
		return nil, &domain.InvariantViolationError{
			RetailerID: input.RetailerID,
			Remaining:  remaining,
			Reason:     "eligible entries exhausted before payout fully allocated",
		}
	}

	settlement := &domain.Settlement{
		ID:              settlementID,
		RetailerID:      input.RetailerID,
		Amount:          input.Amount,
		PaymentMode:     input.PaymentMode,
		ReferenceNumber: input.ReferenceNumber,
		ReceiptURL:      input.ReceiptURL,
		Notes:           input.Notes,
		Status:          domain.SettlementCompleted,
		SettledBy:       input.ActorID,
		CreatedAt:       now,
	}

	if err := settlement.Validate(); err != nil {
		return nil, err
	}

	if err := e.settlementRepo.Create(ctx, tx, settlement); err != nil {
		return nil, err
	}
	if err := e.settlementRepo.CreateMappings(ctx, tx, mappings); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &SettlementSummary{
		SettlementID:   settlementID,
		RetailerID:     input.RetailerID,
		Amount:         input.Amount,
		EntriesTouched: len(mappings),
		CreatedAt:      now,
	}, nil
}

// handleInvariantViolation raises the integrity alert and freezes the
// retailer. The violation is never transient: further settlement attempts
// for this retailer are blocked until an operator lifts the freeze.
func (e *SettlementEngine) handleInvariantViolation(ctx context.Context, violation *domain.InvariantViolationError) {
	e.logger.Error().
		Bool("integrity_alert", true).
		Str("retailer_id", violation.RetailerID).
		Str("unallocated", violation.Remaining.StringFixed(2)).
		Str("reason", violation.Reason).
		Msg("settlement invariant violated, freezing retailer")

	if e.metrics != nil {
		e.metrics.InvariantViolation()
	}

	if e.freezeStore == nil {
		return
	}
	if err := e.freezeStore.Freeze(ctx, violation.RetailerID, violation.Reason); err != nil {
		e.logger.Error().
			Err(err).
			Str("retailer_id", violation.RetailerID).
			Msg("failed to record settlement freeze")
	}
}

// UnfreezeRetailer lifts an integrity freeze after investigation.
func (e *SettlementEngine) UnfreezeRetailer(ctx context.Context, retailerID string) error {
	if retailerID == "" {
		return domain.ErrMissingRetailerID
	}
	if e.freezeStore == nil {
		return nil
	}

	e.logger.Info().Str("retailer_id", retailerID).Msg("settlement freeze lifted")

	return e.freezeStore.Unfreeze(ctx, retailerID)
}

// GetSettlements lists settlements matching the filter, newest first.
func (e *SettlementEngine) GetSettlements(ctx context.Context, filter domain.SettlementFilter) ([]*domain.Settlement, error) {
	filter.Limit, filter.Offset = domain.ClampPagination(filter.Limit, filter.Offset)
	return e.settlementRepo.List(ctx, filter)
}

// SettlementDetails joins a settlement with the allocation rows that show
// exactly which ledger entries it consumed and by how much.
type SettlementDetails struct {
	Settlement  *domain.Settlement
	Allocations []*domain.SettlementAllocation
}

// GetSettlementDetails returns the settlement and its full audit trail.
func (e *SettlementEngine) GetSettlementDetails(ctx context.Context, settlementID string) (*SettlementDetails, error) {
	settlement, err := e.settlementRepo.GetByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	allocations, err := e.settlementRepo.GetAllocations(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	return &SettlementDetails{
		Settlement:  settlement,
		Allocations: allocations,
	}, nil
}

func (e *SettlementEngine) countRejection(reason string) {
	if e.metrics != nil {
		e.metrics.SettlementRejected(reason)
	}
}
