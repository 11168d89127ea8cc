package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bazaarworks/marketledger/internal/domain"
)

// LedgerService records economic facts about retailers and answers balance
// and history queries. Entries are append-only: the service never mutates an
// existing entry, that is the settlement engine's job.
type LedgerService struct {
	txManager  TransactionManager
	entryRepo  LedgerEntryRepository
	idGen      IDGenerator
	metrics    EngineMetrics
	holdWindow time.Duration
	feeRate    decimal.Decimal
}

// LedgerServiceConfig carries the tunables of the ledger service.
type LedgerServiceConfig struct {
	// HoldWindow is the delay between recording order revenue and that
	// revenue becoming eligible for settlement.
	HoldWindow time.Duration
	// PlatformFeeRate is the default commission rate applied when a revenue
	// event does not carry an explicit fee.
	PlatformFeeRate decimal.Decimal
}

// NewLedgerService creates a new LedgerService. metrics may be nil.
func NewLedgerService(
	txManager TransactionManager,
	entryRepo LedgerEntryRepository,
	idGen IDGenerator,
	metrics EngineMetrics,
	cfg LedgerServiceConfig,
) *LedgerService {
	if cfg.HoldWindow <= 0 {
		cfg.HoldWindow = DefaultHoldWindow
	}
	if cfg.PlatformFeeRate.LessThanOrEqual(decimal.Zero) {
		cfg.PlatformFeeRate, _ = decimal.NewFromString(DefaultPlatformFeeRate)
	}

	return &LedgerService{
		txManager:  txManager,
		entryRepo:  entryRepo,
		idGen:      idGen,
		metrics:    metrics,
		holdWindow: cfg.HoldWindow,
		feeRate:    cfg.PlatformFeeRate,
	}
}

// RecordOrderRevenueInput represents a delivered order item worth recording.
type RecordOrderRevenueInput struct {
	OrderID     string
	OrderItemID string
	RetailerID  string
	WarehouseID string
	GrossAmount decimal.Decimal
	// PlatformFee overrides the default-rate commission when non-nil.
	PlatformFee *decimal.Decimal
	Notes       string
}

// RecordOrderRevenue inserts a revenue credit and its platform fee debit as
// one atomic batch. Both entries start PENDING with the trigger date set to
// now plus the hold window, so the funds are not immediately withdrawable.
func (s *LedgerService) RecordOrderRevenue(ctx context.Context, input RecordOrderRevenueInput) ([]*domain.LedgerEntry, error) {
	if input.OrderID == "" {
		return nil, domain.ErrMissingOrderID
	}
	if input.RetailerID == "" {
		return nil, domain.ErrMissingRetailerID
	}
	if err := domain.ValidateAmount(input.GrossAmount); err != nil {
		return nil, err
	}
	if err := domain.ValidateNotes(input.Notes); err != nil {
		return nil, err
	}

	fee := input.GrossAmount.Mul(s.feeRate).Round(2)
	if input.PlatformFee != nil {
		fee = *input.PlatformFee
	}
	if fee.LessThanOrEqual(decimal.Zero) || fee.GreaterThanOrEqual(input.GrossAmount) {
		return nil, fmt.Errorf("%w: platform fee must be positive and below gross amount", domain.ErrInvalidAmount)
	}

	now := time.Now().UTC()
	trigger := now.Add(s.holdWindow)

	credit := &domain.LedgerEntry{
		ID:              s.idGen.Generate(),
		RetailerID:      input.RetailerID,
		WarehouseID:     input.WarehouseID,
		OrderID:         input.OrderID,
		OrderItemID:     input.OrderItemID,
		TransactionType: domain.TransactionOrderRevenue,
		EntryType:       domain.EntryCredit,
		Amount:          input.GrossAmount,
		SettledAmount:   decimal.Zero,
		Status:          domain.EntryPending,
		TriggerDate:     trigger,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	debit := &domain.LedgerEntry{
		ID:              s.idGen.Generate(),
		RetailerID:      input.RetailerID,
		WarehouseID:     input.WarehouseID,
		OrderID:         input.OrderID,
		OrderItemID:     input.OrderItemID,
		TransactionType: domain.TransactionPlatformFee,
		EntryType:       domain.EntryDebit,
		Amount:          fee,
		SettledAmount:   decimal.Zero,
		Status:          domain.EntryPending,
		TriggerDate:     trigger,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, entry := range []*domain.LedgerEntry{credit, debit} {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.entryRepo.CreateTx(ctx, tx, credit); err != nil {
		return nil, err
	}
	if err := s.entryRepo.CreateTx(ctx, tx, debit); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.EntryRecorded(domain.TransactionOrderRevenue)
		s.metrics.EntryRecorded(domain.TransactionPlatformFee)
	}

	return []*domain.LedgerEntry{credit, debit}, nil
}

// RecordManualAdjustmentInput represents an operator-asserted correction.
type RecordManualAdjustmentInput struct {
	RetailerID  string
	WarehouseID string
	Amount      decimal.Decimal
	EntryType   domain.EntryType
	Notes       string
	ActorID     string
}

// RecordManualAdjustment inserts one entry that is AVAILABLE immediately.
// Adjustments bypass the hold window: an administrator is asserting the
// amount directly, so there is nothing to hold for.
func (s *LedgerService) RecordManualAdjustment(ctx context.Context, input RecordManualAdjustmentInput) (*domain.LedgerEntry, error) {
	if input.RetailerID == "" {
		return nil, domain.ErrMissingRetailerID
	}
	if !input.EntryType.Valid() {
		return nil, domain.ErrInvalidEntryType
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.Notes == "" {
		return nil, fmt.Errorf("%w: adjustments need a provenance note", domain.ErrMissingNotes)
	}
	if err := domain.ValidateNotes(input.Notes); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	entry := &domain.LedgerEntry{
		ID:              s.idGen.Generate(),
		RetailerID:      input.RetailerID,
		WarehouseID:     input.WarehouseID,
		TransactionType: domain.TransactionManualAdjustment,
		EntryType:       input.EntryType,
		Amount:          input.Amount,
		SettledAmount:   decimal.Zero,
		Status:          domain.EntryAvailable,
		TriggerDate:     now,
		Notes:           input.Notes,
		CreatedBy:       input.ActorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.EntryRecorded(domain.TransactionManualAdjustment)
	}

	return entry, nil
}

// RecordRefundClawbackInput represents a processed refund to claw back.
type RecordRefundClawbackInput struct {
	OrderID      string
	OrderItemID  string
	RetailerID   string
	WarehouseID  string
	RefundAmount decimal.Decimal
	Notes        string
}

// RecordRefundClawback inserts a debit that is AVAILABLE immediately, so the
// next settlement nets it against the retailer's credits.
func (s *LedgerService) RecordRefundClawback(ctx context.Context, input RecordRefundClawbackInput) (*domain.LedgerEntry, error) {
	if input.OrderID == "" {
		return nil, domain.ErrMissingOrderID
	}
	if input.RetailerID == "" {
		return nil, domain.ErrMissingRetailerID
	}
	if err := domain.ValidateAmount(input.RefundAmount); err != nil {
		return nil, err
	}
	if err := domain.ValidateNotes(input.Notes); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	entry := &domain.LedgerEntry{
		ID:              s.idGen.Generate(),
		RetailerID:      input.RetailerID,
		WarehouseID:     input.WarehouseID,
		OrderID:         input.OrderID,
		OrderItemID:     input.OrderItemID,
		TransactionType: domain.TransactionRefundClawback,
		EntryType:       domain.EntryDebit,
		Amount:          input.RefundAmount,
		SettledAmount:   decimal.Zero,
		Status:          domain.EntryAvailable,
		TriggerDate:     now,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.EntryRecorded(domain.TransactionRefundClawback)
	}

	return entry, nil
}

// Balance is a point-in-time view of what a retailer can withdraw.
type Balance struct {
	RetailerID       string
	AvailableBalance decimal.Decimal
	EntryCount       int
}

// GetAvailableBalance computes the retailer's withdrawable balance from a
// snapshot read: sum of unsettled credit remainders minus unsettled debit
// remainders. It takes no locks, so it is an estimate under concurrency.
func (s *LedgerService) GetAvailableBalance(ctx context.Context, retailerID string) (*Balance, error) {
	if retailerID == "" {
		return nil, domain.ErrMissingRetailerID
	}

	entries, err := s.entryRepo.ListSettleable(ctx, retailerID)
	if err != nil {
		return nil, err
	}

	return &Balance{
		RetailerID:       retailerID,
		AvailableBalance: AvailableOf(entries),
		EntryCount:       len(entries),
	}, nil
}

// AvailableOf nets unsettled credit remainders against unsettled debit
// remainders over a set of entries.
func AvailableOf(entries []*domain.LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		remaining := entry.Remaining()
		if entry.EntryType == domain.EntryDebit {
			total = total.Sub(remaining)
		} else {
			total = total.Add(remaining)
		}
	}
	return total
}

// GetLedgerHistory lists ledger entries matching the filter, newest first.
func (s *LedgerService) GetLedgerHistory(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	filter.Limit, filter.Offset = domain.ClampPagination(filter.Limit, filter.Offset)
	return s.entryRepo.List(ctx, filter)
}

// ReleaseDueEntries performs the PENDING to AVAILABLE transition for every
// entry whose trigger date has passed. The hold-release scheduler is an
// external collaborator; it calls this through the API on its own cadence.
func (s *LedgerService) ReleaseDueEntries(ctx context.Context, asOf time.Time) (int64, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	released, err := s.entryRepo.ReleaseDue(ctx, asOf)
	if err != nil {
		return 0, err
	}

	if s.metrics != nil && released > 0 {
		s.metrics.HoldsReleased(released)
	}

	return released, nil
}
