package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/bazaarworks/marketledger/internal/domain"
)

func TestApplySettlementStaleEntry(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	// Zero rows matched: the conditional update lost the race.
	mockPool.ExpectExec("UPDATE ledger_entries").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	manager := newTxManagerWithPool(mockPool)
	tx, err := manager.Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repo := &LedgerEntryRepository{}
	err = repo.ApplySettlement(context.Background(), tx, "e1",
		decimal.Zero, decimal.NewFromInt(100), domain.EntrySettled, time.Now().UTC())

	if !errors.Is(err, domain.ErrStaleEntry) {
		t.Fatalf("expected ErrStaleEntry, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestApplySettlementSuccess(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectExec("UPDATE ledger_entries").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()

	manager := newTxManagerWithPool(mockPool)
	tx, err := manager.Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repo := &LedgerEntryRepository{}
	err = repo.ApplySettlement(context.Background(), tx, "e1",
		decimal.NewFromInt(50), decimal.NewFromInt(100), domain.EntryPartiallySettled, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestNumericDecimalRoundTrip(t *testing.T) {
	values := []string{"0", "150.00", "99.99", "1234567.89"}
	for _, v := range values {
		d := decimal.RequireFromString(v)
		if got := numericToDecimal(decimalToNumeric(d)); !got.Equal(d) {
			t.Errorf("round trip of %s gave %s", v, got)
		}
	}
}
