package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bazaarworks/marketledger/internal/domain"
	"github.com/bazaarworks/marketledger/internal/usecase"
	"github.com/bazaarworks/marketledger/internal/usecase/mocks"
)

func newLedgerService(entryRepo *mocks.MockLedgerEntryRepository) (*usecase.LedgerService, *mocks.MockTxManager) {
	txMgr := &mocks.MockTxManager{}
	svc := usecase.NewLedgerService(txMgr, entryRepo, &mocks.MockIDGenerator{}, nil, usecase.LedgerServiceConfig{})
	return svc, txMgr
}

func TestRecordOrderRevenue(t *testing.T) {
	fee := decimal.RequireFromString("30.00")

	tests := []struct {
		name    string
		input   usecase.RecordOrderRevenueInput
		wantErr error
	}{
		{
			name: "records credit and fee debit",
			input: usecase.RecordOrderRevenueInput{
				OrderID:     "ord-1",
				OrderItemID: "item-1",
				RetailerID:  "ret-1",
				GrossAmount: decimal.RequireFromString("200.00"),
			},
		},
		{
			name: "explicit platform fee",
			input: usecase.RecordOrderRevenueInput{
				OrderID:     "ord-2",
				RetailerID:  "ret-1",
				GrossAmount: decimal.RequireFromString("300.00"),
				PlatformFee: &fee,
			},
		},
		{
			name: "missing order id",
			input: usecase.RecordOrderRevenueInput{
				RetailerID:  "ret-1",
				GrossAmount: decimal.NewFromInt(100),
			},
			wantErr: domain.ErrMissingOrderID,
		},
		{
			name: "missing retailer id",
			input: usecase.RecordOrderRevenueInput{
				OrderID:     "ord-3",
				GrossAmount: decimal.NewFromInt(100),
			},
			wantErr: domain.ErrMissingRetailerID,
		},
		{
			name: "zero amount",
			input: usecase.RecordOrderRevenueInput{
				OrderID:    "ord-4",
				RetailerID: "ret-1",
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "fee at or above gross",
			input: usecase.RecordOrderRevenueInput{
				OrderID:     "ord-5",
				RetailerID:  "ret-1",
				GrossAmount: decimal.NewFromInt(100),
				PlatformFee: decimalPtr("100"),
			},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entryRepo := mocks.NewMockLedgerEntryRepository()
			svc, txMgr := newLedgerService(entryRepo)

			entries, err := svc.RecordOrderRevenue(context.Background(), tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if len(txMgr.Txs) != 0 {
					t.Fatal("no transaction should start on validation failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(entries) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(entries))
			}

			credit, debit := entries[0], entries[1]
			if credit.TransactionType != domain.TransactionOrderRevenue || credit.EntryType != domain.EntryCredit {
				t.Fatalf("first entry should be the revenue credit, got %s/%s", credit.TransactionType, credit.EntryType)
			}
			if debit.TransactionType != domain.TransactionPlatformFee || debit.EntryType != domain.EntryDebit {
				t.Fatalf("second entry should be the fee debit, got %s/%s", debit.TransactionType, debit.EntryType)
			}

			for _, e := range entries {
				if e.Status != domain.EntryPending {
					t.Fatalf("revenue entries must start PENDING, got %s", e.Status)
				}
				if !e.TriggerDate.After(e.CreatedAt) {
					t.Fatal("trigger date must lie beyond creation time")
				}
			}

			wantFee := tt.input.GrossAmount.Mul(decimal.RequireFromString(usecase.DefaultPlatformFeeRate)).Round(2)
			if tt.input.PlatformFee != nil {
				wantFee = *tt.input.PlatformFee
			}
			if !debit.Amount.Equal(wantFee) {
				t.Fatalf("fee = %s, want %s", debit.Amount, wantFee)
			}

			if len(txMgr.Txs) != 1 || !txMgr.Txs[0].Committed {
				t.Fatal("both entries must be committed in one transaction")
			}
		})
	}
}

func TestRecordManualAdjustment(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.RecordManualAdjustmentInput
		wantErr error
	}{
		{
			name: "credit adjustment",
			input: usecase.RecordManualAdjustmentInput{
				RetailerID: "ret-1",
				Amount:     decimal.NewFromInt(50),
				EntryType:  domain.EntryCredit,
				Notes:      "goodwill for damaged shipment",
				ActorID:    "ops-7",
			},
		},
		{
			name: "debit adjustment",
			input: usecase.RecordManualAdjustmentInput{
				RetailerID: "ret-1",
				Amount:     decimal.NewFromInt(20),
				EntryType:  domain.EntryDebit,
				Notes:      "duplicate revenue correction",
				ActorID:    "ops-7",
			},
		},
		{
			name: "notes are mandatory",
			input: usecase.RecordManualAdjustmentInput{
				RetailerID: "ret-1",
				Amount:     decimal.NewFromInt(50),
				EntryType:  domain.EntryCredit,
				ActorID:    "ops-7",
			},
			wantErr: domain.ErrMissingNotes,
		},
		{
			name: "invalid entry type",
			input: usecase.RecordManualAdjustmentInput{
				RetailerID: "ret-1",
				Amount:     decimal.NewFromInt(50),
				EntryType:  "SIDEWAYS",
				Notes:      "x",
			},
			wantErr: domain.ErrInvalidEntryType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entryRepo := mocks.NewMockLedgerEntryRepository()
			svc, _ := newLedgerService(entryRepo)

			entry, err := svc.RecordManualAdjustment(context.Background(), tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if entry.Status != domain.EntryAvailable {
				t.Fatalf("adjustments bypass the hold window, got status %s", entry.Status)
			}
			if entry.CreatedBy != tt.input.ActorID {
				t.Fatalf("CreatedBy = %q, want %q", entry.CreatedBy, tt.input.ActorID)
			}
			if stored := entryRepo.Entry(entry.ID); stored == nil {
				t.Fatal("entry was not persisted")
			}
		})
	}
}

func TestRecordRefundClawback(t *testing.T) {
	entryRepo := mocks.NewMockLedgerEntryRepository()
	svc, _ := newLedgerService(entryRepo)

	entry, err := svc.RecordRefundClawback(context.Background(), usecase.RecordRefundClawbackInput{
		OrderID:      "ord-9",
		RetailerID:   "ret-1",
		RefundAmount: decimal.RequireFromString("75.50"),
		Notes:        "customer refund processed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.EntryType != domain.EntryDebit {
		t.Fatalf("clawback must be a debit, got %s", entry.EntryType)
	}
	if entry.TransactionType != domain.TransactionRefundClawback {
		t.Fatalf("unexpected transaction type %s", entry.TransactionType)
	}
	if entry.Status != domain.EntryAvailable {
		t.Fatalf("clawbacks net immediately, got status %s", entry.Status)
	}
}

func TestGetAvailableBalanceNetsDebits(t *testing.T) {
	entryRepo := mocks.NewMockLedgerEntryRepository()
	now := time.Now().UTC()
	entryRepo.Seed(
		&domain.LedgerEntry{
			ID: "e1", RetailerID: "ret-1",
			TransactionType: domain.TransactionOrderRevenue, EntryType: domain.EntryCredit,
			Amount: decimal.NewFromInt(200), SettledAmount: decimal.NewFromInt(50),
			Status: domain.EntryPartiallySettled, CreatedAt: now,
		},
		&domain.LedgerEntry{
			ID: "e2", RetailerID: "ret-1",
			TransactionType: domain.TransactionRefundClawback, EntryType: domain.EntryDebit,
			Amount: decimal.NewFromInt(40), SettledAmount: decimal.Zero,
			Status: domain.EntryAvailable, CreatedAt: now.Add(time.Second),
		},
		// PENDING entries never count toward the balance.
		&domain.LedgerEntry{
			ID: "e3", RetailerID: "ret-1",
			TransactionType: domain.TransactionOrderRevenue, EntryType: domain.EntryCredit,
			Amount: decimal.NewFromInt(1000), SettledAmount: decimal.Zero,
			Status: domain.EntryPending, CreatedAt: now.Add(2 * time.Second),
		},
		// Other retailers are invisible.
		&domain.LedgerEntry{
			ID: "e4", RetailerID: "ret-2",
			TransactionType: domain.TransactionOrderRevenue, EntryType: domain.EntryCredit,
			Amount: decimal.NewFromInt(500), SettledAmount: decimal.Zero,
			Status: domain.EntryAvailable, CreatedAt: now,
		},
	)
	svc, _ := newLedgerService(entryRepo)

	balance, err := svc.GetAvailableBalance(context.Background(), "ret-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 150 credit remainder minus 40 debit remainder.
	want := decimal.NewFromInt(110)
	if !balance.AvailableBalance.Equal(want) {
		t.Fatalf("balance = %s, want %s", balance.AvailableBalance, want)
	}
	if balance.EntryCount != 2 {
		t.Fatalf("entry count = %d, want 2", balance.EntryCount)
	}

	if _, err := svc.GetAvailableBalance(context.Background(), ""); !errors.Is(err, domain.ErrMissingRetailerID) {
		t.Fatalf("expected ErrMissingRetailerID, got %v", err)
	}
}

func TestReleaseDueEntries(t *testing.T) {
	entryRepo := mocks.NewMockLedgerEntryRepository()
	now := time.Now().UTC()
	entryRepo.Seed(
		&domain.LedgerEntry{
			ID: "due", RetailerID: "ret-1",
			TransactionType: domain.TransactionOrderRevenue, EntryType: domain.EntryCredit,
			Amount: decimal.NewFromInt(100), Status: domain.EntryPending,
			TriggerDate: now.Add(-time.Hour), CreatedAt: now.Add(-73 * time.Hour),
		},
		&domain.LedgerEntry{
			ID: "not-due", RetailerID: "ret-1",
			TransactionType: domain.TransactionOrderRevenue, EntryType: domain.EntryCredit,
			Amount: decimal.NewFromInt(100), Status: domain.EntryPending,
			TriggerDate: now.Add(time.Hour), CreatedAt: now,
		},
	)
	svc, _ := newLedgerService(entryRepo)

	released, err := svc.ReleaseDueEntries(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released != 1 {
		t.Fatalf("released = %d, want 1", released)
	}
	if entryRepo.Entry("due").Status != domain.EntryAvailable {
		t.Fatal("due entry should now be AVAILABLE")
	}
	if entryRepo.Entry("not-due").Status != domain.EntryPending {
		t.Fatal("entry inside the hold window must stay PENDING")
	}
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
