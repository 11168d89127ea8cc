package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bazaarworks/marketledger/internal/domain"
	"github.com/bazaarworks/marketledger/internal/usecase"
)

const ledgerEntryColumns = `id, retailer_id, warehouse_id, order_id, order_item_id,
	transaction_type, entry_type, amount, settled_amount, status,
	trigger_date, notes, created_by, created_at, updated_at`

// LedgerEntryRepository implements usecase.LedgerEntryRepository.
type LedgerEntryRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerEntryRepository creates a new LedgerEntryRepository.
func NewLedgerEntryRepository(pool *pgxpool.Pool) *LedgerEntryRepository {
	return &LedgerEntryRepository{pool: pool}
}

const insertLedgerEntrySQL = `
	INSERT INTO ledger_entries (` + ledgerEntryColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

func ledgerEntryArgs(entry *domain.LedgerEntry) []any {
	return []any{
		entry.ID,
		entry.RetailerID,
		textOrNil(entry.WarehouseID),
		textOrNil(entry.OrderID),
		textOrNil(entry.OrderItemID),
		string(entry.TransactionType),
		string(entry.EntryType),
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.SettledAmount),
		string(entry.Status),
		timeToPgTimestamptz(entry.TriggerDate),
		entry.Notes,
		textOrNil(entry.CreatedBy),
		timeToPgTimestamptz(entry.CreatedAt),
		timeToPgTimestamptz(entry.UpdatedAt),
	}
}

// Create inserts a new entry outside any caller-owned transaction.
func (r *LedgerEntryRepository) Create(ctx context.Context, entry *domain.LedgerEntry) error {
	_, err := r.pool.Exec(ctx, insertLedgerEntrySQL, ledgerEntryArgs(entry)...)
	return err
}

// CreateTx inserts a new entry inside the given transaction.
func (r *LedgerEntryRepository) CreateTx(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx := tx.(*Tx).PgxTx()
	_, err := pgxTx.Exec(ctx, insertLedgerEntrySQL, ledgerEntryArgs(entry)...)
	return err
}

// GetByID retrieves an entry by ID.
func (r *LedgerEntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+ledgerEntryColumns+` FROM ledger_entries WHERE id = $1`, id)

	entry, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}

	return entry, nil
}

const settleableFIFO = `
	SELECT ` + ledgerEntryColumns + `
	FROM ledger_entries
	WHERE retailer_id = $1 AND status IN ('AVAILABLE', 'PARTIALLY_SETTLED')
	ORDER BY created_at, id`

// ListSettleable returns the retailer's settleable entries oldest-first
// without taking locks.
func (r *LedgerEntryRepository) ListSettleable(ctx context.Context, retailerID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, settleableFIFO, retailerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// ListSettleableForUpdate returns the retailer's settleable entries
// oldest-first with FOR UPDATE row locks held until tx ends. Concurrent
// settlements for the same retailer serialize on these locks; other
// retailers' rows are untouched.
func (r *LedgerEntryRepository) ListSettleableForUpdate(ctx context.Context, tx usecase.Transaction, retailerID string) ([]*domain.LedgerEntry, error) {
	pgxTx := tx.(*Tx).PgxTx()

	rows, err := pgxTx.Query(ctx, settleableFIFO+` FOR UPDATE`, retailerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// ApplySettlement conditionally advances settled_amount and status. The
// WHERE clause compares against the previously read settled amount; a miss
// means the row changed concurrently and surfaces as domain.ErrStaleEntry.
func (r *LedgerEntryRepository) ApplySettlement(ctx context.Context, tx usecase.Transaction, id string, fromSettled, toSettled decimal.Decimal, status domain.EntryStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		UPDATE ledger_entries
		SET settled_amount = $1, status = $2, updated_at = $3
		WHERE id = $4 AND settled_amount = $5`,
		decimalToNumeric(toSettled),
		string(status),
		timeToPgTimestamptz(updatedAt),
		id,
		decimalToNumeric(fromSettled),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrStaleEntry
	}

	return nil
}

// ReleaseDue moves due PENDING entries to AVAILABLE.
func (r *LedgerEntryRepository) ReleaseDue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ledger_entries
		SET status = 'AVAILABLE', updated_at = $1
		WHERE status = 'PENDING' AND trigger_date <= $2`,
		timeToPgTimestamptz(asOf.UTC()),
		timeToPgTimestamptz(asOf),
	)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// List retrieves entries matching the filter, newest first.
func (r *LedgerEntryRepository) List(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE 1=1`
	args := []any{}

	if filter.RetailerID != "" {
		args = append(args, filter.RetailerID)
		query += fmt.Sprintf(` AND retailer_id = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.TransactionType != "" {
		args = append(args, string(filter.TransactionType))
		query += fmt.Sprintf(` AND transaction_type = $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC, id DESC`

	args = append(args, filter.Limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(` OFFSET $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

func scanLedgerEntries(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry                                        domain.LedgerEntry
		warehouseID, orderID, orderItemID, createdBy *string
		amount, settledAmount                        pgtype.Numeric
		transactionType, entryType, status           string
		triggerDate, createdAt, updatedAt            pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.RetailerID,
		&warehouseID,
		&orderID,
		&orderItemID,
		&transactionType,
		&entryType,
		&amount,
		&settledAmount,
		&status,
		&triggerDate,
		&entry.Notes,
		&createdBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.WarehouseID = derefOrEmpty(warehouseID)
	entry.OrderID = derefOrEmpty(orderID)
	entry.OrderItemID = derefOrEmpty(orderItemID)
	entry.CreatedBy = derefOrEmpty(createdBy)
	entry.TransactionType = domain.TransactionType(transactionType)
	entry.EntryType = domain.EntryType(entryType)
	entry.Status = domain.EntryStatus(status)
	entry.Amount = numericToDecimal(amount)
	entry.SettledAmount = numericToDecimal(settledAmount)
	entry.TriggerDate = triggerDate.Time
	entry.CreatedAt = createdAt.Time
	entry.UpdatedAt = updatedAt.Time

	return &entry, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func textOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
