package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bazaarworks/marketledger/internal/domain"
	"github.com/bazaarworks/marketledger/internal/usecase"
)

const settlementColumns = `id, retailer_id, amount, payment_mode, reference_number,
	receipt_url, notes, status, settled_by, created_at`

// SettlementRepository implements usecase.SettlementRepository.
type SettlementRepository struct {
	pool *pgxpool.Pool
}

// NewSettlementRepository creates a new SettlementRepository.
func NewSettlementRepository(pool *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{pool: pool}
}

// Create inserts a settlement record inside the given transaction.
func (r *SettlementRepository) Create(ctx context.Context, tx usecase.Transaction, settlement *domain.Settlement) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO settlements (`+settlementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		settlement.ID,
		settlement.RetailerID,
		decimalToNumeric(settlement.Amount),
		settlement.PaymentMode,
		textOrNil(settlement.ReferenceNumber),
		textOrNil(settlement.ReceiptURL),
		settlement.Notes,
		string(settlement.Status),
		textOrNil(settlement.SettledBy),
		timeToPgTimestamptz(settlement.CreatedAt),
	)

	return err
}

// CreateMappings inserts the settlement's mapping rows inside the given
// transaction.
func (r *SettlementRepository) CreateMappings(ctx context.Context, tx usecase.Transaction, mappings []*domain.SettlementLedgerMapping) error {
	pgxTx := tx.(*Tx).PgxTx()

	batch := &pgx.Batch{}
	for _, mapping := range mappings {
		batch.Queue(`
			INSERT INTO settlement_ledger_mappings (id, settlement_id, ledger_id, amount_applied, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			mapping.ID,
			mapping.SettlementID,
			mapping.LedgerID,
			decimalToNumeric(mapping.AmountApplied),
			timeToPgTimestamptz(mapping.CreatedAt),
		)
	}

	results := pgxTx.SendBatch(ctx, batch)
	defer results.Close()

	for range mappings {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return results.Close()
}

// GetByID retrieves a settlement by ID.
func (r *SettlementRepository) GetByID(ctx context.Context, id string) (*domain.Settlement, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE id = $1`, id)

	settlement, err := scanSettlement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSettlementNotFound
		}
		return nil, err
	}

	return settlement, nil
}

// List retrieves settlements matching the filter, newest first.
func (r *SettlementRepository) List(ctx context.Context, filter domain.SettlementFilter) ([]*domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE 1=1`
	args := []any{}

	if filter.RetailerID != "" {
		args = append(args, filter.RetailerID)
		query += fmt.Sprintf(` AND retailer_id = $%d`, len(args))
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

	var settlements []*domain.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, settlement)
	}

	return settlements, rows.Err()
}

// GetAllocations joins a settlement's mapping rows with the ledger entries
// they consumed, in allocation order.
func (r *SettlementRepository) GetAllocations(ctx context.Context, settlementID string) ([]*domain.SettlementAllocation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.settlement_id, m.ledger_id, m.amount_applied, m.created_at,
		       e.id, e.retailer_id, e.warehouse_id, e.order_id, e.order_item_id,
		       e.transaction_type, e.entry_type, e.amount, e.settled_amount, e.status,
		       e.trigger_date, e.notes, e.created_by, e.created_at, e.updated_at
		FROM settlement_ledger_mappings m
		JOIN ledger_entries e ON e.id = m.ledger_id
		WHERE m.settlement_id = $1
		ORDER BY e.created_at, e.id`,
		settlementID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []*domain.SettlementAllocation
	for rows.Next() {
		var (
			mapping                                      domain.SettlementLedgerMapping
			entry                                        domain.LedgerEntry
			mappingAmount, amount, settledAmount         pgtype.Numeric
			mappingCreatedAt                             pgtype.Timestamptz
			warehouseID, orderID, orderItemID, createdBy *string
			transactionType, entryType, status           string
			triggerDate, createdAt, updatedAt            pgtype.Timestamptz
		)

		err := rows.Scan(
			&mapping.ID,
			&mapping.SettlementID,
			&mapping.LedgerID,
			&mappingAmount,
			&mappingCreatedAt,
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

		mapping.AmountApplied = numericToDecimal(mappingAmount)
		mapping.CreatedAt = mappingCreatedAt.Time

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

		allocations = append(allocations, &domain.SettlementAllocation{
			Mapping: &mapping,
			Entry:   &entry,
		})
	}

	return allocations, rows.Err()
}

func scanSettlement(row pgx.Row) (*domain.Settlement, error) {
	var (
		settlement                             domain.Settlement
		amount                                 pgtype.Numeric
		referenceNumber, receiptURL, settledBy *string
		status                                 string
		createdAt                              pgtype.Timestamptz
	)

	err := row.Scan(
		&settlement.ID,
		&settlement.RetailerID,
		&amount,
		&settlement.PaymentMode,
		&referenceNumber,
		&receiptURL,
		&settlement.Notes,
		&status,
		&settledBy,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	settlement.Amount = numericToDecimal(amount)
	settlement.ReferenceNumber = derefOrEmpty(referenceNumber)
	settlement.ReceiptURL = derefOrEmpty(receiptURL)
	settlement.SettledBy = derefOrEmpty(settledBy)
	settlement.Status = domain.SettlementStatus(status)
	settlement.CreatedAt = createdAt.Time

	return &settlement, nil
}
