package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bazaarworks/marketledger/internal/domain"
	"github.com/bazaarworks/marketledger/internal/usecase"
)

// MockLedgerEntryRepository is an in-memory LedgerEntryRepository. Behavior
// can be overridden per method via the Func fields.
type MockLedgerEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.LedgerEntry

	CreateFunc                  func(ctx context.Context, entry *domain.LedgerEntry) error
	CreateTxFunc                func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	GetByIDFunc                 func(ctx context.Context, id string) (*domain.LedgerEntry, error)
	ListSettleableFunc          func(ctx context.Context, retailerID string) ([]*domain.LedgerEntry, error)
	ListSettleableForUpdateFunc func(ctx context.Context, tx usecase.Transaction, retailerID string) ([]*domain.LedgerEntry, error)
	ApplySettlementFunc         func(ctx context.Context, tx usecase.Transaction, id string, fromSettled, toSettled decimal.Decimal, status domain.EntryStatus, updatedAt time.Time) error
	ReleaseDueFunc              func(ctx context.Context, asOf time.Time) (int64, error)
	ListFunc                    func(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error)
}

func NewMockLedgerEntryRepository() *MockLedgerEntryRepository {
	return &MockLedgerEntryRepository{
		entries: make(map[string]*domain.LedgerEntry),
	}
}

// Seed inserts entries directly, bypassing any override.
func (m *MockLedgerEntryRepository) Seed(entries ...*domain.LedgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		clone := *e
		m.entries[e.ID] = &clone
	}
}

// Entry returns a copy of a stored entry for assertions.
func (m *MockLedgerEntryRepository) Entry(id string) *domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil
	}
	clone := *e
	return &clone
}

func (m *MockLedgerEntryRepository) Create(ctx context.Context, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *entry
	m.entries[entry.ID] = &clone
	return nil
}

func (m *MockLedgerEntryRepository) CreateTx(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, entry)
	}
	return m.Create(ctx, entry)
}

func (m *MockLedgerEntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		clone := *e
		return &clone, nil
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockLedgerEntryRepository) ListSettleable(ctx context.Context, retailerID string) ([]*domain.LedgerEntry, error) {
	if m.ListSettleableFunc != nil {
		return m.ListSettleableFunc(ctx, retailerID)
	}
	return m.settleableFIFO(retailerID), nil
}

func (m *MockLedgerEntryRepository) ListSettleableForUpdate(ctx context.Context, tx usecase.Transaction, retailerID string) ([]*domain.LedgerEntry, error) {
	if m.ListSettleableForUpdateFunc != nil {
		return m.ListSettleableForUpdateFunc(ctx, tx, retailerID)
	}
	return m.settleableFIFO(retailerID), nil
}

func (m *MockLedgerEntryRepository) ApplySettlement(ctx context.Context, tx usecase.Transaction, id string, fromSettled, toSettled decimal.Decimal, status domain.EntryStatus, updatedAt time.Time) error {
	if m.ApplySettlementFunc != nil {
		return m.ApplySettlementFunc(ctx, tx, id, fromSettled, toSettled, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || !e.SettledAmount.Equal(fromSettled) {
		return domain.ErrStaleEntry
	}
	e.SettledAmount = toSettled
	e.Status = status
	e.UpdatedAt = updatedAt
	return nil
}

func (m *MockLedgerEntryRepository) ReleaseDue(ctx context.Context, asOf time.Time) (int64, error) {
	if m.ReleaseDueFunc != nil {
		return m.ReleaseDueFunc(ctx, asOf)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var released int64
	for _, e := range m.entries {
		if e.Status == domain.EntryPending && !e.TriggerDate.After(asOf) {
			e.Status = domain.EntryAvailable
			e.UpdatedAt = asOf
			released++
		}
	}
	return released, nil
}

func (m *MockLedgerEntryRepository) List(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.LedgerEntry
	for _, e := range m.entries {
		if filter.RetailerID != "" && e.RetailerID != filter.RetailerID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.TransactionType != "" && e.TransactionType != filter.TransactionType {
			continue
		}
		clone := *e
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (m *MockLedgerEntryRepository) settleableFIFO(retailerID string) []*domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.RetailerID != retailerID {
			continue
		}
		if e.Status != domain.EntryAvailable && e.Status != domain.EntryPartiallySettled {
			continue
		}
		clone := *e
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// MockSettlementRepository is an in-memory SettlementRepository.
type MockSettlementRepository struct {
	mu          sync.RWMutex
	settlements map[string]*domain.Settlement
	mappings    map[string][]*domain.SettlementLedgerMapping
	entryRepo   *MockLedgerEntryRepository

	CreateFunc         func(ctx context.Context, tx usecase.Transaction, settlement *domain.Settlement) error
	CreateMappingsFunc func(ctx context.Context, tx usecase.Transaction, mappings []*domain.SettlementLedgerMapping) error
	GetByIDFunc        func(ctx context.Context, id string) (*domain.Settlement, error)
	ListFunc           func(ctx context.Context, filter domain.SettlementFilter) ([]*domain.Settlement, error)
	GetAllocationsFunc func(ctx context.Context, settlementID string) ([]*domain.SettlementAllocation, error)
}

// NewMockSettlementRepository creates a settlement repository. When entryRepo
// is non-nil, GetAllocations joins mappings with its entries.
func NewMockSettlementRepository(entryRepo *MockLedgerEntryRepository) *MockSettlementRepository {
	return &MockSettlementRepository{
		settlements: make(map[string]*domain.Settlement),
		mappings:    make(map[string][]*domain.SettlementLedgerMapping),
		entryRepo:   entryRepo,
	}
}

func (m *MockSettlementRepository) Create(ctx context.Context, tx usecase.Transaction, settlement *domain.Settlement) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, settlement)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *settlement
	m.settlements[settlement.ID] = &clone
	return nil
}

func (m *MockSettlementRepository) CreateMappings(ctx context.Context, tx usecase.Transaction, mappings []*domain.SettlementLedgerMapping) error {
	if m.CreateMappingsFunc != nil {
		return m.CreateMappingsFunc(ctx, tx, mappings)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mapping := range mappings {
		clone := *mapping
		m.mappings[mapping.SettlementID] = append(m.mappings[mapping.SettlementID], &clone)
	}
	return nil
}

func (m *MockSettlementRepository) GetByID(ctx context.Context, id string) (*domain.Settlement, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.settlements[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, domain.ErrSettlementNotFound
}

func (m *MockSettlementRepository) List(ctx context.Context, filter domain.SettlementFilter) ([]*domain.Settlement, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Settlement
	for _, s := range m.settlements {
		if filter.RetailerID != "" && s.RetailerID != filter.RetailerID {
			continue
		}
		clone := *s
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockSettlementRepository) GetAllocations(ctx context.Context, settlementID string) ([]*domain.SettlementAllocation, error) {
	if m.GetAllocationsFunc != nil {
		return m.GetAllocationsFunc(ctx, settlementID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.SettlementAllocation
	for _, mapping := range m.mappings[settlementID] {
		clone := *mapping
		alloc := &domain.SettlementAllocation{Mapping: &clone}
		if m.entryRepo != nil {
			alloc.Entry = m.entryRepo.Entry(mapping.LedgerID)
		}
		result = append(result, alloc)
	}
	return result, nil
}

// Mappings returns all mapping rows for a settlement, for assertions.
func (m *MockSettlementRepository) Mappings(settlementID string) []*domain.SettlementLedgerMapping {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.SettlementLedgerMapping(nil), m.mappings[settlementID]...)
}

// MockTransaction is a no-op Transaction that records its outcome.
type MockTransaction struct {
	Committed  bool
	RolledBack bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTxManager hands out MockTransactions.
type MockTxManager struct {
	mu   sync.Mutex
	Txs  []*MockTransaction
	Fail error

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func (m *MockTxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	if m.Fail != nil {
		return nil, m.Fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Txs = append(m.Txs, tx)
	return tx, nil
}

// MockIDGenerator produces deterministic, lexically increasing ids.
type MockIDGenerator struct {
	mu     sync.Mutex
	Prefix string
	next   int
}

func (g *MockIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	prefix := g.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%06d", prefix, g.next)
}

// MockFreezeStore is an in-memory FreezeStore.
type MockFreezeStore struct {
	mu     sync.RWMutex
	frozen map[string]string

	FreezeFunc   func(ctx context.Context, retailerID, reason string) error
	IsFrozenFunc func(ctx context.Context, retailerID string) (bool, string, error)
	UnfreezeFunc func(ctx context.Context, retailerID string) error
}

func NewMockFreezeStore() *MockFreezeStore {
	return &MockFreezeStore{frozen: make(map[string]string)}
}

func (m *MockFreezeStore) Freeze(ctx context.Context, retailerID, reason string) error {
	if m.FreezeFunc != nil {
		return m.FreezeFunc(ctx, retailerID, reason)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frozen[retailerID] = reason
	return nil
}

func (m *MockFreezeStore) IsFrozen(ctx context.Context, retailerID string) (bool, string, error) {
	if m.IsFrozenFunc != nil {
		return m.IsFrozenFunc(ctx, retailerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	reason, ok := m.frozen[retailerID]
	return ok, reason, nil
}

func (m *MockFreezeStore) Unfreeze(ctx context.Context, retailerID string) error {
	if m.UnfreezeFunc != nil {
		return m.UnfreezeFunc(ctx, retailerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.frozen, retailerID)
	return nil
}

// PassthroughRetrier runs the operation exactly once.
type PassthroughRetrier struct{}

func (PassthroughRetrier) Retry(ctx context.Context, operation func() error) error {
	return operation()
}
