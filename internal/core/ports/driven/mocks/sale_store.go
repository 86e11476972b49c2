package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/saron-retail/saron-core/internal/core/domain"
)

// MockSaleStore is an in-memory SaleStore for testing.
// Hooks, when set, replace the default behaviour for one operation.
type MockSaleStore struct {
	mu    sync.RWMutex
	sales map[uuid.UUID]*domain.Sale

	DeleteCalls int
	CreateCalls int

	// DeleteErrors fails DeleteSalesByPeriod for a store.
	DeleteErrors map[domain.StoreID]error
	// CreateErrors fails CreateSaleWithItems for a sale code.
	CreateErrors map[string]error

	DeleteSalesByPeriodFn func(store domain.StoreID, window domain.DateWindow) (int64, error)
	CreateSaleWithItemsFn func(sale *domain.Sale, items []domain.SaleItem) (*domain.Sale, error)
}

// NewMockSaleStore creates a new MockSaleStore
func NewMockSaleStore() *MockSaleStore {
	return &MockSaleStore{
		sales:        make(map[uuid.UUID]*domain.Sale),
		DeleteErrors: make(map[domain.StoreID]error),
		CreateErrors: make(map[string]error),
	}
}

func (m *MockSaleStore) DeleteSalesByPeriod(ctx context.Context, store domain.StoreID, window domain.DateWindow) (int64, error) {
	m.mu.Lock()
	m.DeleteCalls++
	m.mu.Unlock()
	if m.DeleteSalesByPeriodFn != nil {
		return m.DeleteSalesByPeriodFn(store, window)
	}
	if err := m.DeleteErrors[store]; err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sales {
		if s.StoreID == store && window.Contains(s.SaleDate) {
			delete(m.sales, id)
			n++
		}
	}
	return n, nil
}

func (m *MockSaleStore) CreateSaleWithItems(ctx context.Context, sale *domain.Sale, items []domain.SaleItem) (*domain.Sale, error) {
	m.mu.Lock()
	m.CreateCalls++
	m.mu.Unlock()
	if m.CreateSaleWithItemsFn != nil {
		return m.CreateSaleWithItemsFn(sale, items)
	}
	if err := m.CreateErrors[sale.SaleCode]; err != nil {
		return nil, err
	}

	stored := *sale
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.Items = make([]domain.SaleItem, len(items))
	for i, item := range items {
		item.SaleID = stored.ID
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		stored.Items[i] = item
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[stored.ID] = &stored
	return &stored, nil
}

func (m *MockSaleStore) ListSales(ctx context.Context, filter domain.SaleFilter) ([]*domain.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Sale
	for _, s := range m.sales {
		if filter.Store != "" && s.StoreID != filter.Store {
			continue
		}
		if filter.Window != nil && !filter.Window.Contains(s.SaleDate) {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SaleDate.After(result[j].SaleDate) })
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MockSaleStore) CountSales(ctx context.Context, store domain.StoreID, window domain.DateWindow) (int, error) {
	sales, err := m.ListSales(ctx, domain.SaleFilter{Store: store, Window: &window})
	return len(sales), err
}

// Helper methods for testing

// Len returns the number of stored sales across all stores.
func (m *MockSaleStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sales)
}

// Codes returns the sale codes stored for a store, sorted.
func (m *MockSaleStore) Codes(store domain.StoreID) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var codes []string
	for _, s := range m.sales {
		if s.StoreID == store {
			codes = append(codes, s.SaleCode)
		}
	}
	sort.Strings(codes)
	return codes
}

// Seed stores a sale directly, bypassing hooks and counters.
func (m *MockSaleStore) Seed(sale *domain.Sale) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	m.sales[sale.ID] = sale
}
