package mocks

import (
	"context"
	"sync"

	"github.com/saron-retail/saron-core/internal/core/domain"
)

// MockSalesSource serves canned sale pages per store.
type MockSalesSource struct {
	mu     sync.Mutex
	pages  map[domain.StoreID][][]domain.ExternalRecord
	Stores []domain.StoreID

	// Requests records every (store, page) fetched, in order.
	Requests []PageRequest

	FetchSalesPageFn func(ctx context.Context, store domain.StoreID, window domain.DateWindow, page, perPage int) ([]domain.ExternalRecord, error)
}

// PageRequest is one recorded FetchSalesPage call.
type PageRequest struct {
	Store   domain.StoreID
	Window  domain.DateWindow
	Page    int
	PerPage int
}

// NewMockSalesSource creates a source where every store is available.
func NewMockSalesSource() *MockSalesSource {
	return &MockSalesSource{
		pages:  make(map[domain.StoreID][][]domain.ExternalRecord),
		Stores: domain.AllStores(),
	}
}

// SetPages replaces the pages served for a store.
func (m *MockSalesSource) SetPages(store domain.StoreID, pages ...[]domain.ExternalRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[store] = pages
}

func (m *MockSalesSource) FetchSalesPage(ctx context.Context, store domain.StoreID, window domain.DateWindow, page, perPage int) ([]domain.ExternalRecord, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, PageRequest{Store: store, Window: window, Page: page, PerPage: perPage})
	m.mu.Unlock()

	if m.FetchSalesPageFn != nil {
		return m.FetchSalesPageFn(ctx, store, window, page, perPage)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	pages := m.pages[store]
	if page < 1 || page > len(pages) {
		return nil, nil
	}
	return pages[page-1], nil
}

func (m *MockSalesSource) AvailableStores() []domain.StoreID {
	return m.Stores
}

// RequestCount returns how many pages were fetched for a store.
func (m *MockSalesSource) RequestCount(store domain.StoreID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.Requests {
		if r.Store == store {
			n++
		}
	}
	return n
}
