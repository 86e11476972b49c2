package services

import (
	"context"
	"fmt"
	"time"

	"github.com/saron-retail/saron-core/internal/core/domain"
	"github.com/saron-retail/saron-core/internal/core/ports/driven"
	"github.com/saron-retail/saron-core/internal/core/ports/driving"
)

var _ driving.SaleQueryService = (*SaleQueryService)(nil)

const (
	defaultSaleListLimit = 50
	maxSaleListLimit     = 500
)

// SaleQueryService serves the locally synced sales to the dashboard.
// Windows are read as calendar days in location, the same zone the sync engine uses.
type SaleQueryService struct {
	saleStore driven.SaleStore
	location  *time.Location
}

// NewSaleQueryService creates a new sale query service. A nil location means UTC.
func NewSaleQueryService(saleStore driven.SaleStore, location *time.Location) *SaleQueryService {
	if location == nil {
		location = time.UTC
	}
	return &SaleQueryService{saleStore: saleStore, location: location}
}

// List returns sales matching the filter. The limit defaults to 50 and is capped at 500.
func (s *SaleQueryService) List(ctx context.Context, filter domain.SaleFilter) ([]*domain.Sale, error) {
	if filter.Store != "" {
		if _, err := domain.ParseStoreID(string(filter.Store)); err != nil {
			return nil, fmt.Errorf("%w: unknown store %q", domain.ErrInvalidInput, filter.Store)
		}
	}
	if filter.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", domain.ErrInvalidInput)
	}
	if filter.Window != nil {
		window := filter.Window.In(s.location)
		filter.Window = &window
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultSaleListLimit
	}
	if filter.Limit > maxSaleListLimit {
		filter.Limit = maxSaleListLimit
	}
	return s.saleStore.ListSales(ctx, filter)
}

// Count returns the number of a store's sales inside the window.
func (s *SaleQueryService) Count(ctx context.Context, store domain.StoreID, window domain.DateWindow) (int, error) {
	if _, err := domain.ParseStoreID(string(store)); err != nil {
		return 0, err
	}
	return s.saleStore.CountSales(ctx, store, window.In(s.location))
}
