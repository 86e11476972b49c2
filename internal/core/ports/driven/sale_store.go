package driven

import (
	"context"

	"github.com/saron-retail/saron-core/internal/core/domain"
)

// SaleStore persists synced sales and their line items (PostgreSQL).
type SaleStore interface {
	// DeleteSalesByPeriod removes every sale of the store dated inside the window.
	// Items go with their sale. Returns the number of deleted sales.
	DeleteSalesByPeriod(ctx context.Context, store domain.StoreID, window domain.DateWindow) (int64, error)

	// CreateSaleWithItems stores a sale and its items as one atomic unit.
	CreateSaleWithItems(ctx context.Context, sale *domain.Sale, items []domain.SaleItem) (*domain.Sale, error)

	// ListSales returns sales matching the filter, newest first, items included.
	ListSales(ctx context.Context, filter domain.SaleFilter) ([]*domain.Sale, error)

	// CountSales counts a store's sales inside the window.
	CountSales(ctx context.Context, store domain.StoreID, window domain.DateWindow) (int, error)
}
