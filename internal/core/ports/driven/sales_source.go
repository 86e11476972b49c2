package driven

import (
	"context"

	"github.com/saron-retail/saron-core/internal/core/domain"
)

// SalesSource reads raw sale records from the ERP, one page at a time.
// Implemented by the Dapic client.
type SalesSource interface {
	// FetchSalesPage returns page `page` (1-based) of the store's sales in the window.
	FetchSalesPage(ctx context.Context, store domain.StoreID, window domain.DateWindow, page, perPage int) ([]domain.ExternalRecord, error)

	// AvailableStores returns the stores with usable credentials.
	AvailableStores() []domain.StoreID
}
