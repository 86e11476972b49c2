package driving

import (
	"context"

	"github.com/saron-retail/saron-core/internal/core/domain"
)

// SalesSyncService replaces local sales windows with the ERP's current view.
// None of the sync operations return an error: failures are reported in SyncResult.
type SalesSyncService interface {
	// SyncStore replaces one store's sales for the window.
	SyncStore(ctx context.Context, store domain.StoreID, window domain.DateWindow) *domain.SyncResult

	// SyncAllStores syncs every store one after another, one result per store.
	SyncAllStores(ctx context.Context, window domain.DateWindow) []*domain.SyncResult

	// SyncToday syncs every store for the current day.
	SyncToday(ctx context.Context) []*domain.SyncResult

	// SyncCurrentMonth syncs every store for the current calendar month.
	SyncCurrentMonth(ctx context.Context) []*domain.SyncResult

	// SyncFullHistory re-imports every store from the history epoch through today.
	SyncFullHistory(ctx context.Context) []*domain.SyncResult

	// GetSyncStatus returns the progress of a store window, if any run was seen.
	GetSyncStatus(store domain.StoreID, window domain.DateWindow) (*domain.SyncProgress, bool)
}

// SaleQueryService reads locally synced sales.
type SaleQueryService interface {
	List(ctx context.Context, filter domain.SaleFilter) ([]*domain.Sale, error)
	Count(ctx context.Context, store domain.StoreID, window domain.DateWindow) (int, error)
}

// ERPReader serves live multi-store reads straight from the ERP.
type ERPReader interface {
	GetClients(ctx context.Context, q domain.ERPQuery) *domain.FanOutResult
	GetProducts(ctx context.Context, q domain.ERPQuery) *domain.FanOutResult
	GetSales(ctx context.Context, q domain.ERPQuery) *domain.FanOutResult
	GetPayables(ctx context.Context, q domain.ERPQuery) *domain.FanOutResult
	AvailableStores() []domain.StoreID
}

// Scheduler manages periodic sync scheduling
type Scheduler interface {
	// Start begins the scheduler loop
	Start(ctx context.Context) error

	// Stop stops the scheduler loop and waits for it to exit
	Stop()

	// ListScheduledTasks returns every schedule with its next run
	ListScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error)

	// TriggerNow enqueues a schedule's task immediately, ignoring NextRun
	TriggerNow(ctx context.Context, id string) (*domain.Task, error)
}
