package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/saron-retail/saron-core/internal/core/domain"
	"github.com/saron-retail/saron-core/internal/core/ports/driven"
	"github.com/saron-retail/saron-core/internal/core/ports/driving"
	"github.com/saron-retail/saron-core/internal/normalisers"
	"github.com/saron-retail/saron-core/internal/pagination"
)

var _ driving.SalesSyncService = (*SalesSyncService)(nil)

const (
	// DefaultSyncPageSize is the number of ERP records requested per page.
	DefaultSyncPageSize = 200
	// DefaultSyncMaxPages bounds one run at 20k records.
	DefaultSyncMaxPages = 100
	// syncLockTTL covers the longest expected run; the lock is released on completion.
	syncLockTTL = 30 * time.Minute
)

// HistoryEpoch is the first day imported by a full-history sync.
var HistoryEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// SalesSyncService rebuilds local sales windows from the ERP.
//
// Each run for a (store, window) key deletes the window, then pages through
// the ERP in order, persisting every new sale code once. Progress is kept in
// memory per key; a key already in progress rejects new runs.
type SalesSyncService struct {
	saleStore  driven.SaleStore
	source     driven.SalesSource
	normaliser *normalisers.SaleNormaliser
	lock       driven.DistributedLock
	clock      clock.Clock
	location   *time.Location
	pageSize   int
	maxPages   int
	logger     *slog.Logger

	mu       sync.Mutex
	progress map[domain.SyncKey]*domain.SyncProgress
}

// SalesSyncConfig holds dependencies for SalesSyncService.
type SalesSyncConfig struct {
	SaleStore  driven.SaleStore
	Source     driven.SalesSource
	Normaliser *normalisers.SaleNormaliser
	// Lock is optional. When set, runs also hold a cross-process lock per key.
	Lock     driven.DistributedLock
	Clock    clock.Clock
	Location *time.Location
	PageSize int
	MaxPages int
	Logger   *slog.Logger
}

// NewSalesSyncService creates a new sales sync service.
func NewSalesSyncService(cfg SalesSyncConfig) *SalesSyncService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	normaliser := cfg.Normaliser
	if normaliser == nil {
		normaliser = normalisers.NewSaleNormaliser(nil, loc)
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultSyncPageSize
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultSyncMaxPages
	}

	return &SalesSyncService{
		saleStore:  cfg.SaleStore,
		source:     cfg.Source,
		normaliser: normaliser,
		lock:       cfg.Lock,
		clock:      clk,
		location:   loc,
		pageSize:   pageSize,
		maxPages:   maxPages,
		logger:     logger,
		progress:   make(map[domain.SyncKey]*domain.SyncProgress),
	}
}

// syncRun accumulates the counters of one run.
type syncRun struct {
	key        domain.SyncKey
	seen       map[string]struct{}
	stored     int
	duplicates int
	skipped    int
}

// SyncStore replaces the store's sales for the window with the ERP's current data.
// The window's calendar days are read in the service location, so its bounds
// match the dates the normaliser gives to zone-less ERP timestamps.
func (s *SalesSyncService) SyncStore(ctx context.Context, store domain.StoreID, window domain.DateWindow) *domain.SyncResult {
	window = window.In(s.location)
	start := s.clock.Now()
	key := domain.NewSyncKey(store, window)
	logger := s.logger.With("store_id", store, "start_date", key.StartDate, "end_date", key.EndDate)

	previous, ok := s.begin(key, start)
	if !ok {
		logger.Warn("sales sync rejected, window already in progress")
		syncRunsTotal.WithLabelValues(string(store), outcomeRejected).Inc()
		return &domain.SyncResult{Store: store, Error: domain.ErrSyncInProgress.Error()}
	}

	if s.lock != nil {
		lockName := "sales-sync:" + key.String()
		acquired, err := s.lock.Acquire(ctx, lockName, syncLockTTL)
		if err != nil {
			return s.fail(logger, &syncRun{key: key}, start, 0, fmt.Errorf("acquire sync lock: %w", err))
		}
		if !acquired {
			s.restore(key, previous)
			logger.Warn("sales sync rejected, window locked by another instance")
			syncRunsTotal.WithLabelValues(string(store), outcomeRejected).Inc()
			return &domain.SyncResult{Store: store, Error: domain.ErrSyncInProgress.Error()}
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), lockName); err != nil {
				logger.Warn("failed to release sync lock", "error", err)
			}
		}()
	}

	logger.Info("starting sales sync")
	run := &syncRun{key: key, seen: make(map[string]struct{})}

	if !slices.Contains(s.source.AvailableStores(), store) {
		result := s.fail(logger, run, start, 0, &domain.ConfigurationError{Store: store})
		result.NotConfigured = true
		return result
	}

	deleted, err := s.saleStore.DeleteSalesByPeriod(ctx, store, window)
	if err != nil {
		return s.fail(logger, run, start, 0, fmt.Errorf("delete sales window: %w", err))
	}
	logger.Info("cleared sales window", "deleted", deleted)

	outcome, err := pagination.Each(ctx, s.pageSize, s.maxPages,
		func(ctx context.Context, page int) ([]domain.ExternalRecord, error) {
			return s.source.FetchSalesPage(ctx, store, window, page, s.pageSize)
		},
		func(page int, records []domain.ExternalRecord) error {
			s.applyPage(ctx, logger, store, run, page, records)
			return nil
		})
	if err != nil {
		return s.fail(logger, run, start, outcome.Pages, fmt.Errorf("fetch sales: %w", err))
	}
	if outcome.Truncated {
		logger.Warn("sales sync stopped at page cap", "max_pages", s.maxPages)
	}

	return s.complete(logger, run, start, outcome)
}

// applyPage persists one page. Record failures are logged and counted, never returned.
func (s *SalesSyncService) applyPage(ctx context.Context, logger *slog.Logger, store domain.StoreID, run *syncRun, page int, records []domain.ExternalRecord) {
	for _, rec := range records {
		code := s.normaliser.SaleCode(rec)
		if code != "" {
			if _, dup := run.seen[code]; dup {
				run.duplicates++
				continue
			}
			run.seen[code] = struct{}{}
		}

		if err := s.storeRecord(ctx, store, code, rec); err != nil {
			run.skipped++
			logger.Warn("skipping sale record", "page", page, "sale_code", code, "error", err)
			continue
		}
		run.stored++
	}

	s.mu.Lock()
	if p := s.progress[run.key]; p != nil {
		p.SalesCount = run.stored
		p.Duplicates = run.duplicates
		p.Skipped = run.skipped
	}
	s.mu.Unlock()

	logger.Debug("sales page applied", "page", page, "records", len(records), "stored", run.stored)
}

func (s *SalesSyncService) storeRecord(ctx context.Context, store domain.StoreID, code string, rec domain.ExternalRecord) error {
	sale, items, err := s.normaliser.Normalise(store, rec)
	if err != nil {
		return err
	}
	if _, err := s.saleStore.CreateSaleWithItems(ctx, sale, items); err != nil {
		return &domain.RecordNormalizationError{SaleCode: code, Reason: "persist sale", Err: err}
	}
	return nil
}

// begin marks key in progress. It returns the entry it replaced, and false
// when the key is already running.
func (s *SalesSyncService) begin(key domain.SyncKey, now time.Time) (*domain.SyncProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.progress[key]
	if previous != nil && previous.Status == domain.SyncStatusInProgress {
		return nil, false
	}
	s.progress[key] = &domain.SyncProgress{Key: key, Status: domain.SyncStatusInProgress, StartedAt: now}
	return previous, true
}

// restore undoes begin for a run that never started.
func (s *SalesSyncService) restore(key domain.SyncKey, previous *domain.SyncProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if previous == nil {
		delete(s.progress, key)
		return
	}
	s.progress[key] = previous
}

func (s *SalesSyncService) finish(run *syncRun, status domain.SyncStatus, errMsg string) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.progress[run.key]
	if p == nil {
		return
	}
	p.Status = status
	p.SalesCount = run.stored
	p.Duplicates = run.duplicates
	p.Skipped = run.skipped
	p.Error = errMsg
	p.CompletedAt = &now
}

func (s *SalesSyncService) fail(logger *slog.Logger, run *syncRun, start time.Time, pages int, err error) *domain.SyncResult {
	s.finish(run, domain.SyncStatusFailed, err.Error())
	s.record(run, outcomeFailed, start)
	logger.Error("sales sync failed", "error", err, "stored", run.stored)

	return &domain.SyncResult{
		Success:    false,
		Store:      run.key.Store,
		SalesCount: run.stored,
		Duplicates: run.duplicates,
		Skipped:    run.skipped,
		Pages:      pages,
		Error:      err.Error(),
		Duration:   s.clock.Now().Sub(start).Seconds(),
	}
}

func (s *SalesSyncService) complete(logger *slog.Logger, run *syncRun, start time.Time, outcome pagination.Outcome) *domain.SyncResult {
	s.finish(run, domain.SyncStatusCompleted, "")
	s.record(run, outcomeCompleted, start)
	logger.Info("sales sync completed",
		"sales", run.stored, "duplicates", run.duplicates, "skipped", run.skipped, "pages", outcome.Pages)

	return &domain.SyncResult{
		Success:    true,
		Store:      run.key.Store,
		SalesCount: run.stored,
		Duplicates: run.duplicates,
		Skipped:    run.skipped,
		Pages:      outcome.Pages,
		HasMore:    outcome.Truncated,
		Duration:   s.clock.Now().Sub(start).Seconds(),
	}
}

func (s *SalesSyncService) record(run *syncRun, outcome string, start time.Time) {
	store := string(run.key.Store)
	syncRunsTotal.WithLabelValues(store, outcome).Inc()
	syncSalesTotal.WithLabelValues(store, "stored").Add(float64(run.stored))
	syncSalesTotal.WithLabelValues(store, "duplicate").Add(float64(run.duplicates))
	syncSalesTotal.WithLabelValues(store, "skipped").Add(float64(run.skipped))
	syncDuration.WithLabelValues(store).Observe(s.clock.Now().Sub(start).Seconds())
}

// SyncAllStores syncs every store one after another and returns one result per store.
// A store without credentials gets a failed result carrying its ConfigurationError.
// A failed store never stops the next one.
func (s *SalesSyncService) SyncAllStores(ctx context.Context, window domain.DateWindow) []*domain.SyncResult {
	if len(s.source.AvailableStores()) == 0 {
		s.logger.Warn("no stores configured, every store will report missing credentials", "window", window.String())
	}

	stores := domain.AllStores()
	results := make([]*domain.SyncResult, 0, len(stores))
	for _, store := range stores {
		results = append(results, s.SyncStore(ctx, store, window))
	}
	return results
}

// SyncToday syncs every store for the current day.
func (s *SalesSyncService) SyncToday(ctx context.Context) []*domain.SyncResult {
	return s.SyncAllStores(ctx, domain.DayWindow(s.now()))
}

// SyncCurrentMonth syncs every store from the first to the last day of the current month.
func (s *SalesSyncService) SyncCurrentMonth(ctx context.Context) []*domain.SyncResult {
	return s.SyncAllStores(ctx, domain.MonthWindow(s.now()))
}

// SyncFullHistory re-imports every store from HistoryEpoch through today.
func (s *SalesSyncService) SyncFullHistory(ctx context.Context) []*domain.SyncResult {
	epoch := time.Date(HistoryEpoch.Year(), HistoryEpoch.Month(), HistoryEpoch.Day(), 0, 0, 0, 0, s.location)
	window, err := domain.NewDateWindow(epoch, s.now())
	if err != nil {
		s.logger.Error("full history sync skipped", "error", err)
		return []*domain.SyncResult{}
	}
	return s.SyncAllStores(ctx, window)
}

// GetSyncStatus returns a copy of the progress of a key.
func (s *SalesSyncService) GetSyncStatus(store domain.StoreID, window domain.DateWindow) (*domain.SyncProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[domain.NewSyncKey(store, window)]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// Running reports whether any key is in progress.
func (s *SalesSyncService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.progress {
		if p.Status == domain.SyncStatusInProgress {
			return true
		}
	}
	return false
}

func (s *SalesSyncService) now() time.Time {
	return s.clock.Now().In(s.location)
}

// IsRejected reports whether a result was turned away by the in-progress guard.
func IsRejected(r *domain.SyncResult) bool {
	return r != nil && !r.Success && r.Error == domain.ErrSyncInProgress.Error()
}

// FirstError returns the first failed result's error, for callers that need an error value.
// Stores without credentials are reported in their results but do not fail a
// batch; a batch with no configured store returns ErrNoStoresConfigured.
func FirstError(results []*domain.SyncResult) error {
	configured := 0
	for _, r := range results {
		if r.NotConfigured {
			continue
		}
		configured++
		if !r.Success {
			return fmt.Errorf("store %s: %s", r.Store, r.Error)
		}
	}
	if configured == 0 {
		return domain.ErrNoStoresConfigured
	}
	return nil
}
