package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/saron-retail/saron-core/internal/core/domain"
	"github.com/saron-retail/saron-core/internal/core/ports/driven/mocks"
)

const (
	adminToken   = "admin-token"
	managerToken = "manager-token"
	sellerToken  = "seller-token"
	expiredToken = "expired-token"
)

// stubTokens maps fixed bearer strings to claims.
type stubTokens struct{}

func (stubTokens) GenerateToken(*domain.TokenClaims) (string, error) {
	return "", errors.New("not implemented")
}

func (stubTokens) ParseToken(token string) (*domain.TokenClaims, error) {
	switch token {
	case adminToken:
		return &domain.TokenClaims{UserID: "u-admin", Role: domain.RoleAdmin}, nil
	case managerToken:
		return &domain.TokenClaims{UserID: "u-manager", Role: domain.RoleManager}, nil
	case sellerToken:
		return &domain.TokenClaims{UserID: "u-seller", Role: domain.RoleSeller, Store: domain.StoreSaron2}, nil
	case expiredToken:
		return nil, domain.ErrTokenExpired
	}
	return nil, domain.ErrTokenInvalid
}

type mockSyncService struct {
	syncStoreFn  func(store domain.StoreID, window domain.DateWindow) *domain.SyncResult
	syncAllFn    func(window domain.DateWindow) []*domain.SyncResult
	todayCalls   int
	monthCalls   int
	historyCalls int
	progress     map[domain.SyncKey]*domain.SyncProgress
}

func (m *mockSyncService) SyncStore(_ context.Context, store domain.StoreID, window domain.DateWindow) *domain.SyncResult {
	if m.syncStoreFn != nil {
		return m.syncStoreFn(store, window)
	}
	return &domain.SyncResult{Success: true, Store: store}
}

func (m *mockSyncService) SyncAllStores(_ context.Context, window domain.DateWindow) []*domain.SyncResult {
	if m.syncAllFn != nil {
		return m.syncAllFn(window)
	}
	return okResults()
}

func (m *mockSyncService) SyncToday(context.Context) []*domain.SyncResult {
	m.todayCalls++
	return okResults()
}

func (m *mockSyncService) SyncCurrentMonth(context.Context) []*domain.SyncResult {
	m.monthCalls++
	return okResults()
}

func (m *mockSyncService) SyncFullHistory(context.Context) []*domain.SyncResult {
	m.historyCalls++
	return okResults()
}

func (m *mockSyncService) GetSyncStatus(store domain.StoreID, window domain.DateWindow) (*domain.SyncProgress, bool) {
	p, ok := m.progress[domain.NewSyncKey(store, window)]
	return p, ok
}

func okResults() []*domain.SyncResult {
	var out []*domain.SyncResult
	for _, s := range domain.AllStores() {
		out = append(out, &domain.SyncResult{Success: true, Store: s, SalesCount: 10})
	}
	return out
}

type mockSaleService struct {
	lastFilter domain.SaleFilter
	sales      []*domain.Sale
	err        error
}

func (m *mockSaleService) List(_ context.Context, filter domain.SaleFilter) ([]*domain.Sale, error) {
	m.lastFilter = filter
	return m.sales, m.err
}

func (m *mockSaleService) Count(context.Context, domain.StoreID, domain.DateWindow) (int, error) {
	return len(m.sales), m.err
}

type mockERPReader struct {
	lastQuery domain.ERPQuery
	result    *domain.FanOutResult
	calls     []string
}

func (m *mockERPReader) read(name string, q domain.ERPQuery) *domain.FanOutResult {
	m.calls = append(m.calls, name)
	m.lastQuery = q
	if m.result != nil {
		return m.result
	}
	return domain.NewFanOutResult()
}

func (m *mockERPReader) GetClients(_ context.Context, q domain.ERPQuery) *domain.FanOutResult {
	return m.read("clients", q)
}

func (m *mockERPReader) GetProducts(_ context.Context, q domain.ERPQuery) *domain.FanOutResult {
	return m.read("products", q)
}

func (m *mockERPReader) GetSales(_ context.Context, q domain.ERPQuery) *domain.FanOutResult {
	return m.read("sales", q)
}

func (m *mockERPReader) GetPayables(_ context.Context, q domain.ERPQuery) *domain.FanOutResult {
	return m.read("payables", q)
}

func (m *mockERPReader) AvailableStores() []domain.StoreID {
	return []domain.StoreID{domain.StoreSaron1, domain.StoreSaron3}
}

type mockScheduler struct {
	tasks []*domain.ScheduledTask
}

func (m *mockScheduler) Start(context.Context) error { return nil }
func (m *mockScheduler) Stop()                       {}

func (m *mockScheduler) ListScheduledTasks(context.Context) ([]*domain.ScheduledTask, error) {
	return m.tasks, nil
}

func (m *mockScheduler) TriggerNow(_ context.Context, id string) (*domain.Task, error) {
	for _, st := range m.tasks {
		if st.ID == id {
			return domain.NewTask(st.Type, nil), nil
		}
	}
	return nil, domain.ErrNotFound
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	server    *Server
	sync      *mockSyncService
	sales     *mockSaleService
	erp       *mockERPReader
	scheduler *mockScheduler
	queue     *mocks.MockTaskQueue
}

func newTestEnv() *testEnv {
	env := &testEnv{
		sync:      &mockSyncService{progress: map[domain.SyncKey]*domain.SyncProgress{}},
		sales:     &mockSaleService{},
		erp:       &mockERPReader{},
		scheduler: &mockScheduler{},
		queue:     mocks.NewMockTaskQueue(),
	}
	env.server = NewServer(DefaultConfig(), Dependencies{
		Sync:      env.sync,
		Sales:     env.sales,
		ERP:       env.erp,
		Scheduler: env.scheduler,
		Tokens:    stubTokens{},
		TaskQueue: env.queue,
		DB:        pinger{},
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}
