package dapic

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"github.com/saron-retail/saron-core/internal/core/domain"
)

// fakeERP is an httptest Dapic: one login endpoint plus paged list endpoints.
type fakeERP struct {
	mu        sync.Mutex
	server    *httptest.Server
	expiresIn int64

	logins     map[string]int
	failLogin  map[string]bool
	dataStatus map[string]int
	records    map[string]int
	requests   []url.URL
}

func newFakeERP(t *testing.T) *fakeERP {
	t.Helper()
	f := &fakeERP{
		expiresIn:  3600,
		logins:     make(map[string]int),
		failLogin:  make(map[string]bool),
		dataStatus: make(map[string]int),
		records:    make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+LoginPath, f.handleLogin)
	mux.HandleFunc("GET /v1/", f.handleList)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeERP) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLogin[req.Empresa] {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	f.logins[req.Empresa]++
	_ = json.NewEncoder(w).Encode(loginResponse{
		AccessToken: fmt.Sprintf("tok-%s-%d", req.Empresa, f.logins[req.Empresa]),
		ExpiresIn:   f.expiresIn,
	})
}

func (f *fakeERP) handleList(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	parts := strings.Split(token, "-")
	if len(parts) != 3 {
		http.Error(w, "no token", http.StatusUnauthorized)
		return
	}
	empresa := parts[1]

	f.mu.Lock()
	f.requests = append(f.requests, *r.URL)
	status := f.dataStatus[empresa]
	total := f.records[empresa]
	f.mu.Unlock()

	if status != 0 {
		http.Error(w, "erp failure", status)
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get(ParamPage))
	perPage, _ := strconv.Atoi(q.Get(ParamPerPage))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}

	records := make([]map[string]any, 0, perPage)
	for i := (page - 1) * perPage; i < total && i < page*perPage; i++ {
		records = append(records, map[string]any{"Codigo": fmt.Sprintf("%s-%d", empresa, i), "Valor": 10.5})
	}

	key := "Dados"
	if strings.HasPrefix(r.URL.Path, ResourceProducts.Endpoint) {
		key = "Resultado"
	}
	_ = json.NewEncoder(w).Encode(map[string]any{key: records})
}

func (f *fakeERP) loginCount(empresa string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins[empresa]
}

func (f *fakeERP) requestsFor(path string) []url.URL {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []url.URL
	for _, u := range f.requests {
		if u.Path == path {
			out = append(out, u)
		}
	}
	return out
}

func allCredentials() []domain.StoreCredential {
	return []domain.StoreCredential{
		{Store: domain.StoreSaron1, EmpresaID: "emp1", IntegrationToken: "t1"},
		{Store: domain.StoreSaron2, EmpresaID: "emp2", IntegrationToken: "t2"},
		{Store: domain.StoreSaron3, EmpresaID: "emp3", IntegrationToken: "t3"},
	}
}

func newTestClient(f *fakeERP, creds []domain.StoreCredential) (*Client, *testclock.Clock) {
	clk := testclock.NewClock(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	return NewClient(Config{
		BaseURL:     f.server.URL,
		Credentials: creds,
		HTTPClient:  f.server.Client(),
		Clock:       clk,
	}), clk
}
