package dapic

import (
	"context"
	"net/url"
	"strconv"

	"github.com/saron-retail/saron-core/internal/core/domain"
	"github.com/saron-retail/saron-core/internal/pagination"
)

// Query parameter names understood by the Dapic list endpoints.
const (
	ParamStartDate = "DataInicial"
	ParamEndDate   = "DataFinal"
	ParamPage      = "Pagina"
	ParamPerPage   = "RegistrosPorPagina"
)

// Resource describes a Dapic list endpoint and its paging policy.
type Resource struct {
	Name     string
	Endpoint string
	PerPage  int
	MaxPages int
	// Shared resources hold the same data in every store.
	Shared bool
}

var (
	ResourceClients  = Resource{Name: "clients", Endpoint: "/v1/clientes", PerPage: 200, MaxPages: 100, Shared: true}
	ResourceProducts = Resource{Name: "products", Endpoint: "/v1/produtos", PerPage: 200, MaxPages: 10, Shared: true}
	ResourceSales    = Resource{Name: "sales", Endpoint: "/v1/vendaspdv", PerPage: 200, MaxPages: 50}
	ResourcePayables = Resource{Name: "payables", Endpoint: "/v1/contaspagar", PerPage: 200, MaxPages: 50}
)

// Resources lists every known resource.
func Resources() []Resource {
	return []Resource{ResourceClients, ResourceProducts, ResourceSales, ResourcePayables}
}

// resourceFor finds the paging policy of an endpoint; unknown endpoints get the sales policy.
func resourceFor(endpoint string) Resource {
	for _, r := range Resources() {
		if r.Endpoint == endpoint {
			return r
		}
	}
	return Resource{Name: endpoint, Endpoint: endpoint, PerPage: ResourceSales.PerPage, MaxPages: ResourceSales.MaxPages}
}

// FetchAllPages concatenates every page of an endpoint for one store.
// An explicit Pagina parameter disables auto-pagination and returns that page only.
// Hitting maxPages truncates with a warning, not an error.
func (c *Client) FetchAllPages(ctx context.Context, store domain.StoreID, endpoint string, params url.Values, perPage, maxPages int) ([]domain.ExternalRecord, error) {
	if params.Get(ParamPage) != "" {
		q := cloneParams(params)
		if q.Get(ParamPerPage) == "" {
			q.Set(ParamPerPage, strconv.Itoa(perPage))
		}
		return c.fetchPage(ctx, store, endpoint, q)
	}

	records, out, err := pagination.Collect(ctx, perPage, maxPages, func(ctx context.Context, page int) ([]domain.ExternalRecord, error) {
		q := cloneParams(params)
		q.Set(ParamPage, strconv.Itoa(page))
		q.Set(ParamPerPage, strconv.Itoa(perPage))
		return c.fetchPage(ctx, store, endpoint, q)
	})
	if err != nil {
		return nil, err
	}
	if out.Truncated {
		c.logger.Warn("dapic pagination truncated at page cap",
			"store_id", store, "endpoint", endpoint, "max_pages", maxPages, "records", len(records))
	}
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, store domain.StoreID, endpoint string, params url.Values) ([]domain.ExternalRecord, error) {
	body, err := c.MakeRequest(ctx, store, endpoint, params)
	if err != nil {
		return nil, err
	}
	records, err := DecodeRecords(body)
	if err != nil {
		return nil, &domain.TransportError{Store: store, Endpoint: endpoint, Err: err}
	}
	return records, nil
}

// StoreFetcher loads one store's records for a fan-out.
type StoreFetcher func(ctx context.Context, store domain.StoreID, params url.Values) ([]domain.ExternalRecord, error)

// FanOutAllStores queries every available store concurrently.
func (c *Client) FanOutAllStores(ctx context.Context, endpoint string, params url.Values) *domain.FanOutResult {
	res := resourceFor(endpoint)
	return c.fanOut(ctx, FanOutParallel, func(ctx context.Context, store domain.StoreID, p url.Values) ([]domain.ExternalRecord, error) {
		return c.FetchAllPages(ctx, store, endpoint, p, res.PerPage, res.MaxPages)
	}, params)
}

// FanOutReplicated fetches from the first store that answers and copies the
// result under every available store.
func (c *Client) FanOutReplicated(ctx context.Context, fetch StoreFetcher, params url.Values) *domain.FanOutResult {
	stores := c.AvailableStores()
	if len(stores) == 0 {
		result := domain.NewFanOutResult()
		result.Errors[domain.StoreAll] = domain.ErrNoStoresConfigured
		return result
	}
	return c.fanOut(ctx, FanOutReplicateFirst, fetch, params)
}

func (c *Client) fanOut(ctx context.Context, mode FanOutMode, fetch StoreFetcher, params url.Values) *domain.FanOutResult {
	data, errs := FanOut(ctx, c.AvailableStores(), mode, func(ctx context.Context, store domain.StoreID) ([]domain.ExternalRecord, error) {
		return fetch(ctx, store, cloneParams(params))
	})

	result := domain.NewFanOutResult()
	for store, records := range data {
		result.Data[store] = records
	}
	for store, err := range errs {
		c.logger.Warn("dapic fan-out leg failed", "store_id", store, "mode", mode.String(), "error", err)
		result.Errors[store] = err
	}
	return result
}

func (c *Client) resourceFetcher(res Resource) StoreFetcher {
	return func(ctx context.Context, store domain.StoreID, params url.Values) ([]domain.ExternalRecord, error) {
		return c.FetchAllPages(ctx, store, res.Endpoint, params, res.PerPage, res.MaxPages)
	}
}

func (c *Client) read(ctx context.Context, res Resource, q domain.ERPQuery) *domain.FanOutResult {
	params := queryParams(q)
	if res.Shared {
		return c.FanOutReplicated(ctx, c.resourceFetcher(res), params)
	}
	return c.FanOutAllStores(ctx, res.Endpoint, params)
}

// GetClients reads the shared client registry.
func (c *Client) GetClients(ctx context.Context, q domain.ERPQuery) *domain.FanOutResult {
	return c.read(ctx, ResourceClients, q)
}

// GetProducts reads the shared product catalogue.
func (c *Client) GetProducts(ctx context.Context, q domain.ERPQuery) *domain.FanOutResult {
	return c.read(ctx, ResourceProducts, q)
}

// GetSales reads every store's POS sales.
func (c *Client) GetSales(ctx context.Context, q domain.ERPQuery) *domain.FanOutResult {
	return c.read(ctx, ResourceSales, q)
}

// GetPayables reads every store's accounts payable.
func (c *Client) GetPayables(ctx context.Context, q domain.ERPQuery) *domain.FanOutResult {
	return c.read(ctx, ResourcePayables, q)
}

// FetchSalesPage returns a single page of a store's POS sales. The sync engine
// drives paging itself so it can stop early and persist as it goes.
func (c *Client) FetchSalesPage(ctx context.Context, store domain.StoreID, window domain.DateWindow, page, perPage int) ([]domain.ExternalRecord, error) {
	params := url.Values{}
	params.Set(ParamStartDate, window.StartDate())
	params.Set(ParamEndDate, window.EndDate())
	params.Set(ParamPage, strconv.Itoa(page))
	params.Set(ParamPerPage, strconv.Itoa(perPage))
	return c.fetchPage(ctx, store, ResourceSales.Endpoint, params)
}

func queryParams(q domain.ERPQuery) url.Values {
	params := url.Values{}
	for k, v := range q.Extra {
		params.Set(k, v)
	}
	if q.Window != nil {
		params.Set(ParamStartDate, q.Window.StartDate())
		params.Set(ParamEndDate, q.Window.EndDate())
	}
	if q.Page > 0 {
		params.Set(ParamPage, strconv.Itoa(q.Page))
	}
	return params
}

func cloneParams(params url.Values) url.Values {
	out := make(url.Values, len(params))
	for k, v := range params {
		out[k] = append([]string(nil), v...)
	}
	return out
}
