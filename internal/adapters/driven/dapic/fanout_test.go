package dapic

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saron-retail/saron-core/internal/core/domain"
)

func TestFanOut_ParallelRunsConcurrently(t *testing.T) {
	var inFlight, peak int32
	release := make(chan struct{})
	stores := domain.AllStores()

	done := make(chan struct{})
	var data map[domain.StoreID]int
	var errs map[domain.StoreID]error
	go func() {
		data, errs = FanOut(context.Background(), stores, FanOutParallel, func(ctx context.Context, store domain.StoreID) (int, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&inFlight, -1)
			return len(store), nil
		})
		close(done)
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&inFlight) == 3 }, time.Second, time.Millisecond)
	close(release)
	<-done

	assert.Equal(t, int32(3), atomic.LoadInt32(&peak))
	assert.Len(t, data, 3)
	assert.Empty(t, errs)
}

func TestFanOut_ParallelIsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	data, errs := FanOut(context.Background(), domain.AllStores(), FanOutParallel, func(ctx context.Context, store domain.StoreID) (string, error) {
		if store == domain.StoreSaron2 {
			return "", boom
		}
		return string(store), nil
	})

	assert.Equal(t, map[domain.StoreID]string{domain.StoreSaron1: "saron1", domain.StoreSaron3: "saron3"}, data)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[domain.StoreSaron2], boom)
}

func TestFanOut_ReplicateFirstStopsAtFirstSuccess(t *testing.T) {
	var calls []domain.StoreID
	data, errs := FanOut(context.Background(), domain.AllStores(), FanOutReplicateFirst, func(ctx context.Context, store domain.StoreID) (string, error) {
		calls = append(calls, store)
		if store == domain.StoreSaron1 {
			return "", errors.New("down")
		}
		return "catalogue@" + string(store), nil
	})

	assert.Equal(t, []domain.StoreID{domain.StoreSaron1, domain.StoreSaron2}, calls)
	assert.Empty(t, errs)
	for _, store := range domain.AllStores() {
		assert.Equal(t, "catalogue@saron2", data[store])
	}
}

func TestFanOut_ReplicateFirstAllFail(t *testing.T) {
	data, errs := FanOut(context.Background(), domain.AllStores(), FanOutReplicateFirst, func(ctx context.Context, store domain.StoreID) (int, error) {
		return 0, errors.New("down " + string(store))
	})

	assert.Empty(t, data)
	assert.Len(t, errs, 3)
}

func TestFanOutAllStores_PartialFailure(t *testing.T) {
	erp := newFakeERP(t)
	erp.failLogin["emp1"] = true
	erp.records["emp2"] = 3
	erp.records["emp3"] = 4
	c, _ := newTestClient(erp, allCredentials())

	result := c.FanOutAllStores(context.Background(), ResourceSales.Endpoint, nil)

	assert.Len(t, result.Data[domain.StoreSaron2], 3)
	assert.Len(t, result.Data[domain.StoreSaron3], 4)
	_, hasSaron1 := result.Data[domain.StoreSaron1]
	assert.False(t, hasSaron1)

	require.Len(t, result.Errors, 1)
	var authErr *domain.AuthenticationError
	assert.True(t, errors.As(result.Errors[domain.StoreSaron1], &authErr))
	assert.Equal(t, 7, result.Total())
}

func TestFanOutAllStores_SkipsUnavailableStores(t *testing.T) {
	erp := newFakeERP(t)
	erp.records["emp1"] = 2
	creds := allCredentials()[:1]
	c, _ := newTestClient(erp, creds)

	result := c.FanOutAllStores(context.Background(), ResourcePayables.Endpoint, nil)
	assert.Len(t, result.Data, 1)
	assert.Empty(t, result.Errors)
}

func TestGetProducts_Replicated(t *testing.T) {
	erp := newFakeERP(t)
	erp.dataStatus["emp1"] = http.StatusServiceUnavailable
	erp.records["emp2"] = 5
	c, _ := newTestClient(erp, allCredentials())

	result := c.GetProducts(context.Background(), domain.ERPQuery{})

	assert.Empty(t, result.Errors)
	for _, store := range domain.AllStores() {
		require.Len(t, result.Data[store], 5, "store %s", store)
		assert.Equal(t, "emp2-0", result.Data[store][0]["Codigo"])
	}
	assert.Len(t, erp.requestsFor(ResourceProducts.Endpoint), 2, "one failed and one successful fetch")
	assert.Equal(t, 0, erp.loginCount("emp3"))
}

func TestGetClients_AllStoresFail(t *testing.T) {
	erp := newFakeERP(t)
	for _, e := range []string{"emp1", "emp2", "emp3"} {
		erp.failLogin[e] = true
	}
	c, _ := newTestClient(erp, allCredentials())

	result := c.GetClients(context.Background(), domain.ERPQuery{})
	assert.Empty(t, result.Data)
	assert.Len(t, result.Errors, 3)
	assert.Len(t, result.ErrorMessages(), 3)
}

func TestFanOutReplicated_NoStoresConfigured(t *testing.T) {
	erp := newFakeERP(t)
	c, _ := newTestClient(erp, nil)

	result := c.GetClients(context.Background(), domain.ERPQuery{})
	assert.Empty(t, result.Data)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[domain.StoreAll], domain.ErrNoStoresConfigured)
}

func TestGetSales_PassesWindow(t *testing.T) {
	erp := newFakeERP(t)
	c, _ := newTestClient(erp, allCredentials()[:1])
	window, err := domain.ParseDateWindow("2024-02-01", "2024-02-29")
	require.NoError(t, err)

	c.GetSales(context.Background(), domain.ERPQuery{Window: &window, Extra: map[string]string{"Status": "F"}})

	reqs := erp.requestsFor(ResourceSales.Endpoint)
	require.Len(t, reqs, 1)
	q := reqs[0].Query()
	assert.Equal(t, "2024-02-01", q.Get(ParamStartDate))
	assert.Equal(t, "2024-02-29", q.Get(ParamEndDate))
	assert.Equal(t, "F", q.Get("Status"))
	assert.Equal(t, "1", q.Get(ParamPage))
}
