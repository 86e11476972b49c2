package dapic

import (
	"context"
	"sync"

	"github.com/saron-retail/saron-core/internal/core/domain"
)

// FanOutMode selects how a request is spread across stores.
type FanOutMode int

const (
	// FanOutParallel queries every store concurrently. Used for store-scoped data.
	FanOutParallel FanOutMode = iota
	// FanOutReplicateFirst tries stores in order and copies the first success
	// under every store. Used for data shared by all stores.
	FanOutReplicateFirst
)

func (m FanOutMode) String() string {
	if m == FanOutReplicateFirst {
		return "replicate_first"
	}
	return "parallel"
}

// StoreFunc fetches one store's share of a fan-out.
type StoreFunc[T any] func(ctx context.Context, store domain.StoreID) (T, error)

// FanOut runs fetch for the given stores. A store's failure is recorded in the
// error map and never stops the other stores.
//
// In replicate-first mode errors are only reported when every store failed.
func FanOut[T any](ctx context.Context, stores []domain.StoreID, mode FanOutMode, fetch StoreFunc[T]) (map[domain.StoreID]T, map[domain.StoreID]error) {
	data := make(map[domain.StoreID]T, len(stores))
	errs := make(map[domain.StoreID]error)

	if mode == FanOutReplicateFirst {
		for _, store := range stores {
			v, err := fetch(ctx, store)
			if err != nil {
				errs[store] = err
				continue
			}
			for _, s := range stores {
				data[s] = v
			}
			return data, make(map[domain.StoreID]error)
		}
		return data, errs
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, store := range stores {
		wg.Add(1)
		go func(store domain.StoreID) {
			defer wg.Done()
			v, err := fetch(ctx, store)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[store] = err
				return
			}
			data[store] = v
		}(store)
	}
	wg.Wait()

	return data, errs
}
