package pagination

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// source serves pages of the given sizes and counts calls.
type source struct {
	sizes []int
	calls int
}

func (s *source) fetch(_ context.Context, page int) ([]int, error) {
	s.calls++
	if page > len(s.sizes) {
		return nil, nil
	}
	items := make([]int, s.sizes[page-1])
	for i := range items {
		items[i] = page*1000 + i
	}
	return items, nil
}

func TestCollect_StopsOnShortPage(t *testing.T) {
	src := &source{sizes: []int{200, 200, 47}}

	items, out, err := Collect(context.Background(), 200, 100, src.fetch)
	require.NoError(t, err)

	assert.Len(t, items, 447)
	assert.Equal(t, 3, out.Pages)
	assert.False(t, out.Truncated)
	assert.Equal(t, 3, src.calls)
}

func TestCollect_EmptyFirstPage(t *testing.T) {
	src := &source{}

	items, out, err := Collect(context.Background(), 50, 10, src.fetch)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, out.Pages)
	assert.Equal(t, 1, src.calls)
}

func TestCollect_StopsAtMaxPages(t *testing.T) {
	sizes := make([]int, 20)
	for i := range sizes {
		sizes[i] = 10
	}
	src := &source{sizes: sizes}

	items, out, err := Collect(context.Background(), 10, 5, src.fetch)
	require.NoError(t, err)

	assert.Len(t, items, 50)
	assert.Equal(t, 5, src.calls, "must not fetch past the cap")
	assert.Equal(t, 5, out.Pages)
	assert.True(t, out.Truncated)
}

func TestEach_ExactMultipleNeedsTrailingPage(t *testing.T) {
	src := &source{sizes: []int{10, 10}}

	_, out, err := Collect(context.Background(), 10, 5, src.fetch)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Pages)
	assert.False(t, out.Truncated)
}

func TestEach_FetchErrorStops(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	fetch := func(_ context.Context, page int) ([]int, error) {
		calls++
		if page == 2 {
			return nil, boom
		}
		return make([]int, 10), nil
	}

	out, err := Each(context.Background(), 10, 5, fetch, nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, out.Pages)
}

func TestEach_VisitErrorStops(t *testing.T) {
	src := &source{sizes: []int{10, 10, 10}}
	stop := errors.New("stop")

	_, err := Each(context.Background(), 10, 5, src.fetch, func(page int, _ []int) error {
		if page == 2 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 2, src.calls)
}

func TestEach_VisitsInOrder(t *testing.T) {
	src := &source{sizes: []int{3, 3, 1}}
	var seen []int

	_, err := Each(context.Background(), 3, 10, src.fetch, func(page int, _ []int) error {
		seen = append(seen, page)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestEach_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &source{sizes: []int{10}}

	_, err := Each(ctx, 10, 5, src.fetch, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, src.calls)
}

func TestEach_InvalidBounds(t *testing.T) {
	src := &source{}
	_, err := Each(context.Background(), 0, 5, src.fetch, nil)
	assert.Error(t, err)
}
