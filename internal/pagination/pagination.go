// Package pagination walks page-numbered APIs until a short page or a page cap.
package pagination

import (
	"context"
	"fmt"
)

// PageFunc fetches one page. Pages are numbered from 1.
type PageFunc[T any] func(ctx context.Context, page int) ([]T, error)

// VisitFunc receives each page as soon as it is fetched.
type VisitFunc[T any] func(page int, items []T) error

// Outcome summarises a walk.
type Outcome struct {
	// Pages is the number of pages fetched.
	Pages int
	// Truncated is true when the cap stopped the walk on a full page,
	// so the source may hold more records.
	Truncated bool
}

// Each fetches pages strictly in order and hands them to visit.
// It stops after the first page with fewer than perPage items, or once
// maxPages pages were fetched. A fetch or visit error stops the walk.
func Each[T any](ctx context.Context, perPage, maxPages int, fetch PageFunc[T], visit VisitFunc[T]) (Outcome, error) {
	if perPage <= 0 || maxPages <= 0 {
		return Outcome{}, fmt.Errorf("pagination: perPage and maxPages must be positive")
	}

	var out Outcome
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		items, err := fetch(ctx, page)
		if err != nil {
			return out, fmt.Errorf("page %d: %w", page, err)
		}
		out.Pages = page

		if visit != nil {
			if err := visit(page, items); err != nil {
				return out, err
			}
		}

		if len(items) < perPage {
			return out, nil
		}
	}

	out.Truncated = true
	return out, nil
}

// Collect fetches every page and concatenates the items.
func Collect[T any](ctx context.Context, perPage, maxPages int, fetch PageFunc[T]) ([]T, Outcome, error) {
	var all []T
	out, err := Each(ctx, perPage, maxPages, fetch, func(_ int, items []T) error {
		all = append(all, items...)
		return nil
	})
	return all, out, err
}
