// Package collect pages through offset-based listing endpoints and hands the
// caller one fully materialized slice. Adapters pick the batch size; callers
// never see a partial page.
package collect

import (
	"context"
	"fmt"
)

// Page is one batch of results plus the total the service reports for the
// whole collection. Total may be zero when the service does not report one.
type Page[T any] struct {
	Items []T
	Total int
}

// Fetch retrieves one batch of up to count items starting at offset.
type Fetch[T any] func(ctx context.Context, offset, count int) (Page[T], error)

type Options struct {
	// PerRequest items are requested per batch.
	PerRequest int
	// Max bounds the overall result when positive.
	Max int
}

// All accumulates batches until the collection is exhausted: a short or
// empty batch, the service-reported total, or the Max bound ends the loop.
func All[T any](ctx context.Context, fetch Fetch[T], opts Options) ([]T, error) {
	if opts.PerRequest <= 0 {
		return nil, fmt.Errorf("collect: invalid batch size %d", opts.PerRequest)
	}

	var acc []T
	for offset := 0; ; offset = len(acc) {
		count := opts.PerRequest
		if opts.Max > 0 && opts.Max-offset < count {
			count = opts.Max - offset
		}

		page, err := fetch(ctx, offset, count)
		if err != nil {
			return nil, err
		}
		acc = append(acc, page.Items...)

		if len(page.Items) < count {
			break
		}
		if opts.Max > 0 && len(acc) >= opts.Max {
			break
		}
		if page.Total > 0 && len(acc) >= page.Total {
			break
		}
	}

	return acc, nil
}
