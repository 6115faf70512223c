package access

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// FanOutList drains List against every path in paths concurrently,
// bounded to at most maxConcurrency in-flight listings, and returns each
// path's fully collected entries. It is the bounded fan-out helper
// SPEC_FULL.md §2's ambient-stack table promotes github.com/sourcegraph/conc
// to direct use for: a caller that needs to prefetch several sibling
// directories (or the same prefix across several registered backends)
// without either serializing every List call or spawning one unbounded
// goroutine per path.
//
// The first listing to fail cancels every still-running listing and
// FanOutList returns that error; partial results are discarded, matching
// CollectAll's own all-or-nothing draining of a single Pager.
func FanOutList(ctx context.Context, acc Accessor, paths []string, maxConcurrency int) (map[string][]ObjectEntry, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	p := pool.NewWithResults[pathEntries]().
		WithContext(ctx).
		WithMaxGoroutines(maxConcurrency).
		WithCancelOnError()

	for _, path := range paths {
		path := path
		p.Go(func(ctx context.Context) (pathEntries, error) {
			_, pager, err := acc.List(ctx, path, OpList{})
			if err != nil {
				return pathEntries{}, err
			}
			defer pager.Close()

			entries, err := CollectAll(ctx, pager)
			if err != nil {
				return pathEntries{}, err
			}
			return pathEntries{path: path, entries: entries}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]ObjectEntry, len(results))
	for _, r := range results {
		out[r.path] = r.entries
	}
	return out, nil
}

type pathEntries struct {
	path    string
	entries []ObjectEntry
}
