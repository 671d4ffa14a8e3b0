package search

import (
	"context"
	"slices"
	"sync"

	"github.com/poiesic/shopit/catalog"
	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/fallback"
)

// mergeRank orders provenances in a descriptor's merged list.
var mergeRank = map[core.Provenance]int{
	core.ProvenanceEditorial: 0,
	core.ProvenanceCatalog:   1,
	core.ProvenanceVisual:    2,
}

// taskResult is the outcome of one (descriptor, adapter) search task.
type taskResult struct {
	products []core.Product
	failed   bool
	skipped  bool
}

// gathered is one descriptor's merged candidates before filtering.
type gathered struct {
	descriptor core.ItemDescriptor
	products   []core.Product
	degraded   bool
}

// orderAdapters returns adapters sorted by merge rank, keeping the given
// order among adapters of the same provenance.
func orderAdapters(adapters []catalog.Adapter) []catalog.Adapter {
	ordered := slices.Clone(adapters)
	slices.SortStableFunc(ordered, func(a, b catalog.Adapter) int {
		return mergeRank[a.Provenance()] - mergeRank[b.Provenance()]
	})
	return ordered
}

// gather fans every descriptor out to every applicable adapter at once and
// merges each descriptor's results once all of its tasks have resolved.
func (s *Searcher) gather(ctx context.Context, descriptors []core.ItemDescriptor, monitor SearchMonitor) []gathered {
	results := make([][]taskResult, len(descriptors))
	var wg sync.WaitGroup

	for di, d := range descriptors {
		results[di] = make([]taskResult, len(s.adapters))
		for pi, adapter := range s.adapters {
			if !adapter.Applicable(d) {
				results[di][pi] = taskResult{skipped: true}
				continue
			}

			task := func() {
				defer wg.Done()
				products, err := adapter.Search(ctx, d)
				monitor.ProviderFinished(d.Name, adapter.Provenance(), len(products), err)
				if err != nil {
					s.logger.Warn("provider failed",
						"descriptor", d.Name, "provider", adapter.Provenance().String(), "err", err)
					results[di][pi] = taskResult{failed: true}
					return
				}
				results[di][pi] = taskResult{products: products}
			}

			wg.Add(1)
			if err := s.pool.Submit(task); err != nil {
				s.logger.Debug("search pool full, running task on a new goroutine", "err", err)
				go task()
			}
		}
	}
	wg.Wait()

	out := make([]gathered, len(descriptors))
	for di, d := range descriptors {
		out[di] = s.merge(d, results[di], monitor)
	}
	return out
}

// merge concatenates task results in adapter order, which is merge-rank
// order. Only a descriptor whose every applicable adapter failed degrades;
// one with no applicable adapter gets an empty list.
func (s *Searcher) merge(d core.ItemDescriptor, results []taskResult, monitor SearchMonitor) gathered {
	attempted, failed := 0, 0
	var products []core.Product
	for _, r := range results {
		if r.skipped {
			continue
		}
		attempted++
		if r.failed {
			failed++
			continue
		}
		products = append(products, r.products...)
	}

	if attempted > 0 && failed == attempted {
		placeholders := fallback.Generate(queryPhrase(d), s.fallbackCount)
		s.logger.Warn("all providers failed, using placeholder products",
			"descriptor", d.Name, "providers", attempted, "placeholders", len(placeholders))
		monitor.Degraded(d.Name, len(placeholders))
		return gathered{descriptor: d, products: placeholders, degraded: true}
	}

	if products == nil {
		products = []core.Product{}
	}
	return gathered{descriptor: d, products: products}
}

func queryPhrase(d core.ItemDescriptor) string {
	if d.PrimaryQuery != "" {
		return d.PrimaryQuery
	}
	if d.EditorialQuery != "" {
		return d.EditorialQuery
	}
	return d.Name
}
