package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/shopit/catalog"
	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/fallback"
	"github.com/poiesic/shopit/filter"
)

// Display receives rendered views. A target may disappear at any time,
// for example when the user discards the conversation mid-search.
type Display interface {
	TargetExists(ctx context.Context, target string) (bool, error)
	Render(ctx context.Context, target string, view *core.SearchView) error
}

// RelevanceFilter narrows each group's candidates, returning one list per group in order.
type RelevanceFilter interface {
	FilterAll(ctx context.Context, groups []filter.Group) [][]core.Product
}

// BrandFilter keeps products made by a brand.
type BrandFilter interface {
	Filter(ctx context.Context, products []core.Product, brand, category string) ([]core.Product, error)
}

// Searcher discovers products for item descriptors.
// Searcher is safe for concurrent use.
type Searcher struct {
	adapters      []catalog.Adapter
	relevance     RelevanceFilter
	brand         BrandFilter
	display       Display
	pool          *ants.Pool
	fallbackCount int
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithPoolSize sets how many provider workers are kept for reuse.
// Tasks beyond that run on their own goroutines, so a hung provider call
// never delays its siblings. Default is ants.DefaultAntsPoolSize.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size, ants.WithNonblocking(true))
		if err != nil {
			return err
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

// WithFallbackCount sets how many placeholder products a degraded descriptor gets.
// Default is fallback.DefaultCount.
func WithFallbackCount(n int) Option {
	return func(s *Searcher) error {
		s.fallbackCount = max(n, 0)
		return nil
	}
}

// WithBrandFilter enables brand searches.
func WithBrandFilter(brand BrandFilter) Option {
	return func(s *Searcher) error {
		s.brand = brand
		return nil
	}
}

// NewSearcher creates a new searcher. Adapter order among adapters of the
// same provenance is kept when merging. Call Release when done.
func NewSearcher(
	adapters []catalog.Adapter,
	relevance RelevanceFilter,
	display Display,
	opts ...Option,
) (*Searcher, error) {
	if len(adapters) == 0 {
		return nil, ErrAdapterRequired
	}
	for _, a := range adapters {
		if a == nil {
			return nil, ErrAdapterRequired
		}
	}
	if relevance == nil {
		return nil, ErrRelevanceFilterRequired
	}
	if display == nil {
		return nil, ErrDisplayRequired
	}

	pool, err := ants.NewPool(ants.DefaultAntsPoolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		adapters:      orderAdapters(adapters),
		relevance:     relevance,
		display:       display,
		pool:          pool,
		fallbackCount: fallback.DefaultCount,
		logger:        slog.Default().With("component", "search"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}

	return s, nil
}

// Release stops the provider pool.
func (s *Searcher) Release() {
	s.pool.Release()
}

// Search finds relevant products for every descriptor and renders them to
// the session's display target.
func (s *Searcher) Search(ctx context.Context, session *core.Session, descriptors []core.ItemDescriptor) (*core.SearchView, error) {
	return s.SearchWithMonitor(ctx, session, descriptors, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
//
// Provider failures never fail the search: a descriptor whose providers all
// failed gets placeholder products instead, and those skip relevance
// filtering. The returned view is what was, or would have been, rendered.
func (s *Searcher) SearchWithMonitor(ctx context.Context, session *core.Session, descriptors []core.ItemDescriptor, monitor SearchMonitor) (*core.SearchView, error) {
	if err := validate(session, descriptors); err != nil {
		return nil, err
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(descriptors)

	found := s.gather(ctx, descriptors, monitor)

	// Only real results are judged; placeholders pass through.
	var groups []filter.Group
	var judged []int
	for i, g := range found {
		if g.degraded {
			continue
		}
		groups = append(groups, filter.Group{Descriptor: g.descriptor, Products: g.products})
		judged = append(judged, i)
	}
	if len(groups) > 0 {
		filtered := s.relevance.FilterAll(ctx, groups)
		for k, i := range judged {
			monitor.Filtered(found[i].descriptor.Name, len(found[i].products), len(filtered[k]))
			found[i].products = filtered[k]
		}
	}

	view := buildView(found)
	s.render(ctx, session, view, monitor)
	monitor.Finish(view)
	return view, nil
}

// SearchBrand finds products made by brand in category for every descriptor.
// An unclear brand returns core.ErrUnclearBrand before any provider is called.
func (s *Searcher) SearchBrand(ctx context.Context, session *core.Session, descriptors []core.ItemDescriptor, brand, category string) (*core.SearchView, error) {
	return s.SearchBrandWithMonitor(ctx, session, descriptors, brand, category, nil)
}

// SearchBrandWithMonitor is SearchBrand with callbacks at each stage.
// Real results are narrowed by the brand filter instead of the relevance filter.
func (s *Searcher) SearchBrandWithMonitor(ctx context.Context, session *core.Session, descriptors []core.ItemDescriptor, brand, category string, monitor SearchMonitor) (*core.SearchView, error) {
	if err := filter.CheckBrand(brand); err != nil {
		return nil, err
	}
	if s.brand == nil {
		return nil, ErrBrandFilterRequired
	}
	if err := validate(session, descriptors); err != nil {
		return nil, err
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(descriptors)

	found := s.gather(ctx, descriptors, monitor)

	errs := make([]error, len(found))
	var wg sync.WaitGroup
	for i := range found {
		if found[i].degraded {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			before := len(found[i].products)
			kept, err := s.brand.Filter(ctx, found[i].products, brand, category)
			if err != nil {
				errs[i] = err
				return
			}
			monitor.Filtered(found[i].descriptor.Name, before, len(kept))
			found[i].products = kept
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	view := buildView(found)
	s.render(ctx, session, view, monitor)
	monitor.Finish(view)
	return view, nil
}

// render writes the view unless the target was cleared while searching.
func (s *Searcher) render(ctx context.Context, session *core.Session, view *core.SearchView, monitor SearchMonitor) {
	target := session.DisplayTarget

	ok, err := s.display.TargetExists(ctx, target)
	if err != nil {
		s.logger.Warn("could not check display target", "target", target, "err", err)
		monitor.RenderSkipped(target, err.Error())
		return
	}
	if !ok {
		s.logger.Info("display target gone, not rendering", "target", target)
		monitor.RenderSkipped(target, "target no longer exists")
		return
	}

	if err := s.display.Render(ctx, target, view); err != nil {
		s.logger.Warn("render failed", "target", target, "err", err)
		monitor.RenderSkipped(target, err.Error())
		return
	}
	monitor.Rendered(target, view)
}

func validate(session *core.Session, descriptors []core.ItemDescriptor) error {
	if err := core.ValidateSession(session); err != nil {
		return err
	}
	if len(descriptors) == 0 {
		return ErrNoDescriptors
	}
	for i := range descriptors {
		if err := core.ValidateDescriptor(&descriptors[i]); err != nil {
			return fmt.Errorf("descriptor %d: %w", i, err)
		}
	}
	return nil
}

func buildView(found []gathered) *core.SearchView {
	categories := make([]core.CategoryResult, len(found))
	for i, g := range found {
		categories[i] = core.CategoryResult{
			Name:        g.descriptor.Name,
			Query:       queryPhrase(g.descriptor),
			Description: g.descriptor.Description,
			Products:    g.products,
			Degraded:    g.degraded,
		}
	}
	return core.NewSearchView(categories)
}
