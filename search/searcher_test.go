package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/shopit/ai/mock"
	"github.com/poiesic/shopit/catalog"
	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/fallback"
	"github.com/poiesic/shopit/filter"
	"github.com/poiesic/shopit/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnavailable = fmt.Errorf("%w after 4 attempts: %w", retry.ErrRetriesExhausted, retry.ErrServer)

type fakeAdapter struct {
	provenance core.Provenance
	delay      time.Duration
	search     func(d core.ItemDescriptor) ([]core.Product, error)
	applicable func(d core.ItemDescriptor) bool
	calls      atomic.Int32
}

func (a *fakeAdapter) Provenance() core.Provenance { return a.provenance }

func (a *fakeAdapter) Applicable(d core.ItemDescriptor) bool {
	if a.applicable == nil {
		return true
	}
	return a.applicable(d)
}

func (a *fakeAdapter) Search(ctx context.Context, d core.ItemDescriptor) ([]core.Product, error) {
	a.calls.Add(1)
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	return a.search(d)
}

func returning(provenance core.Provenance, n int) func(core.ItemDescriptor) ([]core.Product, error) {
	return func(d core.ItemDescriptor) ([]core.Product, error) {
		out := make([]core.Product, n)
		for i := range out {
			out[i] = core.Product{
				ID:         core.ProductID(d.Name, provenance, i),
				Title:      fmt.Sprintf("%s %s %d", d.Name, provenance, i),
				ImageRef:   fmt.Sprintf("img/%s/%s/%d", d.Name, provenance, i),
				Price:      core.PriceOf(int64(1000 * (i + 1))),
				Provenance: provenance,
			}
		}
		return out, nil
	}
}

func asAdapters(fakes []*fakeAdapter) []catalog.Adapter {
	out := make([]catalog.Adapter, len(fakes))
	for i, f := range fakes {
		out[i] = f
	}
	return out
}

func failing(core.ItemDescriptor) ([]core.Product, error) {
	return nil, errUnavailable
}

// fakeFetcher serves an image for every reference.
type fakeFetcher struct{}

func (fakeFetcher) Materialize(ctx context.Context, ref string) (*core.EncodedImage, error) {
	if ref == "" {
		return nil, errors.New("no image")
	}
	return &core.EncodedImage{MimeType: "image/png", Data: []byte(ref)}, nil
}

// fakeDisplay is an in-memory Display.
type fakeDisplay struct {
	mu       sync.Mutex
	targets  map[string]bool
	rendered map[string]*core.SearchView
}

func newFakeDisplay(targets ...string) *fakeDisplay {
	d := &fakeDisplay{targets: map[string]bool{}, rendered: map[string]*core.SearchView{}}
	for _, t := range targets {
		d.targets[t] = true
	}
	return d
}

func (d *fakeDisplay) TargetExists(ctx context.Context, target string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.targets[target], nil
}

func (d *fakeDisplay) Render(ctx context.Context, target string, view *core.SearchView) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rendered[target] = view
	return nil
}

func (d *fakeDisplay) clear(target string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.targets, target)
}

func (d *fakeDisplay) view(target string) *core.SearchView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rendered[target]
}

// recordingMonitor counts monitor callbacks.
type recordingMonitor struct {
	noopMonitor
	mu        sync.Mutex
	providers int
	degraded  []string
	skipped   []string
	rendered  int
}

func (m *recordingMonitor) ProviderFinished(string, core.Provenance, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers++
}

func (m *recordingMonitor) Degraded(descriptor string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degraded = append(m.degraded, descriptor)
}

func (m *recordingMonitor) RenderSkipped(_ string, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped = append(m.skipped, reason)
}

func (m *recordingMonitor) Rendered(string, *core.SearchView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rendered++
}

var (
	graySofa = core.ItemDescriptor{
		Name:           "gray sofa",
		PrimaryQuery:   "gray fabric sectional sofa",
		EditorialQuery: "best gray sectional sofa",
	}
	floorLamp = core.ItemDescriptor{
		Name:           "floor lamp",
		PrimaryQuery:   "brass floor lamp",
		EditorialQuery: "best floor lamps",
	}
	session = &core.Session{ID: "s1", DisplayTarget: "conv-1"}
)

type harness struct {
	searcher *Searcher
	judge    *mock.MockJudge
	display  *fakeDisplay
}

func newHarness(t *testing.T, adapters []*fakeAdapter, opts ...Option) *harness {
	t.Helper()
	judge := mock.NewMockJudge()
	relevance, err := filter.NewRelevance(judge, fakeFetcher{})
	require.NoError(t, err)
	t.Cleanup(relevance.Release)

	display := newFakeDisplay(session.DisplayTarget)
	s, err := NewSearcher(asAdapters(adapters), relevance, display, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Release)
	return &harness{searcher: s, judge: judge, display: display}
}

func provenances(products []core.Product) []core.Provenance {
	out := make([]core.Provenance, len(products))
	for i, p := range products {
		out[i] = p.Provenance
	}
	return out
}

func TestNewSearcher_Validation(t *testing.T) {
	relevance, err := filter.NewRelevance(mock.NewMockJudge(), fakeFetcher{})
	require.NoError(t, err)
	defer relevance.Release()
	catalogAdapter := &fakeAdapter{provenance: core.ProvenanceCatalog, search: failing}

	_, err = NewSearcher(nil, relevance, newFakeDisplay())
	assert.ErrorIs(t, err, ErrAdapterRequired)

	_, err = NewSearcher(asAdapters([]*fakeAdapter{catalogAdapter}), nil, newFakeDisplay())
	assert.ErrorIs(t, err, ErrRelevanceFilterRequired)

	_, err = NewSearcher(asAdapters([]*fakeAdapter{catalogAdapter}), relevance, nil)
	assert.ErrorIs(t, err, ErrDisplayRequired)
}

func TestSearch_EndToEndGraySofa(t *testing.T) {
	catalogAdapter := &fakeAdapter{provenance: core.ProvenanceCatalog, search: returning(core.ProvenanceCatalog, 4)}
	editorialAdapter := &fakeAdapter{provenance: core.ProvenanceEditorial, search: returning(core.ProvenanceEditorial, 2)}
	visualAdapter := &fakeAdapter{provenance: core.ProvenanceVisual, search: returning(core.ProvenanceVisual, 3)}
	h := newHarness(t, []*fakeAdapter{catalogAdapter, editorialAdapter, visualAdapter})

	view, err := h.searcher.Search(context.Background(), session, []core.ItemDescriptor{graySofa})
	require.NoError(t, err)

	require.Len(t, view.Categories, 1)
	category := view.Categories[0]
	assert.Equal(t, "gray sofa", category.Name)
	assert.Equal(t, "gray fabric sectional sofa", category.Query)
	assert.False(t, category.Degraded)
	require.Len(t, category.Products, 6)
	assert.Equal(t, core.ProvenanceEditorial, category.Products[0].Provenance)
	assert.Equal(t, core.ProvenanceEditorial, category.Products[1].Provenance)
	for _, p := range category.Products[2:] {
		assert.Equal(t, core.ProvenanceCatalog, p.Provenance)
	}
	assert.Equal(t, 6, view.TotalProducts)

	assert.Equal(t, int32(0), visualAdapter.calls.Load(), "no reference image means no visual search")
	assert.Equal(t, 1, h.judge.CallCount())
	assert.Equal(t, view, h.display.view(session.DisplayTarget))
}

func TestSearch_MergeOrderIndependentOfArrival(t *testing.T) {
	withVisual := graySofa
	withVisual.VisualQuery = "sofa like this"
	withVisual.ReferenceImageRef = "https://ref/sofa.jpg"

	adapters := []*fakeAdapter{
		{provenance: core.ProvenanceVisual, search: returning(core.ProvenanceVisual, 1)},
		{provenance: core.ProvenanceCatalog, delay: 20 * time.Millisecond, search: returning(core.ProvenanceCatalog, 3)},
		{provenance: core.ProvenanceEditorial, delay: 60 * time.Millisecond, search: returning(core.ProvenanceEditorial, 2)},
	}
	h := newHarness(t, adapters)

	view, err := h.searcher.Search(context.Background(), session, []core.ItemDescriptor{withVisual})
	require.NoError(t, err)

	want := []core.Provenance{
		core.ProvenanceEditorial, core.ProvenanceEditorial,
		core.ProvenanceCatalog, core.ProvenanceCatalog, core.ProvenanceCatalog,
		core.ProvenanceVisual,
	}
	assert.Equal(t, want, provenances(view.Categories[0].Products))
	assert.Equal(t, "gray sofa editorial 0", view.Categories[0].Products[0].Title)
	assert.Equal(t, "gray sofa catalog 0", view.Categories[0].Products[2].Title)
}

func TestSearch_DegradesOnlyWhenEveryProviderFails(t *testing.T) {
	catalogAdapter := &fakeAdapter{provenance: core.ProvenanceCatalog, search: failing}
	editorialAdapter := &fakeAdapter{provenance: core.ProvenanceEditorial, search: failing}
	h := newHarness(t, []*fakeAdapter{catalogAdapter, editorialAdapter})
	monitor := &recordingMonitor{}

	view, err := h.searcher.SearchWithMonitor(context.Background(), session, []core.ItemDescriptor{graySofa}, monitor)
	require.NoError(t, err)

	category := view.Categories[0]
	assert.True(t, category.Degraded)
	require.Len(t, category.Products, fallback.DefaultCount)
	for _, p := range category.Products {
		assert.True(t, p.Synthetic)
		assert.Equal(t, fallback.Merchant, p.Merchant)
	}
	assert.Equal(t, fallback.Generate("gray fabric sectional sofa", fallback.DefaultCount), category.Products)
	assert.Equal(t, 0, h.judge.CallCount(), "placeholders are not judged")
	assert.Equal(t, []string{"gray sofa"}, monitor.degraded)
	assert.Equal(t, 2, monitor.providers)
}

func TestSearch_OneSuccessfulProviderPreventsDegradation(t *testing.T) {
	t.Run("with results", func(t *testing.T) {
		h := newHarness(t, []*fakeAdapter{
			{provenance: core.ProvenanceCatalog, search: failing},
			{provenance: core.ProvenanceEditorial, search: returning(core.ProvenanceEditorial, 1)},
		})

		view, err := h.searcher.Search(context.Background(), session, []core.ItemDescriptor{graySofa})
		require.NoError(t, err)
		assert.False(t, view.Categories[0].Degraded)
		assert.Len(t, view.Categories[0].Products, 1)
	})

	t.Run("with zero results", func(t *testing.T) {
		h := newHarness(t, []*fakeAdapter{
			{provenance: core.ProvenanceCatalog, search: failing},
			{provenance: core.ProvenanceEditorial, search: returning(core.ProvenanceEditorial, 0)},
		})

		view, err := h.searcher.Search(context.Background(), session, []core.ItemDescriptor{graySofa})
		require.NoError(t, err)
		assert.False(t, view.Categories[0].Degraded)
		assert.Empty(t, view.Categories[0].Products)
	})
}

func TestSearch_SkippedVisualIsNotASuccess(t *testing.T) {
	h := newHarness(t, []*fakeAdapter{
		{provenance: core.ProvenanceCatalog, search: failing},
		{provenance: core.ProvenanceEditorial, search: failing},
		{provenance: core.ProvenanceVisual, search: returning(core.ProvenanceVisual, 2),
			applicable: func(d core.ItemDescriptor) bool { return d.HasVisualSearch() }},
	})

	view, err := h.searcher.Search(context.Background(), session, []core.ItemDescriptor{graySofa})
	require.NoError(t, err)
	assert.True(t, view.Categories[0].Degraded)
}

func TestSearch_FailureIsolatedPerDescriptor(t *testing.T) {
	flaky := func(d core.ItemDescriptor) ([]core.Product, error) {
		if d.Name == "floor lamp" {
			return nil, errUnavailable
		}
		return returning(core.ProvenanceCatalog, 2)(d)
	}
	h := newHarness(t, []*fakeAdapter{
		{provenance: core.ProvenanceCatalog, search: flaky},
		{provenance: core.ProvenanceEditorial, search: flaky},
	})

	view, err := h.searcher.Search(context.Background(), session, []core.ItemDescriptor{graySofa, floorLamp})
	require.NoError(t, err)

	require.Len(t, view.Categories, 2)
	assert.False(t, view.Categories[0].Degraded)
	assert.Len(t, view.Categories[0].Products, 4)
	assert.True(t, view.Categories[1].Degraded)
	assert.Equal(t, "floor lamp", view.Categories[1].Name)
}

func TestSearch_DescriptorsFanOutTogether(t *testing.T) {
	const delay = 100 * time.Millisecond
	adapters := []*fakeAdapter{
		{provenance: core.ProvenanceCatalog, delay: delay, search: returning(core.ProvenanceCatalog, 1)},
		{provenance: core.ProvenanceEditorial, delay: delay, search: returning(core.ProvenanceEditorial, 1)},
	}
	h := newHarness(t, adapters)

	descriptors := []core.ItemDescriptor{graySofa, floorLamp, {Name: "rug", PrimaryQuery: "wool rug"}}
	start := time.Now()
	_, err := h.searcher.Search(context.Background(), session, descriptors)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*delay+delay/2, "six provider calls should overlap")
	assert.Equal(t, int32(3), adapters[0].calls.Load())
	assert.Equal(t, int32(3), adapters[1].calls.Load())
}

func TestSearch_SmallPoolDoesNotQueueTasks(t *testing.T) {
	const delay = 200 * time.Millisecond
	adapters := []*fakeAdapter{
		{provenance: core.ProvenanceCatalog, delay: delay, search: returning(core.ProvenanceCatalog, 1)},
		{provenance: core.ProvenanceEditorial, delay: delay, search: returning(core.ProvenanceEditorial, 1)},
	}
	h := newHarness(t, adapters, WithPoolSize(1))

	descriptors := make([]core.ItemDescriptor, 6)
	for i := range descriptors {
		descriptors[i] = core.ItemDescriptor{Name: fmt.Sprintf("item %d", i), PrimaryQuery: fmt.Sprintf("query %d", i)}
	}
	start := time.Now()
	view, err := h.searcher.Search(context.Background(), session, descriptors)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*delay, "twelve provider calls should overlap")
	assert.Equal(t, 12, view.TotalProducts)
}

func TestSearch_NoApplicableAdapterIsNotDegraded(t *testing.T) {
	visual := &fakeAdapter{provenance: core.ProvenanceVisual, search: returning(core.ProvenanceVisual, 2),
		applicable: func(d core.ItemDescriptor) bool { return d.HasVisualSearch() }}
	h := newHarness(t, []*fakeAdapter{visual})
	monitor := &recordingMonitor{}

	view, err := h.searcher.SearchWithMonitor(context.Background(), session, []core.ItemDescriptor{graySofa}, monitor)
	require.NoError(t, err)

	require.Len(t, view.Categories, 1)
	assert.False(t, view.Categories[0].Degraded)
	assert.Empty(t, view.Categories[0].Products)
	assert.Empty(t, monitor.degraded)
	assert.Equal(t, int32(0), visual.calls.Load())
	assert.Equal(t, 0, h.judge.CallCount())
}

func TestSearch_RelevanceFilterApplied(t *testing.T) {
	h := newHarness(t, []*fakeAdapter{
		{provenance: core.ProvenanceCatalog, search: returning(core.ProvenanceCatalog, 4)},
		{provenance: core.ProvenanceEditorial, search: returning(core.ProvenanceEditorial, 2)},
	})
	// Merged order is editorial 0, editorial 1, catalog 0..3.
	h.judge.WithReply(mock.VerdictReply(1, 3))

	view, err := h.searcher.Search(context.Background(), session, []core.ItemDescriptor{graySofa})
	require.NoError(t, err)

	products := view.Categories[0].Products
	require.Len(t, products, 2)
	assert.Equal(t, "gray sofa editorial 1", products[0].Title)
	assert.Equal(t, "gray sofa catalog 1", products[1].Title)
	assert.Equal(t, 2, view.TotalProducts)
}

func TestSearch_ClearedTargetIsNotRendered(t *testing.T) {
	var h *harness
	clearing := func(d core.ItemDescriptor) ([]core.Product, error) {
		h.display.clear(session.DisplayTarget)
		return returning(core.ProvenanceCatalog, 1)(d)
	}
	h = newHarness(t, []*fakeAdapter{
		{provenance: core.ProvenanceCatalog, search: clearing},
		{provenance: core.ProvenanceEditorial, search: returning(core.ProvenanceEditorial, 1)},
	})
	monitor := &recordingMonitor{}

	view, err := h.searcher.SearchWithMonitor(context.Background(), session, []core.ItemDescriptor{graySofa}, monitor)
	require.NoError(t, err)

	assert.Len(t, view.Categories[0].Products, 2, "view is still computed")
	assert.Nil(t, h.display.view(session.DisplayTarget))
	assert.Len(t, monitor.skipped, 1)
	assert.Equal(t, 0, monitor.rendered)
}

func TestSearch_Validation(t *testing.T) {
	h := newHarness(t, []*fakeAdapter{{provenance: core.ProvenanceCatalog, search: failing}})
	ctx := context.Background()

	_, err := h.searcher.Search(ctx, nil, []core.ItemDescriptor{graySofa})
	assert.ErrorIs(t, err, core.ErrInvalidSession)

	_, err = h.searcher.Search(ctx, session, nil)
	assert.ErrorIs(t, err, ErrNoDescriptors)

	_, err = h.searcher.Search(ctx, session, []core.ItemDescriptor{graySofa, {Name: "nothing"}})
	assert.ErrorIs(t, err, core.ErrNoSearchPhrase)
}

func TestSearchBrand_UnclearBrandBeforeAnyProviderCall(t *testing.T) {
	catalogAdapter := &fakeAdapter{provenance: core.ProvenanceCatalog, search: returning(core.ProvenanceCatalog, 3)}
	editorialAdapter := &fakeAdapter{provenance: core.ProvenanceEditorial, search: returning(core.ProvenanceEditorial, 3)}
	brandJudge := mock.NewMockJudge()
	brand, err := filter.NewBrand(brandJudge)
	require.NoError(t, err)
	h := newHarness(t, []*fakeAdapter{catalogAdapter, editorialAdapter}, WithBrandFilter(brand))

	_, err = h.searcher.SearchBrand(context.Background(), session, []core.ItemDescriptor{graySofa}, "unknown", "sofas")
	assert.ErrorIs(t, err, core.ErrUnclearBrand)

	assert.Equal(t, int32(0), catalogAdapter.calls.Load())
	assert.Equal(t, int32(0), editorialAdapter.calls.Load())
	assert.Equal(t, 0, brandJudge.CallCount())
	assert.Nil(t, h.display.view(session.DisplayTarget))
}

func TestSearchBrand_FiltersByBrand(t *testing.T) {
	brandJudge := mock.NewMockJudge().WithReply(mock.VerdictReply(0, 2))
	brand, err := filter.NewBrand(brandJudge)
	require.NoError(t, err)
	h := newHarness(t, []*fakeAdapter{
		{provenance: core.ProvenanceCatalog, search: returning(core.ProvenanceCatalog, 2)},
		{provenance: core.ProvenanceEditorial, search: returning(core.ProvenanceEditorial, 1)},
	}, WithBrandFilter(brand))

	view, err := h.searcher.SearchBrand(context.Background(), session, []core.ItemDescriptor{graySofa}, "Harmony", "sofas")
	require.NoError(t, err)

	products := view.Categories[0].Products
	require.Len(t, products, 2)
	assert.Equal(t, "gray sofa editorial 0", products[0].Title)
	assert.Equal(t, "gray sofa catalog 1", products[1].Title)
	assert.Equal(t, 1, brandJudge.CallCount())
	assert.Equal(t, 0, h.judge.CallCount(), "brand mode does not run the vision judge")
	assert.NotNil(t, h.display.view(session.DisplayTarget))
}

func TestSearchBrand_RequiresBrandFilter(t *testing.T) {
	h := newHarness(t, []*fakeAdapter{{provenance: core.ProvenanceCatalog, search: failing}})

	_, err := h.searcher.SearchBrand(context.Background(), session, []core.ItemDescriptor{graySofa}, "Sony", "")
	assert.ErrorIs(t, err, ErrBrandFilterRequired)
}

func TestWithFallbackCount(t *testing.T) {
	h := newHarness(t, []*fakeAdapter{{provenance: core.ProvenanceCatalog, search: failing}}, WithFallbackCount(2))

	view, err := h.searcher.Search(context.Background(), session, []core.ItemDescriptor{graySofa})
	require.NoError(t, err)
	assert.Len(t, view.Categories[0].Products, 2)
}
