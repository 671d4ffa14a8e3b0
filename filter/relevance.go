package filter

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/shopit/ai"
	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/imagefetch"
)

// MaxBatchImages is the largest batch a single judge call receives.
const MaxBatchImages = ai.MaxImagesPerCall

// Group is one descriptor's candidates.
type Group struct {
	Descriptor core.ItemDescriptor
	Products   []core.Product
}

// Relevance filters candidates by showing their images to a vision judge.
// Relevance is safe for concurrent use.
type Relevance struct {
	judge     ai.Judge
	fetcher   imagefetch.Fetcher
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

// RelevanceOption configures a Relevance filter.
type RelevanceOption func(*Relevance) error

// WithPoolSize sets how many batch workers are kept for reuse.
// Batches beyond that run on their own goroutines, so every batch is
// judged at once. Default is ants.DefaultAntsPoolSize.
func WithPoolSize(size int) RelevanceOption {
	return func(r *Relevance) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size, ants.WithNonblocking(true))
		if err != nil {
			return err
		}
		if r.pool != nil {
			r.pool.Release()
		}
		r.pool = pool
		return nil
	}
}

// WithBatchSize sets the number of candidates per judge call, capped at MaxBatchImages.
func WithBatchSize(size int) RelevanceOption {
	return func(r *Relevance) error {
		r.batchSize = max(1, min(size, MaxBatchImages))
		return nil
	}
}

// WithRelevanceLogger sets a custom logger.
func WithRelevanceLogger(logger *slog.Logger) RelevanceOption {
	return func(r *Relevance) error {
		if logger != nil {
			r.logger = logger
		}
		return nil
	}
}

// NewRelevance creates a relevance filter. Call Release when done.
func NewRelevance(judge ai.Judge, fetcher imagefetch.Fetcher, opts ...RelevanceOption) (*Relevance, error) {
	if judge == nil {
		return nil, ErrJudgeRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}

	pool, err := ants.NewPool(ants.DefaultAntsPoolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	r := &Relevance{
		judge:     judge,
		fetcher:   fetcher,
		pool:      pool,
		batchSize: MaxBatchImages,
		logger:    slog.Default().With("component", "relevance"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			r.Release()
			return nil, err
		}
	}
	return r, nil
}

// Release stops the batch pool.
func (r *Relevance) Release() {
	r.pool.Release()
}

// FilterAll filters every group concurrently. The result has one entry per
// group, in the same order.
func (r *Relevance) FilterAll(ctx context.Context, groups []Group) [][]core.Product {
	results := make([][]core.Product, len(groups))
	var wg sync.WaitGroup
	for i, g := range groups {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.Filter(ctx, g.Descriptor, g.Products)
		}()
	}
	wg.Wait()
	return results
}

// Filter returns the candidates the judge approves for d, in their original order.
// Candidates without a usable image never pass.
func (r *Relevance) Filter(ctx context.Context, d core.ItemDescriptor, candidates []core.Product) []core.Product {
	if len(candidates) == 0 {
		return []core.Product{}
	}

	passed := make([]bool, len(candidates))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for start := 0; start < len(candidates); start += r.batchSize {
		end := min(start+r.batchSize, len(candidates))
		task := func() {
			defer wg.Done()
			passing := r.judgeBatch(ctx, d, candidates, start, end)
			mu.Lock()
			for _, idx := range passing {
				passed[idx] = true
			}
			mu.Unlock()
		}

		wg.Add(1)
		if err := r.pool.Submit(task); err != nil {
			r.logger.Debug("batch pool full, judging on a new goroutine", "err", err)
			go task()
		}
	}
	wg.Wait()

	kept := make([]core.Product, 0, len(candidates))
	for i, ok := range passed {
		if ok {
			kept = append(kept, candidates[i])
		}
	}
	r.logger.Debug("relevance filtered",
		"descriptor", d.Name, "candidates", len(candidates), "kept", len(kept))
	return kept
}

// judgeBatch judges candidates[start:end] and returns the global indexes that pass.
func (r *Relevance) judgeBatch(ctx context.Context, d core.ItemDescriptor, candidates []core.Product, start, end int) []int {
	images := make([]*core.EncodedImage, end-start)
	var wg sync.WaitGroup
	for i := start; i < end; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := r.fetcher.Materialize(ctx, candidates[i].ImageRef)
			if err != nil {
				r.logger.Debug("candidate image unavailable",
					"descriptor", d.Name, "title", candidates[i].Title, "err", err)
				return
			}
			images[i-start] = img
		}()
	}
	wg.Wait()

	// global[k] is the candidate index of the k-th image sent.
	global := make([]int, 0, len(images))
	sent := make([]core.EncodedImage, 0, len(images))
	titles := make([]string, 0, len(images))
	for i, img := range images {
		if img == nil {
			continue
		}
		global = append(global, start+i)
		sent = append(sent, *img)
		titles = append(titles, candidates[start+i].Title)
	}
	if len(sent) == 0 {
		return nil
	}

	reply, err := r.judge.Judge(ctx, relevancePrompt(d, titles), sent)
	if err != nil {
		r.logger.Warn("judge call failed, keeping batch",
			"descriptor", d.Name, "batchStart", start, "images", len(sent), "err", err)
		return global
	}
	verdict, err := ai.ParseVerdict(reply)
	if err != nil {
		r.logger.Warn("judge verdict unparsable, keeping batch",
			"descriptor", d.Name, "batchStart", start, "images", len(sent), "err", err)
		return global
	}

	passing := make([]int, 0, len(verdict.PassingIndexes))
	for _, local := range verdict.PassingIndexes {
		if local < 0 || local >= len(global) {
			continue
		}
		passing = append(passing, global[local])
	}
	return passing
}
