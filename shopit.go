// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package shopit wires product discovery together.
//
// A Store owns the local database, the relay client, the catalog adapters,
// the judges and the filters built from a config.Config, and hands out
// Searchers that share them.
package shopit

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/poiesic/shopit/ai"
	"github.com/poiesic/shopit/ai/openai"
	"github.com/poiesic/shopit/catalog"
	"github.com/poiesic/shopit/config"
	"github.com/poiesic/shopit/filter"
	"github.com/poiesic/shopit/imagefetch"
	"github.com/poiesic/shopit/relay"
	"github.com/poiesic/shopit/retry"
	"github.com/poiesic/shopit/search"
	"github.com/poiesic/shopit/storage"
	"github.com/poiesic/shopit/storage/badger"
)

type Store struct {
	cfg         config.Config
	backend     *badger.Backend
	imageCache  storage.ImageCache
	displayRepo storage.DisplayRepository
	provider    ai.AIProvider
	adapters    []catalog.Adapter
	relevance   *filter.Relevance
	brand       *filter.Brand
	logger      *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	provider   ai.AIProvider
	httpClient *http.Client
	logger     *slog.Logger
}

// WithProvider supplies the judges instead of building them from the config.
func WithProvider(provider ai.AIProvider) StoreOption {
	return func(o *storeOptions) {
		o.provider = provider
	}
}

// WithHTTPClient sets the client used for relay and provider calls.
func WithHTTPClient(hc *http.Client) StoreOption {
	return func(o *storeOptions) {
		o.httpClient = hc
	}
}

// WithLogger sets a custom logger for the store and the components it builds.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// Open builds a Store from cfg.
func Open(cfg config.Config, opts ...StoreOption) (*Store, error) {
	options := &storeOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.httpClient == nil {
		options.httpClient = &http.Client{Timeout: cfg.RelayTimeout()}
	}
	logger := options.logger

	// Open backend
	backend, err := badger.OpenBackend(cfg.Storage.Path, cfg.Storage.InMemory,
		badger.WithLogger(logger.With("component", "badger")))
	if err != nil {
		return nil, err
	}

	s := &Store{
		cfg:         cfg,
		backend:     backend,
		imageCache:  badger.NewImageCache(backend),
		displayRepo: badger.NewDisplayRepository(backend),
		provider:    options.provider,
		logger:      logger,
	}

	// Create AI provider with configured settings
	if s.provider == nil {
		s.provider, err = openai.NewProvider(cfg.AIConfig())
		if err != nil {
			s.Close()
			return nil, err
		}
	}

	client := relay.New(cfg.Relay.URL,
		relay.WithHTTPClient(options.httpClient),
		relay.WithLogger(logger.With("component", "relay")))
	policy := cfg.RetryPolicy()
	policy.Logger = logger.With("component", "retry")

	if err := s.buildAdapters(client, policy); err != nil {
		s.Close()
		return nil, err
	}

	materializer, err := imagefetch.New(client,
		imagefetch.WithPolicy(policy),
		imagefetch.WithCache(s.imageCache, cfg.ImageCacheTTL()),
		imagefetch.WithLogger(logger.With("component", "imagefetch")))
	if err != nil {
		s.Close()
		return nil, err
	}

	relevanceOpts := []filter.RelevanceOption{
		filter.WithBatchSize(cfg.Search.BatchSize),
		filter.WithRelevanceLogger(logger.With("component", "relevance")),
	}
	if cfg.Search.FilterPoolSize > 0 {
		relevanceOpts = append(relevanceOpts, filter.WithPoolSize(cfg.Search.FilterPoolSize))
	}
	s.relevance, err = filter.NewRelevance(s.provider.VisionJudge(), materializer, relevanceOpts...)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.brand, err = filter.NewBrand(s.provider.BrandJudge(),
		filter.WithBrandLogger(logger.With("component", "brand")))
	if err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) buildAdapters(client *relay.Client, policy retry.Policy) error {
	common := []catalog.Option{
		catalog.WithLocalization(s.cfg.Localization),
		catalog.WithUser(s.cfg.User),
		catalog.WithPolicy(policy),
	}
	withLogger := func(name string) []catalog.Option {
		return append(common[:len(common):len(common)],
			catalog.WithLogger(s.logger.With("component", "catalog", "provider", name)))
	}
	providers := s.cfg.Providers

	primary, err := catalog.NewPrimary(client, endpoint(providers.Catalog), withLogger("catalog")...)
	if err != nil {
		return err
	}
	editorial, err := catalog.NewEditorial(client, endpoint(providers.Editorial), withLogger("editorial")...)
	if err != nil {
		return err
	}
	s.adapters = []catalog.Adapter{primary, editorial}

	if providers.Visual.URL != "" {
		visual, err := catalog.NewVisual(client, endpoint(providers.Visual), withLogger("visual")...)
		if err != nil {
			return err
		}
		s.adapters = append(s.adapters, visual)
	}
	return nil
}

func endpoint(c config.EndpointConfig) catalog.Endpoint {
	return catalog.Endpoint{URL: c.URL, SecretName: c.Secret}
}

// Close releases the filters, the judges and the database.
func (s *Store) Close() error {
	var errs []error

	if s.relevance != nil {
		s.relevance.Release()
	}

	// Close AI provider first
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}

	// Close backend
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Config returns the configuration the store was opened with.
func (s *Store) Config() config.Config {
	return s.cfg
}

// DisplayRepository returns the display target repository.
func (s *Store) DisplayRepository() storage.DisplayRepository {
	return s.displayRepo
}

// ImageCache returns the image cache.
func (s *Store) ImageCache() storage.ImageCache {
	return s.imageCache
}

// NewSearcher creates a Searcher over the store's adapters, filters and display.
// Callers must Release the searcher; the store keeps owning everything else.
func (s *Store) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	defaults := []search.Option{
		search.WithFallbackCount(s.cfg.Search.FallbackCount),
		search.WithBrandFilter(s.brand),
		search.WithLogger(s.logger.With("component", "search")),
	}
	if s.cfg.Search.PoolSize > 0 {
		defaults = append(defaults, search.WithPoolSize(s.cfg.Search.PoolSize))
	}
	return search.NewSearcher(s.adapters, s.relevance, s.displayRepo, append(defaults, opts...)...)
}
