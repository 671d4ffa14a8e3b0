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


// Package imagefetch turns image references into embeddable images.
//
// A reference is either an http(s) URL, fetched through the relay with the
// retry policy, or an existing base64 data URL, decoded in place. Only
// content that is recognizably an image is accepted.
package imagefetch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/relay"
	"github.com/poiesic/shopit/retry"
	"github.com/poiesic/shopit/storage"
)

// DefaultCacheTTL is how long materialized images stay cached.
const DefaultCacheTTL = 24 * time.Hour

var (
	// ErrEmptyRef is returned for an empty image reference.
	ErrEmptyRef = errors.New("image reference is empty")

	// ErrNotImage is returned when the fetched content is not an image.
	ErrNotImage = errors.New("content is not an image")

	// ErrClientRequired is returned when no relay client is supplied.
	ErrClientRequired = errors.New("relay client is required")
)

// Fetcher materializes image references.
type Fetcher interface {
	Materialize(ctx context.Context, ref string) (*core.EncodedImage, error)
}

// Materializer fetches images through a relay client.
// Materializer is safe for concurrent use.
type Materializer struct {
	client   *relay.Client
	policy   retry.Policy
	cache    storage.ImageCache
	cacheTTL time.Duration
	logger   *slog.Logger
}

var _ Fetcher = (*Materializer)(nil)

// Option configures a Materializer.
type Option func(*Materializer)

// WithPolicy sets the retry policy for image fetches.
func WithPolicy(p retry.Policy) Option {
	return func(m *Materializer) {
		m.policy = p
	}
}

// WithCache enables caching of materialized images.
func WithCache(cache storage.ImageCache, ttl time.Duration) Option {
	return func(m *Materializer) {
		m.cache = cache
		if ttl > 0 {
			m.cacheTTL = ttl
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Materializer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Materializer.
func New(client *relay.Client, opts ...Option) (*Materializer, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	m := &Materializer{
		client:   client,
		policy:   retry.DefaultPolicy(),
		cacheTTL: DefaultCacheTTL,
		logger:   slog.Default().With("component", "imagefetch"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Materialize returns the image behind ref.
func (m *Materializer) Materialize(ctx context.Context, ref string) (*core.EncodedImage, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrEmptyRef
	}
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURL(ref)
	}

	if m.cache != nil {
		img, err := m.cache.GetImage(ctx, ref)
		if err == nil {
			return img, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Warn("image cache read failed", "ref", ref, "err", err)
		}
	}

	resp, err := retry.Execute(ctx, m.policy, func(ctx context.Context) (*relay.Response, error) {
		return m.client.Do(ctx, relay.Request{URL: ref, Method: http.MethodGet})
	})
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}

	mimeType, err := sniff(resp.ContentType, resp.Body)
	if err != nil {
		return nil, err
	}
	img := &core.EncodedImage{MimeType: mimeType, Data: resp.Body}

	if m.cache != nil {
		if err := m.cache.PutImage(ctx, ref, img, m.cacheTTL); err != nil {
			m.logger.Warn("image cache write failed", "ref", ref, "err", err)
		}
	}
	return img, nil
}

// sniff checks the body is an image and decides its MIME type. A declared
// image type is kept only when content detection does not recognize the body
// as something else.
func sniff(contentType string, body []byte) (string, error) {
	if len(body) == 0 {
		return "", ErrNotImage
	}
	detected := http.DetectContentType(body)
	if strings.HasPrefix(detected, "image/") {
		return detected, nil
	}
	declared, _, err := mime.ParseMediaType(contentType)
	if err == nil && strings.HasPrefix(declared, "image/") && detected == "application/octet-stream" {
		return declared, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotImage, detected)
}

// decodeDataURL parses a base64 data URL.
func decodeDataURL(ref string) (*core.EncodedImage, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: unsupported data URL", ErrNotImage)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotImage, err)
	}
	mimeType, err := sniff(strings.TrimSuffix(header, ";base64"), data)
	if err != nil {
		return nil, err
	}
	return &core.EncodedImage{MimeType: mimeType, Data: data}, nil
}
