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


package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/relay"
	"github.com/poiesic/shopit/retry"
)

// Endpoint locates one discovery service.
type Endpoint struct {
	URL string
	// SecretName names the API key the relay substitutes into the
	// Authorization header. Empty sends no Authorization header.
	SecretName string
}

// Option configures an adapter.
type Option func(*service)

// WithLocalization sets the locale context.
func WithLocalization(l Localization) Option {
	return func(s *service) {
		s.localization = l
	}
}

// WithUser sets the subscription context.
func WithUser(u User) Option {
	return func(s *service) {
		s.user = u
	}
}

// WithPolicy sets the retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(s *service) {
		s.policy = p
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// service holds what every adapter shares: where to send requests and how.
type service struct {
	client       *relay.Client
	endpoint     Endpoint
	localization Localization
	user         User
	policy       retry.Policy
	logger       *slog.Logger
}

func newService(provenance core.Provenance, client *relay.Client, endpoint Endpoint, opts []Option) (*service, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if endpoint.URL == "" {
		return nil, fmt.Errorf("%s: %w", provenance, ErrEndpointRequired)
	}
	s := &service{
		client:       client,
		endpoint:     endpoint,
		localization: DefaultLocalization,
		user:         User{Subscription: "free"},
		policy:       retry.DefaultPolicy(),
		logger:       slog.Default().With("component", "catalog", "provider", provenance.String()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// query posts the envelope for phrase and returns the decoded response.
func (s *service) query(ctx context.Context, phrase, image string) (map[string]any, error) {
	req := relay.Request{
		URL:    s.endpoint.URL,
		Method: http.MethodPost,
		Headers: map[string]string{
			"Accept": "application/json",
		},
		Body: envelope{
			Context:      phrase,
			Image:        image,
			Localization: s.localization,
			Meta:         meta{User: s.user},
		},
	}
	if s.endpoint.SecretName != "" {
		req.Headers["Authorization"] = "Bearer " + relay.Secret(s.endpoint.SecretName)
	}

	resp, err := retry.Execute(ctx, s.policy, func(ctx context.Context) (map[string]any, error) {
		return s.client.DoJSON(ctx, req)
	})
	if err != nil {
		s.logger.Warn("provider request failed", "phrase", phrase, "err", err)
		return nil, err
	}
	return resp, nil
}
