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


// Package catalog wraps the external product discovery services.
//
// Three adapters share one request shape: a search phrase plus a fixed
// localization and subscription context, posted through the relay inside
// the retry policy. Each adapter knows which response fields carry its
// products and tags every normalized Product with its provenance.
package catalog

import (
	"context"

	"github.com/poiesic/shopit/core"
)

// Adapter is one product discovery service.
// Implementations must be safe for concurrent use.
type Adapter interface {
	// Provenance identifies the products this adapter returns.
	Provenance() core.Provenance

	// Applicable reports whether the adapter can search for the descriptor.
	// An inapplicable adapter is skipped, not counted as failed.
	Applicable(d core.ItemDescriptor) bool

	// Search returns the normalized products for the descriptor.
	// An error means the service could not be reached after retries.
	Search(ctx context.Context, d core.ItemDescriptor) ([]core.Product, error)
}
