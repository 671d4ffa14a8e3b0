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


package storage

import (
	"context"
	"time"

	"github.com/poiesic/shopit/core"
)

// ImageCache stores materialized images keyed by their source reference.
// Implementations must be thread-safe and support concurrent access.
type ImageCache interface {
	// GetImage returns the cached image for ref.
	// Returns ErrNotFound if nothing is cached or the entry expired.
	GetImage(ctx context.Context, ref string) (*core.EncodedImage, error)

	// PutImage caches an image for ref. A non-positive ttl keeps it until evicted.
	PutImage(ctx context.Context, ref string, img *core.EncodedImage, ttl time.Duration) error

	// Close releases resources.
	Close() error
}

// DisplayRepository tracks display targets and the last view rendered to each.
// A display target is registered when a conversation starts and cleared when
// the user discards it; views are only written to registered targets.
type DisplayRepository interface {
	// RegisterTarget marks a display target as live. Registering twice is not an error.
	RegisterTarget(ctx context.Context, target string) error

	// TargetExists reports whether the target is registered.
	TargetExists(ctx context.Context, target string) (bool, error)

	// ClearTarget removes the target and its view.
	// Returns ErrNotFound if the target is not registered.
	ClearTarget(ctx context.Context, target string) error

	// Render stores view as the target's current view, replacing any previous one.
	// Returns ErrNotFound if the target is not registered; the view is then discarded.
	Render(ctx context.Context, target string, view *core.SearchView) error

	// GetView returns the last view rendered to the target.
	// Returns ErrNotFound if the target has no view.
	GetView(ctx context.Context, target string) (*core.SearchView, error)

	// Close releases resources.
	Close() error
}
