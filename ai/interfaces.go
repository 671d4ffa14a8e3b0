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


package ai

import (
	"context"

	"github.com/poiesic/shopit/core"
)

// Judge sends one instruction, optionally with images, to a model and
// returns its free-text reply. Implementations must be thread-safe for
// concurrent use.
type Judge interface {
	// Judge returns the model's reply to the instruction.
	// Vision judges accept up to MaxImagesPerCall images; text-only judges
	// are called with none.
	// Returns an error if the call itself fails; an unhelpful reply is not an error.
	Judge(ctx context.Context, instruction string, images []core.EncodedImage) (string, error)
}

// AIProvider aggregates the judges used by the filters.
type AIProvider interface {
	// VisionJudge returns the judge used for image relevance.
	VisionJudge() Judge

	// BrandJudge returns the text-only judge used for brand filtering.
	BrandJudge() Judge

	// Close releases resources held by the provider and its judges.
	Close() error
}

// MaxImagesPerCall is the hard ceiling on images in one vision judge call.
const MaxImagesPerCall = 10
