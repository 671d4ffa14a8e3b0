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


// Package filter narrows candidate products with a model judge.
//
// Relevance shows a vision judge product photos in batches and keeps the
// candidates it approves. Brand asks a text-only judge which products are
// made by a named brand. Both fail open: when the judge errors or its reply
// cannot be parsed, the candidates it was asked about are kept.
package filter

import "errors"

var (
	// ErrJudgeRequired is returned when a judge is not provided.
	ErrJudgeRequired = errors.New("judge required")

	// ErrFetcherRequired is returned when an image fetcher is not provided.
	ErrFetcherRequired = errors.New("image fetcher required")
)
