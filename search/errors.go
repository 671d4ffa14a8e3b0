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


package search

import "errors"

var (
	// ErrAdapterRequired is returned when no catalog adapter is provided.
	ErrAdapterRequired = errors.New("at least one catalog adapter required")

	// ErrRelevanceFilterRequired is returned when a relevance filter is not provided.
	ErrRelevanceFilterRequired = errors.New("relevance filter required")

	// ErrBrandFilterRequired is returned by brand searches on a Searcher built without a brand filter.
	ErrBrandFilterRequired = errors.New("brand filter required")

	// ErrDisplayRequired is returned when a display is not provided.
	ErrDisplayRequired = errors.New("display required")

	// ErrNoDescriptors is returned when a search is given no descriptors.
	ErrNoDescriptors = errors.New("no item descriptors to search")
)
