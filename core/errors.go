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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDescriptor indicates an ItemDescriptor failed validation.
	ErrInvalidDescriptor = errors.New("invalid item descriptor")

	// ErrEmptyDescriptorName indicates the descriptor Name field is empty.
	ErrEmptyDescriptorName = errors.New("descriptor name cannot be empty")

	// ErrNoSearchPhrase indicates a descriptor has neither a primary nor an editorial query.
	ErrNoSearchPhrase = errors.New("descriptor needs a primary or editorial query")

	// ErrInvalidSession indicates a Session failed validation.
	ErrInvalidSession = errors.New("invalid session")
)

// ErrUnclearBrand is returned when a brand-mode search is requested for a
// brand that could not be resolved. It is terminal and must be surfaced to the
// user as a request for clarification rather than retried.
var ErrUnclearBrand = errors.New("brand is unclear; ask the user which brand they mean")
