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


// Package search runs product discovery for a set of item descriptors.
//
// For every descriptor the Searcher fans out to each applicable catalog
// adapter at once, merges their products in a fixed provenance order
// (editorial, then catalog, then visual) and falls back to placeholder
// products only when every adapter failed. Real results are then narrowed
// by the relevance filter, or the brand filter in brand mode, and the
// resulting view is rendered to the session's display target if that
// target still exists.
package search
