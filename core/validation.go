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

import (
	"fmt"
	"strings"
)

// ValidateDescriptor validates an ItemDescriptor according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - At least one of PrimaryQuery or EditorialQuery must be set
//
// NOT validated:
//   - VisualQuery / ReferenceImageRef (visual search is skipped when either is missing)
func ValidateDescriptor(d *ItemDescriptor) error {
	if d == nil {
		return fmt.Errorf("%w: descriptor is nil", ErrInvalidDescriptor)
	}

	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDescriptor, ErrEmptyDescriptorName)
	}

	if strings.TrimSpace(d.PrimaryQuery) == "" && strings.TrimSpace(d.EditorialQuery) == "" {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDescriptor, d.Name, ErrNoSearchPhrase)
	}

	return nil
}

// ValidateSession validates a Session.
func ValidateSession(s *Session) error {
	if s == nil {
		return fmt.Errorf("%w: session is nil", ErrInvalidSession)
	}
	if s.DisplayTarget == "" {
		return fmt.Errorf("%w: display target is required", ErrInvalidSession)
	}
	return nil
}
