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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparsableVerdict is returned when a judge reply carries no usable
// {"passing_indexes": [...]} payload.
var ErrUnparsableVerdict = errors.New("judge reply has no parsable verdict")

// Verdict is a judge's decision over one batch.
// PassingIndexes are relative to the batch the judge was shown.
type Verdict struct {
	PassingIndexes []int
}

// payload is the wire shape the judge is asked to produce.
type payload struct {
	PassingIndexes *[]int `json:"passing_indexes"`
}

// ParseVerdict extracts the structured verdict from a free-text judge reply.
// It accepts the payload wrapped in prose or markdown code fences and repairs
// common key-quoting mistakes. A reply without the passing_indexes key, or
// whose value is not a list of integers, is ErrUnparsableVerdict.
func ParseVerdict(reply string) (Verdict, error) {
	text := stripFences(reply)
	if text == "" {
		return Verdict{}, fmt.Errorf("%w: empty reply", ErrUnparsableVerdict)
	}

	var lastErr error
	for _, candidate := range objectCandidates(text) {
		for _, attempt := range []string{candidate, repairJSON(candidate)} {
			var p payload
			if err := json.Unmarshal([]byte(attempt), &p); err != nil {
				lastErr = err
				continue
			}
			if p.PassingIndexes == nil {
				lastErr = errors.New("passing_indexes missing")
				continue
			}
			return Verdict{PassingIndexes: dedupe(*p.PassingIndexes)}, nil
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no JSON object found")
	}
	return Verdict{}, fmt.Errorf("%w: %w", ErrUnparsableVerdict, lastErr)
}

// stripFences removes markdown code fences around a reply.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// objectCandidates returns the balanced {...} spans of s, the one that
// mentions passing_indexes first.
func objectCandidates(s string) []string {
	var spans []string
	depth, start := 0, -1
	for i, r := range s {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					spans = append(spans, s[start:i+1])
					start = -1
				}
			}
		}
	}

	ordered := make([]string, 0, len(spans))
	for _, span := range spans {
		if strings.Contains(span, "passing_indexes") {
			ordered = append(ordered, span)
		}
	}
	for _, span := range spans {
		if !strings.Contains(span, "passing_indexes") {
			ordered = append(ordered, span)
		}
	}
	return ordered
}

func dedupe(indexes []int) []int {
	seen := make(map[int]bool, len(indexes))
	out := make([]int, 0, len(indexes))
	for _, i := range indexes {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}
