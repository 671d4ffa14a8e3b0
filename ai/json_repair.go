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

import "regexp"

var (
	// `,]` or `, }` left behind by models that list items line by line
	trailingComma = regexp.MustCompile(`,\s*([\]}])`)
	// 'passing_indexes': or passing_indexes": or bare passing_indexes:
	looseKey = regexp.MustCompile(`([{,]\s*)'?"?([A-Za-z_][A-Za-z0-9_]*)'?"?\s*:`)
)

// repairJSON fixes the formatting mistakes models commonly make in small
// JSON objects: unquoted, half-quoted or single-quoted keys and trailing
// commas. Values are left untouched.
func repairJSON(s string) string {
	s = looseKey.ReplaceAllString(s, `$1"$2":`)
	return trailingComma.ReplaceAllString(s, "$1")
}
