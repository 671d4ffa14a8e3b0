package mock

import (
	"strconv"
	"strings"
)

// VerdictReply renders a well-formed judge reply approving the given batch-relative indexes.
func VerdictReply(indexes ...int) string {
	parts := make([]string, len(indexes))
	for i, idx := range indexes {
		parts[i] = strconv.Itoa(idx)
	}
	return `{"passing_indexes": [` + strings.Join(parts, ", ") + `]}`
}

func approveAll(n int) string {
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	return VerdictReply(indexes...)
}
