package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdict_Valid(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []int
	}{
		{"bare object", `{"passing_indexes": [0, 2, 5]}`, []int{0, 2, 5}},
		{"empty list", `{"passing_indexes": []}`, []int{}},
		{"code fence", "```json\n{\"passing_indexes\": [1]}\n```", []int{1}},
		{"prose around", "Looking at the images, these match.\n{\"passing_indexes\":[3,4]}\nHope that helps!", []int{3, 4}},
		{"unquoted key", `{passing_indexes: [0]}`, []int{0}},
		{"half quoted key", `{ passing_indexes": [7]}`, []int{7}},
		{"single quoted key", `{'passing_indexes': [2]}`, []int{2}},
		{"trailing comma", `{"passing_indexes": [1, 2,]}`, []int{1, 2}},
		{"duplicates removed", `{"passing_indexes": [1, 1, 2]}`, []int{1, 2}},
		{"second object holds verdict", `{"note": "ok"} {"passing_indexes": [9]}`, []int{9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVerdict(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.PassingIndexes)
		})
	}
}

func TestParseVerdict_Unparsable(t *testing.T) {
	for _, reply := range []string{
		"",
		"   ",
		"All of them look great!",
		`{"passing": [1, 2]}`,
		`{"passing_indexes": "all"}`,
		`{"passing_indexes": [1, 2`,
		`{"passing_indexes": null}`,
	} {
		_, err := ParseVerdict(reply)
		assert.ErrorIs(t, err, ErrUnparsableVerdict, "reply %q", reply)
	}
}

func TestRepairJSON(t *testing.T) {
	assert.Equal(t, `{"passing_indexes": [1]}`, repairJSON(`{"passing_indexes": [1]}`))
	assert.Equal(t, `{"passing_indexes": [1]}`, repairJSON(`{passing_indexes: [1]}`))
	assert.Equal(t, `{"a": 1,"b": [2]}`, repairJSON(`{a: 1,'b': [2,]}`))
}
