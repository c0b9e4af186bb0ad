package hl7

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpans(t *testing.T) {
	assert.Equal(t, []Span{{0, 1}, {2, 2}, {3, 4}}, Spans("a||b", '|'))
	assert.Equal(t, []Span{{0, 4}}, Spans("a||b", 0))
	assert.Equal(t, []Span{{0, 0}}, Spans("", '|'))
	assert.Equal(t, 3, Span{2, 5}.Len())
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		name    string
		segment string
		want    []string
	}{
		{"regular", "PID|1||x", []string{"PID", "1", "", "x"}},
		{"header", `MSH|^~\&|APP`, []string{"MSH", "|", `^~\&`, "APP"}},
		{"header without fields", `MSH|^~\&`, []string{"MSH", "|", `^~\&`}},
		{"bare header", "MSH", []string{"MSH"}},
		{"empty", "", []string{""}},
	}

	for _, tt := range tests {
		got := SplitFields(tt.segment, DefaultEncoding)
		assert.Equal(t, tt.want, got, tt.name)
		assert.Equal(t, tt.segment, JoinFields(got, DefaultEncoding), tt.name)
	}
}

func TestIsHeader(t *testing.T) {
	assert.True(t, IsHeader(`MSH|^~\&`, DefaultEncoding))
	assert.True(t, IsHeader("MSH", DefaultEncoding))
	assert.False(t, IsHeader("MSHX|", DefaultEncoding))
	assert.False(t, IsHeader("PID|1", DefaultEncoding))
}

func TestSplitJoin(t *testing.T) {
	assert.Equal(t, []string{"a", "b", ""}, Split("a~b~", '~'))
	assert.Equal(t, []string{"a~b"}, Split("a~b", 0))
	assert.Equal(t, "a~b~", Join([]string{"a", "b", ""}, '~'))
	assert.Equal(t, "ab", Join([]string{"a", "b"}, 0))
	assert.Equal(t, "", JoinFields(nil, DefaultEncoding))

	assert.True(t, ContainsAny("a^b", 0, '^'))
	assert.False(t, ContainsAny("ab", 0, '^'))
}
