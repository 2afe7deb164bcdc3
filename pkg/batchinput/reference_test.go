package batchinput

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		expr     string
		isRef    bool
		path     string
		segments []string
	}{
		{expr: "${data.question}", isRef: true, path: "data.question", segments: []string{"data", "question"}},
		{expr: "${a.b.c}", isRef: true, path: "a.b.c", segments: []string{"a", "b", "c"}},
		{expr: "${single}", isRef: true, path: "single", segments: []string{"single"}},
		{expr: "${}", isRef: false},
		{expr: "$", isRef: false},
		{expr: "${", isRef: false},
		{expr: "}", isRef: false},
		{expr: "data.question", isRef: false},
		{expr: "prefix ${data.question}", isRef: false},
		{expr: "${data.question} suffix", isRef: false},
		{expr: "${data.{question}}", isRef: false},
		{expr: "${a}.${b}", isRef: false},
		{expr: "{data.question}", isRef: false},
		{expr: "", isRef: false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			ref, ok := ParseReference(tt.expr)
			assert.Equal(t, tt.isRef, ok)
			if tt.isRef {
				assert.Equal(t, tt.expr, ref.Raw)
				assert.Equal(t, tt.path, ref.Path)
				assert.Equal(t, tt.segments, ref.Segments)
			}
		})
	}
}

func TestReference_SplitsShortestKeyFirst(t *testing.T) {
	ref, ok := ParseReference("${data.nested.field}")
	require.True(t, ok)

	assert.Equal(t, []Split{
		{Key: "data", Source: "nested.field"},
		{Key: "data.nested", Source: "field"},
	}, ref.Splits())

	single, ok := ParseReference("${data}")
	require.True(t, ok)
	assert.Empty(t, single.Splits())
}

func TestReference_ResolvePriority(t *testing.T) {
	ref, _ := ParseReference("${data.nested.field}")

	both := CompositeLine{LineNumber: 0, Entries: map[string]Record{
		"data":        {"nested.field": "short-key"},
		"data.nested": {"field": "long-key"},
	}}
	value, ok := ref.Resolve(both)
	require.True(t, ok)
	assert.Equal(t, "short-key", value)

	onlyLong := CompositeLine{LineNumber: 0, Entries: map[string]Record{
		"data":        {"other": 1},
		"data.nested": {"field": "long-key"},
	}}
	value, ok = ref.Resolve(onlyLong)
	require.True(t, ok)
	assert.Equal(t, "long-key", value)

	_, ok = ref.Resolve(CompositeLine{Entries: map[string]Record{"data": {"nested": Record{"field": 1}}}})
	assert.False(t, ok, "nested maps are not traversed")
}

func TestReference_ResolveNilValue(t *testing.T) {
	ref, _ := ParseReference("${data.optional}")
	value, ok := ref.Resolve(CompositeLine{Entries: map[string]Record{"data": {"optional": nil}}})
	assert.True(t, ok, "a present field resolves even when its value is nil")
	assert.Nil(t, value)
}
