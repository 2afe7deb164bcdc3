package datasource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wehubfusion/batchinputs/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLocalSource_LoadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data.jsonl", "{\"q\":\"q1\"}\n{\"q\":\"q2\"}\n")

	src := NewLocalSource(dir, 0, nil)
	records, err := src.Load(context.Background(), "data.jsonl")

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "q2", records[1]["q"])
}

func TestLocalSource_LoadDirectoryInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inputs/b.jsonl", "{\"n\":3}\n")
	writeFile(t, dir, "inputs/a.json", `[{"n":1},{"n":2}]`)
	writeFile(t, dir, "inputs/nested/c.csv", "n\n4\n")
	writeFile(t, dir, "inputs/readme.md", "ignored")

	src := NewLocalSource(dir, 0, nil)
	records, err := src.Load(context.Background(), "inputs")

	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, float64(1), records[0]["n"])
	assert.Equal(t, float64(2), records[1]["n"])
	assert.Equal(t, float64(3), records[2]["n"])
	assert.Equal(t, "4", records[3]["n"])
}

func TestLocalSource_MaxLinesTruncates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inputs/a.jsonl", "{\"n\":1}\n{\"n\":2}\n{\"n\":3}\n")
	writeFile(t, dir, "inputs/b.jsonl", "{\"n\":4}\n")

	core, logs := observer.New(zapcore.WarnLevel)
	src := NewLocalSource(dir, 2, zap.New(core))

	records, err := src.Load(context.Background(), "inputs")

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, float64(2), records[1]["n"])
	assert.Equal(t, 1, logs.FilterMessageSnippet("maximum lines limit").Len())
}

func TestLocalSource_MaxLinesNotExceeded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data.jsonl", "{\"n\":1}\n{\"n\":2}\n")

	core, logs := observer.New(zapcore.WarnLevel)
	src := NewLocalSource(dir, 2, zap.New(core))

	records, err := src.Load(context.Background(), "data.jsonl")

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 0, logs.Len())
}

func TestLocalSource_MissingPath(t *testing.T) {
	src := NewLocalSource(t.TempDir(), 0, nil)

	_, err := src.Load(context.Background(), "nope")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSourceUnavailable))
	assert.True(t, apperrors.IsRetryable(err))
}

func TestLocalSource_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data.jsonl", "not json\n")

	_, err := NewLocalSource(dir, 0, nil).Load(context.Background(), "data.jsonl")

	require.Error(t, err)
	assert.False(t, apperrors.IsRetryable(err))
}

func TestLocalSource_Resolve(t *testing.T) {
	src := NewLocalSource("/work", 0, nil)

	resolved, err := src.Resolve("inputs/data.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "/work/inputs/data.jsonl", resolved)

	resolved, err = src.Resolve("/abs/data.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "/abs/data.jsonl", resolved)
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data.jsonl", "{\"q\":\"q1\"}\n")
	writeFile(t, dir, "empty.jsonl", "")

	datasets, err := LoadAll(context.Background(), NewLocalSource(dir, 0, nil), map[string]string{
		"data":     "data.jsonl",
		"baseline": "empty.jsonl",
	})

	require.NoError(t, err)
	assert.Len(t, datasets["data"], 1)
	assert.Empty(t, datasets["baseline"])
	assert.Contains(t, datasets, "baseline")

	_, err = LoadAll(context.Background(), NewLocalSource(dir, 0, nil), map[string]string{"x": "missing.jsonl"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `input "x"`)
}
