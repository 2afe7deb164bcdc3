package datasource

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wehubfusion/batchinputs/pkg/errors"
)

// fakeBlobs is an in-memory storage.BlobStorageClient.
type fakeBlobs struct {
	blobs     map[string][]byte
	downloads []string
	listErr   error
}

func (f *fakeBlobs) ListBlobs(ctx context.Context, prefix string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var names []string
	for name := range f.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeBlobs) DownloadBlob(ctx context.Context, reference string) ([]byte, error) {
	f.downloads = append(f.downloads, reference)
	data, ok := f.blobs[reference]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return data, nil
}

func (f *fakeBlobs) UploadBlob(ctx context.Context, blobPath string, data []byte, metadata map[string]string) (string, error) {
	f.blobs[blobPath] = data
	return "https://fake/" + blobPath, nil
}

func TestBlobSource_LoadSingleBlob(t *testing.T) {
	client := &fakeBlobs{blobs: map[string][]byte{
		"runs/data.jsonl":    []byte("{\"q\":\"q1\"}\n"),
		"runs/data.jsonl.v2": []byte("{\"q\":\"other\"}\n"),
	}}

	records, err := NewBlobSource(client, 0, nil).Load(context.Background(), "/runs/data.jsonl")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "q1", records[0]["q"])
	assert.Equal(t, []string{"runs/data.jsonl"}, client.downloads)
}

func TestBlobSource_LoadDirectory(t *testing.T) {
	client := &fakeBlobs{blobs: map[string][]byte{
		"inputs/data/part-1.jsonl": []byte("{\"n\":1}\n{\"n\":2}\n"),
		"inputs/data/part-2.json":  []byte(`[{"n":3}]`),
		"inputs/data/_SUCCESS":     []byte(""),
		"inputs/data_v2/x.jsonl":   []byte("{\"n\":99}\n"),
	}}

	records, err := NewBlobSource(client, 0, nil).Load(context.Background(), "inputs/data")

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, float64(3), records[2]["n"])
	assert.NotContains(t, client.downloads, "inputs/data_v2/x.jsonl")
}

func TestBlobSource_MaxLines(t *testing.T) {
	client := &fakeBlobs{blobs: map[string][]byte{
		"d/a.jsonl": []byte("{\"n\":1}\n{\"n\":2}\n{\"n\":3}\n"),
		"d/b.jsonl": []byte("{\"n\":4}\n"),
	}}

	records, err := NewBlobSource(client, 2, nil).Load(context.Background(), "d")

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, []string{"d/a.jsonl"}, client.downloads, "stops reading once the limit is reached")
}

func TestBlobSource_Errors(t *testing.T) {
	_, err := NewBlobSource(nil, 0, nil).Load(context.Background(), "d")
	assert.Error(t, err)

	failing := &fakeBlobs{listErr: errors.New("connection refused")}
	_, err = NewBlobSource(failing, 0, nil).Load(context.Background(), "d")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSourceUnavailable))
}

func TestSelectBlobs(t *testing.T) {
	names := []string{"data.jsonl", "data/a.jsonl", "data/b.jsonl", "data_old/a.jsonl"}

	assert.Equal(t, []string{"data.jsonl"}, selectBlobs("data.jsonl", names))
	assert.Equal(t, []string{"data/a.jsonl", "data/b.jsonl"}, selectBlobs("data", names))
	assert.Equal(t, []string{"data/a.jsonl", "data/b.jsonl"}, selectBlobs("data/", names))
	assert.Equal(t, names, selectBlobs("", names))
}
