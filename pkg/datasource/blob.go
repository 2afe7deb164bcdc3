package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/wehubfusion/batchinputs/pkg/batchinput"
	apperrors "github.com/wehubfusion/batchinputs/pkg/errors"
	"github.com/wehubfusion/batchinputs/pkg/storage"
	"go.uber.org/zap"
)

// BlobSource reads datasets from blob storage. A path names either one blob or
// a virtual directory whose blobs are read in lexical order.
type BlobSource struct {
	client   storage.BlobStorageClient
	MaxLines int
	logger   *zap.Logger
}

// NewBlobSource creates a blob storage source.
func NewBlobSource(client storage.BlobStorageClient, maxLines int, logger *zap.Logger) *BlobSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlobSource{
		client:   client,
		MaxLines: maxLines,
		logger:   logger,
	}
}

// Load reads the blob at path, or every supported blob under it.
func (s *BlobSource) Load(ctx context.Context, path string) ([]batchinput.Record, error) {
	if s.client == nil {
		return nil, fmt.Errorf("blob client not initialized")
	}
	path = strings.TrimPrefix(path, "/")

	names, err := s.client.ListBlobs(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
	}
	names = selectBlobs(path, names)

	c := &collector{maxLines: s.MaxLines}
	for _, name := range names {
		format := DetectFormat(name)
		if format == FormatUnknown {
			s.logger.Debug("Skipping blob with unsupported extension", zap.String("blob", name))
			continue
		}
		data, err := s.client.DownloadBlob(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
		}
		records, err := Decode(format, name, data)
		if err != nil {
			return nil, err
		}
		c.add(records)
		if c.full() {
			break
		}
	}

	s.logger.Debug("Loaded blob input",
		zap.String("path", path),
		zap.Int("blobs", len(names)),
		zap.Int("records", len(c.records)))
	return c.result(s.logger, path), nil
}

// selectBlobs keeps the exact blob if path names one, otherwise the blobs
// inside the path's directory. "data" must not match "data_v2.jsonl".
func selectBlobs(path string, names []string) []string {
	for _, name := range names {
		if name == path {
			return []string{name}
		}
	}
	dir := strings.TrimSuffix(path, "/") + "/"
	if path == "" {
		dir = ""
	}
	selected := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, dir) {
			selected = append(selected, name)
		}
	}
	return selected
}
