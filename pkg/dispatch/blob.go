package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/sjson"
	"github.com/wehubfusion/batchinputs/pkg/batchinput"
	apperrors "github.com/wehubfusion/batchinputs/pkg/errors"
	"github.com/wehubfusion/batchinputs/pkg/storage"
	"go.uber.org/zap"
)

// BlobSink writes a run's inputs to blob storage as
// runs/<flowId>/<runId>/inputs.jsonl with a manifest.json next to it.
type BlobSink struct {
	client storage.BlobStorageClient
	logger *zap.Logger
}

// NewBlobSink creates a blob storage sink
func NewBlobSink(client storage.BlobStorageClient, logger *zap.Logger) *BlobSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlobSink{client: client, logger: logger}
}

// RunPath returns the blob directory of a run
func RunPath(run RunInfo) string {
	flowID := run.FlowID
	if flowID == "" {
		flowID = "default"
	}
	return fmt.Sprintf("runs/%s/%s", flowID, run.RunID)
}

// Dispatch implements Sink
func (s *BlobSink) Dispatch(ctx context.Context, run RunInfo, records []batchinput.ResolvedInputRecord) error {
	if s.client == nil {
		return fmt.Errorf("blob client not initialized")
	}

	data, err := encodeJSONL(records)
	if err != nil {
		return err
	}

	dir := RunPath(run)
	metadata := map[string]string{
		"run_id":     run.RunID,
		"flow_id":    run.FlowID,
		"line_count": strconv.Itoa(len(records)),
	}
	inputsURL, err := s.client.UploadBlob(ctx, dir+"/inputs.jsonl", data, metadata)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDispatchFailed, err)
	}

	manifest, err := buildManifest(run, records, inputsURL)
	if err != nil {
		return err
	}
	if _, err := s.client.UploadBlob(ctx, dir+"/manifest.json", manifest, metadata); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDispatchFailed, err)
	}

	s.logger.Info("Dispatched batch inputs to blob storage",
		zap.String("run_id", run.RunID),
		zap.String("flow_id", run.FlowID),
		zap.String("inputs_url", inputsURL),
		zap.Int("lines", len(records)))
	return nil
}

// buildManifest describes the uploaded inputs without re-encoding them
func buildManifest(run RunInfo, records []batchinput.ResolvedInputRecord, inputsURL string) ([]byte, error) {
	lineNumbers := make([]int, 0, len(records))
	for _, record := range records {
		lineNumbers = append(lineNumbers, lineNumberOf(record))
	}

	manifest := []byte(`{}`)
	var err error
	for _, field := range []struct {
		path  string
		value interface{}
	}{
		{"run_id", run.RunID},
		{"flow_id", run.FlowID},
		{"inputs", inputsURL},
		{"line_count", len(records)},
		{"line_numbers", lineNumbers},
		{"created_at", time.Now().UTC().Format(time.RFC3339)},
	} {
		manifest, err = sjson.SetBytes(manifest, field.path, field.value)
		if err != nil {
			return nil, fmt.Errorf("failed to build manifest field %s: %w", field.path, err)
		}
	}
	return manifest, nil
}
