// Package dispatch hands prepared batch inputs to the execution engine.
//
// A Sink receives every resolved input record of a run, in line order. Three
// sinks are provided: NATSSink publishes one JetStream message per line,
// BlobSink writes the run's inputs as a JSON Lines blob plus a manifest, and
// WriterSink streams JSON Lines to any io.Writer.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/wehubfusion/batchinputs/pkg/batchinput"
)

// RunInfo identifies one batch run
type RunInfo struct {
	RunID  string
	FlowID string
}

// NewRunInfo assigns a fresh run id for flowID
func NewRunInfo(flowID string) RunInfo {
	return RunInfo{
		RunID:  uuid.NewString(),
		FlowID: flowID,
	}
}

// Sink receives the resolved input records of a run
type Sink interface {
	Dispatch(ctx context.Context, run RunInfo, records []batchinput.ResolvedInputRecord) error
}

func lineNumberOf(record batchinput.ResolvedInputRecord) int {
	if n, ok := record.LineNumber(); ok {
		return n
	}
	return batchinput.NoLineNumber
}

// encodeJSONL renders one JSON object per line
func encodeJSONL(records []batchinput.ResolvedInputRecord) ([]byte, error) {
	var buf []byte
	for i, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record %d: %w", i, err)
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	return buf, nil
}
