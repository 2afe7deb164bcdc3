package dispatch

import (
	"context"
	"fmt"
	"io"

	"github.com/wehubfusion/batchinputs/pkg/batchinput"
	apperrors "github.com/wehubfusion/batchinputs/pkg/errors"
)

// WriterSink writes records as JSON Lines to w
type WriterSink struct {
	w io.Writer
}

// NewWriterSink creates a sink writing to w
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Dispatch implements Sink
func (s *WriterSink) Dispatch(ctx context.Context, run RunInfo, records []batchinput.ResolvedInputRecord) error {
	data, err := encodeJSONL(records)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDispatchFailed, err)
	}
	return nil
}
