package batchinput

import (
	"context"
	"errors"
	"time"

	"github.com/wehubfusion/batchinputs/pkg/iteration"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Processor turns loaded datasets and a column mapping into the ordered input
// records of a batch run. It holds no per-call state and is safe for
// concurrent use.
type Processor struct {
	flowInputs FlowInputs
	logger     *zap.Logger
	tracer     trace.Tracer
	iterator   *iteration.Iterator
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the zap logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTracer sets the tracer used for processing spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Processor) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// WithIterator sets how lines are resolved. The default is sequential.
func WithIterator(it *iteration.Iterator) Option {
	return func(p *Processor) {
		if it != nil {
			p.iterator = it
		}
	}
}

// NewProcessor creates a processor for a flow with the given declared inputs.
func NewProcessor(flowInputs FlowInputs, opts ...Option) *Processor {
	p := &Processor{
		flowInputs: flowInputs,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer("batchinputs/batchinput"),
		iterator:   iteration.Sequential(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates the datasets, completes the mapping, merges the datasets
// by line and resolves every line. sources maps each input name to the path it
// was loaded from and is only used for diagnostics.
func (p *Processor) Process(ctx context.Context, datasets Datasets, sources map[string]string, explicit MappingSpec) ([]ResolvedInputRecord, error) {
	ctx, span := p.tracer.Start(ctx, "batchinput.Process",
		trace.WithAttributes(
			attribute.Int("datasets.count", len(datasets)),
			attribute.StringSlice("datasets.names", datasets.Names()),
			attribute.Int("mapping.explicit_entries", len(explicit)),
		))
	defer span.End()

	start := time.Now()
	records, err := p.process(ctx, datasets, sources, explicit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error("Failed to prepare batch inputs",
			zap.Strings("inputs", datasets.Names()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int("lines.resolved", len(records)))
	span.SetStatus(codes.Ok, "batch inputs prepared")
	p.logger.Info("Prepared batch inputs",
		zap.Strings("inputs", datasets.Names()),
		zap.Int("lines", len(records)),
		zap.Duration("duration", time.Since(start)))
	return records, nil
}

func (p *Processor) process(ctx context.Context, datasets Datasets, sources map[string]string, explicit MappingSpec) ([]ResolvedInputRecord, error) {
	if datasets.IsEmpty() {
		diag := make(map[string]string, len(sources))
		for name, path := range sources {
			diag[name] = path
		}
		// inputs without a recorded path still get named
		for name := range datasets {
			if _, ok := diag[name]; !ok {
				diag[name] = ""
			}
		}
		return nil, &NoInputDataError{Sources: diag}
	}

	mapping := CompleteMapping(explicit, p.flowInputs, p.logger)

	lines, err := MergeByLine(datasets)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Merged inputs by line",
		zap.Int("datasets", len(datasets)),
		zap.Int("complete_lines", len(lines)))

	return p.Resolve(ctx, lines, mapping)
}

// Resolve applies mapping to every line and returns the records in line
// order. A nil mapping is a programming error and yields an UnexpectedError.
func (p *Processor) Resolve(ctx context.Context, lines []CompositeLine, mapping MappingSpec) ([]ResolvedInputRecord, error) {
	if mapping == nil {
		return nil, &UnexpectedError{Message: missingMappingMessage}
	}

	ctx, span := p.tracer.Start(ctx, "batchinput.Resolve",
		trace.WithAttributes(
			attribute.Int("lines.count", len(lines)),
			attribute.String("iteration.strategy", string(p.iterator.Strategy())),
		))
	defer span.End()

	records, err := iteration.Map(ctx, p.iterator, lines, func(ctx context.Context, line CompositeLine, _ int) (ResolvedInputRecord, error) {
		return ApplyMapping(line, mapping)
	})
	if err != nil {
		// surface the line's own error rather than the iterator's wrapping
		var coded interface{ ErrorCode() string }
		if errors.As(err, &coded) {
			err = coded.(error)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return records, nil
}
