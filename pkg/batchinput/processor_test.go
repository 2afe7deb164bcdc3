package batchinput

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wehubfusion/batchinputs/pkg/errors"
	"github.com/wehubfusion/batchinputs/pkg/iteration"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestProcessor_QuestionAnswerBaseline(t *testing.T) {
	p := NewProcessor(FlowInputs{"question": {}, "groundtruth": {}, "baseline": {}, "model": {}})

	records, err := p.Process(context.Background(),
		Datasets{
			"data":     {{"question": "q1", "answer": "a1"}},
			"baseline": {{"answer": "b1"}},
		},
		map[string]string{"data": "data.jsonl", "baseline": "baseline.jsonl"},
		MappingSpec{
			"question":    "${data.question}",
			"groundtruth": "${data.answer}",
			"baseline":    "${baseline.answer}",
			"model":       "gpt",
		})

	require.NoError(t, err)
	assert.Equal(t, []ResolvedInputRecord{{
		"question":    "q1",
		"groundtruth": "a1",
		"baseline":    "b1",
		"model":       "gpt",
		LineNumberKey: 0,
	}}, records)
}

func TestProcessor_OutputWithLineNumbers(t *testing.T) {
	p := NewProcessor(FlowInputs{"question": {}, "answer": {}})

	records, err := p.Process(context.Background(),
		Datasets{
			"data": {
				{"question": "q1", "answer": "ans1"},
				{"question": "q2", "answer": "ans2"},
			},
			"baseline": {
				{"answer": "baseline_ans1"},
				{"answer": "baseline_ans2"},
			},
			"output": {
				{"answer": "output_ans2", LineNumberKey: 1},
				{"answer": "output_ans1", LineNumberKey: 0},
			},
		},
		nil,
		MappingSpec{
			"question":        "${data.question}",
			"groundtruth":     "${data.answer}",
			"baseline":        "${baseline.answer}",
			"deployment_name": "text-davinci-003",
			"answer":          "${output.answer}",
			LineNumberKey:     "${output.line_number}",
		})

	require.NoError(t, err)
	assert.Equal(t, []ResolvedInputRecord{
		{
			"question":        "q1",
			"groundtruth":     "ans1",
			"baseline":        "baseline_ans1",
			"answer":          "output_ans1",
			"deployment_name": "text-davinci-003",
			LineNumberKey:     0,
		},
		{
			"question":        "q2",
			"groundtruth":     "ans2",
			"baseline":        "baseline_ans2",
			"answer":          "output_ans2",
			"deployment_name": "text-davinci-003",
			LineNumberKey:     1,
		},
	}, records)
}

func TestProcessor_EmptyDatasetNamed(t *testing.T) {
	p := NewProcessor(FlowInputs{"question": {}})

	_, err := p.Process(context.Background(),
		Datasets{"data": {}, "baseline": {{"answer": "b1"}}},
		map[string]string{"data": "data.jsonl"},
		MappingSpec{"question": "${baseline.answer}"})

	var empty *EmptyDatasetError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, "data", empty.Input)
	assert.Contains(t, err.Error(), "'data'")
}

func TestProcessor_NoInputData(t *testing.T) {
	p := NewProcessor(FlowInputs{"question": {}})

	_, err := p.Process(context.Background(),
		Datasets{"data": {}, "baseline": nil},
		map[string]string{"data": "inputs/data", "baseline": "inputs/baseline.jsonl"},
		nil)

	var noData *NoInputDataError
	require.ErrorAs(t, err, &noData)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyInputsData))
	assert.Equal(t, CodeEmptyInputsData, apperrors.Code(err))
	assert.Contains(t, err.Error(), "baseline: inputs/baseline.jsonl\ndata: inputs/data")
}

func TestProcessor_MissingReference(t *testing.T) {
	p := NewProcessor(nil)

	_, err := p.Process(context.Background(),
		Datasets{"data": {{"question": "q1"}, {"question": "q2"}}},
		nil,
		MappingSpec{"x": "${missing.field}"})

	var notFound *MappingNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{"${missing.field}"}, notFound.Relations)
	assert.NotContains(t, err.Error(), "failed processing item")
}

func TestProcessor_MisalignedLengths(t *testing.T) {
	p := NewProcessor(nil)

	_, err := p.Process(context.Background(),
		Datasets{
			"data":     {{"q": 1}, {"q": 2}},
			"baseline": {{"a": 1}, {"a": 2}, {"a": 3}},
		},
		nil,
		MappingSpec{"q": "${data.q}"})

	var misaligned *MisalignedLengthsError
	require.ErrorAs(t, err, &misaligned)
	assert.Equal(t, 2, misaligned.Lengths["data"])
	assert.Equal(t, 3, misaligned.Lengths["baseline"])
}

func TestProcessor_DefaultMappingSkipsInputsWithDefaults(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewProcessor(
		FlowInputs{"question": {}, "topic": {Default: "science"}},
		WithLogger(zap.New(core)),
	)

	// "topic" is absent from the data; it must not be looked up at all
	records, err := p.Process(context.Background(),
		Datasets{"data": {{"question": "q1"}}},
		nil,
		nil)

	require.NoError(t, err)
	assert.Equal(t, []ResolvedInputRecord{{"question": "q1", LineNumberKey: 0}}, records)
	assert.Equal(t, 1, logs.FilterMessageSnippet("without column mapping").Len())
}

func TestProcessor_ParallelResolutionKeepsLineOrder(t *testing.T) {
	p := NewProcessor(FlowInputs{"n": {}},
		WithIterator(iteration.NewIterator(iteration.Config{
			Strategy:      iteration.StrategyParallel,
			MaxConcurrent: 4,
		})))

	data := make([]Record, 50)
	for i := range data {
		data[i] = Record{"n": i * i}
	}

	records, err := p.Process(context.Background(), Datasets{"data": data}, nil, MappingSpec{"n": "${data.n}"})

	require.NoError(t, err)
	require.Len(t, records, 50)
	for i, record := range records {
		assert.Equal(t, i*i, record["n"])
		assert.Equal(t, i, record[LineNumberKey])
	}
}

func TestProcessor_ResolveWithoutMapping(t *testing.T) {
	p := NewProcessor(nil)

	_, err := p.Resolve(context.Background(), []CompositeLine{sampleLine()}, nil)

	require.Error(t, err)
	assert.True(t, apperrors.IsInternalError(err))
	assert.Equal(t, CodeUnexpected, apperrors.Code(err))
}

func TestProcessor_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	p := NewProcessor(FlowInputs{"q": {}}, WithTracer(provider.Tracer("test")))

	_, err := p.Process(context.Background(), Datasets{"data": {{"q": 1}}}, nil, MappingSpec{"q": "${data.q}"})
	require.NoError(t, err)

	_, err = p.Process(context.Background(), Datasets{"data": {{"q": 1}}}, nil, MappingSpec{"q": "${data.missing}"})
	require.Error(t, err)

	var processSpans []sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		if span.Name() == "batchinput.Process" {
			processSpans = append(processSpans, span)
		}
	}
	require.Len(t, processSpans, 2)
	assert.Equal(t, codes.Ok, processSpans[0].Status().Code)
	assert.Equal(t, codes.Error, processSpans[1].Status().Code)
}
