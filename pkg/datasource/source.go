package datasource

import (
	"context"
	"fmt"

	"github.com/wehubfusion/batchinputs/pkg/batchinput"
	"go.uber.org/zap"
)

// Source loads the records of one named input from a path.
type Source interface {
	Load(ctx context.Context, path string) ([]batchinput.Record, error)
}

// LoadAll loads every input with src. inputs maps input name to path.
func LoadAll(ctx context.Context, src Source, inputs map[string]string) (batchinput.Datasets, error) {
	datasets := make(batchinput.Datasets, len(inputs))
	for name, path := range inputs {
		records, err := src.Load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load input %q from %s: %w", name, path, err)
		}
		datasets[name] = records
	}
	return datasets, nil
}

// collector accumulates records up to an optional limit.
type collector struct {
	maxLines int
	records  []batchinput.Record
}

// full reports whether enough records have been read.
func (c *collector) full() bool {
	return c.maxLines > 0 && len(c.records) >= c.maxLines
}

func (c *collector) add(records []batchinput.Record) {
	c.records = append(c.records, records...)
}

// result drops records past the limit, warning when it does.
func (c *collector) result(logger *zap.Logger, path string) []batchinput.Record {
	if c.maxLines > 0 && len(c.records) > c.maxLines {
		logger.Warn("The data provided exceeds the maximum lines limit; only the first lines are processed",
			zap.String("path", path),
			zap.Int("max_lines", c.maxLines),
			zap.Int("read_lines", len(c.records)))
		return c.records[:c.maxLines]
	}
	return c.records
}
