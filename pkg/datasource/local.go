package datasource

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wehubfusion/batchinputs/pkg/batchinput"
	apperrors "github.com/wehubfusion/batchinputs/pkg/errors"
	"go.uber.org/zap"
)

// LocalSource reads datasets from the local filesystem.
type LocalSource struct {
	// WorkingDir anchors relative paths; empty means the process working directory
	WorkingDir string
	// MaxLines caps the records read per input; 0 means unlimited
	MaxLines int
	logger   *zap.Logger
}

// NewLocalSource creates a local filesystem source.
func NewLocalSource(workingDir string, maxLines int, logger *zap.Logger) *LocalSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalSource{
		WorkingDir: workingDir,
		MaxLines:   maxLines,
		logger:     logger,
	}
}

// Resolve returns the absolute form of path.
func (s *LocalSource) Resolve(path string) (string, error) {
	if !filepath.IsAbs(path) && s.WorkingDir != "" {
		path = filepath.Join(s.WorkingDir, path)
	}
	return filepath.Abs(path)
}

// Load reads a file, or every supported file below a directory.
func (s *LocalSource) Load(ctx context.Context, path string) ([]batchinput.Record, error) {
	resolved, err := s.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
	}

	c := &collector{maxLines: s.MaxLines}
	if !info.IsDir() {
		if err := s.readFile(resolved, c); err != nil {
			return nil, err
		}
		return c.result(s.logger, resolved), nil
	}

	// WalkDir visits entries in lexical order
	err = filepath.WalkDir(resolved, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := s.readFile(p, c); err != nil {
			return err
		}
		if c.full() {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Loaded local input",
		zap.String("path", resolved),
		zap.Int("records", len(c.records)))
	return c.result(s.logger, resolved), nil
}

func (s *LocalSource) readFile(p string, c *collector) error {
	format := DetectFormat(p)
	if format == FormatUnknown {
		s.logger.Debug("Skipping file with unsupported extension", zap.String("path", p))
		return nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
	}
	records, err := Decode(format, p, data)
	if err != nil {
		return err
	}
	c.add(records)
	return nil
}
