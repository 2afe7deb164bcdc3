package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/wehubfusion/batchinputs/pkg/batchinput"
	apperrors "github.com/wehubfusion/batchinputs/pkg/errors"
	"github.com/wehubfusion/batchinputs/pkg/message"
	"go.uber.org/zap"
)

// JSContext defines the minimal subset of JetStream operations the sink depends on.
// This allows tests to provide a mock without requiring a running NATS server.
type JSContext interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// NATSConfig configures where lines are published
type NATSConfig struct {
	// Stream is the JetStream stream holding batch lines
	Stream string
	// SubjectPrefix is followed by ".<runId>" for every run
	SubjectPrefix string
	// PublishMaxRetries bounds publish attempts per line
	PublishMaxRetries int
	// RetryDelay is the wait between publish attempts
	RetryDelay time.Duration
}

// DefaultNATSConfig returns a configuration with sensible defaults
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		Stream:            "BATCH_LINES",
		SubjectPrefix:     "batch.lines",
		PublishMaxRetries: 3,
		RetryDelay:        time.Second,
	}
}

// NATSSink publishes one JetStream message per resolved line to
// <SubjectPrefix>.<runId>. The correlation id doubles as the JetStream
// message id so redelivered publishes are deduplicated.
type NATSSink struct {
	js            JSContext
	config        NATSConfig
	logger        *zap.Logger
	streamEnsured bool
}

// NewNATSSink creates a JetStream sink
func NewNATSSink(js JSContext, config NATSConfig, logger *zap.Logger) (*NATSSink, error) {
	if js == nil {
		return nil, fmt.Errorf("JetStream context cannot be nil")
	}
	defaults := DefaultNATSConfig()
	if config.Stream == "" {
		config.Stream = defaults.Stream
	}
	if config.SubjectPrefix == "" {
		config.SubjectPrefix = defaults.SubjectPrefix
	}
	if config.PublishMaxRetries <= 0 {
		config.PublishMaxRetries = defaults.PublishMaxRetries
	}
	if config.RetryDelay < 0 {
		config.RetryDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSSink{js: js, config: config, logger: logger}, nil
}

// Subject returns the subject a run's lines are published on
func (s *NATSSink) Subject(run RunInfo) string {
	return s.config.SubjectPrefix + "." + run.RunID
}

// Dispatch implements Sink
func (s *NATSSink) Dispatch(ctx context.Context, run RunInfo, records []batchinput.ResolvedInputRecord) error {
	if err := s.ensureStream(); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDispatchFailed, err)
	}

	subject := s.Subject(run)
	for _, record := range records {
		msg := message.NewLineMessage(run.RunID, run.FlowID, lineNumberOf(record), record).
			WithMetadata("line_count", strconv.Itoa(len(records)))
		if err := s.publish(ctx, subject, msg); err != nil {
			return err
		}
	}

	s.logger.Info("Dispatched batch inputs to JetStream",
		zap.String("run_id", run.RunID),
		zap.String("subject", subject),
		zap.Int("lines", len(records)))
	return nil
}

func (s *NATSSink) publish(ctx context.Context, subject string, msg *message.LineMessage) error {
	data, err := msg.ToBytes()
	if err != nil {
		return apperrors.NewError("MARSHAL_FAILED", "failed to marshal line message", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.config.PublishMaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("publish cancelled: %w", err)
		}
		_, lastErr = s.js.Publish(subject, data, nats.MsgId(msg.CorrelationID))
		if lastErr == nil {
			return nil
		}
		s.logger.Warn("Failed to publish line, retrying",
			zap.String("subject", subject),
			zap.Int("line_number", msg.LineNumber),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if attempt < s.config.PublishMaxRetries && s.config.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("publish cancelled: %w", ctx.Err())
			case <-time.After(s.config.RetryDelay):
			}
		}
	}

	s.logger.Error("Failed to publish line to JetStream",
		zap.String("subject", subject),
		zap.Int("line_number", msg.LineNumber),
		zap.Error(lastErr))
	return fmt.Errorf("%w: line %d: %w", apperrors.ErrDispatchFailed, msg.LineNumber, lastErr)
}

// ensureStream creates the JetStream stream if it doesn't exist
func (s *NATSSink) ensureStream() error {
	if s.streamEnsured {
		return nil
	}

	streamInfo, err := s.js.StreamInfo(s.config.Stream)
	if err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return fmt.Errorf("failed to get stream info for '%s': %w", s.config.Stream, err)
		}

		s.logger.Info("Creating JetStream stream", zap.String("stream", s.config.Stream))
		streamConfig := &nats.StreamConfig{
			Name:     s.config.Stream,
			Subjects: []string{s.config.SubjectPrefix + ".>"},
			Storage:  nats.FileStorage,
			MaxAge:   24 * time.Hour,
			Replicas: 1,
		}
		if _, err := s.js.AddStream(streamConfig); err != nil {
			return fmt.Errorf("failed to create stream '%s': %w", s.config.Stream, err)
		}
		s.logger.Info("Successfully created JetStream stream",
			zap.String("stream", s.config.Stream),
			zap.Strings("subjects", streamConfig.Subjects))
	} else {
		s.logger.Debug("JetStream stream already exists",
			zap.String("stream", s.config.Stream),
			zap.Uint64("messages", streamInfo.State.Msgs))
	}

	s.streamEnsured = true
	return nil
}
