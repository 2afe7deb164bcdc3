// Command batchinputs prepares the per-line inputs of a batch run: it loads
// named datasets, merges them by line, applies the inputs mapping and hands
// the resolved records to a sink.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	inats "github.com/wehubfusion/batchinputs/internal/nats"
	"github.com/wehubfusion/batchinputs/internal/tracing"
	"github.com/wehubfusion/batchinputs/pkg/batchinput"
	"github.com/wehubfusion/batchinputs/pkg/config"
	"github.com/wehubfusion/batchinputs/pkg/datasource"
	"github.com/wehubfusion/batchinputs/pkg/dispatch"
	apperrors "github.com/wehubfusion/batchinputs/pkg/errors"
	"github.com/wehubfusion/batchinputs/pkg/iteration"
	"github.com/wehubfusion/batchinputs/pkg/storage"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	logger, err := newLogger(opts.verbose)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	undo := config.InitializeForKubernetes(logger)
	defer undo()

	cfg := config.LoadConfig()
	logger.Debug("Loaded configuration", zap.String("config", cfg.String()))

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Release:     version,
		}); err != nil {
			logger.Warn("Failed to initialize Sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if cfg.TracingEnabled() {
		shutdown, err := tracing.SetupTracing(ctx, tracing.FromConfig(cfg, version), logger)
		if err != nil {
			logger.Warn("Continuing without tracing", zap.Error(err))
		} else {
			defer tracing.ShutdownTracing(shutdown, logger)
		}
	}

	if err := prepare(ctx, opts, cfg, stdout, logger); err != nil {
		if apperrors.IsInternalError(err) {
			sentry.CaptureException(err)
		}
		logger.Error("Batch input preparation failed",
			zap.String("code", apperrors.Code(err)),
			zap.Bool("user_error", apperrors.IsUserError(err)),
			zap.Error(err))
		return 1
	}
	return 0
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// prepare runs load, process and dispatch for one batch run
func prepare(ctx context.Context, opts *options, cfg *config.Config, stdout io.Writer, logger *zap.Logger) error {
	mapping, err := loadMapping(opts.mapping)
	if err != nil {
		return err
	}
	flowInputs, err := loadFlowInputs(opts.flowInputs)
	if err != nil {
		return err
	}

	var blobClient storage.BlobStorageClient
	if opts.source == sourceBlob || opts.sink == sinkBlob {
		if cfg.AzureConnectionString == "" {
			return fmt.Errorf("BATCHINPUTS_AZURE_CONNECTION_STRING is required for blob storage")
		}
		blobClient, err = storage.NewAzureBlobClient(cfg.AzureConnectionString, cfg.AzureContainer, logger)
		if err != nil {
			return err
		}
	}

	var src datasource.Source
	if opts.source == sourceBlob {
		src = datasource.NewBlobSource(blobClient, cfg.MaxLines, logger)
	} else {
		src = datasource.NewLocalSource(cfg.WorkingDir, cfg.MaxLines, logger)
	}

	datasets, err := datasource.LoadAll(ctx, src, opts.inputs)
	if err != nil {
		return err
	}

	processor := batchinput.NewProcessor(flowInputs,
		batchinput.WithLogger(logger),
		batchinput.WithIterator(iteration.NewIterator(cfg.IteratorConfig())),
	)
	records, err := processor.Process(ctx, datasets, opts.inputs, mapping)
	if err != nil {
		return err
	}

	sink, closeSink, err := newSink(ctx, opts.sink, cfg, blobClient, stdout, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	run := dispatch.NewRunInfo(opts.flowID)
	if err := sink.Dispatch(ctx, run, records); err != nil {
		return err
	}
	logger.Info("Batch run prepared",
		zap.String("run_id", run.RunID),
		zap.String("sink", opts.sink),
		zap.Int("lines", len(records)))
	return nil
}

func newSink(ctx context.Context, kind string, cfg *config.Config, blobClient storage.BlobStorageClient, stdout io.Writer, logger *zap.Logger) (dispatch.Sink, func(), error) {
	noop := func() {}
	switch kind {
	case sinkNATS:
		if cfg.NATSURL == "" {
			return nil, noop, fmt.Errorf("BATCHINPUTS_NATS_URL is required for the nats sink")
		}
		conn, err := inats.Connect(ctx, inats.DefaultConnectionConfig(cfg.NATSURL), logger)
		if err != nil {
			return nil, noop, fmt.Errorf("%w: %w", apperrors.ErrDispatchFailed, err)
		}
		closeConn := func() {
			if err := inats.Close(conn); err != nil {
				logger.Warn("Failed to close NATS connection", zap.Error(err))
			}
		}
		js, err := conn.JetStream()
		if err != nil {
			closeConn()
			return nil, noop, fmt.Errorf("failed to create JetStream context: %w", err)
		}
		natsConfig := dispatch.DefaultNATSConfig()
		natsConfig.Stream = cfg.NATSStream
		natsConfig.SubjectPrefix = cfg.SubjectPrefix
		sink, err := dispatch.NewNATSSink(js, natsConfig, logger)
		if err != nil {
			closeConn()
			return nil, noop, err
		}
		return sink, closeConn, nil
	case sinkBlob:
		return dispatch.NewBlobSink(blobClient, logger), noop, nil
	default:
		return dispatch.NewWriterSink(stdout), noop, nil
	}
}
