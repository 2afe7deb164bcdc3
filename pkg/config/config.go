// Package config loads runtime settings for batch input preparation from the
// environment.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/wehubfusion/batchinputs/pkg/iteration"
)

// IteratorMode defines how resolved lines are produced
type IteratorMode string

const (
	IteratorModeParallel   IteratorMode = "parallel"
	IteratorModeSequential IteratorMode = "sequential"
)

// ConfigSource indicates where the concurrency setting came from
type ConfigSource string

const (
	ConfigSourceEnvVar     ConfigSource = "environment_variable"
	ConfigSourceAutoDetect ConfigSource = "auto_detect"
)

const (
	DefaultMaxLines      = 0
	DefaultSubjectPrefix = "batch.lines"
	DefaultStream        = "BATCH_LINES"
	DefaultContainer     = "batch-inputs"
	DefaultServiceName   = "batchinputs"
)

// Config holds runtime configuration
type Config struct {
	// MaxLines caps the records read per input; 0 means no limit
	MaxLines int

	IteratorMode  IteratorMode
	MaxConcurrent int
	Source        ConfigSource
	IsKubernetes  bool
	EffectiveCPUs int

	// WorkingDir anchors relative local input paths
	WorkingDir string

	NATSURL       string
	NATSStream    string
	SubjectPrefix string

	AzureConnectionString string
	AzureContainer        string

	// OTLPEndpoint enables tracing when set (host:port)
	OTLPEndpoint string
	ServiceName  string
	Environment  string

	SentryDSN string
}

// LoadConfig loads configuration with priority: env vars > auto-detection > defaults
func LoadConfig() *Config {
	config := &Config{
		IsKubernetes:  isKubernetes(),
		EffectiveCPUs: runtime.GOMAXPROCS(0),
	}

	config.MaxLines = getEnvInt("BATCHINPUTS_MAX_LINES", DefaultMaxLines)
	if config.MaxLines < 0 {
		config.MaxLines = DefaultMaxLines
	}

	if maxConcurrent := getEnvInt("BATCHINPUTS_MAX_CONCURRENT", 0); maxConcurrent > 0 {
		config.MaxConcurrent = maxConcurrent
		config.Source = ConfigSourceEnvVar
	} else {
		config.MaxConcurrent = getDefaultMaxConcurrent(config.IsKubernetes, config.EffectiveCPUs)
		config.Source = ConfigSourceAutoDetect
	}
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1
	}

	config.IteratorMode = IteratorMode(strings.ToLower(getEnv("BATCHINPUTS_ITERATOR_MODE", string(IteratorModeSequential))))
	if config.IteratorMode != IteratorModeParallel && config.IteratorMode != IteratorModeSequential {
		config.IteratorMode = IteratorModeSequential
	}

	config.WorkingDir = getEnv("BATCHINPUTS_WORKING_DIR", "")
	config.NATSURL = getEnv("BATCHINPUTS_NATS_URL", "")
	config.NATSStream = getEnv("BATCHINPUTS_NATS_STREAM", DefaultStream)
	config.SubjectPrefix = getEnv("BATCHINPUTS_SUBJECT_PREFIX", DefaultSubjectPrefix)
	config.AzureConnectionString = getEnv("BATCHINPUTS_AZURE_CONNECTION_STRING", "")
	config.AzureContainer = getEnv("BATCHINPUTS_AZURE_CONTAINER", DefaultContainer)
	config.OTLPEndpoint = getEnv("BATCHINPUTS_OTLP_ENDPOINT", "")
	config.ServiceName = getEnv("BATCHINPUTS_SERVICE_NAME", DefaultServiceName)
	config.Environment = getEnv("BATCHINPUTS_ENVIRONMENT", "development")
	config.SentryDSN = getEnv("SENTRY_DSN", "")

	return config
}

// IteratorConfig converts the iterator settings for pkg/iteration
func (c *Config) IteratorConfig() iteration.Config {
	strategy := iteration.StrategySequential
	if c.IteratorMode == IteratorModeParallel {
		strategy = iteration.StrategyParallel
	}
	return iteration.Config{
		Strategy:      strategy,
		MaxConcurrent: c.MaxConcurrent,
	}
}

// TracingEnabled reports whether an OTLP endpoint is configured
func (c *Config) TracingEnabled() bool {
	return c.OTLPEndpoint != ""
}

// isKubernetes detects if the application is running in Kubernetes
func isKubernetes() bool {
	return os.Getenv("KUBERNETES_SERVICE_HOST") != ""
}

func getDefaultMaxConcurrent(isK8s bool, cpus int) int {
	if isK8s {
		return cpus * 2
	}
	return cpus * 4
}

// getEnvInt retrieves an integer from environment variable with default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnv retrieves a string from environment variable with default fallback
func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// String returns a formatted string representation of the config.
// Secrets are never included.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{MaxLines: %d, IteratorMode: %s, MaxConcurrent: %d, IsK8s: %t, CPUs: %d, Source: %s, NATS: %t, Azure: %t, Tracing: %t}",
		c.MaxLines,
		c.IteratorMode,
		c.MaxConcurrent,
		c.IsKubernetes,
		c.EffectiveCPUs,
		c.Source,
		c.NATSURL != "",
		c.AzureConnectionString != "",
		c.TracingEnabled(),
	)
}
