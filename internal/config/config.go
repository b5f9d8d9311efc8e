// Package config provides YAML-based configuration for hashfang.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/hashfang/internal/digest"
)

// Config is the top-level configuration struct for hashfang.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Algorithms []string        `mapstructure:"algorithms"`
	Pipeline   PipelineConfig  `mapstructure:"pipeline"`
	Output     OutputConfig    `mapstructure:"output"`
	Walk       WalkConfig      `mapstructure:"walk"`
	Run        RunConfig       `mapstructure:"run"`
	Log        LogConfig       `mapstructure:"log"`
	Telemetry  TelemetryConfig `mapstructure:"telemetry"`
}

// PipelineConfig holds chunked-hashing resource knobs.
// ChunkSize is a human-readable byte size such as "1MiB" or "512KiB".
type PipelineConfig struct {
	ChunkSize       string `mapstructure:"chunk_size"`
	ChannelCapacity int    `mapstructure:"channel_capacity"`
}

// OutputConfig holds report formatting settings.
type OutputConfig struct {
	ShowHeaders bool `mapstructure:"show_headers"`
	Quiet       bool `mapstructure:"quiet"`
	NoColor     bool `mapstructure:"no_color"`
}

// WalkConfig holds directory traversal settings.
type WalkConfig struct {
	FollowSymlinks bool `mapstructure:"follow_symlinks"`
}

// RunConfig holds failure-policy settings.
type RunConfig struct {
	ContinueOnError bool `mapstructure:"continue_on_error"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry export settings.
// An empty OTLPEndpoint disables exporting entirely.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Insecure     bool    `mapstructure:"insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// maxSampleRatio is the upper bound for the telemetry sample ratio.
const maxSampleRatio = 1.0

// Sentinel errors for configuration validation.
var (
	// ErrInvalidChunkSize indicates the chunk size is not a positive byte size.
	ErrInvalidChunkSize = errors.New("pipeline.chunk_size must be a positive size")
	// ErrInvalidChannelCapacity indicates the channel capacity is not positive.
	ErrInvalidChannelCapacity = errors.New("pipeline.channel_capacity must be positive")
	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("log.level must be one of debug, info, warn, error")
	// ErrInvalidSampleRatio indicates the sample ratio is out of range.
	ErrInvalidSampleRatio = errors.New("telemetry.sample_ratio must be between 0 and 1")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	pipelineErr := c.validatePipeline()
	if pipelineErr != nil {
		return pipelineErr
	}

	algoErr := c.validateAlgorithms()
	if algoErr != nil {
		return algoErr
	}

	return c.validateObservability()
}

func (c *Config) validatePipeline() error {
	_, sizeErr := c.ChunkSizeBytes()
	if sizeErr != nil {
		return sizeErr
	}

	if c.Pipeline.ChannelCapacity < 1 {
		return ErrInvalidChannelCapacity
	}

	return nil
}

func (c *Config) validateAlgorithms() error {
	if len(c.Algorithms) == 0 {
		return nil
	}

	_, parseErr := digest.ParseKinds(c.Algorithms)
	if parseErr != nil {
		return fmt.Errorf("algorithms: %w", parseErr)
	}

	return nil
}

func (c *Config) validateObservability() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > maxSampleRatio {
		return ErrInvalidSampleRatio
	}

	return nil
}

// ChunkSizeBytes parses the human-readable chunk size into a byte count.
func (c *Config) ChunkSizeBytes() (int, error) {
	parsed, err := humanize.ParseBytes(c.Pipeline.ChunkSize)
	if err != nil || parsed == 0 || parsed > uint64(math.MaxInt) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChunkSize, c.Pipeline.ChunkSize)
	}

	return int(parsed), nil
}
