package config

// Pipeline defaults.
const (
	DefaultPipelineChunkSize       = "1MiB"
	DefaultPipelineChannelCapacity = 10
)

// Output defaults.
const (
	DefaultOutputShowHeaders = false
	DefaultOutputQuiet       = false
	DefaultOutputNoColor     = false
)

// Walk defaults.
const (
	DefaultWalkFollowSymlinks = true
)

// Run defaults.
const (
	DefaultRunContinueOnError = false
)

// Log defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)

// Telemetry defaults.
const (
	DefaultTelemetryOTLPEndpoint = ""
	DefaultTelemetryInsecure     = false
	DefaultTelemetrySampleRatio  = 1.0
)
