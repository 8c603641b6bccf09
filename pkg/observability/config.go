// Package observability provides OpenTelemetry tracing, build metrics, and
// structured logging for every jsbundle entry point (CLI and MCP).
package observability

import "log/slog"

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is a one-shot command.
	ModeCLI AppMode = "cli"
	// ModeMCP is the MCP stdio server.
	ModeMCP AppMode = "mcp"
)

// LogFormat selects the log handler.
type LogFormat string

const (
	// FormatText is slog's key=value text output.
	FormatText LogFormat = "text"
	// FormatJSON is slog's JSON output.
	FormatJSON LogFormat = "json"
	// FormatPretty is a colored console output for humans.
	FormatPretty LogFormat = "pretty"
)

const (
	defaultServiceName        = "jsbundle"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment, e.g. "ci" or "dev".
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export; providers become no-op.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// TraceVerbose keeps the per-module spans that are dropped by default.
	TraceVerbose bool

	// MetricsTextfile, when set, receives a Prometheus text exposition of
	// the collected metrics on shutdown.
	MetricsTextfile string

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogFormat selects text, JSON, or pretty console logs.
	LogFormat LogFormat

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config with defaults for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		LogFormat:          FormatText,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
