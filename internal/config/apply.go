package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/Sumatoshi-tech/jsbundle/pkg/modgraph"
	"github.com/Sumatoshi-tech/jsbundle/pkg/observability"
)

// ResolveOptions converts the resolve section into resolver options reading
// from fs. Empty values are left zero so the resolver applies its defaults.
func (c *Config) ResolveOptions(fs afero.Fs) (modgraph.Options, error) {
	maxSize, err := c.MaxModuleSizeBytes()
	if err != nil {
		return modgraph.Options{}, err
	}

	opts := modgraph.Options{
		Fs:            fs,
		IndexFile:     c.Resolve.IndexFile,
		MaxModuleSize: maxSize,
	}

	if len(c.Resolve.Extensions) > 0 {
		opts.Extensions = append([]string(nil), c.Resolve.Extensions...)
	}

	return opts, nil
}

// SlogLevel returns logging.level as an slog level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Observability builds the telemetry configuration for the given mode and
// binary version.
func (c *Config) Observability(mode observability.AppMode, version string) (observability.Config, error) {
	format, err := observability.ParseLogFormat(c.Logging.Format)
	if err != nil {
		return observability.Config{}, fmt.Errorf("%w: %w", ErrInvalidLogFormat, err)
	}

	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.Mode = mode
	cfg.LogLevel = c.SlogLevel()
	cfg.LogFormat = format
	cfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	cfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	cfg.TraceVerbose = c.Telemetry.TraceVerbose
	cfg.MetricsTextfile = c.Telemetry.MetricsTextfile

	return cfg, nil
}
