// Package config loads jsbundle settings from .jsbundle.yaml and JSBUNDLE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// Config is the top-level configuration struct for jsbundle.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Resolve   ResolveConfig   `mapstructure:"resolve"`
	Output    OutputConfig    `mapstructure:"output"`
	Linker    LinkerConfig    `mapstructure:"linker"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ResolveConfig holds module resolution settings.
type ResolveConfig struct {
	Extensions    []string `mapstructure:"extensions"`
	IndexFile     string   `mapstructure:"index_file"`
	MaxModuleSize string   `mapstructure:"max_module_size"`
}

// OutputConfig holds artifact settings.
type OutputConfig struct {
	Filename string `mapstructure:"filename"`
	Compress bool   `mapstructure:"compress"`
	Metafile string `mapstructure:"metafile"`
	Verify   bool   `mapstructure:"verify"`
}

// LinkerConfig holds module table settings.
type LinkerConfig struct {
	Order string `mapstructure:"order"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry and Prometheus export settings.
type TelemetryConfig struct {
	OTLPEndpoint    string `mapstructure:"otlp_endpoint"`
	OTLPInsecure    bool   `mapstructure:"otlp_insecure"`
	OTLPHeaders     string `mapstructure:"otlp_headers"`
	TraceVerbose    bool   `mapstructure:"trace_verbose"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidExtension indicates a probe extension without a leading dot.
	ErrInvalidExtension = errors.New("resolve.extensions entries must start with '.'")
	// ErrInvalidIndexFile indicates an index basename containing a separator.
	ErrInvalidIndexFile = errors.New("resolve.index_file must be a bare file name")
	// ErrInvalidMaxModuleSize indicates an unparsable or zero size ceiling.
	ErrInvalidMaxModuleSize = errors.New("resolve.max_module_size must be a positive size")
	// ErrInvalidFilename indicates an empty artifact name or one with a directory part.
	ErrInvalidFilename = errors.New("output.filename must be a bare file name")
	// ErrInvalidMetafile indicates a metafile name with an unsupported extension.
	ErrInvalidMetafile = errors.New("output.metafile must end in .json, .yaml or .yml")
	// ErrInvalidOrder indicates an unknown linker order.
	ErrInvalidOrder = errors.New("linker.order must be discovery or topological")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("logging.level must be debug, info, warn or error")
	// ErrInvalidLogFormat indicates an unknown log format.
	ErrInvalidLogFormat = errors.New("logging.format must be text, json or pretty")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	resolveErr := c.validateResolve()
	if resolveErr != nil {
		return resolveErr
	}

	outputErr := c.validateOutput()
	if outputErr != nil {
		return outputErr
	}

	switch c.Linker.Order {
	case "", OrderDiscovery, OrderTopological:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrder, c.Linker.Order)
	}

	return c.validateLogging()
}

func (c *Config) validateResolve() error {
	for _, ext := range c.Resolve.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
		}
	}

	if c.Resolve.IndexFile != "" && !isBareName(c.Resolve.IndexFile) {
		return fmt.Errorf("%w: %q", ErrInvalidIndexFile, c.Resolve.IndexFile)
	}

	if c.Resolve.MaxModuleSize != "" {
		if _, err := c.MaxModuleSizeBytes(); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateOutput() error {
	if !isBareName(c.Output.Filename) {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, c.Output.Filename)
	}

	if c.Output.Metafile == "" {
		return nil
	}

	if !isBareName(c.Output.Metafile) {
		return fmt.Errorf("%w: %q", ErrInvalidMetafile, c.Output.Metafile)
	}

	switch strings.ToLower(filepath.Ext(c.Output.Metafile)) {
	case ".json", ".yaml", ".yml":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMetafile, c.Output.Metafile)
	}
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "text", "json", "pretty":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	return nil
}

// MaxModuleSizeBytes parses resolve.max_module_size ("4MB", "512KiB", "1048576").
// An empty value means the resolver default.
func (c *Config) MaxModuleSizeBytes() (int64, error) {
	if c.Resolve.MaxModuleSize == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(c.Resolve.MaxModuleSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMaxModuleSize, err)
	}

	if n == 0 || n > maxModuleSizeCeiling {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxModuleSize, c.Resolve.MaxModuleSize)
	}

	return int64(n), nil
}

// maxModuleSizeCeiling keeps the parsed size inside int64 and well under
// anything a parser should be handed.
const maxModuleSizeCeiling = 1 << 40

func isBareName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name && !strings.ContainsRune(name, '/')
}
