package config_test

import (
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/jsbundle/internal/config"
	"github.com/Sumatoshi-tech/jsbundle/pkg/observability"
)

func TestResolveOptions(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	cfg := config.Default()
	cfg.Resolve.Extensions = []string{".mjs"}
	cfg.Resolve.MaxModuleSize = "1KiB"

	opts, err := cfg.ResolveOptions(fs)
	require.NoError(t, err)

	assert.Same(t, fs, opts.Fs)
	assert.Equal(t, []string{".mjs"}, opts.Extensions)
	assert.Equal(t, "index", opts.IndexFile)
	assert.Equal(t, int64(1024), opts.MaxModuleSize)
}

func TestResolveOptions_EmptyLeavesDefaults(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}

	opts, err := cfg.ResolveOptions(nil)
	require.NoError(t, err)

	assert.Nil(t, opts.Extensions)
	assert.Empty(t, opts.IndexFile)
	assert.Zero(t, opts.MaxModuleSize)
}

func TestSlogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := config.Config{Logging: config.LoggingConfig{Level: tt.in}}
		assert.Equal(t, tt.want, cfg.SlogLevel(), tt.in)
	}
}

func TestObservability(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "debug"
	cfg.Telemetry.OTLPEndpoint = "localhost:4317"
	cfg.Telemetry.OTLPHeaders = "authorization=token"
	cfg.Telemetry.MetricsTextfile = "/tmp/jsbundle.prom"

	obs, err := cfg.Observability(observability.ModeMCP, "v1.2.3")
	require.NoError(t, err)

	assert.Equal(t, "jsbundle", obs.ServiceName)
	assert.Equal(t, "v1.2.3", obs.ServiceVersion)
	assert.Equal(t, observability.ModeMCP, obs.Mode)
	assert.Equal(t, observability.FormatJSON, obs.LogFormat)
	assert.Equal(t, slog.LevelDebug, obs.LogLevel)
	assert.Equal(t, "localhost:4317", obs.OTLPEndpoint)
	assert.Equal(t, map[string]string{"authorization": "token"}, obs.OTLPHeaders)
	assert.Equal(t, "/tmp/jsbundle.prom", obs.MetricsTextfile)
}

func TestObservability_RejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Logging.Format = "xml"

	_, err := cfg.Observability(observability.ModeCLI, "")
	require.ErrorIs(t, err, config.ErrInvalidLogFormat)
}
