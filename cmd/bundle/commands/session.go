// Package commands implements CLI command handlers for bundle.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Sumatoshi-tech/jsbundle/internal/config"
	"github.com/Sumatoshi-tech/jsbundle/pkg/bundler"
	"github.com/Sumatoshi-tech/jsbundle/pkg/linker"
	"github.com/Sumatoshi-tech/jsbundle/pkg/observability"
	"github.com/Sumatoshi-tech/jsbundle/pkg/version"
)

// Persistent flag names shared by every subcommand.
const (
	flagConfig    = "config"
	flagOrder     = "order"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
)

// globalFlags are bound to the root command's persistent flag set.
type globalFlags struct {
	configPath string
	order      string
	logLevel   string
	logFormat  string
}

func (g *globalFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&g.configPath, flagConfig, "", "Config file (default: .jsbundle.yaml in the working or home directory)")
	flags.StringVar(&g.order, flagOrder, config.DefaultLinkerOrder, "Module table order: discovery or topological")
	flags.StringVar(&g.logLevel, flagLogLevel, config.DefaultLoggingLevel, "Log level: debug, info, warn, error")
	flags.StringVar(&g.logFormat, flagLogFormat, config.DefaultLoggingFormat, "Log format: text, json, pretty")
}

// apply copies explicitly set flags over cfg.
func (g *globalFlags) apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed(flagOrder) {
		cfg.Linker.Order = g.order
	}

	if flags.Changed(flagLogLevel) {
		cfg.Logging.Level = g.logLevel
	}

	if flags.Changed(flagLogFormat) {
		cfg.Logging.Format = g.logFormat
	}
}

// session is the per-invocation state: settings, telemetry providers, and
// the filesystem modules are read from.
type session struct {
	cfg       *config.Config
	fs        afero.Fs
	providers observability.Providers
}

// startSession loads configuration, applies flag overrides through override,
// and initializes observability for mode.
func startSession(
	cmd *cobra.Command, fs afero.Fs, global *globalFlags, mode observability.AppMode,
	override func(*config.Config),
) (*session, error) {
	cfg, err := config.LoadConfig(global.configPath)
	if err != nil {
		return nil, err
	}

	global.apply(cmd.Flags(), cfg)

	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate flags: %w", err)
	}

	obsCfg, err := cfg.Observability(mode, version.Version)
	if err != nil {
		return nil, err
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &session{cfg: cfg, fs: fs, providers: providers}, nil
}

func (s *session) logger() *slog.Logger { return s.providers.Logger }

// close flushes telemetry. Failures are logged, not returned.
func (s *session) close(ctx context.Context) {
	if err := s.providers.Shutdown(ctx); err != nil {
		s.logger().Warn("observability shutdown failed", "error", err)
	}
}

// bundlerOptions derives bundler options from the loaded settings.
func (s *session) bundlerOptions() (bundler.Options, error) {
	resolveOpts, err := s.cfg.ResolveOptions(s.fs)
	if err != nil {
		return bundler.Options{}, err
	}

	metrics, err := observability.NewBuildMetrics(s.providers.Meter)
	if err != nil {
		return bundler.Options{}, fmt.Errorf("build metrics: %w", err)
	}

	return bundler.Options{
		Resolve: resolveOpts,
		Order:   linker.Order(s.cfg.Linker.Order),
		Logger:  s.logger(),
		Tracer:  s.providers.Tracer,
		Metrics: metrics,
		Verify:  s.cfg.Output.Verify,
	}, nil
}

func (s *session) bundler() (*bundler.Bundler, error) {
	opts, err := s.bundlerOptions()
	if err != nil {
		return nil, err
	}

	return bundler.New(opts)
}
