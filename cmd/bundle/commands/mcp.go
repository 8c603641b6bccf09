package commands

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsbundle/internal/config"
	"github.com/Sumatoshi-tech/jsbundle/internal/mcp"
	"github.com/Sumatoshi-tech/jsbundle/pkg/observability"
)

func newMCPCommand(fs afero.Fs, global *globalFlags) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the bundler as tools that AI agents can discover and
invoke:
  - bundle_build: Bundle an entry module, returning or writing the code
  - bundle_graph: Resolve the import graph of an entry module
  - bundle_transform: Rewrite one module's imports and exports`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := startSession(cmd, fs, global, observability.ModeMCP, func(cfg *config.Config) {
				cfg.Logging.Format = string(observability.FormatJSON)

				if debug {
					cfg.Logging.Level = "debug"
					cfg.Telemetry.TraceVerbose = true
				}
			})
			if err != nil {
				return err
			}
			defer sess.close(context.WithoutCancel(cmd.Context()))

			opts, err := sess.bundlerOptions()
			if err != nil {
				return err
			}

			toolMetrics, err := observability.NewToolMetrics(sess.providers.Meter)
			if err != nil {
				return fmt.Errorf("tool metrics: %w", err)
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:  sess.logger(),
				Metrics: toolMetrics,
				Tracer:  sess.providers.Tracer,
				Bundler: opts,
				Fs:      fs,
			})

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}
