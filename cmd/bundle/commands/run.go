package commands

import (
	"context"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsbundle/pkg/observability"
	"github.com/Sumatoshi-tech/jsbundle/pkg/verify"
)

const defaultRunTimeout = 30 * time.Second

func newRunCommand(fs afero.Fs, global *globalFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run <entry>",
		Short: "Bundle and execute in an embedded JavaScript engine",
		Long: `Bundle entry in memory and execute the result. console output is written
to stdout. Nothing is written to disk.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := startSession(cmd, fs, global, observability.ModeCLI, nil)
			if err != nil {
				return err
			}
			defer sess.close(context.WithoutCancel(cmd.Context()))

			b, err := sess.bundler()
			if err != nil {
				return err
			}

			res, err := b.Build(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if timeout > 0 {
				var cancel context.CancelFunc

				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			return verify.Run(ctx, sess.cfg.Output.Filename, []byte(res.Code), cmd.OutOrStdout())
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultRunTimeout, "Abort execution after this long (0 = no limit)")

	return cmd
}
