package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsbundle/pkg/metafile"
)

func newMetaCommand(fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Work with build metafiles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "validate <file>",
		Short:         "Check a metafile against the metafile schema",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := metafile.FormatFor(args[0])
			if err != nil {
				return err
			}

			data, err := afero.ReadFile(fs, args[0])
			if err != nil {
				return fmt.Errorf("read metafile: %w", err)
			}

			violations, err := metafile.Validate(data, format)
			if err != nil && !errors.Is(err, metafile.ErrInvalid) {
				return err
			}

			out := cmd.OutOrStdout()

			for _, v := range violations {
				fmt.Fprintf(out, "  %s\n", v)
			}

			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			color.New(color.FgGreen).Fprintf(out, "%s is valid\n", args[0])

			return nil
		},
	})

	return cmd
}
