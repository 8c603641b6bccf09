package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsbundle/pkg/observability"
)

func newTransformCommand(fs afero.Fs, global *globalFlags) *cobra.Command {
	var showDiff bool

	cmd := &cobra.Command{
		Use:   "transform <file>",
		Short: "Print one module rewritten for the bundle runtime",
		Long: `Rewrite the import and export statements of a single module into the
require/exports form used inside bundles. Imported specifiers are resolved
but not followed.`,
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

			src, out, err := b.TransformFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if showDiff {
				writeLineDiff(cmd.OutOrStdout(), string(src), string(out))

				return nil
			}

			_, err = cmd.OutOrStdout().Write(out)

			return err
		},
	}

	cmd.Flags().BoolVar(&showDiff, "diff", false, "Show a line diff against the original source")

	return cmd
}

// writeLineDiff prints a line-oriented diff of before and after. Removed
// lines are prefixed with "-", added ones with "+".
func writeLineDiff(w io.Writer, before, after string) {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)

	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")

		for _, line := range strings.Split(text, "\n") {
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				removed.Fprintf(w, "-%s\n", line)
			case diffmatchpatch.DiffInsert:
				added.Fprintf(w, "+%s\n", line)
			case diffmatchpatch.DiffEqual:
				fmt.Fprintf(w, " %s\n", line)
			}
		}
	}
}
