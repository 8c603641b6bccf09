package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsbundle/internal/artifact"
	"github.com/Sumatoshi-tech/jsbundle/internal/config"
	"github.com/Sumatoshi-tech/jsbundle/internal/report"
	"github.com/Sumatoshi-tech/jsbundle/pkg/bundler"
	"github.com/Sumatoshi-tech/jsbundle/pkg/metafile"
	"github.com/Sumatoshi-tech/jsbundle/pkg/observability"
	"github.com/Sumatoshi-tech/jsbundle/pkg/version"
)

// usageLine is printed when the entry or output directory is missing.
const usageLine = "usage: bundle [entry point] [output directory]"

// BuildCommand holds the flags of the root build command.
type BuildCommand struct {
	fs       afero.Fs
	global   globalFlags
	report   bool
	metafile string
	compress bool
	verify   bool
}

// NewRootCommand creates the bundle command tree reading and writing
// through fs.
func NewRootCommand(fs afero.Fs) *cobra.Command {
	bc := &BuildCommand{fs: fs}

	cmd := &cobra.Command{
		Use:   "bundle [entry point] [output directory]",
		Short: "Bundle a JavaScript ES-module program into one script",
		Long: `Bundle resolves every relative import reachable from an entry module,
rewrites each module's imports and exports, and writes a single self-contained
script to the output directory.

Commands:
  transform  Print one module rewritten for the bundle runtime
  graph      Show the resolved import graph
  run        Bundle and execute in an embedded JavaScript engine
  meta       Work with build metafiles
  mcp        Start the MCP server`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          bc.run,
	}

	bc.global.register(cmd.PersistentFlags())

	cmd.Flags().BoolVar(&bc.report, "report", false, "Print a per-module size table")
	cmd.Flags().StringVar(&bc.metafile, "metafile", "", "Write a build metafile with this name into the output directory (.json or .yaml)")
	cmd.Flags().BoolVar(&bc.compress, "compress", false, "Also write an lz4-compressed copy of the bundle")
	cmd.Flags().BoolVar(&bc.verify, "verify", false, "Compile the bundle before writing it")

	cmd.AddCommand(newTransformCommand(fs, &bc.global))
	cmd.AddCommand(newGraphCommand(fs, &bc.global))
	cmd.AddCommand(newRunCommand(fs, &bc.global))
	cmd.AddCommand(newMetaCommand(fs))
	cmd.AddCommand(newMCPCommand(fs, &bc.global))
	cmd.AddCommand(versionCmd())

	return cmd
}

func (bc *BuildCommand) override(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()

		if flags.Changed("metafile") {
			cfg.Output.Metafile = bc.metafile
		}

		if flags.Changed("compress") {
			cfg.Output.Compress = bc.compress
		}

		if flags.Changed("verify") {
			cfg.Output.Verify = bc.verify
		}
	}
}

func (bc *BuildCommand) run(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(cmd.OutOrStdout(), usageLine)

		return nil
	}

	entry, outDir := args[0], args[1]

	sess, err := startSession(cmd, bc.fs, &bc.global, observability.ModeCLI, bc.override(cmd))
	if err != nil {
		return err
	}
	defer sess.close(context.WithoutCancel(cmd.Context()))

	b, err := sess.bundler()
	if err != nil {
		return err
	}

	res, err := b.Build(cmd.Context(), entry)
	if err != nil {
		return err
	}

	path, err := bc.publish(sess.cfg, res, outDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if bc.report {
		if err := report.Modules(out, res); err != nil {
			return err
		}
	}

	report.Summary(out, res, path)

	return nil
}

// publish writes the bundle and its optional companions into outDir and
// returns the bundle path.
func (bc *BuildCommand) publish(cfg *config.Config, res *bundler.Result, outDir string) (string, error) {
	w := artifact.NewWriter(bc.fs, outDir)
	name := cfg.Output.Filename

	path, err := w.Write(name, []byte(res.Code))
	if err != nil {
		return "", err
	}

	compressed := 0

	if cfg.Output.Compress {
		_, compressed, err = w.WriteCompressed(name, []byte(res.Code))
		if err != nil {
			return "", err
		}
	}

	if cfg.Output.Metafile == "" {
		return path, nil
	}

	format, err := metafile.FormatFor(cfg.Output.Metafile)
	if err != nil {
		return "", err
	}

	mf := metafile.New(res, name, version.Version)
	if cfg.Output.Compress {
		mf.SetCompressed(name, compressed)
	}

	_, err = w.WriteWith(cfg.Output.Metafile, func(dst io.Writer) error {
		return mf.Encode(dst, format)
	})
	if err != nil {
		return "", err
	}

	return path, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bundle %s\n", version.String())
		},
	}
}
