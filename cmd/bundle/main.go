// Package main provides the entry point for the bundle CLI tool.
package main

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/afero"

	"github.com/Sumatoshi-tech/jsbundle/cmd/bundle/commands"
	"github.com/Sumatoshi-tech/jsbundle/internal/report"
	"github.com/Sumatoshi-tech/jsbundle/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := commands.NewRootCommand(afero.NewOsFs())

	err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.String()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			report.Failure(w, err)
		}),
	)
	if err != nil {
		os.Exit(1)
	}
}
