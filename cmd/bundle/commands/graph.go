package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/jsbundle/internal/artifact"
	"github.com/Sumatoshi-tech/jsbundle/internal/plot"
	"github.com/Sumatoshi-tech/jsbundle/internal/report"
	"github.com/Sumatoshi-tech/jsbundle/pkg/linker"
	"github.com/Sumatoshi-tech/jsbundle/pkg/modgraph"
	"github.com/Sumatoshi-tech/jsbundle/pkg/observability"
)

// Graph output formats.
const (
	graphFormatTree = "tree"
	graphFormatJSON = "json"
	graphFormatYAML = "yaml"
	graphFormatDot  = "dot"
)

// ErrUnknownGraphFormat is returned for an unsupported --format value.
var ErrUnknownGraphFormat = errors.New("unknown graph format")

// GraphDump is the serialized form of a module graph.
type GraphDump struct {
	Entry   string       `json:"entry"   yaml:"entry"`
	Order   string       `json:"order"   yaml:"order"`
	Modules []GraphEntry `json:"modules" yaml:"modules"`
}

// GraphEntry is one module and its direct dependencies.
type GraphEntry struct {
	Path string   `json:"path"           yaml:"path"`
	Deps []string `json:"deps,omitempty" yaml:"deps,omitempty"`
}

func newGraphCommand(fs afero.Fs, global *globalFlags) *cobra.Command {
	var (
		format   string
		htmlPath string
	)

	cmd := &cobra.Command{
		Use:           "graph <entry>",
		Short:         "Show the resolved import graph",
		Long:          "Resolve every module reachable from entry and print the import graph.",
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

			graph, err := b.Discover(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			order := linker.Order(sess.cfg.Linker.Order)

			if err := writeGraph(cmd.OutOrStdout(), graph, order, format); err != nil {
				return err
			}

			if htmlPath == "" {
				return nil
			}

			_, err = artifact.NewWriter(fs, filepath.Dir(htmlPath)).
				WriteWith(filepath.Base(htmlPath), func(w io.Writer) error {
					return plot.Graph(w, graph)
				})

			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", graphFormatTree, "Output format: tree, json, yaml, dot")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Also write an interactive HTML graph to this path")

	return cmd
}

func writeGraph(w io.Writer, graph *modgraph.Graph, order linker.Order, format string) error {
	switch format {
	case graphFormatTree:
		return report.Tree(w, graph)
	case graphFormatDot:
		paths, err := linker.Flatten(graph, order)
		if err != nil {
			return err
		}

		_, err = io.WriteString(w, linker.DependencyGraph(graph).Serialize("modules", paths))

		return err
	case graphFormatJSON, graphFormatYAML:
		dump, err := dumpGraph(graph, order)
		if err != nil {
			return err
		}

		if format == graphFormatYAML {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)

			if err := enc.Encode(dump); err != nil {
				return fmt.Errorf("encode graph: %w", err)
			}

			return enc.Close()
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(dump)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGraphFormat, format)
	}
}

func dumpGraph(graph *modgraph.Graph, order linker.Order) (GraphDump, error) {
	paths, err := linker.Flatten(graph, order)
	if err != nil {
		return GraphDump{}, err
	}

	dump := GraphDump{Entry: graph.Entry, Order: string(order), Modules: make([]GraphEntry, 0, len(paths))}

	for _, path := range paths {
		m, ok := graph.Module(path)
		if !ok {
			continue
		}

		dump.Modules = append(dump.Modules, GraphEntry{Path: path, Deps: m.Deps})
	}

	return dump, nil
}
