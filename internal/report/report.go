// Package report renders human-readable build summaries for the terminal.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/jsbundle/pkg/builderr"
	"github.com/Sumatoshi-tech/jsbundle/pkg/bundler"
	"github.com/Sumatoshi-tech/jsbundle/pkg/modgraph"
)

// Modules renders one row per bundled module: its path relative to the
// entry directory, direct dependency count, number of importers, and input
// and output sizes.
func Modules(w io.Writer, res *bundler.Result) error {
	base := filepath.Dir(res.Entry)

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Footer = text.FormatDefault

	tbl.AppendHeader(table.Row{"#", "Module", "Deps", "Used by", "Input", "Output"})

	for i, m := range res.Modules {
		usedBy := 0
		if res.Graph != nil {
			usedBy = len(res.Graph.Importers(m.Path))
		}

		tbl.AppendRow(table.Row{
			i + 1,
			Rel(base, m.Path),
			len(m.Deps),
			usedBy,
			humanize.Bytes(uint64(m.InputBytes)),
			humanize.Bytes(uint64(m.OutputBytes)),
		})
	}

	tbl.AppendFooter(table.Row{
		"", fmt.Sprintf("Total: %d modules", res.Stats.Modules), "", "",
		humanize.Bytes(uint64(res.Stats.InputBytes)),
		humanize.Bytes(uint64(res.Stats.OutputBytes)),
	})

	_, err := fmt.Fprintln(w, tbl.Render())

	return err
}

// Summary prints the one-line success message for an artifact written to path.
func Summary(w io.Writer, res *bundler.Result, path string) {
	color.New(color.FgGreen).Fprintf(w, "bundled %s", path)
	fmt.Fprintf(w, "  %d modules, %s in %s\n",
		res.Stats.Modules,
		humanize.Bytes(uint64(res.Stats.OutputBytes)),
		res.Stats.Total().Round(time.Microsecond),
	)
}

// Failure prints a build error naming its kind.
func Failure(w io.Writer, err error) {
	kind := builderr.Name(err)
	if kind == "" {
		kind = "Error"
	}

	color.New(color.FgRed, color.Bold).Fprintf(w, "%s: ", kind)
	fmt.Fprintln(w, err)
}

// Tree renders the import graph from its entry as an indented tree. A module
// reached again is printed once more with a marker instead of being expanded.
func Tree(w io.Writer, g *modgraph.Graph) error {
	base := filepath.Dir(g.Entry)

	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedLight)

	expanded := make(map[string]bool)

	var visit func(path string, ancestors map[string]bool)

	visit = func(path string, ancestors map[string]bool) {
		label := Rel(base, path)

		switch {
		case ancestors[path]:
			lw.AppendItem(label + " (cycle)")

			return
		case expanded[path]:
			lw.AppendItem(label + " (seen)")

			return
		}

		lw.AppendItem(label)
		expanded[path] = true

		m, ok := g.Module(path)
		if !ok || len(m.Deps) == 0 {
			return
		}

		ancestors[path] = true

		lw.Indent()

		for _, dep := range m.Deps {
			visit(dep, ancestors)
		}

		lw.UnIndent()

		delete(ancestors, path)
	}

	visit(g.Entry, make(map[string]bool))

	_, err := fmt.Fprintln(w, lw.Render())

	return err
}

// Rel returns path relative to base when that does not climb out of base.
func Rel(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}

	return rel
}
