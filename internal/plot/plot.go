// Package plot renders the module graph as an interactive force-directed
// HTML page.
package plot

import (
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/jsbundle/internal/report"
	"github.com/Sumatoshi-tech/jsbundle/pkg/modgraph"
)

const (
	chartWidth     = "100%"
	chartHeight    = "800px"
	repulsion      = 300
	edgeLength     = 90
	minSymbolSize  = 12
	maxSymbolSize  = 48
	entryColor     = "#c23531"
	moduleColor    = "#2f4554"
	symbolSizeBase = 4
)

// Graph writes an HTML page showing every module of g as a node sized by
// its source length, with an arrow from each importer to its dependencies.
func Graph(w io.Writer, g *modgraph.Graph) error {
	base := filepath.Dir(g.Entry)

	nodes := make([]opts.GraphNode, 0, g.Len())

	for _, m := range g.Modules() {
		color := moduleColor
		if m.Path == g.Entry {
			color = entryColor
		}

		nodes = append(nodes, opts.GraphNode{
			Name:       report.Rel(base, m.Path),
			Value:      float32(len(m.Source)),
			SymbolSize: symbolSize(len(m.Source)),
			ItemStyle:  &opts.ItemStyle{Color: color},
		})
	}

	edges := g.Edges()
	links := make([]opts.GraphLink, 0, len(edges))

	for _, e := range edges {
		links = append(links, opts.GraphLink{
			Source: report.Rel(base, e.Importer),
			Target: report.Rel(base, e.Target),
		})
	}

	chart := charts.NewGraph()
	chart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Module graph",
			Subtitle: fmt.Sprintf("%s: %d modules, %d imports", report.Rel(base, g.Entry), len(nodes), len(links)),
			Left:     "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
	)
	chart.AddSeries("modules", nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout:     "force",
			Roam:       opts.Bool(true),
			Draggable:  opts.Bool(true),
			EdgeSymbol: []string{"none", "arrow"},
			Force: &opts.GraphForce{
				Repulsion:  repulsion,
				EdgeLength: edgeLength,
			},
		}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right"}),
	)

	if err := chart.Render(w); err != nil {
		return fmt.Errorf("render module graph: %w", err)
	}

	return nil
}

// symbolSize grows logarithmically with the module size.
func symbolSize(n int) float64 {
	size := symbolSizeBase * math.Log2(float64(n)+1)

	return math.Max(minSymbolSize, math.Min(maxSymbolSize, size))
}
