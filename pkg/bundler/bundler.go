// Package bundler runs the full build: resolve the module graph from an
// entry, flatten it, rewrite every module, and link the bundle program.
package bundler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/jsbundle/pkg/builderr"
	"github.com/Sumatoshi-tech/jsbundle/pkg/linker"
	"github.com/Sumatoshi-tech/jsbundle/pkg/modgraph"
	"github.com/Sumatoshi-tech/jsbundle/pkg/observability"
	"github.com/Sumatoshi-tech/jsbundle/pkg/syntax"
	"github.com/Sumatoshi-tech/jsbundle/pkg/transform"
	"github.com/Sumatoshi-tech/jsbundle/pkg/verify"
)

const tracerName = "jsbundle"

// Span names for the build phases.
const (
	spanBuild     = "jsbundle.build"
	spanResolve   = "jsbundle.resolve"
	spanTransform = "jsbundle.transform"
	spanLink      = "jsbundle.link"
)

// verifyName is the script name reported by the syntax check.
const verifyName = "bundle.js"

// Options configures a Bundler.
type Options struct {
	// Resolve configures module discovery. Its Parser and Logger default to
	// the bundler's own.
	Resolve modgraph.Options

	// Order selects the module table layout. Empty means discovery order.
	Order linker.Order

	// Logger receives build progress. Nil discards.
	Logger *slog.Logger

	// Tracer creates the build and phase spans.
	// When nil, falls back to otel.Tracer("jsbundle").
	Tracer trace.Tracer

	// Metrics records per-build counters. Nil records nothing.
	Metrics *observability.BuildMetrics

	// Verify compiles the linked program before returning it.
	Verify bool
}

// Bundler builds bundles. It holds no per-build state and is safe for
// concurrent use.
type Bundler struct {
	resolver    *modgraph.Resolver
	transformer *transform.Transformer
	order       linker.Order
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *observability.BuildMetrics
	verify      bool
}

// New creates a Bundler from opts.
func New(opts Options) (*Bundler, error) {
	order, err := linker.ParseOrder(string(opts.Order))
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	parser := opts.Resolve.Parser
	if parser == nil {
		parser = syntax.NewParser()
	}

	resolveOpts := opts.Resolve
	resolveOpts.Parser = parser

	if resolveOpts.Logger == nil {
		resolveOpts.Logger = logger
	}

	transformer, err := transform.New(parser)
	if err != nil {
		return nil, fmt.Errorf("create transformer: %w", err)
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &Bundler{
		resolver:    modgraph.NewResolver(resolveOpts),
		transformer: transformer,
		order:       order,
		logger:      logger,
		tracer:      tracer,
		metrics:     opts.Metrics,
		verify:      opts.Verify,
	}, nil
}

// Module describes one bundled module.
type Module struct {
	Path        string
	Deps        []string
	InputBytes  int
	OutputBytes int
	Body        string
}

// Stats summarizes a build.
type Stats struct {
	Modules     int
	InputBytes  int
	OutputBytes int
	Resolve     time.Duration
	Transform   time.Duration
	Link        time.Duration
}

// Total is the wall time of the three phases.
func (s Stats) Total() time.Duration { return s.Resolve + s.Transform + s.Link }

// Result is a finished build.
type Result struct {
	// Entry is the canonical entry path.
	Entry string
	// Code is the complete bundle program.
	Code string
	// Order is the layout the module table was emitted in.
	Order linker.Order
	// Graph is the discovered module graph.
	Graph *modgraph.Graph
	// Modules lists the table entries in emission order.
	Modules []Module
	Stats   Stats
}

// Build bundles entry and everything it imports. Any failure aborts the
// build and no partial result is returned.
func (b *Bundler) Build(ctx context.Context, entry string) (*Result, error) {
	ctx, span := b.tracer.Start(ctx, spanBuild, trace.WithAttributes(
		attribute.String("build.entry", entry),
		attribute.String("build.order", string(b.order)),
	))
	defer span.End()

	res, err := b.build(ctx, entry)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.type", builderr.Name(err)))
		b.metrics.RecordFailure(ctx, builderr.Name(err))

		return nil, err
	}

	span.SetAttributes(
		attribute.Int("build.modules", res.Stats.Modules),
		attribute.Int("build.bytes_in", res.Stats.InputBytes),
		attribute.Int("build.bytes_out", res.Stats.OutputBytes),
	)

	b.metrics.RecordBuild(ctx, observability.BuildStats{
		Modules:     res.Stats.Modules,
		InputBytes:  res.Stats.InputBytes,
		OutputBytes: res.Stats.OutputBytes,
		Phases: map[string]time.Duration{
			observability.PhaseResolve:   res.Stats.Resolve,
			observability.PhaseTransform: res.Stats.Transform,
			observability.PhaseLink:      res.Stats.Link,
		},
	})

	b.logger.InfoContext(ctx, "bundle built",
		"entry", res.Entry,
		"modules", res.Stats.Modules,
		"bytes", res.Stats.OutputBytes,
		"duration", res.Stats.Total(),
	)

	return res, nil
}

func (b *Bundler) build(ctx context.Context, entry string) (*Result, error) {
	res := &Result{Order: b.order}

	start := time.Now()

	graph, err := b.Discover(ctx, entry)
	if err != nil {
		return nil, err
	}

	res.Entry = graph.Entry
	res.Graph = graph
	res.Stats.Resolve = time.Since(start)

	start = time.Now()

	table, modules, err := b.transformAll(ctx, graph)
	if err != nil {
		return nil, err
	}

	res.Modules = modules
	res.Stats.Transform = time.Since(start)

	start = time.Now()

	code, err := b.link(ctx, table, graph.Entry)
	if err != nil {
		return nil, err
	}

	res.Code = code
	res.Stats.Link = time.Since(start)

	res.Stats.Modules = len(modules)
	res.Stats.OutputBytes = len(code)

	for _, m := range modules {
		res.Stats.InputBytes += m.InputBytes
	}

	return res, nil
}

// Discover resolves the module graph of entry without transforming it.
func (b *Bundler) Discover(ctx context.Context, entry string) (*modgraph.Graph, error) {
	ctx, span := b.tracer.Start(ctx, spanResolve)
	defer span.End()

	graph, err := b.resolver.Discover(ctx, entry)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(attribute.Int("build.modules", graph.Len()))

	return graph, nil
}

func (b *Bundler) transformAll(ctx context.Context, graph *modgraph.Graph) (*linker.Table, []Module, error) {
	ctx, span := b.tracer.Start(ctx, spanTransform)
	defer span.End()

	paths, err := linker.Flatten(graph, b.order)
	if err != nil {
		return nil, nil, err
	}

	table := linker.NewTable()
	modules := make([]Module, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("transform %s: %w", path, err)
		}

		m, ok := graph.Module(path)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", errMissingModule, path)
		}

		body, err := b.transformModule(ctx, m)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())

			return nil, nil, err
		}

		if err := table.Add(path, string(body)); err != nil {
			return nil, nil, err
		}

		modules = append(modules, Module{
			Path:        path,
			Deps:        append([]string(nil), m.Deps...),
			InputBytes:  len(m.Source),
			OutputBytes: len(body),
			Body:        string(body),
		})
	}

	return table, modules, nil
}

var errMissingModule = errors.New("flattened path missing from graph")

func (b *Bundler) transformModule(ctx context.Context, m *modgraph.Module) ([]byte, error) {
	ctx, span := b.tracer.Start(ctx, observability.SpanModuleTransform,
		trace.WithAttributes(attribute.String("module.path", m.Path)))
	defer span.End()

	return b.transformer.Transform(ctx, m.Path, m.Source, m.Resolve)
}

func (b *Bundler) link(ctx context.Context, table *linker.Table, entry string) (string, error) {
	_, span := b.tracer.Start(ctx, spanLink)
	defer span.End()

	code, err := linker.Link(table, entry)
	if err != nil {
		return "", err
	}

	if b.verify {
		if err := verify.Check(verifyName, []byte(code)); err != nil {
			return "", fmt.Errorf("verify bundle: %w", err)
		}
	}

	return code, nil
}

// TransformFile rewrites the single module at path, resolving its imports
// against the filesystem without following them.
func (b *Bundler) TransformFile(ctx context.Context, path string) (source, rewritten []byte, err error) {
	m, err := b.resolver.Load(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	out, err := b.transformModule(ctx, m)
	if err != nil {
		return nil, nil, err
	}

	return m.Source, out, nil
}
