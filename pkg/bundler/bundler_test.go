package bundler_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/jsbundle/pkg/builderr"
	"github.com/Sumatoshi-tech/jsbundle/pkg/bundler"
	"github.com/Sumatoshi-tech/jsbundle/pkg/linker"
	"github.com/Sumatoshi-tech/jsbundle/pkg/modgraph"
	"github.com/Sumatoshi-tech/jsbundle/pkg/observability"
)

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, src := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(src), 0o644))
	}

	return fs
}

func newBundler(t *testing.T, files map[string]string, opts bundler.Options) *bundler.Bundler {
	t.Helper()

	opts.Resolve.Fs = memFs(t, files)

	b, err := bundler.New(opts)
	require.NoError(t, err)

	return b
}

// run executes a bundle and returns the strings passed to trace().
func run(t *testing.T, code string) []string {
	t.Helper()

	var traced []string

	vm := goja.New()
	require.NoError(t, vm.Set("trace", func(s string) { traced = append(traced, s) }))

	_, err := vm.RunString(code)
	require.NoError(t, err, code)

	return traced
}

func TestBuild_RoundTripShapes(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/app/main.js": `import greet from "./greet.js";
import { add, mul as times } from "./math.js";
import * as consts from "./consts.js";
import label, { suffix } from "./label.js";
import { twice } from "./reexport.js";
import "./effect.js";

trace(greet("bundle"));
trace(String(add(1, 2)) + " " + String(times(2, 3)));
trace(String(consts.ANSWER) + " " + consts.NAME);
trace(label + suffix);
trace(String(twice(4)));
`,
		"/app/greet.js": `export default function greet(name) {
  return "hello " + name;
}
`,
		"/app/math.js": `export const add = (a, b) => a + b;
export function mul(a, b) {
  return a * b;
}
const double = (x) => add(x, x);
export { double };
`,
		"/app/consts.js": `export const ANSWER = 42, NAME = "consts";
`,
		"/app/label.js": `export const suffix = "!";
export default "label";
`,
		"/app/reexport.js": `export { double as twice } from "./math.js";
`,
		"/app/effect.js": `trace("effect");
`,
	}

	res, err := newBundler(t, files, bundler.Options{Verify: true}).Build(context.Background(), "/app/main.js")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"effect",
		"hello bundle",
		"3 6",
		"42 consts",
		"label!",
		"8",
	}, run(t, res.Code))
}

func TestBuild_DiamondLoadsSharedModuleOnce(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/d/main.js":   `import { b } from "./b.js"; import { c } from "./c.js"; trace(b + c);`,
		"/d/b.js":      `import { shared } from "./shared.js"; export const b = "b" + shared;`,
		"/d/c.js":      `import { shared } from "./shared.js"; export const c = "c" + shared;`,
		"/d/shared.js": `trace("shared"); export const shared = "s";`,
	}

	res, err := newBundler(t, files, bundler.Options{}).Build(context.Background(), "/d/main.js")
	require.NoError(t, err)

	assert.Equal(t, 4, res.Stats.Modules)
	assert.Equal(t, 1, strings.Count(res.Code, `"/d/shared.js": function`))
	assert.Equal(t, []string{"shared", "bscs"}, run(t, res.Code))
}

func TestBuild_CycleTerminatesAndSeesPartialExports(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/c/a.js": `import { fromB, readA } from "./b.js";
export const fromA = "A";
trace(fromB + readA());
`,
		"/c/b.js": `import * as a from "./a.js";
export const fromB = "B";
export function readA() {
  return a.fromA;
}
trace("b sees " + typeof a.fromA);
`,
	}

	res, err := newBundler(t, files, bundler.Options{}).Build(context.Background(), "/c/a.js")
	require.NoError(t, err)

	assert.Equal(t, []string{"b sees undefined", "BA"}, run(t, res.Code))
}

func TestBuild_SelfImport(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/s/main.js": `import * as self from "./main.js";
export const name = "self";
trace(self.name);
`,
	}

	res, err := newBundler(t, files, bundler.Options{}).Build(context.Background(), "/s/main.js")
	require.NoError(t, err)

	assert.Equal(t, []string{"self"}, run(t, res.Code))
}

func TestBuild_OwnExportOverridesStarReexport(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/r/main.js": `import { x, y } from "./r.js";
import { x as strictX } from "./strict.js";
trace(String(x) + y);
trace(String(strictX));
`,
		"/r/r.js": `export * from "./m.js";
export const x = 2;
`,
		"/r/strict.js": `"use strict";
export * from "./m.js";
const x = 3;
export { x };
`,
		"/r/m.js": `export const x = 1;
export const y = "y";
`,
	}

	res, err := newBundler(t, files, bundler.Options{}).Build(context.Background(), "/r/main.js")
	require.NoError(t, err)

	assert.Equal(t, []string{"2y", "3"}, run(t, res.Code))
}

func TestBuild_NamedReexportLoadsSourceEagerly(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/n/main.js": `import "./r.js";
import { v } from "./m.js";
trace("main " + String(v));
`,
		"/n/r.js": `export { v as w } from "./m.js";
`,
		"/n/m.js": `trace("m");
export const v = 1;
`,
	}

	res, err := newBundler(t, files, bundler.Options{}).Build(context.Background(), "/n/main.js")
	require.NoError(t, err)

	assert.Equal(t, []string{"m", "main 1"}, run(t, res.Code))
}

func TestBuild_IsDeterministic(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/p/main.js": `import { x } from "./x.js"; import { y } from "./y.js"; trace(x + y);`,
		"/p/x.js":    `import { y } from "./y.js"; export const x = "x" + y;`,
		"/p/y.js":    `export const y = "y";`,
	}

	for _, order := range []linker.Order{linker.OrderDiscovery, linker.OrderTopological} {
		b := newBundler(t, files, bundler.Options{Order: order})

		first, err := b.Build(context.Background(), "/p/main.js")
		require.NoError(t, err)

		second, err := b.Build(context.Background(), "/p/main.js")
		require.NoError(t, err)

		assert.Equal(t, first.Code, second.Code, order)
		assert.Equal(t, []string{"xyy"}, run(t, first.Code), order)
	}
}

func TestBuild_ModuleOrder(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/o/main.js": `import "./a.js"; import "./b.js";`,
		"/o/a.js":    `import "./leaf.js";`,
		"/o/b.js":    `export const b = 1;`,
		"/o/leaf.js": `export const leaf = 1;`,
	}

	paths := func(res *bundler.Result) []string {
		out := make([]string, len(res.Modules))
		for i, m := range res.Modules {
			out[i] = m.Path
		}

		return out
	}

	res, err := newBundler(t, files, bundler.Options{}).Build(context.Background(), "/o/main.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"/o/main.js", "/o/a.js", "/o/leaf.js", "/o/b.js"}, paths(res))

	res, err = newBundler(t, files, bundler.Options{Order: linker.OrderTopological}).
		Build(context.Background(), "/o/main.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"/o/leaf.js", "/o/a.js", "/o/b.js", "/o/main.js"}, paths(res))
	assert.Equal(t, linker.OrderTopological, res.Order)
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
		entry string
		kind  error
	}{
		{
			name:  "missing entry",
			files: map[string]string{},
			entry: "/e/main.js",
			kind:  builderr.ErrSourceRead,
		},
		{
			name:  "missing dependency",
			files: map[string]string{"/e/main.js": `import { x } from "./gone.js";`},
			entry: "/e/main.js",
			kind:  builderr.ErrSourceRead,
		},
		{
			name:  "bare specifier",
			files: map[string]string{"/e/main.js": `import _ from "lodash";`},
			entry: "/e/main.js",
			kind:  builderr.ErrPathResolution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := newBundler(t, tt.files, bundler.Options{}).Build(context.Background(), tt.entry)
			require.ErrorIs(t, err, tt.kind)
			assert.Nil(t, res)
		})
	}
}

func TestBuild_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newBundler(t, map[string]string{"/x/main.js": `trace("x");`}, bundler.Options{})

	_, err := b.Build(ctx, "/x/main.js")
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuild_StatsAndModules(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/m/main.js": `import { v } from "./v.js";
trace(v);
`,
		"/m/v.js": `export const v = "v";
`,
	}

	res, err := newBundler(t, files, bundler.Options{}).Build(context.Background(), "/m/main.js")
	require.NoError(t, err)

	assert.Equal(t, "/m/main.js", res.Entry)
	assert.Equal(t, 2, res.Stats.Modules)
	assert.Equal(t, len(files["/m/main.js"])+len(files["/m/v.js"]), res.Stats.InputBytes)
	assert.Equal(t, len(res.Code), res.Stats.OutputBytes)
	assert.Equal(t, []string{"/m/v.js"}, res.Modules[0].Deps)
	assert.Contains(t, res.Modules[0].Body, `require("/m/v.js")`)
	assert.Equal(t, len(res.Modules[0].Body), res.Modules[0].OutputBytes)
	assert.Equal(t, 2, res.Graph.Len())
}

func TestBuild_EmitsPhaseSpans(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	b := newBundler(t, map[string]string{"/t/main.js": `trace("t");`}, bundler.Options{
		Tracer: tp.Tracer("test"),
	})

	_, err := b.Build(context.Background(), "/t/main.js")
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, s := range exporter.GetSpans() {
		names[s.Name] = true
	}

	for _, name := range []string{
		"jsbundle.build",
		"jsbundle.resolve",
		"jsbundle.transform",
		"jsbundle.link",
		observability.SpanModuleTransform,
	} {
		assert.True(t, names[name], name)
	}
}

func TestBuild_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := observability.NewBuildMetrics(mp.Meter("test"))
	require.NoError(t, err)

	b := newBundler(t, map[string]string{"/t/main.js": `trace("t");`}, bundler.Options{Metrics: metrics})

	_, err = b.Build(context.Background(), "/t/main.js")
	require.NoError(t, err)

	_, err = b.Build(context.Background(), "/t/missing.js")
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var builds int64

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "jsbundle.builds.total" {
				continue
			}

			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)

			for _, dp := range sum.DataPoints {
				builds += dp.Value
			}
		}
	}

	assert.Equal(t, int64(2), builds)
}

func TestNew_RejectsUnknownOrder(t *testing.T) {
	t.Parallel()

	_, err := bundler.New(bundler.Options{Order: "random"})
	require.ErrorIs(t, err, linker.ErrUnknownOrder)
}

func TestTransformFile(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/f/main.js": `import { v } from "./v";
export const w = v;
`,
		"/f/v.js": `export const v = 1;`,
	}

	b, err := bundler.New(bundler.Options{Resolve: modgraph.Options{Fs: memFs(t, files)}})
	require.NoError(t, err)

	src, out, err := b.TransformFile(context.Background(), "/f/main.js")
	require.NoError(t, err)

	assert.Equal(t, files["/f/main.js"], string(src))
	assert.Equal(t, `const { v } = require("/f/v.js");
const w = exports.w = v;
`, string(out))
}
