package transform_test

import (
	"context"
	"errors"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/jsbundle/pkg/builderr"
	"github.com/Sumatoshi-tech/jsbundle/pkg/transform"
)

func resolveUnderAbs(specifier string) (string, error) {
	return path.Join("/abs", specifier), nil
}

func newTransformer(t *testing.T) *transform.Transformer {
	t.Helper()

	tr, err := transform.New(nil)
	require.NoError(t, err)

	return tr
}

func run(t *testing.T, src string) string {
	t.Helper()

	out, err := newTransformer(t).Transform(context.Background(), "/abs/main.js", []byte(src), resolveUnderAbs)
	require.NoError(t, err)

	return string(out)
}

func TestTransform_Imports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "default",
			src:  `import X from "./p.js";`,
			want: `const X = require("/abs/p.js").default;`,
		},
		{
			name: "named",
			src:  `import {A, B as C} from './p.js';`,
			want: `const { A, B: C } = require("/abs/p.js");`,
		},
		{
			name: "mixed",
			src:  `import X, {A} from "./p.js";`,
			want: `const { default: X, A } = require("/abs/p.js");`,
		},
		{
			name: "namespace",
			src:  `import * as ns from "./p.js";`,
			want: `const ns = require("/abs/p.js");`,
		},
		{
			name: "default and namespace",
			src:  `import X, * as ns from "./p.js";`,
			want: "const ns = require(\"/abs/p.js\");\nconst X = ns.default;",
		},
		{
			name: "side effect",
			src:  `import "./polyfill.js";`,
			want: `require("/abs/polyfill.js");`,
		},
		{
			name: "named default import",
			src:  `import { default as X } from "./p.js";`,
			want: `const { default: X } = require("/abs/p.js");`,
		},
		{
			name: "without semicolon",
			src:  "import X from \"./p.js\"\nX()\n",
			want: "const X = require(\"/abs/p.js\").default;\nX()\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, run(t, tt.src))
		})
	}
}

func TestTransform_Exports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "list",
			src:  "export { A, B as C };",
			want: "exports.A = A;\nexports.C = B;",
		},
		{
			name: "const",
			src:  "export const x = 1, y = 2;",
			want: "const x = exports.x = 1, y = exports.y = 2;",
		},
		{
			name: "let without initializer",
			src:  "export let a, b = 2;",
			want: "let a, b = exports.b = 2;\nexports.a = a;",
		},
		{
			name: "var destructuring",
			src:  "export var { p, q: r } = obj;",
			want: "var { p, q: r } = obj;\nexports.p = p;\nexports.r = r;",
		},
		{
			name: "function",
			src:  "export function f() { return 1; }",
			want: "function f() { return 1; }\nexports.f = f;",
		},
		{
			name: "class",
			src:  "export class C {}",
			want: "class C {}\nexports.C = C;",
		},
		{
			name: "default expression",
			src:  "export default 40 + 2;",
			want: "exports.default = 40 + 2;",
		},
		{
			name: "default named function",
			src:  "export default function main() {}",
			want: "function main() {}\nexports.default = main;",
		},
		{
			name: "default anonymous function",
			src:  "export default function () {}",
			want: "exports.default = function () {};",
		},
		{
			name: "namespace re-export",
			src:  `export * as util from "./util.js";`,
			want: `exports.util = require("/abs/util.js");`,
		},
		{
			name: "named re-export",
			src:  `export { a, b as c } from "./m.js";`,
			want: "(function (source) {\n" +
				`  Object.defineProperty(exports, "a", { enumerable: true, configurable: true, ` +
				`get: function () { return source["a"]; }, ` +
				`set: function (v) { Object.defineProperty(exports, "a", { value: v, writable: true, enumerable: true, configurable: true }); } });` +
				"\n" +
				`  Object.defineProperty(exports, "c", { enumerable: true, configurable: true, ` +
				`get: function () { return source["b"]; }, ` +
				`set: function (v) { Object.defineProperty(exports, "c", { value: v, writable: true, enumerable: true, configurable: true }); } });` +
				"\n" +
				`})(require("/abs/m.js"));`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, run(t, tt.src))
		})
	}
}

func TestTransform_ReexportAllForwardsThroughGetters(t *testing.T) {
	t.Parallel()

	out := run(t, `export * from "./m.js";`)

	assert.Contains(t, out, `})(require("/abs/m.js"));`)
	assert.Contains(t, out, "Object.defineProperty(exports, key")
	assert.Contains(t, out, "configurable: true")
	assert.Contains(t, out, `key === "default"`)
}

func TestTransform_PreservesOtherText(t *testing.T) {
	t.Parallel()

	src := "// header\n'use strict';\nimport X from './x.js';\n\nfunction g() {\n  return X + 1; // tail\n}\n"
	want := "// header\n'use strict';\nconst X = require(\"/abs/x.js\").default;\n\nfunction g() {\n  return X + 1; // tail\n}\n"

	assert.Equal(t, want, run(t, src))
}

func TestTransform_NoModuleSyntaxIsIdentity(t *testing.T) {
	t.Parallel()

	src := "const s = \"import x from './y.js'\";\nconsole.log(s);\n"

	assert.Equal(t, src, run(t, src))
}

func TestTransform_Idempotent(t *testing.T) {
	t.Parallel()

	src := "import X, { a as b } from './x.js';\nimport * as ns from './ns.js';\n" +
		"export const y = X + b;\nexport default ns;\nexport { y as z };\nexport * from './all.js';\n"

	tr := newTransformer(t)

	once, err := tr.Transform(context.Background(), "/abs/main.js", []byte(src), resolveUnderAbs)
	require.NoError(t, err)

	twice, err := tr.Transform(context.Background(), "/abs/main.js", once, resolveUnderAbs)
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
}

func TestTransform_Deterministic(t *testing.T) {
	t.Parallel()

	src := "import a from './a.js';\nimport { b } from './b.js';\nexport { a, b };\n"

	assert.Equal(t, run(t, src), run(t, src))
}

func TestTransform_ResolverErrors(t *testing.T) {
	t.Parallel()

	tr := newTransformer(t)

	t.Run("plain error becomes path resolution error", func(t *testing.T) {
		t.Parallel()

		failing := func(string) (string, error) { return "", errors.New("nope") }

		_, err := tr.Transform(context.Background(), "/abs/main.js", []byte("import x from './x.js';"), failing)
		require.ErrorIs(t, err, builderr.ErrPathResolution)
		assert.Contains(t, err.Error(), "/abs/main.js")
		assert.Contains(t, err.Error(), "import x from './x.js';")
	})

	t.Run("build error kind is kept", func(t *testing.T) {
		t.Parallel()

		failing := func(string) (string, error) {
			return "", builderr.New(builderr.ErrSourceRead, "/abs/x.js", nil)
		}

		_, err := tr.Transform(context.Background(), "/abs/main.js", []byte("export * from './x.js';"), failing)
		require.ErrorIs(t, err, builderr.ErrSourceRead)
	})
}

func TestTransform_EmptySpecifierIsMalformed(t *testing.T) {
	t.Parallel()

	_, err := newTransformer(t).Transform(context.Background(), "/abs/main.js", []byte("import x from '';"), resolveUnderAbs)
	require.ErrorIs(t, err, builderr.ErrMalformedImport)
}
