package transform

// Statement shapes, most specific first within each statement kind. Every
// pattern anchors its root as @stmt so it only matches the statement it is
// run against.
var importShapes = []shapeSpec{
	{
		name: "import-default-named",
		pattern: `(import_statement
  (import_clause (identifier) @default (named_imports) @named)
  source: (string) @source) @stmt`,
		rewrite: rewriteDefaultNamed,
	},
	{
		name: "import-default-namespace",
		pattern: `(import_statement
  (import_clause (identifier) @default (namespace_import) @namespace)
  source: (string) @source) @stmt`,
		rewrite: rewriteDefaultNamespace,
	},
	{
		name: "import-named",
		pattern: `(import_statement
  (import_clause (named_imports) @named)
  source: (string) @source) @stmt`,
		rewrite: rewriteNamed,
	},
	{
		name: "import-namespace",
		pattern: `(import_statement
  (import_clause (namespace_import) @namespace)
  source: (string) @source) @stmt`,
		rewrite: rewriteNamespace,
	},
	{
		name: "import-default",
		pattern: `(import_statement
  (import_clause (identifier) @default)
  source: (string) @source) @stmt`,
		rewrite: rewriteDefault,
	},
	{
		name:    "import-side-effect",
		pattern: `(import_statement source: (string) @source) @stmt`,
		rewrite: rewriteSideEffect,
	},
}

var exportShapes = []shapeSpec{
	{
		name:    "reexport-namespace",
		pattern: `(export_statement (namespace_export) @namespace source: (string) @source) @stmt`,
		rewrite: rewriteReexportNamespace,
	},
	{
		name:    "reexport-named",
		pattern: `(export_statement (export_clause) @clause source: (string) @source) @stmt`,
		rewrite: rewriteReexportNamed,
	},
	{
		name:    "reexport-all",
		pattern: `(export_statement source: (string) @source) @stmt`,
		rewrite: rewriteReexportAll,
	},
	{
		name:    "export-named",
		pattern: `(export_statement (export_clause) @clause) @stmt`,
		rewrite: rewriteExportList,
	},
	{
		name:    "export-declaration",
		pattern: `(export_statement declaration: (_) @declaration) @stmt`,
		rewrite: rewriteExportDeclaration,
	},
	{
		name:    "export-default-value",
		pattern: `(export_statement value: (_) @value) @stmt`,
		rewrite: rewriteExportDefaultValue,
	},
}
