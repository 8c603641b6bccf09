package syntax

// Grammar node kinds the bundler inspects.
const (
	KindProgram             = "program"
	KindError               = "ERROR"
	KindComment             = "comment"
	KindString              = "string"
	KindIdentifier          = "identifier"
	KindImportStatement     = "import_statement"
	KindImportClause        = "import_clause"
	KindNamedImports        = "named_imports"
	KindNamespaceImport     = "namespace_import"
	KindImportSpecifier     = "import_specifier"
	KindExportStatement     = "export_statement"
	KindExportClause        = "export_clause"
	KindExportSpecifier     = "export_specifier"
	KindNamespaceExport     = "namespace_export"
	KindLexicalDeclaration  = "lexical_declaration"
	KindVariableDeclaration = "variable_declaration"
	KindVariableDeclarator  = "variable_declarator"
	KindDefault             = "default"
	KindStar                = "*"
)
