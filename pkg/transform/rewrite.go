package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/jsbundle/pkg/builderr"
	"github.com/Sumatoshi-tech/jsbundle/pkg/syntax"
)

// errShapeMismatch lets a rewrite decline a statement its pattern matched
// too loosely, so the next shape is tried.
var errShapeMismatch = errors.New("shape mismatch")

var errEmptySpecifier = errors.New("empty specifier")

type rewriteContext struct {
	path    string
	resolve Resolver
}

// load returns the loader call for the module named by a source string node.
func (rc *rewriteContext) load(source *syntax.Node) (string, error) {
	if source == nil {
		return "", builderr.New(builderr.ErrMalformedImport, rc.path, errEmptySpecifier)
	}

	specifier := syntax.Unquote(source.Text())
	if specifier == "" {
		return "", builderr.New(builderr.ErrMalformedImport, rc.path, errEmptySpecifier)
	}

	target, err := rc.resolve(specifier)
	if err != nil {
		if builderr.KindOf(err) == nil {
			err = builderr.New(builderr.ErrPathResolution, rc.path, err)
		}

		return "", err
	}

	return LoaderName + "(" + syntax.Quote(target) + ")", nil
}

// Imports.

func rewriteDefault(rc *rewriteContext, _ *syntax.Node, caps syntax.Captures) (string, error) {
	call, err := rc.load(caps.One("source"))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("const %s = %s.default;", caps.One("default").Text(), call), nil
}

func rewriteNamed(rc *rewriteContext, _ *syntax.Node, caps syntax.Captures) (string, error) {
	call, err := rc.load(caps.One("source"))
	if err != nil {
		return "", err
	}

	return "const " + destructure(importBindings(caps.One("named"))) + " = " + call + ";", nil
}

func rewriteDefaultNamed(rc *rewriteContext, _ *syntax.Node, caps syntax.Captures) (string, error) {
	call, err := rc.load(caps.One("source"))
	if err != nil {
		return "", err
	}

	bindings := append([]string{"default: " + caps.One("default").Text()}, importBindings(caps.One("named"))...)

	return "const " + destructure(bindings) + " = " + call + ";", nil
}

func rewriteNamespace(rc *rewriteContext, _ *syntax.Node, caps syntax.Captures) (string, error) {
	name, ok := namespaceName(caps.One("namespace"))
	if !ok {
		return "", errShapeMismatch
	}

	call, err := rc.load(caps.One("source"))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("const %s = %s;", name, call), nil
}

func rewriteDefaultNamespace(rc *rewriteContext, _ *syntax.Node, caps syntax.Captures) (string, error) {
	name, ok := namespaceName(caps.One("namespace"))
	if !ok {
		return "", errShapeMismatch
	}

	call, err := rc.load(caps.One("source"))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("const %s = %s;\nconst %s = %s.default;",
		name, call, caps.One("default").Text(), name), nil
}

func rewriteSideEffect(rc *rewriteContext, stmt *syntax.Node, caps syntax.Captures) (string, error) {
	if stmt.Has(syntax.KindImportClause) {
		return "", errShapeMismatch
	}

	call, err := rc.load(caps.One("source"))
	if err != nil {
		return "", err
	}

	return call + ";", nil
}

// importBindings renders the entries of a named_imports node as
// destructuring properties.
func importBindings(named *syntax.Node) []string {
	var bindings []string

	for _, spec := range named.NamedChildren() {
		if spec.Kind() != syntax.KindImportSpecifier {
			continue
		}

		name := spec.Field("name")
		if name == nil {
			continue
		}

		if alias := spec.Field("alias"); alias != nil {
			bindings = append(bindings, name.Text()+": "+alias.Text())

			continue
		}

		bindings = append(bindings, name.Text())
	}

	return bindings
}

func destructure(bindings []string) string {
	if len(bindings) == 0 {
		return "{}"
	}

	return "{ " + strings.Join(bindings, ", ") + " }"
}

func namespaceName(ns *syntax.Node) (string, bool) {
	if ns == nil {
		return "", false
	}

	id := ns.Find(syntax.KindIdentifier)
	if id == nil {
		return "", false
	}

	return id.Text(), true
}

// Exports.

func rewriteExportList(_ *rewriteContext, _ *syntax.Node, caps syntax.Captures) (string, error) {
	var lines []string

	for _, spec := range exportSpecifiers(caps.One("clause")) {
		lines = append(lines, member(spec.exported)+" = "+spec.local.Text()+";")
	}

	return strings.Join(lines, "\n"), nil
}

func rewriteExportDefaultValue(_ *rewriteContext, stmt *syntax.Node, caps syntax.Captures) (string, error) {
	if !stmt.Has(syntax.KindDefault) {
		return "", errShapeMismatch
	}

	return ExportsName + ".default = " + caps.One("value").Text() + ";", nil
}

func rewriteExportDeclaration(_ *rewriteContext, stmt *syntax.Node, caps syntax.Captures) (string, error) {
	decl := caps.One("declaration")
	isDefault := stmt.Has(syntax.KindDefault)

	switch decl.Kind() {
	case syntax.KindLexicalDeclaration, syntax.KindVariableDeclaration:
		if isDefault {
			return "", errShapeMismatch
		}

		return rewriteVariables(decl), nil
	}

	name := decl.Field("name")
	if name == nil {
		return "", errShapeMismatch
	}

	target := ExportsName + "." + name.Text()
	if isDefault {
		target = ExportsName + ".default"
	}

	return decl.Text() + "\n" + target + " = " + name.Text() + ";", nil
}

// rewriteVariables keeps the declaration and routes each initializer through
// the exports container: `const a = 1` becomes `const a = exports.a = 1`.
// Declarators the chain cannot express get a trailing assignment per name.
func rewriteVariables(decl *syntax.Node) string {
	var (
		keyword  string
		parts    []string
		trailing []string
	)

	for _, child := range decl.Children() {
		switch {
		case !child.IsNamed() && keyword == "":
			keyword = child.Text()
		case child.Kind() == syntax.KindVariableDeclarator:
			name := child.Field("name")
			value := child.Field("value")

			if name != nil && value != nil && name.Kind() == syntax.KindIdentifier {
				parts = append(parts, name.Text()+" = "+ExportsName+"."+name.Text()+" = "+value.Text())

				continue
			}

			parts = append(parts, child.Text())

			if name != nil {
				trailing = append(trailing, boundNames(name)...)
			}
		}
	}

	var sb strings.Builder

	sb.WriteString(keyword)
	sb.WriteByte(' ')
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteByte(';')

	for _, name := range trailing {
		sb.WriteString("\n" + ExportsName + "." + name + " = " + name + ";")
	}

	return sb.String()
}

// boundNames lists the identifiers a binding pattern introduces.
func boundNames(pattern *syntax.Node) []string {
	switch pattern.Kind() {
	case syntax.KindIdentifier, "shorthand_property_identifier_pattern":
		return []string{pattern.Text()}
	case "pair_pattern":
		if value := pattern.Field("value"); value != nil {
			return boundNames(value)
		}
	case "assignment_pattern", "object_assignment_pattern":
		if left := pattern.Field("left"); left != nil {
			return boundNames(left)
		}
	}

	var names []string

	for _, child := range pattern.NamedChildren() {
		names = append(names, boundNames(child)...)
	}

	return names
}

// Re-exports.

func rewriteReexportAll(rc *rewriteContext, stmt *syntax.Node, caps syntax.Captures) (string, error) {
	if stmt.Has(syntax.KindExportClause) || stmt.Has(syntax.KindNamespaceExport) || !stmt.Has(syntax.KindStar) {
		return "", errShapeMismatch
	}

	call, err := rc.load(caps.One("source"))
	if err != nil {
		return "", err
	}

	return "(function (source) {\n" +
		"  Object.keys(source).forEach(function (key) {\n" +
		"    if (key === \"default\" || Object.prototype.hasOwnProperty.call(" + ExportsName + ", key)) return;\n" +
		"    " + forwardProperty("key", "source[key]") + "\n" +
		"  });\n" +
		"})(" + call + ");", nil
}

// forwardProperty defines key on the exports container as a live view of
// value. The property stays configurable and assigning to it replaces it
// with a plain data property, so a module's own export overrides a name
// forwarded by `export *`.
func forwardProperty(key, value string) string {
	return "Object.defineProperty(" + ExportsName + ", " + key + ", { enumerable: true, configurable: true, " +
		"get: function () { return " + value + "; }, " +
		"set: function (v) { Object.defineProperty(" + ExportsName + ", " + key +
		", { value: v, writable: true, enumerable: true, configurable: true }); } });"
}

func rewriteReexportNamed(rc *rewriteContext, _ *syntax.Node, caps syntax.Captures) (string, error) {
	call, err := rc.load(caps.One("source"))
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteString("(function (source) {\n")

	for _, spec := range exportSpecifiers(caps.One("clause")) {
		sb.WriteString("  " + forwardProperty(propertyKey(spec.exported), "source["+propertyKey(spec.local)+"]") + "\n")
	}

	sb.WriteString("})(" + call + ");")

	return sb.String(), nil
}

func rewriteReexportNamespace(rc *rewriteContext, _ *syntax.Node, caps syntax.Captures) (string, error) {
	named := caps.One("namespace").NamedChildren()
	if len(named) == 0 {
		return "", errShapeMismatch
	}

	call, err := rc.load(caps.One("source"))
	if err != nil {
		return "", err
	}

	return member(named[len(named)-1]) + " = " + call + ";", nil
}

type exportSpecifier struct {
	local    *syntax.Node
	exported *syntax.Node
}

func exportSpecifiers(clause *syntax.Node) []exportSpecifier {
	var specs []exportSpecifier

	for _, spec := range clause.NamedChildren() {
		if spec.Kind() != syntax.KindExportSpecifier {
			continue
		}

		name := spec.Field("name")
		if name == nil {
			continue
		}

		exported := name
		if alias := spec.Field("alias"); alias != nil {
			exported = alias
		}

		specs = append(specs, exportSpecifier{local: name, exported: exported})
	}

	return specs
}

// member renders the exports property for an export name, which is either
// an identifier or a string literal.
func member(name *syntax.Node) string {
	if name.Kind() == syntax.KindString {
		return ExportsName + "[" + name.Text() + "]"
	}

	return ExportsName + "." + name.Text()
}

// propertyKey renders an export name as a string literal.
func propertyKey(name *syntax.Node) string {
	if name.Kind() == syntax.KindString {
		return name.Text()
	}

	return syntax.Quote(name.Text())
}
