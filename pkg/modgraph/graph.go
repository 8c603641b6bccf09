// Package modgraph discovers every module reachable from an entry point and
// records the dependency graph between them.
package modgraph

import (
	"errors"

	"github.com/Sumatoshi-tech/jsbundle/pkg/builderr"
	"github.com/Sumatoshi-tech/jsbundle/pkg/imports"
)

var errUnknownSpecifier = errors.New("specifier was not seen during discovery")

// Module is one discovered source file.
type Module struct {
	// Path is the canonical absolute path and the module's identity.
	Path string
	// Source is the raw file content.
	Source []byte
	// Imports lists the dependency statements in source order.
	Imports []imports.Import
	// Deps lists canonical dependency paths in first-occurrence order,
	// without duplicates.
	Deps []string

	resolved map[string]string
}

func newModule(path string) *Module {
	return &Module{Path: path, resolved: make(map[string]string)}
}

// Resolve maps a specifier written in this module to the canonical path it
// was resolved to during discovery.
func (m *Module) Resolve(specifier string) (string, error) {
	if target, ok := m.resolved[specifier]; ok {
		return target, nil
	}

	return "", builderr.New(builderr.ErrPathResolution, m.Path, errUnknownSpecifier)
}

func (m *Module) addDep(specifier, target string) {
	if _, seen := m.resolved[specifier]; !seen {
		m.resolved[specifier] = target
	}

	for _, dep := range m.Deps {
		if dep == target {
			return
		}
	}

	m.Deps = append(m.Deps, target)
}

// Graph is the result of discovery: every reachable module keyed by
// canonical path, plus the order in which paths were first registered.
type Graph struct {
	Entry   string
	modules map[string]*Module
	order   []string
}

func newGraph() *Graph {
	return &Graph{modules: make(map[string]*Module)}
}

// reserve registers a placeholder for path before its dependencies are
// followed, so a cycle back to path finds it and stops.
func (g *Graph) reserve(path string) (*Module, bool) {
	if m, ok := g.modules[path]; ok {
		return m, false
	}

	m := newModule(path)
	g.modules[path] = m
	g.order = append(g.order, path)

	return m, true
}

// Module returns the module registered under path.
func (g *Graph) Module(path string) (*Module, bool) {
	m, ok := g.modules[path]

	return m, ok
}

// Len returns the number of modules.
func (g *Graph) Len() int { return len(g.modules) }

// Order returns module paths in first-discovery order, entry first.
func (g *Graph) Order() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)

	return out
}

// Modules returns the modules in first-discovery order.
func (g *Graph) Modules() []*Module {
	out := make([]*Module, 0, len(g.order))
	for _, path := range g.order {
		out = append(out, g.modules[path])
	}

	return out
}

// Walk visits every module reachable from the entry exactly once, in
// depth-first pre-order following Deps. It stops early when fn returns false.
func (g *Graph) Walk(fn func(*Module) bool) {
	visited := make(map[string]bool, len(g.modules))

	var visit func(path string) bool

	visit = func(path string) bool {
		if visited[path] {
			return true
		}

		visited[path] = true

		m, ok := g.modules[path]
		if !ok {
			return true
		}

		if !fn(m) {
			return false
		}

		for _, dep := range m.Deps {
			if !visit(dep) {
				return false
			}
		}

		return true
	}

	visit(g.Entry)
}

// Edge is a dependency from Importer to Target.
type Edge struct {
	Importer string
	Target   string
}

// Edges returns every dependency edge, grouped by importer in discovery order.
func (g *Graph) Edges() []Edge {
	var edges []Edge

	for _, path := range g.order {
		for _, dep := range g.modules[path].Deps {
			edges = append(edges, Edge{Importer: path, Target: dep})
		}
	}

	return edges
}

// Importers returns the modules that depend on path, in discovery order.
func (g *Graph) Importers(path string) []string {
	var importers []string

	for _, candidate := range g.order {
		for _, dep := range g.modules[candidate].Deps {
			if dep == path {
				importers = append(importers, candidate)

				break
			}
		}
	}

	return importers
}
