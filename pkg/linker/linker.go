// Package linker flattens a module graph into an ordered module table and
// emits the self-contained bundle program around it.
package linker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/jsbundle/pkg/builderr"
	"github.com/Sumatoshi-tech/jsbundle/pkg/modgraph"
	"github.com/Sumatoshi-tech/jsbundle/pkg/syntax"
	"github.com/Sumatoshi-tech/jsbundle/pkg/toposort"
	"github.com/Sumatoshi-tech/jsbundle/pkg/transform"
)

// Order selects how modules are laid out in the table.
type Order string

const (
	// OrderDiscovery lists modules depth-first from the entry, as discovered.
	OrderDiscovery Order = "discovery"
	// OrderTopological lists dependencies before their importers.
	OrderTopological Order = "topological"
)

var (
	// ErrDuplicatePath reports a second table entry for the same path.
	ErrDuplicatePath = errors.New("duplicate module path")
	// ErrUnknownOrder reports an unsupported Order value.
	ErrUnknownOrder = errors.New("unknown module order")
)

// ParseOrder validates an order name. The empty string selects discovery.
func ParseOrder(name string) (Order, error) {
	switch Order(name) {
	case "", OrderDiscovery:
		return OrderDiscovery, nil
	case OrderTopological:
		return OrderTopological, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOrder, name)
	}
}

// Flatten lists every module reachable from the graph entry exactly once.
func Flatten(g *modgraph.Graph, order Order) ([]string, error) {
	switch order {
	case "", OrderDiscovery:
		var paths []string

		g.Walk(func(m *modgraph.Module) bool {
			paths = append(paths, m.Path)

			return true
		})

		return paths, nil
	case OrderTopological:
		return DependencyGraph(g).Order(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrder, order)
	}
}

// DependencyGraph converts g into a toposort graph whose edges run from each
// dependency to its importer, with nodes interned in discovery order.
func DependencyGraph(g *modgraph.Graph) *toposort.Graph {
	tg := toposort.NewGraph()

	g.Walk(func(m *modgraph.Module) bool {
		tg.AddNode(m.Path)

		return true
	})

	g.Walk(func(m *modgraph.Module) bool {
		for _, dep := range m.Deps {
			tg.AddEdge(dep, m.Path)
		}

		return true
	})

	return tg
}

// Entry is one module in the table.
type Entry struct {
	Path string
	Body string
}

// Table is an ordered mapping from canonical path to transformed body.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add appends a module. Paths must be unique.
func (t *Table) Add(path, body string) error {
	if _, exists := t.index[path]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePath, path)
	}

	t.index[path] = len(t.entries)
	t.entries = append(t.entries, Entry{Path: path, Body: body})

	return nil
}

// Has reports whether path is in the table.
func (t *Table) Has(path string) bool {
	_, ok := t.index[path]

	return ok
}

// Len returns the number of modules.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns the modules in table order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)

	return out
}

// Link renders the bundle program for table, starting at entry.
func Link(table *Table, entry string) (string, error) {
	if !table.Has(entry) {
		return "", builderr.New(builderr.ErrEntryNotInTable, entry, nil)
	}

	var sb strings.Builder

	sb.WriteString(runtimeHeader)

	for _, e := range table.entries {
		sb.WriteString("  ")
		sb.WriteString(syntax.Quote(e.Path))
		sb.WriteString(": function (" + transform.ExportsName + ", " + transform.LoaderName + ") {\n")
		sb.WriteString(e.Body)

		if !strings.HasSuffix(e.Body, "\n") {
			sb.WriteByte('\n')
		}

		sb.WriteString("  },\n")
	}

	sb.WriteString("}, ")
	sb.WriteString(syntax.Quote(entry))
	sb.WriteString(");\n")

	return sb.String(), nil
}

// runtimeHeader opens the bundle: a loader that caches each module's
// exports before running its factory, so cyclic loads see the partially
// filled object instead of recursing.
const runtimeHeader = `(function (modules, entry) {
  var cache = {};
  function require(name) {
    if (Object.prototype.hasOwnProperty.call(cache, name)) {
      return cache[name];
    }
    if (!Object.prototype.hasOwnProperty.call(modules, name)) {
      throw new Error("module not found: " + name);
    }
    var exports = {};
    cache[name] = exports;
    modules[name](exports, require);
    return exports;
  }
  require(entry);
})({
`
