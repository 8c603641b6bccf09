package modgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/jsbundle/pkg/builderr"
	"github.com/Sumatoshi-tech/jsbundle/pkg/imports"
	"github.com/Sumatoshi-tech/jsbundle/pkg/syntax"
)

// DefaultIndexFile is the base name probed when a specifier names a directory.
const DefaultIndexFile = "index"

// DefaultMaxModuleSize caps the size of a single module file.
const DefaultMaxModuleSize = 4 << 20

// DefaultExtensions are probed, in order, when a specifier has no file behind it.
var DefaultExtensions = []string{".js", ".mjs", ".cjs", ".jsx"}

var (
	// ErrBareSpecifier reports a specifier that is neither relative nor absolute.
	ErrBareSpecifier = errors.New("bare specifiers are not supported")
	// ErrModuleTooLarge reports a module above the configured size cap.
	ErrModuleTooLarge = errors.New("module exceeds size limit")

	errEmptySpecifier = errors.New("empty specifier")
	errNulInPath      = errors.New("path contains NUL byte")
	errIsDirectory    = errors.New("is a directory")
)

// Options configures a Resolver. Zero values fall back to defaults.
type Options struct {
	// Fs is the filesystem modules are read from.
	Fs afero.Fs
	// Parser parses module sources.
	Parser *syntax.Parser
	// Extensions are appended to an extensionless specifier, in order.
	Extensions []string
	// IndexFile is the base name looked up inside a directory specifier.
	IndexFile string
	// MaxModuleSize is the largest module accepted, in bytes.
	MaxModuleSize int64
	// Logger receives per-module discovery events.
	Logger *slog.Logger
}

// Resolver walks the import graph from an entry module.
type Resolver struct {
	fs         afero.Fs
	parser     *syntax.Parser
	extensions []string
	indexFile  string
	maxSize    int64
	logger     *slog.Logger
}

// NewResolver creates a Resolver from opts.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{
		fs:         opts.Fs,
		parser:     opts.Parser,
		extensions: opts.Extensions,
		indexFile:  opts.IndexFile,
		maxSize:    opts.MaxModuleSize,
		logger:     opts.Logger,
	}

	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}

	if r.parser == nil {
		r.parser = syntax.NewParser()
	}

	if r.extensions == nil {
		r.extensions = DefaultExtensions
	}

	if r.indexFile == "" {
		r.indexFile = DefaultIndexFile
	}

	if r.maxSize <= 0 {
		r.maxSize = DefaultMaxModuleSize
	}

	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}

	return r
}

// Discover resolves entry and every module reachable from it. Each path is
// read and parsed at most once, and import cycles terminate because a module
// is registered before its dependencies are followed.
func (r *Resolver) Discover(ctx context.Context, entry string) (*Graph, error) {
	path, err := r.ResolveEntry(entry)
	if err != nil {
		return nil, err
	}

	g := newGraph()
	g.Entry = path

	if err := r.discover(ctx, g, path); err != nil {
		return nil, err
	}

	return g, nil
}

func (r *Resolver) discover(ctx context.Context, g *Graph, path string) error {
	m, fresh := g.reserve(path)
	if !fresh {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("discover %s: %w", path, err)
	}

	r.logger.DebugContext(ctx, "creating module", "path", path)

	if err := r.populate(ctx, m); err != nil {
		return err
	}

	for _, dep := range m.Deps {
		if err := r.discover(ctx, g, dep); err != nil {
			return err
		}
	}

	return nil
}

// Load reads and parses a single module and resolves its specifiers without
// following them.
func (r *Resolver) Load(ctx context.Context, path string) (*Module, error) {
	canonical, err := r.ResolveEntry(path)
	if err != nil {
		return nil, err
	}

	m := newModule(canonical)
	if err := r.populate(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (r *Resolver) populate(ctx context.Context, m *Module) error {
	src, err := r.read(m.Path)
	if err != nil {
		return err
	}

	m.Source = src
	r.checkLanguage(ctx, m.Path, src)

	tree, err := r.parser.Parse(ctx, src)
	if err != nil {
		return builderr.New(builderr.ErrSourceRead, m.Path, err)
	}
	defer tree.Close()

	if tree.HasErrors() {
		r.logger.WarnContext(ctx, "module has syntax errors, statements inside them are not rewritten", "path", m.Path)
	}

	found, err := imports.Extract(tree)
	if err != nil {
		return builderr.Attach(err, m.Path)
	}

	m.Imports = found

	for _, imp := range found {
		target, err := r.ResolveSpecifier(m.Path, imp.Specifier)
		if err != nil {
			var be *builderr.Error
			if errors.As(err, &be) {
				be.WithStatement(imp.Statement)
			}

			return err
		}

		m.addDep(imp.Specifier, target)
	}

	return nil
}

// ResolveEntry canonicalizes an entry path and applies extension and index
// probing to it.
func (r *Resolver) ResolveEntry(entry string) (string, error) {
	if entry == "" {
		return "", builderr.New(builderr.ErrPathResolution, "", errEmptySpecifier)
	}

	canonical, err := canonicalize(entry)
	if err != nil {
		return "", builderr.New(builderr.ErrPathResolution, entry, err)
	}

	return r.realPath(r.probe(canonical)), nil
}

// ResolveSpecifier resolves a specifier written in importer to a canonical
// absolute path. Relative specifiers are joined with the importer's
// directory; absolute ones are taken as-is.
func (r *Resolver) ResolveSpecifier(importer, specifier string) (string, error) {
	switch {
	case specifier == "":
		return "", builderr.New(builderr.ErrPathResolution, importer, errEmptySpecifier)
	case !isRelative(specifier) && !filepath.IsAbs(specifier):
		return "", builderr.New(builderr.ErrPathResolution, importer,
			fmt.Errorf("%w: %q", ErrBareSpecifier, specifier))
	}

	joined := specifier
	if !filepath.IsAbs(specifier) {
		joined = filepath.Join(filepath.Dir(importer), filepath.FromSlash(specifier))
	}

	canonical, err := canonicalize(joined)
	if err != nil {
		return "", builderr.New(builderr.ErrPathResolution, importer, err)
	}

	return r.realPath(r.probe(canonical)), nil
}

// probe returns the first existing file among path, path+ext, and
// path/index+ext. When none exists path is returned and reading it reports
// the failure.
func (r *Resolver) probe(path string) string {
	if r.isFile(path) {
		return path
	}

	for _, ext := range r.extensions {
		if candidate := path + ext; r.isFile(candidate) {
			return candidate
		}
	}

	for _, ext := range r.extensions {
		if candidate := filepath.Join(path, r.indexFile+ext); r.isFile(candidate) {
			return candidate
		}
	}

	return path
}

// realPath follows symbolic links on the host filesystem so a module reached
// through a link and through its target is registered once. Other
// filesystems, and paths that cannot be evaluated, keep the lexical path.
func (r *Resolver) realPath(path string) string {
	if _, ok := r.fs.(*afero.OsFs); !ok {
		return path
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}

	return resolved
}

func (r *Resolver) isFile(path string) bool {
	info, err := r.fs.Stat(path)

	return err == nil && !info.IsDir()
}

func (r *Resolver) read(path string) ([]byte, error) {
	info, err := r.fs.Stat(path)
	if err != nil {
		return nil, builderr.New(builderr.ErrSourceRead, path, err)
	}

	if info.IsDir() {
		return nil, builderr.New(builderr.ErrSourceRead, path, errIsDirectory)
	}

	if info.Size() > r.maxSize {
		return nil, builderr.New(builderr.ErrSourceRead, path, fmt.Errorf("%w: %s > %s",
			ErrModuleTooLarge, humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(r.maxSize))))
	}

	src, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, builderr.New(builderr.ErrSourceRead, path, err)
	}

	return src, nil
}

// checkLanguage warns when a module does not look like JavaScript. The
// module is still bundled.
func (r *Resolver) checkLanguage(ctx context.Context, path string, src []byte) {
	lang := enry.GetLanguage(filepath.Base(path), src)

	switch lang {
	case "", "JavaScript", "JSX":
		return
	}

	r.logger.WarnContext(ctx, "module does not look like JavaScript", "path", path, "language", lang)
}

func canonicalize(path string) (string, error) {
	if strings.ContainsRune(path, 0) {
		return "", errNulInPath
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("absolutize %q: %w", path, err)
	}

	return abs, nil
}

func isRelative(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}
