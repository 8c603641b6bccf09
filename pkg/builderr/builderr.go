// Package builderr defines the error kinds a bundle build can fail with.
//
// Every failure surfaced by the resolver, transformer, or linker is an
// [*Error] whose Kind is one of the sentinels below, so callers can branch
// with [errors.Is] and still print a message naming the offending module.
package builderr

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds.
var (
	// ErrSourceRead reports a module file that could not be read.
	ErrSourceRead = errors.New("source read error")
	// ErrPathResolution reports a specifier that could not be joined or canonicalized.
	ErrPathResolution = errors.New("path resolution error")
	// ErrMalformedImport reports an import or re-export without a usable string literal.
	ErrMalformedImport = errors.New("malformed import")
	// ErrUnresolvableBinding reports an import statement matching no supported shape.
	ErrUnresolvableBinding = errors.New("unresolvable binding")
	// ErrEntryNotInTable reports a link request for an entry absent from the module table.
	ErrEntryNotInTable = errors.New("entry not in table")
)

var kinds = []error{
	ErrSourceRead,
	ErrPathResolution,
	ErrMalformedImport,
	ErrUnresolvableBinding,
	ErrEntryNotInTable,
}

// Error is a build failure tied to a module and, where known, the statement
// that triggered it.
type Error struct {
	Kind      error
	Module    string
	Statement string
	Err       error
}

// New returns an Error of the given kind for module, wrapping cause.
func New(kind error, module string, cause error) *Error {
	return &Error{Kind: kind, Module: module, Err: cause}
}

// WithStatement records the source text of the offending statement.
func (e *Error) WithStatement(text string) *Error {
	e.Statement = strings.TrimSpace(text)

	return e
}

func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Kind.Error())

	if e.Module != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Module)
	}

	if e.Statement != "" {
		fmt.Fprintf(&sb, " at %q", e.Statement)
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// Attach fills in the module of a build error that was raised before the
// module path was known. Other errors are returned unchanged.
func Attach(err error, module string) error {
	var be *Error
	if errors.As(err, &be) && be.Module == "" {
		be.Module = module
	}

	return err
}

// KindOf returns the kind sentinel carried by err, or nil when err is not a
// build error.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}

// Name returns a short machine-friendly name for the kind carried by err.
func Name(err error) string {
	switch KindOf(err) {
	case ErrSourceRead:
		return "SourceReadError"
	case ErrPathResolution:
		return "PathResolutionError"
	case ErrMalformedImport:
		return "MalformedImport"
	case ErrUnresolvableBinding:
		return "UnresolvableBindingError"
	case ErrEntryNotInTable:
		return "EntryNotInTableError"
	default:
		return ""
	}
}
