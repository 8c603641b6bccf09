// Package verify checks emitted bundles with an embedded JavaScript engine.
//
// Check confirms a bundle is syntactically valid script code. Run executes it
// with a minimal console so a bundle can be smoke-tested without Node.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"
)

// Errors returned by Check and Run.
var (
	ErrSyntax      = errors.New("bundle syntax error")
	ErrRuntime     = errors.New("bundle runtime error")
	ErrInterrupted = errors.New("bundle execution interrupted")
)

// Check parses and compiles code as a classic script.
func Check(name string, code []byte) error {
	_, err := compile(name, code)

	return err
}

func compile(name string, code []byte) (*goja.Program, error) {
	ast, err := parser.ParseFile(nil, name, code, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	prog, err := goja.CompileAST(ast, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	return prog, nil
}

// Run executes code in a fresh runtime. console.log and friends write one
// line per call to out. Cancelling ctx interrupts a running script.
func Run(ctx context.Context, name string, code []byte, out io.Writer) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	prog, err := compile(name, code)
	if err != nil {
		return err
	}

	vm := goja.New()

	if err := installConsole(vm, out); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	defer stop()

	_, err = vm.RunProgram(prog)

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	return nil
}

func installConsole(vm *goja.Runtime, out io.Writer) error {
	write := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}

		fmt.Fprintln(out, strings.Join(parts, " "))

		return goja.Undefined()
	}

	console := vm.NewObject()

	for _, method := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(method, write); err != nil {
			return fmt.Errorf("install console.%s: %w", method, err)
		}
	}

	if err := vm.Set("console", console); err != nil {
		return fmt.Errorf("install console: %w", err)
	}

	return nil
}
