package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/jsbundle/internal/artifact"
	"github.com/Sumatoshi-tech/jsbundle/pkg/builderr"
	"github.com/Sumatoshi-tech/jsbundle/pkg/bundler"
	"github.com/Sumatoshi-tech/jsbundle/pkg/linker"
)

// bundleFilename is the file bundle_build writes into output_dir.
const bundleFilename = "bundle.js"

// ModuleSummary describes one module in a tool result.
type ModuleSummary struct {
	Path        string   `json:"path"`
	Deps        []string `json:"deps,omitempty"`
	InputBytes  int      `json:"input_bytes,omitempty"`
	OutputBytes int      `json:"output_bytes,omitempty"`
}

// BuildOutput is the bundle_build result.
type BuildOutput struct {
	Entry   string          `json:"entry"`
	Order   string          `json:"order"`
	Modules []ModuleSummary `json:"modules"`
	Bytes   int             `json:"bytes"`
	Path    string          `json:"path,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// GraphOutput is the bundle_graph result.
type GraphOutput struct {
	Entry   string          `json:"entry"`
	Order   string          `json:"order"`
	Modules []ModuleSummary `json:"modules"`
}

// TransformOutput is the bundle_transform result.
type TransformOutput struct {
	Path string `json:"path"`
	Code string `json:"code"`
}

func (s *Server) handleBuild(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input BuildInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validatePath(input.Entry); err != nil {
		return errorResult(err)
	}

	if input.OutputDir != "" {
		if err := validatePath(input.OutputDir); err != nil {
			return errorResult(fmt.Errorf("output_dir: %w", err))
		}
	}

	b, err := s.bundler(input.Order, input.Verify)
	if err != nil {
		return errorResult(err)
	}

	res, err := b.Build(ctx, input.Entry)
	if err != nil {
		return errorResult(describe(err))
	}

	out := BuildOutput{
		Entry:   res.Entry,
		Order:   string(res.Order),
		Modules: make([]ModuleSummary, 0, len(res.Modules)),
		Bytes:   len(res.Code),
	}

	for _, m := range res.Modules {
		out.Modules = append(out.Modules, ModuleSummary{
			Path:        m.Path,
			Deps:        m.Deps,
			InputBytes:  m.InputBytes,
			OutputBytes: m.OutputBytes,
		})
	}

	if input.OutputDir == "" {
		out.Code = res.Code

		return jsonResult(out)
	}

	path, err := artifact.NewWriter(s.fs, input.OutputDir).Write(bundleFilename, []byte(res.Code))
	if err != nil {
		return errorResult(err)
	}

	s.logger.InfoContext(ctx, "mcp bundle written", "path", path, "modules", len(out.Modules))

	out.Path = path

	return jsonResult(out)
}

func (s *Server) handleGraph(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input GraphInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validatePath(input.Entry); err != nil {
		return errorResult(err)
	}

	name := input.Order
	if name == "" {
		name = string(s.base.Order)
	}

	order, err := linker.ParseOrder(name)
	if err != nil {
		return errorResult(err)
	}

	b, err := s.bundler(string(order), false)
	if err != nil {
		return errorResult(err)
	}

	graph, err := b.Discover(ctx, input.Entry)
	if err != nil {
		return errorResult(describe(err))
	}

	paths, err := linker.Flatten(graph, order)
	if err != nil {
		return errorResult(err)
	}

	out := GraphOutput{
		Entry:   graph.Entry,
		Order:   string(order),
		Modules: make([]ModuleSummary, 0, len(paths)),
	}

	for _, path := range paths {
		m, ok := graph.Module(path)
		if !ok {
			continue
		}

		out.Modules = append(out.Modules, ModuleSummary{
			Path:       path,
			Deps:       m.Deps,
			InputBytes: len(m.Source),
		})
	}

	return jsonResult(out)
}

func (s *Server) handleTransform(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input TransformInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validatePath(input.Path); err != nil {
		return errorResult(err)
	}

	b, err := s.bundler("", false)
	if err != nil {
		return errorResult(err)
	}

	_, code, err := b.TransformFile(ctx, input.Path)
	if err != nil {
		return errorResult(describe(err))
	}

	return jsonResult(TransformOutput{Path: input.Path, Code: string(code)})
}

// bundler derives a per-call bundler from the server's base options.
func (s *Server) bundler(order string, verify bool) (*bundler.Bundler, error) {
	opts := s.base

	if order != "" {
		opts.Order = linker.Order(order)
	}

	opts.Verify = opts.Verify || verify

	return bundler.New(opts)
}

// describe prefixes build errors with their kind name.
func describe(err error) error {
	name := builderr.Name(err)
	if name == "" {
		return err
	}

	return fmt.Errorf("%s: %w", name, err)
}
