// Package mcp implements a Model Context Protocol server exposing the bundler
// as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/jsbundle/pkg/bundler"
	"github.com/Sumatoshi-tech/jsbundle/pkg/observability"
	"github.com/Sumatoshi-tech/jsbundle/pkg/version"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "jsbundle"

	// toolCount is the expected number of registered tools.
	toolCount = 3
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional per-tool metrics recorder. Nil disables it.
	Metrics *observability.ToolMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Bundler is the base configuration for every build a tool runs.
	Bundler bundler.Options

	// Fs is where modules are read and artifacts written. Nil means the OS
	// filesystem, or Bundler.Resolve.Fs when that is set.
	Fs afero.Fs
}

// Server wraps the MCP SDK server with the bundler tool registrations.
type Server struct {
	inner   *mcpsdk.Server
	mu      sync.RWMutex
	tools   []string
	metrics *observability.ToolMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
	base    bundler.Options
	fs      afero.Fs
}

// NewServer creates a new MCP server with all bundler tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		opts,
	)

	fs := deps.Fs
	if fs == nil {
		fs = deps.Bundler.Resolve.Fs
	}

	if fs == nil {
		fs = afero.NewOsFs()
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := deps.Bundler
	base.Resolve.Fs = fs

	if base.Logger == nil {
		base.Logger = logger
	}

	if base.Tracer == nil {
		base.Tracer = deps.Tracer
	}

	srv := &Server{
		inner:   inner,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		logger:  logger,
		base:    base,
		fs:      fs,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// registerTools adds all bundler MCP tools to the server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameBuild,
		Description: buildToolDescription,
	}, withMetrics(s.metrics, ToolNameBuild, withTracing(s.tracer, ToolNameBuild, s.handleBuild)))
	s.trackTool(ToolNameBuild)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameGraph,
		Description: graphToolDescription,
	}, withMetrics(s.metrics, ToolNameGraph, withTracing(s.tracer, ToolNameGraph, s.handleGraph)))
	s.trackTool(ToolNameGraph)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameTransform,
		Description: transformToolDescription,
	}, withMetrics(s.metrics, ToolNameTransform, withTracing(s.tracer, ToolNameTransform, s.handleTransform)))
	s.trackTool(ToolNameTransform)
}

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record call metrics per invocation.
func withMetrics[Input any](
	metrics *observability.ToolMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		result, output, err := handler(ctx, req, input)

		failed := err != nil || (result != nil && result.IsError)
		metrics.RecordCall(ctx, toolName, failed, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	buildToolDescription = "Bundle a JavaScript ES-module entry file and everything it imports " +
		"into one self-contained script. Returns the module list and either the bundle code " +
		"or the path it was written to."

	graphToolDescription = "Resolve the import graph of a JavaScript entry file. " +
		"Returns every reachable module with its direct dependencies."

	transformToolDescription = "Rewrite the import and export statements of one JavaScript module " +
		"into the require/exports form used inside bundles."
)
