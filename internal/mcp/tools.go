package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameBuild     = "bundle_build"
	ToolNameGraph     = "bundle_graph"
	ToolNameTransform = "bundle_transform"
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyPath indicates the entry or path parameter is empty.
	ErrEmptyPath = errors.New("path parameter is required and must not be empty")
	// ErrPathNotAbsolute indicates the entry or path parameter is relative.
	ErrPathNotAbsolute = errors.New("path must be absolute")
)

// Input types (auto-generate JSON schemas via struct tags).

// BuildInput is the input schema for the bundle_build tool.
type BuildInput struct {
	Entry     string `json:"entry"                jsonschema:"absolute path of the entry module"`
	Order     string `json:"order,omitempty"      jsonschema:"module table order: discovery (default) or topological"`
	OutputDir string `json:"output_dir,omitempty" jsonschema:"absolute directory to write bundle.js into; omit to return the code inline"`
	Verify    bool   `json:"verify,omitempty"     jsonschema:"compile the emitted bundle before returning it"`
}

// GraphInput is the input schema for the bundle_graph tool.
type GraphInput struct {
	Entry string `json:"entry"           jsonschema:"absolute path of the entry module"`
	Order string `json:"order,omitempty" jsonschema:"listing order: discovery (default) or topological"`
}

// TransformInput is the input schema for the bundle_transform tool.
type TransformInput struct {
	Path string `json:"path" jsonschema:"absolute path of the module to rewrite"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validatePath checks that a path parameter is present and absolute.
func validatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %s", ErrPathNotAbsolute, path)
	}

	return nil
}
