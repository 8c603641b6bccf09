package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricToolCalls    = "jsbundle.mcp.calls.total"
	metricToolDuration = "jsbundle.mcp.call.duration.seconds"

	attrTool = "tool"
)

// ToolMetrics records rate, errors and duration of MCP tool calls. A nil
// *ToolMetrics records nothing.
type ToolMetrics struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewToolMetrics creates the MCP tool instruments from mt.
func NewToolMetrics(mt metric.Meter) (*ToolMetrics, error) {
	calls, err := mt.Int64Counter(metricToolCalls,
		metric.WithDescription("MCP tool calls by tool and status"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricToolCalls, err)
	}

	duration, err := mt.Float64Histogram(metricToolDuration,
		metric.WithDescription("MCP tool call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(phaseBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricToolDuration, err)
	}

	return &ToolMetrics{calls: calls, duration: duration}, nil
}

// RecordCall records one finished tool call.
func (tm *ToolMetrics) RecordCall(ctx context.Context, tool string, failed bool, d time.Duration) {
	if tm == nil {
		return
	}

	status := statusOK
	if failed {
		status = statusError
	}

	attrs := metric.WithAttributes(attribute.String(attrTool, tool), attribute.String(attrStatus, status))
	tm.calls.Add(ctx, 1, attrs)
	tm.duration.Record(ctx, d.Seconds(), attrs)
}
