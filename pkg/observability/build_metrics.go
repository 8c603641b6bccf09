package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricBuildsTotal     = "jsbundle.builds.total"
	metricModulesTotal    = "jsbundle.modules.total"
	metricInputBytes      = "jsbundle.input.bytes"
	metricOutputBytes     = "jsbundle.output.bytes"
	metricPhaseDuration   = "jsbundle.phase.duration.seconds"
	metricBuildErrorTotal = "jsbundle.build.errors.total"

	attrStatus = "status"
	attrPhase  = "phase"
	attrKind   = "kind"

	statusOK    = "ok"
	statusError = "error"
)

// Build phases.
const (
	PhaseResolve   = "resolve"
	PhaseTransform = "transform"
	PhaseLink      = "link"
)

// phaseBucketBoundaries covers 1ms to 60s; most phases finish well under a
// second even for graphs of a few thousand modules.
var phaseBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// BuildMetrics holds the instruments recorded once per build. A nil
// *BuildMetrics is valid and records nothing.
type BuildMetrics struct {
	builds        metric.Int64Counter
	modules       metric.Int64Counter
	inputBytes    metric.Int64Counter
	outputBytes   metric.Int64Counter
	phaseDuration metric.Float64Histogram
	errors        metric.Int64Counter
}

// BuildStats is what a finished build reports.
type BuildStats struct {
	Modules     int
	InputBytes  int
	OutputBytes int
	Phases      map[string]time.Duration
}

// NewBuildMetrics creates the build instruments from mt.
func NewBuildMetrics(mt metric.Meter) (*BuildMetrics, error) {
	builds, err := mt.Int64Counter(metricBuildsTotal,
		metric.WithDescription("Completed builds by status"),
		metric.WithUnit("{build}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBuildsTotal, err)
	}

	modules, err := mt.Int64Counter(metricModulesTotal,
		metric.WithDescription("Modules bundled"),
		metric.WithUnit("{module}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricModulesTotal, err)
	}

	inputBytes, err := mt.Int64Counter(metricInputBytes,
		metric.WithDescription("Source bytes read"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInputBytes, err)
	}

	outputBytes, err := mt.Int64Counter(metricOutputBytes,
		metric.WithDescription("Bundle bytes emitted"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOutputBytes, err)
	}

	phaseDuration, err := mt.Float64Histogram(metricPhaseDuration,
		metric.WithDescription("Build phase duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(phaseBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPhaseDuration, err)
	}

	buildErrors, err := mt.Int64Counter(metricBuildErrorTotal,
		metric.WithDescription("Failed builds by error kind"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBuildErrorTotal, err)
	}

	return &BuildMetrics{
		builds:        builds,
		modules:       modules,
		inputBytes:    inputBytes,
		outputBytes:   outputBytes,
		phaseDuration: phaseDuration,
		errors:        buildErrors,
	}, nil
}

// RecordBuild records a successful build.
func (bm *BuildMetrics) RecordBuild(ctx context.Context, stats BuildStats) {
	if bm == nil {
		return
	}

	bm.builds.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, statusOK)))
	bm.modules.Add(ctx, int64(stats.Modules))
	bm.inputBytes.Add(ctx, int64(stats.InputBytes))
	bm.outputBytes.Add(ctx, int64(stats.OutputBytes))

	for phase, d := range stats.Phases {
		bm.phaseDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String(attrPhase, phase)))
	}
}

// RecordFailure records a failed build with the name of its error kind.
func (bm *BuildMetrics) RecordFailure(ctx context.Context, kind string) {
	if bm == nil {
		return
	}

	if kind == "" {
		kind = "internal"
	}

	bm.builds.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, statusError)))
	bm.errors.Add(ctx, 1, metric.WithAttributes(attribute.String(attrKind, kind)))
}
