package trial

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName = "trialguard/trial"
	MeterName  = "trialguard/trial"
)

// Metrics holds the trial reconciliation instruments. A nil *Metrics records nothing.
type Metrics struct {
	Reconciliations   metric.Int64Counter
	ReconcileDuration metric.Float64Histogram
	SourceReads       metric.Int64Counter
	SourcePersists    metric.Int64Counter
	Overrides         metric.Int64Counter
}

// InitializeMetrics creates the trial metrics on meter.
func InitializeMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.Reconciliations, err = meter.Int64Counter(
		"trial_reconciliations_total",
		metric.WithDescription("Total number of trial start reconciliations"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconciliations counter: %w", err)
	}

	m.ReconcileDuration, err = meter.Float64Histogram(
		"trial_reconcile_duration_seconds",
		metric.WithDescription("Trial reconciliation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconcile duration histogram: %w", err)
	}

	m.SourceReads, err = meter.Int64Counter(
		"trial_source_reads_total",
		metric.WithDescription("Total number of source reads by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create source reads counter: %w", err)
	}

	m.SourcePersists, err = meter.Int64Counter(
		"trial_source_persists_total",
		metric.WithDescription("Total number of persist calls issued to sources"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create source persists counter: %w", err)
	}

	m.Overrides, err = meter.Int64Counter(
		"trial_overrides_total",
		metric.WithDescription("Total number of manual trial start overrides"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create overrides counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) recordRead(ctx context.Context, source, outcome string) {
	if m == nil {
		return
	}
	m.SourceReads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) recordPersist(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.SourcePersists.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

func (m *Metrics) recordReconcile(ctx context.Context, duration time.Duration, fresh bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("fresh_start", fresh))
	m.Reconciliations.Add(ctx, 1, attrs)
	m.ReconcileDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *Metrics) recordOverride(ctx context.Context) {
	if m == nil {
		return
	}
	m.Overrides.Add(ctx, 1)
}

// traceReconcile wraps a reconciliation with a span and metrics. fn reports
// whether no source held a usable value.
func (r *Reconciler) traceReconcile(ctx context.Context, now Timestamp, fn func(ctx context.Context) bool) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, "trial.reconcile",
		trace.WithAttributes(
			attribute.String("trial.operation", "reconcile"),
			attribute.Int("trial.sources", len(r.sources)),
			attribute.Int64("trial.now_ms", int64(now)),
		),
	)
	defer span.End()

	start := time.Now()
	fresh := fn(ctx)
	duration := time.Since(start)

	r.metrics.recordReconcile(ctx, duration, fresh)

	span.SetAttributes(
		attribute.Int64("trial.start_ms", int64(r.start)),
		attribute.Bool("trial.fresh_start", fresh),
		attribute.Float64("trial.duration_ms", float64(duration.Milliseconds())),
	)
	span.SetStatus(codes.Ok, "Trial start reconciled")
}

// traceOverride wraps a manual override with a span and metrics.
func (r *Reconciler) traceOverride(ctx context.Context, ts Timestamp, fn func(ctx context.Context)) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, "trial.override",
		trace.WithAttributes(
			attribute.String("trial.operation", "override"),
			attribute.Int64("trial.previous_start_ms", int64(r.start)),
			attribute.Int64("trial.start_ms", int64(ts)),
		),
	)
	defer span.End()

	fn(ctx)
	r.metrics.recordOverride(ctx)
	span.SetStatus(codes.Ok, "Trial start overridden")
}
