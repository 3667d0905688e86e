package trial

import (
	"context"
	"log/slog"
	"time"

	"trialguard/internal/infrastructure"
)

// Reading is the result of one Source.Read.
type Reading struct {
	Source string
	Value  Timestamp
	OK     bool
}

// usable reports whether the reading carries a real instant.
func (r Reading) usable() bool {
	return r.OK && r.Value.Valid()
}

// Reduce computes the canonical trial start from a set of readings.
//
// The oldest usable reading wins. When no reading is usable the result is
// now. The result never lies after now.
func Reduce(readings []Reading, now Timestamp) Timestamp {
	start := now
	for _, r := range readings {
		if r.usable() && r.Value < start {
			start = r.Value
		}
	}
	return start
}

// Reconciler owns the canonical trial start timestamp for a set of sources.
// It is not safe for concurrent use.
type Reconciler struct {
	sources []Source
	start   Timestamp
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for reconciliation events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records reconciliation metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// NewReconciler reads every source once, reduces the readings to a single
// timestamp and persists it back to every source in list order.
func NewReconciler(ctx context.Context, sources []Source, now Timestamp, opts ...Option) *Reconciler {
	r := &Reconciler{
		sources: append([]Source(nil), sources...),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = infrastructure.WithComponent(infrastructure.GetLogger(), "trial_reconciler")
	}

	r.traceReconcile(ctx, now, func(ctx context.Context) bool {
		readings := r.readAll(ctx)
		r.start = Reduce(readings, now)
		available := countUsable(readings)
		r.logReconciled(ctx, len(readings), available, now)
		r.persistAll(ctx)
		return available == 0
	})

	return r
}

// Start returns the canonical trial start timestamp.
func (r *Reconciler) Start() Timestamp {
	return r.start
}

// Override replaces the canonical timestamp with ts, unclamped, and persists
// it to every source.
func (r *Reconciler) Override(ctx context.Context, ts Timestamp) {
	r.traceOverride(ctx, ts, func(ctx context.Context) {
		previous := r.start
		r.start = ts
		r.logger.LogAttrs(ctx, slog.LevelWarn, "Trial start overridden",
			slog.String("action", "override"),
			slog.String("previous_start", previous.String()),
			slog.String("new_start", ts.String()),
			slog.Int("sources", len(r.sources)),
		)
		r.persistAll(ctx)
	})
}

func (r *Reconciler) readAll(ctx context.Context) []Reading {
	readings := make([]Reading, 0, len(r.sources))
	for _, s := range r.sources {
		ts, ok := s.Read(ctx)
		reading := Reading{Source: s.Name(), Value: ts, OK: ok}
		readings = append(readings, reading)

		outcome := "available"
		switch {
		case !ok:
			outcome = "unavailable"
		case !ts.Valid():
			// The source broke its contract; fold the value out.
			outcome = "invalid"
			r.logger.LogAttrs(ctx, slog.LevelWarn, "Source returned an invalid timestamp",
				slog.String("source", reading.Source),
				slog.Int64("value", int64(ts)),
			)
		}
		r.metrics.recordRead(ctx, reading.Source, outcome)

		r.logger.LogAttrs(ctx, slog.LevelDebug, "Source read",
			slog.String("action", "read"),
			slog.String("source", reading.Source),
			slog.String("outcome", outcome),
			slog.String("value", ts.String()),
		)
	}
	return readings
}

func (r *Reconciler) persistAll(ctx context.Context) {
	for _, s := range r.sources {
		s.Persist(ctx, r.start)
		r.metrics.recordPersist(ctx, s.Name())
	}
}

func countUsable(readings []Reading) int {
	n := 0
	for _, rd := range readings {
		if rd.usable() {
			n++
		}
	}
	return n
}

func (r *Reconciler) logReconciled(ctx context.Context, sources, available int, now Timestamp) {
	attrs := []slog.Attr{
		slog.String("action", "reconcile"),
		slog.String("start", r.start.String()),
		slog.Int("sources", sources),
		slog.Int("available", available),
	}
	if available == 0 {
		attrs = append(attrs, slog.Bool("fresh_start", true))
	} else {
		attrs = append(attrs, slog.Duration("age", now.Sub(r.start).Round(time.Second)))
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "Trial start reconciled", attrs...)
}
