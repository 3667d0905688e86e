package trial

import (
	"context"
	"time"

	"trialguard/pkg/contracts/domain"
)

// Trial answers whether the trial period has elapsed. The start is
// reconciled across all configured sources when the Trial is created.
type Trial struct {
	reconciler   *Reconciler
	durationDays int
	duration     time.Duration
	clock        Clock
}

// New reconciles the trial start across cfg's sources using clock for "now"
// and persists the result. A nil clock means the system clock.
func New(ctx context.Context, cfg Config, clock Clock, opts ...Option) *Trial {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Trial{
		reconciler:   NewReconciler(ctx, cfg.Sources(), FromTime(clock.Now()), opts...),
		durationDays: cfg.DurationDays(),
		duration:     cfg.Duration(),
		clock:        clock,
	}
}

// StartDate returns the canonical trial start.
func (t *Trial) StartDate() Timestamp {
	return t.reconciler.Start()
}

// EndDate returns the first instant at which the trial counts as finished.
func (t *Trial) EndDate() Timestamp {
	return t.reconciler.Start().Add(t.duration)
}

// IsFinished reports whether the trial has elapsed at now.
func (t *Trial) IsFinished(now Timestamp) bool {
	return now >= t.EndDate()
}

// IsFinishedNow reports whether the trial has elapsed according to the clock.
func (t *Trial) IsFinishedNow() bool {
	return t.IsFinished(FromTime(t.clock.Now()))
}

// Remaining returns the time left at now, never negative.
func (t *Trial) Remaining(now Timestamp) time.Duration {
	if left := t.EndDate().Sub(now); left > 0 {
		return left
	}
	return 0
}

// UpdateStartDate overrides the trial start and persists it to every source.
func (t *Trial) UpdateStartDate(ctx context.Context, start Timestamp) {
	t.reconciler.Override(ctx, start)
}

// Status summarizes the trial at now for display by the host application.
func (t *Trial) Status(now Timestamp) domain.TrialStatus {
	// Counted in milliseconds: an overridden start can lie further ahead
	// than a time.Duration reaches.
	var daysLeft int64
	if left := t.EndDate().millisSince(now); left > 0 {
		dayMs := day.Milliseconds()
		daysLeft = left / dayMs
		if left%dayMs != 0 {
			daysLeft++
		}
	}

	return domain.TrialStatus{
		StartDate:    t.StartDate().Time(),
		EndDate:      t.EndDate().Time(),
		DurationDays: t.durationDays,
		DaysLeft:     int(daysLeft),
		Finished:     t.IsFinished(now),
		CheckedAt:    now.Time(),
	}
}
