// Package trial determines the canonical start of a time-limited trial from
// several independent sources and keeps those sources in agreement.
//
// # Reconciliation
//
// Each Source reports a timestamp or has no opinion. On construction a
// Reconciler:
//
//	1. Reads every source once
//	2. Picks the oldest usable timestamp, or now when there is none
//	3. Persists the result to every source, in list order
//
// The oldest value wins so that a newer timestamp presented by one source
// cannot extend a trial recorded earlier by another. Running the reconciler
// again against sources it has just written to yields the same start.
//
// # Sources
//
// Sources never fail. A missing, unreadable or corrupt value is reported as
// unavailable, and persistence errors are swallowed by the source itself.
// Concrete sources live in trialguard/internal/source.
//
// # Usage
//
//	cfg, err := trial.NewConfig(14, installSrc, prefsSrc, fileSrc)
//	if err != nil {
//	    return err
//	}
//	t := trial.New(ctx, cfg, trial.SystemClock{})
//	if t.IsFinishedNow() {
//	    // lock premium features
//	}
//
// The Reconciler is synchronous and not safe for concurrent use; only one
// reconciler should operate on a given set of sources at a time.
package trial
