package trial

import (
	"context"
	"time"
)

// Source is one independent origin of the trial start timestamp.
//
// Read must never fail: a missing, inaccessible or corrupt value is reported
// as ok == false. Persist is best effort and swallows its own failures.
// Sources that cannot store a value implement Persist as a no-op, usually by
// embedding ReadOnly.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Read returns the stored timestamp, or ok == false when the source has no opinion.
	Read(ctx context.Context) (ts Timestamp, ok bool)
	// Persist stores ts in the source's backing store, if it has one.
	Persist(ctx context.Context, ts Timestamp)
}

// ReadOnly provides a no-op Persist for sources that cannot store a value.
type ReadOnly struct{}

// Persist does nothing.
func (ReadOnly) Persist(context.Context, Timestamp) {}

// Clock abstracts the wall clock so trial checks can be tested.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the current system time.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time {
	return time.Now()
}
