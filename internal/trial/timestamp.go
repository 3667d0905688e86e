package trial

import (
	"math"
	"strconv"
	"time"
)

// Timestamp is an instant in milliseconds since the Unix epoch.
type Timestamp int64

// Unavailable is the raw value an adapter may store or return to mean
// "no timestamp". It is never a valid instant.
const Unavailable Timestamp = math.MaxInt64

const day = 24 * time.Hour

// FromTime converts t to a Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Valid reports whether t can take part in reconciliation.
// Negative values and the Unavailable sentinel are rejected.
func (t Timestamp) Valid() bool {
	return t >= 0 && t != Unavailable
}

// Time returns t as a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// Add returns t+d, saturating below the Unavailable sentinel.
func (t Timestamp) Add(d time.Duration) Timestamp {
	ms := d.Milliseconds()
	if ms > 0 && int64(t) > int64(Unavailable-1)-ms {
		return Unavailable - 1
	}
	if ms < 0 && int64(t) < math.MinInt64-ms {
		return math.MinInt64
	}
	return t + Timestamp(ms)
}

// Sub returns the duration t-u, saturating at the limits of time.Duration
// (about 292 years either way).
func (t Timestamp) Sub(u Timestamp) time.Duration {
	const limit = math.MaxInt64 / int64(time.Millisecond)

	ms := t.millisSince(u)
	switch {
	case ms > limit:
		return time.Duration(math.MaxInt64)
	case ms < -limit:
		return time.Duration(math.MinInt64)
	}
	return time.Duration(ms) * time.Millisecond
}

// millisSince returns t-u in milliseconds, saturating at the int64 limits.
func (t Timestamp) millisSince(u Timestamp) int64 {
	a, b := int64(t), int64(u)
	if b < 0 && a > math.MaxInt64+b {
		return math.MaxInt64
	}
	if b > 0 && a < math.MinInt64+b {
		return math.MinInt64
	}
	return a - b
}

// String formats t as RFC 3339 for logs; invalid values print as their raw integer.
func (t Timestamp) String() string {
	if !t.Valid() {
		return strconv.FormatInt(int64(t), 10)
	}
	return t.Time().Format(time.RFC3339Nano)
}

// DaysToDuration converts a trial length in days to a time.Duration.
func DaysToDuration(days int) time.Duration {
	return time.Duration(days) * day
}
