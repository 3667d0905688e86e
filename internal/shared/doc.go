// Package shared holds code used across trialguard packages that belongs to
// no single one of them.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler and NewTestLogger for asserting on log output
//   - FixedClock, a trial.Clock frozen at a chosen instant
//   - RecordingSource, an in-memory trial.Source that records persists
//   - testify mocks for trial.Source and backup.Requester
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    src := testutil.NewRecordingSource("file").WithValue(1_000)
//	    // ...
//	    testutil.AssertLogContains(t, handler, slog.LevelInfo, "Trial start reconciled")
//	}
package shared
