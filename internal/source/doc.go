// Package source provides the concrete trial start sources:
//
//   - InstallTimeSource reads the modification time of the installed binary
//   - PreferencesSource keeps the timestamp in a kv.Store
//   - FileSource keeps the timestamp in a flat text file
//
// All of them satisfy trial.Source. Failures are logged and never returned.
package source
