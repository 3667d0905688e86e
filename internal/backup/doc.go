// Package backup ships off-site copies of the preferences store.
//
// A Dispatcher turns RequestBackup calls into at most one background upload
// at a time, throttled to a minimum interval. Requests arriving while an
// upload is running collapse into one follow-up upload; requests inside the
// interval are deferred until it elapses. Wait flushes a deferred request, so
// the last change made before shutdown is always uploaded.
//
// Callers never learn the outcome of a request. Failures are logged, counted
// and surfaced only through Wait.
package backup
