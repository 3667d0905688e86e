// Package kv provides the key-value stores backing the preferences trial
// source. Values are int64 and keys are grouped into namespaces.
package kv

import (
	"context"
	"fmt"
	"strings"

	apperrors "trialguard/internal/errors"
)

// Store is a namespaced int64 key-value store.
type Store interface {
	// Get returns the value stored under ns/key. ok is false when the key
	// has never been written.
	Get(ctx context.Context, ns, key string) (value int64, ok bool, err error)
	// Set stores value under ns/key, replacing any previous value.
	Set(ctx context.Context, ns, key string, value int64) error
	Close() error
}

// Open returns the store for the named backend.
func Open(ctx context.Context, backend, dsn string) (Store, error) {
	switch strings.ToLower(backend) {
	case "sqlite":
		return OpenSQLite(dsn)
	case "redis":
		return OpenRedis(ctx, dsn)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported preferences backend %q", backend), nil)
	}
}
