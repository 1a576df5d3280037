// Package kvstore provides the key-value persistence the entity store is built on.
//
// The browser client keeps every collection as one JSON document under a fixed
// key in local storage. The backends here reproduce that contract for a server
// or CLI process: a value is an opaque byte slice, read and written whole.
//
// Supported backends:
//   - memory: process-local map, used by tests and dry runs
//   - sqlite: single `state(bucket, payload)` table in a local database file
//   - postgres: the same table in Postgres (JSONB payload)
//   - redis: one string key per collection under a configurable prefix
package kvstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the get/set/list key-value contract.
type Store interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Keys lists stored keys in lexical order.
	Keys(ctx context.Context) ([]string, error)
	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend string

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string

	// Redis connection for the redis backend.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// Open constructs the backend named in opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	const op = "Open"

	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return NewSQLite(ctx, opts.SQLitePath)
	case BackendPostgres:
		return NewPostgres(ctx, opts.PostgresDSN)
	case BackendRedis:
		return NewRedis(ctx, RedisConfig{
			Addr:      opts.RedisAddr,
			Password:  opts.RedisPassword,
			DB:        opts.RedisDB,
			KeyPrefix: opts.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("%s: unknown backend %q", op, opts.Backend)
	}
}
