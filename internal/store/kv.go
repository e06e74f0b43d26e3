package store

import (
	"context"
	"fmt"
	"strings"
)

// Keys of the persisted local state.
const (
	KeyOffers     = "offers"
	KeyLastUpdate = "lastUpdate"
	KeyTotal      = "total"
)

// KV is the key/value surface the accumulated state is persisted through.
type KV interface {
	// Get returns ok=false for a missing key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// SetMany writes all pairs atomically where the backend allows it.
	SetMany(ctx context.Context, pairs map[string]string) error
	Close() error
}

type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

type Options struct {
	Backend     Backend
	SQLitePath  string
	RedisAddr   string
	RedisPrefix string
}

// OpenKV opens the configured backend.
func OpenKV(opts Options) (KV, error) {
	switch Backend(strings.ToLower(string(opts.Backend))) {
	case "", BackendSQLite:
		return OpenSQLite(opts.SQLitePath)
	case BackendRedis:
		return NewRedis(opts.RedisAddr, opts.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", opts.Backend)
	}
}
