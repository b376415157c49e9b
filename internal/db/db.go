package db

import (
	"context"
	"time"
)

// Store is the database facade used by the repositories.
type Store interface {
	Pinger
	KVStore
	ListStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// ListStore provides capped list operations, newest element first.
type ListStore interface {
	LPush(ctx context.Context, key string, values ...string) error
	// LTrim keeps elements in [start, stop], both inclusive.
	LTrim(ctx context.Context, key string, start, stop int64) error
	// LRem removes every occurrence of value.
	LRem(ctx context.Context, key, value string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}
