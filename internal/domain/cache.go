package domain

import (
	"context"
	"time"
)

// SnapshotCache provides fast read access to the latest snapshot per match so
// the query layer can serve hot reads without touching Postgres.
type SnapshotCache interface {
	Set(ctx context.Context, snap Snapshot) error
	Get(ctx context.Context, id int64) (Snapshot, error)
	Invalidate(ctx context.Context, id int64) error
}

// StreamMessage is a single entry read from a durable signal stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus carries cycle events (high-EV signals, position changes) between
// the pipeline, the WebSocket hub, and any external consumers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

// LockManager provides distributed mutual exclusion so only one process runs
// a polling cycle or reconciliation pass at a time.
type LockManager interface {
	// Acquire obtains the named lock with a TTL and returns an unlock
	// function. It returns ErrLockHeld when another holder has the lock.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// RateLimiter bounds the request rate against upstream feeds and the query
// API.
type RateLimiter interface {
	// Allow reports whether a request for key is permitted under the window,
	// counting it when permitted.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	// Wait blocks until a request for key is allowed under the window or the
	// context ends.
	Wait(ctx context.Context, key string, limit int, window time.Duration) error
}
