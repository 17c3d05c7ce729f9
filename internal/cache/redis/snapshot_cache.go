package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

const snapshotTTL = 5 * time.Minute

// SnapshotCache implements domain.SnapshotCache using Redis string keys with
// JSON-serialized snapshots.
//
// Key schema:
//
//	snapshot:{id} - JSON-encoded domain.Snapshot
type SnapshotCache struct {
	rdb *redis.Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying()}
}

func snapshotKey(id int64) string {
	return "snapshot:" + strconv.FormatInt(id, 10)
}

// Set stores the latest revision of a snapshot with a 5-minute TTL.
func (sc *SnapshotCache) Set(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot %d: %w", snap.ID, err)
	}
	if err := sc.rdb.Set(ctx, snapshotKey(snap.ID), data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot %d: %w", snap.ID, err)
	}
	return nil
}

// Get retrieves a snapshot by match id. It returns domain.ErrNotFound when
// the key does not exist or has expired.
func (sc *SnapshotCache) Get(ctx context.Context, id int64) (domain.Snapshot, error) {
	data, err := sc.rdb.Get(ctx, snapshotKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, domain.ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("redis: get snapshot %d: %w", id, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("redis: unmarshal snapshot %d: %w", id, err)
	}
	return snap, nil
}

// Invalidate removes a snapshot from the cache.
func (sc *SnapshotCache) Invalidate(ctx context.Context, id int64) error {
	if err := sc.rdb.Del(ctx, snapshotKey(id)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate snapshot %d: %w", id, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
