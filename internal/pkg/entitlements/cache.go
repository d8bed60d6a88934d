package entitlements

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// snapshotTTL matches the poll interval: a cached snapshot older than one
// tick is stale by definition.
const snapshotTTL = 30 * time.Second

// Cache keeps the latest snapshot per user in Redis so request handlers can
// read entitlement state without waiting for a provider round trip.
type Cache struct {
	client *redis.Client
}

// NewCache wraps a Redis client. A nil client yields a cache that misses
// everything, which keeps tests and degraded deployments working.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func snapshotKey(userID uint) string {
	return fmt.Sprintf("entitlements:%d", userID)
}

// Put stores a snapshot with the freshness TTL. Failures are returned but
// callers treat them as best-effort.
func (c *Cache) Put(ctx context.Context, userID uint, snap Snapshot) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(userID), data, snapshotTTL).Err()
}

// Get returns the cached snapshot for the user, if a fresh one exists.
func (c *Cache) Get(ctx context.Context, userID uint) (Snapshot, bool) {
	if c == nil || c.client == nil {
		return Snapshot{}, false
	}
	data, err := c.client.Get(ctx, snapshotKey(userID)).Bytes()
	if err != nil {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false
	}
	return snap, true
}

// Drop removes the cached snapshot (logout path).
func (c *Cache) Drop(ctx context.Context, userID uint) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, snapshotKey(userID))
}
