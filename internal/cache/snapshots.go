// Package cache keeps public snapshots in Redis so anonymous reads skip the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/tigerstats/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// DefaultSnapshotTTL matches the public Cache-Control max-age.
const DefaultSnapshotTTL = time.Hour

// SnapshotKey is the Redis key of a program's snapshot.
func SnapshotKey(programID string) string {
	return fmt.Sprintf("tigerstats:public-stats:%s", programID)
}

// SnapshotCache stores snapshots as JSON with a TTL. Calls go through a circuit breaker
// so an unreachable Redis fails fast instead of slowing every public read.
type SnapshotCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Entry
}

// NewSnapshotCache creates a snapshot cache on client.
func NewSnapshotCache(client redis.Cmdable, ttl time.Duration, logger *logrus.Entry) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "snapshot-cache",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("Snapshot cache circuit breaker state changed")
		},
	})

	return &SnapshotCache{
		client:  client,
		ttl:     ttl,
		breaker: cb,
		logger:  logger,
	}
}

// GetPublicStats returns the cached snapshot and whether it was present.
func (c *SnapshotCache) GetPublicStats(ctx context.Context, programID string) (*store.PublicStats, bool, error) {
	raw, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, SnapshotKey(programID)).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached snapshot: %w", err)
	}

	var snapshot store.PublicStats
	if err := json.Unmarshal(raw.([]byte), &snapshot); err != nil {
		return nil, false, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	return &snapshot, true, nil
}

// SetPublicStats caches the snapshot under its program id.
func (c *SnapshotCache) SetPublicStats(ctx context.Context, snapshot *store.PublicStats) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, SnapshotKey(snapshot.ProgramID), data, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("caching snapshot: %w", err)
	}
	return nil
}

// SnapshotPublished refreshes the cached copy after a publish.
func (c *SnapshotCache) SnapshotPublished(ctx context.Context, snapshot *store.PublicStats) error {
	return c.SetPublicStats(ctx, snapshot)
}

// State reports the breaker state for health output.
func (c *SnapshotCache) State() gobreaker.State {
	return c.breaker.State()
}
