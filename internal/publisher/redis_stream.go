// Package publisher announces published snapshots on Redis streams.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fortuna/tigerstats/internal/store"
	"github.com/redis/go-redis/v9"
)

// SnapshotStream is the stream every program's publish events go to.
const SnapshotStream = "tigerstats.public_stats.published"

// DefaultStreamMaxLen caps the stream so old events are trimmed.
const DefaultStreamMaxLen = 1000

// SnapshotEvent is the payload of a stream entry.
type SnapshotEvent struct {
	ProgramID       string    `json:"programId"`
	TeamAverage     int       `json:"teamAverage"`
	TotalGames      int       `json:"totalGames"`
	PlayerCount     int       `json:"playerCount"`
	TopPlayers      int       `json:"topPlayers"`
	RecentHighGames int       `json:"recentHighGames"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RedisStreamPublisher publishes snapshot events to a Redis stream
type RedisStreamPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
	now    func() time.Time
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client redis.Cmdable) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		stream: SnapshotStream,
		maxLen: DefaultStreamMaxLen,
		now:    time.Now,
	}
}

// NewSnapshotEvent summarizes a snapshot for the stream.
func NewSnapshotEvent(snapshot *store.PublicStats) SnapshotEvent {
	return SnapshotEvent{
		ProgramID:       snapshot.ProgramID,
		TeamAverage:     snapshot.TeamAverage,
		TotalGames:      snapshot.TotalGames,
		PlayerCount:     snapshot.PlayerCount,
		TopPlayers:      len(snapshot.TopPlayers),
		RecentHighGames: len(snapshot.RecentHighGames),
		UpdatedAt:       snapshot.UpdatedAt,
	}
}

// xaddArgs builds the XADD call for an event.
func (p *RedisStreamPublisher) xaddArgs(event SnapshotEvent) (*redis.XAddArgs, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"program_id": event.ProgramID,
			"data":       string(data),
			"timestamp":  p.now().Unix(),
		},
	}, nil
}

// SnapshotPublished appends an event for the snapshot to the stream.
func (p *RedisStreamPublisher) SnapshotPublished(ctx context.Context, snapshot *store.PublicStats) error {
	args, err := p.xaddArgs(NewSnapshotEvent(snapshot))
	if err != nil {
		return fmt.Errorf("encoding snapshot event: %w", err)
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publishing snapshot event: %w", err)
	}
	return nil
}
