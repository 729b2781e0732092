package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fortuna/tigerstats/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "tigerstats:public-stats:willard-tigers", SnapshotKey(store.DefaultProgramID))
}

func TestSnapshotCache_DefaultTTL(t *testing.T) {
	c := NewSnapshotCache(unreachableClient(t), 0, quietLogger())
	assert.Equal(t, DefaultSnapshotTTL, c.ttl)
}

func TestSnapshotCache_BreakerOpensWhenRedisIsDown(t *testing.T) {
	c := NewSnapshotCache(unreachableClient(t), time.Minute, quietLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, ok, err := c.GetPublicStats(ctx, store.DefaultProgramID)
		require.Error(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, gobreaker.StateOpen, c.State())

	err := c.SetPublicStats(ctx, &store.PublicStats{ProgramID: store.DefaultProgramID})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	err = c.SnapshotPublished(ctx, &store.PublicStats{ProgramID: store.DefaultProgramID})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func miniRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestSnapshotCache_RoundTrip(t *testing.T) {
	mr, client := miniRedisClient(t)
	c := NewSnapshotCache(client, time.Minute, quietLogger())
	ctx := context.Background()

	_, ok, err := c.GetPublicStats(ctx, store.DefaultProgramID)
	require.NoError(t, err)
	assert.False(t, ok)

	in := &store.PublicStats{
		ProgramID:   store.DefaultProgramID,
		TeamAverage: 171,
		TotalGames:  40,
		PlayerCount: 5,
		TopPlayers:  []store.PublicPlayer{{Name: "Riley", Average: 213, HighGame: 239, HighSeries: 640}},
		RecentHighGames: []store.RecentHighGame{
			{PlayerID: "p-riley", PlayerName: "Riley Hart", Score: 239, Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		},
		UpdatedAt: time.Date(2026, 3, 20, 2, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.SetPublicStats(ctx, in))
	assert.Equal(t, time.Minute, mr.TTL(SnapshotKey(store.DefaultProgramID)))

	out, ok, err := c.GetPublicStats(ctx, store.DefaultProgramID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestSnapshotCache_MissesDoNotTripBreaker(t *testing.T) {
	_, client := miniRedisClient(t)
	c := NewSnapshotCache(client, time.Minute, quietLogger())

	for i := 0; i < 5; i++ {
		_, ok, err := c.GetPublicStats(context.Background(), "unknown-program")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestSnapshotCache_CorruptEntry(t *testing.T) {
	mr, client := miniRedisClient(t)
	c := NewSnapshotCache(client, time.Minute, quietLogger())
	require.NoError(t, mr.Set(SnapshotKey(store.DefaultProgramID), "{not json"))

	_, ok, err := c.GetPublicStats(context.Background(), store.DefaultProgramID)
	assert.ErrorContains(t, err, "decoding cached snapshot")
	assert.False(t, ok)
}

func TestSnapshotCache_SnapshotPublishedRefreshes(t *testing.T) {
	_, client := miniRedisClient(t)
	c := NewSnapshotCache(client, time.Minute, quietLogger())
	ctx := context.Background()

	require.NoError(t, c.SetPublicStats(ctx, &store.PublicStats{ProgramID: "p", TeamAverage: 150}))
	require.NoError(t, c.SnapshotPublished(ctx, &store.PublicStats{ProgramID: "p", TeamAverage: 160}))

	out, ok, err := c.GetPublicStats(ctx, "p")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 160, out.TeamAverage)
}
