package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fortuna/tigerstats/internal/store"
	"github.com/fortuna/tigerstats/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var publishNow = time.Date(2026, 3, 20, 2, 0, 0, 0, time.UTC)

type recordingListener struct {
	mu    sync.Mutex
	calls []*store.PublicStats
	err   error
}

func (l *recordingListener) SnapshotPublished(ctx context.Context, snapshot *store.PublicStats) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, snapshot)
	return l.err
}

type mapCache struct {
	entries map[string]*store.PublicStats
	reads   int
	err     error
}

func (c *mapCache) GetPublicStats(ctx context.Context, programID string) (*store.PublicStats, bool, error) {
	c.reads++
	if c.err != nil {
		return nil, false, c.err
	}
	s, ok := c.entries[programID]
	return s, ok, nil
}

func (c *mapCache) SetPublicStats(ctx context.Context, snapshot *store.PublicStats) error {
	if c.entries == nil {
		c.entries = make(map[string]*store.PublicStats)
	}
	c.entries[snapshot.ProgramID] = snapshot
	return nil
}

func programStore() *memory.Store {
	s := memory.New().WithClock(func() time.Time { return publishNow })
	pid := store.DefaultProgramID

	s.AddPlayer(&store.Player{ID: "a", ProgramID: pid, Name: "Avery", AverageScore: store.FloatPtr(100), GamesPlayed: 20, HighGame: 150, IsActive: true})
	s.AddPlayer(&store.Player{ID: "b", ProgramID: pid, DisplayName: "Blake", Average: store.FloatPtr(200), GamesPlayed: 5, HighGame: 245, HighSeries: 640, IsActive: true})
	s.AddPlayer(&store.Player{ID: "c", ProgramID: pid, Name: "Casey", AverageScore: store.FloatPtr(260), GamesPlayed: 2, IsActive: true})
	s.AddPlayer(&store.Player{ID: "d", ProgramID: pid, Name: "Drew", AverageScore: store.FloatPtr(190), GamesPlayed: 30, IsActive: false})
	s.AddPlayer(&store.Player{ID: "e", ProgramID: "other", Name: "Eli", AverageScore: store.FloatPtr(190), GamesPlayed: 30, IsActive: true})

	game := func(id, playerID string, score int, daysAgo int) {
		s.AddGame(&store.GameRecord{
			ID:         id,
			PlayerID:   playerID,
			ProgramID:  pid,
			TotalScore: store.IntPtr(score),
			Date:       publishNow.AddDate(0, 0, -daysAgo),
		})
	}
	game("g1", "a", 180, 1)
	game("g2", "b", 230, 2)
	game("g3", "b", 245, 2)
	game("g4", "a", 210, 5)
	game("g5", "c", 279, 45)

	return s
}

func newSnapshotService(t *testing.T, repo store.Repository, cache SnapshotCache) *SnapshotService {
	t.Helper()
	logger, _ := newTestLogger()
	svc := NewSnapshotService(repo, cache, logger, SnapshotConfig{})
	svc.SetClock(func() time.Time { return publishNow })
	return svc
}

func TestPublish(t *testing.T) {
	repo := programStore()
	svc := newSnapshotService(t, repo, nil)
	listener := &recordingListener{}
	svc.AddListener(listener)

	res, err := svc.Publish(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, store.DefaultProgramID, res.ProgramID)
	assert.Equal(t, 3, res.PlayerCount)
	// (100*20 + 200*5 + 260*2) / 27
	assert.Equal(t, 130, res.TeamAverage)
	assert.Equal(t, 27, res.TotalGames)
	assert.Equal(t, publishNow, res.UpdatedAt)
	assert.NotEmpty(t, res.RunID)

	snap, err := repo.GetPublicStats(context.Background(), store.DefaultProgramID)
	require.NoError(t, err)

	require.Len(t, snap.TopPlayers, 2)
	assert.Equal(t, store.PublicPlayer{Name: "Blake", Average: 200, HighGame: 245, HighSeries: 640}, snap.TopPlayers[0])
	assert.Equal(t, "Avery", snap.TopPlayers[1].Name)

	require.Len(t, snap.RecentHighGames, 2)
	assert.Equal(t, "b", snap.RecentHighGames[0].PlayerID)
	assert.Equal(t, 245, snap.RecentHighGames[0].Score)
	assert.Equal(t, "Blake", snap.RecentHighGames[0].PlayerName)
	assert.Equal(t, "a", snap.RecentHighGames[1].PlayerID)
	assert.Equal(t, 180, snap.RecentHighGames[1].Score)

	require.Len(t, listener.calls, 1)
	assert.Equal(t, snap.TeamAverage, listener.calls[0].TeamAverage)
}

func TestPublish_NoActivePlayers(t *testing.T) {
	repo := programStore()
	svc := newSnapshotService(t, repo, nil)
	listener := &recordingListener{}
	svc.AddListener(listener)

	res, err := svc.Publish(context.Background(), "empty-program")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, NoActivePlayersMessage, res.Message)
	assert.Equal(t, 0, repo.SnapshotWrites())
	assert.Empty(t, listener.calls)
}

func TestPublish_Idempotent(t *testing.T) {
	repo := programStore()
	svc := newSnapshotService(t, repo, nil)
	ctx := context.Background()

	read := func() []byte {
		_, err := svc.Publish(ctx, store.DefaultProgramID)
		require.NoError(t, err)
		snap, err := repo.GetPublicStats(ctx, store.DefaultProgramID)
		require.NoError(t, err)
		snap.UpdatedAt = time.Time{}
		b, err := json.Marshal(snap)
		require.NoError(t, err)
		return b
	}

	assert.Equal(t, string(read()), string(read()))
	assert.Equal(t, 1, repo.SnapshotWrites())
}

func TestPublish_ReadLimitCapsRecall(t *testing.T) {
	repo := programStore()
	logger, _ := newTestLogger()
	svc := NewSnapshotService(repo, nil, logger, SnapshotConfig{RecentGamesReadLimit: 1})
	svc.SetClock(func() time.Time { return publishNow })

	_, err := svc.Publish(context.Background(), store.DefaultProgramID)
	require.NoError(t, err)

	snap, err := repo.GetPublicStats(context.Background(), store.DefaultProgramID)
	require.NoError(t, err)
	require.Len(t, snap.RecentHighGames, 1)
	assert.Equal(t, "a", snap.RecentHighGames[0].PlayerID)
}

func TestPublish_ListenerErrorDoesNotFail(t *testing.T) {
	svc := newSnapshotService(t, programStore(), nil)
	failing := &recordingListener{err: errors.New("redis down")}
	after := &recordingListener{}
	svc.AddListener(failing)
	svc.AddListener(after)

	res, err := svc.Publish(context.Background(), store.DefaultProgramID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, after.calls, 1)
}

func TestPublish_StoreFailure(t *testing.T) {
	repo := programStore()
	repo.Err = errors.New("deadline exceeded")
	svc := newSnapshotService(t, repo, nil)

	_, err := svc.Publish(context.Background(), store.DefaultProgramID)
	assert.Error(t, err)
}

// blockingPlayers holds ListActivePlayers open until released or its ctx ends.
type blockingPlayers struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func newBlockingPlayers(s *memory.Store) *blockingPlayers {
	return &blockingPlayers{Store: s, entered: make(chan struct{}, 4), release: make(chan struct{})}
}

func (b *blockingPlayers) ListActivePlayers(ctx context.Context, programID string) ([]*store.Player, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.entered <- struct{}{}

	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.Store.ListActivePlayers(ctx, programID)
}

func (b *blockingPlayers) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestPublish_CancelledCallerDoesNotFailJoinedCaller(t *testing.T) {
	repo := newBlockingPlayers(programStore())
	svc := newSnapshotService(t, repo, nil)

	httpCtx, cancelHTTP := context.WithCancel(context.Background())
	defer cancelHTTP()

	type outcome struct {
		res *PublishResult
		err error
	}
	first := make(chan outcome, 1)
	second := make(chan outcome, 1)

	go func() {
		res, err := svc.Publish(httpCtx, store.DefaultProgramID)
		first <- outcome{res, err}
	}()
	<-repo.entered

	go func() {
		res, err := svc.Publish(context.Background(), store.DefaultProgramID)
		second <- outcome{res, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelHTTP()
	a := <-first
	assert.ErrorIs(t, a.err, context.Canceled)

	close(repo.release)
	b := <-second
	require.NoError(t, b.err)
	assert.True(t, b.res.Success)
	assert.Equal(t, 1, repo.callCount())
	assert.Equal(t, 1, repo.SnapshotWrites())
}

func TestPublish_ConcurrentCallersShareRun(t *testing.T) {
	repo := newBlockingPlayers(programStore())
	svc := newSnapshotService(t, repo, nil)

	results := make(chan *PublishResult, 2)
	for i := 0; i < 2; i++ {
		go func() {
			res, err := svc.Publish(context.Background(), store.DefaultProgramID)
			assert.NoError(t, err)
			results <- res
		}()
	}
	<-repo.entered
	time.Sleep(50 * time.Millisecond)
	close(repo.release)

	a, b := <-results, <-results
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, a.RunID, b.RunID)
	assert.Equal(t, 1, repo.callCount())
}

func TestPublish_RunBoundedByTimeout(t *testing.T) {
	repo := newBlockingPlayers(programStore())
	logger, _ := newTestLogger()
	svc := NewSnapshotService(repo, nil, logger, SnapshotConfig{PublishTimeout: 20 * time.Millisecond})

	_, err := svc.Publish(context.Background(), store.DefaultProgramID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetPublicStats(t *testing.T) {
	repo := programStore()
	cache := &mapCache{}
	svc := newSnapshotService(t, repo, cache)
	ctx := context.Background()

	_, err := svc.GetPublicStats(ctx, store.DefaultProgramID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Publish(ctx, store.DefaultProgramID)
	require.NoError(t, err)

	first, err := svc.GetPublicStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 130, first.TeamAverage)
	require.Contains(t, cache.entries, store.DefaultProgramID)

	repo.Err = errors.New("store offline")
	second, err := svc.GetPublicStats(ctx, store.DefaultProgramID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetPublicStats_CacheErrorFallsBackToStore(t *testing.T) {
	repo := programStore()
	cache := &mapCache{err: errors.New("circuit open")}
	svc := newSnapshotService(t, repo, cache)
	ctx := context.Background()

	_, err := svc.Publish(ctx, store.DefaultProgramID)
	require.NoError(t, err)

	snap, err := svc.GetPublicStats(ctx, store.DefaultProgramID)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.PlayerCount)
	assert.Equal(t, 1, cache.reads)
}
