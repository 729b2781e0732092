package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fortuna/tigerstats/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlayer_NotFound(t *testing.T) {
	_, err := New().GetPlayer(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = New().GetTeam(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListActivePlayers(t *testing.T) {
	s := New()
	s.AddPlayer(&store.Player{ID: "b", ProgramID: "p", IsActive: true})
	s.AddPlayer(&store.Player{ID: "a", ProgramID: "p", IsActive: true})
	s.AddPlayer(&store.Player{ID: "c", ProgramID: "p"})
	s.AddPlayer(&store.Player{ID: "d", ProgramID: "q", IsActive: true})

	players, err := s.ListActivePlayers(context.Background(), "p")
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "a", players[0].ID)
	assert.Equal(t, "b", players[1].ID)
}

func TestGetGamesForPlayer_InsertionOrder(t *testing.T) {
	s := New()
	for _, score := range []int{150, 120, 180} {
		s.AddGame(&store.GameRecord{PlayerID: "a", TotalScore: store.IntPtr(score)})
	}
	s.AddGame(&store.GameRecord{PlayerID: "b", TotalScore: store.IntPtr(300)})

	games, err := s.GetGamesForPlayer(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, 150, *games[0].TotalScore)
	assert.Equal(t, 180, *games[2].TotalScore)
	assert.NotEmpty(t, games[0].ID)
}

func TestGetRecentGames_OrderAndLimit(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	s := New()
	add := func(score *int, daysAgo int) {
		s.AddGame(&store.GameRecord{PlayerID: "a", ProgramID: "p", TotalScore: score, Date: now.AddDate(0, 0, -daysAgo)})
	}
	add(store.IntPtr(150), 3)
	add(store.IntPtr(210), 1)
	add(nil, 1)
	add(store.IntPtr(230), 1)
	add(store.IntPtr(300), 40)

	games, err := s.GetRecentGames(context.Background(), "p", now.AddDate(0, 0, -30), 10)
	require.NoError(t, err)
	require.Len(t, games, 4)
	assert.Equal(t, 230, *games[0].TotalScore)
	assert.Equal(t, 210, *games[1].TotalScore)
	assert.Nil(t, games[2].TotalScore)
	assert.Equal(t, 150, *games[3].TotalScore)

	games, err = s.GetRecentGames(context.Background(), "p", now.AddDate(0, 0, -30), 2)
	require.NoError(t, err)
	assert.Len(t, games, 2)
}

func TestWritePublicSnapshot_Replaces(t *testing.T) {
	now := time.Date(2026, 3, 20, 2, 0, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time { return now })
	ctx := context.Background()

	first := &store.PublicStats{ProgramID: "p", TeamAverage: 150, TopPlayers: []store.PublicPlayer{{Name: "A"}}}
	require.NoError(t, s.WritePublicSnapshot(ctx, first))
	assert.Equal(t, now, first.UpdatedAt)

	require.NoError(t, s.WritePublicSnapshot(ctx, &store.PublicStats{ProgramID: "p", TeamAverage: 160}))

	got, err := s.GetPublicStats(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 160, got.TeamAverage)
	assert.Empty(t, got.TopPlayers)
	assert.Equal(t, 1, s.SnapshotWrites())
}

func TestErrFailsEverything(t *testing.T) {
	s := New()
	s.Err = errors.New("unavailable")
	ctx := context.Background()

	_, err := s.ListActivePlayers(ctx, "p")
	assert.Error(t, err)
	assert.Error(t, s.WritePublicSnapshot(ctx, &store.PublicStats{ProgramID: "p"}))
	assert.Error(t, s.HealthCheck(ctx))
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := New()
	s.AddTeam(&store.Team{ID: "t", PlayerIDs: []string{"a"}})

	team, err := s.GetTeam(context.Background(), "t")
	require.NoError(t, err)
	team.PlayerIDs[0] = "z"

	again, err := s.GetTeam(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.PlayerIDs)
}

func TestPublicSnapshotIsolatedFromCallers(t *testing.T) {
	s := New()
	ctx := context.Background()

	written := &store.PublicStats{
		ProgramID:       "p",
		TopPlayers:      []store.PublicPlayer{{Name: "Riley", Average: 213}},
		RecentHighGames: []store.RecentHighGame{{PlayerID: "p-riley", Score: 239}},
	}
	require.NoError(t, s.WritePublicSnapshot(ctx, written))
	written.TopPlayers[0].Name = "changed after write"

	got, err := s.GetPublicStats(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "Riley", got.TopPlayers[0].Name)

	got.TopPlayers[0].Average = 0
	got.RecentHighGames[0].Score = 0

	again, err := s.GetPublicStats(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 213, again.TopPlayers[0].Average)
	assert.Equal(t, 239, again.RecentHighGames[0].Score)
}
