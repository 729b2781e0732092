package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTeamStats_ZeroState(t *testing.T) {
	for name, in := range map[string][]*PlayerGameStats{
		"nil":        nil,
		"no games":   {{PlayerID: "a"}, nil},
		"empty list": {},
	} {
		t.Run(name, func(t *testing.T) {
			ts := ComputeTeamStats(in)
			assert.Equal(t, 0, ts.TotalPlayers)
			assert.Equal(t, 0, ts.TeamAverage)
			assert.Equal(t, 0, ts.TotalGames)
			assert.Equal(t, 0, ts.HighIndividualGame)
			assert.NotNil(t, ts.TopAverages)
			assert.Empty(t, ts.TopAverages)
		})
	}
}

func TestComputeTeamStats_PinsWeighted(t *testing.T) {
	ts := ComputeTeamStats([]*PlayerGameStats{
		{PlayerID: "a", PlayerName: "A", Games: 20, TotalPins: 2000, Average: 100, HighGame: 140},
		{PlayerID: "b", PlayerName: "B", Games: 5, TotalPins: 1000, Average: 200, HighGame: 230},
		{PlayerID: "c", PlayerName: "C"},
	})

	assert.Equal(t, 2, ts.TotalPlayers)
	assert.Equal(t, 25, ts.TotalGames)
	assert.Equal(t, 120, ts.TeamAverage)
	assert.Equal(t, 230, ts.HighIndividualGame)
	assert.Equal(t, "B", ts.HighIndividualGamePlayer)
}

func TestComputeTeamStats_TiesKeepRosterOrder(t *testing.T) {
	players := []*PlayerGameStats{
		{PlayerID: "a", PlayerName: "A", Games: 1, TotalPins: 150, Average: 150, HighGame: 200},
		{PlayerID: "b", PlayerName: "B", Games: 1, TotalPins: 160, Average: 160, HighGame: 200},
		{PlayerID: "c", PlayerName: "C", Games: 1, TotalPins: 150, Average: 150, HighGame: 150},
		{PlayerID: "d", PlayerName: "D", Games: 1, TotalPins: 170, Average: 170, HighGame: 170},
		{PlayerID: "e", PlayerName: "E", Games: 1, TotalPins: 150, Average: 150, HighGame: 150},
		{PlayerID: "f", PlayerName: "F", Games: 1, TotalPins: 150, Average: 150, HighGame: 150},
	}
	ts := ComputeTeamStats(players)

	assert.Equal(t, "A", ts.HighIndividualGamePlayer)
	require.Len(t, ts.TopAverages, TopAveragesCount)

	ids := make([]string, 0, len(ts.TopAverages))
	for _, p := range ts.TopAverages {
		ids = append(ids, p.PlayerID)
	}
	assert.Equal(t, []string{"d", "b", "a", "c", "e"}, ids)
}

func TestSortByAverage_IncludesZeroGamePlayers(t *testing.T) {
	sorted := SortByAverage([]*PlayerGameStats{
		{PlayerID: "a", Average: 0},
		nil,
		{PlayerID: "b", Average: 180, Games: 3},
	})
	require.Len(t, sorted, 2)
	assert.Equal(t, "b", sorted[0].PlayerID)
	assert.Equal(t, "a", sorted[1].PlayerID)
}
