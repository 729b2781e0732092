package stats

import (
	"sort"

	"github.com/fortuna/tigerstats/internal/store"
)

// Public snapshot limits.
const (
	TopPlayersCount      = 10
	TopPlayersMinGames   = 3
	RecentHighGamesCount = 10
)

// BuildPublicStats computes the public snapshot from the program's active players and
// its recent game records, which must be ordered by date then score, both descending.
// UpdatedAt is left for the store to assign.
func BuildPublicStats(programID string, players []*store.Player, recent []*store.GameRecord) *store.PublicStats {
	type entry struct {
		player  *store.Player
		average float64
	}

	entries := make([]entry, 0, len(players))
	var weightedPins, totalGames float64
	for _, p := range players {
		if p == nil {
			continue
		}
		avg := StoredAverage(p)
		entries = append(entries, entry{player: p, average: avg})
		weightedPins += avg * float64(p.GamesPlayed)
		totalGames += float64(p.GamesPlayed)
	}

	ps := &store.PublicStats{
		ProgramID:   programID,
		TeamAverage: RoundRatio(weightedPins, totalGames),
		TotalGames:  int(totalGames),
		PlayerCount: len(entries),
		TopPlayers:  []store.PublicPlayer{},
	}

	ranked := make([]entry, 0, len(entries))
	for _, e := range entries {
		if e.player.GamesPlayed >= TopPlayersMinGames {
			ranked = append(ranked, e)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].average > ranked[j].average })
	if len(ranked) > TopPlayersCount {
		ranked = ranked[:TopPlayersCount]
	}
	for _, e := range ranked {
		ps.TopPlayers = append(ps.TopPlayers, store.PublicPlayer{
			Name:       PublicName(e.player),
			Average:    Round(e.average),
			HighGame:   e.player.HighGame,
			HighSeries: e.player.HighSeries,
		})
	}

	names := make(map[string]string, len(entries))
	for _, e := range entries {
		names[e.player.ID] = PublicName(e.player)
	}
	ps.RecentHighGames = SelectRecentHighGames(recent, names)

	return ps
}

// SelectRecentHighGames walks games in the given order keeping the first valid game of
// each player until RecentHighGamesCount players are collected, then orders the result
// by score descending. The record's player name is used when present, else names.
func SelectRecentHighGames(games []*store.GameRecord, names map[string]string) []store.RecentHighGame {
	out := []store.RecentHighGame{}
	seen := make(map[string]bool)

	for _, g := range games {
		if len(out) >= RecentHighGamesCount {
			break
		}
		score, ok := g.Score()
		if !ok || g.PlayerID == "" || seen[g.PlayerID] {
			continue
		}
		seen[g.PlayerID] = true

		name := g.PlayerName
		if name == "" {
			name = names[g.PlayerID]
		}
		if name == "" {
			name = UnknownPublic
		}

		out = append(out, store.RecentHighGame{
			PlayerID:   g.PlayerID,
			PlayerName: name,
			Score:      score,
			Date:       g.Date,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
