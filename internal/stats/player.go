package stats

import "github.com/fortuna/tigerstats/internal/store"

// RecentGamesCount is how many trailing scores PlayerGameStats.RecentGames keeps.
const RecentGamesCount = 5

// PlayerGameStats is the per-player summary computed from game records.
type PlayerGameStats struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`

	Games       int   `json:"games"`
	TotalPins   int   `json:"totalPins"`
	Average     int   `json:"average"`
	HighGame    int   `json:"highGame"`
	LowGame     int   `json:"lowGame"`
	Strikes     int   `json:"strikes"`
	Spares      int   `json:"spares"`
	Splits      int   `json:"splits"`
	RecentGames []int `json:"recentGames"`

	GamesOver25   int `json:"gamesOver25"`
	GamesOver50   int `json:"gamesOver50"`
	GamesOver100  int `json:"gamesOver100"`
	SeriesOver25  int `json:"seriesOver25"`
	SeriesOver50  int `json:"seriesOver50"`
	SeriesOver100 int `json:"seriesOver100"`
	HighSeries    int `json:"highSeries"`
	LongestStreak int `json:"longestStreak"`
}

// ComputePlayerStats aggregates the player's records in the order given. Records with a
// missing or non-positive score are skipped. With no qualifying records every numeric
// field is zero and RecentGames is empty.
func ComputePlayerStats(player *store.Player, games []*store.GameRecord) *PlayerGameStats {
	s := &PlayerGameStats{
		PlayerName:  DisplayName(player),
		RecentGames: []int{},
	}
	if player != nil {
		s.PlayerID = player.ID
		s.SeriesOver25 = player.SeriesOver25
		s.SeriesOver50 = player.SeriesOver50
		s.SeriesOver100 = player.SeriesOver100
		s.HighSeries = player.HighSeries
	}

	scores := make([]int, 0, len(games))
	for _, g := range games {
		score, ok := g.Score()
		if !ok {
			continue
		}
		if len(scores) == 0 || score > s.HighGame {
			s.HighGame = score
		}
		if len(scores) == 0 || score < s.LowGame {
			s.LowGame = score
		}
		scores = append(scores, score)
		s.TotalPins += score
		s.Strikes += g.StrikeCount
		s.Spares += g.SpareCount
		s.Splits += g.SplitCount
	}

	s.Games = len(scores)
	if s.Games == 0 {
		return s
	}

	s.Average = RoundRatio(float64(s.TotalPins), float64(s.Games))
	start := len(scores) - RecentGamesCount
	if start < 0 {
		start = 0
	}
	s.RecentGames = append(s.RecentGames, scores[start:]...)

	tiers := CountTiers(scores, s.Average)
	s.GamesOver25 = tiers.Bronze
	s.GamesOver50 = tiers.Silver
	s.GamesOver100 = tiers.Gold
	s.LongestStreak = LongestStreak(scores, s.Average)

	return s
}
