package stats

import "sort"

// TopAveragesCount is the size of TeamStats.TopAverages.
const TopAveragesCount = 5

// TeamStats rolls up the qualifying players of a roster.
type TeamStats struct {
	TotalPlayers             int                `json:"totalPlayers"`
	TeamAverage              int                `json:"teamAverage"`
	TotalGames               int                `json:"totalGames"`
	HighIndividualGame       int                `json:"highIndividualGame"`
	HighIndividualGamePlayer string             `json:"highIndividualGamePlayer"`
	TopAverages              []*PlayerGameStats `json:"topAverages"`
}

// ComputeTeamStats aggregates players given in roster order. Nil entries and players
// without games are ignored. The first player reaching the maximum high game owns it,
// and TopAverages keeps roster order among equal averages.
func ComputeTeamStats(players []*PlayerGameStats) *TeamStats {
	ts := &TeamStats{TopAverages: []*PlayerGameStats{}}

	qualifying := make([]*PlayerGameStats, 0, len(players))
	for _, p := range players {
		if p != nil && p.Games > 0 {
			qualifying = append(qualifying, p)
		}
	}
	if len(qualifying) == 0 {
		return ts
	}

	totalPins := 0
	for _, p := range qualifying {
		ts.TotalGames += p.Games
		totalPins += p.TotalPins
		if p.HighGame > ts.HighIndividualGame {
			ts.HighIndividualGame = p.HighGame
			ts.HighIndividualGamePlayer = p.PlayerName
		}
	}
	ts.TotalPlayers = len(qualifying)
	ts.TeamAverage = RoundRatio(float64(totalPins), float64(ts.TotalGames))

	sorted := SortByAverage(qualifying)
	if len(sorted) > TopAveragesCount {
		sorted = sorted[:TopAveragesCount]
	}
	ts.TopAverages = sorted

	return ts
}

// SortByAverage returns a copy sorted by average descending, stable for ties.
func SortByAverage(players []*PlayerGameStats) []*PlayerGameStats {
	out := make([]*PlayerGameStats, 0, len(players))
	for _, p := range players {
		if p != nil {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Average > out[j].Average })
	return out
}
