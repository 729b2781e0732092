package store

import (
	"fmt"
	"time"
)

// DemoData builds a small varsity roster with a few weeks of games, used for local runs.
func DemoData(programID string, now time.Time) ([]*Player, []*Team, []*GameRecord) {
	roster := []struct {
		id, first, last string
		scores          []int
		highSeries      int
	}{
		{"p-avery", "Avery", "Collins", []int{182, 201, 176, 214, 190, 168}, 561},
		{"p-jordan", "Jordan", "Pike", []int{154, 149, 171, 162, 0, 158}, 471},
		{"p-riley", "Riley", "Hart", []int{221, 188, 239, 205}, 640},
		{"p-casey", "Casey", "Mendez", []int{132, 145}, 0},
		{"p-morgan", "Morgan", "Lee", []int{168, 174, 159, 181, 177, 166, 190}, 522},
	}

	players := make([]*Player, 0, len(roster))
	team := &Team{ID: "varsity", ProgramID: programID, Name: "Varsity"}
	var games []*GameRecord

	for _, r := range roster {
		total, count, high := 0, 0, 0
		for i, s := range r.scores {
			games = append(games, &GameRecord{
				ID:          fmt.Sprintf("%s-g%d", r.id, i+1),
				PlayerID:    r.id,
				ProgramID:   programID,
				PlayerName:  r.first + " " + r.last,
				TotalScore:  IntPtr(s),
				StrikeCount: s / 30,
				SpareCount:  (s % 30) / 10,
				Date:        now.AddDate(0, 0, -3*(len(r.scores)-i)),
			})
			if s > 0 {
				total += s
				count++
				if s > high {
					high = s
				}
			}
		}

		avg := 0.0
		if count > 0 {
			avg = float64(total) / float64(count)
		}
		players = append(players, &Player{
			ID:           r.id,
			ProgramID:    programID,
			FirstName:    r.first,
			LastName:     r.last,
			DisplayName:  r.first + " " + r.last,
			AverageScore: FloatPtr(avg),
			HighGame:     high,
			HighSeries:   r.highSeries,
			GamesPlayed:  count,
			IsActive:     true,
		})
		team.PlayerIDs = append(team.PlayerIDs, r.id)
	}

	return players, []*Team{team}, games
}
