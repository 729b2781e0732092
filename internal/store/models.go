package store

import (
	"time"
)

// DefaultProgramID is the program the public snapshot is published for when no program is given.
const DefaultProgramID = "willard-tigers"

// Player is a roster member document.
//
// Name fields are stored as written by the roster tools; any of them may be empty.
// AverageScore, Average, HighGame and GamesPlayed are denormalized values that can
// disagree with the numbers computed from game records.
type Player struct {
	ID          string `json:"id"`
	ProgramID   string `json:"programId,omitempty"`
	Name        string `json:"name,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DisplayName string `json:"displayName,omitempty"`

	AverageScore *float64 `json:"averageScore,omitempty"`
	Average      *float64 `json:"average,omitempty"`
	HighGame     int      `json:"highGame"`
	HighSeries   int      `json:"highSeries"`
	GamesPlayed  int      `json:"gamesPlayed"`

	// Series achievement counts are maintained by the scoring tools, series are not formed here.
	SeriesOver25  int `json:"seriesOver25"`
	SeriesOver50  int `json:"seriesOver50"`
	SeriesOver100 int `json:"seriesOver100"`

	IsActive  bool `json:"isActive"`
	IsClaimed bool `json:"isClaimed"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Team holds the ordered roster used by the team aggregator.
type Team struct {
	ID        string   `json:"id"`
	ProgramID string   `json:"programId,omitempty"`
	Name      string   `json:"name"`
	PlayerIDs []string `json:"playerIds"`
}

// GameRecord is one bowled game as written by the scoring system. Records are never
// mutated by this service.
type GameRecord struct {
	ID         string `json:"id"`
	PlayerID   string `json:"playerId"`
	ProgramID  string `json:"programId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`

	// TotalScore is nil when the stored value is missing or not a number.
	TotalScore *int `json:"totalScore,omitempty"`

	StrikeCount int `json:"strikeCount"`
	SpareCount  int `json:"spareCount"`
	SplitCount  int `json:"splitCount"`

	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Score returns the total score and whether the record counts as a completed game.
// Missing, non-numeric and non-positive scores are incomplete entries.
func (g *GameRecord) Score() (int, bool) {
	if g == nil || g.TotalScore == nil || *g.TotalScore <= 0 {
		return 0, false
	}
	return *g.TotalScore, true
}

// PublicPlayer is a leaderboard row in the public snapshot.
type PublicPlayer struct {
	Name       string `json:"name"`
	Average    int    `json:"average"`
	HighGame   int    `json:"highGame"`
	HighSeries int    `json:"highSeries"`
}

// RecentHighGame is one entry of the recent high games leaderboard.
type RecentHighGame struct {
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Score      int       `json:"score"`
	Date       time.Time `json:"date"`
}

// PublicStats is the denormalized snapshot served to anonymous readers. It is
// replaced as a whole on every publish.
type PublicStats struct {
	ProgramID       string           `json:"programId"`
	TeamAverage     int              `json:"teamAverage"`
	TotalGames      int              `json:"totalGames"`
	PlayerCount     int              `json:"playerCount"`
	TopPlayers      []PublicPlayer   `json:"topPlayers"`
	RecentHighGames []RecentHighGame `json:"recentHighGames"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// IntPtr is a helper for optional scores.
func IntPtr(v int) *int { return &v }

// FloatPtr is a helper for optional averages.
func FloatPtr(v float64) *float64 { return &v }
