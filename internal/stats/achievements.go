package stats

import (
	"fmt"
	"math/rand"
)

// Tier is the achievement level of a score relative to the player's average.
type Tier int

const (
	TierNone Tier = iota
	TierBronze
	TierSilver
	TierGold
)

// Tier thresholds in pins over average.
const (
	BronzeDelta = 25
	SilverDelta = 50
	GoldDelta   = 100
)

func (t Tier) String() string {
	switch t {
	case TierBronze:
		return "bronze"
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	default:
		return "none"
	}
}

// TierFor returns the highest tier the score reaches. Tiers are exclusive: a game 120
// over average is gold only.
func TierFor(score, average int) Tier {
	delta := score - average
	switch {
	case delta >= GoldDelta:
		return TierGold
	case delta >= SilverDelta:
		return TierSilver
	case delta >= BronzeDelta:
		return TierBronze
	default:
		return TierNone
	}
}

// TierCounts tallies scores per tier.
type TierCounts struct {
	Bronze int `json:"bronze"`
	Silver int `json:"silver"`
	Gold   int `json:"gold"`
}

func CountTiers(scores []int, average int) TierCounts {
	var c TierCounts
	for _, score := range scores {
		switch TierFor(score, average) {
		case TierGold:
			c.Gold++
		case TierSilver:
			c.Silver++
		case TierBronze:
			c.Bronze++
		}
	}
	return c
}

// LongestStreak is the longest run of consecutive scores at or above average.
func LongestStreak(scores []int, average int) int {
	longest, current := 0, 0
	for _, score := range scores {
		if score >= average {
			current++
			if current > longest {
				longest = current
			}
			continue
		}
		current = 0
	}
	return longest
}

// Highlight thresholds.
const (
	HighGameThreshold   = 200
	HighSeriesThreshold = 500
	HotStreakThreshold  = 5
)

// Category labels a highlight.
type Category string

const (
	CategoryHighGame   Category = "high_game"
	CategoryHighSeries Category = "high_series"
	CategoryHotStreak  Category = "hot_streak"
	CategoryGold       Category = "gold"
	CategorySilver     Category = "silver"
	CategoryBronze     Category = "bronze"
)

// Highlight is one ticker entry.
type Highlight struct {
	PlayerID   string   `json:"playerId"`
	PlayerName string   `json:"playerName"`
	Category   Category `json:"category"`
	Value      int      `json:"value"`
	Text       string   `json:"text"`
}

// Highlights derives the ticker entries for one player.
func Highlights(s *PlayerGameStats) []Highlight {
	if s == nil {
		return nil
	}

	var out []Highlight
	add := func(c Category, value int, text string) {
		out = append(out, Highlight{
			PlayerID:   s.PlayerID,
			PlayerName: s.PlayerName,
			Category:   c,
			Value:      value,
			Text:       text,
		})
	}

	if s.HighGame >= HighGameThreshold {
		add(CategoryHighGame, s.HighGame, fmt.Sprintf("%s rolled a %d high game", s.PlayerName, s.HighGame))
	}
	if s.HighSeries >= HighSeriesThreshold {
		add(CategoryHighSeries, s.HighSeries, fmt.Sprintf("%s bowled a %d series", s.PlayerName, s.HighSeries))
	}
	if s.LongestStreak >= HotStreakThreshold {
		add(CategoryHotStreak, s.LongestStreak, fmt.Sprintf("%s is on fire with %d straight games at or above average", s.PlayerName, s.LongestStreak))
	}
	if n := s.GamesOver100 + s.SeriesOver100; n > 0 {
		add(CategoryGold, n, fmt.Sprintf("%s has %d gold achievements", s.PlayerName, n))
	}
	if n := s.GamesOver50 + s.SeriesOver50; n > 0 {
		add(CategorySilver, n, fmt.Sprintf("%s has %d silver achievements", s.PlayerName, n))
	}
	if n := s.GamesOver25 + s.SeriesOver25; n > 0 {
		add(CategoryBronze, n, fmt.Sprintf("%s has %d bronze achievements", s.PlayerName, n))
	}

	return out
}

// TeamHighlights concatenates Highlights for every player in order.
func TeamHighlights(players []*PlayerGameStats) []Highlight {
	out := []Highlight{}
	for _, s := range players {
		out = append(out, Highlights(s)...)
	}
	return out
}

// Shuffle reorders highlights in place for rotating display.
func Shuffle(h []Highlight, r *rand.Rand) {
	r.Shuffle(len(h), func(i, j int) { h[i], h[j] = h[j], h[i] })
}
