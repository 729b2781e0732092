package stats

import (
	"math"
	"strings"

	"github.com/fortuna/tigerstats/internal/store"
)

// Fallback names.
const (
	UnknownPlayer = "Unknown Player"
	UnknownPublic = "Unknown"
)

// DisplayName resolves a roster name: name, else "firstName lastName" trimmed, else
// UnknownPlayer. Empty strings count as absent.
func DisplayName(p *store.Player) string {
	if p == nil {
		return UnknownPlayer
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	if full := strings.TrimSpace(p.FirstName + " " + p.LastName); full != "" {
		return full
	}
	return UnknownPlayer
}

// PublicName resolves the name shown on the public leaderboard: name, else displayName,
// else UnknownPublic.
func PublicName(p *store.Player) string {
	if p == nil {
		return UnknownPublic
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	return UnknownPublic
}

// StoredAverage returns the denormalized average: averageScore, else average, else 0.
// Zero and non-finite values count as absent.
func StoredAverage(p *store.Player) float64 {
	if p == nil {
		return 0
	}
	for _, v := range []*float64{p.AverageScore, p.Average} {
		if v != nil && *v != 0 && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
			return *v
		}
	}
	return 0
}

// EffectiveAverage prefers the average computed from game records and falls back to the
// stored average when the player has no qualifying games.
func EffectiveAverage(s *PlayerGameStats, p *store.Player) int {
	if s != nil && s.Games > 0 {
		return s.Average
	}
	return Round(StoredAverage(p))
}

// EffectiveHighGame is the high game counterpart of EffectiveAverage.
func EffectiveHighGame(s *PlayerGameStats, p *store.Player) int {
	if s != nil && s.Games > 0 {
		return s.HighGame
	}
	if p == nil {
		return 0
	}
	return p.HighGame
}
