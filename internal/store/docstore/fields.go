package docstore

import (
	"math"
	"strings"
	"time"

	"github.com/fortuna/tigerstats/internal/store"
)

// Documents written by the website and the scoring tools are loosely typed: numbers may
// arrive as int64 or float64, strings may be missing. These helpers turn raw document
// maps into store types with one fixed interpretation per field.

func stringField(data map[string]interface{}, key string) string {
	if s, ok := data[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func numberField(data map[string]interface{}, key string) (float64, bool) {
	switch v := data[key].(type) {
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

func intField(data map[string]interface{}, key string) int {
	if v, ok := numberField(data, key); ok {
		return int(v)
	}
	return 0
}

func floatPtrField(data map[string]interface{}, key string) *float64 {
	if v, ok := numberField(data, key); ok {
		return store.FloatPtr(v)
	}
	return nil
}

func boolField(data map[string]interface{}, key string) bool {
	b, _ := data[key].(bool)
	return b
}

func timeField(data map[string]interface{}, keys ...string) time.Time {
	for _, key := range keys {
		if t, ok := data[key].(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

func stringSliceField(data map[string]interface{}, key string) []string {
	raw, ok := data[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func decodePlayer(id string, data map[string]interface{}) *store.Player {
	return &store.Player{
		ID:            id,
		ProgramID:     stringField(data, "programId"),
		Name:          stringField(data, "name"),
		FirstName:     stringField(data, "firstName"),
		LastName:      stringField(data, "lastName"),
		DisplayName:   stringField(data, "displayName"),
		AverageScore:  floatPtrField(data, "averageScore"),
		Average:       floatPtrField(data, "average"),
		HighGame:      intField(data, "highGame"),
		HighSeries:    intField(data, "highSeries"),
		GamesPlayed:   intField(data, "gamesPlayed"),
		SeriesOver25:  intField(data, "seriesOver25"),
		SeriesOver50:  intField(data, "seriesOver50"),
		SeriesOver100: intField(data, "seriesOver100"),
		IsActive:      boolField(data, "isActive"),
		IsClaimed:     boolField(data, "isClaimed"),
		CreatedAt:     timeField(data, "createdAt"),
		UpdatedAt:     timeField(data, "updatedAt"),
	}
}

func decodeTeam(id string, data map[string]interface{}) *store.Team {
	return &store.Team{
		ID:        id,
		ProgramID: stringField(data, "programId"),
		Name:      stringField(data, "name"),
		PlayerIDs: stringSliceField(data, "playerIds"),
	}
}

// decodeGame keeps a fractional score out of the record: scores are whole pin counts,
// anything else is treated as non-numeric.
func decodeGame(id string, data map[string]interface{}) *store.GameRecord {
	game := &store.GameRecord{
		ID:          id,
		PlayerID:    stringField(data, "playerId"),
		ProgramID:   stringField(data, "programId"),
		PlayerName:  stringField(data, "playerName"),
		StrikeCount: intField(data, "strikeCount"),
		SpareCount:  intField(data, "spareCount"),
		SplitCount:  intField(data, "splitCount"),
		Date:        timeField(data, "date", "timestamp"),
		CreatedAt:   timeField(data, "createdAt"),
	}
	if v, ok := numberField(data, "totalScore"); ok && v == math.Trunc(v) {
		game.TotalScore = store.IntPtr(int(v))
	}
	return game
}
