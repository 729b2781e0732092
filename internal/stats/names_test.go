package stats

import (
	"testing"

	"github.com/fortuna/tigerstats/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		player *store.Player
		want   string
	}{
		{"name wins", &store.Player{Name: "JD", FirstName: "Jane", LastName: "Doe"}, "JD"},
		{"first and last", &store.Player{FirstName: "Jane", LastName: "Doe"}, "Jane Doe"},
		{"first only", &store.Player{FirstName: "Jane"}, "Jane"},
		{"last only", &store.Player{LastName: "Doe"}, "Doe"},
		{"blank name falls through", &store.Player{Name: "  ", FirstName: "Jane"}, "Jane"},
		{"empty", &store.Player{}, UnknownPlayer},
		{"nil", nil, UnknownPlayer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.player))
		})
	}
}

func TestPublicName(t *testing.T) {
	assert.Equal(t, "Sam", PublicName(&store.Player{Name: "Sam", DisplayName: "Sammy"}))
	assert.Equal(t, "Sammy", PublicName(&store.Player{DisplayName: "Sammy", FirstName: "Sam"}))
	assert.Equal(t, UnknownPublic, PublicName(&store.Player{FirstName: "Sam"}))
}

func TestStoredAverage(t *testing.T) {
	assert.Equal(t, 170.0, StoredAverage(&store.Player{AverageScore: store.FloatPtr(170), Average: store.FloatPtr(150)}))
	assert.Equal(t, 150.0, StoredAverage(&store.Player{AverageScore: store.FloatPtr(0), Average: store.FloatPtr(150)}))
	assert.Equal(t, 150.0, StoredAverage(&store.Player{Average: store.FloatPtr(150)}))
	assert.Equal(t, 0.0, StoredAverage(&store.Player{}))
	assert.Equal(t, 0.0, StoredAverage(nil))
}

func TestEffectiveAverage(t *testing.T) {
	p := &store.Player{AverageScore: store.FloatPtr(161.6), HighGame: 210}

	computed := &PlayerGameStats{Games: 2, Average: 180, HighGame: 190}
	assert.Equal(t, 180, EffectiveAverage(computed, p))
	assert.Equal(t, 190, EffectiveHighGame(computed, p))

	empty := &PlayerGameStats{}
	assert.Equal(t, 162, EffectiveAverage(empty, p))
	assert.Equal(t, 210, EffectiveHighGame(empty, p))
}
