// Package memory is an in-process store.Repository used by tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fortuna/tigerstats/internal/store"
	"github.com/google/uuid"
)

type Store struct {
	mu        sync.RWMutex
	players   map[string]*store.Player
	teams     map[string]*store.Team
	games     []*store.GameRecord
	snapshots map[string]*store.PublicStats
	now       func() time.Time

	// Err, when set, is returned by every read and write.
	Err error
}

var _ store.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		players:   make(map[string]*store.Player),
		teams:     make(map[string]*store.Team),
		snapshots: make(map[string]*store.PublicStats),
		now:       time.Now,
	}
}

// WithClock replaces the clock used for write timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) AddPlayer(p *store.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cpy := *p
	s.players[p.ID] = &cpy
}

func (s *Store) AddTeam(t *store.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cpy := *t
	cpy.PlayerIDs = append([]string(nil), t.PlayerIDs...)
	s.teams[t.ID] = &cpy
}

// AddGame appends a record; records keep insertion order.
func (s *Store) AddGame(g *store.GameRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cpy := *g
	if cpy.ID == "" {
		cpy.ID = uuid.NewString()
	}
	if cpy.CreatedAt.IsZero() {
		cpy.CreatedAt = s.now()
	}
	s.games = append(s.games, &cpy)
}

func (s *Store) GetPlayer(ctx context.Context, playerID string) (*store.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.players[playerID]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", playerID, store.ErrNotFound)
	}
	cpy := *p
	return &cpy, nil
}

func (s *Store) ListActivePlayers(ctx context.Context, programID string) ([]*store.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*store.Player
	for _, p := range s.players {
		if p.ProgramID == programID && p.IsActive {
			cpy := *p
			out = append(out, &cpy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetTeam(ctx context.Context, teamID string) (*store.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", teamID, store.ErrNotFound)
	}
	cpy := *t
	cpy.PlayerIDs = append([]string(nil), t.PlayerIDs...)
	return &cpy, nil
}

func (s *Store) GetGamesForPlayer(ctx context.Context, playerID string) ([]*store.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*store.GameRecord
	for _, g := range s.games {
		if g.PlayerID == playerID {
			cpy := *g
			out = append(out, &cpy)
		}
	}
	return out, nil
}

func (s *Store) GetRecentGames(ctx context.Context, programID string, since time.Time, limit int) ([]*store.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*store.GameRecord
	for _, g := range s.games {
		if g.ProgramID == programID && !g.Date.Before(since) {
			cpy := *g
			out = append(out, &cpy)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return scoreOf(out[i]) > scoreOf(out[j])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetPublicStats(ctx context.Context, programID string) (*store.PublicStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	snap, ok := s.snapshots[programID]
	if !ok {
		return nil, fmt.Errorf("public stats %s: %w", programID, store.ErrNotFound)
	}
	return copySnapshot(snap), nil
}

func (s *Store) WritePublicSnapshot(ctx context.Context, stats *store.PublicStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	stats.UpdatedAt = s.now()
	s.snapshots[stats.ProgramID] = copySnapshot(stats)
	return nil
}

func copySnapshot(snap *store.PublicStats) *store.PublicStats {
	cpy := *snap
	cpy.TopPlayers = append([]store.PublicPlayer(nil), snap.TopPlayers...)
	cpy.RecentHighGames = append([]store.RecentHighGame(nil), snap.RecentHighGames...)
	return &cpy
}

// SnapshotWrites reports how many programs have a snapshot.
func (s *Store) SnapshotWrites() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

func (s *Store) SeedDemo(ctx context.Context, players []*store.Player, teams []*store.Team, games []*store.GameRecord) error {
	for _, p := range players {
		s.AddPlayer(p)
	}
	for _, t := range teams {
		s.AddTeam(t)
	}
	for _, g := range games {
		s.AddGame(g)
	}
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Err
}

func (s *Store) Close() error { return nil }

func scoreOf(g *store.GameRecord) int {
	if g.TotalScore == nil {
		return -1
	}
	return *g.TotalScore
}
