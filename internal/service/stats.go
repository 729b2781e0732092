package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fortuna/tigerstats/internal/stats"
	"github.com/fortuna/tigerstats/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultFanOutLimit bounds concurrent player reads when no limit is configured.
const DefaultFanOutLimit = 8

// StatsReader is the part of the store the aggregators read from.
type StatsReader interface {
	store.PlayerReader
	store.TeamReader
	store.GameReader
}

// StatsService computes per-player and team statistics on demand. Nothing is cached;
// every call re-reads the roster and game records.
type StatsService struct {
	repo        StatsReader
	logger      *logrus.Entry
	fanOutLimit int
}

// RosterEntry is a player's computed stats plus the averages shown on the roster page,
// which fall back to the stored values for players without recorded games.
type RosterEntry struct {
	*stats.PlayerGameStats
	EffectiveAverage  int `json:"effectiveAverage"`
	EffectiveHighGame int `json:"effectiveHighGame"`
}

type playerResult struct {
	player *store.Player
	stats  *stats.PlayerGameStats
}

// NewStatsService creates a new stats service
func NewStatsService(repo StatsReader, logger *logrus.Entry, fanOutLimit int) *StatsService {
	if fanOutLimit <= 0 {
		fanOutLimit = DefaultFanOutLimit
	}
	return &StatsService{
		repo:        repo,
		logger:      logger,
		fanOutLimit: fanOutLimit,
	}
}

// PlayerStats computes the player's stats. A missing player yields an error wrapping
// store.ErrNotFound.
func (s *StatsService) PlayerStats(ctx context.Context, playerID string) (*stats.PlayerGameStats, error) {
	r, err := s.loadPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return r.stats, nil
}

// TeamStats rolls up the team's roster. An unknown team gets the zero state.
func (s *StatsService) TeamStats(ctx context.Context, teamID string) (*stats.TeamStats, error) {
	results, err := s.rosterResults(ctx, teamID)
	if err != nil {
		return nil, err
	}

	players := make([]*stats.PlayerGameStats, 0, len(results))
	for _, r := range results {
		players = append(players, r.stats)
	}
	return stats.ComputeTeamStats(players), nil
}

// AllPlayerStats returns every resolvable roster player sorted by average descending,
// including players with no games.
func (s *StatsService) AllPlayerStats(ctx context.Context, teamID string) ([]*RosterEntry, error) {
	results, err := s.rosterResults(ctx, teamID)
	if err != nil {
		return nil, err
	}

	byStats := make(map[*stats.PlayerGameStats]*store.Player, len(results))
	players := make([]*stats.PlayerGameStats, 0, len(results))
	for _, r := range results {
		byStats[r.stats] = r.player
		players = append(players, r.stats)
	}

	entries := make([]*RosterEntry, 0, len(players))
	for _, ps := range stats.SortByAverage(players) {
		p := byStats[ps]
		entries = append(entries, &RosterEntry{
			PlayerGameStats:   ps,
			EffectiveAverage:  stats.EffectiveAverage(ps, p),
			EffectiveHighGame: stats.EffectiveHighGame(ps, p),
		})
	}
	return entries, nil
}

// Highlights derives the ticker entries for the team's roster, in roster order.
func (s *StatsService) Highlights(ctx context.Context, teamID string) ([]stats.Highlight, error) {
	results, err := s.rosterResults(ctx, teamID)
	if err != nil {
		return nil, err
	}

	players := make([]*stats.PlayerGameStats, 0, len(results))
	for _, r := range results {
		players = append(players, r.stats)
	}
	return stats.TeamHighlights(players), nil
}

// rosterResults resolves the team and fans out over its roster. Players that cannot be
// read are logged and dropped; the rest keep roster order.
func (s *StatsService) rosterResults(ctx context.Context, teamID string) ([]*playerResult, error) {
	team, err := s.repo.GetTeam(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.WithField("team_id", teamID).Warn("Team not found")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching team: %w", err)
	}

	slots := s.fanOut(ctx, team.PlayerIDs)

	results := make([]*playerResult, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, r)
		}
	}
	return results, nil
}

// fanOut loads every player concurrently, bounded by the fan-out limit. Each result lands
// in the slot of its roster index so the output order never depends on scheduling.
func (s *StatsService) fanOut(ctx context.Context, playerIDs []string) []*playerResult {
	slots := make([]*playerResult, len(playerIDs))

	var g errgroup.Group
	g.SetLimit(s.fanOutLimit)
	for i, id := range playerIDs {
		i, id := i, id
		g.Go(func() error {
			r, err := s.loadPlayer(ctx, id)
			if err != nil {
				log := s.logger.WithField("player_id", id)
				if errors.Is(err, store.ErrNotFound) {
					log.Warn("Player not found, skipping")
				} else {
					log.WithError(err).Warn("Failed to compute player stats, skipping")
				}
				return nil
			}
			slots[i] = r
			return nil
		})
	}
	_ = g.Wait()

	return slots
}

func (s *StatsService) loadPlayer(ctx context.Context, playerID string) (*playerResult, error) {
	player, err := s.repo.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("fetching player: %w", err)
	}

	games, err := s.repo.GetGamesForPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("fetching games for player %s: %w", playerID, err)
	}

	return &playerResult{player: player, stats: stats.ComputePlayerStats(player, games)}, nil
}
