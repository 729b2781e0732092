package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/tigerstats/internal/stats"
	"github.com/fortuna/tigerstats/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// NoActivePlayersMessage is reported when a publish finds nothing to aggregate.
const NoActivePlayersMessage = "No active players found"

// Publish defaults.
const (
	DefaultRecentGamesWindow    = 30 * 24 * time.Hour
	DefaultRecentGamesReadLimit = 100
	DefaultPublishTimeout       = 5 * time.Minute
)

// SnapshotListener is notified after a snapshot has been written.
type SnapshotListener interface {
	SnapshotPublished(ctx context.Context, snapshot *store.PublicStats) error
}

// SnapshotCache fronts public snapshot reads.
type SnapshotCache interface {
	GetPublicStats(ctx context.Context, programID string) (*store.PublicStats, bool, error)
	SetPublicStats(ctx context.Context, snapshot *store.PublicStats) error
}

// SnapshotConfig tunes the recent high games query and bounds each publish run.
type SnapshotConfig struct {
	RecentGamesWindow    time.Duration
	RecentGamesReadLimit int
	PublishTimeout       time.Duration
}

// PublishResult summarizes one publish run.
type PublishResult struct {
	RunID       string    `json:"runId"`
	ProgramID   string    `json:"programId"`
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	TeamAverage int       `json:"teamAverage"`
	PlayerCount int       `json:"playerCount"`
	TotalGames  int       `json:"totalGames"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// SnapshotService materializes and serves the public stats snapshot.
type SnapshotService struct {
	repo      store.Repository
	cache     SnapshotCache
	logger    *logrus.Entry
	cfg       SnapshotConfig
	listeners []SnapshotListener
	group     singleflight.Group
	now       func() time.Time
}

// NewSnapshotService creates a snapshot service. cache may be nil.
func NewSnapshotService(repo store.Repository, cache SnapshotCache, logger *logrus.Entry, cfg SnapshotConfig) *SnapshotService {
	if cfg.RecentGamesWindow <= 0 {
		cfg.RecentGamesWindow = DefaultRecentGamesWindow
	}
	if cfg.RecentGamesReadLimit <= 0 {
		cfg.RecentGamesReadLimit = DefaultRecentGamesReadLimit
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}
	return &SnapshotService{
		repo:   repo,
		cache:  cache,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// AddListener registers a listener. Not safe to call while publishing.
func (s *SnapshotService) AddListener(l SnapshotListener) {
	s.listeners = append(s.listeners, l)
}

// SetClock replaces the clock used for the recent games window.
func (s *SnapshotService) SetClock(now func() time.Time) {
	s.now = now
}

// Publish recomputes and replaces the program's snapshot. Concurrent calls for the same
// program share one run. The shared run is detached from every caller's cancellation and
// bounded by PublishTimeout; a caller whose ctx ends stops waiting without failing the
// others. A program without active players is a no-op reported with Success false and
// no error.
func (s *SnapshotService) Publish(ctx context.Context, programID string) (*PublishResult, error) {
	if programID == "" {
		programID = store.DefaultProgramID
	}

	ch := s.group.DoChan(programID, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PublishTimeout)
		defer cancel()
		return s.publish(runCtx, programID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.WithField("program_id", programID).Debug("Joined in-flight publish")
		}
		return res.Val.(*PublishResult), nil
	}
}

func (s *SnapshotService) publish(ctx context.Context, programID string) (*PublishResult, error) {
	runID := uuid.NewString()
	log := s.logger.WithFields(logrus.Fields{"program_id": programID, "run_id": runID})
	start := time.Now()

	players, err := s.repo.ListActivePlayers(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("listing active players: %w", err)
	}
	if len(players) == 0 {
		log.Info("No active players, skipping publish")
		return &PublishResult{
			RunID:     runID,
			ProgramID: programID,
			Success:   false,
			Message:   NoActivePlayersMessage,
		}, nil
	}

	since := s.now().Add(-s.cfg.RecentGamesWindow)
	recent, err := s.repo.GetRecentGames(ctx, programID, since, s.cfg.RecentGamesReadLimit)
	if err != nil {
		return nil, fmt.Errorf("reading recent games: %w", err)
	}

	snapshot := stats.BuildPublicStats(programID, players, recent)
	if err := s.repo.WritePublicSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}

	for _, l := range s.listeners {
		if err := l.SnapshotPublished(ctx, snapshot); err != nil {
			log.WithError(err).Warn("Snapshot listener failed")
		}
	}

	log.WithFields(logrus.Fields{
		"team_average":      snapshot.TeamAverage,
		"player_count":      snapshot.PlayerCount,
		"top_players":       len(snapshot.TopPlayers),
		"recent_high_games": len(snapshot.RecentHighGames),
		"duration":          time.Since(start).String(),
	}).Info("Published public stats")

	return &PublishResult{
		RunID:       runID,
		ProgramID:   programID,
		Success:     true,
		TeamAverage: snapshot.TeamAverage,
		PlayerCount: snapshot.PlayerCount,
		TotalGames:  snapshot.TotalGames,
		UpdatedAt:   snapshot.UpdatedAt,
	}, nil
}

// GetPublicStats returns the last published snapshot, reading through the cache when one
// is configured. A missing snapshot yields an error wrapping store.ErrNotFound.
func (s *SnapshotService) GetPublicStats(ctx context.Context, programID string) (*store.PublicStats, error) {
	if programID == "" {
		programID = store.DefaultProgramID
	}
	log := s.logger.WithField("program_id", programID)

	if s.cache != nil {
		cached, ok, err := s.cache.GetPublicStats(ctx, programID)
		if err != nil {
			log.WithError(err).Warn("Snapshot cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	snapshot, err := s.repo.GetPublicStats(ctx, programID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetPublicStats(ctx, snapshot); err != nil {
			log.WithError(err).Warn("Snapshot cache write failed")
		}
	}
	return snapshot, nil
}
