// Package docstore implements store.Repository on Cloud Firestore, the document
// database the team website writes its rosters and scores to.
package docstore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/fortuna/tigerstats/internal/store"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection names used by the website.
const (
	PlayersCollection     = "players"
	TeamsCollection       = "teams"
	GamesCollection       = "games"
	PublicStatsCollection = "publicStats"
)

// Store reads and writes documents through a Firestore client.
type Store struct {
	client *firestore.Client
	logger *logrus.Entry
}

var _ store.Repository = (*Store)(nil)

// New opens a Firestore client for the given project.
func New(ctx context.Context, projectID string, logger *logrus.Entry) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Store{client: client, logger: logger}, nil
}

// publicStatsDoc is the stored shape of store.PublicStats.
type publicStatsDoc struct {
	ProgramID       string              `firestore:"programId"`
	TeamAverage     int                 `firestore:"teamAverage"`
	TotalGames      int                 `firestore:"totalGames"`
	PlayerCount     int                 `firestore:"playerCount"`
	TopPlayers      []publicPlayerDoc   `firestore:"topPlayers"`
	RecentHighGames []recentHighGameDoc `firestore:"recentHighGames"`
	UpdatedAt       time.Time           `firestore:"updatedAt,serverTimestamp"`
}

type publicPlayerDoc struct {
	Name       string `firestore:"name"`
	Average    int    `firestore:"average"`
	HighGame   int    `firestore:"highGame"`
	HighSeries int    `firestore:"highSeries"`
}

type recentHighGameDoc struct {
	PlayerID   string    `firestore:"playerId"`
	PlayerName string    `firestore:"playerName"`
	Score      int       `firestore:"score"`
	Date       time.Time `firestore:"date"`
}

func (s *Store) GetPlayer(ctx context.Context, playerID string) (*store.Player, error) {
	snap, err := s.client.Collection(PlayersCollection).Doc(playerID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("player %s: %w", playerID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading player %s: %w", playerID, err)
	}
	return decodePlayer(snap.Ref.ID, snap.Data()), nil
}

func (s *Store) ListActivePlayers(ctx context.Context, programID string) ([]*store.Player, error) {
	iter := s.client.Collection(PlayersCollection).
		Where("programId", "==", programID).
		Where("isActive", "==", true).
		Documents(ctx)
	defer iter.Stop()

	var players []*store.Player
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing active players: %w", err)
		}
		players = append(players, decodePlayer(snap.Ref.ID, snap.Data()))
	}
	return players, nil
}

func (s *Store) GetTeam(ctx context.Context, teamID string) (*store.Team, error) {
	snap, err := s.client.Collection(TeamsCollection).Doc(teamID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("team %s: %w", teamID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading team %s: %w", teamID, err)
	}
	return decodeTeam(snap.Ref.ID, snap.Data()), nil
}

func (s *Store) GetGamesForPlayer(ctx context.Context, playerID string) ([]*store.GameRecord, error) {
	snaps, err := s.client.Collection(GamesCollection).
		Where("playerId", "==", playerID).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("reading games for player %s: %w", playerID, err)
	}

	games := make([]*store.GameRecord, 0, len(snaps))
	for _, snap := range snaps {
		games = append(games, decodeGame(snap.Ref.ID, snap.Data()))
	}
	return games, nil
}

// GetRecentGames filters and orders on the indexed date field only. Legacy games that
// carry just a timestamp still decode with a Date for per-player reads, but Firestore
// excludes documents missing the ordered field, so they never appear here.
func (s *Store) GetRecentGames(ctx context.Context, programID string, since time.Time, limit int) ([]*store.GameRecord, error) {
	snaps, err := s.client.Collection(GamesCollection).
		Where("programId", "==", programID).
		Where("date", ">=", since).
		OrderBy("date", firestore.Desc).
		OrderBy("totalScore", firestore.Desc).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("reading recent games: %w", err)
	}

	games := make([]*store.GameRecord, 0, len(snaps))
	for _, snap := range snaps {
		games = append(games, decodeGame(snap.Ref.ID, snap.Data()))
	}
	return games, nil
}

func (s *Store) GetPublicStats(ctx context.Context, programID string) (*store.PublicStats, error) {
	snap, err := s.client.Collection(PublicStatsCollection).Doc(programID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("public stats %s: %w", programID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading public stats: %w", err)
	}

	var doc publicStatsDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decoding public stats: %w", err)
	}
	return fromPublicStatsDoc(&doc), nil
}

// WritePublicSnapshot uses Set without merge options, which replaces the whole document.
func (s *Store) WritePublicSnapshot(ctx context.Context, stats *store.PublicStats) error {
	result, err := s.client.Collection(PublicStatsCollection).Doc(stats.ProgramID).Set(ctx, toPublicStatsDoc(stats))
	if err != nil {
		return fmt.Errorf("writing public stats: %w", err)
	}
	stats.UpdatedAt = result.UpdateTime
	return nil
}

// SeedDemo writes the demo documents in one batch.
func (s *Store) SeedDemo(ctx context.Context, players []*store.Player, teams []*store.Team, games []*store.GameRecord) error {
	batch := s.client.Batch()
	for _, p := range players {
		data := map[string]interface{}{
			"programId":   p.ProgramID,
			"firstName":   p.FirstName,
			"lastName":    p.LastName,
			"highGame":    p.HighGame,
			"highSeries":  p.HighSeries,
			"gamesPlayed": p.GamesPlayed,
			"isActive":    p.IsActive,
		}
		if p.AverageScore != nil {
			data["averageScore"] = *p.AverageScore
		}
		batch.Set(s.client.Collection(PlayersCollection).Doc(p.ID), data)
	}
	for _, t := range teams {
		batch.Set(s.client.Collection(TeamsCollection).Doc(t.ID), map[string]interface{}{
			"programId": t.ProgramID,
			"name":      t.Name,
			"playerIds": t.PlayerIDs,
		})
	}
	for _, g := range games {
		data := map[string]interface{}{
			"playerId":    g.PlayerID,
			"programId":   g.ProgramID,
			"playerName":  g.PlayerName,
			"strikeCount": g.StrikeCount,
			"spareCount":  g.SpareCount,
			"date":        g.Date,
		}
		if g.TotalScore != nil {
			data["totalScore"] = *g.TotalScore
		}
		batch.Set(s.client.Collection(GamesCollection).Doc(g.ID), data)
	}

	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("seeding firestore: %w", err)
	}
	return nil
}

// HealthCheck reads a single document to verify credentials and connectivity.
func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := s.client.Collection(PublicStatsCollection).Doc(store.DefaultProgramID).Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func toPublicStatsDoc(stats *store.PublicStats) *publicStatsDoc {
	doc := &publicStatsDoc{
		ProgramID:       stats.ProgramID,
		TeamAverage:     stats.TeamAverage,
		TotalGames:      stats.TotalGames,
		PlayerCount:     stats.PlayerCount,
		TopPlayers:      make([]publicPlayerDoc, 0, len(stats.TopPlayers)),
		RecentHighGames: make([]recentHighGameDoc, 0, len(stats.RecentHighGames)),
	}
	for _, p := range stats.TopPlayers {
		doc.TopPlayers = append(doc.TopPlayers, publicPlayerDoc(p))
	}
	for _, g := range stats.RecentHighGames {
		doc.RecentHighGames = append(doc.RecentHighGames, recentHighGameDoc(g))
	}
	return doc
}

func fromPublicStatsDoc(doc *publicStatsDoc) *store.PublicStats {
	stats := &store.PublicStats{
		ProgramID:       doc.ProgramID,
		TeamAverage:     doc.TeamAverage,
		TotalGames:      doc.TotalGames,
		PlayerCount:     doc.PlayerCount,
		TopPlayers:      make([]store.PublicPlayer, 0, len(doc.TopPlayers)),
		RecentHighGames: make([]store.RecentHighGame, 0, len(doc.RecentHighGames)),
		UpdatedAt:       doc.UpdatedAt,
	}
	for _, p := range doc.TopPlayers {
		stats.TopPlayers = append(stats.TopPlayers, store.PublicPlayer(p))
	}
	for _, g := range doc.RecentHighGames {
		stats.RecentHighGames = append(stats.RecentHighGames, store.RecentHighGame(g))
	}
	return stats
}
