package rest

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/fortuna/tigerstats/internal/scheduler"
	"github.com/fortuna/tigerstats/internal/service"
	"github.com/fortuna/tigerstats/internal/stats"
	"github.com/fortuna/tigerstats/internal/store"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// PublicCacheControl is sent with public snapshot reads.
const PublicCacheControl = "public, max-age=3600"

// StatsProvider computes on-demand player and team stats.
type StatsProvider interface {
	PlayerStats(ctx context.Context, playerID string) (*stats.PlayerGameStats, error)
	TeamStats(ctx context.Context, teamID string) (*stats.TeamStats, error)
	AllPlayerStats(ctx context.Context, teamID string) ([]*service.RosterEntry, error)
	Highlights(ctx context.Context, teamID string) ([]stats.Highlight, error)
}

// SnapshotProvider publishes and serves public snapshots.
type SnapshotProvider interface {
	Publish(ctx context.Context, programID string) (*service.PublishResult, error)
	GetPublicStats(ctx context.Context, programID string) (*store.PublicStats, error)
}

// StatusReporter reports scheduler state.
type StatusReporter interface {
	Status() scheduler.Status
}

// HealthChecker is implemented by the store and the cache.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	stats     StatsProvider
	snapshots SnapshotProvider
	scheduler StatusReporter
	store     HealthChecker
	cache     HealthChecker
	programID string
	logger    *logrus.Entry
}

// HandlerDeps groups the handler's collaborators. Scheduler and Cache may be nil.
type HandlerDeps struct {
	Stats     StatsProvider
	Snapshots SnapshotProvider
	Scheduler StatusReporter
	Store     HealthChecker
	Cache     HealthChecker
	ProgramID string
	Logger    *logrus.Entry
}

// NewHandler creates a new handler
func NewHandler(deps HandlerDeps) *Handler {
	programID := deps.ProgramID
	if programID == "" {
		programID = store.DefaultProgramID
	}
	return &Handler{
		stats:     deps.Stats,
		snapshots: deps.Snapshots,
		scheduler: deps.Scheduler,
		store:     deps.Store,
		cache:     deps.Cache,
		programID: programID,
		logger:    deps.Logger,
	}
}

// publicResponse is the envelope of the public snapshot endpoints.
type publicResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := map[string]string{"store": "ok"}
	if err := h.store.HealthCheck(ctx); err != nil {
		requestLogger(r, h.logger).WithError(err).Error("Store health check failed")
		checks["store"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if h.cache != nil {
		checks["cache"] = "ok"
		if err := h.cache.HealthCheck(ctx); err != nil {
			requestLogger(r, h.logger).WithError(err).Warn("Cache health check failed")
			checks["cache"] = "degraded"
		}
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":  state,
		"service": "tigerstats",
		"checks":  checks,
	})
}

// GetPlayerStats returns the player's computed stats
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerID"]

	ps, err := h.stats.PlayerStats(r.Context(), playerID)
	if errors.Is(err, store.ErrNotFound) {
		requestLogger(r, h.logger).WithField("player_id", playerID).Warn("Player not found")
		respondError(w, http.StatusNotFound, "Player not found")
		return
	}
	if err != nil {
		h.internalError(w, r, "Failed to compute player stats", err)
		return
	}

	respondJSON(w, http.StatusOK, ps)
}

// GetTeamStats returns the team rollup
func (h *Handler) GetTeamStats(w http.ResponseWriter, r *http.Request) {
	ts, err := h.stats.TeamStats(r.Context(), mux.Vars(r)["teamID"])
	if err != nil {
		h.internalError(w, r, "Failed to compute team stats", err)
		return
	}

	respondJSON(w, http.StatusOK, ts)
}

// GetTeamPlayers returns every roster player's stats, best average first
func (h *Handler) GetTeamPlayers(w http.ResponseWriter, r *http.Request) {
	entries, err := h.stats.AllPlayerStats(r.Context(), mux.Vars(r)["teamID"])
	if err != nil {
		h.internalError(w, r, "Failed to compute player stats", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"players": entries,
		"count":   len(entries),
	})
}

// GetTeamHighlights returns ticker entries, shuffled when shuffle=true
func (h *Handler) GetTeamHighlights(w http.ResponseWriter, r *http.Request) {
	highlights, err := h.stats.Highlights(r.Context(), mux.Vars(r)["teamID"])
	if err != nil {
		h.internalError(w, r, "Failed to compute highlights", err)
		return
	}

	if shuffle, _ := strconv.ParseBool(r.URL.Query().Get("shuffle")); shuffle {
		stats.Shuffle(highlights, rand.New(rand.NewSource(time.Now().UnixNano())))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"highlights": highlights,
		"count":      len(highlights),
	})
}

// GetPublicStats serves the last published snapshot
func (h *Handler) GetPublicStats(w http.ResponseWriter, r *http.Request) {
	programID := h.programIDFrom(r)

	snapshot, err := h.snapshots.GetPublicStats(r.Context(), programID)
	if errors.Is(err, store.ErrNotFound) {
		respondJSON(w, http.StatusNotFound, publicResponse{Success: false, Message: "Public stats not found"})
		return
	}
	if err != nil {
		requestLogger(r, h.logger).WithError(err).WithField("program_id", programID).Error("Failed to read public stats")
		respondJSON(w, http.StatusInternalServerError, publicResponse{Success: false, Message: "Failed to fetch public stats"})
		return
	}

	w.Header().Set("Cache-Control", PublicCacheControl)
	respondJSON(w, http.StatusOK, publicResponse{Success: true, Data: snapshot})
}

// PublishPublicStats runs the snapshot publisher on demand
func (h *Handler) PublishPublicStats(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	programID := h.programIDFrom(r)
	res, err := h.snapshots.Publish(r.Context(), programID)
	if err != nil {
		requestLogger(r, h.logger).WithError(err).WithField("program_id", programID).Error("On-demand publish failed")
		respondJSON(w, http.StatusInternalServerError, publicResponse{Success: false, Message: "Failed to publish public stats"})
		return
	}

	if !res.Success {
		respondJSON(w, http.StatusOK, publicResponse{Success: false, Message: res.Message})
		return
	}
	respondJSON(w, http.StatusOK, publicResponse{Success: true, Message: "Public stats updated", Data: res})
}

// GetSchedulerStatus reports the daily publish schedule
func (h *Handler) GetSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondJSON(w, http.StatusOK, scheduler.Status{Enabled: false, ProgramID: h.programID})
		return
	}
	respondJSON(w, http.StatusOK, h.scheduler.Status())
}

func (h *Handler) programIDFrom(r *http.Request) string {
	if id := r.URL.Query().Get("programId"); id != "" {
		return id
	}
	return h.programID
}

// internalError logs err in full and sends only message to the client.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	requestLogger(r, h.logger).WithError(err).Error(message)
	respondError(w, http.StatusInternalServerError, message)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":  message,
		"status": status,
	})
}
