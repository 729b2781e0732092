// Package scheduler runs the daily public snapshot publish.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fortuna/tigerstats/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Publisher runs one publish for a program.
type Publisher interface {
	Publish(ctx context.Context, programID string) (*service.PublishResult, error)
}

// Config holds scheduler configuration
type Config struct {
	Schedule  string         // cron spec, default "0 2 * * *"
	Location  *time.Location // zone the schedule is read in
	ProgramID string
	Enabled   bool
	Timeout   time.Duration // per run, default 5m
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		loc = time.UTC
	}
	return &Config{
		Schedule:  "0 2 * * *",
		Location:  loc,
		ProgramID: "willard-tigers",
		Enabled:   true,
		Timeout:   5 * time.Minute,
	}
}

// Status is reported by the scheduler status endpoint.
type Status struct {
	Enabled     bool                   `json:"enabled"`
	Schedule    string                 `json:"schedule"`
	Timezone    string                 `json:"timezone"`
	ProgramID   string                 `json:"programId"`
	NextRun     *time.Time             `json:"nextRun,omitempty"`
	LastRun     *time.Time             `json:"lastRun,omitempty"`
	LastResult  *service.PublishResult `json:"lastResult,omitempty"`
	LastError   string                 `json:"lastError,omitempty"`
	RunCount    int                    `json:"runCount"`
	FailedCount int                    `json:"failedCount"`
}

// Orchestrator triggers the publisher on a cron schedule
type Orchestrator struct {
	publisher Publisher
	config    *Config
	logger    *logrus.Entry
	cron      *cron.Cron
	entryID   cron.EntryID

	mu     sync.Mutex
	status Status
}

// NewOrchestrator validates the schedule and registers the publish job.
func NewOrchestrator(publisher Publisher, config *Config, logger *logrus.Entry) (*Orchestrator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}

	o := &Orchestrator{
		publisher: publisher,
		config:    config,
		logger:    logger,
		cron: cron.New(
			cron.WithLocation(config.Location),
			cron.WithLogger(cron.VerbosePrintfLogger(logger)),
			cron.WithChain(cron.Recover(cron.VerbosePrintfLogger(logger))),
		),
		status: Status{
			Enabled:   config.Enabled,
			Schedule:  config.Schedule,
			Timezone:  config.Location.String(),
			ProgramID: config.ProgramID,
		},
	}

	id, err := o.cron.AddFunc(config.Schedule, o.runScheduled)
	if err != nil {
		return nil, fmt.Errorf("invalid publish schedule %q: %w", config.Schedule, err)
	}
	o.entryID = id

	return o, nil
}

// Start runs the cron loop until ctx is cancelled. It returns immediately when
// scheduled publishing is disabled.
func (o *Orchestrator) Start(ctx context.Context) {
	if !o.config.Enabled {
		o.logger.Info("Scheduled publish disabled")
		return
	}

	o.cron.Start()
	o.logger.WithFields(logrus.Fields{
		"schedule":   o.config.Schedule,
		"timezone":   o.config.Location.String(),
		"program_id": o.config.ProgramID,
		"next_run":   o.cron.Entry(o.entryID).Next,
	}).Info("Publish scheduler started")

	<-ctx.Done()
	o.logger.Info("Publish scheduler stopping...")
	<-o.cron.Stop().Done()
}

func (o *Orchestrator) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), o.config.Timeout)
	defer cancel()

	if _, err := o.RunNow(ctx); err != nil {
		o.logger.WithError(err).Error("Scheduled publish failed")
	}
}

// RunNow publishes immediately and records the outcome in Status.
func (o *Orchestrator) RunNow(ctx context.Context) (*service.PublishResult, error) {
	log := o.logger.WithField("program_id", o.config.ProgramID)
	log.Info("Running scheduled publish")

	res, err := o.publisher.Publish(ctx, o.config.ProgramID)

	now := time.Now()
	o.mu.Lock()
	o.status.LastRun = &now
	o.status.RunCount++
	if err != nil {
		o.status.FailedCount++
		o.status.LastError = err.Error()
		o.status.LastResult = nil
	} else {
		o.status.LastError = ""
		o.status.LastResult = res
	}
	o.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !res.Success {
		log.WithField("message", res.Message).Info("Scheduled publish was a no-op")
	} else {
		log.WithFields(logrus.Fields{
			"team_average": res.TeamAverage,
			"player_count": res.PlayerCount,
		}).Info("Scheduled publish complete")
	}
	return res, nil
}

// Status returns a copy of the scheduler state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	s := o.status
	o.mu.Unlock()

	if o.config.Enabled {
		if next := o.cron.Entry(o.entryID).Next; !next.IsZero() {
			s.NextRun = &next
		}
	}
	return s
}
