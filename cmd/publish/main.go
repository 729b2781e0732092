package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fortuna/tigerstats/internal/bootstrap"
	"github.com/fortuna/tigerstats/internal/cache"
	"github.com/fortuna/tigerstats/internal/config"
	"github.com/fortuna/tigerstats/internal/logging"
	"github.com/fortuna/tigerstats/internal/publisher"
	"github.com/fortuna/tigerstats/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	appName    = "tigerstats-publish"
	appVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var (
		programID = flag.String("program", cfg.ProgramID, "Program to publish public stats for")
		timeout   = flag.Duration("timeout", cfg.PublishTimeout, "Abort the run after this long")
		seed      = flag.Bool("seed", cfg.SeedDemoData, "Load demo data before publishing")
	)
	flag.Parse()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	log := logging.WithComponent(logger, "publish").WithField("app", appName)
	log.WithField("version", appVersion).Info("Starting one-shot publish")

	if err := run(cfg, *programID, *timeout, *seed, logger); err != nil {
		log.WithError(err).Error("Publish failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, programID string, timeout time.Duration, seed bool, logger *logrus.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log := logging.WithComponent(logger, "publish")

	repo, err := bootstrap.OpenStore(ctx, cfg, logging.WithComponent(logger, "store"))
	if err != nil {
		return err
	}
	defer repo.Close()

	if seed {
		if err := bootstrap.SeedDemo(ctx, repo, programID, log); err != nil {
			return err
		}
	}

	svc := service.NewSnapshotService(repo, nil, log, service.SnapshotConfig{
		RecentGamesWindow:    cfg.RecentGamesWindow,
		RecentGamesReadLimit: cfg.RecentGamesReadLimit,
		PublishTimeout:       timeout,
	})

	if cfg.RedisURL != "" {
		rc, err := bootstrap.ConnectRedis(ctx, cfg.RedisURL, 3, time.Second, log)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, publishing without cache refresh")
		} else {
			defer rc.Close()
			svc.AddListener(cache.NewSnapshotCache(rc.Client(), cfg.PublicCacheTTL, logging.WithComponent(logger, "cache")))
			svc.AddListener(publisher.NewRedisStreamPublisher(rc.Client()))
		}
	}

	res, err := svc.Publish(ctx, programID)
	if err != nil {
		return err
	}

	if !res.Success {
		fmt.Printf("%s: %s\n", res.ProgramID, res.Message)
		return nil
	}
	fmt.Printf("%s: published (team average %d, %d players, %d games, updated %s)\n",
		res.ProgramID, res.TeamAverage, res.PlayerCount, res.TotalGames, res.UpdatedAt.Format(time.RFC3339))
	return nil
}
