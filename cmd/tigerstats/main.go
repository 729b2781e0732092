package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortuna/tigerstats/internal/api/rest"
	"github.com/fortuna/tigerstats/internal/api/websocket"
	"github.com/fortuna/tigerstats/internal/bootstrap"
	"github.com/fortuna/tigerstats/internal/cache"
	"github.com/fortuna/tigerstats/internal/config"
	"github.com/fortuna/tigerstats/internal/logging"
	"github.com/fortuna/tigerstats/internal/publisher"
	"github.com/fortuna/tigerstats/internal/scheduler"
	"github.com/fortuna/tigerstats/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	serviceName    = "tigerstats"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "json").WithError(err).Fatal("Invalid configuration")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	log := logging.WithComponent(logger, "main")
	log.WithFields(logrus.Fields{
		"version": serviceVersion,
		"backend": cfg.StoreBackend,
	}).Infof("Starting %s", serviceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := bootstrap.OpenStore(ctx, cfg, logging.WithComponent(logger, "store"))
	if err != nil {
		log.WithError(err).Fatal("Failed to open store")
	}
	defer repo.Close()
	log.Info("Store ready")

	if cfg.SeedDemoData {
		if err := bootstrap.SeedDemo(ctx, repo, cfg.ProgramID, log); err != nil {
			log.WithError(err).Warn("Seed data failed, continuing anyway")
		}
	}

	var snapshotCache *cache.SnapshotCache
	var redisCache *cache.RedisCache
	if cfg.RedisURL != "" {
		redisCache, err = bootstrap.ConnectRedis(ctx, cfg.RedisURL, 30, 2*time.Second, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisCache.Close()
		snapshotCache = cache.NewSnapshotCache(redisCache.Client(), cfg.PublicCacheTTL, logging.WithComponent(logger, "cache"))
		log.Info("Connected to Redis")
	} else {
		log.Info("REDIS_URL not set, snapshot cache and stream disabled")
	}

	statsService := service.NewStatsService(repo, logging.WithComponent(logger, "stats"), cfg.FanOutLimit)

	snapshotConfig := service.SnapshotConfig{
		RecentGamesWindow:    cfg.RecentGamesWindow,
		RecentGamesReadLimit: cfg.RecentGamesReadLimit,
		PublishTimeout:       cfg.PublishTimeout,
	}
	var snapshotService *service.SnapshotService
	if snapshotCache != nil {
		snapshotService = service.NewSnapshotService(repo, snapshotCache, logging.WithComponent(logger, "publisher"), snapshotConfig)
		snapshotService.AddListener(snapshotCache)
		snapshotService.AddListener(publisher.NewRedisStreamPublisher(redisCache.Client()))
	} else {
		snapshotService = service.NewSnapshotService(repo, nil, logging.WithComponent(logger, "publisher"), snapshotConfig)
	}

	wsServer := websocket.NewServer(snapshotService, cfg.ProgramID, logging.WithComponent(logger, "websocket"))
	snapshotService.AddListener(wsServer)

	loc, err := cfg.Location()
	if err != nil {
		log.WithError(err).Fatal("Invalid publish timezone")
	}
	sched, err := scheduler.NewOrchestrator(snapshotService, &scheduler.Config{
		Schedule:  cfg.PublishSchedule,
		Location:  loc,
		ProgramID: cfg.ProgramID,
		Enabled:   cfg.EnableScheduledPublish,
		Timeout:   cfg.PublishTimeout,
	}, logging.WithComponent(logger, "scheduler"))
	if err != nil {
		log.WithError(err).Fatal("Failed to create scheduler")
	}

	schedDone := make(chan struct{})
	go func() {
		sched.Start(ctx)
		close(schedDone)
	}()

	deps := rest.HandlerDeps{
		Stats:     statsService,
		Snapshots: snapshotService,
		Scheduler: sched,
		Store:     repo,
		ProgramID: cfg.ProgramID,
		Logger:    logging.WithComponent(logger, "http"),
	}
	if redisCache != nil {
		deps.Cache = redisCache
	}
	restServer := rest.NewServer(cfg.RESTPort, rest.NewHandler(deps), logging.WithComponent(logger, "http"))
	go func() {
		if err := restServer.Start(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("REST server error")
		}
	}()

	go func() {
		if err := wsServer.Start(cfg.WSPort); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("WebSocket server error")
		}
	}()

	log.WithFields(logrus.Fields{
		"rest_port": cfg.RESTPort,
		"ws_port":   cfg.WSPort,
		"program":   cfg.ProgramID,
	}).Infof("%s started", serviceName)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down gracefully...")
	cancel()
	<-schedDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("REST API server shutdown error")
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("WebSocket server shutdown error")
	}

	log.Infof("%s stopped", serviceName)
}
