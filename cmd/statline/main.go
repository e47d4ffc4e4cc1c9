package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/statline/internal/api/rest"
	"github.com/fortuna/statline/internal/cache"
	"github.com/fortuna/statline/internal/config"
	"github.com/fortuna/statline/internal/gamedata"
	"github.com/fortuna/statline/internal/index"
	"github.com/fortuna/statline/internal/oddsdata"
	"github.com/fortuna/statline/internal/pipeline"
	"github.com/fortuna/statline/internal/series"
	"github.com/fortuna/statline/internal/store"
)

const (
	serviceName    = "statline"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	initLogging(cfg)
	log := logrus.WithField("service", serviceName)
	log.WithFields(logrus.Fields{
		"version": serviceVersion,
		"env":     cfg.Env,
		"backend": cfg.StoreBackend,
	}).Info("Starting Statline")

	// Player index is a structural collaborator: without it no record can
	// be pivoted, so a load failure is fatal.
	resolver, err := index.Load(cfg.PlayerIndexPath)
	if err != nil {
		log.Fatalf("Failed to load player index: %v", err)
	}
	log.Infof("Loaded player index (%d identifiers)", resolver.Len())

	playerStore, oddsStore, cleanup, err := buildStores(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize series stores: %v", err)
	}
	defer cleanup()

	var redisCache *cache.RedisCache
	if cfg.EnableAPI {
		redisCache, err = cache.NewRedisCache(cfg.RedisURL, time.Duration(cfg.CacheTTLHours)*time.Hour)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		log.Info("Connected to Redis")
	}

	runner := pipeline.NewRunner(
		gamedata.NewStore(cfg.GameDataDir, log),
		oddsdata.NewStore(cfg.OddsDataDir, log),
		resolver,
		playerStore,
		oddsStore,
		redisCache,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var restServer *rest.Server
	if cfg.EnableAPI {
		restServer = rest.NewServer(cfg.RESTPort, playerStore, oddsStore, redisCache, log)
		go func() {
			log.Infof("REST API listening on :%s", cfg.RESTPort)
			if err := restServer.Start(); err != nil {
				log.Errorf("REST server error: %v", err)
			}
		}()
	}

	if cfg.CronSchedule == "" {
		// One-shot batch mode
		if _, err := runner.Run(ctx); err != nil {
			log.Fatalf("Batch run failed: %v", err)
		}
		if restServer == nil {
			return
		}
		waitForSignal(log)
	} else {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(cfg.CronSchedule, func() {
			if _, err := runner.Run(ctx); err != nil {
				log.Errorf("Scheduled batch run failed: %v", err)
			}
		}); err != nil {
			log.Fatalf("Invalid cron schedule %q: %v", cfg.CronSchedule, err)
		}
		scheduler.Start()
		log.Infof("Scheduled batch runs: %s", cfg.CronSchedule)

		waitForSignal(log)
		<-scheduler.Stop().Done()
	}

	cancel()
	if restServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := restServer.Shutdown(shutdownCtx); err != nil {
			log.Errorf("REST server shutdown error: %v", err)
		}
	}

	log.Info("Statline stopped")
}

// buildStores selects the series-store backend from configuration.
func buildStores(cfg *config.Config) (series.PlayerStore, series.OddsStore, func(), error) {
	if cfg.StoreBackend == config.BackendPostgres {
		db, err := store.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return series.NewPostgresPlayerStore(db), series.NewPostgresOddsStore(db), func() { db.Close() }, nil
	}

	playerStore, err := series.NewCSVPlayerStore(cfg.PlayerSeriesDir)
	if err != nil {
		return nil, nil, nil, err
	}
	oddsStore, err := series.NewCSVOddsStore(cfg.OddsSeriesDir)
	if err != nil {
		return nil, nil, nil, err
	}
	return playerStore, oddsStore, func() {}, nil
}

func initLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if !cfg.IsDevelopment() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

func waitForSignal(log *logrus.Entry) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("Shutting down")
}
