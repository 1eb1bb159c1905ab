package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"slipalert-service/internal/api"
	"slipalert-service/internal/config"
	"slipalert-service/internal/db"
	"slipalert-service/internal/events"
	"slipalert-service/internal/fanout"
	"slipalert-service/internal/feed"
	"slipalert-service/internal/gateway"
	"slipalert-service/internal/inbound"
	"slipalert-service/internal/logging"
	"slipalert-service/internal/observability"
	"slipalert-service/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		logger.Fatalf("Invalid timezone %q: %v", cfg.App.Timezone, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.DB.DSN); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	database, err := db.New(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	registry := prometheus.NewRegistry()
	metrics := observability.New(registry)
	clock := clockwork.NewRealClock()

	sms := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Sender, cfg.Gateway.Timeout)

	var publisher feed.Publisher
	if cfg.Kafka.Broker != "" {
		kafkaPublisher := events.NewPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Infof("Publishing warning events to %s (topic %s)", cfg.Kafka.Broker, cfg.Kafka.Topic)
	}

	enqueuer := fanout.New(database, database, clock, loc, logger, metrics)
	watcher := feed.NewWatcher(feed.Config{
		FeedURL:       cfg.Feed.URL,
		TargetAreas:   cfg.Feed.TargetAreas,
		ActiveHorizon: cfg.Warning.ActiveHorizon,
	}, database, enqueuer, publisher, feed.NewMemoryState(), clock,
		&http.Client{Timeout: cfg.Gateway.Timeout}, logger, metrics)
	drainer := scheduler.New(database, database, sms, clock, logger, metrics,
		cfg.Scheduler.FetchLimit, cfg.Scheduler.MaxBatch, cfg.Scheduler.MaxAttempts)
	commands := inbound.New(database, database, database, sms, logger, metrics)

	// Overlapping ticks would interleave writes to the same queue rows, so
	// each job skips its own run while the previous one is still going.
	runner := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))
	if _, err := runner.AddFunc("@every "+cfg.Feed.Interval.String(), func() {
		if err := watcher.Tick(ctx); err != nil {
			logger.Errorf("Feed tick failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule feed watcher: %v", err)
	}
	if _, err := runner.AddFunc("@every "+cfg.Scheduler.Interval.String(), func() {
		if err := drainer.Tick(ctx); err != nil {
			logger.Errorf("Delivery tick failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule delivery: %v", err)
	}
	runner.Start()

	router := api.NewRouter(database, commands, registry, logger)
	server := &http.Server{Addr: cfg.API.Port, Handler: router}

	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("API server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API server shutdown failed: %v", err)
	}
	<-runner.Stop().Done()
}
