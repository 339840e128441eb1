package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/healthpulse-backend/internal/cron"
	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/internal/playbooks"
	"github.com/angelmondragon/healthpulse-backend/internal/propensity"
	"github.com/angelmondragon/healthpulse-backend/pkg/config"
	"github.com/angelmondragon/healthpulse-backend/pkg/db"
	"github.com/angelmondragon/healthpulse-backend/pkg/instance"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
	"github.com/angelmondragon/healthpulse-backend/pkg/metrics"
	"github.com/angelmondragon/healthpulse-backend/pkg/migrate"
	"github.com/angelmondragon/healthpulse-backend/pkg/pubsub"
	"github.com/angelmondragon/healthpulse-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single locked cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	if !cfg.Redis.Enabled() {
		logg.Error(context.Background(), "redis is required for the cron lock", errors.New("redis not configured"))
		os.Exit(1)
	}
	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	customerRepo := customers.NewRepository(dbClient.DB())
	scoringMetrics := metrics.NewScoringMetrics(prometheus.DefaultRegisterer)

	propensitySvc, err := propensity.NewService(propensity.ServiceParams{
		Store:       customerRepo,
		Cache:       redisClient,
		Metrics:     scoringMetrics,
		Logger:      logg,
		CacheTTL:    cfg.Propensity.CacheTTL,
		Concurrency: cfg.Propensity.Concurrency,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create propensity service", err)
		os.Exit(1)
	}

	playbookParams := playbooks.ServiceParams{
		Customers: customerRepo,
		Repo:      playbooks.NewRepository(dbClient.DB()),
		Matcher:   playbooks.NewMatcher(playbooks.DefaultMatcherOptions()),
		Rules:     playbooks.DefaultRules(),
		Logger:    logg,
	}
	if cfg.PubSub.Enabled() {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		playbookParams.Publisher = pubsub.NewEventPublisher(pubsub.WrapGCP(pubsubClient.PlaybookPublisher()))
	}
	playbookSvc, err := playbooks.NewService(playbookParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create playbooks service", err)
		os.Exit(1)
	}

	triggerJob, err := cron.NewTriggerEvaluationJob(cron.TriggerEvaluationJobParams{
		Logger:    logg,
		Customers: customerRepo,
		Playbooks: playbookSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create trigger evaluation job", err)
		os.Exit(1)
	}
	refreshJob, err := cron.NewPropensityRefreshJob(cron.PropensityRefreshJobParams{
		Logger:     logg,
		Customers:  customerRepo,
		Propensity: propensitySvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create propensity refresh job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(triggerJob, refreshJob)
	lockTTL := cfg.Cron.LockTTL
	if lockTTL <= 0 {
		lockTTL = cron.LockTTLFor(cfg.Cron.Interval)
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cron.CycleLockKey(registry.Names())), lockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"once":        *once,
		"instance":    instance.GetID(),
		"jobs":        registry.Names(),
		"lock_key":    lock.Key(),
		"lock_ttl":    lock.TTL().String(),
	})
	logg.Info(ctx, "starting cron worker")

	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
