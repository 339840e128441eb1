package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/healthpulse-backend/internal/churn"
	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/internal/forecast"
	"github.com/angelmondragon/healthpulse-backend/internal/nps"
	"github.com/angelmondragon/healthpulse-backend/internal/playbooks"
	"github.com/angelmondragon/healthpulse-backend/internal/propensity"
	"github.com/angelmondragon/healthpulse-backend/internal/seasonal"
	"github.com/angelmondragon/healthpulse-backend/pkg/config"
	"github.com/angelmondragon/healthpulse-backend/pkg/db"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
	"github.com/angelmondragon/healthpulse-backend/pkg/metrics"
	"github.com/angelmondragon/healthpulse-backend/pkg/oracle"
	"github.com/angelmondragon/healthpulse-backend/pkg/pubsub"
	"github.com/angelmondragon/healthpulse-backend/pkg/redis"
)

type services struct {
	churn      churn.Service
	propensity propensity.Service
	forecast   forecast.Service
	detector   *seasonal.Detector
	playbooks  playbooks.Service
	nps        nps.Service
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	pubsubClient *pubsub.Client,
	reg prometheus.Registerer,
) (*services, error) {
	scoringMetrics := metrics.NewScoringMetrics(reg)
	oracleMetrics := metrics.NewOracleMetrics(reg)

	// Enrichment hooks stay nil unless a provider is configured, so disabled
	// deployments do not count every request as a fallback.
	var gen oracle.Generator = oracle.Noop{}
	var enricher *propensity.Enricher
	var reasoner *playbooks.Reasoner
	if cfg.FeatureFlags.OracleEnrichment && cfg.Oracle.Enabled() {
		gen = oracle.New(oracle.ClientParams{Config: cfg.Oracle, Logger: logg, Metrics: oracleMetrics})
		enricher = propensity.NewEnricher(gen, oracleMetrics, logg)
		reasoner = playbooks.NewReasoner(gen, oracleMetrics, logg)
	}

	customerRepo := customers.NewRepository(dbClient.DB())
	detector := seasonal.NewDetector()

	churnSvc := churn.NewService(churn.ServiceParams{
		Thresholds: churn.NewThresholdStore(churn.ThresholdsFromConfig(cfg.Churn)),
		Metrics:    scoringMetrics,
		Logger:     logg,
	})

	propensityParams := propensity.ServiceParams{
		Store:       customerRepo,
		Enricher:    enricher,
		Metrics:     scoringMetrics,
		Logger:      logg,
		CacheTTL:    cfg.Propensity.CacheTTL,
		Concurrency: cfg.Propensity.Concurrency,
	}
	if redisClient != nil {
		propensityParams.Cache = redisClient
	}
	propensitySvc, err := propensity.NewService(propensityParams)
	if err != nil {
		return nil, fmt.Errorf("propensity service: %w", err)
	}

	forecastSvc, err := forecast.NewService(forecast.ServiceParams{
		Store:    customerRepo,
		Config:   cfg.Forecast,
		Detector: detector,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("forecast service: %w", err)
	}

	playbookParams := playbooks.ServiceParams{
		Customers: customerRepo,
		Repo:      playbooks.NewRepository(dbClient.DB()),
		Matcher:   playbooks.NewMatcher(playbooks.DefaultMatcherOptions()),
		Rules:     playbooks.DefaultRules(),
		Reasoner:  reasoner,
		Logger:    logg,
	}
	if pubsubClient != nil {
		playbookParams.Publisher = pubsub.NewEventPublisher(pubsub.WrapGCP(pubsubClient.PlaybookPublisher()))
	}
	playbookSvc, err := playbooks.NewService(playbookParams)
	if err != nil {
		return nil, fmt.Errorf("playbooks service: %w", err)
	}

	npsSvc := nps.NewService(nps.ServiceParams{
		Oracle:        gen,
		OracleMetrics: oracleMetrics,
		Metrics:       scoringMetrics,
		Logger:        logg,
		Concurrency:   cfg.Propensity.Concurrency,
	})

	return &services{
		churn:      churnSvc,
		propensity: propensitySvc,
		forecast:   forecastSvc,
		detector:   detector,
		playbooks:  playbookSvc,
		nps:        npsSvc,
	}, nil
}
