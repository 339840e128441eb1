package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/healthpulse-backend/api/controllers"
	"github.com/angelmondragon/healthpulse-backend/api/middleware"
	"github.com/angelmondragon/healthpulse-backend/internal/churn"
	"github.com/angelmondragon/healthpulse-backend/internal/forecast"
	"github.com/angelmondragon/healthpulse-backend/internal/nps"
	"github.com/angelmondragon/healthpulse-backend/internal/playbooks"
	"github.com/angelmondragon/healthpulse-backend/internal/propensity"
	"github.com/angelmondragon/healthpulse-backend/internal/seasonal"
	"github.com/angelmondragon/healthpulse-backend/pkg/config"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
	"github.com/angelmondragon/healthpulse-backend/pkg/redis"
)

type rateLimitStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Deps are the services and infrastructure the API exposes. Nil
// infrastructure clients are treated as disabled.
type Deps struct {
	DB         controllers.Pinger
	Redis      *redis.Client
	PubSub     controllers.Pinger
	Gatherer   prometheus.Gatherer
	Churn      churn.Service
	Propensity propensity.Service
	Forecast   forecast.Service
	Detector   *seasonal.Detector
	Playbooks  playbooks.Service
	NPS        nps.Service
	Now        func() time.Time
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var limiter rateLimitStore
	var redisPinger controllers.Pinger
	if deps.Redis != nil {
		limiter = deps.Redis
		redisPinger = deps.Redis
	}
	batchPolicy := middleware.NewBatchRateLimitPolicy("batch", cfg.App.BatchRateWindow, cfg.App.BatchRateLimit)
	batchLimit := middleware.BatchRateLimit(batchPolicy, limiter, logg)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	detector := deps.Detector
	if detector == nil {
		detector = seasonal.NewDetector()
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":     deps.DB,
			"redis":  redisPinger,
			"pubsub": deps.PubSub,
		}))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/churn", func(r chi.Router) {
			r.With(batchLimit).Post("/score", controllers.ScoreChurn(deps.Churn, logg))
			r.Get("/thresholds", controllers.GetChurnThresholds(deps.Churn, logg))
			r.Put("/thresholds", controllers.UpdateChurnThresholds(deps.Churn, logg))
		})

		r.Route("/customers/{customerId}", func(r chi.Router) {
			r.Get("/propensity", controllers.CustomerPropensity(deps.Propensity, logg))
			r.Get("/forecast", controllers.CustomerForecast(deps.Forecast, cfg.Forecast, logg))
			r.Post("/playbooks/recommend", controllers.RecommendPlaybook(deps.Playbooks, logg))
			r.Post("/triggers/evaluate", controllers.EvaluateTriggers(deps.Playbooks, logg))
			r.Get("/recommendations", controllers.ListRecommendations(deps.Playbooks, logg))
		})

		r.Route("/propensity", func(r chi.Router) {
			r.Use(batchLimit)
			r.Post("/batch", controllers.PropensityBatch(deps.Propensity, logg))
			r.Post("/portfolio", controllers.PropensityPortfolio(deps.Propensity, logg))
		})

		r.Route("/forecast", func(r chi.Router) {
			r.With(batchLimit).Post("/portfolio", controllers.PortfolioForecast(deps.Forecast, logg))
			r.Post("/series", controllers.ForecastSeries(detector, cfg.Forecast, logg))
		})

		r.Post("/seasonality/analyze", controllers.AnalyzeSeasonality(detector, logg))

		r.Get("/playbooks", controllers.ListPlaybooks(deps.Playbooks, logg))
		r.Post("/recommendations/{recommendationId}/status", controllers.UpdateRecommendationStatus(deps.Playbooks, logg))

		r.With(batchLimit).Post("/nps/analyze", controllers.AnalyzeNPS(deps.NPS, logg))
		r.With(batchLimit).Post("/issues/cluster", controllers.ClusterIssues(deps.Now, logg))
	})

	return r
}
