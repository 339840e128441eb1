package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/internal/seasonal"
	"github.com/angelmondragon/healthpulse-backend/internal/timeseries"
	"github.com/angelmondragon/healthpulse-backend/pkg/config"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
)

// Request selects the forecast horizon.
type Request struct {
	Periods    int              `json:"periods"`
	PeriodType enums.PeriodType `json:"period_type"`
}

// Service loads customer history from the store and forecasts it.
type Service interface {
	Customer(ctx context.Context, customerID string, req Request) (CustomerForecast, error)
	Portfolio(ctx context.Context, customerIDs []string, req Request) (PortfolioForecast, error)
}

type ServiceParams struct {
	Store    customers.Store
	Config   config.ForecastConfig
	Detector *seasonal.Detector
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	store    customers.Store
	cfg      config.ForecastConfig
	detector *seasonal.Detector
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("customer store required")
	}
	if params.Detector == nil {
		params.Detector = seasonal.NewDetector()
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.Config.DefaultPeriods <= 0 {
		params.Config.DefaultPeriods = 6
	}
	if params.Config.HistoryMonths <= 0 {
		params.Config.HistoryMonths = 24
	}
	if params.Config.MaxPeriods <= 0 {
		params.Config.MaxPeriods = 24
	}
	return &service{
		store:    params.Store,
		cfg:      params.Config,
		detector: params.Detector,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

func (s *service) Customer(ctx context.Context, customerID string, req Request) (CustomerForecast, error) {
	req = s.normalize(req)
	ctx = s.logg.WithCustomerID(ctx, customerID)

	series, err := s.loadSeries(ctx, customerID)
	if err != nil {
		return CustomerForecast{}, err
	}

	var pattern *seasonal.Pattern
	monthly := timeseries.AggregateByMonth(series.ARR, timeseries.MeasureLevel.MonthlyMode())
	if len(monthly) >= seasonal.MinPoints {
		analysis := s.detector.Analyze(customers.MetricARR, monthly)
		if analysis.HasSignificantSeasonality && analysis.PrimaryPattern != nil &&
			analysis.PrimaryPattern.Periodicity == enums.PeriodicityQuarterly {
			pattern = analysis.PrimaryPattern
		}
	}
	return Customer(series, req.Periods, req.PeriodType, pattern), nil
}

func (s *service) Portfolio(ctx context.Context, customerIDs []string, req Request) (PortfolioForecast, error) {
	req = s.normalize(req)
	if len(customerIDs) == 0 {
		ids, err := s.store.ListCustomerIDs(ctx)
		if err != nil {
			return PortfolioForecast{}, unavailable(err, "list customers")
		}
		customerIDs = ids
	}

	all := make([]CustomerSeries, 0, len(customerIDs))
	for _, id := range customerIDs {
		series, err := s.loadSeries(ctx, id)
		if err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
				s.logg.Warn(s.logg.WithCustomerID(ctx, id), "skipping unknown customer in portfolio forecast")
				continue
			}
			return PortfolioForecast{}, err
		}
		all = append(all, series)
	}
	return Portfolio(all, req.Periods, req.PeriodType), nil
}

func (s *service) loadSeries(ctx context.Context, customerID string) (CustomerSeries, error) {
	snap, err := s.store.GetSnapshot(ctx, customerID)
	if err != nil {
		return CustomerSeries{}, unavailable(err, "load customer")
	}
	rng := timeseries.Range{
		From: s.now().UTC().AddDate(0, -s.cfg.HistoryMonths, 0),
		To:   s.now().UTC(),
	}
	arr, err := s.store.GetTimeSeries(ctx, customerID, customers.MetricARR, rng)
	if err != nil {
		return CustomerSeries{}, unavailable(err, "load arr history")
	}
	health, err := s.store.GetTimeSeries(ctx, customerID, customers.MetricHealth, rng)
	if err != nil {
		return CustomerSeries{}, unavailable(err, "load health history")
	}
	return CustomerSeries{
		CustomerID:   customerID,
		CustomerName: snap.Name,
		ARR:          timeseries.Aggregate(arr, timeseries.MeasureLevel.DailyMode()),
		Health:       timeseries.Aggregate(health, timeseries.MeasureScore.DailyMode()),
	}, nil
}

func (s *service) normalize(req Request) Request {
	if req.Periods <= 0 {
		req.Periods = s.cfg.DefaultPeriods
	}
	if req.Periods > s.cfg.MaxPeriods {
		req.Periods = s.cfg.MaxPeriods
	}
	if !req.PeriodType.IsValid() {
		req.PeriodType = enums.PeriodTypeMonth
	}
	return req
}

// unavailable keeps typed store errors such as NOT_FOUND and marks
// everything else as a dependency failure.
func unavailable(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Unavailable(err, msg)
}
