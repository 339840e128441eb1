package cron

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/healthpulse-backend/internal/propensity"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
)

const defaultRefreshBatchSize = 100

type propensityBatcher interface {
	ScoreBatch(ctx context.Context, customerIDs []string, refresh bool) (propensity.BatchResult, error)
}

type PropensityRefreshJobParams struct {
	Logger     *logger.Logger
	Customers  customerLister
	Propensity propensityBatcher
	BatchSize  int
}

// NewPropensityRefreshJob rescores every active customer so the score cache
// stays warm.
func NewPropensityRefreshJob(params PropensityRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer lister required")
	}
	if params.Propensity == nil {
		return nil, fmt.Errorf("propensity service required")
	}
	size := params.BatchSize
	if size <= 0 {
		size = defaultRefreshBatchSize
	}
	return &propensityRefreshJob{
		logg:       params.Logger,
		customers:  params.Customers,
		propensity: params.Propensity,
		batchSize:  size,
	}, nil
}

type propensityRefreshJob struct {
	logg       *logger.Logger
	customers  customerLister
	propensity propensityBatcher
	batchSize  int
}

func (j *propensityRefreshJob) Name() string { return "propensity-refresh" }

func (j *propensityRefreshJob) Run(ctx context.Context) error {
	ids, err := j.customers.ListCustomerIDs(ctx)
	if err != nil {
		return fmt.Errorf("list customers: %w", err)
	}

	var (
		errs      error
		refreshed int
	)
	for start := 0; start < len(ids); start += j.batchSize {
		end := min(start+j.batchSize, len(ids))
		res, err := j.propensity.ScoreBatch(ctx, ids[start:end], true)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("score batch %d-%d: %w", start, end, err))
			continue
		}
		refreshed += len(res.Scores)
		for _, f := range res.Failed {
			errs = multierr.Append(errs, fmt.Errorf("score %s: %w", f.CustomerID, errors.New(f.Error)))
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"customers": len(ids),
		"refreshed": refreshed,
		"failures":  len(multierr.Errors(errs)),
	}), "propensity refresh complete")
	return errs
}
