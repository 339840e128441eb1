package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/healthpulse-backend/internal/playbooks"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
)

type customerLister interface {
	ListCustomerIDs(ctx context.Context) ([]string, error)
}

type triggerEvaluator interface {
	EvaluateTriggers(ctx context.Context, customerID string) ([]playbooks.Recommendation, error)
}

type TriggerEvaluationJobParams struct {
	Logger    *logger.Logger
	Customers customerLister
	Playbooks triggerEvaluator
}

// NewTriggerEvaluationJob runs the trigger rule table against every active
// customer and persists the resulting recommendations.
func NewTriggerEvaluationJob(params TriggerEvaluationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer lister required")
	}
	if params.Playbooks == nil {
		return nil, fmt.Errorf("playbook service required")
	}
	return &triggerEvaluationJob{
		logg:      params.Logger,
		customers: params.Customers,
		playbooks: params.Playbooks,
		now:       time.Now,
	}, nil
}

type triggerEvaluationJob struct {
	logg      *logger.Logger
	customers customerLister
	playbooks triggerEvaluator
	now       func() time.Time
}

func (j *triggerEvaluationJob) Name() string { return "trigger-evaluation" }

func (j *triggerEvaluationJob) Run(ctx context.Context) error {
	ids, err := j.customers.ListCustomerIDs(ctx)
	if err != nil {
		return fmt.Errorf("list customers: %w", err)
	}

	var (
		errs        error
		evaluated   int
		recommended int
	)
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		recs, err := j.playbooks.EvaluateTriggers(ctx, id)
		if err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("evaluate %s: %w", id, err))
			continue
		}
		evaluated++
		recommended += len(recs)
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"customers":       len(ids),
		"evaluated":       evaluated,
		"recommendations": recommended,
		"failures":        len(multierr.Errors(errs)),
		"finished_at":     j.now().UTC(),
	}), "trigger evaluation complete")
	return errs
}
