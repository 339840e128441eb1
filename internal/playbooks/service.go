package playbooks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
	"github.com/angelmondragon/healthpulse-backend/pkg/pagination"
)

// Event types published for recommendations.
const (
	EventRecommended   = "playbook.recommended"
	EventStatusChanged = "playbook.status_changed"
)

// EventPublisher emits recommendation events. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, aggregateID string, data any) error
}

// RecommendationPage is one page of recommendation history.
type RecommendationPage struct {
	Items      []Recommendation `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type store interface {
	ListPlaybooks(ctx context.Context) ([]Playbook, error)
	CreateRecommendation(ctx context.Context, rec Recommendation) error
	GetRecommendation(ctx context.Context, id string, library []Playbook) (Recommendation, error)
	UpdateStatus(ctx context.Context, id string, from, to enums.RecommendationStatus, at time.Time) error
	ListRecommendations(ctx context.Context, customerID string, library []Playbook, params pagination.Params) ([]Recommendation, string, error)
	ListOpenRecommendations(ctx context.Context, customerID string, library []Playbook) ([]Recommendation, error)
}

type Service interface {
	Library(ctx context.Context) []Playbook
	Recommend(ctx context.Context, customerID string, trig Trigger) (Recommendation, error)
	EvaluateTriggers(ctx context.Context, customerID string) ([]Recommendation, error)
	UpdateStatus(ctx context.Context, recommendationID string, next enums.RecommendationStatus) (Recommendation, error)
	ListRecommendations(ctx context.Context, customerID string, params pagination.Params) (RecommendationPage, error)
}

type ServiceParams struct {
	Customers customers.Store
	Repo      store
	Matcher   *Matcher
	Rules     []Rule
	Reasoner  *Reasoner
	Publisher EventPublisher
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	customers customers.Store
	repo      store
	matcher   *Matcher
	rules     []Rule
	reasoner  *Reasoner
	publisher EventPublisher
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Customers == nil {
		return nil, fmt.Errorf("customer store required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("playbook repository required")
	}
	if params.Matcher == nil {
		params.Matcher = NewMatcher(DefaultMatcherOptions())
	}
	if params.Rules == nil {
		params.Rules = DefaultRules()
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		customers: params.Customers,
		repo:      params.Repo,
		matcher:   params.Matcher,
		rules:     params.Rules,
		reasoner:  params.Reasoner,
		publisher: params.Publisher,
		logg:      params.Logger,
		now:       params.Now,
	}, nil
}

// Library merges persisted overrides onto the seeds. A failing store
// degrades to the seeds alone.
func (s *service) Library(ctx context.Context) []Playbook {
	persisted, err := s.repo.ListPlaybooks(ctx)
	if err != nil {
		s.logg.WarnErr(ctx, "playbook overrides unavailable, using built-in library", err)
		persisted = nil
	}
	return MergeLibrary(DefaultLibrary(), persisted)
}

func (s *service) Recommend(ctx context.Context, customerID string, trig Trigger) (Recommendation, error) {
	ctx = s.logg.WithCustomerID(ctx, customerID)
	snap, err := s.snapshot(ctx, customerID)
	if err != nil {
		return Recommendation{}, err
	}
	rec, ok := s.matcher.Recommend(snap, s.Library(ctx), trig)
	if !ok {
		return Recommendation{}, pkgerrors.New(pkgerrors.CodeNotFound, "no playbooks configured")
	}
	return s.persist(ctx, snap, rec)
}

func (s *service) EvaluateTriggers(ctx context.Context, customerID string) ([]Recommendation, error) {
	ctx = s.logg.WithCustomerID(ctx, customerID)
	snap, err := s.snapshot(ctx, customerID)
	if err != nil {
		return nil, err
	}
	library := s.Library(ctx)
	existing, err := s.repo.ListOpenRecommendations(ctx, customerID, library)
	if err != nil {
		return nil, wrapStore(err, "load open recommendations")
	}
	seen := newOpenSet(existing)
	fired := s.matcher.EvaluateTriggers(snap, library, s.rules)
	out := make([]Recommendation, 0, len(fired))
	for _, rec := range fired {
		if seen.covers(rec) {
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"playbook_type": rec.RecommendedPlaybook.Type,
				"trigger_event": triggerEventOf(rec),
			}), "open recommendation exists, skipping trigger")
			continue
		}
		seen.add(rec)
		saved, err := s.persist(ctx, snap, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}

func (s *service) UpdateStatus(ctx context.Context, recommendationID string, next enums.RecommendationStatus) (Recommendation, error) {
	rec, err := s.repo.GetRecommendation(ctx, recommendationID, s.Library(ctx))
	if err != nil {
		return Recommendation{}, wrapStore(err, "load recommendation")
	}
	from := rec.Status
	if err := rec.Transition(next, s.now().UTC()); err != nil {
		return Recommendation{}, err
	}
	if err := s.repo.UpdateStatus(ctx, rec.ID, from, next, rec.UpdatedAt); err != nil {
		return Recommendation{}, wrapStore(err, "update recommendation status")
	}
	s.publish(ctx, EventStatusChanged, rec.ID, map[string]any{
		"recommendation_id": rec.ID,
		"customer_id":       rec.CustomerID,
		"from":              from,
		"to":                next,
	})
	return rec, nil
}

func (s *service) ListRecommendations(ctx context.Context, customerID string, params pagination.Params) (RecommendationPage, error) {
	recs, next, err := s.repo.ListRecommendations(ctx, customerID, s.Library(ctx), params)
	if err != nil {
		return RecommendationPage{}, wrapStore(err, "list recommendations")
	}
	return RecommendationPage{Items: recs, NextCursor: next}, nil
}

func (s *service) persist(ctx context.Context, snap customers.Snapshot, rec Recommendation) (Recommendation, error) {
	if s.reasoner != nil {
		rec.Reasoning = s.reasoner.Rewrite(ctx, snap, rec)
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now().UTC()
	rec.UpdatedAt = rec.CreatedAt
	if err := s.repo.CreateRecommendation(ctx, rec); err != nil {
		return Recommendation{}, wrapStore(err, "save recommendation")
	}
	s.publish(ctx, EventRecommended, rec.ID, rec)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"recommendation_id": rec.ID,
		"playbook_id":       rec.RecommendedPlaybook.ID,
		"fit_score":         rec.FitScore,
		"trigger_type":      rec.TriggerType,
	}), "playbook recommended")
	return rec, nil
}

func (s *service) publish(ctx context.Context, eventType, id string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, id, data); err != nil {
		s.logg.WarnErr(ctx, "publish playbook event", err)
	}
}

func (s *service) snapshot(ctx context.Context, customerID string) (customers.Snapshot, error) {
	snap, err := s.customers.GetSnapshot(ctx, customerID)
	if err != nil {
		return customers.Snapshot{}, wrapStore(err, "load customer")
	}
	return snap, nil
}

// openSet tracks the playbook types and trigger events a customer already
// has an open recommendation for.
type openSet struct {
	types  map[enums.PlaybookType]bool
	events map[string]bool
}

func newOpenSet(open []Recommendation) openSet {
	set := openSet{types: map[enums.PlaybookType]bool{}, events: map[string]bool{}}
	for _, rec := range open {
		if rec.Status.IsOpen() {
			set.add(rec)
		}
	}
	return set
}

func (o openSet) add(rec Recommendation) {
	o.types[rec.RecommendedPlaybook.Type] = true
	if ev := triggerEventOf(rec); ev != "" {
		o.events[ev] = true
	}
}

func (o openSet) covers(rec Recommendation) bool {
	if o.types[rec.RecommendedPlaybook.Type] {
		return true
	}
	ev := triggerEventOf(rec)
	return ev != "" && o.events[ev]
}

func triggerEventOf(rec Recommendation) string {
	if rec.TriggerEvent == nil {
		return ""
	}
	return *rec.TriggerEvent
}

func wrapStore(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Unavailable(err, msg)
}
