package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/internal/propensity"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
)

type testPropensityService struct {
	scoreFn     func(ctx context.Context, id string, refresh bool) (propensity.Score, error)
	batchFn     func(ctx context.Context, ids []string, refresh bool) (propensity.BatchResult, error)
	portfolioFn func(ctx context.Context, ids []string) (propensity.PortfolioSummary, error)
}

func (s *testPropensityService) Score(ctx context.Context, id string, refresh bool) (propensity.Score, error) {
	if s.scoreFn != nil {
		return s.scoreFn(ctx, id, refresh)
	}
	return propensity.Score{}, nil
}

func (s *testPropensityService) ScoreSnapshot(ctx context.Context, snap customers.Snapshot) propensity.Score {
	return propensity.Score{CustomerID: snap.ID}
}

func (s *testPropensityService) ScoreBatch(ctx context.Context, ids []string, refresh bool) (propensity.BatchResult, error) {
	if s.batchFn != nil {
		return s.batchFn(ctx, ids, refresh)
	}
	return propensity.BatchResult{}, nil
}

func (s *testPropensityService) Portfolio(ctx context.Context, ids []string) (propensity.PortfolioSummary, error) {
	if s.portfolioFn != nil {
		return s.portfolioFn(ctx, ids)
	}
	return propensity.PortfolioSummary{}, nil
}

func TestCustomerPropensityPassesRefresh(t *testing.T) {
	var gotID string
	var gotRefresh bool
	svc := &testPropensityService{
		scoreFn: func(ctx context.Context, id string, refresh bool) (propensity.Score, error) {
			gotID, gotRefresh = id, refresh
			return propensity.Score{CustomerID: id, PropensityScore: 72}, nil
		},
	}

	req := withURLParams(newJSONRequest(http.MethodGet, "/customers/c-9/propensity?refresh=true", ""),
		map[string]string{"customerId": "c-9"})
	resp := httptest.NewRecorder()
	CustomerPropensity(svc, logger.Nop()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotID != "c-9" || !gotRefresh {
		t.Fatalf("unexpected call id=%q refresh=%v", gotID, gotRefresh)
	}
	var score propensity.Score
	decodeData(t, resp, &score)
	if score.PropensityScore != 72 {
		t.Fatalf("unexpected score %d", score.PropensityScore)
	}
}

func TestCustomerPropensityInvalidRefresh(t *testing.T) {
	req := withURLParams(newJSONRequest(http.MethodGet, "/customers/c-9/propensity?refresh=maybe", ""),
		map[string]string{"customerId": "c-9"})
	resp := httptest.NewRecorder()
	CustomerPropensity(&testPropensityService{}, logger.Nop()).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCustomerPropensityNotFound(t *testing.T) {
	svc := &testPropensityService{
		scoreFn: func(ctx context.Context, id string, refresh bool) (propensity.Score, error) {
			return propensity.Score{}, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		},
	}
	req := withURLParams(newJSONRequest(http.MethodGet, "/customers/missing/propensity", ""),
		map[string]string{"customerId": "missing"})
	resp := httptest.NewRecorder()
	CustomerPropensity(svc, logger.Nop()).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestPropensityBatchRequiresIDs(t *testing.T) {
	resp := httptest.NewRecorder()
	PropensityBatch(&testPropensityService{}, logger.Nop()).ServeHTTP(resp,
		newJSONRequest(http.MethodPost, "/propensity/batch", `{"customer_ids":[]}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestPropensityPortfolioAllowsEmptyList(t *testing.T) {
	called := false
	svc := &testPropensityService{
		portfolioFn: func(ctx context.Context, ids []string) (propensity.PortfolioSummary, error) {
			called = true
			if len(ids) != 0 {
				t.Fatalf("expected no ids, got %v", ids)
			}
			return propensity.PortfolioSummary{Customers: 3}, nil
		},
	}
	resp := httptest.NewRecorder()
	PropensityPortfolio(svc, logger.Nop()).ServeHTTP(resp,
		newJSONRequest(http.MethodPost, "/propensity/portfolio", `{}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected portfolio to be called")
	}
}
