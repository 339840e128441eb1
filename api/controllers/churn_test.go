package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/healthpulse-backend/internal/churn"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
)

func TestScoreChurnRejectsEmptyRows(t *testing.T) {
	svc := churn.NewService(churn.ServiceParams{})
	resp := httptest.NewRecorder()
	ScoreChurn(svc, logger.Nop()).ServeHTTP(resp, newJSONRequest(http.MethodPost, "/churn/score", `{"rows":[]}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if apiErr := decodeError(t, resp); apiErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("unexpected code %s", apiErr.Code)
	}
}

func TestScoreChurnScoresRows(t *testing.T) {
	svc := churn.NewService(churn.ServiceParams{})
	body := `{"rows":[{"customer_id":"c-1","name":"Acme","health_score":30,"support_tickets":12}]}`
	resp := httptest.NewRecorder()
	ScoreChurn(svc, logger.Nop()).ServeHTTP(resp, newJSONRequest(http.MethodPost, "/churn/score", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out churn.BatchResult
	decodeData(t, resp, &out)
	if len(out.Scores) != 1 {
		t.Fatalf("expected one score, got %d", len(out.Scores))
	}
	if out.Scores[0].RiskScore <= 0 {
		t.Fatalf("expected positive risk score, got %v", out.Scores[0].RiskScore)
	}
}

func TestUpdateChurnThresholdsKeepsOmittedFields(t *testing.T) {
	svc := churn.NewService(churn.ServiceParams{})
	resp := httptest.NewRecorder()
	UpdateChurnThresholds(svc, logger.Nop()).ServeHTTP(resp,
		newJSONRequest(http.MethodPut, "/churn/thresholds", `{"high_risk":65}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	got := svc.Thresholds()
	if got.HighRisk != 65 {
		t.Fatalf("expected high risk 65, got %v", got.HighRisk)
	}
	if got.CriticalRisk != churn.DefaultThresholds().CriticalRisk {
		t.Fatalf("critical risk should be untouched, got %v", got.CriticalRisk)
	}
}

func TestUpdateChurnThresholdsRejectsUnknownField(t *testing.T) {
	svc := churn.NewService(churn.ServiceParams{})
	resp := httptest.NewRecorder()
	UpdateChurnThresholds(svc, logger.Nop()).ServeHTTP(resp,
		newJSONRequest(http.MethodPut, "/churn/thresholds", `{"nope":1}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
