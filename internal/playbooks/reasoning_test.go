package playbooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/pkg/oracle"
)

func TestReasonerRewritesWithOracle(t *testing.T) {
	gen := oracle.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "Sure:\n```json\n{\"reasoning\":[\"Health has collapsed to 30.\", \"  \", \"Exec alignment is needed.\"]}\n```", nil
	})
	r := NewReasoner(gen, nil, nil)
	rec := Recommendation{RecommendedPlaybook: DefaultLibrary()[2], Reasoning: []string{"a", "b"}}

	got := r.Rewrite(context.Background(), snapshot(customers.Attributes{}), rec)
	assert.Equal(t, []string{"Health has collapsed to 30.", "Exec alignment is needed."}, got)
}

func TestReasonerFallsBackVerbatim(t *testing.T) {
	reasons := []string{"Lifecycle stage at_risk fits this playbook"}
	rec := Recommendation{RecommendedPlaybook: DefaultLibrary()[2], Reasoning: reasons}
	s := snapshot(customers.Attributes{})

	cases := map[string]oracle.Generator{
		"unavailable": oracle.Noop{},
		"error": oracle.GeneratorFunc(func(context.Context, string, string) (string, error) {
			return "", errors.New("timeout")
		}),
		"prose": oracle.GeneratorFunc(func(context.Context, string, string) (string, error) {
			return "I think this customer is fine.", nil
		}),
		"empty": oracle.GeneratorFunc(func(context.Context, string, string) (string, error) {
			return `{"reasoning":[]}`, nil
		}),
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, reasons, NewReasoner(gen, nil, nil).Rewrite(context.Background(), s, rec))
		})
	}
}
