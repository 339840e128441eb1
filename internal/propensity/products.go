package propensity

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/healthpulse-backend/internal/customers"
)

// Rule-based product identifiers.
const (
	ProductSeatExpansion    = "seat_expansion"
	ProductTierUpgrade      = "tier_upgrade"
	ProductEnterpriseUpsell = "enterprise_upsell"
	ProductAddOnModules     = "add_on_modules"
)

const (
	seatExpansionCapacity = 90
	enterpriseUpsellARR   = 200000
)

type Product struct {
	Product   string `json:"product"`
	Name      string `json:"name"`
	Rationale string `json:"rationale"`
	Source    string `json:"source"`
}

// RuleProducts is the deterministic recommendation list. It is never empty.
func RuleProducts(s customers.Snapshot) []Product {
	out := []Product{}
	if s.UsageCapacity >= seatExpansionCapacity || (s.Completeness.Seats && s.SeatUtilization() >= 1) {
		out = append(out, Product{
			Product:   ProductSeatExpansion,
			Name:      "Seat expansion",
			Rationale: fmt.Sprintf("Running at %.0f%% of licensed capacity.", s.UsageCapacity),
			Source:    SourceRules,
		})
	}
	if lowTierPlans[s.Plan] {
		out = append(out, Product{
			Product:   ProductTierUpgrade,
			Name:      "Tier upgrade",
			Rationale: fmt.Sprintf("Currently on the %s plan.", s.Plan),
			Source:    SourceRules,
		})
	}
	if s.ARR >= enterpriseUpsellARR && s.Plan != "enterprise" {
		out = append(out, Product{
			Product:   ProductEnterpriseUpsell,
			Name:      "Enterprise upsell",
			Rationale: fmt.Sprintf("ARR of %.0f qualifies for enterprise packaging.", s.ARR),
			Source:    SourceRules,
		})
	}
	if len(out) == 0 {
		out = append(out, Product{
			Product:   ProductAddOnModules,
			Name:      "Add-on modules",
			Rationale: "Extend the current deployment with complementary modules.",
			Source:    SourceRules,
		})
	}
	return out
}

// mergeProducts appends extra products whose identifier is not present yet.
func mergeProducts(base, extra []Product) []Product {
	seen := make(map[string]struct{}, len(base))
	for _, p := range base {
		seen[strings.ToLower(p.Product)] = struct{}{}
	}
	out := append([]Product(nil), base...)
	for _, p := range extra {
		key := strings.ToLower(strings.TrimSpace(p.Product))
		if key == "" {
			key = strings.ToLower(strings.TrimSpace(p.Name))
		}
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
