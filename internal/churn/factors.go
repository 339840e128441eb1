package churn

import (
	"fmt"
	"math"
	"time"

	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

// Factor names.
const (
	FactorInactivity   = "inactivity"
	FactorUsageDecline = "usage_decline"
	FactorZeroUsage    = "zero_usage"
	FactorTickets      = "support_tickets"
	FactorLowHealth    = "low_health_score"
	FactorNPSDetractor = "nps_detractor"
	FactorLowLogins    = "low_login_frequency"
)

const lowLoginCount = 4

// RiskFactor is one fired risk signal. Weight is the factor's share of the
// row's total contribution.
type RiskFactor struct {
	Factor       string          `json:"factor"`
	Description  string          `json:"description"`
	Weight       float64         `json:"weight"`
	Contribution float64         `json:"contribution"`
	Severity     enums.RiskLevel `json:"severity"`
}

// evalContext is what every factor evaluator sees.
type evalContext struct {
	row        Row
	mapping    ColumnMapping
	thresholds Thresholds
	now        time.Time
}

func factor(name string, contribution float64, severity enums.RiskLevel, format string, args ...any) *RiskFactor {
	return &RiskFactor{
		Factor:       name,
		Description:  fmt.Sprintf(format, args...),
		Contribution: contribution,
		Severity:     severity,
	}
}

func daysInactive(c evalContext) (float64, bool) {
	if days, ok := c.row.number(c.mapping.DaysInactive); ok {
		return math.Max(0, days), true
	}
	if last, ok := c.row.date(c.mapping.LastLogin); ok {
		return math.Max(0, math.Floor(c.now.Sub(last).Hours()/24)), true
	}
	return 0, false
}

func evalInactivity(c evalContext) *RiskFactor {
	days, ok := daysInactive(c)
	if !ok {
		return nil
	}
	switch {
	case days >= c.thresholds.InactiveDaysCritical:
		return factor(FactorInactivity, 35, enums.RiskLevelCritical, "No login for %.0f days", days)
	case days >= c.thresholds.InactiveDaysWarning:
		return factor(FactorInactivity, 20, enums.RiskLevelMedium, "No login for %.0f days", days)
	}
	return nil
}

func usageChange(c evalContext) (float64, bool) {
	if change, ok := c.row.number(c.mapping.UsageChange); ok {
		return change, true
	}
	current, okCur := c.row.number(c.mapping.UsageCurrent)
	previous, okPrev := c.row.number(c.mapping.UsagePrevious)
	if okCur && okPrev && previous > 0 {
		return (current - previous) / previous * 100, true
	}
	return 0, false
}

func evalUsage(c evalContext) *RiskFactor {
	if current, ok := c.row.number(c.mapping.UsageCurrent); ok && current == 0 {
		return factor(FactorZeroUsage, 20, enums.RiskLevelHigh, "No recorded product usage")
	}
	change, ok := usageChange(c)
	if !ok || change >= 0 {
		return nil
	}
	decline := -change
	switch {
	case decline >= c.thresholds.UsageDeclineCritical:
		return factor(FactorUsageDecline, 25, enums.RiskLevelHigh, "Usage down %.0f%%", decline)
	case decline >= c.thresholds.UsageDeclineWarning:
		return factor(FactorUsageDecline, 15, enums.RiskLevelMedium, "Usage down %.0f%%", decline)
	}
	return nil
}

func evalTickets(c evalContext) *RiskFactor {
	tickets, ok := c.row.number(c.mapping.SupportTickets)
	if !ok {
		return nil
	}
	switch {
	case tickets >= c.thresholds.TicketCountCritical:
		return factor(FactorTickets, 20, enums.RiskLevelHigh, "%.0f support tickets in the period", tickets)
	case tickets >= c.thresholds.TicketCountWarning:
		return factor(FactorTickets, 10, enums.RiskLevelMedium, "%.0f support tickets in the period", tickets)
	}
	return nil
}

func evalHealth(c evalContext) *RiskFactor {
	health, ok := c.row.number(c.mapping.HealthScore)
	if !ok {
		return nil
	}
	switch {
	case health < c.thresholds.HealthScoreCritical:
		return factor(FactorLowHealth, 30, enums.RiskLevelCritical, "Health score critically low at %.0f", health)
	case health < c.thresholds.HealthScoreWarning:
		return factor(FactorLowHealth, 15, enums.RiskLevelMedium, "Health score below target at %.0f", health)
	}
	return nil
}

func evalNPS(c evalContext) *RiskFactor {
	nps, ok := c.row.number(c.mapping.NPSScore)
	if !ok {
		return nil
	}
	switch {
	case nps <= c.thresholds.NPSDetractor/2:
		return factor(FactorNPSDetractor, 25, enums.RiskLevelHigh, "Strong detractor with NPS %.0f", nps)
	case nps <= c.thresholds.NPSDetractor:
		return factor(FactorNPSDetractor, 10, enums.RiskLevelMedium, "Detractor with NPS %.0f", nps)
	}
	return nil
}

func evalLogins(c evalContext) *RiskFactor {
	logins, ok := c.row.number(c.mapping.LoginCount)
	if !ok || logins >= lowLoginCount {
		return nil
	}
	if days, ok := daysInactive(c); ok && days >= c.thresholds.InactiveDaysWarning {
		return nil
	}
	return factor(FactorLowLogins, 10, enums.RiskLevelMedium, "Only %.0f logins in the last 30 days", logins)
}

// evaluators run in this order; ties in contribution keep it.
var evaluators = []func(evalContext) *RiskFactor{
	evalInactivity,
	evalUsage,
	evalTickets,
	evalHealth,
	evalNPS,
	evalLogins,
}
