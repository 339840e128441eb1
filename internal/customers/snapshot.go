package customers

import (
	"math"
	"strings"
	"time"

	"github.com/angelmondragon/healthpulse-backend/pkg/db/models"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

// Metric names stored in metric_points.
const (
	MetricARR    = "arr"
	MetricHealth = "health_score"
	MetricUsage  = "usage"
	MetricLogins = "logins"
)

const (
	defaultHealthScore = 50
	defaultNPS         = 7
	unknownRenewal     = -1
)

// Attributes is the raw, partially populated view of a customer as it
// arrives from storage or a request body. Nil means "not collected".
type Attributes struct {
	Name                string                `json:"name"`
	Industry            *string               `json:"industry,omitempty"`
	Segment             *string               `json:"segment,omitempty"`
	Plan                *string               `json:"plan,omitempty"`
	LifecycleStage      *enums.LifecycleStage `json:"lifecycle_stage,omitempty"`
	ARR                 float64               `json:"arr"`
	HealthScore         *float64              `json:"health_score,omitempty"`
	HealthScoreChange   *float64              `json:"health_score_change,omitempty"`
	UsageCapacity       *float64              `json:"usage_capacity,omitempty"`
	UsageTrend          *float64              `json:"usage_trend,omitempty"`
	SeatCount           *int                  `json:"seat_count,omitempty"`
	SeatsUsed           *int                  `json:"seats_used,omitempty"`
	ActiveUsers         *int                  `json:"active_users,omitempty"`
	FeatureAdoptionRate *float64              `json:"feature_adoption_rate,omitempty"`
	FeaturesUsed        *int                  `json:"features_used,omitempty"`
	FeaturesAvailable   *int                  `json:"features_available,omitempty"`
	LoginCount30d       *int                  `json:"login_count_30d,omitempty"`
	LastLoginAt         *time.Time            `json:"last_login_at,omitempty"`
	SupportTickets30d   *int                  `json:"support_tickets_30d,omitempty"`
	NPSScore            *int                  `json:"nps_score,omitempty"`
	Meetings90d         *int                  `json:"meetings_90d,omitempty"`
	StakeholderCount    *int                  `json:"stakeholder_count,omitempty"`
	HasExecSponsor      bool                  `json:"has_exec_sponsor"`
	ContractStart       *time.Time            `json:"contract_start,omitempty"`
	RenewalDate         *time.Time            `json:"renewal_date,omitempty"`
	RiskSignals         []string              `json:"risk_signals,omitempty"`
	ExpansionSignals    []string              `json:"expansion_signals,omitempty"`
	ActivePlaybooks     []enums.PlaybookType  `json:"active_playbooks,omitempty"`
}

// Completeness records which optional signals were present when the
// snapshot was built.
type Completeness struct {
	Health       bool `json:"health"`
	Usage        bool `json:"usage"`
	Seats        bool `json:"seats"`
	Meetings     bool `json:"meetings"`
	Stakeholders bool `json:"stakeholders"`
	FeatureUsage bool `json:"feature_usage"`
	Logins       bool `json:"logins"`
	NPS          bool `json:"nps"`
	Renewal      bool `json:"renewal"`
	Tenure       bool `json:"tenure"`
}

// Ratio is the share of tracked signals that were present.
func (c Completeness) Ratio() float64 {
	flags := []bool{c.Health, c.Usage, c.Seats, c.Meetings, c.Stakeholders, c.FeatureUsage, c.Logins, c.NPS, c.Renewal, c.Tenure}
	present := 0
	for _, f := range flags {
		if f {
			present++
		}
	}
	return float64(present) / float64(len(flags))
}

// Snapshot is a fully defaulted customer context. Scorers read it without
// nil checks; Completeness tells them which values were defaulted.
type Snapshot struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Industry            string               `json:"industry"`
	Segment             string               `json:"segment"`
	Plan                string               `json:"plan"`
	Stage               enums.LifecycleStage `json:"lifecycle_stage"`
	ARR                 float64              `json:"arr"`
	HealthScore         float64              `json:"health_score"`
	HealthScoreChange   float64              `json:"health_score_change"`
	UsageCapacity       float64              `json:"usage_capacity"`
	UsageTrend          float64              `json:"usage_trend"`
	SeatCount           int                  `json:"seat_count"`
	SeatsUsed           int                  `json:"seats_used"`
	ActiveUsers         int                  `json:"active_users"`
	FeatureAdoptionRate float64              `json:"feature_adoption_rate"`
	FeaturesUsed        int                  `json:"features_used"`
	FeaturesAvailable   int                  `json:"features_available"`
	LoginCount30d       int                  `json:"login_count_30d"`
	DaysInactive        int                  `json:"days_inactive"`
	SupportTickets30d   int                  `json:"support_tickets_30d"`
	NPSScore            int                  `json:"nps_score"`
	Meetings90d         int                  `json:"meetings_90d"`
	StakeholderCount    int                  `json:"stakeholder_count"`
	HasExecSponsor      bool                 `json:"has_exec_sponsor"`
	DaysToRenewal       int                  `json:"days_to_renewal"`
	TenureMonths        int                  `json:"tenure_months"`
	RiskSignals         []string             `json:"risk_signals"`
	ExpansionSignals    []string             `json:"expansion_signals"`
	ActivePlaybooks     []enums.PlaybookType `json:"active_playbooks"`
	Completeness        Completeness         `json:"completeness"`
}

// NewSnapshot applies every default exactly once. now anchors the derived
// day counts.
func NewSnapshot(id string, attrs Attributes, now time.Time) Snapshot {
	s := Snapshot{
		ID:             id,
		Name:           attrs.Name,
		Industry:       lower(attrs.Industry),
		Segment:        lower(attrs.Segment),
		Plan:           lower(attrs.Plan),
		Stage:          enums.LifecycleStageActive,
		ARR:            math.Max(0, attrs.ARR),
		HealthScore:    defaultHealthScore,
		NPSScore:       defaultNPS,
		DaysToRenewal:  unknownRenewal,
		HasExecSponsor: attrs.HasExecSponsor,
	}
	if attrs.LifecycleStage != nil && attrs.LifecycleStage.IsValid() {
		s.Stage = *attrs.LifecycleStage
	}

	c := &s.Completeness
	if attrs.HealthScore != nil {
		s.HealthScore = clamp(*attrs.HealthScore, 0, 100)
		c.Health = true
	}
	s.HealthScoreChange = floatOr(attrs.HealthScoreChange, 0)
	if attrs.UsageCapacity != nil {
		s.UsageCapacity = math.Max(0, *attrs.UsageCapacity)
		c.Usage = true
	}
	s.UsageTrend = floatOr(attrs.UsageTrend, 0)
	if attrs.SeatCount != nil {
		s.SeatCount = max(0, *attrs.SeatCount)
		s.SeatsUsed = max(0, intOr(attrs.SeatsUsed, 0))
		c.Seats = s.SeatCount > 0
	}
	s.ActiveUsers = intOr(attrs.ActiveUsers, s.SeatsUsed)
	if attrs.FeatureAdoptionRate != nil {
		s.FeatureAdoptionRate = clamp(*attrs.FeatureAdoptionRate, 0, 100)
		c.FeatureUsage = true
	}
	s.FeaturesUsed = intOr(attrs.FeaturesUsed, 0)
	s.FeaturesAvailable = intOr(attrs.FeaturesAvailable, 0)
	if !c.FeatureUsage && s.FeaturesAvailable > 0 && attrs.FeaturesUsed != nil {
		s.FeatureAdoptionRate = clamp(float64(s.FeaturesUsed)/float64(s.FeaturesAvailable)*100, 0, 100)
		c.FeatureUsage = true
	}
	if attrs.LoginCount30d != nil {
		s.LoginCount30d = max(0, *attrs.LoginCount30d)
		c.Logins = true
	}
	if attrs.LastLoginAt != nil {
		s.DaysInactive = max(0, daysBetween(*attrs.LastLoginAt, now))
	}
	s.SupportTickets30d = max(0, intOr(attrs.SupportTickets30d, 0))
	if attrs.NPSScore != nil {
		s.NPSScore = min(10, max(0, *attrs.NPSScore))
		c.NPS = true
	}
	if attrs.Meetings90d != nil {
		s.Meetings90d = max(0, *attrs.Meetings90d)
		c.Meetings = true
	}
	if attrs.StakeholderCount != nil {
		s.StakeholderCount = max(0, *attrs.StakeholderCount)
		c.Stakeholders = true
	}
	if attrs.RenewalDate != nil {
		s.DaysToRenewal = daysBetween(now, *attrs.RenewalDate)
		c.Renewal = true
	}
	if attrs.ContractStart != nil {
		s.TenureMonths = max(0, daysBetween(*attrs.ContractStart, now)/30)
		c.Tenure = true
	}

	s.RiskSignals = normalizeSignals(attrs.RiskSignals)
	s.ExpansionSignals = normalizeSignals(attrs.ExpansionSignals)
	s.ActivePlaybooks = make([]enums.PlaybookType, 0, len(attrs.ActivePlaybooks))
	for _, p := range attrs.ActivePlaybooks {
		if p.IsValid() {
			s.ActivePlaybooks = append(s.ActivePlaybooks, p)
		}
	}
	return s
}

// SeatUtilization is seats used over seats purchased, 0 when unknown.
func (s Snapshot) SeatUtilization() float64 {
	if s.SeatCount <= 0 {
		return 0
	}
	return float64(s.SeatsUsed) / float64(s.SeatCount)
}

// HasActivePlaybook reports whether a playbook of the given type is running.
func (s Snapshot) HasActivePlaybook(t enums.PlaybookType) bool {
	for _, p := range s.ActivePlaybooks {
		if p == t {
			return true
		}
	}
	return false
}

// HasRiskSignal reports whether the signal is present, case-insensitively.
func (s Snapshot) HasRiskSignal(signal string) bool {
	return contains(s.RiskSignals, signal)
}

// AttributesFromModel converts a stored record into ingestion attributes.
func AttributesFromModel(m models.Customer) Attributes {
	arr, _ := m.ARR.Float64()
	attrs := Attributes{
		Name:                m.Name,
		Industry:            m.Industry,
		Segment:             m.Segment,
		Plan:                m.Plan,
		ARR:                 arr,
		HealthScore:         m.HealthScore,
		HealthScoreChange:   m.HealthScoreChange,
		UsageCapacity:       m.UsageCapacity,
		UsageTrend:          m.UsageTrend,
		SeatCount:           m.SeatCount,
		SeatsUsed:           m.SeatsUsed,
		ActiveUsers:         m.ActiveUsers,
		FeatureAdoptionRate: m.FeatureAdoptionRate,
		FeaturesUsed:        m.FeaturesUsed,
		FeaturesAvailable:   m.FeaturesAvailable,
		LoginCount30d:       m.LoginCount30d,
		LastLoginAt:         m.LastLoginAt,
		SupportTickets30d:   m.SupportTickets30d,
		NPSScore:            m.NPSScore,
		Meetings90d:         m.Meetings90d,
		StakeholderCount:    m.StakeholderCount,
		HasExecSponsor:      m.HasExecSponsor,
		ContractStart:       m.ContractStart,
		RenewalDate:         m.RenewalDate,
		RiskSignals:         m.RiskSignals,
		ExpansionSignals:    m.ExpansionSignals,
	}
	if stage, err := enums.ParseLifecycleStage(m.LifecycleStage); err == nil {
		attrs.LifecycleStage = &stage
	}
	for _, raw := range m.ActivePlaybooks {
		if p, err := enums.ParsePlaybookType(raw); err == nil {
			attrs.ActivePlaybooks = append(attrs.ActivePlaybooks, p)
		}
	}
	return attrs
}

func daysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

func normalizeSignals(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		v := strings.ToLower(strings.TrimSpace(raw))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func contains(list []string, v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func lower(v *string) string {
	if v == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*v))
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return fallback
	}
	return *v
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}
