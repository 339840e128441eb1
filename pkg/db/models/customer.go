package models

import (
	"time"

	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/healthpulse-backend/pkg/db/types"
)

// Customer is the stored account record scoring snapshots are built from.
// Nullable columns are signals that may not have been collected yet.
type Customer struct {
	ID                  string             `gorm:"column:id;primaryKey"`
	Name                string             `gorm:"column:name;not null"`
	Industry            *string            `gorm:"column:industry"`
	Segment             *string            `gorm:"column:segment"`
	Plan                *string            `gorm:"column:plan"`
	LifecycleStage      string             `gorm:"column:lifecycle_stage;not null;default:active"`
	ARR                 decimal.Decimal    `gorm:"column:arr;type:numeric(14,2);not null"`
	HealthScore         *float64           `gorm:"column:health_score"`
	HealthScoreChange   *float64           `gorm:"column:health_score_change"`
	UsageCapacity       *float64           `gorm:"column:usage_capacity"`
	UsageTrend          *float64           `gorm:"column:usage_trend"`
	SeatCount           *int               `gorm:"column:seat_count"`
	SeatsUsed           *int               `gorm:"column:seats_used"`
	ActiveUsers         *int               `gorm:"column:active_users"`
	FeatureAdoptionRate *float64           `gorm:"column:feature_adoption_rate"`
	FeaturesUsed        *int               `gorm:"column:features_used"`
	FeaturesAvailable   *int               `gorm:"column:features_available"`
	LoginCount30d       *int               `gorm:"column:login_count_30d"`
	LastLoginAt         *time.Time         `gorm:"column:last_login_at"`
	SupportTickets30d   *int               `gorm:"column:support_tickets_30d"`
	NPSScore            *int               `gorm:"column:nps_score"`
	Meetings90d         *int               `gorm:"column:meetings_90d"`
	StakeholderCount    *int               `gorm:"column:stakeholder_count"`
	HasExecSponsor      bool               `gorm:"column:has_exec_sponsor;not null;default:false"`
	ContractStart       *time.Time         `gorm:"column:contract_start"`
	RenewalDate         *time.Time         `gorm:"column:renewal_date"`
	RiskSignals         dbtypes.StringList `gorm:"column:risk_signals;type:text;not null"`
	ExpansionSignals    dbtypes.StringList `gorm:"column:expansion_signals;type:text;not null"`
	ActivePlaybooks     dbtypes.StringList `gorm:"column:active_playbooks;type:text;not null"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Customer) TableName() string { return "customers" }
