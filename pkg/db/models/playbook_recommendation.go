package models

import (
	"time"

	dbtypes "github.com/angelmondragon/healthpulse-backend/pkg/db/types"
)

// PlaybookRecommendation persists a matcher result and its lifecycle status.
type PlaybookRecommendation struct {
	ID               string             `gorm:"column:id;primaryKey"`
	CustomerID       string             `gorm:"column:customer_id;not null;index:idx_playbook_recommendations_customer_status,priority:1"`
	PlaybookID       string             `gorm:"column:playbook_id;not null"`
	PlaybookType     string             `gorm:"column:playbook_type;not null"`
	FitScore         float64            `gorm:"column:fit_score;not null"`
	Reasoning        dbtypes.StringList `gorm:"column:reasoning;type:text;not null"`
	Alternatives     string             `gorm:"column:alternatives;type:text;not null"`
	TriggerType      string             `gorm:"column:trigger_type;not null"`
	TriggerEvent     *string            `gorm:"column:trigger_event"`
	Status           string             `gorm:"column:status;not null;index:idx_playbook_recommendations_customer_status,priority:2"`
	RequiresApproval bool               `gorm:"column:requires_approval;not null"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (PlaybookRecommendation) TableName() string { return "playbook_recommendations" }
