package models

import "time"

// Playbook overrides or extends the built-in playbook library. Criteria is
// stored as a JSON document.
type Playbook struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Type         string    `gorm:"column:type;not null"`
	Description  *string   `gorm:"column:description"`
	Criteria     string    `gorm:"column:criteria;type:text;not null"`
	DurationDays int       `gorm:"column:duration_days;not null"`
	StepCount    int       `gorm:"column:step_count;not null"`
	SuccessRate  *float64  `gorm:"column:success_rate"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Playbook) TableName() string { return "playbooks" }
