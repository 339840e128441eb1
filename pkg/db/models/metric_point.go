package models

import "time"

// MetricPoint is one raw observation of a customer metric.
type MetricPoint struct {
	ID         string    `gorm:"column:id;primaryKey"`
	CustomerID string    `gorm:"column:customer_id;not null;index:idx_metric_points_customer_metric_date,priority:1"`
	Metric     string    `gorm:"column:metric;not null;index:idx_metric_points_customer_metric_date,priority:2"`
	RecordedOn time.Time `gorm:"column:recorded_on;not null;index:idx_metric_points_customer_metric_date,priority:3"`
	Value      float64   `gorm:"column:value;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (MetricPoint) TableName() string { return "metric_points" }
