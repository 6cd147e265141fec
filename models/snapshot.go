package models

import (
	"time"

	"gorm.io/datatypes"
)

// PredictionSnapshot is one persisted pipeline result. Rows are append-only;
// only IsStale changes after insert.
type PredictionSnapshot struct {
	ID                  int64          `gorm:"column:prediction_snapshot_id;primaryKey" json:"prediction_snapshot_id"`
	OrderID             int64          `gorm:"column:order_id;index" json:"order_id"`
	PredictedDelayHours float64        `gorm:"column:predicted_delay_hours" json:"predicted_delay_hours"`
	RiskLevel           RiskLevel      `gorm:"column:risk_level" json:"risk_level"`
	EventCount          int            `gorm:"column:event_count" json:"event_count"`
	TopContributorCode  string         `gorm:"column:top_contributor_code" json:"top_contributor_code"`
	ExplanationJSON     datatypes.JSON `gorm:"column:explanation_json;type:jsonb" json:"explanation_json"`
	CalculatedAt        time.Time      `gorm:"column:calculated_at" json:"calculated_at"`
	IsStale             bool           `gorm:"column:is_stale" json:"is_stale"`
}

func (PredictionSnapshot) TableName() string { return "prediction_snapshots" }
