package models

// DelayRule maps an event code to a base delay and its adjustment factors.
// SeverityWeights holds a JSON object keyed by severity, e.g. {"1":1.0,"3":1.8}.
type DelayRule struct {
	ID                   int64   `gorm:"column:delay_rule_id;primaryKey" json:"delay_rule_id"`
	EventCode            string  `gorm:"column:event_code;uniqueIndex" json:"event_code"`
	Process              string  `gorm:"column:process" json:"process"`
	BaseDelayHours       float64 `gorm:"column:base_delay_hours" json:"base_delay_hours"`
	DelayRangeMin        float64 `gorm:"column:delay_range_min" json:"delay_range_min"`
	DelayRangeMax        float64 `gorm:"column:delay_range_max" json:"delay_range_max"`
	SeverityWeights      string  `gorm:"column:severity_weights;type:text" json:"severity_weights"`
	LineHoldMultiplier   float64 `gorm:"column:line_hold_multiplier" json:"line_hold_multiplier"`
	UnresolvedMultiplier float64 `gorm:"column:unresolved_multiplier" json:"unresolved_multiplier"`
	QtyThreshold         int     `gorm:"column:qty_threshold" json:"qty_threshold"`
	QtyMultiplier        float64 `gorm:"column:qty_multiplier" json:"qty_multiplier"`
	IsActive             bool    `gorm:"column:is_active" json:"is_active"`
}

func (DelayRule) TableName() string { return "delay_rules" }
