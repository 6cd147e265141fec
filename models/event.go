package models

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventBreakdown EventType = "BREAKDOWN"
	EventDefect    EventType = "DEFECT"
)

func (t EventType) Valid() bool {
	return t == EventBreakdown || t == EventDefect
}

type EventSource string

const (
	SourceSensor   EventSource = "SENSOR"
	SourceVision   EventSource = "VISION"
	SourceOperator EventSource = "OPERATOR"
)

func (s EventSource) Valid() bool {
	switch s {
	case SourceSensor, SourceVision, SourceOperator:
		return true
	}
	return false
}

// ProcessEvent is a recorded disruption on a production process for an order.
// A nil Severity counts as 1 and a nil ResolvedAt means the event is still open.
type ProcessEvent struct {
	ID          int64       `gorm:"column:process_event_id;primaryKey" json:"process_event_id"`
	OrderID     int64       `gorm:"column:order_id;index" json:"order_id"`
	Process     string      `gorm:"column:process" json:"process"`
	EventType   EventType   `gorm:"column:event_type" json:"event_type"`
	EventCode   string      `gorm:"column:event_code" json:"event_code"`
	Severity    *int        `gorm:"column:severity" json:"severity"`
	DetectedAt  time.Time   `gorm:"column:detected_at" json:"detected_at"`
	ResolvedAt  *time.Time  `gorm:"column:resolved_at" json:"resolved_at"`
	QtyAffected int         `gorm:"column:qty_affected" json:"qty_affected"`
	LineHold    bool        `gorm:"column:line_hold" json:"line_hold"`
	Source      EventSource `gorm:"column:source" json:"source"`
}

func (ProcessEvent) TableName() string { return "process_events" }

func (e ProcessEvent) EffectiveSeverity() int {
	if e.Severity == nil {
		return 1
	}
	return *e.Severity
}

func (e ProcessEvent) Unresolved() bool {
	return e.ResolvedAt == nil
}

// Validate checks the fields ingest requires before an event can be stored.
func (e ProcessEvent) Validate() error {
	if e.OrderID <= 0 {
		return fmt.Errorf("order_id must be positive")
	}
	if e.Process == "" || e.EventCode == "" {
		return fmt.Errorf("process and event_code are required")
	}
	if !e.EventType.Valid() {
		return fmt.Errorf("unknown event_type %q", e.EventType)
	}
	if !e.Source.Valid() {
		return fmt.Errorf("unknown source %q", e.Source)
	}
	if e.QtyAffected < 0 {
		return fmt.Errorf("qty_affected must not be negative")
	}
	return nil
}
