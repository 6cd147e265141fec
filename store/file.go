package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"delay-prediction-api/models"

	"gopkg.in/yaml.v3"
)

// Dataset is the YAML document read by delayctl.
//
//	orders:
//	  - id: 1
//	    status: IN_PROGRESS
//	rules:
//	  - event_code: CUT-JAM
//	    process: CUTTING
//	    base_delay_hours: 2
//	    severity_weights: {"1": 1.0, "3": 1.5}
//	events:
//	  - order_id: 1
//	    event_code: CUT-JAM
//	    detected_at: 2025-01-01T08:00:00Z
type Dataset struct {
	Orders []orderDoc `yaml:"orders"`
	Rules  []ruleDoc  `yaml:"rules"`
	Events []eventDoc `yaml:"events"`
}

type orderDoc struct {
	ID     int64  `yaml:"id"`
	Status string `yaml:"status"`
}

type ruleDoc struct {
	ID                   int64              `yaml:"id"`
	EventCode            string             `yaml:"event_code"`
	Process              string             `yaml:"process"`
	BaseDelayHours       float64            `yaml:"base_delay_hours"`
	DelayRangeMin        float64            `yaml:"delay_range_min"`
	DelayRangeMax        float64            `yaml:"delay_range_max"`
	SeverityWeights      map[string]float64 `yaml:"severity_weights"`
	LineHoldMultiplier   *float64           `yaml:"line_hold_multiplier"`
	UnresolvedMultiplier *float64           `yaml:"unresolved_multiplier"`
	QtyThreshold         int                `yaml:"qty_threshold"`
	QtyMultiplier        *float64           `yaml:"qty_multiplier"`
	Active               *bool              `yaml:"active"`
}

type eventDoc struct {
	ID          int64      `yaml:"id"`
	OrderID     int64      `yaml:"order_id"`
	Process     string     `yaml:"process"`
	EventType   string     `yaml:"event_type"`
	EventCode   string     `yaml:"event_code"`
	Severity    *int       `yaml:"severity"`
	DetectedAt  time.Time  `yaml:"detected_at"`
	ResolvedAt  *time.Time `yaml:"resolved_at"`
	QtyAffected int        `yaml:"qty_affected"`
	LineHold    bool       `yaml:"line_hold"`
	Source      string     `yaml:"source"`
}

// ParseDataset decodes a YAML dataset. Unset multipliers default to 1 and
// rules are active unless stated otherwise.
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &ds, nil
}

// LoadFile reads a YAML dataset into a fresh Memory store.
func LoadFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	ds, err := ParseDataset(data)
	if err != nil {
		return nil, err
	}
	return ds.Memory()
}

// DelayRules converts the rule documents into models.
func (ds *Dataset) DelayRules() ([]models.DelayRule, error) {
	rules := make([]models.DelayRule, 0, len(ds.Rules))
	for i, r := range ds.Rules {
		weights := ""
		if len(r.SeverityWeights) > 0 {
			b, err := json.Marshal(r.SeverityWeights)
			if err != nil {
				return nil, fmt.Errorf("rule %s: encode severity weights: %w", r.EventCode, err)
			}
			weights = string(b)
		}
		id := r.ID
		if id == 0 {
			id = int64(i + 1)
		}
		rules = append(rules, models.DelayRule{
			ID:                   id,
			EventCode:            r.EventCode,
			Process:              r.Process,
			BaseDelayHours:       r.BaseDelayHours,
			DelayRangeMin:        r.DelayRangeMin,
			DelayRangeMax:        r.DelayRangeMax,
			SeverityWeights:      weights,
			LineHoldMultiplier:   orOne(r.LineHoldMultiplier),
			UnresolvedMultiplier: orOne(r.UnresolvedMultiplier),
			QtyThreshold:         r.QtyThreshold,
			QtyMultiplier:        orOne(r.QtyMultiplier),
			IsActive:             r.Active == nil || *r.Active,
		})
	}
	return rules, nil
}

// Memory loads the dataset into a new in-memory store.
func (ds *Dataset) Memory() (*Memory, error) {
	rules, err := ds.DelayRules()
	if err != nil {
		return nil, err
	}

	m := NewMemory()
	for _, o := range ds.Orders {
		m.AddOrder(models.Order{ID: o.ID, Status: models.OrderStatus(o.Status)})
	}
	for _, r := range rules {
		m.AddRule(r)
	}
	for _, e := range ds.Events {
		m.AddEvent(models.ProcessEvent{
			ID:          e.ID,
			OrderID:     e.OrderID,
			Process:     e.Process,
			EventType:   models.EventType(e.EventType),
			EventCode:   e.EventCode,
			Severity:    e.Severity,
			DetectedAt:  e.DetectedAt,
			ResolvedAt:  e.ResolvedAt,
			QtyAffected: e.QtyAffected,
			LineHold:    e.LineHold,
			Source:      models.EventSource(e.Source),
		})
	}
	return m, nil
}

func orOne(v *float64) float64 {
	if v == nil {
		return 1
	}
	return *v
}
