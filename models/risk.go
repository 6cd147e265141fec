package models

import "fmt"

// RiskLevel is the closed set of delay risk tiers, ordered LOW < MEDIUM < HIGH < CRITICAL.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevels lists every tier in ascending order.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

var riskLabels = map[RiskLevel]string{
	RiskLow:      "Low",
	RiskMedium:   "Medium",
	RiskHigh:     "High",
	RiskCritical: "Critical",
}

// Label returns the human-readable name used in summaries.
func (r RiskLevel) Label() string {
	if l, ok := riskLabels[r]; ok {
		return l
	}
	return string(r)
}

func (r RiskLevel) Valid() bool {
	_, ok := riskLabels[r]
	return ok
}

func ParseRiskLevel(s string) (RiskLevel, error) {
	r := RiskLevel(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown risk level %q", s)
	}
	return r, nil
}
