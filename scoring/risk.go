package scoring

import "delay-prediction-api/models"

// Tier boundaries in hours; each is the inclusive lower bound of the next tier.
const (
	mediumThreshold   = 4.0
	highThreshold     = 12.0
	criticalThreshold = 48.0
)

func Classify(hours float64) models.RiskLevel {
	switch {
	case hours < mediumThreshold:
		return models.RiskLow
	case hours < highThreshold:
		return models.RiskMedium
	case hours < criticalThreshold:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}
