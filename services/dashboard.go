package services

import (
	"context"
	"math"
	"time"

	"delay-prediction-api/metrics"
	"delay-prediction-api/models"
	"delay-prediction-api/scoring"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

const (
	lastTotalKey = "delayrisk:dashboard:last_total"

	SourcePrediction = "prediction"
	SourceFallback   = "fallback"
)

// Efficiency KPIs start from these bases and lose points per event or
// predicted hour.
const (
	BaseOverallEfficiency    = 95.0
	BaseProductionEfficiency = 98.0

	lineHoldPenalty       = 3.0
	unresolvedPenalty     = 1.5
	highSeverityPenalty   = 1.0
	delayEfficiencyFactor = 0.5

	anomalySeverity = 2
)

type TotalDelaySource interface {
	GetTotalPredictedDelay(ctx context.Context) (float64, error)
}

type EventLister interface {
	ListEvents(ctx context.Context) ([]models.ProcessEvent, error)
}

type ValueCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type DashboardSummary struct {
	TotalDelayHours      float64           `json:"totalDelayHours"`
	OverallRiskLevel     *models.RiskLevel `json:"overallRiskLevel"`
	TotalAnomalies       int               `json:"totalAnomalies"`
	TotalWarnings        int               `json:"totalWarnings"`
	OverallEfficiency    float64           `json:"overallEfficiency"`
	ProductionEfficiency float64           `json:"productionEfficiency"`
	Source               string            `json:"source"`
	CalculatedAt         time.Time         `json:"calculatedAt"`
}

// eventKPIs are the counts the efficiency figures are derived from.
type eventKPIs struct {
	anomalies, warnings   int
	lineHolds, unresolved int
}

func countEvents(events []models.ProcessEvent) eventKPIs {
	var k eventKPIs
	for _, ev := range events {
		if ev.Severity != nil && *ev.Severity >= anomalySeverity {
			k.anomalies++
		} else {
			k.warnings++
		}
		if ev.LineHold {
			k.lineHolds++
		}
		if ev.Unresolved() {
			k.unresolved++
		}
	}
	return k
}

func round1(v float64) float64 {
	return math.Max(0, math.Round(v*10)/10)
}

// DashboardService serves the fleet delay KPI and the event-derived
// efficiency figures. Pipeline failures never reach the caller: the last
// known good total is served and both efficiencies revert to their bases.
type DashboardService struct {
	source  TotalDelaySource
	events  EventLister
	cache   ValueCache
	breaker *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewDashboardService(source TotalDelaySource, events EventLister, cache ValueCache, openTimeout time.Duration) *DashboardService {
	st := gobreaker.Settings{
		Name:     "dashboard-total-delay",
		Interval: 60 * time.Second,
		Timeout:  openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &DashboardService{
		source:  source,
		events:  events,
		cache:   cache,
		breaker: gobreaker.NewCircuitBreaker(st),
		now:     time.Now,
	}
}

func (d *DashboardService) Summary(ctx context.Context) DashboardSummary {
	now := d.now().UTC()
	summary := DashboardSummary{
		OverallEfficiency:    BaseOverallEfficiency,
		ProductionEfficiency: BaseProductionEfficiency,
		CalculatedAt:         now,
	}

	events, eventsErr := d.events.ListEvents(ctx)
	if eventsErr != nil {
		log.Warn().Err(eventsErr).Msg("listing events for dashboard failed")
	}
	kpis := countEvents(events)
	summary.TotalAnomalies, summary.TotalWarnings = kpis.anomalies, kpis.warnings

	v, err := d.breaker.Execute(func() (interface{}, error) {
		return d.source.GetTotalPredictedDelay(ctx)
	})
	if err != nil {
		metrics.DashboardFallbacks.Inc()
		log.Warn().Err(err).Msg("predicted total unavailable, serving last known value")

		var last float64
		if cerr := d.cache.Get(ctx, lastTotalKey, &last); cerr != nil {
			last = 0
		}
		summary.TotalDelayHours, summary.Source = last, SourceFallback
		return summary
	}

	total := scoring.Round2(v.(float64))
	if cerr := d.cache.Set(ctx, lastTotalKey, total, 0); cerr != nil {
		log.Warn().Err(cerr).Msg("caching dashboard total failed")
	}
	summary.TotalDelayHours, summary.Source = total, SourcePrediction
	if total > 0 {
		risk := scoring.Classify(total)
		summary.OverallRiskLevel = &risk
	}
	if eventsErr != nil {
		return summary
	}

	production := BaseProductionEfficiency
	if len(events) > 0 {
		summary.OverallEfficiency = round1(BaseOverallEfficiency -
			float64(kpis.lineHolds)*lineHoldPenalty -
			float64(kpis.unresolved)*unresolvedPenalty)
		production -= float64(kpis.anomalies) * highSeverityPenalty
	}
	if total > 0 {
		production -= total * delayEfficiencyFactor
	}
	summary.ProductionEfficiency = round1(production)
	return summary
}
