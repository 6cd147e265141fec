package services

import (
	"context"
	"fmt"
	"time"

	"delay-prediction-api/metrics"
	"delay-prediction-api/models"
	"delay-prediction-api/scoring"
	"delay-prediction-api/store"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

type PredictionResponse struct {
	OrderID             int64                  `json:"orderId"`
	PredictedDelayHours float64                `json:"predictedDelayHours"`
	RiskLevel           models.RiskLevel       `json:"riskLevel"`
	EventCount          int                    `json:"eventCount"`
	TopContributorCode  string                 `json:"topContributorCode"`
	CalculatedAt        time.Time              `json:"calculatedAt"`
	ProcessBreakdown    []scoring.ProcessTotal `json:"processBreakdown"`
	EventDetails        []scoring.ScoredEvent  `json:"eventDetails"`
	ExplanationSummary  string                 `json:"explanationSummary"`
}

type OrderRisk struct {
	OrderID             int64            `json:"orderId"`
	PredictedDelayHours float64          `json:"predictedDelayHours"`
	RiskLevel           models.RiskLevel `json:"riskLevel"`
	EventCount          int              `json:"eventCount"`
	TopContributorCode  string           `json:"topContributorCode"`
}

// RiskDistribution counts orders per tier. All four tiers are always present.
type RiskDistribution struct {
	Low      int `json:"LOW"`
	Medium   int `json:"MEDIUM"`
	High     int `json:"HIGH"`
	Critical int `json:"CRITICAL"`
}

func (d *RiskDistribution) add(r models.RiskLevel) {
	switch r {
	case models.RiskLow:
		d.Low++
	case models.RiskMedium:
		d.Medium++
	case models.RiskHigh:
		d.High++
	case models.RiskCritical:
		d.Critical++
	}
}

func (d RiskDistribution) Count(r models.RiskLevel) int {
	switch r {
	case models.RiskLow:
		return d.Low
	case models.RiskMedium:
		return d.Medium
	case models.RiskHigh:
		return d.High
	case models.RiskCritical:
		return d.Critical
	}
	return 0
}

type OverviewResponse struct {
	Orders           []OrderRisk      `json:"orders"`
	TotalOrders      int              `json:"totalOrders"`
	RiskDistribution RiskDistribution `json:"riskDistribution"`
	MaxDelayHours    float64          `json:"maxDelayHours"`
	AvgDelayHours    float64          `json:"avgDelayHours"`
}

// PredictionService runs the delay pipeline: score, aggregate, classify,
// record a snapshot and explain.
type PredictionService struct {
	rules     store.RuleStore
	events    store.EventStore
	orders    store.OrderStore
	snapshots *SnapshotManager
}

func NewPredictionService(rules store.RuleStore, events store.EventStore, orders store.OrderStore, snapshots *SnapshotManager) *PredictionService {
	return &PredictionService{rules: rules, events: events, orders: orders, snapshots: snapshots}
}

// PredictForOrder computes and records a fresh prediction for one order.
// Unknown orders yield an error wrapping store.ErrOrderNotFound.
func (s *PredictionService) PredictForOrder(ctx context.Context, orderID int64) (*PredictionResponse, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	resp, err := s.predict(ctx, orderID)
	if err != nil {
		metrics.PredictionsFailed.Inc()
		return nil, err
	}
	metrics.PredictionsComputed.Inc()
	return resp, nil
}

func (s *PredictionService) predict(ctx context.Context, orderID int64) (*PredictionResponse, error) {
	if _, err := s.orders.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}

	events, err := s.events.ListEventsForOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load events for order %d: %w", orderID, err)
	}
	scored, err := s.score(ctx, events)
	if err != nil {
		return nil, fmt.Errorf("score order %d: %w", orderID, err)
	}

	total := scoring.Aggregate(scored)
	risk := scoring.Classify(total)

	snap, err := s.snapshots.RecordPrediction(ctx, orderID, scored, total, risk)
	if err != nil {
		return nil, fmt.Errorf("record prediction for order %d: %w", orderID, err)
	}

	log.Debug().
		Int64("order_id", orderID).
		Float64("predicted_delay_hours", total).
		Str("risk_level", string(risk)).
		Int("event_count", len(scored)).
		Msg("prediction recorded")

	return &PredictionResponse{
		OrderID:             orderID,
		PredictedDelayHours: total,
		RiskLevel:           risk,
		EventCount:          len(scored),
		TopContributorCode:  snap.TopContributorCode,
		CalculatedAt:        snap.CalculatedAt,
		ProcessBreakdown:    scoring.ProcessTotals(scored),
		EventDetails:        scored,
		ExplanationSummary:  scoring.Summary(scored, total),
	}, nil
}

// score builds a fresh rule lookup and scores events against it.
func (s *PredictionService) score(ctx context.Context, events []models.ProcessEvent) ([]scoring.ScoredEvent, error) {
	rules, err := s.rules.ListActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active rules: %w", err)
	}
	lookup, err := scoring.CompileRules(rules)
	if err != nil {
		return nil, err
	}
	if bad := lookup.Malformed(); len(bad) > 0 {
		metrics.MalformedWeightTables.Add(float64(len(bad)))
	}

	scored := scoring.ScoreAll(events, lookup)
	if dropped := len(events) - len(scored); dropped > 0 {
		metrics.EventsWithoutRule.Add(float64(dropped))
	}
	return scored, nil
}

// GetOverview predicts every active order, recording a snapshot for each.
// A failure on any order fails the whole overview.
func (s *PredictionService) GetOverview(ctx context.Context) (*OverviewResponse, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	resp := &OverviewResponse{Orders: make([]OrderRisk, 0, len(orders))}
	delays := make([]float64, 0, len(orders))
	for _, o := range orders {
		if !o.IsActive() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := s.PredictForOrder(ctx, o.ID)
		if err != nil {
			return nil, fmt.Errorf("overview: %w", err)
		}
		resp.Orders = append(resp.Orders, OrderRisk{
			OrderID:             p.OrderID,
			PredictedDelayHours: p.PredictedDelayHours,
			RiskLevel:           p.RiskLevel,
			EventCount:          p.EventCount,
			TopContributorCode:  p.TopContributorCode,
		})
		resp.RiskDistribution.add(p.RiskLevel)
		delays = append(delays, p.PredictedDelayHours)
	}

	resp.TotalOrders = len(resp.Orders)
	if len(delays) > 0 {
		resp.MaxDelayHours = floats.Max(delays)
		resp.AvgDelayHours = scoring.Round2(floats.Sum(delays) / float64(len(delays)))
	}
	return resp, nil
}

// GetTotalPredictedDelay sums the aggregated delay of every active order
// that has events. It records no snapshots.
func (s *PredictionService) GetTotalPredictedDelay(ctx context.Context) (float64, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return 0, fmt.Errorf("list orders: %w", err)
	}

	total := 0.0
	for _, o := range orders {
		if !o.IsActive() {
			continue
		}
		events, err := s.events.ListEventsForOrder(ctx, o.ID)
		if err != nil {
			return 0, fmt.Errorf("load events for order %d: %w", o.ID, err)
		}
		if len(events) == 0 {
			continue
		}
		scored, err := s.score(ctx, events)
		if err != nil {
			return 0, fmt.Errorf("score order %d: %w", o.ID, err)
		}
		total += scoring.Aggregate(scored)
	}
	return total, nil
}
