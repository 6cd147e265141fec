package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"delay-prediction-api/metrics"
	"delay-prediction-api/models"
	"delay-prediction-api/scoring"
	"delay-prediction-api/store"

	"github.com/rs/zerolog/log"
)

type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// SnapshotNotice is published on SnapshotChannel after every recorded prediction.
type SnapshotNotice struct {
	SnapshotID          int64            `json:"snapshotId"`
	OrderID             int64            `json:"orderId"`
	PredictedDelayHours float64          `json:"predictedDelayHours"`
	RiskLevel           models.RiskLevel `json:"riskLevel"`
	EventCount          int              `json:"eventCount"`
	TopContributorCode  string           `json:"topContributorCode"`
	CalculatedAt        time.Time        `json:"calculatedAt"`
}

// SnapshotManager keeps exactly one fresh snapshot per order by marking the
// previous latest stale in the same store write that inserts the new one.
//
// Without WithSerializedWrites two overlapping calls for the same order may
// both read the same latest snapshot and leave two fresh rows behind.
type SnapshotManager struct {
	store     store.SnapshotStore
	publisher Publisher
	locks     *orderLocks
	now       func() time.Time
}

type SnapshotOption func(*SnapshotManager)

// WithSerializedWrites makes the read-mark-insert sequence exclusive per order.
func WithSerializedWrites() SnapshotOption {
	return func(m *SnapshotManager) {
		m.locks = &orderLocks{locks: make(map[int64]*orderLock)}
	}
}

func WithPublisher(p Publisher) SnapshotOption {
	return func(m *SnapshotManager) {
		m.publisher = p
	}
}

func WithClock(now func() time.Time) SnapshotOption {
	return func(m *SnapshotManager) {
		m.now = now
	}
}

func NewSnapshotManager(st store.SnapshotStore, opts ...SnapshotOption) *SnapshotManager {
	m := &SnapshotManager{store: st, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SnapshotManager) Serialized() bool {
	return m.locks != nil
}

// RecordPrediction supersedes the order's latest snapshot and stores a new one.
func (m *SnapshotManager) RecordPrediction(ctx context.Context, orderID int64, scored []scoring.ScoredEvent, total float64, risk models.RiskLevel) (*models.PredictionSnapshot, error) {
	if m.locks != nil {
		unlock := m.locks.lock(orderID)
		defer unlock()
	}

	prev, err := m.store.FindLatest(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("find latest snapshot: %w", err)
	}

	explanation, ok := scoring.ExplanationJSON(scored, total)
	if !ok {
		metrics.ExplanationFallbacks.Inc()
	}

	snap := &models.PredictionSnapshot{
		OrderID:             orderID,
		PredictedDelayHours: total,
		RiskLevel:           risk,
		EventCount:          len(scored),
		TopContributorCode:  scoring.TopContributor(scored),
		ExplanationJSON:     explanation,
		CalculatedAt:        m.now().UTC(),
		IsStale:             false,
	}
	// latest is read outside the write: unserialized overlapping calls may both supersede it
	if err := m.store.Supersede(ctx, prev, snap); err != nil {
		return nil, fmt.Errorf("record snapshot: %w", err)
	}
	if prev != nil {
		metrics.SnapshotsMarkedStale.Inc()
	}
	metrics.SnapshotsRecorded.Inc()

	m.publish(ctx, snap)
	return snap, nil
}

func (m *SnapshotManager) publish(ctx context.Context, snap *models.PredictionSnapshot) {
	if m.publisher == nil {
		return
	}
	notice := SnapshotNotice{
		SnapshotID:          snap.ID,
		OrderID:             snap.OrderID,
		PredictedDelayHours: snap.PredictedDelayHours,
		RiskLevel:           snap.RiskLevel,
		EventCount:          snap.EventCount,
		TopContributorCode:  snap.TopContributorCode,
		CalculatedAt:        snap.CalculatedAt,
	}
	if err := m.publisher.Publish(ctx, SnapshotChannel, notice); err != nil {
		metrics.SnapshotPublishFailures.Inc()
		log.Warn().Err(err).Int64("order_id", snap.OrderID).Msg("snapshot publish failed")
	}
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

// orderLocks hands out one mutex per order id and drops it once unused.
type orderLocks struct {
	mu    sync.Mutex
	locks map[int64]*orderLock
}

func (l *orderLocks) lock(orderID int64) func() {
	l.mu.Lock()
	ol, ok := l.locks[orderID]
	if !ok {
		ol = &orderLock{}
		l.locks[orderID] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.mu.Lock()
	return func() {
		ol.mu.Unlock()
		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.locks, orderID)
		}
		l.mu.Unlock()
	}
}
