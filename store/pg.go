package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"delay-prediction-api/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const queryTimeout = 5 * time.Second

// PgxPool is the subset of *pgxpool.Pool the store uses.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pg is the Store used by the background workers.
type Pg struct {
	pool PgxPool
}

func NewPg(pool PgxPool) *Pg {
	return &Pg{pool: pool}
}

func (s *Pg) ListActiveRules(ctx context.Context) ([]models.DelayRule, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT delay_rule_id, event_code, process, base_delay_hours, delay_range_min, delay_range_max,
		       COALESCE(severity_weights, ''), line_hold_multiplier, unresolved_multiplier,
		       qty_threshold, qty_multiplier, is_active
		FROM delay_rules
		WHERE is_active = true
		ORDER BY delay_rule_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query delay_rules: %w", err)
	}
	defer rows.Close()

	var rules []models.DelayRule
	for rows.Next() {
		var r models.DelayRule
		if err := rows.Scan(&r.ID, &r.EventCode, &r.Process, &r.BaseDelayHours, &r.DelayRangeMin, &r.DelayRangeMax,
			&r.SeverityWeights, &r.LineHoldMultiplier, &r.UnresolvedMultiplier,
			&r.QtyThreshold, &r.QtyMultiplier, &r.IsActive); err != nil {
			return nil, fmt.Errorf("scan delay rule: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delay_rules: %w", err)
	}
	return rules, nil
}

const eventColumns = `
	SELECT process_event_id, order_id, process, event_type, event_code, severity,
	       detected_at, resolved_at, qty_affected, line_hold, source
	FROM process_events`

func (s *Pg) ListEventsForOrder(ctx context.Context, orderID int64) ([]models.ProcessEvent, error) {
	return s.queryEvents(ctx, eventColumns+` WHERE order_id = $1 ORDER BY process_event_id`, orderID)
}

func (s *Pg) ListEvents(ctx context.Context) ([]models.ProcessEvent, error) {
	return s.queryEvents(ctx, eventColumns+` ORDER BY process_event_id`)
}

func (s *Pg) queryEvents(ctx context.Context, query string, args ...interface{}) ([]models.ProcessEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query process_events: %w", err)
	}
	defer rows.Close()

	var events []models.ProcessEvent
	for rows.Next() {
		var (
			ev                models.ProcessEvent
			eventType, source string
		)
		if err := rows.Scan(&ev.ID, &ev.OrderID, &ev.Process, &eventType, &ev.EventCode, &ev.Severity,
			&ev.DetectedAt, &ev.ResolvedAt, &ev.QtyAffected, &ev.LineHold, &source); err != nil {
			return nil, fmt.Errorf("scan process event: %w", err)
		}
		ev.EventType = models.EventType(eventType)
		ev.Source = models.EventSource(source)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate process_events: %w", err)
	}
	return events, nil
}

func (s *Pg) ListOrders(ctx context.Context) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT order_id, order_status FROM orders ORDER BY order_id`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var (
			o      models.Order
			status string
		)
		if err := rows.Scan(&o.ID, &status); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = models.OrderStatus(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (s *Pg) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		o      models.Order
		status string
	)
	err := s.pool.QueryRow(ctx, `SELECT order_id, order_status FROM orders WHERE order_id = $1`, orderID).
		Scan(&o.ID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	o.Status = models.OrderStatus(status)
	return &o, nil
}

func (s *Pg) FindLatest(ctx context.Context, orderID int64) (*models.PredictionSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		snap models.PredictionSnapshot
		risk string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT prediction_snapshot_id, order_id, predicted_delay_hours, risk_level, event_count,
		       top_contributor_code, explanation_json, calculated_at, is_stale
		FROM prediction_snapshots
		WHERE order_id = $1
		ORDER BY calculated_at DESC, prediction_snapshot_id DESC
		LIMIT 1
	`, orderID).Scan(&snap.ID, &snap.OrderID, &snap.PredictedDelayHours, &risk, &snap.EventCount,
		&snap.TopContributorCode, &snap.ExplanationJSON, &snap.CalculatedAt, &snap.IsStale)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest snapshot for order %d: %w", orderID, err)
	}
	snap.RiskLevel = models.RiskLevel(risk)
	return &snap, nil
}

// Supersede runs the stale update and the insert in one transaction.
func (s *Pg) Supersede(ctx context.Context, prev, next *models.PredictionSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	if err := supersedeTx(ctx, tx, prev, next); err != nil {
		_ = tx.Rollback(ctx)
		next.ID = 0
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		next.ID = 0
		return fmt.Errorf("commit snapshot for order %d: %w", next.OrderID, err)
	}
	if prev != nil {
		prev.IsStale = true
	}
	return nil
}

func supersedeTx(ctx context.Context, tx pgx.Tx, prev, next *models.PredictionSnapshot) error {
	if prev != nil {
		_, err := tx.Exec(ctx,
			`UPDATE prediction_snapshots SET is_stale = true WHERE prediction_snapshot_id = $1`, prev.ID)
		if err != nil {
			return fmt.Errorf("mark snapshot %d stale: %w", prev.ID, err)
		}
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO prediction_snapshots (order_id, predicted_delay_hours, risk_level, event_count,
			top_contributor_code, explanation_json, calculated_at, is_stale)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING prediction_snapshot_id
	`, next.OrderID, next.PredictedDelayHours, string(next.RiskLevel), next.EventCount,
		next.TopContributorCode, []byte(next.ExplanationJSON), next.CalculatedAt, next.IsStale).Scan(&next.ID)
	if err != nil {
		return fmt.Errorf("insert snapshot for order %d: %w", next.OrderID, err)
	}
	return nil
}

// InsertEvent stores an ingested process event and sets its ID.
func (s *Pg) InsertEvent(ctx context.Context, ev *models.ProcessEvent) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := s.pool.QueryRow(ctx, `
		INSERT INTO process_events (order_id, process, event_type, event_code, severity,
			detected_at, resolved_at, qty_affected, line_hold, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING process_event_id
	`, ev.OrderID, ev.Process, string(ev.EventType), ev.EventCode, ev.Severity,
		ev.DetectedAt, ev.ResolvedAt, ev.QtyAffected, ev.LineHold, string(ev.Source)).Scan(&ev.ID)
	if err != nil {
		return fmt.Errorf("insert process event: %w", err)
	}
	return nil
}
