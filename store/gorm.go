package store

import (
	"context"
	"errors"
	"fmt"

	"delay-prediction-api/models"

	"gorm.io/gorm"
)

// Gorm is the Store used by the HTTP API.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) ListActiveRules(ctx context.Context) ([]models.DelayRule, error) {
	var rules []models.DelayRule
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("delay_rule_id").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	return rules, nil
}

func (s *Gorm) ListEventsForOrder(ctx context.Context, orderID int64) ([]models.ProcessEvent, error) {
	var events []models.ProcessEvent
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("process_event_id").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list events for order %d: %w", orderID, err)
	}
	return events, nil
}

func (s *Gorm) ListEvents(ctx context.Context) ([]models.ProcessEvent, error) {
	var events []models.ProcessEvent
	if err := s.db.WithContext(ctx).Order("process_event_id").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *Gorm) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).Order("order_id").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *Gorm) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).First(&order, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	return &order, nil
}

func (s *Gorm) FindLatest(ctx context.Context, orderID int64) (*models.PredictionSnapshot, error) {
	var rows []models.PredictionSnapshot
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("calculated_at DESC").
		Order("prediction_snapshot_id DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find latest snapshot for order %d: %w", orderID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Supersede runs the stale update and the insert in one transaction.
func (s *Gorm) Supersede(ctx context.Context, prev, next *models.PredictionSnapshot) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if prev != nil {
			if err := tx.Model(&models.PredictionSnapshot{ID: prev.ID}).Update("is_stale", true).Error; err != nil {
				return fmt.Errorf("mark snapshot %d stale: %w", prev.ID, err)
			}
		}
		if err := tx.Create(next).Error; err != nil {
			return fmt.Errorf("insert snapshot for order %d: %w", next.OrderID, err)
		}
		return nil
	})
	if err != nil {
		next.ID = 0
		return err
	}
	if prev != nil {
		prev.IsStale = true
	}
	return nil
}

func (s *Gorm) ListSnapshots(ctx context.Context, orderID int64, after *SnapshotCursor, limit int) ([]models.PredictionSnapshot, error) {
	query := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("calculated_at DESC").
		Order("prediction_snapshot_id DESC").
		Limit(limit)
	switch {
	case after == nil:
	case after.ID == 0:
		query = query.Where("calculated_at < ?", after.CalculatedAt)
	default:
		query = query.Where("calculated_at < ? OR (calculated_at = ? AND prediction_snapshot_id < ?)",
			after.CalculatedAt, after.CalculatedAt, after.ID)
	}

	var rows []models.PredictionSnapshot
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list snapshots for order %d: %w", orderID, err)
	}
	return rows, nil
}
