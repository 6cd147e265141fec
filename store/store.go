// Package store defines the collaborators the prediction pipeline reads from
// and writes to, with in-memory, gorm, pgx and file-backed implementations.
package store

import (
	"context"
	"errors"
	"time"

	"delay-prediction-api/models"
)

var ErrOrderNotFound = errors.New("order not found")

type RuleStore interface {
	ListActiveRules(ctx context.Context) ([]models.DelayRule, error)
}

type EventStore interface {
	ListEventsForOrder(ctx context.Context, orderID int64) ([]models.ProcessEvent, error)
}

// EventLog reads every recorded process event regardless of order.
type EventLog interface {
	ListEvents(ctx context.Context) ([]models.ProcessEvent, error)
}

type OrderStore interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	// GetOrder returns ErrOrderNotFound (possibly wrapped) for unknown ids.
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
}

type SnapshotStore interface {
	// FindLatest returns the snapshot with the newest CalculatedAt, or nil when
	// the order has none.
	FindLatest(ctx context.Context, orderID int64) (*models.PredictionSnapshot, error)
	// Supersede marks prev stale (when non-nil) and inserts next, assigning its
	// ID, in one atomic step. If the insert fails prev keeps its flag.
	Supersede(ctx context.Context, prev, next *models.PredictionSnapshot) error
}

// SnapshotCursor is a keyset position in newest-first snapshot order:
// (CalculatedAt DESC, ID DESC).
type SnapshotCursor struct {
	CalculatedAt time.Time
	ID           int64
}

// Precedes reports whether s sorts strictly after the cursor position, i.e.
// belongs on a later page. A zero ID matches on time alone.
func (c SnapshotCursor) Precedes(s models.PredictionSnapshot) bool {
	if !s.CalculatedAt.Equal(c.CalculatedAt) {
		return s.CalculatedAt.Before(c.CalculatedAt)
	}
	return c.ID != 0 && s.ID < c.ID
}

// SnapshotHistory pages through an order's snapshots, newest first.
// When after is set only snapshots past that cursor are returned.
type SnapshotHistory interface {
	ListSnapshots(ctx context.Context, orderID int64, after *SnapshotCursor, limit int) ([]models.PredictionSnapshot, error)
}

// Store is everything the HTTP API needs from persistence.
type Store interface {
	RuleStore
	EventStore
	OrderStore
	SnapshotStore
	SnapshotHistory
}
