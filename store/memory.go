package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"delay-prediction-api/models"
)

// Memory is a thread-safe in-memory Store. Reads return copies.
type Memory struct {
	mu        sync.RWMutex
	orders    map[int64]models.Order
	rules     []models.DelayRule
	events    []models.ProcessEvent
	snapshots []models.PredictionSnapshot
	nextSnap  int64
	nextEvent int64
}

func NewMemory() *Memory {
	return &Memory{orders: make(map[int64]models.Order)}
}

func (m *Memory) AddOrder(o models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

func (m *Memory) AddRule(r models.DelayRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, r)
}

// AddEvent stores ev, assigning an ID when it has none.
func (m *Memory) AddEvent(ev models.ProcessEvent) models.ProcessEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.ID == 0 {
		m.nextEvent++
		ev.ID = m.nextEvent
	} else if ev.ID > m.nextEvent {
		m.nextEvent = ev.ID
	}
	m.events = append(m.events, ev)
	return ev
}

func (m *Memory) InsertEvent(_ context.Context, ev *models.ProcessEvent) error {
	*ev = m.AddEvent(*ev)
	return nil
}

func (m *Memory) ListActiveRules(_ context.Context) ([]models.DelayRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.DelayRule
	for _, r := range m.rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) ListEventsForOrder(_ context.Context, orderID int64) ([]models.ProcessEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ProcessEvent
	for _, ev := range m.events {
		if ev.OrderID == orderID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *Memory) ListEvents(_ context.Context) ([]models.ProcessEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ProcessEvent(nil), m.events...), nil
}

func (m *Memory) ListOrders(_ context.Context) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetOrder(_ context.Context, orderID int64) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrOrderNotFound)
	}
	return &o, nil
}

func (m *Memory) FindLatest(_ context.Context, orderID int64) (*models.PredictionSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.PredictionSnapshot
	for i := range m.snapshots {
		s := m.snapshots[i]
		if s.OrderID != orderID {
			continue
		}
		if latest == nil || newer(s, *latest) {
			cp := s
			latest = &cp
		}
	}
	return latest, nil
}

// Save inserts a snapshot with a zero ID or replaces the stored one. It is
// used to seed fixtures.
func (m *Memory) Save(_ context.Context, snap *models.PredictionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.ID == 0 {
		m.nextSnap++
		snap.ID = m.nextSnap
		m.snapshots = append(m.snapshots, *snap)
		return nil
	}
	for i := range m.snapshots {
		if m.snapshots[i].ID == snap.ID {
			m.snapshots[i] = *snap
			return nil
		}
	}
	return fmt.Errorf("snapshot %d does not exist", snap.ID)
}

// Supersede applies both writes under one lock; nothing changes when either
// snapshot is invalid.
func (m *Memory) Supersede(_ context.Context, prev, next *models.PredictionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if next.ID != 0 {
		return fmt.Errorf("snapshot %d is already stored", next.ID)
	}
	prevIdx := -1
	if prev != nil {
		for i := range m.snapshots {
			if m.snapshots[i].ID == prev.ID {
				prevIdx = i
				break
			}
		}
		if prevIdx < 0 {
			return fmt.Errorf("snapshot %d does not exist", prev.ID)
		}
	}

	if prevIdx >= 0 {
		m.snapshots[prevIdx].IsStale = true
		prev.IsStale = true
	}
	m.nextSnap++
	next.ID = m.nextSnap
	m.snapshots = append(m.snapshots, *next)
	return nil
}

func (m *Memory) ListSnapshots(_ context.Context, orderID int64, after *SnapshotCursor, limit int) ([]models.PredictionSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.PredictionSnapshot
	for _, s := range m.snapshots {
		if s.OrderID != orderID {
			continue
		}
		if after != nil && !after.Precedes(s) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Snapshots returns every stored snapshot for orderID in insertion order.
func (m *Memory) Snapshots(orderID int64) []models.PredictionSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.PredictionSnapshot
	for _, s := range m.snapshots {
		if s.OrderID == orderID {
			out = append(out, s)
		}
	}
	return out
}

func newer(a, b models.PredictionSnapshot) bool {
	if !a.CalculatedAt.Equal(b.CalculatedAt) {
		return a.CalculatedAt.After(b.CalculatedAt)
	}
	return a.ID > b.ID
}
