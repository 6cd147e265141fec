package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"delay-prediction-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOrders(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.AddOrder(models.Order{ID: 2, Status: "IN_PROGRESS"})
	m.AddOrder(models.Order{ID: 1, Status: models.OrderCompleted})

	orders, err := m.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(1), orders[0].ID)

	_, err = m.GetOrder(ctx, 99)
	assert.True(t, errors.Is(err, ErrOrderNotFound))
}

func TestMemoryRulesAndEvents(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.AddRule(models.DelayRule{ID: 1, EventCode: "A", IsActive: true})
	m.AddRule(models.DelayRule{ID: 2, EventCode: "B"})
	first := m.AddEvent(models.ProcessEvent{OrderID: 7, EventCode: "A"})
	m.AddEvent(models.ProcessEvent{OrderID: 8, EventCode: "A"})

	rules, err := m.ListActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "A", rules[0].EventCode)

	events, err := m.ListEventsForOrder(ctx, 7)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, first.ID, events[0].ID)
	assert.NotZero(t, first.ID)
}

func TestMemorySnapshots(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	latest, err := m.FindLatest(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, latest)

	for i := 0; i < 3; i++ {
		snap := &models.PredictionSnapshot{OrderID: 1, CalculatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, m.Save(ctx, snap))
		assert.Equal(t, int64(i+1), snap.ID)
	}
	require.NoError(t, m.Save(ctx, &models.PredictionSnapshot{OrderID: 2, CalculatedAt: base.Add(5 * time.Hour)}))

	latest, err = m.FindLatest(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(3), latest.ID)

	latest.IsStale = true
	require.NoError(t, m.Save(ctx, latest))
	assert.True(t, m.Snapshots(1)[2].IsStale)

	page, err := m.ListSnapshots(ctx, 1, &SnapshotCursor{CalculatedAt: base.Add(2 * time.Hour)}, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(2), page[0].ID)
	assert.Equal(t, int64(1), page[1].ID)

	page, err = m.ListSnapshots(ctx, 1, nil, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(3), page[0].ID)

	assert.Error(t, m.Save(ctx, &models.PredictionSnapshot{ID: 42}))
}

func TestMemorySupersede(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	first := &models.PredictionSnapshot{OrderID: 1, CalculatedAt: base}
	require.NoError(t, m.Supersede(ctx, nil, first))
	assert.Equal(t, int64(1), first.ID)

	second := &models.PredictionSnapshot{OrderID: 1, CalculatedAt: base.Add(time.Minute)}
	require.NoError(t, m.Supersede(ctx, first, second))
	assert.True(t, first.IsStale)

	snaps := m.Snapshots(1)
	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].IsStale)
	assert.False(t, snaps[1].IsStale)
}

func TestMemorySupersedeFailureChangesNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	prev := &models.PredictionSnapshot{OrderID: 1}
	require.NoError(t, m.Save(ctx, prev))

	// next already carries an ID, so the insert is refused
	err := m.Supersede(ctx, prev, &models.PredictionSnapshot{ID: 9, OrderID: 1})
	require.Error(t, err)
	assert.False(t, m.Snapshots(1)[0].IsStale)
	assert.False(t, prev.IsStale)

	err = m.Supersede(ctx, &models.PredictionSnapshot{ID: 42}, &models.PredictionSnapshot{OrderID: 1})
	require.Error(t, err)
	assert.Len(t, m.Snapshots(1), 1)
}

func TestMemoryListSnapshotsSharedTimestamp(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Save(ctx, &models.PredictionSnapshot{OrderID: 1, CalculatedAt: at}))
	}

	page, err := m.ListSnapshots(ctx, 1, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, []int64{3, 2}, []int64{page[0].ID, page[1].ID})

	rest, err := m.ListSnapshots(ctx, 1, &SnapshotCursor{CalculatedAt: at, ID: page[1].ID}, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, int64(1), rest[0].ID)
}
