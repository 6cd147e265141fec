package main

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"delay-prediction-api/models"
	"delay-prediction-api/services"
	"delay-prediction-api/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubOverview struct {
	resp *services.OverviewResponse
	err  error
}

func (s stubOverview) GetOverview(context.Context) (*services.OverviewResponse, error) {
	return s.resp, s.err
}

func TestRunCycleUpdatesGauges(t *testing.T) {
	before := testutil.ToFloat64(cyclesCompleted)

	ok := runCycle(context.Background(), stubOverview{resp: &services.OverviewResponse{
		TotalOrders:      3,
		RiskDistribution: services.RiskDistribution{Low: 1, High: 2},
		MaxDelayHours:    30.5,
		AvgDelayHours:    20.1,
	}})
	if !ok {
		t.Fatal("runCycle() = false, want true")
	}

	if got := testutil.ToFloat64(cyclesCompleted) - before; got != 1 {
		t.Errorf("cycles completed delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ordersByRisk.WithLabelValues("HIGH")); got != 2 {
		t.Errorf("HIGH gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(ordersByRisk.WithLabelValues("CRITICAL")); got != 0 {
		t.Errorf("CRITICAL gauge = %v, want 0", got)
	}
	if got := testutil.ToFloat64(maxDelayHours); got != 30.5 {
		t.Errorf("max delay gauge = %v, want 30.5", got)
	}
}

func TestRunCycleFailure(t *testing.T) {
	before := testutil.ToFloat64(cyclesFailed)

	if runCycle(context.Background(), stubOverview{err: errors.New("db down")}) {
		t.Fatal("runCycle() = true, want false")
	}
	if got := testutil.ToFloat64(cyclesFailed) - before; got != 1 {
		t.Errorf("cycles failed delta = %v, want 1", got)
	}
}

func TestRunCycleRecordsSnapshots(t *testing.T) {
	m := store.NewMemory()
	m.AddRule(models.DelayRule{ID: 1, EventCode: "PAINT-RUN", Process: "PAINTING", BaseDelayHours: 6,
		LineHoldMultiplier: 1, UnresolvedMultiplier: 1, QtyMultiplier: 1, IsActive: true})
	m.AddOrder(models.Order{ID: 1, Status: "IN_PROGRESS"})
	m.AddOrder(models.Order{ID: 2, Status: models.OrderCompleted})
	m.AddEvent(models.ProcessEvent{OrderID: 1, Process: "PAINTING", EventCode: "PAINT-RUN", DetectedAt: time.Now()})
	svc := services.NewPredictionService(m, m, m, services.NewSnapshotManager(m))

	if !runCycle(context.Background(), svc) {
		t.Fatal("runCycle() = false, want true")
	}
	if !runCycle(context.Background(), svc) {
		t.Fatal("second runCycle() = false, want true")
	}

	snaps := m.Snapshots(1)
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if !snaps[0].IsStale || snaps[1].IsStale {
		t.Errorf("stale flags = %v,%v; want true,false", snaps[0].IsStale, snaps[1].IsStale)
	}
	if snaps[1].RiskLevel != models.RiskMedium {
		t.Errorf("risk = %s, want MEDIUM", snaps[1].RiskLevel)
	}
	if len(m.Snapshots(2)) != 0 {
		t.Error("completed order should not get snapshots")
	}
}

func TestGetEnv(t *testing.T) {
	os.Unsetenv("TEST_PREDICTOR_VAR")
	if got := getEnv("TEST_PREDICTOR_VAR", "fallback"); got != "fallback" {
		t.Errorf("getEnv() = %q, want %q", got, "fallback")
	}
	os.Setenv("TEST_PREDICTOR_VAR", "custom")
	defer os.Unsetenv("TEST_PREDICTOR_VAR")
	if got := getEnv("TEST_PREDICTOR_VAR", "fallback"); got != "custom" {
		t.Errorf("getEnv() = %q, want %q", got, "custom")
	}
}

func TestGetEnvInt(t *testing.T) {
	os.Unsetenv("TEST_INT_VAR")
	if got := getEnvInt("TEST_INT_VAR", 42); got != 42 {
		t.Errorf("getEnvInt() = %d, want %d", got, 42)
	}
	os.Setenv("TEST_INT_VAR", "100")
	defer os.Unsetenv("TEST_INT_VAR")
	if got := getEnvInt("TEST_INT_VAR", 42); got != 100 {
		t.Errorf("getEnvInt() = %d, want %d", got, 100)
	}
	os.Setenv("TEST_INT_VAR", "many")
	if got := getEnvInt("TEST_INT_VAR", 42); got != 42 {
		t.Errorf("getEnvInt() = %d, want fallback %d", got, 42)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"false", false},
		{"1", true},
		{"nope", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			os.Setenv("TEST_BOOL_VAR", tt.value)
			defer os.Unsetenv("TEST_BOOL_VAR")
			if got := getEnvBool("TEST_BOOL_VAR", true); got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
