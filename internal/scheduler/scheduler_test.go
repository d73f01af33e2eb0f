package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/marketpulse/engine/internal/indicators"
	"github.com/marketpulse/engine/internal/model"
	"github.com/marketpulse/engine/internal/orchestrator"
	"github.com/marketpulse/engine/internal/scheduler"
	"github.com/marketpulse/engine/internal/strategy"
	"github.com/marketpulse/engine/pkg/types"
	"go.uber.org/zap"
)

type fakeProvider struct {
	frame *types.Frame
}

func (f *fakeProvider) Fetch(ctx context.Context, symbol string, assetClass types.AssetClass, interval types.Interval, period types.Period) (*types.Frame, error) {
	return f.frame, nil
}

type recordingNotifier struct {
	events []types.AlertEvent
}

func (n *recordingNotifier) Notify(e types.AlertEvent) { n.events = append(n.events, e) }

func uptrendFrame(t *testing.T, n int) *types.Frame {
	t.Helper()
	bars := make([]types.Bar, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price := 100.0 + float64(i)*1.0
		bars[i] = types.Bar{Timestamp: base.Add(time.Duration(i) * time.Hour), Open: price, High: price + 1.5, Low: price - 0.3, Close: price + 1.0, Volume: 1000}
	}
	frame, err := types.NewFrame("EURUSD", types.Interval1h, bars)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	return frame
}

func enabledTrue() *bool { v := true; return &v }

func newTestStore(t *testing.T) *model.Store {
	t.Helper()
	store, err := model.NewStore(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func seedEnabledSymbol(t *testing.T, store *model.Store) {
	t.Helper()
	group, err := store.CreateGroup(types.Group{
		Name:    "fx-majors",
		Enabled: true,
		Defaults: types.GroupDefaults{
			AlertPolicy: types.SparseAlertPolicy{Enabled: enabledTrue()},
		},
	})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if err := store.UpsertSymbol(group.ID, types.SymbolConfig{
		Symbol:     "EURUSD",
		AssetClass: types.AssetForex,
		Interval:   types.Interval1h,
		Period:     types.Period3mo,
		Enabled:    true,
		AlertPolicy: types.SparseAlertPolicy{
			Enabled: enabledTrue(),
		},
	}); err != nil {
		t.Fatalf("UpsertSymbol: %v", err)
	}
}

func TestSchedulerRunsDueMonitorOnFirstTick(t *testing.T) {
	store := newTestStore(t)
	seedEnabledSymbol(t, store)

	orch := orchestrator.New(zap.NewNop(), &fakeProvider{frame: uptrendFrame(t, 80)}, indicators.New(zap.NewNop()), strategy.NewRegistry(zap.NewNop()))
	notifier := &recordingNotifier{}
	sched := scheduler.New(zap.NewNop(), store, orch, notifier, t.TempDir(), scheduler.Config{TickInterval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sched.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := sched.Snapshot()
		if len(snap) == 1 && !snap[0].LastRunAt.IsZero() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected the monitor to have run within the deadline")
}

func TestSchedulerPersistsStateAcrossRestart(t *testing.T) {
	store := newTestStore(t)
	seedEnabledSymbol(t, store)
	dataDir := t.TempDir()

	orch := orchestrator.New(zap.NewNop(), &fakeProvider{frame: uptrendFrame(t, 80)}, indicators.New(zap.NewNop()), strategy.NewRegistry(zap.NewNop()))

	sched1 := scheduler.New(zap.NewNop(), store, orch, nil, dataDir, scheduler.Config{TickInterval: 20 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	if err := sched1.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := sched1.Snapshot()
		if len(snap) == 1 && !snap[0].LastRunAt.IsZero() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	sched1.Stop()
	cancel()

	sched2 := scheduler.New(zap.NewNop(), store, orch, nil, dataDir, scheduler.Config{TickInterval: 20 * time.Millisecond})
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	if err := sched2.Start(ctx2); err != nil {
		t.Fatalf("Start (restart): %v", err)
	}
	defer sched2.Stop()

	snap := sched2.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected the restarted scheduler to reload one persisted monitor, got %d", len(snap))
	}
	if snap[0].LastVerdict == nil {
		t.Fatal("expected the reloaded monitor state to carry the last verdict")
	}
}

func TestSchedulerSkipsDisabledPolicy(t *testing.T) {
	store := newTestStore(t)
	group, err := store.CreateGroup(types.Group{Name: "crypto", Enabled: true})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if err := store.UpsertSymbol(group.ID, types.SymbolConfig{
		Symbol: "BTCUSD", AssetClass: types.AssetCrypto, Interval: types.Interval1h, Period: types.Period3mo, Enabled: true,
	}); err != nil {
		t.Fatalf("UpsertSymbol: %v", err)
	}

	orch := orchestrator.New(zap.NewNop(), &fakeProvider{frame: uptrendFrame(t, 80)}, indicators.New(zap.NewNop()), strategy.NewRegistry(zap.NewNop()))
	sched := scheduler.New(zap.NewNop(), store, orch, nil, t.TempDir(), scheduler.Config{TickInterval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sched.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sched.Stop()

	time.Sleep(100 * time.Millisecond)
	if len(sched.Snapshot()) != 0 {
		t.Fatal("expected a symbol with alert policy disabled by default to never be scheduled")
	}
}

func TestSchedulerEvictsMonitorForDeletedGroup(t *testing.T) {
	store := newTestStore(t)
	seedEnabledSymbol(t, store)
	dataDir := t.TempDir()

	orch := orchestrator.New(zap.NewNop(), &fakeProvider{frame: uptrendFrame(t, 80)}, indicators.New(zap.NewNop()), strategy.NewRegistry(zap.NewNop()))
	sched := scheduler.New(zap.NewNop(), store, orch, nil, dataDir, scheduler.Config{TickInterval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sched.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sched.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := sched.Snapshot()
		if len(snap) == 1 && !snap[0].LastRunAt.IsZero() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	groups := store.ListGroups()
	if len(groups) != 1 {
		t.Fatalf("expected one seeded group, got %d", len(groups))
	}
	if err := store.DeleteGroup(groups[0].ID); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sched.Snapshot()) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected the monitor to be evicted after its group was deleted")
}
