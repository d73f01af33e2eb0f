// Package model_test provides tests for the Group/Symbol model.
package model_test

import (
	"reflect"
	"testing"

	"github.com/marketpulse/engine/internal/model"
	"github.com/marketpulse/engine/pkg/types"
	"go.uber.org/zap"
)

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }

func sampleGroup() types.Group {
	enabled := boolPtr(true)
	drift := floatPtr(0.05)
	return types.Group{
		Name:    "fx-majors",
		Enabled: true,
		Defaults: types.GroupDefaults{
			Indicators: types.IndicatorOverrides{
				types.FamilyRSI: {"period": 21},
			},
			StrategyName:           "dual-supertrend-check-single-timeframe",
			ScheduleCadenceMinutes: 30,
			AlertPolicy: types.SparseAlertPolicy{
				Enabled:            enabled,
				MinConfidenceDrift: drift,
			},
		},
		Members: map[string]types.SymbolConfig{},
	}
}

func sampleSymbol() types.SymbolConfig {
	return types.SymbolConfig{
		Symbol:     "EURUSD",
		AssetClass: types.AssetForex,
		Interval:   types.Interval1h,
		Period:     types.Period1y,
		Enabled:    true,
	}
}

func TestResolveAppliesOnlyNamedKeys(t *testing.T) {
	group := sampleGroup()
	symbol := sampleSymbol()

	resolved := model.Resolve(group, symbol)

	if resolved.StrategyName != "dual-supertrend-check-single-timeframe" {
		t.Fatalf("expected group strategy to flow through, got %q", resolved.StrategyName)
	}
	if resolved.AlertPolicy.CadenceMinutes != 30 {
		t.Fatalf("expected group cadence override 30, got %d", resolved.AlertPolicy.CadenceMinutes)
	}
	if !resolved.AlertPolicy.Enabled {
		t.Fatal("expected group alert policy override to enable alerts")
	}
	// Timezone was never overridden at any layer; it must fall through to the built-in default.
	if resolved.AlertPolicy.Timezone != "UTC" {
		t.Fatalf("expected default timezone to fall through untouched, got %q", resolved.AlertPolicy.Timezone)
	}

	for _, spec := range resolved.Recipe {
		if spec.Family == types.FamilyRSI {
			if spec.Params["period"] != 21 {
				t.Fatalf("expected RSI period override 21, got %v", spec.Params["period"])
			}
		}
	}
}

func TestResolveIsDeterministicAndIdempotent(t *testing.T) {
	group := sampleGroup()
	symbol := sampleSymbol()

	r1 := model.Resolve(group, symbol)
	r2 := model.Resolve(group, symbol)

	if !reflect.DeepEqual(r1, r2) {
		t.Fatalf("Resolve is not idempotent:\n%+v\nvs\n%+v", r1, r2)
	}
}

func TestSymbolOverrideOnlyTouchesNamedField(t *testing.T) {
	group := sampleGroup()
	symbol := sampleSymbol()
	symbol.StrategyOverrides = types.StrategyOverrides{
		Params: map[string]interface{}{"supertrend_a_period": 20},
	}

	resolved := model.Resolve(group, symbol)

	// StrategyName was not touched by the symbol override, so the group's
	// strategy name must still flow through unchanged.
	if resolved.StrategyName != "dual-supertrend-check-single-timeframe" {
		t.Fatalf("symbol override with no StrategyName should not change strategy, got %q", resolved.StrategyName)
	}
	if resolved.StrategyParams["supertrend_a_period"] != 20 {
		t.Fatalf("expected symbol-level param override to apply, got %v", resolved.StrategyParams["supertrend_a_period"])
	}
}

func TestStoreRoundTripPersistReloadResolve(t *testing.T) {
	dir := t.TempDir()

	store1, err := model.NewStore(zap.NewNop(), dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	group, err := store1.CreateGroup(sampleGroup())
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	symbol := sampleSymbol()
	if err := store1.UpsertSymbol(group.ID, symbol); err != nil {
		t.Fatalf("UpsertSymbol: %v", err)
	}

	preReload := model.Resolve(group, symbol)

	store2, err := model.NewStore(zap.NewNop(), dir)
	if err != nil {
		t.Fatalf("NewStore (reload): %v", err)
	}
	reloadedGroup, err := store2.GetGroup(group.ID)
	if err != nil {
		t.Fatalf("GetGroup after reload: %v", err)
	}
	key := types.SymbolKey(symbol.Symbol, symbol.AssetClass, symbol.Interval)
	reloadedSymbol, ok := reloadedGroup.Members[key]
	if !ok {
		t.Fatalf("expected member %q to survive reload", key)
	}

	postReload := model.Resolve(reloadedGroup, reloadedSymbol)

	if !reflect.DeepEqual(preReload, postReload) {
		t.Fatalf("resolved config changed across persist/reload:\n%+v\nvs\n%+v", preReload, postReload)
	}
}

func TestDeleteGroupRemovesItFromSubsequentLoads(t *testing.T) {
	dir := t.TempDir()
	store, err := model.NewStore(zap.NewNop(), dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	group, err := store.CreateGroup(sampleGroup())
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if err := store.DeleteGroup(group.ID); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	if _, err := store.GetGroup(group.ID); err == nil {
		t.Fatal("expected GetGroup to fail after delete")
	}

	reloaded, err := model.NewStore(zap.NewNop(), dir)
	if err != nil {
		t.Fatalf("NewStore (reload): %v", err)
	}
	if _, err := reloaded.GetGroup(group.ID); err == nil {
		t.Fatal("expected deleted group to stay deleted across reload")
	}
}
