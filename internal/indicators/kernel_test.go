// Package indicators_test provides tests for the indicator kernel.
package indicators_test

import (
	"math"
	"testing"
	"time"

	"github.com/marketpulse/engine/internal/indicators"
	"github.com/marketpulse/engine/pkg/types"
	"go.uber.org/zap"
)

func syntheticFrame(t *testing.T, n int, seed func(i int) (o, h, l, c, v float64)) *types.Frame {
	t.Helper()
	bars := make([]types.Bar, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		o, h, l, c, v := seed(i)
		bars[i] = types.Bar{Timestamp: base.Add(time.Duration(i) * time.Hour), Open: o, High: h, Low: l, Close: c, Volume: v}
	}
	frame, err := types.NewFrame("TEST", types.Interval1h, bars)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	return frame
}

func trendingFrame(t *testing.T, n int) *types.Frame {
	return syntheticFrame(t, n, func(i int) (float64, float64, float64, float64, float64) {
		base := 100.0 + float64(i)*0.5
		return base, base + 1.0, base - 1.0, base + 0.3, 1000.0
	})
}

func TestKernelComputeIsDeterministic(t *testing.T) {
	frame := trendingFrame(t, 60)
	recipe := types.Recipe{
		{Family: types.FamilyRSI, Params: map[string]float64{"period": 14}},
		{Family: types.FamilyMACD},
		{Family: types.FamilyADX},
	}

	k := indicators.New(zap.NewNop())
	r1, err := k.Compute(frame, recipe)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	r2, err := k.Compute(frame, recipe)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	s1, _ := r1.Series("rsi.rsi")
	s2, _ := r2.Series("rsi.rsi")
	for i := range s1 {
		if s1[i] != s2[i] && !(math.IsNaN(s1[i]) && math.IsNaN(s2[i])) {
			t.Fatalf("non-deterministic RSI at index %d: %v vs %v", i, s1[i], s2[i])
		}
	}
}

func TestRSIInsufficientHistoryLeavesLeadingNaN(t *testing.T) {
	frame := trendingFrame(t, 5)
	k := indicators.New(zap.NewNop())
	result, err := k.Compute(frame, types.Recipe{{Family: types.FamilyRSI, Params: map[string]float64{"period": 14}}})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	series, _ := result.Series("rsi.rsi")
	for i, v := range series {
		if !math.IsNaN(v) {
			t.Fatalf("expected NaN at index %d with insufficient history, got %v", i, v)
		}
	}
}

func TestOtherFamiliesUnaffectedByOneFamilysShortage(t *testing.T) {
	frame := trendingFrame(t, 60)
	k := indicators.New(zap.NewNop())
	result, err := k.Compute(frame, types.Recipe{
		{Family: types.FamilyRSI, Params: map[string]float64{"period": 200}}, // never ready
		{Family: types.FamilyATR, Params: map[string]float64{"period": 14}},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	atr, _ := result.Series("atr.atr")
	if math.IsNaN(atr[len(atr)-1]) {
		t.Fatal("ATR should be ready even though RSI(200) never is")
	}
}

func TestDuplicateTimestampRejected(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []types.Bar{
		{Timestamp: base, Open: 1, High: 2, Low: 0, Close: 1, Volume: 1},
		{Timestamp: base, Open: 1, High: 2, Low: 0, Close: 1, Volume: 1},
	}
	if _, err := types.NewFrame("TEST", types.Interval1h, bars); err == nil {
		t.Fatal("expected error for duplicate timestamps")
	}
}

func TestSupertrendDirectionInvariant(t *testing.T) {
	frame := trendingFrame(t, 100)

	k := indicators.New(zap.NewNop())
	result, err := k.Compute(frame, types.Recipe{
		{Family: types.FamilySupertrend, Params: map[string]float64{"period": 10, "multiplier": 3}},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	stKey, dirKey := indicators.SupertrendKeys(10, 3)
	st, _ := result.Series(stKey)
	dir, _ := result.Series(dirKey)

	for i, d := range dir {
		if d != 1 && d != -1 {
			t.Fatalf("direction[%d] = %v, want +-1", i, d)
		}
		if st[i] == 0 && i != 0 {
			t.Fatalf("st[%d] unexpectedly zero", i)
		}
	}
	if dir[0] != 1 {
		t.Fatalf("direction[0] = %v, want +1 (initial state)", dir[0])
	}
	if st[0] != 0 {
		t.Fatalf("st[0] = %v, want 0 (initial state)", st[0])
	}
}

func TestFlatMarketATRNonNegativeAndSupertrendHoldsDirection(t *testing.T) {
	frame := syntheticFrame(t, 50, func(i int) (float64, float64, float64, float64, float64) {
		return 100, 100, 100, 100, 0
	})
	k := indicators.New(zap.NewNop())
	result, err := k.Compute(frame, types.Recipe{
		{Family: types.FamilyATR, Params: map[string]float64{"period": 14}},
		{Family: types.FamilySupertrend, Params: map[string]float64{"period": 10, "multiplier": 3}},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	atr, _ := result.Series("atr.atr")
	for i, v := range atr {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 {
			t.Fatalf("ATR[%d] = %v, must be non-negative", i, v)
		}
	}

	_, directionKey := indicators.SupertrendKeys(10, 3)
	direction, _ := result.Series(directionKey)
	for i := 1; i < len(direction); i++ {
		if direction[i] != direction[i-1] {
			t.Fatalf("direction changed at %d in a flat market, want held", i)
		}
	}
}
