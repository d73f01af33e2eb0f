// Package crossover_test provides tests for the crossover detector.
package crossover_test

import (
	"testing"
	"time"

	"github.com/marketpulse/engine/internal/crossover"
	"github.com/marketpulse/engine/pkg/types"
)

func ts(n int) []time.Time {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func TestLineCrossoverBullish(t *testing.T) {
	a := []float64{10, 10, 10, 10, 28, 34}
	b := []float64{20, 20, 20, 20, 30, 30}
	d := crossover.New(types.CrossoverSettings{Enabled: true, Lookback: 5})

	events := d.Detect(crossover.Input{
		KindSource: types.SourceLine,
		A:          a,
		B:          b,
		Timestamps: ts(len(a)),
		Close:      a,
	})

	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(events))
	}
	if events[0].Kind != types.CrossoverBullish {
		t.Fatalf("expected bullish, got %s", events[0].Kind)
	}
	if events[0].BarIndex != 5 {
		t.Fatalf("expected bar index 5, got %d", events[0].BarIndex)
	}
}

func TestADXGateSuppressesCrossover(t *testing.T) {
	k := []float64{10, 10, 10, 10, 28, 34}
	dLine := []float64{20, 20, 20, 20, 30, 30}
	adx := []float64{12, 12, 12, 12, 12, 12}

	det := crossover.New(types.CrossoverSettings{
		Enabled:                 true,
		Lookback:                5,
		VolatilityFilterEnabled: true,
		ADXThreshold:            18,
	})

	events := det.Detect(crossover.Input{
		KindSource: types.SourceLine,
		A:          k,
		B:          dLine,
		ADX:        adx,
		Timestamps: ts(len(k)),
		Close:      k,
	})

	if len(events) != 0 {
		t.Fatalf("expected ADX gate to suppress the crossover, got %d events", len(events))
	}
}

func TestVolatilityGatePassesHighADX(t *testing.T) {
	k := []float64{10, 10, 10, 10, 28, 34}
	dLine := []float64{20, 20, 20, 20, 30, 30}
	adx := []float64{25, 25, 25, 25, 25, 25}

	det := crossover.New(types.CrossoverSettings{
		Enabled:                 true,
		Lookback:                5,
		VolatilityFilterEnabled: true,
		ADXThreshold:            18,
	})

	events := det.Detect(crossover.Input{
		KindSource: types.SourceLine,
		A:          k,
		B:          dLine,
		ADX:        adx,
		Timestamps: ts(len(k)),
		Close:      k,
	})

	if len(events) != 1 {
		t.Fatalf("expected 1 event through the gate, got %d", len(events))
	}
	if events[0].GatingStrength < 18 {
		t.Fatalf("gating strength %v should satisfy the threshold", events[0].GatingStrength)
	}
}

func TestStateFlipCrossover(t *testing.T) {
	direction := []float64{1, 1, 1, -1, -1, 1}
	det := crossover.New(types.CrossoverSettings{Enabled: true, Lookback: 5})

	events := det.Detect(crossover.Input{
		KindSource: types.SourceStateFlip,
		A:          direction,
		Timestamps: ts(len(direction)),
		Close:      make([]float64, len(direction)),
	})

	if len(events) != 2 {
		t.Fatalf("expected 2 flips, got %d", len(events))
	}
	if events[0].Kind != types.CrossoverBearish || events[1].Kind != types.CrossoverBullish {
		t.Fatalf("unexpected flip kinds: %v, %v", events[0].Kind, events[1].Kind)
	}
}

func TestDisabledDetectorReturnsNothing(t *testing.T) {
	det := crossover.New(types.CrossoverSettings{Enabled: false, Lookback: 5})
	events := det.Detect(crossover.Input{
		KindSource: types.SourceLine,
		A:          []float64{1, 2, 3},
		B:          []float64{2, 1, 1},
	})
	if events != nil {
		t.Fatalf("expected nil events when disabled, got %v", events)
	}
}
