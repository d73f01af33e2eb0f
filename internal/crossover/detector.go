// Package crossover detects level/line/state-flip crossings over the trailing
// lookback window of a series pair, with an optional ADX volatility gate. The
// Detector is stateless: every call scans the series handed to it fresh.
package crossover

import (
	"math"
	"time"

	"github.com/marketpulse/engine/pkg/types"
)

// Detector evaluates crossing events for one series pair per call.
type Detector struct {
	settings types.CrossoverSettings
}

// New creates a Detector with the given settings.
func New(settings types.CrossoverSettings) *Detector {
	return &Detector{settings: settings}
}

// Input bundles everything the detector needs for one scan.
type Input struct {
	KindSource   types.CrossoverKindSource
	A            []float64 // primary series, or the direction series for state_flip
	B            []float64 // comparison series; nil when Level is used instead (kind_source=level)
	Level        float64   // constant comparison level, used only when B is nil and KindSource is level
	ADX          []float64 // optional; required when VolatilityFilterEnabled
	Timestamps   []time.Time
	Close        []float64
}

// Detect scans only the last settings.Lookback completed bars and returns the
// events found, oldest first.
func (d *Detector) Detect(in Input) []types.CrossoverEvent {
	if !d.settings.Enabled {
		return nil
	}

	n := len(in.A)
	if n < 2 {
		return nil
	}

	lookback := d.settings.Lookback
	if lookback <= 0 {
		lookback = 1
	}
	start := n - lookback
	if start < 1 {
		start = 1
	}

	var events []types.CrossoverEvent
	for i := start; i < n; i++ {
		kind, ok := d.evaluateBar(in, i)
		if !ok {
			continue
		}

		if d.settings.VolatilityFilterEnabled {
			if in.ADX == nil || i >= len(in.ADX) || math.IsNaN(in.ADX[i]) || in.ADX[i] < d.settings.ADXThreshold {
				continue
			}
		}

		event := types.CrossoverEvent{
			Kind:           kind,
			KindSource:     in.KindSource,
			BarIndex:       i,
			GatingStrength: math.NaN(),
		}
		if i < len(in.Timestamps) {
			event.BarTimestamp = in.Timestamps[i]
		}
		if i < len(in.Close) {
			event.PriceAtBar = in.Close[i]
		}
		if in.ADX != nil && i < len(in.ADX) {
			event.GatingStrength = in.ADX[i]
		}
		events = append(events, event)
	}

	return events
}

// evaluateBar returns the crossing kind at bar i, or ok=false if no crossing occurred.
func (d *Detector) evaluateBar(in Input, i int) (types.CrossoverKind, bool) {
	switch in.KindSource {
	case types.SourceStateFlip:
		if i >= len(in.A) {
			return "", false
		}
		prev, cur := in.A[i-1], in.A[i]
		if prev == cur {
			return "", false
		}
		if cur > prev {
			return types.CrossoverBullish, true
		}
		return types.CrossoverBearish, true

	case types.SourceLevel:
		if i >= len(in.A) {
			return "", false
		}
		prevA, curA := in.A[i-1], in.A[i]
		if math.IsNaN(prevA) || math.IsNaN(curA) {
			return "", false
		}
		return crossKind(prevA, curA, in.Level, in.Level)

	default: // SourceLine, and the zero value
		if in.B == nil || i >= len(in.A) || i >= len(in.B) {
			return "", false
		}
		prevA, curA := in.A[i-1], in.A[i]
		prevB, curB := in.B[i-1], in.B[i]
		if math.IsNaN(prevA) || math.IsNaN(curA) || math.IsNaN(prevB) || math.IsNaN(curB) {
			return "", false
		}
		return crossKind(prevA, curA, prevB, curB)
	}
}

func crossKind(prevA, curA, prevB, curB float64) (types.CrossoverKind, bool) {
	if prevA <= prevB && curA > curB {
		return types.CrossoverBullish, true
	}
	if prevA >= prevB && curA < curB {
		return types.CrossoverBearish, true
	}
	return "", false
}

// Latest returns the most recent event from a slice produced by Detect, or ok=false.
func Latest(events []types.CrossoverEvent) (types.CrossoverEvent, bool) {
	if len(events) == 0 {
		return types.CrossoverEvent{}, false
	}
	return events[len(events)-1], true
}
