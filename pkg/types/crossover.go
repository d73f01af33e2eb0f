package types

import "time"

// CrossoverKind is the direction of a detected crossing.
type CrossoverKind string

const (
	CrossoverBullish CrossoverKind = "bullish"
	CrossoverBearish CrossoverKind = "bearish"
)

// CrossoverKindSource names what was compared to produce the event.
type CrossoverKindSource string

const (
	SourceLine      CrossoverKindSource = "line"       // series vs series
	SourceLevel     CrossoverKindSource = "level"      // series vs constant level
	SourceStateFlip CrossoverKindSource = "state_flip" // direction series flip (Supertrend)
)

// CrossoverEvent is a single detected crossing within the detector's lookback window.
type CrossoverEvent struct {
	Kind           CrossoverKind
	KindSource     CrossoverKindSource
	BarIndex       int
	BarTimestamp   time.Time
	PriceAtBar     float64
	GatingStrength float64 // the ADX reading at BarIndex, or NaN if no ADX series was supplied
}

// CrossoverSettings configures the Detector.
type CrossoverSettings struct {
	Enabled                 bool
	VolatilityFilterEnabled bool
	ADXThreshold            float64
	Lookback                int
}

// DefaultCrossoverSettings mirrors the defaults named in the spec.
func DefaultCrossoverSettings() CrossoverSettings {
	return CrossoverSettings{
		Enabled:                 true,
		VolatilityFilterEnabled: false,
		ADXThreshold:            18,
		Lookback:                5,
	}
}
