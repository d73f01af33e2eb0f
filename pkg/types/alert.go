package types

import "time"

// Severity is the urgency tag carried on every emitted alert Event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarn     Severity = "warn"
	SeverityCritical Severity = "critical"
)

// AlertEvent is the envelope plus payload handed to the Notifier.
type AlertEvent struct {
	Timestamp time.Time
	GroupID   string
	SymbolKey string
	MonitorID string
	Condition AlertCondition
	Severity  Severity
	Payload   interface{}
}

// SentimentFlipPayload is the payload for a sentiment_flip event.
type SentimentFlipPayload struct {
	OldSentiment Sentiment
	NewSentiment Sentiment
	IndicatorDeltas map[string]float64
}

// ConfidenceDriftPayload is the payload for a confidence_drift event.
type ConfidenceDriftPayload struct {
	OldConfidence float64
	NewConfidence float64
	Delta         float64
}

// ATRBandShiftPayload is the payload for an atr_band_shift event.
type ATRBandShiftPayload struct {
	OldStopLong    float64
	NewStopLong    float64
	OldTargetLong  float64
	NewTargetLong  float64
	SuggestedTrailingStop float64
}

// ValidityLossPayload is the payload for a validity_loss event.
type ValidityLossPayload struct {
	Entry   EntrySnapshot
	Current Verdict
}

// NewCrossoverPayload is the payload for a new_crossover event.
type NewCrossoverPayload struct {
	Event CrossoverEvent
}

// Notifier is the injected sink for alert events. Implementations are
// expected to be non-blocking or to apply their own backpressure; the
// Scheduler never waits for delivery to complete.
type Notifier interface {
	Notify(event AlertEvent)
}

