package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sentiment is the directional read of a Verdict.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// Strength is the graded call of a Verdict.
type Strength string

const (
	StrengthStrongBuy  Strength = "strong_buy"
	StrengthBuy        Strength = "buy"
	StrengthNeutral    Strength = "neutral"
	StrengthSell       Strength = "sell"
	StrengthStrongSell Strength = "strong_sell"
)

// RiskLevels are the ATR-derived stop/target prices around the latest close.
// Prices are carried as decimal.Decimal because they are externally visible
// (persisted, emitted in alert payloads) even though the indicator math that
// produced them ran in float64.
type RiskLevels struct {
	StopLong   decimal.Decimal
	TargetLong decimal.Decimal
	StopShort  decimal.Decimal
	TargetShort decimal.Decimal
}

// Verdict is the structured output of a single strategy invocation.
type Verdict struct {
	Symbol             string
	StrategyName       string
	Sentiment          Sentiment
	Strength           Strength
	Confidence         float64 // [0,1]
	ConfirmationsBuy   int
	ConfirmationsSell  int
	RiskLevels         RiskLevels
	IndicatorSnapshot  map[string]float64
	Reasons            []string
	CrossoverEvents    []CrossoverEvent

	// Metadata attached by the Orchestrator.
	RunAt              time.Time
	DataCompleteness   float64 // always 1.0; the frame's length is not compared against the requested period
	ParametersUsed     map[string]interface{}
}

// Common reason codes.
const (
	ReasonInsufficientHistory   = "insufficient_history"
	ReasonInsufficientVolatility = "insufficient_volatility"
	ReasonInternalError         = "internal_error"
)
