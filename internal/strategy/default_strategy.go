package strategy

import (
	"math"

	"github.com/marketpulse/engine/internal/crossover"
	"github.com/marketpulse/engine/pkg/types"
	"github.com/shopspring/decimal"
)

// NameDefaultCheckSingleTimeframe is the registry name of DefaultStrategy.
const NameDefaultCheckSingleTimeframe = "default-check-single-timeframe"

const (
	defaultStrategyConfirmationCount = 6
	defaultAtrStopMultiplier         = 2.0
	defaultAtrTargetMultiplier       = 3.0
)

// DefaultStrategy tallies bullish/bearish confirmations across RSI,
// Stochastic, CCI, MACD, Williams %R and DMI using their standard textbook
// interpretations. It has no configurable parameters; its constants are frozen.
type DefaultStrategy struct{}

// NewDefaultStrategy builds a DefaultStrategy.
func NewDefaultStrategy() *DefaultStrategy {
	return &DefaultStrategy{}
}

func (s *DefaultStrategy) Name() string { return NameDefaultCheckSingleTimeframe }

// ParameterTemplate returns an empty template: this strategy is not configurable.
func (s *DefaultStrategy) ParameterTemplate() types.ParameterTemplate {
	return types.ParameterTemplate{}
}

func (s *DefaultStrategy) Validate(params map[string]interface{}) (map[string]interface{}, error) {
	if len(params) > 0 {
		return ValidateAgainstTemplate(s.ParameterTemplate(), params)
	}
	return map[string]interface{}{}, nil
}

func (s *DefaultStrategy) Analyze(frame *types.Frame, params map[string]interface{}, result *types.IndicatorResult, detector *crossover.Detector) (*types.Verdict, error) {
	if frame == nil || frame.Len() == 0 {
		return neutralVerdict(s.Name(), types.ReasonInsufficientHistory), nil
	}

	rsi := result.Last("rsi.rsi")
	k := result.Last("stochastic.k")
	d := result.Last("stochastic.d")
	cci := result.Last("cci.value")
	macd := result.Last("macd.macd")
	macdSignal := result.Last("macd.signal")
	williams := result.Last("williams_r.value")
	plusDI := result.Last("adx.plus_di")
	minusDI := result.Last("adx.minus_di")
	atr := result.Last("atr.atr")

	if anyNaN(rsi, k, d, cci, macd, macdSignal, williams, plusDI, minusDI) {
		v := neutralVerdict(s.Name(), types.ReasonInsufficientHistory)
		v.IndicatorSnapshot = snapshot(rsi, k, d, cci, macd, williams, plusDI, minusDI, atr)
		return v, nil
	}

	bull, bear := 0, 0

	if rsi < 30 {
		bull++
	} else if rsi > 70 {
		bear++
	}

	if k > d {
		bull++
	} else if k < d {
		bear++
	}

	if cci < -100 {
		bull++
	} else if cci > 100 {
		bear++
	}

	if macd > macdSignal {
		bull++
	} else if macd < macdSignal {
		bear++
	}

	if williams < -80 {
		bull++
	} else if williams > -20 {
		bear++
	}

	if plusDI > minusDI {
		bull++
	} else if plusDI < minusDI {
		bear++
	}

	n := defaultStrategyConfirmationCount
	threshold := int(math.Ceil(0.7 * float64(n)))

	var strength types.Strength
	switch {
	case bull >= threshold:
		strength = types.StrengthStrongBuy
	case bull > bear:
		strength = types.StrengthBuy
	case bear >= threshold:
		strength = types.StrengthStrongSell
	case bear > bull:
		strength = types.StrengthSell
	default:
		strength = types.StrengthNeutral
	}

	confidence := float64(0)
	if bull > bear {
		confidence = float64(bull) / float64(n)
	} else if bear > bull {
		confidence = float64(bear) / float64(n)
	}

	close := frame.LastClose()
	risk := types.RiskLevels{}
	if !math.IsNaN(atr) {
		atrDec := decimal.NewFromFloat(atr)
		closeDec := decimal.NewFromFloat(close)
		risk.StopLong = closeDec.Sub(atrDec.Mul(decimal.NewFromFloat(defaultAtrStopMultiplier)))
		risk.TargetLong = closeDec.Add(atrDec.Mul(decimal.NewFromFloat(defaultAtrTargetMultiplier)))
		risk.StopShort = closeDec.Add(atrDec.Mul(decimal.NewFromFloat(defaultAtrStopMultiplier)))
		risk.TargetShort = closeDec.Sub(atrDec.Mul(decimal.NewFromFloat(defaultAtrTargetMultiplier)))
	}

	sentiment := types.SentimentNeutral
	switch strength {
	case types.StrengthBuy, types.StrengthStrongBuy:
		sentiment = types.SentimentBullish
	case types.StrengthSell, types.StrengthStrongSell:
		sentiment = types.SentimentBearish
	}

	var events []types.CrossoverEvent
	if detector != nil {
		if kSeries, ok := result.Series("stochastic.k"); ok {
			if dSeries, ok := result.Series("stochastic.d"); ok {
				_, _, _, _, close, _ := frame.Columns()
				adxSeries, _ := result.Series("adx.adx")
				events = detector.Detect(crossover.Input{
					KindSource: types.SourceLine,
					A:          kSeries,
					B:          dSeries,
					ADX:        adxSeries,
					Timestamps: frame.Timestamps(),
					Close:      close,
				})
			}
		}
	}

	return &types.Verdict{
		Symbol:            frame.Symbol(),
		StrategyName:       s.Name(),
		Sentiment:         sentiment,
		Strength:          strength,
		Confidence:        confidence,
		ConfirmationsBuy:  bull,
		ConfirmationsSell: bear,
		RiskLevels:        risk,
		IndicatorSnapshot: snapshot(rsi, k, d, cci, macd, williams, plusDI, minusDI, atr),
		CrossoverEvents:   events,
	}, nil
}

func snapshot(rsi, k, d, cci, macd, williams, plusDI, minusDI, atr float64) map[string]float64 {
	return map[string]float64{
		"rsi":        rsi,
		"stoch_k":    k,
		"stoch_d":    d,
		"cci":        cci,
		"macd":       macd,
		"williams_r": williams,
		"plus_di":    plusDI,
		"minus_di":   minusDI,
		"atr":        atr,
	}
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func neutralVerdict(strategyName string, reason string) *types.Verdict {
	return &types.Verdict{
		Sentiment:    types.SentimentNeutral,
		Strength:     types.StrengthNeutral,
		Confidence:   0,
		StrategyName: strategyName,
		Reasons:      []string{reason},
	}
}
