package strategy

import (
	"math"

	"github.com/marketpulse/engine/internal/crossover"
	"github.com/marketpulse/engine/internal/indicators"
	"github.com/marketpulse/engine/pkg/types"
	"github.com/shopspring/decimal"
)

// NameDualSupertrendCheckSingleTimeframe is the registry name of DualSupertrendStrategy.
const NameDualSupertrendCheckSingleTimeframe = "dual-supertrend-check-single-timeframe"

// DualSupertrendStrategy aligns a long-period and a short-period Supertrend
// instance, gates entries/exits by their directional agreement, and confirms
// with RSI, MACD and ADX.
type DualSupertrendStrategy struct{}

// NewDualSupertrendStrategy builds a DualSupertrendStrategy.
func NewDualSupertrendStrategy() *DualSupertrendStrategy {
	return &DualSupertrendStrategy{}
}

func (s *DualSupertrendStrategy) Name() string { return NameDualSupertrendCheckSingleTimeframe }

func (s *DualSupertrendStrategy) ParameterTemplate() types.ParameterTemplate {
	return types.ParameterTemplate{
		{Name: "supertrend_a_period", Kind: types.ParamInt, Default: 15, Min: 10, Max: 30, Description: "Long trend period"},
		{Name: "supertrend_a_multiplier", Kind: types.ParamFloat, Default: 3.142, Min: 1.0, Max: 5.0, Description: "Long trend ATR multiplier"},
		{Name: "supertrend_b_period", Kind: types.ParamInt, Default: 6, Min: 3, Max: 15, Description: "Short trend period"},
		{Name: "supertrend_b_multiplier", Kind: types.ParamFloat, Default: 0.66, Min: 0.5, Max: 3.0, Description: "Short trend ATR multiplier"},
		{Name: "confirmation_threshold", Kind: types.ParamInt, Default: 3, Min: 1, Max: 5, Description: "Min confirmations to enter"},
		{Name: "exit_threshold", Kind: types.ParamInt, Default: 2, Min: 1, Max: 5, Description: "Min confirmations to exit"},
		{Name: "atr_stop_multiplier", Kind: types.ParamFloat, Default: 2.0, Min: 1.0, Max: 5.0, Description: "Stop distance in ATR"},
		{Name: "atr_target_multiplier", Kind: types.ParamFloat, Default: 3.0, Min: 1.0, Max: 10.0, Description: "Target distance in ATR"},
		{Name: "rsi_overbought", Kind: types.ParamFloat, Default: 70.0, Min: 60.0, Max: 90.0, Description: "RSI ceiling"},
		{Name: "rsi_oversold", Kind: types.ParamFloat, Default: 30.0, Min: 10.0, Max: 40.0, Description: "RSI floor"},
		{Name: "trend_strength_threshold", Kind: types.ParamFloat, Default: 25.0, Min: 15.0, Max: 35.0, Description: "ADX gate"},
	}
}

func (s *DualSupertrendStrategy) Validate(params map[string]interface{}) (map[string]interface{}, error) {
	return ValidateAgainstTemplate(s.ParameterTemplate(), params)
}

// Recipe returns the indicator recipe this strategy needs the Kernel to have
// computed, built from the (already validated) params. Callers assemble the
// frame's recipe from this before invoking the Kernel, then pass the result here.
func (s *DualSupertrendStrategy) Recipe(params map[string]interface{}) types.Recipe {
	aPeriod := paramInt(params, "supertrend_a_period", 15)
	aMult := paramFloat(params, "supertrend_a_multiplier", 3.142)
	bPeriod := paramInt(params, "supertrend_b_period", 6)
	bMult := paramFloat(params, "supertrend_b_multiplier", 0.66)

	return types.Recipe{
		{Family: types.FamilySupertrend, Params: map[string]float64{"period": float64(aPeriod), "multiplier": aMult}},
		{Family: types.FamilySupertrend, Params: map[string]float64{"period": float64(bPeriod), "multiplier": bMult}},
		{Family: types.FamilyRSI},
		{Family: types.FamilyMACD},
		{Family: types.FamilyADX},
		{Family: types.FamilyATR},
	}
}

func (s *DualSupertrendStrategy) Analyze(frame *types.Frame, params map[string]interface{}, result *types.IndicatorResult, detector *crossover.Detector) (*types.Verdict, error) {
	if frame == nil || frame.Len() == 0 {
		return neutralVerdict(s.Name(), types.ReasonInsufficientHistory), nil
	}

	aPeriod := paramInt(params, "supertrend_a_period", 15)
	aMult := paramFloat(params, "supertrend_a_multiplier", 3.142)
	bPeriod := paramInt(params, "supertrend_b_period", 6)
	bMult := paramFloat(params, "supertrend_b_multiplier", 0.66)
	confirmationThreshold := paramInt(params, "confirmation_threshold", 3)
	exitThreshold := paramInt(params, "exit_threshold", 2)
	atrStopMultiplier := paramFloat(params, "atr_stop_multiplier", 2.0)
	atrTargetMultiplier := paramFloat(params, "atr_target_multiplier", 3.0)
	rsiOverbought := paramFloat(params, "rsi_overbought", 70.0)
	rsiOversold := paramFloat(params, "rsi_oversold", 30.0)
	trendStrengthThreshold := paramFloat(params, "trend_strength_threshold", 25.0)

	_, dirAKey := indicators.SupertrendKeys(aPeriod, aMult)
	_, dirBKey := indicators.SupertrendKeys(bPeriod, bMult)

	dirA, okA := result.Series(dirAKey)
	dirB, okB := result.Series(dirBKey)
	if !okA || !okB || len(dirA) == 0 || len(dirB) == 0 {
		return neutralVerdict(s.Name(), types.ReasonInsufficientHistory), nil
	}

	directionA := dirA[len(dirA)-1]
	directionB := dirB[len(dirB)-1]
	rsi := result.Last("rsi.rsi")
	macd := result.Last("macd.macd")
	adx := result.Last("adx.adx")
	atr := result.Last("atr.atr")

	if anyNaN(directionA, directionB, rsi, macd, adx) {
		return neutralVerdict(s.Name(), types.ReasonInsufficientHistory), nil
	}

	entryLong := directionA == 1 && directionB == 1
	exitLong := directionA == -1 || directionB == -1

	bull, bear := 0, 0
	if entryLong {
		bull++
	}
	if exitLong {
		bear++
	}
	if rsi < rsiOverbought {
		bull++
	}
	if rsi > rsiOversold {
		bear++
	}
	if macd > 0 {
		bull++
	}
	if macd < 0 {
		bear++
	}
	if adx > trendStrengthThreshold {
		bull++
		bear++
	}

	var strength types.Strength
	switch {
	case bull >= 4:
		strength = types.StrengthStrongBuy
	case bull >= confirmationThreshold:
		strength = types.StrengthBuy
	case bear >= 4:
		strength = types.StrengthStrongSell
	case bear >= exitThreshold:
		strength = types.StrengthSell
	default:
		strength = types.StrengthNeutral
	}

	if adx <= trendStrengthThreshold && strength == types.StrengthNeutral {
		return withReason(neutralVerdict(s.Name(), types.ReasonInsufficientVolatility), frame, rsi, macd, adx, directionA, directionB), nil
	}

	sentiment := types.SentimentNeutral
	switch strength {
	case types.StrengthBuy, types.StrengthStrongBuy:
		sentiment = types.SentimentBullish
	case types.StrengthSell, types.StrengthStrongSell:
		sentiment = types.SentimentBearish
	}

	confidence := float64(0)
	if bull > bear {
		confidence = math.Min(1.0, float64(bull)/4.0)
	} else if bear > bull {
		confidence = math.Min(1.0, float64(bear)/4.0)
	}

	close := frame.LastClose()
	risk := types.RiskLevels{}
	if !math.IsNaN(atr) {
		atrDec := decimal.NewFromFloat(atr)
		closeDec := decimal.NewFromFloat(close)
		risk.StopLong = closeDec.Sub(atrDec.Mul(decimal.NewFromFloat(atrStopMultiplier)))
		risk.TargetLong = closeDec.Add(atrDec.Mul(decimal.NewFromFloat(atrTargetMultiplier)))
		risk.StopShort = closeDec.Add(atrDec.Mul(decimal.NewFromFloat(atrStopMultiplier)))
		risk.TargetShort = closeDec.Sub(atrDec.Mul(decimal.NewFromFloat(atrTargetMultiplier)))
	}

	var events []types.CrossoverEvent
	if detector != nil {
		_, _, _, _, closeSeries, _ := frame.Columns()
		adxSeries, _ := result.Series("adx.adx")
		events = detector.Detect(crossover.Input{
			KindSource: types.SourceStateFlip,
			A:          dirA,
			ADX:        adxSeries,
			Timestamps: frame.Timestamps(),
			Close:      closeSeries,
		})
	}

	return &types.Verdict{
		Symbol:            frame.Symbol(),
		StrategyName:      s.Name(),
		Sentiment:         sentiment,
		Strength:          strength,
		Confidence:        confidence,
		ConfirmationsBuy:  bull,
		ConfirmationsSell: bear,
		RiskLevels:        risk,
		IndicatorSnapshot: map[string]float64{
			"direction_a": directionA,
			"direction_b": directionB,
			"rsi":         rsi,
			"macd":        macd,
			"adx":         adx,
			"atr":         atr,
		},
		CrossoverEvents: events,
	}, nil
}

func withReason(v *types.Verdict, frame *types.Frame, rsi, macd, adx, directionA, directionB float64) *types.Verdict {
	v.Symbol = frame.Symbol()
	v.IndicatorSnapshot = map[string]float64{
		"direction_a": directionA,
		"direction_b": directionB,
		"rsi":         rsi,
		"macd":        macd,
		"adx":         adx,
	}
	return v
}
