// Package indicators is the deterministic, stateful-free computation kernel:
// given a Frame and a Recipe it produces an IndicatorResult. It performs no
// I/O, reads no wall clock, and holds no mutable singleton state — every
// call to Compute with the same (frame, recipe) pair produces a bit-identical
// result.
package indicators

import (
	"fmt"

	"github.com/marketpulse/engine/pkg/errs"
	"github.com/marketpulse/engine/pkg/types"
	"go.uber.org/zap"
)

// Kernel computes indicator families over a Frame. It is safe for concurrent
// use: Compute allocates fresh output slices on every call and touches no
// shared mutable state.
type Kernel struct {
	logger *zap.Logger
}

// New creates a Kernel. logger may be nil, in which case a no-op logger is used.
func New(logger *zap.Logger) *Kernel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Kernel{logger: logger}
}

// Compute evaluates every spec in the recipe against frame and returns the
// combined result. Insufficient history in one family never short-circuits
// the others: each family independently reports NaN for its own leading bars.
func (k *Kernel) Compute(frame *types.Frame, recipe types.Recipe) (*types.IndicatorResult, error) {
	if frame == nil {
		return nil, errs.New(errs.KindInvalidFrame, "nil frame")
	}

	_, _, high, low, close, _ := frame.Columns()

	result := &types.IndicatorResult{
		Recipe:  recipe,
		Outputs: make(map[string]types.IndicatorOutput),
	}

	for _, spec := range recipe {
		switch spec.Family {
		case types.FamilyRSI:
			period := intParam(spec.Params, "period", rsiDefaultPeriod)
			result.Outputs["rsi.rsi"] = seriesOutput(computeRSI(close, period))

		case types.FamilyStochastic:
			kPeriod := intParam(spec.Params, "k_period", stochDefaultKPeriod)
			dPeriod := intParam(spec.Params, "d_period", stochDefaultDPeriod)
			smoothK := intParam(spec.Params, "smooth_k", stochDefaultSmoothK)
			kSeries, dSeries := computeStochastic(high, low, close, kPeriod, dPeriod, smoothK)
			result.Outputs["stochastic.k"] = seriesOutput(kSeries)
			result.Outputs["stochastic.d"] = seriesOutput(dSeries)

		case types.FamilyWilliamsR:
			period := intParam(spec.Params, "period", williamsDefaultPeriod)
			result.Outputs["williams_r.value"] = seriesOutput(computeWilliamsR(high, low, close, period))

		case types.FamilyCCI:
			period := intParam(spec.Params, "period", cciDefaultPeriod)
			result.Outputs["cci.value"] = seriesOutput(computeCCI(high, low, close, period))

		case types.FamilyMACD:
			fast := intParam(spec.Params, "fast", macdDefaultFast)
			slow := intParam(spec.Params, "slow", macdDefaultSlow)
			signal := intParam(spec.Params, "signal", macdDefaultSignal)
			macd, sig, hist := computeMACD(close, fast, slow, signal)
			result.Outputs["macd.macd"] = seriesOutput(macd)
			result.Outputs["macd.signal"] = seriesOutput(sig)
			result.Outputs["macd.hist"] = seriesOutput(hist)

		case types.FamilyADX:
			period := intParam(spec.Params, "period", adxDefaultPeriod)
			adx, plusDI, minusDI := computeADX(high, low, close, period)
			result.Outputs["adx.adx"] = seriesOutput(adx)
			result.Outputs["adx.plus_di"] = seriesOutput(plusDI)
			result.Outputs["adx.minus_di"] = seriesOutput(minusDI)

		case types.FamilyBollinger:
			period := intParam(spec.Params, "period", bollingerDefaultPeriod)
			stdDev := floatParam(spec.Params, "stddev", bollingerDefaultStdDev)
			upper, middle, lower, width := computeBollinger(close, period, stdDev)
			result.Outputs["bollinger.upper"] = seriesOutput(upper)
			result.Outputs["bollinger.middle"] = seriesOutput(middle)
			result.Outputs["bollinger.lower"] = seriesOutput(lower)
			result.Outputs["bollinger.width"] = seriesOutput(width)

		case types.FamilyATR:
			period := intParam(spec.Params, "period", atrDefaultPeriod)
			result.Outputs["atr.atr"] = seriesOutput(computeATR(high, low, close, period))

		case types.FamilySMA:
			period := intParam(spec.Params, "period", 20)
			result.Outputs[fmt.Sprintf("sma.%d", period)] = seriesOutput(sma(close, period))

		case types.FamilyEMA:
			period := intParam(spec.Params, "period", 20)
			result.Outputs[fmt.Sprintf("ema.%d", period)] = seriesOutput(ema(close, period))

		case types.FamilySupertrend:
			period := intParam(spec.Params, "period", 10)
			multiplier := floatParam(spec.Params, "multiplier", 3.0)
			st, direction := computeSupertrend(high, low, close, period, multiplier)
			dirFloat := make([]float64, len(direction))
			for i, d := range direction {
				dirFloat[i] = float64(d)
			}
			stKey, dirKey := SupertrendKeys(period, multiplier)
			result.Outputs[stKey] = seriesOutput(st)
			result.Outputs[dirKey] = seriesOutput(dirFloat)

		default:
			return nil, errs.New(errs.KindUnknownIndicator, fmt.Sprintf("unknown indicator family %q", spec.Family))
		}
	}

	return result, nil
}

// SupertrendKeys returns the IndicatorResult keys a Supertrend spec with the
// given period/multiplier publishes its value and direction series under.
// Exported so strategies can look up a specific Supertrend instance by the
// same parameters they asked the Kernel to compute it with.
func SupertrendKeys(period int, multiplier float64) (stKey, dirKey string) {
	return fmt.Sprintf("supertrend.%d.%.3f.st_value", period, multiplier),
		fmt.Sprintf("supertrend.%d.%.3f.direction", period, multiplier)
}

func seriesOutput(s []float64) types.IndicatorOutput {
	return types.IndicatorOutput{Series: s}
}

func intParam(params map[string]float64, key string, def int) int {
	if v, ok := params[key]; ok {
		return int(v)
	}
	return def
}

func floatParam(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}
