package indicators

import "math"

const cciDefaultPeriod = 20

// computeCCI computes the Commodity Channel Index, unbounded.
// CCI = (typicalPrice - SMA(typicalPrice, period)) / (0.015 * meanDeviation)
func computeCCI(high, low, close []float64, period int) []float64 {
	n := len(close)
	out := nanSeries(n)
	if period <= 0 || n < period {
		return out
	}

	tp := make([]float64, n)
	for i := range tp {
		tp[i] = (high[i] + low[i] + close[i]) / 3.0
	}
	tpSMA := sma(tp, period)

	for i := period - 1; i < n; i++ {
		mean := tpSMA[i]
		var devSum float64
		for j := i - period + 1; j <= i; j++ {
			devSum += math.Abs(tp[j] - mean)
		}
		meanDeviation := devSum / float64(period)
		if meanDeviation == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - mean) / (0.015 * meanDeviation)
	}
	return out
}
