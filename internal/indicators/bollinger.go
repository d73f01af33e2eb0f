package indicators

import "math"

const (
	bollingerDefaultPeriod = 20
	bollingerDefaultStdDev = 2.0
)

// computeBollinger computes upper/middle/lower bands and band width.
func computeBollinger(close []float64, period int, stdDevMult float64) (upper, middle, lower, width []float64) {
	n := len(close)
	middle = sma(close, period)
	upper = nanSeries(n)
	lower = nanSeries(n)
	width = nanSeries(n)
	if period <= 0 {
		return upper, middle, lower, width
	}

	for i := period - 1; i < n; i++ {
		mean := middle[i]
		var sumSq float64
		for j := i - period + 1; j <= i; j++ {
			d := close[j] - mean
			sumSq += d * d
		}
		stdDev := math.Sqrt(sumSq / float64(period))
		upper[i] = mean + stdDevMult*stdDev
		lower[i] = mean - stdDevMult*stdDev
		if mean != 0 {
			width[i] = (upper[i] - lower[i]) / mean
		} else {
			width[i] = 0
		}
	}
	return upper, middle, lower, width
}
