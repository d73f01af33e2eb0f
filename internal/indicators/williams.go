package indicators

const williamsDefaultPeriod = 14

// computeWilliamsR computes Williams %R, bounded in [-100, 0].
func computeWilliamsR(high, low, close []float64, period int) []float64 {
	n := len(close)
	out := nanSeries(n)
	if period <= 0 {
		return out
	}
	for i := period - 1; i < n; i++ {
		hh, ll := high[i], low[i]
		for j := i - period + 1; j <= i; j++ {
			if high[j] > hh {
				hh = high[j]
			}
			if low[j] < ll {
				ll = low[j]
			}
		}
		if hh == ll {
			out[i] = -50.0
			continue
		}
		out[i] = (hh - close[i]) / (hh - ll) * -100.0
	}
	return out
}
