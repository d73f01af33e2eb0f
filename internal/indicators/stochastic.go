package indicators

const (
	stochDefaultKPeriod = 14
	stochDefaultDPeriod = 3
	stochDefaultSmoothK = 3
)

// computeStochastic implements the smoothed (slow) Stochastic oscillator:
// raw %K over kPeriod, smoothed by a smoothK-period SMA, then %D as an
// SMA of the smoothed %K.
func computeStochastic(high, low, close []float64, kPeriod, dPeriod, smoothK int) (k, d []float64) {
	n := len(close)
	rawK := nanSeries(n)
	if kPeriod > 0 {
		for i := kPeriod - 1; i < n; i++ {
			hh, ll := high[i], low[i]
			for j := i - kPeriod + 1; j <= i; j++ {
				if high[j] > hh {
					hh = high[j]
				}
				if low[j] < ll {
					ll = low[j]
				}
			}
			if hh == ll {
				rawK[i] = 50.0
			} else {
				rawK[i] = (close[i] - ll) / (hh - ll) * 100.0
			}
		}
	}

	k = windowedSMAOverNaNPrefixed(rawK, smoothK)
	d = windowedSMAOverNaNPrefixed(k, dPeriod)
	return k, d
}

// windowedSMAOverNaNPrefixed computes a period-length simple moving average
// over a series whose leading entries may be NaN; the result stays NaN until
// `period` consecutive non-NaN inputs have accumulated.
func windowedSMAOverNaNPrefixed(values []float64, period int) []float64 {
	n := len(values)
	out := nanSeries(n)
	if period <= 0 {
		return out
	}
	firstValid := -1
	for i, v := range values {
		if v == v {
			firstValid = i
			break
		}
	}
	if firstValid < 0 {
		return out
	}

	var sum float64
	count := 0
	for i := firstValid; i < n; i++ {
		sum += values[i]
		count++
		if count > period {
			sum -= values[i-period]
			count = period
		}
		if count == period {
			out[i] = sum / float64(period)
		}
	}
	return out
}
