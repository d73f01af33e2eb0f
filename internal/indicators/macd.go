package indicators

const (
	macdDefaultFast   = 12
	macdDefaultSlow   = 26
	macdDefaultSignal = 9
)

// computeMACD computes MACD line, signal line and histogram.
func computeMACD(close []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	n := len(close)
	fastEMA := ema(close, fast)
	slowEMA := ema(close, slow)

	macd = nanSeries(n)
	for i := 0; i < n; i++ {
		if fastEMA[i] == fastEMA[i] && slowEMA[i] == slowEMA[i] {
			macd[i] = fastEMA[i] - slowEMA[i]
		}
	}

	sig = windowedEMAOverNaNPrefixed(macd, signal)

	hist = nanSeries(n)
	for i := 0; i < n; i++ {
		if macd[i] == macd[i] && sig[i] == sig[i] {
			hist[i] = macd[i] - sig[i]
		}
	}
	return macd, sig, hist
}

// windowedEMAOverNaNPrefixed computes an EMA seeded by the SMA of the first
// `period` non-NaN values of a series that may itself start with NaN.
func windowedEMAOverNaNPrefixed(values []float64, period int) []float64 {
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
	if firstValid < 0 || n-firstValid < period {
		return out
	}

	k := 2.0 / (float64(period) + 1.0)
	var sum float64
	for i := firstValid; i < firstValid+period; i++ {
		sum += values[i]
	}
	seed := sum / float64(period)
	out[firstValid+period-1] = seed

	prev := seed
	for i := firstValid + period; i < n; i++ {
		prev = values[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}
