package indicators

const atrDefaultPeriod = 14

// computeATR computes the Average True Range via Wilder smoothing of True Range.
// ATR is always non-negative; flat-market bars (TR=0) keep it non-negative too.
func computeATR(high, low, close []float64, period int) []float64 {
	tr := trueRange(high, low, close)
	return wilderSmooth(tr, period)
}

// atrSimpleMA is the min_periods=1 simple moving average of True Range used by
// Supertrend: unlike Wilder smoothing, it is defined from the very first bar.
func atrSimpleMA(tr []float64, period int) []float64 {
	n := len(tr)
	out := make([]float64, n)
	var sum float64
	for i := 0; i < n; i++ {
		sum += tr[i]
		count := i + 1
		if count > period {
			sum -= tr[i-period]
			count = period
		}
		out[i] = sum / float64(count)
	}
	return out
}
