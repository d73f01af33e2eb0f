package indicators

// computeSupertrend reproduces the exact iterative sequence required by the
// dual-Supertrend strategy: the direction at bar i depends on bar i-1, so
// this cannot be parallelized across bars (only across symbols, one level up).
//
// tr is True Range, atr its simple moving average with min_periods=1.
// hl2 = (high+low)/2, upperband = hl2 + multiplier*atr, lowerband = hl2 - multiplier*atr.
// direction[0] = +1, st[0] = 0. For i >= 1: direction flips to +1 when
// close[i] > upperband[i-1], to -1 when close[i] < lowerband[i-1], otherwise
// holds. st[i] is lowerband[i] when direction is +1, else upperband[i].
func computeSupertrend(high, low, close []float64, period int, multiplier float64) (st []float64, direction []int) {
	n := len(close)
	st = make([]float64, n)
	direction = make([]int, n)
	if n == 0 {
		return st, direction
	}

	tr := trueRange(high, low, close)
	atr := atrSimpleMA(tr, period)

	upperband := make([]float64, n)
	lowerband := make([]float64, n)
	for i := 0; i < n; i++ {
		hl2 := (high[i] + low[i]) / 2.0
		upperband[i] = hl2 + multiplier*atr[i]
		lowerband[i] = hl2 - multiplier*atr[i]
	}

	direction[0] = 1
	st[0] = 0

	for i := 1; i < n; i++ {
		switch {
		case close[i] > upperband[i-1]:
			direction[i] = 1
		case close[i] < lowerband[i-1]:
			direction[i] = -1
		default:
			direction[i] = direction[i-1]
		}

		if direction[i] == 1 {
			st[i] = lowerband[i]
		} else {
			st[i] = upperband[i]
		}
	}

	return st, direction
}
