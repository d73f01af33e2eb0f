package indicators

const adxDefaultPeriod = 14

// computeADX computes the Directional Movement Index family: +DI, -DI and ADX.
// All three are bounded in [0,100].
func computeADX(high, low, close []float64, period int) (adx, plusDI, minusDI []float64) {
	n := len(close)
	adx = nanSeries(n)
	plusDI = nanSeries(n)
	minusDI = nanSeries(n)
	if period <= 0 || n < period*2 {
		return adx, plusDI, minusDI
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := high[i] - high[i-1]
		downMove := low[i-1] - low[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	tr := trueRange(high, low, close)
	smoothTR := wilderSmooth(tr, period)
	smoothPlusDM := wilderSmooth(plusDM, period)
	smoothMinusDM := wilderSmooth(minusDM, period)

	dx := nanSeries(n)
	for i := 0; i < n; i++ {
		if smoothTR[i] != smoothTR[i] || smoothTR[i] == 0 {
			continue
		}
		pdi := 100 * smoothPlusDM[i] / smoothTR[i]
		mdi := 100 * smoothMinusDM[i] / smoothTR[i]
		plusDI[i] = pdi
		minusDI[i] = mdi
		sum := pdi + mdi
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * absF(pdi-mdi) / sum
	}

	adx = wilderSmoothSkippingLeadingNaN(dx, period)
	return adx, plusDI, minusDI
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
