package indicators

import "math"

// nanSeries returns a series of length n filled with NaN, the kernel's
// leading-bars placeholder for "not enough history yet".
func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// sma computes a simple moving average over period bars, NaN for the first
// period-1 entries.
func sma(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// ema computes an exponential moving average seeded by the SMA of the first
// period values; NaN for the first period-1 entries, matching sma's warm-up.
func ema(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) == 0 {
		return out
	}
	k := 2.0 / (float64(period) + 1.0)
	var seed float64
	seeded := false
	for i, v := range values {
		if !seeded {
			if i < period-1 {
				continue
			}
			var sum float64
			for j := i - period + 1; j <= i; j++ {
				sum += values[j]
			}
			seed = sum / float64(period)
			out[i] = seed
			seeded = true
			continue
		}
		seed = v*k + seed*(1-k)
		out[i] = seed
	}
	return out
}

// wilderSmooth applies Wilder's smoothing (used by RSI/ADX/ATR): the first
// smoothed value is the simple average of the first period values, then each
// subsequent value is a (period-1)-weighted running average.
func wilderSmooth(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	avg := sum / float64(period)
	out[period-1] = avg
	for i := period; i < len(values); i++ {
		avg = (avg*float64(period-1) + values[i]) / float64(period)
		out[i] = avg
	}
	return out
}

// wilderSmoothSkippingLeadingNaN applies Wilder's smoothing starting at the
// first non-NaN entry of values, for series (like DX) whose own warm-up
// already left a NaN prefix.
func wilderSmoothSkippingLeadingNaN(values []float64, period int) []float64 {
	n := len(values)
	out := nanSeries(n)
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
	return prependNaN(wilderSmooth(values[firstValid:], period), firstValid)
}

// prependNaN returns a new series of length offset+len(values), NaN for the
// first offset entries and values thereafter.
func prependNaN(values []float64, offset int) []float64 {
	out := nanSeries(offset + len(values))
	copy(out[offset:], values)
	return out
}

// trueRange computes the True Range series: max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar has no previous close, so TR[0] = high[0]-low[0].
func trueRange(high, low, close []float64) []float64 {
	n := len(high)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			out[i] = high[i] - low[i]
			continue
		}
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
