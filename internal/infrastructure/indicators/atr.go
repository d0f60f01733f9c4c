package indicators

import "math"

// CalculateATR computes the Wilder-smoothed Average True Range.
// The first value is the plain mean of the first period true ranges and
// sits on index period-1.
func CalculateATR(highs, lows, closes []float64, period int) []float64 {
	length := len(closes)
	atr := nanSlice(length)
	if period <= 0 || length < period {
		return atr
	}

	trs := TrueRange(highs, lows, closes)

	sumTR := 0.0
	for i := 0; i < period; i++ {
		sumTR += trs[i]
	}
	atr[period-1] = sumTR / float64(period)

	// Smoothing
	for i := period; i < length; i++ {
		prevAtr := atr[i-1]
		atr[i] = (prevAtr*float64(period-1) + trs[i]) / float64(period)
	}

	return atr
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per bar.
// The first bar has no previous close and uses high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	length := len(closes)
	trs := make([]float64, length)
	if length == 0 {
		return trs
	}

	trs[0] = highs[0] - lows[0]
	for i := 1; i < length; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		trs[i] = math.Max(hl, math.Max(hc, lc))
	}
	return trs
}
