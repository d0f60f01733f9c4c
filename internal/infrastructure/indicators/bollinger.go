package indicators

type BollingerBands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// CalculateBollingerBands computes SMA(period) ± multiplier·σ, σ being the
// population standard deviation of the same window.
func CalculateBollingerBands(closes []float64, period int, multiplier float64) BollingerBands {
	length := len(closes)
	upper := nanSlice(length)
	lower := nanSlice(length)

	middle := CalculateSMA(closes, period)
	stdDev := CalculateStdDev(closes, period)

	for i := 0; i < length; i++ {
		if !Defined(middle[i]) || !Defined(stdDev[i]) {
			continue
		}
		upper[i] = middle[i] + (multiplier * stdDev[i])
		lower[i] = middle[i] - (multiplier * stdDev[i])
	}

	return BollingerBands{Upper: upper, Middle: middle, Lower: lower}
}

// Width returns the band width normalised by the middle band, NaN where the
// bands are not yet defined or the middle band is zero.
func (bb BollingerBands) Width() []float64 {
	out := nanSlice(len(bb.Middle))
	for i := range bb.Middle {
		if !Defined(bb.Upper[i]) || !Defined(bb.Lower[i]) || bb.Middle[i] == 0 {
			continue
		}
		out[i] = (bb.Upper[i] - bb.Lower[i]) / bb.Middle[i]
	}
	return out
}
