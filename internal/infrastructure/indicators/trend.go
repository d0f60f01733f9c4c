package indicators

// CalculateTrendStrength measures how far the fast moving average sits above
// (positive) or below (negative) the slow one, in units of the closing-price
// standard deviation over the slow window. A perfectly flat window reads 0.
func CalculateTrendStrength(closes []float64, fast, slow int) []float64 {
	out := nanSlice(len(closes))
	if fast <= 0 || slow <= 0 {
		return out
	}

	fastMA := CalculateSMA(closes, fast)
	slowMA := CalculateSMA(closes, slow)
	stdDev := CalculateStdDev(closes, slow)

	for i := range closes {
		if !Defined(fastMA[i]) || !Defined(slowMA[i]) || !Defined(stdDev[i]) {
			continue
		}
		if stdDev[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = (fastMA[i] - slowMA[i]) / stdDev[i]
	}
	return out
}
