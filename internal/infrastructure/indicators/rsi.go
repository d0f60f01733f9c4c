package indicators

// CalculateRSI computes the Wilder-smoothed Relative Strength Index.
//
// The first value lands on index period (it needs period price changes);
// earlier bars are NaN. A window with no gains and no losses reads 50, a
// window with gains and no losses reads 100.
func CalculateRSI(closes []float64, period int) []float64 {
	rsi := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return rsi
	}

	// gains[i-1] / losses[i-1] hold the change from closes[i-1] to closes[i].
	gains := make([]float64, 0, len(closes)-1)
	losses := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	sumGain := 0.0
	sumLoss := 0.0
	for i := 0; i < period; i++ {
		sumGain += gains[i]
		sumLoss += losses[i]
	}

	avgGain := sumGain / float64(period)
	avgLoss := sumLoss / float64(period)
	rsi[period] = rsiValue(avgGain, avgLoss)

	// Smoothing
	for i := period + 1; i < len(closes); i++ {
		avgGain = ((avgGain * float64(period-1)) + gains[i-1]) / float64(period)
		avgLoss = ((avgLoss * float64(period-1)) + losses[i-1]) / float64(period)
		rsi[i] = rsiValue(avgGain, avgLoss)
	}

	return rsi
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50
	case avgLoss == 0:
		return 100
	}
	rs := avgGain / avgLoss
	v := 100 - (100 / (1 + rs))
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
