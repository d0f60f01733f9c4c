package indicators

import "math"

// CalculateEMA computes the Exponential Moving Average.
// Bars before the first full window are NaN.
func CalculateEMA(data []float64, period int) []float64 {
	return emaFrom(data, period, 0)
}

// emaFrom seeds the EMA with the simple average of data[start:start+period]
// and smooths forward from there. Everything before the seed is NaN.
func emaFrom(data []float64, period, start int) []float64 {
	ema := nanSlice(len(data))
	if period <= 0 || start < 0 || len(data)-start < period {
		return ema
	}

	k := 2.0 / (float64(period) + 1.0)

	// Simple MA for the first EMA
	sum := 0.0
	for i := start; i < start+period; i++ {
		sum += data[i]
	}
	ema[start+period-1] = sum / float64(period)

	for i := start + period; i < len(data); i++ {
		prevEma := ema[i-1]
		ema[i] = (data[i] * k) + (prevEma * (1 - k))
	}

	return ema
}

// CalculateSMA computes the Simple Moving Average.
func CalculateSMA(data []float64, period int) []float64 {
	sma := nanSlice(len(data))
	if period <= 0 || len(data) < period {
		return sma
	}

	sum := 0.0
	for i := 0; i < len(data); i++ {
		sum += data[i]
		if i >= period {
			sum -= data[i-period]
		}
		if i >= period-1 {
			sma[i] = sum / float64(period)
		}
	}
	return sma
}

// CalculateStdDev computes the rolling population standard deviation.
func CalculateStdDev(data []float64, period int) []float64 {
	out := nanSlice(len(data))
	if period <= 0 || len(data) < period {
		return out
	}

	for i := period - 1; i < len(data); i++ {
		window := data[i-period+1 : i+1]
		mean := average(window)
		sumSqDiff := 0.0
		for _, v := range window {
			diff := v - mean
			sumSqDiff += diff * diff
		}
		out[i] = math.Sqrt(sumSqDiff / float64(period))
	}
	return out
}
