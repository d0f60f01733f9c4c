package indicators

import (
	"math"
	"sort"
)

// Defined reports whether v carries a value, i.e. is past its warm-up window.
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// average calculates the mean of a slice
func average(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// Average is the exported mean, 0 for an empty slice.
func Average(data []float64) float64 {
	return average(data)
}

// Percentile returns the p-th percentile (0..100) of the defined values in
// data using linear interpolation between closest ranks. ok is false when
// data holds no defined values.
func Percentile(data []float64, p float64) (value float64, ok bool) {
	vals := make([]float64, 0, len(data))
	for _, v := range data {
		if Defined(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	sort.Float64s(vals)

	if p <= 0 {
		return vals[0], true
	}
	if p >= 100 {
		return vals[len(vals)-1], true
	}
	rank := p / 100 * float64(len(vals)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return vals[lo] + (vals[hi]-vals[lo])*frac, true
}

// Logistic squashes x into (0,1) with the given steepness, centred on 0.
func Logistic(x, steepness float64) float64 {
	return 1.0 / (1.0 + math.Exp(-steepness*x))
}

// Clamp01 bounds x to [0,1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
