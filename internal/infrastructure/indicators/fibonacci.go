package indicators

import "strconv"

var (
	RetracementRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1.0}
	ExtensionRatios   = []float64{1.272, 1.618, 2.0}
)

// Fibonacci is the level grid anchored on one swing high / swing low pair.
type Fibonacci struct {
	SwingHigh   Pivot
	SwingLow    Pivot
	Retracement map[string]float64
	Extension   map[string]float64
	Position    float64
}

// FibLabel formats a ratio the way levels are keyed, e.g. 0.618 -> "0.618".
func FibLabel(ratio float64) string {
	return strconv.FormatFloat(ratio, 'f', -1, 64)
}

// FindSwings returns the most recent strict pivot high and pivot low using
// window bars on each side. ok is false when either is missing or the pair
// spans a zero or inverted range.
func FindSwings(highs, lows []float64, window int) (high, low Pivot, ok bool) {
	if window < 1 {
		return Pivot{}, Pivot{}, false
	}
	ph := LastPivot(FindPivotHighs(highs, window, window))
	pl := LastPivot(FindPivotLows(lows, window, window))
	if ph == nil || pl == nil {
		return Pivot{}, Pivot{}, false
	}
	if ph.Price <= pl.Price {
		return Pivot{}, Pivot{}, false
	}
	return *ph, *pl, true
}

// CalculateFibonacci builds retracement levels measured down from the swing
// high (ratio 0 is the high, 1 is the low), extension levels projected up
// from the swing low, and the unclamped position of close inside the swing.
func CalculateFibonacci(high, low Pivot, close float64) Fibonacci {
	rng := high.Price - low.Price
	fib := Fibonacci{
		SwingHigh:   high,
		SwingLow:    low,
		Retracement: make(map[string]float64, len(RetracementRatios)),
		Extension:   make(map[string]float64, len(ExtensionRatios)),
	}
	for _, r := range RetracementRatios {
		fib.Retracement[FibLabel(r)] = high.Price - r*rng
	}
	for _, r := range ExtensionRatios {
		fib.Extension[FibLabel(r)] = low.Price + r*rng
	}
	if rng > 0 {
		fib.Position = (close - low.Price) / rng
	}
	return fib
}
