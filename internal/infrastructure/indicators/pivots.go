package indicators

// Pivot is a strict fractal extreme at Index.
type Pivot struct {
	Index int
	Price float64
}

// FindPivotLows returns every bar whose low is strictly below each of the
// left and right neighbours.
func FindPivotLows(lows []float64, left, right int) []Pivot {
	return findPivots(lows, left, right, func(v, other float64) bool { return v < other })
}

// FindPivotHighs is FindPivotLows mirrored.
func FindPivotHighs(highs []float64, left, right int) []Pivot {
	return findPivots(highs, left, right, func(v, other float64) bool { return v > other })
}

// findPivots keeps index i when beats(vals[i], n) holds for every neighbour n
// within left bars before and right bars after. A tie disqualifies, as does a
// NaN on either side.
func findPivots(vals []float64, left, right int, beats func(v, other float64) bool) []Pivot {
	if left < 0 || right < 0 {
		return nil
	}
	var out []Pivot
	for i := left; i < len(vals)-right; i++ {
		if strictExtreme(vals, i, left, right, beats) {
			out = append(out, Pivot{Index: i, Price: vals[i]})
		}
	}
	return out
}

func strictExtreme(vals []float64, i, left, right int, beats func(v, other float64) bool) bool {
	for j := i - left; j <= i+right; j++ {
		if j != i && !beats(vals[i], vals[j]) {
			return false
		}
	}
	return true
}

// LastPivot returns the most recent pivot, or nil.
func LastPivot(pivots []Pivot) *Pivot {
	if len(pivots) == 0 {
		return nil
	}
	p := pivots[len(pivots)-1] // copy
	return &p
}
