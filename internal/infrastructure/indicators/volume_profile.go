package indicators

import "math"

type VolumeBin struct {
	Low    float64
	High   float64
	Volume float64
}

// VolumeProfile is a price-bucketed volume histogram with its point of
// control and value area. Indices refer to Bins.
type VolumeProfile struct {
	Bins           []VolumeBin
	TotalVolume    float64
	POCIndex       int
	ValueAreaFrom  int
	ValueAreaTo    int
	PointOfControl float64
	ValueAreaHigh  float64
	ValueAreaLow   float64
}

// ValueAreaVolume sums the bins inside the value area.
func (vp VolumeProfile) ValueAreaVolume() float64 {
	sum := 0.0
	for i := vp.ValueAreaFrom; i <= vp.ValueAreaTo && i < len(vp.Bins); i++ {
		sum += vp.Bins[i].Volume
	}
	return sum
}

// CalculateVolumeProfile splits [min(low), max(high)] into bins equal-width
// buckets and spreads each bar's volume over the buckets its [low, high]
// range overlaps, proportionally to the overlap. A bar with no range drops
// its whole volume into the bucket holding its price. close is only used to
// break ties. A window whose whole range is a single price collapses to one
// bucket at that price.
func CalculateVolumeProfile(highs, lows, volumes []float64, close float64, bins int, valueAreaFraction float64) VolumeProfile {
	n := len(volumes)
	if n == 0 || len(highs) != n || len(lows) != n {
		return VolumeProfile{}
	}
	if bins < 1 {
		bins = 1
	}

	minLow, maxHigh := lows[0], highs[0]
	total := 0.0
	for i := 0; i < n; i++ {
		minLow = math.Min(minLow, lows[i])
		maxHigh = math.Max(maxHigh, highs[i])
		total += volumes[i]
	}

	if maxHigh <= minLow {
		return VolumeProfile{
			Bins:           []VolumeBin{{Low: minLow, High: minLow, Volume: total}},
			TotalVolume:    total,
			PointOfControl: minLow,
			ValueAreaHigh:  minLow,
			ValueAreaLow:   minLow,
		}
	}

	width := (maxHigh - minLow) / float64(bins)
	hist := make([]VolumeBin, bins)
	for k := range hist {
		hist[k].Low = minLow + float64(k)*width
		hist[k].High = minLow + float64(k+1)*width
	}
	hist[bins-1].High = maxHigh

	binOf := func(p float64) int {
		k := int((p - minLow) / width)
		if k < 0 {
			return 0
		}
		if k >= bins {
			return bins - 1
		}
		return k
	}

	for i := 0; i < n; i++ {
		h, l, v := highs[i], lows[i], volumes[i]
		if h <= l {
			hist[binOf(l)].Volume += v
			continue
		}
		span := h - l
		for k := binOf(l); k <= binOf(h); k++ {
			overlap := math.Min(h, hist[k].High) - math.Max(l, hist[k].Low)
			if overlap > 0 {
				hist[k].Volume += v * overlap / span
			}
		}
	}

	vp := VolumeProfile{Bins: hist, TotalVolume: total}
	vp.POCIndex = pointOfControl(hist, close)
	vp.ValueAreaFrom, vp.ValueAreaTo = valueArea(hist, vp.POCIndex, total*valueAreaFraction, close)
	vp.PointOfControl = (hist[vp.POCIndex].Low + hist[vp.POCIndex].High) / 2
	vp.ValueAreaLow = hist[vp.ValueAreaFrom].Low
	vp.ValueAreaHigh = hist[vp.ValueAreaTo].High
	return vp
}

// pointOfControl picks the heaviest bucket; ties go to the bucket nearer the
// close, then to the lower bucket.
func pointOfControl(hist []VolumeBin, close float64) int {
	best := 0
	for k := 1; k < len(hist); k++ {
		switch {
		case hist[k].Volume > hist[best].Volume:
			best = k
		case hist[k].Volume == hist[best].Volume &&
			distToClose(hist[k], hist[k], close) < distToClose(hist[best], hist[best], close):
			best = k
		}
	}
	return best
}

// valueArea finds the smallest contiguous run of buckets containing poc whose
// volume reaches target. Among runs of that size the heavier one wins, then
// the one centred nearer the close, then the lower one.
func valueArea(hist []VolumeBin, poc int, target, close float64) (from, to int) {
	n := len(hist)
	prefix := make([]float64, n+1)
	for k, b := range hist {
		prefix[k+1] = prefix[k] + b.Volume
	}
	eps := 1e-9 * prefix[n]

	for size := 1; size <= n; size++ {
		found := false
		bestSum := 0.0
		lo := poc - size + 1
		if lo < 0 {
			lo = 0
		}
		for a := lo; a <= poc && a+size <= n; a++ {
			b := a + size - 1
			sum := prefix[b+1] - prefix[a]
			if sum < target-eps {
				continue
			}
			if !found || sum > bestSum ||
				(sum == bestSum && distToClose(hist[a], hist[b], close) < distToClose(hist[from], hist[to], close)) {
				from, to, bestSum, found = a, b, sum, true
			}
		}
		if found {
			return from, to
		}
	}
	return 0, n - 1
}

func distToClose(lo, hi VolumeBin, close float64) float64 {
	return math.Abs((lo.Low+hi.High)/2 - close)
}
