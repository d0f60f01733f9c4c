package indicators

import "math"

// Bar is the OHLC geometry the candle classifiers look at.
type Bar struct {
	Open, High, Low, Close float64
}

// PatternThresholds are the shape limits of the candle classifiers. Ratios
// are fractions of the bar's high-low range unless stated otherwise.
type PatternThresholds struct {
	// doji: body <= ratio * range
	DojiMaxBodyRatio float64 `yaml:"doji_max_body_ratio"`
	// hammer: lower shadow >= mult * body, upper shadow <= ratio * range
	HammerMinLowerToBody float64 `yaml:"hammer_min_lower_to_body"`
	HammerMaxUpperRatio  float64 `yaml:"hammer_max_upper_ratio"`
	// engulfing: second body >= ratio * first body
	EngulfingMinBodyRatio float64 `yaml:"engulfing_min_body_ratio"`
	// morning star: first body >= ratio * first range, star body <= ratio *
	// first body, third close above first close + ratio * first body
	MorningStarLargeBody   float64 `yaml:"morning_star_large_body"`
	MorningStarMaxStarBody float64 `yaml:"morning_star_max_star_body"`
	MorningStarMinRecovery float64 `yaml:"morning_star_min_recovery"`
}

func DefaultPatternThresholds() PatternThresholds {
	return PatternThresholds{
		DojiMaxBodyRatio:       0.1,
		HammerMinLowerToBody:   2.0,
		HammerMaxUpperRatio:    0.1,
		EngulfingMinBodyRatio:  1.0,
		MorningStarLargeBody:   0.5,
		MorningStarMaxStarBody: 0.3,
		MorningStarMinRecovery: 0.5,
	}
}

type barParts struct {
	Body, Upper, Lower, Range float64
	IsBull, IsBear            bool
}

func split(b Bar) barParts {
	return barParts{
		Body:   math.Abs(b.Close - b.Open),
		Upper:  b.High - math.Max(b.Open, b.Close),
		Lower:  math.Min(b.Open, b.Close) - b.Low,
		Range:  b.High - b.Low,
		IsBull: b.Close > b.Open,
		IsBear: b.Close < b.Open,
	}
}

// IsDoji: open and close nearly equal relative to a non-zero range.
func IsDoji(b Bar, th PatternThresholds) bool {
	p := split(b)
	if p.Range <= 0 {
		return false
	}
	return p.Body <= th.DojiMaxBodyRatio*p.Range
}

// IsHammer: small real body near the top with a long lower shadow.
func IsHammer(b Bar, th PatternThresholds) bool {
	p := split(b)
	if p.Range <= 0 || p.Body <= 0 {
		return false
	}
	if p.Lower < th.HammerMinLowerToBody*p.Body {
		return false
	}
	return p.Upper <= th.HammerMaxUpperRatio*p.Range
}

// IsBullishEngulfing: a bearish bar followed by a bullish bar whose body
// covers the previous body.
func IsBullishEngulfing(prev, cur Bar, th PatternThresholds) bool {
	p1, p2 := split(prev), split(cur)
	if !p1.IsBear || !p2.IsBull {
		return false
	}
	if cur.Open > prev.Close || cur.Close < prev.Open {
		return false
	}
	return p2.Body >= th.EngulfingMinBodyRatio*p1.Body
}

// IsMorningStar: a large bearish bar, a small-bodied star, then a bullish bar
// that recovers into the first bar's body.
func IsMorningStar(first, star, third Bar, th PatternThresholds) bool {
	p1, p2, p3 := split(first), split(star), split(third)
	if !p1.IsBear || !p3.IsBull || p1.Range <= 0 {
		return false
	}
	if p1.Body < th.MorningStarLargeBody*p1.Range {
		return false
	}
	if p2.Body > th.MorningStarMaxStarBody*p1.Body {
		return false
	}
	recovery := first.Close + th.MorningStarMinRecovery*p1.Body
	return third.Close > recovery
}

// PatternFlags holds one classifier column per pattern, aligned with the bars.
type PatternFlags struct {
	Hammer      []bool
	MorningStar []bool
	Engulfing   []bool
	Doji        []bool
}

// DetectPatterns runs every classifier over a sliding window ending at each bar.
// Multi-bar patterns stay false until enough preceding bars exist.
func DetectPatterns(bars []Bar, th PatternThresholds) PatternFlags {
	n := len(bars)
	flags := PatternFlags{
		Hammer:      make([]bool, n),
		MorningStar: make([]bool, n),
		Engulfing:   make([]bool, n),
		Doji:        make([]bool, n),
	}

	for i := range bars {
		flags.Hammer[i] = IsHammer(bars[i], th)
		flags.Doji[i] = IsDoji(bars[i], th)
		if i >= 1 {
			flags.Engulfing[i] = IsBullishEngulfing(bars[i-1], bars[i], th)
		}
		if i >= 2 {
			flags.MorningStar[i] = IsMorningStar(bars[i-2], bars[i-1], bars[i], th)
		}
	}
	return flags
}
