package domain

import (
	"fmt"
	"math"
	"time"
)

// Candle is one OHLCV bar.
type Candle struct {
	OpenTime time.Time `json:"openTime"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Series is the candle history of one symbol on one timeframe, oldest first.
type Series struct {
	Symbol    string        `json:"symbol"`
	Timeframe string        `json:"timeframe"`
	Interval  time.Duration `json:"interval"`
	Candles   []Candle      `json:"candles"`
}

func (s Series) Len() int {
	return len(s.Candles)
}

// Last returns the most recent candle. Callers must check Len first.
func (s Series) Last() Candle {
	return s.Candles[len(s.Candles)-1]
}

// BarInterval is the declared interval, or the spacing of the first two bars
// when none was declared.
func (s Series) BarInterval() time.Duration {
	if s.Interval > 0 {
		return s.Interval
	}
	if len(s.Candles) >= 2 {
		return s.Candles[1].OpenTime.Sub(s.Candles[0].OpenTime)
	}
	return 0
}

// Validate rejects series the engines cannot trust. It never repairs data.
func (s Series) Validate() error {
	if len(s.Candles) == 0 {
		return fmt.Errorf("%s: %w", s.Symbol, ErrNoData)
	}
	for i, c := range s.Candles {
		switch {
		case !finite(c.Open, c.High, c.Low, c.Close, c.Volume):
			return &SeriesError{Symbol: s.Symbol, Index: i, Reason: "non-finite value"}
		case c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0:
			return &SeriesError{Symbol: s.Symbol, Index: i, Reason: "non-positive price"}
		case c.Volume <= 0:
			return &SeriesError{Symbol: s.Symbol, Index: i, Reason: "non-positive volume"}
		case c.High < c.Low:
			return &SeriesError{Symbol: s.Symbol, Index: i, Reason: "high below low"}
		}
		if i == 0 {
			continue
		}
		prev := s.Candles[i-1].OpenTime
		if c.OpenTime.Equal(prev) {
			return &SeriesError{Symbol: s.Symbol, Index: i, Reason: "duplicate timestamp"}
		}
		if c.OpenTime.Before(prev) {
			return &SeriesError{Symbol: s.Symbol, Index: i, Reason: "timestamps not increasing"}
		}
	}
	return nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s Series) Opens() []float64   { return s.column(func(c Candle) float64 { return c.Open }) }
func (s Series) Highs() []float64   { return s.column(func(c Candle) float64 { return c.High }) }
func (s Series) Lows() []float64    { return s.column(func(c Candle) float64 { return c.Low }) }
func (s Series) Closes() []float64  { return s.column(func(c Candle) float64 { return c.Close }) }
func (s Series) Volumes() []float64 { return s.column(func(c Candle) float64 { return c.Volume }) }

func (s Series) column(get func(Candle) float64) []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = get(c)
	}
	return out
}
