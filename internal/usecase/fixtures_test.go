package usecase

import (
	"math"
	"time"

	"prepump-screener/internal/domain"
)

var fixtureStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// flatSeries: constant price and volume on every bar.
func flatSeries(symbol string, n int, price, volume float64) domain.Series {
	s := domain.Series{Symbol: symbol, Timeframe: "1h", Interval: time.Hour}
	for i := 0; i < n; i++ {
		s.Candles = append(s.Candles, domain.Candle{
			OpenTime: fixtureStart.Add(time.Duration(i) * time.Hour),
			Open:     price,
			High:     price,
			Low:      price,
			Close:    price,
			Volume:   volume,
		})
	}
	return s
}

// breakoutSeries climbs in a +0.6/-0.5/+0.6 staircase for n-1 bars, so the
// bar before last is bearish, then closes the last bar 5% above the previous
// open on a 20% volume spike. The last bar engulfs the one before it and
// closes above the prior upper Bollinger band.
func breakoutSeries(symbol string, n int) domain.Series {
	steps := []float64{0.6, -0.5, 0.6}
	s := domain.Series{Symbol: symbol, Timeframe: "1h", Interval: time.Hour}

	price := 100.0
	for i := 0; i < n-1; i++ {
		open, close := price, price+steps[i%len(steps)]
		s.Candles = append(s.Candles, domain.Candle{
			OpenTime: fixtureStart.Add(time.Duration(i) * time.Hour),
			Open:     open,
			High:     math.Max(open, close) + 0.1,
			Low:      math.Min(open, close) - 0.1,
			Close:    close,
			Volume:   1000,
		})
		price = close
	}

	prev := s.Candles[len(s.Candles)-1]
	close := prev.Open * 1.05
	s.Candles = append(s.Candles, domain.Candle{
		OpenTime: fixtureStart.Add(time.Duration(n-1) * time.Hour),
		Open:     prev.Close,
		High:     close + 0.1,
		Low:      prev.Close - 0.1,
		Close:    close,
		Volume:   1200,
	})
	return s
}

// driftSeries is a gently trending series whose slope and volume differ per
// seed, giving distinct but valid scores.
func driftSeries(symbol string, n int, slope, volume float64) domain.Series {
	s := domain.Series{Symbol: symbol, Timeframe: "1h", Interval: time.Hour}
	price := 50.0
	for i := 0; i < n; i++ {
		wiggle := 0.3 * math.Sin(float64(i)/3)
		open := price
		close := price + slope + wiggle
		if close <= 1 {
			close = 1
		}
		s.Candles = append(s.Candles, domain.Candle{
			OpenTime: fixtureStart.Add(time.Duration(i) * time.Hour),
			Open:     open,
			High:     math.Max(open, close) + 0.2,
			Low:      math.Max(0.5, math.Min(open, close)-0.2),
			Close:    close,
			Volume:   volume + 10*float64(i%7),
		})
		price = close
	}
	return s
}
