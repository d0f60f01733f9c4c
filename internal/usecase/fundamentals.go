package usecase

import (
	"math"
	"time"

	"prepump-screener/internal/config"
	"prepump-screener/internal/domain"
	"prepump-screener/internal/infrastructure/indicators"
)

// ComputeFundamentals derives liquidity and volume figures from the candles.
// supply is optional; without it the market cap is unavailable and drops out
// of the fundamental score instead of being guessed.
func ComputeFundamentals(series domain.Series, supply *float64, cfg config.FundamentalConfig) domain.FundamentalMetrics {
	n := series.Len()
	if n == 0 {
		return domain.FundamentalMetrics{}
	}
	closes := series.Closes()
	volumes := series.Volumes()

	m := domain.FundamentalMetrics{
		LiquidityBars: liquidityBars(series.BarInterval(), cfg.LiquidityHours),
	}
	start := n - m.LiquidityBars
	if start < 0 {
		start = 0
	}
	for i := start; i < n; i++ {
		m.Liquidity24h += volumes[i] * closes[i]
	}

	m.VolumeRatios = volumeRatios(volumes, cfg.VolumeLong)
	if trend, ok := volumeTrend(volumes, cfg.VolumeShort, cfg.VolumeLong); ok {
		m.VolumeTrend = domain.Float(trend)
		m.VolumeScore = domain.Float(indicators.Logistic(trend-1, cfg.VolumeSteepness))
	}

	if supply != nil && *supply > 0 {
		m.MarketCap = domain.Float(closes[n-1] * *supply)
	}

	m.FundamentalScore = fundamentalScore(m, cfg)
	return m
}

// liquidityBars is the number of bars covering hours, rounded down, at least one.
func liquidityBars(interval time.Duration, hours float64) int {
	if interval <= 0 {
		return 1
	}
	bars := int(math.Floor(hours * float64(time.Hour) / float64(interval)))
	if bars < 1 {
		return 1
	}
	return bars
}

// volumeTrend compares the mean of the last short volumes to the mean of the
// last long volumes.
func volumeTrend(volumes []float64, short, long int) (float64, bool) {
	n := len(volumes)
	if short < 1 || long < 1 || n < long || n < short {
		return 0, false
	}
	longMean := indicators.Average(volumes[n-long:])
	if longMean == 0 {
		return 0, false
	}
	return indicators.Average(volumes[n-short:]) / longMean, true
}

// volumeRatios compares each bar's volume to the mean of the long bars
// before it.
func volumeRatios(volumes []float64, long int) []float64 {
	out := make([]float64, len(volumes))
	sum := 0.0
	for i, v := range volumes {
		out[i] = math.NaN()
		if long >= 1 && i >= long {
			if mean := sum / float64(long); mean > 0 {
				out[i] = v / mean
			}
			sum -= volumes[i-long]
		}
		sum += v
	}
	return out
}

func fundamentalScore(m domain.FundamentalMetrics, cfg config.FundamentalConfig) float64 {
	w := cfg.Weights
	sum, weight := 0.0, 0.0

	if m.VolumeScore != nil {
		sum += w.Volume * *m.VolumeScore
		weight += w.Volume
	}

	liq := math.Log10(1+m.Liquidity24h) / math.Log10(1+cfg.LiquidityReference)
	sum += w.Liquidity * indicators.Clamp01(liq)
	weight += w.Liquidity

	if m.MarketCap != nil {
		// smaller caps have more room to run
		sum += w.MarketCap * (1 / (1 + *m.MarketCap/cfg.MarketCapPivot))
		weight += w.MarketCap
	}

	if weight == 0 {
		return 0
	}
	return indicators.Clamp01(sum / weight)
}
