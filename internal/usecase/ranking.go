package usecase

import (
	"fmt"
	"math"
	"sort"
	"time"

	"prepump-screener/internal/config"
	"prepump-screener/internal/domain"
	"prepump-screener/internal/infrastructure/indicators"
)

// componentOrder fixes the summation order so totals are bit-for-bit
// reproducible.
var componentOrder = []string{
	domain.ComponentTrend,
	domain.ComponentMomentum,
	domain.ComponentVolatility,
	domain.ComponentVolumeProfile,
	domain.ComponentFundamental,
	domain.ComponentVolume,
	domain.ComponentSignal,
}

// RankInput is what the ranking looks at for one symbol: the last panel row
// plus the run-level records.
type RankInput struct {
	Symbol        string
	Price         float64
	AsOf          time.Time
	LastIndex     int
	Indicators    domain.IndicatorSnapshot
	VolumeProfile domain.VolumeProfile
	Fundamentals  domain.FundamentalMetrics
	LatestSignal  *domain.SignalEvent
}

// ScoreSymbol turns one symbol's latest readings into a ranking record.
// Every component lives in [0,1]; the total is their weighted mean scaled and
// clamped to the configured range. A symbol whose last bar is still missing a
// required indicator is refused with domain.ErrInsufficientData.
func ScoreSymbol(in RankInput, cfg config.Analysis) (domain.RankingRecord, error) {
	snap := in.Indicators
	missing := missingFields(snap)
	if len(missing) > 0 {
		return domain.RankingRecord{}, fmt.Errorf("%s: %w: %v not available on last bar", in.Symbol, domain.ErrInsufficientData, missing)
	}

	components := map[string]float64{
		domain.ComponentTrend:         indicators.Logistic(*snap.TrendStrength, 1),
		domain.ComponentMomentum:      momentumScore(snap, cfg.Signals),
		domain.ComponentVolatility:    volatilityScore(snap, in.Price),
		domain.ComponentVolumeProfile: volumeProfileScore(in.VolumeProfile, in.Price),
		domain.ComponentFundamental:   indicators.Clamp01(in.Fundamentals.FundamentalScore),
		domain.ComponentVolume:        0,
		domain.ComponentSignal:        0,
	}
	if in.Fundamentals.VolumeScore != nil {
		components[domain.ComponentVolume] = indicators.Clamp01(*in.Fundamentals.VolumeScore)
	}
	if sig := in.LatestSignal; sig != nil && in.LastIndex-sig.BarIndex <= cfg.Ranking.RecentSignalBars {
		components[domain.ComponentSignal] = indicators.Clamp01(sig.Strength)
	}

	rc := cfg.Ranking
	w := rc.Weights
	weights := map[string]float64{
		domain.ComponentTrend:         w.Trend,
		domain.ComponentMomentum:      w.Momentum,
		domain.ComponentVolatility:    w.Volatility,
		domain.ComponentVolumeProfile: w.VolumeProfile,
		domain.ComponentFundamental:   w.Fundamental,
		domain.ComponentVolume:        w.Volume,
		domain.ComponentSignal:        w.Signal,
	}

	sum, weight := 0.0, 0.0
	for _, name := range componentOrder {
		sum += weights[name] * components[name]
		weight += weights[name]
	}
	total := 0.0
	if weight > 0 {
		total = rc.ScoreScale * sum / weight
	}
	total = math.Max(rc.ScoreMin, math.Min(rc.ScoreMax, total))

	return domain.RankingRecord{
		Symbol:          in.Symbol,
		TotalScore:      total,
		ComponentScores: components,
		Price:           in.Price,
		AsOf:            in.AsOf,
		ConfigVersion:   cfg.Version,
	}, nil
}

// Rank orders records by total score, highest first, with ties going to the
// alphabetically first symbol, and numbers them from 1. The input is left
// untouched.
func Rank(records []domain.RankingRecord) []domain.RankingRecord {
	out := make([]domain.RankingRecord, len(records))
	copy(out, records)

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].Symbol < out[j].Symbol
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func missingFields(s domain.IndicatorSnapshot) []string {
	var missing []string
	for name, v := range map[string]*float64{
		"trend_strength": s.TrendStrength,
		"rsi":            s.RSI,
		"macd":           s.MACD,
		"macd_signal":    s.MACDSignal,
		"bb_upper":       s.BBUpper,
		"bb_lower":       s.BBLower,
		"atr":            s.ATR,
	} {
		if v == nil {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// momentumScore averages how close RSI sits to the middle of the
// accumulation band with how far MACD runs above its signal line in ATR units.
func momentumScore(s domain.IndicatorSnapshot, cfg config.SignalConfig) float64 {
	mid := (cfg.RSILow + cfg.RSIHigh) / 2
	span := math.Max(mid, 100-mid)
	rsiScore := indicators.Clamp01(1 - math.Abs(*s.RSI-mid)/span)

	hist := *s.MACD - *s.MACDSignal
	var macdScore float64
	switch {
	case *s.ATR > 0:
		macdScore = indicators.Logistic(hist / *s.ATR, 2)
	case hist > 0:
		macdScore = 1
	case hist < 0:
		macdScore = 0
	default:
		macdScore = 0.5
	}
	return (rsiScore + macdScore) / 2
}

// volatilityScore is the close's position inside the Bollinger envelope
// (%B), capped to [0,1]. Collapsed bands read neutral.
func volatilityScore(s domain.IndicatorSnapshot, price float64) float64 {
	width := *s.BBUpper - *s.BBLower
	if width <= 0 {
		return 0.5
	}
	return indicators.Clamp01((price - *s.BBLower) / width)
}

// volumeProfileScore: 0 below the value area, 1 above it, linear inside.
func volumeProfileScore(vp domain.VolumeProfile, price float64) float64 {
	width := vp.ValueAreaHigh - vp.ValueAreaLow
	if width <= 0 {
		return 0.5
	}
	return indicators.Clamp01((price - vp.ValueAreaLow) / width)
}
