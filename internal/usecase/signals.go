package usecase

import (
	"prepump-screener/internal/config"
	"prepump-screener/internal/domain"
	"prepump-screener/internal/infrastructure/indicators"
)

// conditions is the outcome of every pre-pump check on one bar.
type conditions struct {
	Trend     bool
	RSIBand   bool
	MACDCross bool
	Squeeze   bool
	Pattern   bool
	Volume    bool
}

func (c conditions) names() []string {
	var out []string
	if c.Trend {
		out = append(out, domain.ConditionTrend)
	}
	if c.RSIBand {
		out = append(out, domain.ConditionRSIBand)
	}
	if c.MACDCross {
		out = append(out, domain.ConditionMACDCross)
	}
	if c.Squeeze {
		out = append(out, domain.ConditionSqueeze)
	}
	if c.Pattern {
		out = append(out, domain.ConditionPattern)
	}
	if c.Volume {
		out = append(out, domain.ConditionVolume)
	}
	return out
}

func (c conditions) count() int {
	return len(c.names())
}

// strength is the weight of the satisfied checks over the weight of all of
// them, so it can only grow as more checks pass.
func (c conditions) strength(w config.SignalWeights) float64 {
	total := w.Trend + w.RSIBand + w.MACDCross + w.Squeeze + w.Pattern + w.Volume
	if total <= 0 {
		return 0
	}
	got := 0.0
	if c.Trend {
		got += w.Trend
	}
	if c.RSIBand {
		got += w.RSIBand
	}
	if c.MACDCross {
		got += w.MACDCross
	}
	if c.Squeeze {
		got += w.Squeeze
	}
	if c.Pattern {
		got += w.Pattern
	}
	if c.Volume {
		got += w.Volume
	}
	return got / total
}

// DetectSignals walks the panel bar by bar and emits an event wherever at
// least MinAgreement checks hold. Bars below the threshold produce nothing.
// The volume check reads fund.VolumeRatios, so fund must come from the same
// series.
func DetectSignals(series domain.Series, panel domain.IndicatorPanel, fund domain.FundamentalMetrics, cfg config.SignalConfig) []domain.SignalEvent {
	macd := indicators.MACD{Line: panel.MACD, Signal: panel.MACDSignal}

	var events []domain.SignalEvent
	for i := 0; i < panel.Len(); i++ {
		c := evaluateBar(panel, macd, fund.VolumeRatios, i, cfg)
		if c.count() == 0 || c.count() < cfg.MinAgreement {
			continue
		}
		candle := series.Candles[i]
		events = append(events, domain.SignalEvent{
			BarIndex:   i,
			Time:       candle.OpenTime,
			Strength:   c.strength(cfg.Weights),
			Conditions: c.names(),
			Patterns:   panel.Patterns(i),
			Price:      candle.Close,
			Volume:     candle.Volume,
		})
	}
	return events
}

func evaluateBar(panel domain.IndicatorPanel, macd indicators.MACD, volRatios []float64, i int, cfg config.SignalConfig) conditions {
	var c conditions

	if ts := panel.TrendStrength[i]; indicators.Defined(ts) && ts > cfg.TrendThreshold {
		c.Trend = true
	}
	if rsi := panel.RSI[i]; indicators.Defined(rsi) && rsi >= cfg.RSILow && rsi <= cfg.RSIHigh {
		c.RSIBand = true
	}
	c.MACDCross = macd.CrossedAbove(i, cfg.MACDCrossWindow)
	c.Squeeze = bandSqueeze(panel.BBWidth, i, cfg) || atrContraction(panel.ATR, i, cfg)
	c.Pattern = panel.Hammer[i] || panel.MorningStar[i] || panel.Engulfing[i] || panel.Doji[i]
	if i < len(volRatios) && indicators.Defined(volRatios[i]) && volRatios[i] >= cfg.VolumeSpikeRatio {
		c.Volume = true
	}

	return c
}

// bandSqueeze: band width strictly below the configured percentile of the
// widths seen over the preceding lookback bars.
func bandSqueeze(width []float64, i int, cfg config.SignalConfig) bool {
	if !indicators.Defined(width[i]) {
		return false
	}
	from := i - cfg.SqueezeLookback
	if from < 0 {
		from = 0
	}
	threshold, ok := indicators.Percentile(width[from:i], cfg.SqueezePercentile)
	return ok && width[i] < threshold
}

// atrContraction: ATR strictly below ratio times its value lookback bars ago.
func atrContraction(atr []float64, i int, cfg config.SignalConfig) bool {
	j := i - cfg.SqueezeLookback
	if j < 0 || !indicators.Defined(atr[i]) || !indicators.Defined(atr[j]) {
		return false
	}
	return atr[i] < cfg.ATRContraction*atr[j]
}
