package usecase

import (
	"prepump-screener/internal/config"
	"prepump-screener/internal/domain"
	"prepump-screener/internal/infrastructure/indicators"
)

// BuildPanel computes every indicator column over the series. Short series
// are not an error: columns simply stay NaN until their window fills.
func BuildPanel(series domain.Series, cfg config.Analysis) domain.IndicatorPanel {
	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	ic := cfg.Indicators

	macd := indicators.CalculateMACD(closes, ic.MACDFast, ic.MACDSlow, ic.MACDSignal)
	bb := indicators.CalculateBollingerBands(closes, ic.BollingerPeriod, ic.BollingerK)
	patterns := indicators.DetectPatterns(toBars(series), cfg.Patterns)

	return domain.IndicatorPanel{
		TrendStrength: indicators.CalculateTrendStrength(closes, ic.TrendFast, ic.TrendSlow),
		RSI:           indicators.CalculateRSI(closes, ic.RSIPeriod),
		MACD:          macd.Line,
		MACDSignal:    macd.Signal,
		BBUpper:       bb.Upper,
		BBMiddle:      bb.Middle,
		BBLower:       bb.Lower,
		BBWidth:       bb.Width(),
		ATR:           indicators.CalculateATR(highs, lows, closes, ic.ATRPeriod),
		Hammer:        patterns.Hammer,
		MorningStar:   patterns.MorningStar,
		Engulfing:     patterns.Engulfing,
		Doji:          patterns.Doji,
	}
}

// BuildFibonacci anchors the level grid on the latest swing pair. Without one
// it returns an empty record together with domain.ErrNoSwing.
func BuildFibonacci(series domain.Series, cfg config.Analysis) (domain.FibonacciLevels, error) {
	if series.Len() == 0 {
		return domain.FibonacciLevels{}, domain.ErrNoSwing
	}
	high, low, ok := indicators.FindSwings(series.Highs(), series.Lows(), cfg.Fibonacci.SwingWindow)
	if !ok {
		return domain.FibonacciLevels{}, domain.ErrNoSwing
	}

	fib := indicators.CalculateFibonacci(high, low, series.Last().Close)
	return domain.FibonacciLevels{
		HasSwing:       true,
		SwingHigh:      fib.SwingHigh.Price,
		SwingHighIndex: fib.SwingHigh.Index,
		SwingLow:       fib.SwingLow.Price,
		SwingLowIndex:  fib.SwingLow.Index,
		Retracement:    fib.Retracement,
		Extension:      fib.Extension,
		Position:       domain.Float(fib.Position),
	}, nil
}

// BuildVolumeProfile bins the whole series window.
func BuildVolumeProfile(series domain.Series, cfg config.Analysis) domain.VolumeProfile {
	if series.Len() == 0 {
		return domain.VolumeProfile{}
	}
	vp := indicators.CalculateVolumeProfile(
		series.Highs(), series.Lows(), series.Volumes(),
		series.Last().Close,
		cfg.VolumeProfile.Bins, cfg.VolumeProfile.ValueArea,
	)

	bins := make([]domain.VolumeBin, len(vp.Bins))
	for i, b := range vp.Bins {
		bins[i] = domain.VolumeBin{Low: b.Low, High: b.High, Volume: b.Volume}
	}
	return domain.VolumeProfile{
		PointOfControl: vp.PointOfControl,
		ValueAreaHigh:  vp.ValueAreaHigh,
		ValueAreaLow:   vp.ValueAreaLow,
		TotalVolume:    vp.TotalVolume,
		Bins:           bins,
	}
}

func toBars(series domain.Series) []indicators.Bar {
	bars := make([]indicators.Bar, series.Len())
	for i, c := range series.Candles {
		bars[i] = indicators.Bar{Open: c.Open, High: c.High, Low: c.Low, Close: c.Close}
	}
	return bars
}
