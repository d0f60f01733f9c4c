package usecase

import (
	"prepump-screener/internal/config"
	"prepump-screener/internal/domain"
)

// Analyzer runs the per-symbol pipeline. It holds only read-only
// configuration and is safe to share between goroutines.
type Analyzer struct {
	cfg           config.Analysis
	latestSignals int
}

func NewAnalyzer(cfg config.Analysis, latestSignals int) *Analyzer {
	if latestSignals < 1 {
		latestSignals = 5
	}
	return &Analyzer{cfg: cfg, latestSignals: latestSignals}
}

func (a *Analyzer) Config() config.Analysis {
	return a.cfg
}

// Analyze validates the series and computes every record for it. An invalid
// series is returned as an error. A valid series whose last bar cannot be
// ranked comes back with a nil Ranking and ExcludedReason set.
func (a *Analyzer) Analyze(series domain.Series, supply *float64) (domain.Analysis, error) {
	if err := series.Validate(); err != nil {
		return domain.Analysis{}, err
	}

	panel := BuildPanel(series, a.cfg)
	last := series.Last()
	lastIdx := series.Len() - 1

	// ErrNoSwing only means the levels stay empty
	fib, _ := BuildFibonacci(series, a.cfg)

	vp := BuildVolumeProfile(series, a.cfg)
	fund := ComputeFundamentals(series, supply, a.cfg.Fundamentals)
	signals := DetectSignals(series, panel, fund, a.cfg.Signals)

	res := domain.Analysis{
		Symbol:        series.Symbol,
		Timeframe:     series.Timeframe,
		Bars:          series.Len(),
		Price:         last.Close,
		AsOf:          last.OpenTime,
		Indicators:    panel.Snapshot(lastIdx),
		Fibonacci:     fib,
		VolumeProfile: vp,
		Fundamentals:  fund,
		Signals:       signals,
		LatestSignals: tail(signals, a.latestSignals),
	}

	rec, err := ScoreSymbol(RankInput{
		Symbol:        series.Symbol,
		Price:         last.Close,
		AsOf:          last.OpenTime,
		LastIndex:     lastIdx,
		Indicators:    res.Indicators,
		VolumeProfile: vp,
		Fundamentals:  fund,
		LatestSignal:  res.LatestSignal(),
	}, a.cfg)
	if err != nil {
		res.ExcludedReason = err.Error()
		return res, nil
	}
	res.Ranking = &rec
	return res, nil
}

func tail(events []domain.SignalEvent, n int) []domain.SignalEvent {
	if len(events) <= n {
		return events
	}
	return events[len(events)-n:]
}
