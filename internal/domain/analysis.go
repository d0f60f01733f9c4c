package domain

import (
	"math"
	"time"
)

// Candle pattern names.
const (
	PatternHammer      = "hammer"
	PatternMorningStar = "morning_star"
	PatternEngulfing   = "engulfing"
	PatternDoji        = "doji"
)

// Signal sub-condition names.
const (
	ConditionTrend     = "trend"
	ConditionRSIBand   = "rsi_band"
	ConditionMACDCross = "macd_cross"
	ConditionSqueeze   = "squeeze"
	ConditionPattern   = "pattern"
	ConditionVolume    = "volume_spike"
)

// Ranking component names.
const (
	ComponentTrend         = "trend"
	ComponentMomentum      = "momentum"
	ComponentVolatility    = "volatility"
	ComponentVolumeProfile = "volume_profile"
	ComponentFundamental   = "fundamental"
	ComponentVolume        = "volume"
	ComponentSignal        = "signal"
)

// IndicatorPanel holds one value per candle for every indicator, aligned
// with the series. Bars still inside an indicator's warm-up window are NaN.
type IndicatorPanel struct {
	TrendStrength []float64
	RSI           []float64
	MACD          []float64
	MACDSignal    []float64
	BBUpper       []float64
	BBMiddle      []float64
	BBLower       []float64
	BBWidth       []float64
	ATR           []float64

	Hammer      []bool
	MorningStar []bool
	Engulfing   []bool
	Doji        []bool
}

func (p IndicatorPanel) Len() int {
	return len(p.RSI)
}

// Patterns lists the candle patterns flagged on bar i.
func (p IndicatorPanel) Patterns(i int) []string {
	var out []string
	if p.Hammer[i] {
		out = append(out, PatternHammer)
	}
	if p.MorningStar[i] {
		out = append(out, PatternMorningStar)
	}
	if p.Engulfing[i] {
		out = append(out, PatternEngulfing)
	}
	if p.Doji[i] {
		out = append(out, PatternDoji)
	}
	return out
}

// Snapshot copies row i out of the panel.
func (p IndicatorPanel) Snapshot(i int) IndicatorSnapshot {
	return IndicatorSnapshot{
		BarIndex:      i,
		TrendStrength: optional(p.TrendStrength[i]),
		RSI:           optional(p.RSI[i]),
		MACD:          optional(p.MACD[i]),
		MACDSignal:    optional(p.MACDSignal[i]),
		BBUpper:       optional(p.BBUpper[i]),
		BBMiddle:      optional(p.BBMiddle[i]),
		BBLower:       optional(p.BBLower[i]),
		ATR:           optional(p.ATR[i]),
		Hammer:        p.Hammer[i],
		MorningStar:   p.MorningStar[i],
		Engulfing:     p.Engulfing[i],
		Doji:          p.Doji[i],
	}
}

// IndicatorSnapshot is one panel row. A nil field is not yet available.
type IndicatorSnapshot struct {
	BarIndex      int      `json:"barIndex"`
	TrendStrength *float64 `json:"trendStrength"`
	RSI           *float64 `json:"rsi"`
	MACD          *float64 `json:"macd"`
	MACDSignal    *float64 `json:"macdSignal"`
	BBUpper       *float64 `json:"bbUpper"`
	BBMiddle      *float64 `json:"bbMiddle"`
	BBLower       *float64 `json:"bbLower"`
	ATR           *float64 `json:"atr"`
	Hammer        bool     `json:"hammer"`
	MorningStar   bool     `json:"morningStar"`
	Engulfing     bool     `json:"engulfing"`
	Doji          bool     `json:"doji"`
}

// FibonacciLevels anchored on the latest swing high and swing low. When
// HasSwing is false the levels are empty and Position is nil.
type FibonacciLevels struct {
	HasSwing       bool               `json:"hasSwing"`
	SwingHigh      float64            `json:"swingHigh"`
	SwingHighIndex int                `json:"swingHighIndex"`
	SwingLow       float64            `json:"swingLow"`
	SwingLowIndex  int                `json:"swingLowIndex"`
	Retracement    map[string]float64 `json:"retracement"`
	Extension      map[string]float64 `json:"extension"`
	Position       *float64           `json:"position"`
}

type VolumeBin struct {
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Volume float64 `json:"volume"`
}

type VolumeProfile struct {
	PointOfControl float64     `json:"pointOfControl"`
	ValueAreaHigh  float64     `json:"valueAreaHigh"`
	ValueAreaLow   float64     `json:"valueAreaLow"`
	TotalVolume    float64     `json:"totalVolume"`
	Bins           []VolumeBin `json:"bins,omitempty"`
}

// FundamentalMetrics are liquidity and volume figures derived from the series.
// MarketCap is nil without a circulating supply; VolumeTrend and VolumeScore
// are nil when the long volume average cannot be formed.
type FundamentalMetrics struct {
	MarketCap        *float64 `json:"marketCap"`
	Liquidity24h     float64  `json:"liquidity24h"`
	LiquidityBars    int      `json:"liquidityBars"`
	VolumeTrend      *float64 `json:"volumeTrend"`
	VolumeScore      *float64 `json:"volumeScore"`
	FundamentalScore float64  `json:"fundamentalScore"`

	// Per bar: volume over the mean of the preceding long-window volumes,
	// NaN until the window is full.
	VolumeRatios []float64 `json:"-"`
}

// SignalEvent marks a bar where enough pre-pump conditions agreed.
type SignalEvent struct {
	BarIndex   int       `json:"barIndex"`
	Time       time.Time `json:"time"`
	Strength   float64   `json:"strength"`
	Conditions []string  `json:"conditions"`
	Patterns   []string  `json:"patterns"`
	Price      float64   `json:"price"`
	Volume     float64   `json:"volume"`
}

// RankingRecord is a symbol's composite score for one run. Rank is 1-based
// and only set once the batch has been ordered.
type RankingRecord struct {
	Symbol          string             `json:"symbol"`
	Rank            int                `json:"rank"`
	TotalScore      float64            `json:"totalScore"`
	ComponentScores map[string]float64 `json:"componentScores"`
	Price           float64            `json:"price"`
	AsOf            time.Time          `json:"asOf"`
	ConfigVersion   string             `json:"configVersion"`
}

// Analysis is everything computed for one symbol in one run.
type Analysis struct {
	Symbol        string             `json:"symbol"`
	Timeframe     string             `json:"timeframe"`
	Bars          int                `json:"bars"`
	Price         float64            `json:"price"`
	AsOf          time.Time          `json:"asOf"`
	Indicators    IndicatorSnapshot  `json:"indicators"`
	Fibonacci     FibonacciLevels    `json:"fibonacci"`
	VolumeProfile VolumeProfile      `json:"volumeProfile"`
	Fundamentals  FundamentalMetrics `json:"fundamentals"`
	Signals       []SignalEvent      `json:"signals"`
	LatestSignals []SignalEvent      `json:"latestSignals"`
	Ranking       *RankingRecord     `json:"ranking,omitempty"`

	// Set when the symbol was analysed but left out of the ranking.
	ExcludedReason string `json:"excludedReason,omitempty"`
}

// LatestSignal returns the most recent signal event, or nil.
func (a Analysis) LatestSignal() *SignalEvent {
	if len(a.Signals) == 0 {
		return nil
	}
	ev := a.Signals[len(a.Signals)-1]
	return &ev
}

// ScanRun is the result of one screening cycle.
type ScanRun struct {
	ID            string          `json:"id"`
	StartedAt     time.Time       `json:"startedAt"`
	FinishedAt    time.Time       `json:"finishedAt"`
	Timeframe     string          `json:"timeframe"`
	ConfigVersion string          `json:"configVersion"`
	Universe      int             `json:"universe"`
	Rankings      []RankingRecord `json:"rankings"`
	Analyses      []Analysis      `json:"analyses"`
	Failures      []SymbolFailure `json:"failures"`
}

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
