package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"prepump-screener/internal/infrastructure/indicators"
)

const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Binance struct {
		BaseURL        string        `yaml:"base_url"`
		Timeframe      string        `yaml:"timeframe"`
		CandleLimit    int           `yaml:"candle_limit"`
		QuoteAsset     string        `yaml:"quote_asset"`
		Symbols        []string      `yaml:"symbols"`
		MaxSymbols     int           `yaml:"max_symbols"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"binance"`
	Server struct {
		HTTPAddr string `yaml:"http_addr"`
	} `yaml:"server"`
	Database struct {
		URL        string `yaml:"url"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		ScanCron   string `yaml:"scan_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Screener struct {
		Concurrency   int `yaml:"concurrency"`
		LatestSignals int `yaml:"latest_signals"`
	} `yaml:"screener"`
	Alerts struct {
		TopN     int           `yaml:"top_n"`
		Cooldown time.Duration `yaml:"cooldown"`
	} `yaml:"alerts"`
	Export struct {
		Dir     string   `yaml:"dir"`
		Formats []string `yaml:"formats"`
	} `yaml:"export"`
	Firebase struct {
		CredentialsPath string `yaml:"credentials_path"`
	} `yaml:"firebase"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	// Circulating supply per symbol, used for the market cap proxy.
	Supply map[string]float64 `yaml:"supply"`

	Analysis Analysis `yaml:"analysis"`
}

// Analysis is every knob of the scoring pipeline. It is passed by value
// through the engines; Version is stamped on every ranking record.
type Analysis struct {
	Version       string                       `yaml:"version"`
	Indicators    IndicatorConfig              `yaml:"indicators"`
	Patterns      indicators.PatternThresholds `yaml:"patterns"`
	Fibonacci     FibonacciConfig              `yaml:"fibonacci"`
	VolumeProfile VolumeProfileConfig          `yaml:"volume_profile"`
	Fundamentals  FundamentalConfig            `yaml:"fundamentals"`
	Signals       SignalConfig                 `yaml:"signals"`
	Ranking       RankingConfig                `yaml:"ranking"`
}

type IndicatorConfig struct {
	TrendFast       int     `yaml:"trend_fast"`
	TrendSlow       int     `yaml:"trend_slow"`
	RSIPeriod       int     `yaml:"rsi_period"`
	MACDFast        int     `yaml:"macd_fast"`
	MACDSlow        int     `yaml:"macd_slow"`
	MACDSignal      int     `yaml:"macd_signal"`
	BollingerPeriod int     `yaml:"bollinger_period"`
	BollingerK      float64 `yaml:"bollinger_k"`
	ATRPeriod       int     `yaml:"atr_period"`
}

type FibonacciConfig struct {
	SwingWindow int `yaml:"swing_window"`
}

type VolumeProfileConfig struct {
	Bins      int     `yaml:"bins"`
	ValueArea float64 `yaml:"value_area"`
}

type FundamentalConfig struct {
	LiquidityHours     float64            `yaml:"liquidity_hours"`
	VolumeShort        int                `yaml:"volume_short"`
	VolumeLong         int                `yaml:"volume_long"`
	VolumeSteepness    float64            `yaml:"volume_steepness"`
	LiquidityReference float64            `yaml:"liquidity_reference"`
	MarketCapPivot     float64            `yaml:"market_cap_pivot"`
	Weights            FundamentalWeights `yaml:"weights"`
}

type FundamentalWeights struct {
	Volume    float64 `yaml:"volume"`
	Liquidity float64 `yaml:"liquidity"`
	MarketCap float64 `yaml:"market_cap"`
}

type SignalConfig struct {
	TrendThreshold    float64       `yaml:"trend_threshold"`
	RSILow            float64       `yaml:"rsi_low"`
	RSIHigh           float64       `yaml:"rsi_high"`
	MACDCrossWindow   int           `yaml:"macd_cross_window"`
	SqueezeLookback   int           `yaml:"squeeze_lookback"`
	SqueezePercentile float64       `yaml:"squeeze_percentile"`
	ATRContraction    float64       `yaml:"atr_contraction"`
	VolumeSpikeRatio  float64       `yaml:"volume_spike_ratio"`
	MinAgreement      int           `yaml:"min_agreement"`
	Weights           SignalWeights `yaml:"weights"`
}

type SignalWeights struct {
	Trend     float64 `yaml:"trend"`
	RSIBand   float64 `yaml:"rsi_band"`
	MACDCross float64 `yaml:"macd_cross"`
	Squeeze   float64 `yaml:"squeeze"`
	Pattern   float64 `yaml:"pattern"`
	Volume    float64 `yaml:"volume"`
}

type RankingConfig struct {
	Weights          RankingWeights `yaml:"weights"`
	ScoreScale       float64        `yaml:"score_scale"`
	ScoreMin         float64        `yaml:"score_min"`
	ScoreMax         float64        `yaml:"score_max"`
	RecentSignalBars int            `yaml:"recent_signal_bars"`
}

type RankingWeights struct {
	Trend         float64 `yaml:"trend"`
	Momentum      float64 `yaml:"momentum"`
	Volatility    float64 `yaml:"volatility"`
	VolumeProfile float64 `yaml:"volume_profile"`
	Fundamental   float64 `yaml:"fundamental"`
	Volume        float64 `yaml:"volume"`
	Signal        float64 `yaml:"signal"`
}

// DefaultAnalysis is the reference configuration, recorded as weights-v1.
func DefaultAnalysis() Analysis {
	return Analysis{
		Version: "weights-v1",
		Indicators: IndicatorConfig{
			TrendFast:       20,
			TrendSlow:       50,
			RSIPeriod:       14,
			MACDFast:        12,
			MACDSlow:        26,
			MACDSignal:      9,
			BollingerPeriod: 20,
			BollingerK:      2.0,
			ATRPeriod:       14,
		},
		Patterns:      indicators.DefaultPatternThresholds(),
		Fibonacci:     FibonacciConfig{SwingWindow: 5},
		VolumeProfile: VolumeProfileConfig{Bins: 24, ValueArea: 0.70},
		Fundamentals: FundamentalConfig{
			LiquidityHours:     24,
			VolumeShort:        5,
			VolumeLong:         20,
			VolumeSteepness:    2.0,
			LiquidityReference: 10_000_000,
			MarketCapPivot:     1_000_000_000,
			Weights: FundamentalWeights{
				Volume:    0.4,
				Liquidity: 0.4,
				MarketCap: 0.2,
			},
		},
		Signals: SignalConfig{
			TrendThreshold:    0.5,
			RSILow:            40,
			RSIHigh:           70,
			MACDCrossWindow:   3,
			SqueezeLookback:   50,
			SqueezePercentile: 20,
			ATRContraction:    0.8,
			VolumeSpikeRatio:  1.15,
			MinAgreement:      3,
			Weights: SignalWeights{
				Trend:     1,
				RSIBand:   1,
				MACDCross: 1,
				Squeeze:   1,
				Pattern:   1,
				Volume:    1,
			},
		},
		Ranking: RankingConfig{
			Weights: RankingWeights{
				Trend:         0.15,
				Momentum:      0.15,
				Volatility:    0.10,
				VolumeProfile: 0.10,
				Fundamental:   0.15,
				Volume:        0.15,
				Signal:        0.20,
			},
			ScoreScale:       100,
			ScoreMin:         0,
			ScoreMax:         100,
			RecentSignalBars: 5,
		},
	}
}

// Default returns a complete configuration without reading any file.
func Default() *Config {
	cfg := &Config{Analysis: DefaultAnalysis()}
	cfg.Binance.BaseURL = "https://api.binance.com"
	cfg.Binance.Timeframe = "1h"
	cfg.Binance.CandleLimit = 200
	cfg.Binance.QuoteAsset = "USDT"
	cfg.Binance.RequestTimeout = 15 * time.Second
	cfg.Server.HTTPAddr = ":8080"
	cfg.Database.SQLitePath = "data/prepump.db"
	cfg.Schedule.ScanCron = "0 */15 * * * *"
	cfg.Schedule.RunOnStart = true
	cfg.Screener.Concurrency = 10
	cfg.Screener.LatestSignals = 5
	cfg.Alerts.TopN = 5
	cfg.Alerts.Cooldown = 30 * time.Minute
	cfg.Export.Dir = "exports"
	cfg.Export.Formats = []string{"csv"}
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Supply = map[string]float64{}
	return cfg
}

// Load starts from Default, overlays the YAML file at path (a missing file is
// fine) and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := env("BINANCE_BASE_URL"); v != "" {
		cfg.Binance.BaseURL = v
	}
	if v := env("TIMEFRAME"); v != "" {
		cfg.Binance.Timeframe = v
	}
	if v := env("CANDLE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Binance.CandleLimit = n
		}
	}
	if v := env("SYMBOLS"); v != "" {
		cfg.Binance.Symbols = splitList(v)
	}
	if v := env("HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := env("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := env("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := env("SCAN_CRON"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := env("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Schedule.RunOnStart = b
		}
	}
	if v := env("SCREENER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Screener.Concurrency = n
		}
	}
	if v := env("EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := env("FIREBASE_CREDENTIALS_PATH"); v != "" {
		cfg.Firebase.CredentialsPath = v
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// Validate rejects configurations the engines would compute garbage with.
func (c *Config) Validate() error {
	if c.Binance.BaseURL == "" {
		return errors.New("binance.base_url is required")
	}
	if c.Binance.Timeframe == "" {
		return errors.New("binance.timeframe is required")
	}
	if c.Binance.CandleLimit < 1 {
		return errors.New("binance.candle_limit must be positive")
	}
	if c.Screener.Concurrency < 1 {
		return errors.New("screener.concurrency must be positive")
	}
	if c.Schedule.ScanCron == "" {
		return errors.New("schedule.scan_cron is required")
	}
	for sym, supply := range c.Supply {
		if supply <= 0 {
			return errors.Errorf("supply.%s must be positive", sym)
		}
	}
	return c.Analysis.Validate()
}

func (a Analysis) Validate() error {
	ind := a.Indicators
	for name, v := range map[string]int{
		"trend_fast":        ind.TrendFast,
		"trend_slow":        ind.TrendSlow,
		"rsi_period":        ind.RSIPeriod,
		"macd_fast":         ind.MACDFast,
		"macd_slow":         ind.MACDSlow,
		"macd_signal":       ind.MACDSignal,
		"bollinger_period":  ind.BollingerPeriod,
		"atr_period":        ind.ATRPeriod,
		"swing_window":      a.Fibonacci.SwingWindow,
		"volume_short":      a.Fundamentals.VolumeShort,
		"volume_long":       a.Fundamentals.VolumeLong,
		"macd_cross_window": a.Signals.MACDCrossWindow,
		"squeeze_lookback":  a.Signals.SqueezeLookback,
	} {
		if v < 1 {
			return errors.Errorf("analysis: %s must be positive, got %d", name, v)
		}
	}
	if ind.TrendFast >= ind.TrendSlow {
		return errors.New("analysis: trend_fast must be shorter than trend_slow")
	}
	if ind.MACDFast >= ind.MACDSlow {
		return errors.New("analysis: macd_fast must be shorter than macd_slow")
	}
	if ind.BollingerK <= 0 {
		return errors.New("analysis: bollinger_k must be positive")
	}
	if a.Fundamentals.VolumeShort > a.Fundamentals.VolumeLong {
		return errors.New("analysis: volume_short must not exceed volume_long")
	}
	if a.Fundamentals.LiquidityHours <= 0 {
		return errors.New("analysis: liquidity_hours must be positive")
	}
	if a.Fundamentals.LiquidityReference <= 0 || a.Fundamentals.MarketCapPivot <= 0 {
		return errors.New("analysis: liquidity_reference and market_cap_pivot must be positive")
	}
	if a.VolumeProfile.Bins < 1 {
		return errors.New("analysis: volume_profile.bins must be at least 1")
	}
	if a.VolumeProfile.ValueArea <= 0 || a.VolumeProfile.ValueArea > 1 {
		return errors.New("analysis: volume_profile.value_area must be in (0,1]")
	}
	if a.Signals.RSILow >= a.Signals.RSIHigh {
		return errors.New("analysis: rsi_low must be below rsi_high")
	}
	if a.Signals.SqueezePercentile < 0 || a.Signals.SqueezePercentile > 100 {
		return errors.New("analysis: squeeze_percentile must be in [0,100]")
	}
	if a.Signals.VolumeSpikeRatio <= 0 {
		return errors.New("analysis: volume_spike_ratio must be positive")
	}
	if a.Signals.MinAgreement < 1 || a.Signals.MinAgreement > 6 {
		return errors.New("analysis: min_agreement must be between 1 and 6")
	}
	if a.Ranking.ScoreMin >= a.Ranking.ScoreMax {
		return errors.New("analysis: score_min must be below score_max")
	}
	if a.Ranking.RecentSignalBars < 0 {
		return errors.New("analysis: recent_signal_bars must not be negative")
	}
	if err := checkWeights("fundamentals.weights",
		a.Fundamentals.Weights.Volume, a.Fundamentals.Weights.Liquidity, a.Fundamentals.Weights.MarketCap); err != nil {
		return err
	}
	sw := a.Signals.Weights
	if err := checkWeights("signals.weights", sw.Trend, sw.RSIBand, sw.MACDCross, sw.Squeeze, sw.Pattern, sw.Volume); err != nil {
		return err
	}
	rw := a.Ranking.Weights
	return checkWeights("ranking.weights",
		rw.Trend, rw.Momentum, rw.Volatility, rw.VolumeProfile, rw.Fundamental, rw.Volume, rw.Signal)
}

func checkWeights(name string, ws ...float64) error {
	sum := 0.0
	for _, w := range ws {
		if w < 0 {
			return errors.Errorf("analysis: %s must not be negative", name)
		}
		sum += w
	}
	if sum == 0 {
		return errors.Errorf("analysis: %s must not all be zero", name)
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
