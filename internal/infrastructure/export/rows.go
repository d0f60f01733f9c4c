package export

import (
	"sort"
	"strings"

	"prepump-screener/internal/domain"
)

// SignalRow is one exported pre-pump signal event.
type SignalRow struct {
	Symbol     string  `parquet:"symbol"`
	Time       int64   `parquet:"time"` // unix ms of the bar open
	BarIndex   int64   `parquet:"bar_index"`
	Strength   float64 `parquet:"strength"`
	Conditions string  `parquet:"conditions"`
	Patterns   string  `parquet:"patterns"`
	Price      float64 `parquet:"price"`
	Volume     float64 `parquet:"volume"`
}

// RankingRow flattens a ranking record with one column per component.
type RankingRow struct {
	Rank          int64   `parquet:"rank"`
	Symbol        string  `parquet:"symbol"`
	TotalScore    float64 `parquet:"total_score"`
	Trend         float64 `parquet:"trend"`
	Momentum      float64 `parquet:"momentum"`
	Volatility    float64 `parquet:"volatility"`
	VolumeProfile float64 `parquet:"volume_profile"`
	Fundamental   float64 `parquet:"fundamental"`
	Volume        float64 `parquet:"volume"`
	Signal        float64 `parquet:"signal"`
	Price         float64 `parquet:"price"`
	AsOf          int64   `parquet:"as_of"`
	ConfigVersion string  `parquet:"config_version"`
}

// SignalRows lists every signal of every analysed symbol, ordered by symbol
// then bar time.
func SignalRows(run domain.ScanRun) []SignalRow {
	rows := make([]SignalRow, 0)
	for _, a := range run.Analyses {
		for _, ev := range a.Signals {
			rows = append(rows, SignalRow{
				Symbol:     a.Symbol,
				Time:       ev.Time.UnixMilli(),
				BarIndex:   int64(ev.BarIndex),
				Strength:   ev.Strength,
				Conditions: strings.Join(ev.Conditions, "|"),
				Patterns:   strings.Join(ev.Patterns, "|"),
				Price:      ev.Price,
				Volume:     ev.Volume,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Symbol != rows[j].Symbol {
			return rows[i].Symbol < rows[j].Symbol
		}
		return rows[i].Time < rows[j].Time
	})
	return rows
}

// RankingRows keeps the run's rank order.
func RankingRows(run domain.ScanRun) []RankingRow {
	rows := make([]RankingRow, 0, len(run.Rankings))
	for _, r := range run.Rankings {
		c := r.ComponentScores
		rows = append(rows, RankingRow{
			Rank:          int64(r.Rank),
			Symbol:        r.Symbol,
			TotalScore:    r.TotalScore,
			Trend:         c[domain.ComponentTrend],
			Momentum:      c[domain.ComponentMomentum],
			Volatility:    c[domain.ComponentVolatility],
			VolumeProfile: c[domain.ComponentVolumeProfile],
			Fundamental:   c[domain.ComponentFundamental],
			Volume:        c[domain.ComponentVolume],
			Signal:        c[domain.ComponentSignal],
			Price:         r.Price,
			AsOf:          r.AsOf.UnixMilli(),
			ConfigVersion: r.ConfigVersion,
		})
	}
	return rows
}
