package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepump-screener/internal/domain"
)

func testRun() domain.ScanRun {
	started := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	rec := func(sym string, rank int, score float64) domain.RankingRecord {
		return domain.RankingRecord{
			Symbol:     sym,
			Rank:       rank,
			TotalScore: score,
			ComponentScores: map[string]float64{
				domain.ComponentTrend:         0.5,
				domain.ComponentVolumeProfile: 0.25,
				domain.ComponentSignal:        1,
			},
			Price:         2.5,
			AsOf:          started.Add(-time.Hour),
			ConfigVersion: "v1",
		}
	}
	return domain.ScanRun{
		ID:        "run-1",
		StartedAt: started,
		Rankings:  []domain.RankingRecord{rec("BBBUSDT", 1, 80), rec("AAAUSDT", 2, 60)},
		Analyses: []domain.Analysis{
			{Symbol: "BBBUSDT", Signals: []domain.SignalEvent{
				{BarIndex: 9, Time: started.Add(-time.Hour), Strength: 0.8, Conditions: []string{"trend", "squeeze"}, Patterns: []string{"hammer"}, Price: 2.5, Volume: 10},
				{BarIndex: 3, Time: started.Add(-7 * time.Hour), Strength: 0.6, Conditions: []string{"trend"}, Price: 2.1, Volume: 4},
			}},
			{Symbol: "AAAUSDT", Signals: []domain.SignalEvent{
				{BarIndex: 5, Time: started.Add(-5 * time.Hour), Strength: 0.6, Conditions: []string{"rsi_band"}, Price: 1, Volume: 1},
			}},
		},
	}
}

func TestRowsOrdering(t *testing.T) {
	signals := SignalRows(testRun())
	require.Len(t, signals, 3)
	assert.Equal(t, "AAAUSDT", signals[0].Symbol)
	assert.Equal(t, int64(3), signals[1].BarIndex)
	assert.Equal(t, "trend|squeeze", signals[2].Conditions)
	assert.Equal(t, "hammer", signals[2].Patterns)

	rankings := RankingRows(testRun())
	require.Len(t, rankings, 2)
	assert.Equal(t, "BBBUSDT", rankings[0].Symbol)
	assert.Equal(t, 0.25, rankings[0].VolumeProfile)
	assert.Equal(t, 0.0, rankings[0].Momentum)
}

func TestExportCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	e, err := NewExporter(dir, []string{"csv"}, nil)
	require.NoError(t, err)

	paths, err := e.Export(testRun())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "pump_signals_20240506_070809.csv"),
		filepath.Join(dir, "pump_rankings_20240506_070809.csv"),
	}, paths)

	f, err := os.Open(paths[1])
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "rank", records[0][0])
	assert.Equal(t, []string{"1", "BBBUSDT", "80"}, records[1][:3])
}

func TestExportParquet(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir, []string{"parquet"}, nil)
	require.NoError(t, err)

	paths, err := e.Export(testRun())
	require.NoError(t, err)
	require.Len(t, paths, 2)

	rankings, err := parquet.ReadFile[RankingRow](paths[1])
	require.NoError(t, err)
	assert.Equal(t, RankingRows(testRun()), rankings)

	signals, err := parquet.ReadFile[SignalRow](paths[0])
	require.NoError(t, err)
	assert.Len(t, signals, 3)
}

func TestNewExporterRejectsUnknownFormat(t *testing.T) {
	_, err := NewExporter(t.TempDir(), []string{"csv", "xlsx"}, nil)
	assert.Error(t, err)
}
