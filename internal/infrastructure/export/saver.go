package export

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

// Saver writes signal and ranking rows in one file format.
type Saver interface {
	Extension() string
	SaveSignals(rows []SignalRow, path string) error
	SaveRankings(rows []RankingRow, path string) error
}

// NewSaver returns the saver for format (csv or parquet), or nil if the
// format is not supported.
func NewSaver(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	default:
		return nil
	}
}

type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) SaveSignals(rows []SignalRow, path string) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Symbol,
			strconv.FormatInt(r.Time, 10),
			strconv.FormatInt(r.BarIndex, 10),
			floatStr(r.Strength),
			r.Conditions,
			r.Patterns,
			floatStr(r.Price),
			floatStr(r.Volume),
		})
	}
	header := []string{"symbol", "time", "bar_index", "strength", "conditions", "patterns", "price", "volume"}
	return writeCSV(path, header, records)
}

func (CSVSaver) SaveRankings(rows []RankingRow, path string) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.FormatInt(r.Rank, 10),
			r.Symbol,
			floatStr(r.TotalScore),
			floatStr(r.Trend),
			floatStr(r.Momentum),
			floatStr(r.Volatility),
			floatStr(r.VolumeProfile),
			floatStr(r.Fundamental),
			floatStr(r.Volume),
			floatStr(r.Signal),
			floatStr(r.Price),
			strconv.FormatInt(r.AsOf, 10),
			r.ConfigVersion,
		})
	}
	header := []string{
		"rank", "symbol", "total_score",
		"trend", "momentum", "volatility", "volume_profile", "fundamental", "volume", "signal",
		"price", "as_of", "config_version",
	}
	return writeCSV(path, header, records)
}

func writeCSV(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}
	if err := w.WriteAll(records); err != nil {
		return errors.Wrap(err, "write rows")
	}
	return errors.Wrap(f.Sync(), "sync csv")
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) SaveSignals(rows []SignalRow, path string) error {
	return errors.Wrap(parquet.WriteFile(path, rows), "write signals parquet")
}

func (ParquetSaver) SaveRankings(rows []RankingRow, path string) error {
	return errors.Wrap(parquet.WriteFile(path, rows), "write rankings parquet")
}
