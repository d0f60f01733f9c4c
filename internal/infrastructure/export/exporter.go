package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"prepump-screener/internal/domain"
)

const timestampLayout = "20060102_150405"

// Exporter writes pump_signals_<ts> and pump_rankings_<ts> files for each
// scan run, one pair per configured format.
type Exporter struct {
	dir    string
	savers []Saver
	log    *zap.Logger
}

func NewExporter(dir string, formats []string, log *zap.Logger) (*Exporter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir == "" {
		dir = "."
	}
	e := &Exporter{dir: dir, log: log}
	for _, f := range formats {
		s := NewSaver(f)
		if s == nil {
			return nil, errors.Errorf("unsupported export format %q (use csv or parquet)", f)
		}
		e.savers = append(e.savers, s)
	}
	return e, nil
}

// Export writes the run and returns the created file paths. The timestamp
// comes from the run start so reruns of the same cycle overwrite.
func (e *Exporter) Export(run domain.ScanRun) ([]string, error) {
	if len(e.savers) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create export dir")
	}

	ts := run.StartedAt.UTC().Format(timestampLayout)
	signals := SignalRows(run)
	rankings := RankingRows(run)

	var paths []string
	for _, s := range e.savers {
		sigPath := filepath.Join(e.dir, fmt.Sprintf("pump_signals_%s.%s", ts, s.Extension()))
		if err := s.SaveSignals(signals, sigPath); err != nil {
			return paths, errors.Wrap(err, sigPath)
		}
		paths = append(paths, sigPath)

		rankPath := filepath.Join(e.dir, fmt.Sprintf("pump_rankings_%s.%s", ts, s.Extension()))
		if err := s.SaveRankings(rankings, rankPath); err != nil {
			return paths, errors.Wrap(err, rankPath)
		}
		paths = append(paths, rankPath)
	}

	e.log.Info("exported scan run",
		zap.String("run_id", run.ID),
		zap.Int("signals", len(signals)),
		zap.Int("rankings", len(rankings)),
		zap.Strings("files", paths),
	)
	return paths, nil
}
