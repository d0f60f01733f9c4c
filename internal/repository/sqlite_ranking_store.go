package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"prepump-screener/internal/domain"
)

// SQLiteRankingStore records scan runs in an embedded SQLite file. Times are
// stored as unix milliseconds.
type SQLiteRankingStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRankingStore opens (or creates) the database file and runs migrations.
func NewSQLiteRankingStore(path string, log *zap.Logger) (*SQLiteRankingStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create sqlite dir")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// Readers (http history) run while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	s := &SQLiteRankingStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	log.Info("sqlite ranking store opened", zap.String("path", path))
	return s, nil
}

func (s *SQLiteRankingStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id             TEXT PRIMARY KEY,
			started_at     INTEGER NOT NULL,
			finished_at    INTEGER NOT NULL,
			timeframe      TEXT NOT NULL,
			config_version TEXT NOT NULL,
			universe_size  INTEGER NOT NULL,
			ranked         INTEGER NOT NULL,
			failed         INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rankings (
			run_id           TEXT NOT NULL,
			symbol           TEXT NOT NULL,
			rank             INTEGER NOT NULL,
			total_score      REAL NOT NULL,
			component_scores TEXT NOT NULL,
			price            REAL NOT NULL,
			as_of            INTEGER NOT NULL,
			PRIMARY KEY (run_id, symbol)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rankings_symbol ON rankings(symbol, as_of)`,
		`CREATE TABLE IF NOT EXISTS signals (
			run_id     TEXT NOT NULL,
			symbol     TEXT NOT NULL,
			bar_time   INTEGER NOT NULL,
			strength   REAL NOT NULL,
			conditions TEXT NOT NULL,
			patterns   TEXT NOT NULL,
			price      REAL NOT NULL,
			volume     REAL NOT NULL,
			PRIMARY KEY (run_id, symbol, bar_time)
		)`,
		`CREATE TABLE IF NOT EXISTS scan_failures (
			run_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			stage  TEXT NOT NULL,
			reason TEXT NOT NULL,
			PRIMARY KEY (run_id, symbol)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrapf(err, "exec %q", stmt[:40])
		}
	}
	return nil
}

func (s *SQLiteRankingStore) SaveRun(ctx context.Context, run domain.ScanRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO scan_runs
		(id, started_at, finished_at, timeframe, config_version, universe_size, ranked, failed)
		VALUES (?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		run.Timeframe, run.ConfigVersion, run.Universe,
		len(run.Rankings), len(run.Failures),
	); err != nil {
		return errors.Wrap(err, "insert run")
	}

	for _, rec := range run.Rankings {
		components, err := sonic.MarshalString(rec.ComponentScores)
		if err != nil {
			return errors.Wrapf(err, "encode components %s", rec.Symbol)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO rankings
			(run_id, symbol, rank, total_score, component_scores, price, as_of)
			VALUES (?,?,?,?,?,?,?)`,
			run.ID, rec.Symbol, rec.Rank, rec.TotalScore, components, rec.Price, rec.AsOf.UnixMilli(),
		); err != nil {
			return errors.Wrapf(err, "insert ranking %s", rec.Symbol)
		}
	}

	for _, a := range run.Analyses {
		for _, ev := range a.LatestSignals {
			conditions, patterns, err := encodeSignalLists(ev)
			if err != nil {
				return errors.Wrapf(err, "encode signal %s", a.Symbol)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO signals
				(run_id, symbol, bar_time, strength, conditions, patterns, price, volume)
				VALUES (?,?,?,?,?,?,?,?)`,
				run.ID, a.Symbol, ev.Time.UnixMilli(), ev.Strength, conditions, patterns, ev.Price, ev.Volume,
			); err != nil {
				return errors.Wrapf(err, "insert signal %s", a.Symbol)
			}
		}
	}

	for _, f := range run.Failures {
		if _, err := tx.ExecContext(ctx, `INSERT INTO scan_failures
			(run_id, symbol, stage, reason) VALUES (?,?,?,?)`,
			run.ID, f.Symbol, f.Stage, f.Reason,
		); err != nil {
			return errors.Wrapf(err, "insert failure %s", f.Symbol)
		}
	}

	return errors.Wrap(tx.Commit(), "commit")
}

func (s *SQLiteRankingStore) History(ctx context.Context, symbol string, limit int) ([]domain.RankingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
			r.symbol, r.rank, r.total_score, r.component_scores, r.price, r.as_of, s.config_version
		FROM rankings r
		JOIN scan_runs s ON s.id = r.run_id
		WHERE r.symbol = ?
		ORDER BY s.started_at DESC
		LIMIT ?`, symbol, historyLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, "query history")
	}
	defer rows.Close()

	records := make([]domain.RankingRecord, 0)
	for rows.Next() {
		var rec domain.RankingRecord
		var components string
		var asOf int64
		if err := rows.Scan(
			&rec.Symbol,
			&rec.Rank,
			&rec.TotalScore,
			&components,
			&rec.Price,
			&asOf,
			&rec.ConfigVersion,
		); err != nil {
			return nil, errors.Wrap(err, "scan ranking")
		}
		if err := sonic.UnmarshalString(components, &rec.ComponentScores); err != nil {
			return nil, errors.Wrapf(err, "decode components %s", rec.Symbol)
		}
		rec.AsOf = time.UnixMilli(asOf).UTC()
		records = append(records, rec)
	}
	return records, errors.Wrap(rows.Err(), "iterate history")
}

// signalCount returns how many signal rows were stored for a run.
func (s *SQLiteRankingStore) signalCount(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM signals WHERE run_id = ?`, runID).Scan(&n)
	return n, errors.Wrap(err, "count signals")
}

func (s *SQLiteRankingStore) Close() error {
	return s.db.Close()
}

// compile-time check
var _ domain.RankingStore = (*SQLiteRankingStore)(nil)
