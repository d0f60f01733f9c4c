package repository

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"prepump-screener/internal/domain"
)

// PostgresRankingStore keeps every scan run in Postgres. One run is written
// in a single transaction so readers never see a partial ranking.
type PostgresRankingStore struct {
	pool *pgxpool.Pool
}

func NewPostgresRankingStore(pool *pgxpool.Pool) *PostgresRankingStore {
	return &PostgresRankingStore{pool: pool}
}

func (s *PostgresRankingStore) SaveRun(ctx context.Context, run domain.ScanRun) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		insert into scan_runs(id, started_at, finished_at, timeframe, config_version, universe_size, ranked, failed)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		run.ID,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
		run.Timeframe,
		run.ConfigVersion,
		run.Universe,
		len(run.Rankings),
		len(run.Failures),
	); err != nil {
		return errors.Wrap(err, "insert run")
	}

	for _, rec := range run.Rankings {
		components, err := sonic.MarshalString(rec.ComponentScores)
		if err != nil {
			return errors.Wrapf(err, "encode components %s", rec.Symbol)
		}
		if _, err := tx.Exec(ctx, `
			insert into rankings(run_id, symbol, rank, total_score, component_scores, price, as_of)
			values ($1,$2,$3,$4,$5::jsonb,$6,$7)
		`, run.ID, rec.Symbol, rec.Rank, rec.TotalScore, components, rec.Price, rec.AsOf.UTC()); err != nil {
			return errors.Wrapf(err, "insert ranking %s", rec.Symbol)
		}
	}

	for _, a := range run.Analyses {
		for _, ev := range a.LatestSignals {
			conditions, patterns, err := encodeSignalLists(ev)
			if err != nil {
				return errors.Wrapf(err, "encode signal %s", a.Symbol)
			}
			if _, err := tx.Exec(ctx, `
				insert into signals(run_id, symbol, bar_time, strength, conditions, patterns, price, volume)
				values ($1,$2,$3,$4,$5::jsonb,$6::jsonb,$7,$8)
			`, run.ID, a.Symbol, ev.Time.UTC(), ev.Strength, conditions, patterns, ev.Price, ev.Volume); err != nil {
				return errors.Wrapf(err, "insert signal %s", a.Symbol)
			}
		}
	}

	for _, f := range run.Failures {
		if _, err := tx.Exec(ctx, `
			insert into scan_failures(run_id, symbol, stage, reason)
			values ($1,$2,$3,$4)
		`, run.ID, f.Symbol, f.Stage, f.Reason); err != nil {
			return errors.Wrapf(err, "insert failure %s", f.Symbol)
		}
	}

	return errors.Wrap(tx.Commit(ctx), "commit")
}

func (s *PostgresRankingStore) History(ctx context.Context, symbol string, limit int) ([]domain.RankingRecord, error) {
	rows, err := s.pool.Query(ctx, `
		select r.symbol, r.rank, r.total_score, r.component_scores::text, r.price, r.as_of, s.config_version
		from rankings r
		join scan_runs s on s.id = r.run_id
		where r.symbol = $1
		order by s.started_at desc
		limit $2
	`, symbol, historyLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, "query history")
	}
	defer rows.Close()

	records := make([]domain.RankingRecord, 0)
	for rows.Next() {
		rec, err := scanRankingRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, errors.Wrap(rows.Err(), "iterate history")
}

func (s *PostgresRankingStore) Close() error {
	s.pool.Close()
	return nil
}

// Helpers shared by the SQL stores.

type scanner interface {
	Scan(dest ...any) error
}

func scanRankingRecord(row scanner) (domain.RankingRecord, error) {
	var rec domain.RankingRecord
	var components string
	if err := row.Scan(
		&rec.Symbol,
		&rec.Rank,
		&rec.TotalScore,
		&components,
		&rec.Price,
		&rec.AsOf,
		&rec.ConfigVersion,
	); err != nil {
		return domain.RankingRecord{}, errors.Wrap(err, "scan ranking")
	}
	if err := sonic.UnmarshalString(components, &rec.ComponentScores); err != nil {
		return domain.RankingRecord{}, errors.Wrapf(err, "decode components %s", rec.Symbol)
	}
	rec.AsOf = rec.AsOf.UTC()
	return rec, nil
}

func encodeSignalLists(ev domain.SignalEvent) (string, string, error) {
	conditions, err := sonic.MarshalString(nonNil(ev.Conditions))
	if err != nil {
		return "", "", err
	}
	patterns, err := sonic.MarshalString(nonNil(ev.Patterns))
	if err != nil {
		return "", "", err
	}
	return conditions, patterns, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func historyLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 500
	}
	return limit
}

// compile-time check
var _ domain.RankingStore = (*PostgresRankingStore)(nil)
