package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Schema holds the ranking history tables. Statements are idempotent.
var Schema = []string{
	`create table if not exists scan_runs (
		id text primary key,
		started_at timestamptz not null,
		finished_at timestamptz not null,
		timeframe text not null,
		config_version text not null,
		universe_size integer not null,
		ranked integer not null,
		failed integer not null
	);`,
	`create table if not exists rankings (
		run_id text not null references scan_runs(id) on delete cascade,
		symbol text not null,
		rank integer not null,
		total_score double precision not null,
		component_scores jsonb not null,
		price double precision not null,
		as_of timestamptz not null,
		primary key (run_id, symbol)
	);`,
	`create index if not exists rankings_symbol_as_of_idx on rankings(symbol, as_of);`,
	`create table if not exists signals (
		run_id text not null references scan_runs(id) on delete cascade,
		symbol text not null,
		bar_time timestamptz not null,
		strength double precision not null,
		conditions jsonb not null,
		patterns jsonb not null,
		price double precision not null,
		volume double precision not null,
		primary key (run_id, symbol, bar_time)
	);`,
	`create table if not exists scan_failures (
		run_id text not null references scan_runs(id) on delete cascade,
		symbol text not null,
		stage text not null,
		reason text not null,
		primary key (run_id, symbol)
	);`,
}

// Migrate creates the ranking history tables in Postgres.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range Schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migration %d", i)
		}
	}
	return nil
}
