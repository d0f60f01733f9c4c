package domain

import "context"

// ScreenerRepository keeps the latest scan run for serving.
type ScreenerRepository interface {
	SaveRun(run ScanRun)
	LatestRun() (ScanRun, bool)
	GetRankings() []RankingRecord
	GetAnalysis(symbol string) (Analysis, bool)
	GetFailures() []SymbolFailure
}

// RankingStore persists scan runs for history.
type RankingStore interface {
	SaveRun(ctx context.Context, run ScanRun) error
	// History returns the stored ranking records of one symbol, newest first.
	History(ctx context.Context, symbol string, limit int) ([]RankingRecord, error)
	Close() error
}
