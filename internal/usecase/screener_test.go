package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepump-screener/internal/config"
	"prepump-screener/internal/domain"
	"prepump-screener/internal/repository"
)

type stubSource struct {
	series map[string]domain.Series
	errs   map[string]error
}

func (s *stubSource) GetTradingSymbols(_ context.Context, _ string) ([]string, error) {
	var out []string
	for sym := range s.series {
		out = append(out, sym)
	}
	for sym := range s.errs {
		out = append(out, sym)
	}
	return out, nil
}

func (s *stubSource) GetSeries(_ context.Context, symbol, _ string, _ int) (domain.Series, error) {
	if err, ok := s.errs[symbol]; ok {
		return domain.Series{}, err
	}
	return s.series[symbol], nil
}

type recordingStore struct {
	mu   sync.Mutex
	runs []domain.ScanRun
}

func (r *recordingStore) SaveRun(_ context.Context, run domain.ScanRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *recordingStore) History(context.Context, string, int) ([]domain.RankingRecord, error) {
	return nil, nil
}

func (r *recordingStore) Close() error { return nil }

type recordingBroadcaster struct {
	got [][]domain.RankingRecord
}

func (b *recordingBroadcaster) BroadcastRankings(rankings []domain.RankingRecord) {
	b.got = append(b.got, rankings)
}

func universe() map[string]domain.Series {
	return map[string]domain.Series{
		"AAAUSDT": driftSeries("AAAUSDT", 150, 0.05, 500),
		"BBBUSDT": driftSeries("BBBUSDT", 150, -0.02, 900),
		"CCCUSDT": breakoutSeries("CCCUSDT", 150),
		"DDDUSDT": flatSeries("DDDUSDT", 150, 3, 400),
	}
}

func newScreener(src CandleSource, opts ScreenerOptions, deps ScreenerDeps) (*ScreenerUsecase, *repository.InMemoryScreenerRepository) {
	repo := repository.NewInMemoryScreenerRepository()
	if opts.Timeframe == "" {
		opts.Timeframe = "1h"
	}
	if opts.CandleLimit == 0 {
		opts.CandleLimit = 150
	}
	opts.QuoteAsset = "USDT"
	return NewScreenerUsecase(repo, src, NewAnalyzer(config.DefaultAnalysis(), 5), opts, deps, nil), repo
}

func TestRunCycleCollectsFailuresWithoutAbortingOthers(t *testing.T) {
	series := universe()
	broken := flatSeries("BADUSDT", 150, 3, 400)
	broken.Candles[70].OpenTime = broken.Candles[69].OpenTime
	series["BADUSDT"] = broken
	series["SHORTUSDT"] = driftSeries("SHORTUSDT", 30, 0.05, 500)

	src := &stubSource{
		series: series,
		errs:   map[string]error{"DOWNUSDT": errors.New("connection reset")},
	}
	store := &recordingStore{}
	bc := &recordingBroadcaster{}
	uc, repo := newScreener(src, ScreenerOptions{Concurrency: 3}, ScreenerDeps{Store: store, Broadcaster: bc})

	run, err := uc.RunCycle(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 7, run.Universe)
	assert.Len(t, run.Rankings, 4)
	assert.Len(t, run.Analyses, 5) // the short series is analysed but not ranked

	stages := map[string]string{}
	for _, f := range run.Failures {
		stages[f.Symbol] = f.Stage
	}
	assert.Equal(t, map[string]string{
		"BADUSDT":   domain.StageValidate,
		"DOWNUSDT":  domain.StageFetch,
		"SHORTUSDT": domain.StageRank,
	}, stages)

	for i, r := range run.Rankings {
		assert.Equal(t, i+1, r.Rank)
		a, ok := repo.GetAnalysis(r.Symbol)
		require.True(t, ok)
		require.NotNil(t, a.Ranking)
		assert.Equal(t, r.Rank, a.Ranking.Rank)
	}

	require.Len(t, store.runs, 1)
	assert.Equal(t, run.ID, store.runs[0].ID)
	require.Len(t, bc.got, 1)
	assert.Equal(t, run.Rankings, bc.got[0])
	assert.Equal(t, run.Rankings, repo.GetRankings())
}

func TestRunCycleExcludingSymbolLeavesOthersUnchanged(t *testing.T) {
	full, _ := newScreener(&stubSource{series: universe()}, ScreenerOptions{}, ScreenerDeps{})
	fullRun, err := full.RunCycle(context.Background())
	require.NoError(t, err)

	reduced := universe()
	delete(reduced, "CCCUSDT")
	part, _ := newScreener(&stubSource{series: reduced}, ScreenerOptions{}, ScreenerDeps{})
	partRun, err := part.RunCycle(context.Background())
	require.NoError(t, err)

	bySymbol := func(recs []domain.RankingRecord) map[string]domain.RankingRecord {
		out := map[string]domain.RankingRecord{}
		for _, r := range recs {
			r.Rank = 0 // positions shift, scores must not
			out[r.Symbol] = r
		}
		return out
	}
	fullRecs := bySymbol(fullRun.Rankings)
	for sym, rec := range bySymbol(partRun.Rankings) {
		assert.Equal(t, fullRecs[sym], rec, sym)
	}
	assert.Len(t, partRun.Rankings, len(fullRun.Rankings)-1)
}

func TestRunCycleHonoursFixedUniverse(t *testing.T) {
	uc, _ := newScreener(&stubSource{series: universe()}, ScreenerOptions{
		Symbols:    []string{"DDDUSDT", "AAAUSDT", "BBBUSDT"},
		MaxSymbols: 2,
	}, ScreenerDeps{})

	run, err := uc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, run.Universe)
	assert.Len(t, run.Rankings, 2)
	for _, r := range run.Rankings {
		assert.Contains(t, []string{"DDDUSDT", "AAAUSDT"}, r.Symbol)
	}
}

type failingUniverse struct{ stubSource }

func (failingUniverse) GetTradingSymbols(context.Context, string) ([]string, error) {
	return nil, errors.New("exchange info unavailable")
}

func TestRunCycleFailsWhenUniverseUnavailable(t *testing.T) {
	uc, repo := newScreener(&failingUniverse{}, ScreenerOptions{}, ScreenerDeps{})
	_, err := uc.RunCycle(context.Background())
	require.Error(t, err)
	_, ok := repo.LatestRun()
	assert.False(t, ok)
}
