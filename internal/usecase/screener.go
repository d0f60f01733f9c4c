package usecase

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"prepump-screener/internal/domain"
)

var ErrCycleInProgress = errors.New("screening cycle already running")

// CandleSource is the market data collaborator.
type CandleSource interface {
	GetTradingSymbols(ctx context.Context, quoteAsset string) ([]string, error)
	GetSeries(ctx context.Context, symbol, timeframe string, limit int) (domain.Series, error)
}

// RankingBroadcaster pushes fresh rankings to connected clients.
type RankingBroadcaster interface {
	BroadcastRankings(rankings []domain.RankingRecord)
}

// RunNotifier reacts to a finished run, e.g. by sending push alerts.
type RunNotifier interface {
	NotifyRun(ctx context.Context, run domain.ScanRun)
}

// RunExporter writes a finished run to files and returns their paths.
type RunExporter interface {
	Export(run domain.ScanRun) ([]string, error)
}

// ScreenerOptions control one cycle. An empty Symbols list means every
// trading pair quoted in QuoteAsset.
type ScreenerOptions struct {
	Timeframe   string
	CandleLimit int
	QuoteAsset  string
	Symbols     []string
	MaxSymbols  int
	Concurrency int
	Supply      map[string]float64
}

// ScreenerDeps are the optional sinks of a run. Nil members are skipped.
type ScreenerDeps struct {
	Store       domain.RankingStore
	Broadcaster RankingBroadcaster
	Notifier    RunNotifier
	Exporter    RunExporter
}

type ScreenerUsecase struct {
	repo     domain.ScreenerRepository
	source   CandleSource
	analyzer *Analyzer
	deps     ScreenerDeps
	opts     ScreenerOptions
	log      *zap.Logger
	running  atomic.Bool
}

func NewScreenerUsecase(repo domain.ScreenerRepository, source CandleSource, analyzer *Analyzer, opts ScreenerOptions, deps ScreenerDeps, log *zap.Logger) *ScreenerUsecase {
	if opts.Concurrency < 1 {
		opts.Concurrency = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ScreenerUsecase{
		repo:     repo,
		source:   source,
		analyzer: analyzer,
		deps:     deps,
		opts:     opts,
		log:      log,
	}
}

type symbolOutcome struct {
	analysis *domain.Analysis
	failure  *domain.SymbolFailure
}

// RunCycle screens the whole universe once. Symbols are fetched and analysed
// independently; a failing symbol is recorded and never stops the others.
// Only the universe lookup can fail the cycle as a whole.
func (uc *ScreenerUsecase) RunCycle(ctx context.Context) (domain.ScanRun, error) {
	if !uc.running.CompareAndSwap(false, true) {
		return domain.ScanRun{}, ErrCycleInProgress
	}
	defer uc.running.Store(false)

	run := domain.ScanRun{
		ID:            uuid.NewString(),
		StartedAt:     time.Now().UTC(),
		Timeframe:     uc.opts.Timeframe,
		ConfigVersion: uc.analyzer.Config().Version,
	}
	log := uc.log.With(zap.String("run_id", run.ID))
	log.Info("starting screening cycle")

	symbols, err := uc.universe(ctx)
	if err != nil {
		log.Error("universe lookup failed", zap.Error(err))
		return domain.ScanRun{}, err
	}
	run.Universe = len(symbols)

	outcomes := make([]symbolOutcome, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			outcomes[i] = uc.screenSymbol(gctx, sym)
			return nil
		})
	}
	_ = g.Wait()

	records := make([]domain.RankingRecord, 0, len(outcomes))
	for _, o := range outcomes {
		if o.failure != nil {
			run.Failures = append(run.Failures, *o.failure)
		}
		if o.analysis == nil {
			continue
		}
		run.Analyses = append(run.Analyses, *o.analysis)
		if o.analysis.Ranking != nil {
			records = append(records, *o.analysis.Ranking)
		}
	}

	run.Rankings = Rank(records)
	attachRanks(run.Analyses, run.Rankings)
	sort.Slice(run.Analyses, func(i, j int) bool { return run.Analyses[i].Symbol < run.Analyses[j].Symbol })
	sort.Slice(run.Failures, func(i, j int) bool { return run.Failures[i].Symbol < run.Failures[j].Symbol })
	run.FinishedAt = time.Now().UTC()

	uc.publish(ctx, log, run)

	log.Info("screening cycle completed",
		zap.Duration("duration", run.FinishedAt.Sub(run.StartedAt)),
		zap.Int("universe", run.Universe),
		zap.Int("ranked", len(run.Rankings)),
		zap.Int("failed", len(run.Failures)),
	)
	return run, nil
}

func (uc *ScreenerUsecase) universe(ctx context.Context) ([]string, error) {
	symbols := uc.opts.Symbols
	if len(symbols) == 0 {
		var err error
		symbols, err = uc.source.GetTradingSymbols(ctx, uc.opts.QuoteAsset)
		if err != nil {
			return nil, err
		}
	}
	seen := make(map[string]bool, len(symbols))
	unique := symbols[:0:0]
	for _, sym := range symbols {
		if !seen[sym] {
			seen[sym] = true
			unique = append(unique, sym)
		}
	}
	symbols = unique
	if uc.opts.MaxSymbols > 0 && len(symbols) > uc.opts.MaxSymbols {
		symbols = symbols[:uc.opts.MaxSymbols]
	}
	return symbols, nil
}

func (uc *ScreenerUsecase) screenSymbol(ctx context.Context, symbol string) symbolOutcome {
	fail := func(stage string, err error) symbolOutcome {
		uc.log.Debug("symbol excluded",
			zap.String("symbol", symbol),
			zap.String("stage", stage),
			zap.Error(err),
		)
		f := domain.NewSymbolFailure(symbol, stage, err)
		return symbolOutcome{failure: &f}
	}

	series, err := uc.source.GetSeries(ctx, symbol, uc.opts.Timeframe, uc.opts.CandleLimit)
	if err != nil {
		return fail(domain.StageFetch, err)
	}
	if series.Symbol == "" {
		series.Symbol = symbol
	}
	if series.Timeframe == "" {
		series.Timeframe = uc.opts.Timeframe
	}

	var supply *float64
	if v, ok := uc.opts.Supply[symbol]; ok {
		supply = &v
	}

	analysis, err := uc.analyzer.Analyze(series, supply)
	if err != nil {
		stage := domain.StageAnalyze
		if errors.Is(err, domain.ErrInvalidSeries) || errors.Is(err, domain.ErrNoData) {
			stage = domain.StageValidate
		}
		return fail(stage, err)
	}

	out := symbolOutcome{analysis: &analysis}
	if analysis.Ranking == nil {
		f := domain.SymbolFailure{
			Symbol: symbol,
			Stage:  domain.StageRank,
			Reason: analysis.ExcludedReason,
			Err:    domain.ErrInsufficientData,
		}
		out.failure = &f
	}
	return out
}

// attachRanks copies the ordered records back onto their analyses.
func attachRanks(analyses []domain.Analysis, ranked []domain.RankingRecord) {
	bySymbol := make(map[string]domain.RankingRecord, len(ranked))
	for _, r := range ranked {
		bySymbol[r.Symbol] = r
	}
	for i := range analyses {
		if r, ok := bySymbol[analyses[i].Symbol]; ok {
			analyses[i].Ranking = &r
		}
	}
}

func (uc *ScreenerUsecase) publish(ctx context.Context, log *zap.Logger, run domain.ScanRun) {
	uc.repo.SaveRun(run)

	if uc.deps.Store != nil {
		if err := uc.deps.Store.SaveRun(ctx, run); err != nil {
			log.Error("persist run failed", zap.Error(err))
		}
	}
	if uc.deps.Broadcaster != nil {
		uc.deps.Broadcaster.BroadcastRankings(run.Rankings)
	}
	if uc.deps.Notifier != nil {
		uc.deps.Notifier.NotifyRun(ctx, run)
	}
	if uc.deps.Exporter != nil {
		paths, err := uc.deps.Exporter.Export(run)
		if err != nil {
			log.Error("export failed", zap.Error(err))
		}
		for _, p := range paths {
			log.Info("exported", zap.String("path", p))
		}
	}
}
