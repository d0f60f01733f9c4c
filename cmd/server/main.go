package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"prepump-screener/internal/config"
	delivery "prepump-screener/internal/delivery/http"
	"prepump-screener/internal/delivery/websocket"
	"prepump-screener/internal/domain"
	"prepump-screener/internal/infrastructure/binance"
	"prepump-screener/internal/infrastructure/db"
	"prepump-screener/internal/infrastructure/export"
	"prepump-screener/internal/infrastructure/fcm"
	"prepump-screener/internal/logger"
	"prepump-screener/internal/repository"
	"prepump-screener/internal/scheduler"
	"prepump-screener/internal/usecase"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = config.DefaultPath
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Repositories
	repo := repository.NewInMemoryScreenerRepository()
	tokenRepo := repository.NewTokenRepository()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("open ranking store", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	// 2. Infrastructure
	client := binance.NewClient(cfg.Binance.BaseURL, cfg.Binance.RequestTimeout)

	fcmClient, err := fcm.NewClient(ctx, cfg.Firebase.CredentialsPath, log.Named("fcm"))
	if err != nil {
		log.Fatal("init fcm", zap.Error(err))
	}

	exporter, err := export.NewExporter(cfg.Export.Dir, cfg.Export.Formats, log.Named("export"))
	if err != nil {
		log.Fatal("init exporter", zap.Error(err))
	}

	// 3. Usecases
	hub := websocket.NewHub(repo, log.Named("ws"))
	notifier := usecase.NewAlertNotifier(fcmClient, tokenRepo, cfg.Alerts.TopN, cfg.Alerts.Cooldown,
		cfg.Binance.QuoteAsset, log.Named("alerts"))

	analyzer := usecase.NewAnalyzer(cfg.Analysis, cfg.Screener.LatestSignals)
	screener := usecase.NewScreenerUsecase(repo, client, analyzer,
		usecase.ScreenerOptions{
			Timeframe:   cfg.Binance.Timeframe,
			CandleLimit: cfg.Binance.CandleLimit,
			QuoteAsset:  cfg.Binance.QuoteAsset,
			Symbols:     cfg.Binance.Symbols,
			MaxSymbols:  cfg.Binance.MaxSymbols,
			Concurrency: cfg.Screener.Concurrency,
			Supply:      cfg.Supply,
		},
		usecase.ScreenerDeps{
			Store:       store,
			Broadcaster: hub,
			Notifier:    notifier,
			Exporter:    exporter,
		},
		log.Named("screener"),
	)

	// 4. Schedule
	sched := scheduler.New(ctx, screener, log.Named("scheduler"))
	if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
		log.Fatal("register schedule", zap.Error(err))
	}
	sched.Start()
	if cfg.Schedule.RunOnStart {
		go sched.RunNow()
	}

	// 5. Delivery
	mux := delivery.NewRouter(delivery.Routes{
		Rankings: delivery.NewRankingHandler(repo, store, screener, log.Named("http")),
		Tokens:   delivery.NewTokenHandler(tokenRepo),
		Test:     delivery.NewTestHandler(fcmClient, tokenRepo),
		Stream:   hub.Handle,
	})
	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	sched.Stop()
}

// openStore picks Postgres when a database URL is set, otherwise the SQLite
// file. With neither, runs are only kept in memory.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (domain.RankingStore, error) {
	switch {
	case cfg.Database.URL != "":
		pool, err := db.NewPool(ctx, cfg.Database.URL, db.PoolConfigFromEnv())
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("using postgres ranking store")
		return repository.NewPostgresRankingStore(pool), nil
	case cfg.Database.SQLitePath != "":
		store, err := repository.NewSQLiteRankingStore(cfg.Database.SQLitePath, log.Named("sqlite"))
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	log.Warn("no ranking store configured, history disabled")
	return nil, nil
}
