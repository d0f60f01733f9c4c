package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"prepump-screener/internal/domain"
	"prepump-screener/internal/usecase"
)

// CycleRunner runs one scan on demand.
type CycleRunner interface {
	RunCycle(ctx context.Context) (domain.ScanRun, error)
}

// RankingHandler serves the latest scan run and the stored ranking history.
type RankingHandler struct {
	repo   domain.ScreenerRepository
	store  domain.RankingStore
	runner CycleRunner
	log    *zap.Logger
}

// NewRankingHandler creates the handler. store and runner may be nil, which
// disables /api/history and /api/scan.
func NewRankingHandler(repo domain.ScreenerRepository, store domain.RankingStore, runner CycleRunner, log *zap.Logger) *RankingHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RankingHandler{repo: repo, store: store, runner: runner, log: log}
}

type runSummary struct {
	ID            string                 `json:"id"`
	StartedAt     string                 `json:"startedAt"`
	FinishedAt    string                 `json:"finishedAt"`
	Timeframe     string                 `json:"timeframe"`
	ConfigVersion string                 `json:"configVersion"`
	Universe      int                    `json:"universe"`
	Ranked        int                    `json:"ranked"`
	Failed        int                    `json:"failed"`
	Rankings      []domain.RankingRecord `json:"rankings"`
}

// GetRankings handles GET /api/rankings
func (h *RankingHandler) GetRankings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rankings := h.repo.GetRankings()
	if limit, ok := queryInt(r, "limit"); ok && limit < len(rankings) {
		rankings = rankings[:limit]
	}
	writeJSON(w, http.StatusOK, rankings)
}

// GetLatestRun handles GET /api/run
func (h *RankingHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	run, ok := h.repo.LatestRun()
	if !ok {
		http.Error(w, "No scan has completed yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, summarize(run))
}

// GetAnalysis handles GET /api/analysis?symbol={symbol}
func (h *RankingHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	analysis, ok := h.repo.GetAnalysis(symbol)
	if !ok {
		http.Error(w, "Symbol not found in latest scan", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// GetFailures handles GET /api/failures
func (h *RankingHandler) GetFailures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.repo.GetFailures())
}

// GetHistory handles GET /api/history?symbol={symbol}&limit={n}
func (h *RankingHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		http.Error(w, "History store not configured", http.StatusServiceUnavailable)
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	limit, _ := queryInt(r, "limit")

	records, err := h.store.History(r.Context(), symbol, limit)
	if err != nil {
		h.log.Error("history query failed", zap.String("symbol", symbol), zap.Error(err))
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// TriggerScan handles POST /api/scan
func (h *RankingHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.runner == nil {
		http.Error(w, "Scanner not configured", http.StatusServiceUnavailable)
		return
	}

	run, err := h.runner.RunCycle(r.Context())
	if errors.Is(err, usecase.ErrCycleInProgress) {
		http.Error(w, "Scan already in progress", http.StatusConflict)
		return
	}
	if err != nil {
		h.log.Error("manual scan failed", zap.Error(err))
		http.Error(w, "Scan failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, summarize(run))
}

func summarize(run domain.ScanRun) runSummary {
	return runSummary{
		ID:            run.ID,
		StartedAt:     run.StartedAt.UTC().Format(timeFormat),
		FinishedAt:    run.FinishedAt.UTC().Format(timeFormat),
		Timeframe:     run.Timeframe,
		ConfigVersion: run.ConfigVersion,
		Universe:      run.Universe,
		Ranked:        len(run.Rankings),
		Failed:        len(run.Failures),
		Rankings:      run.Rankings,
	}
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

func queryInt(r *http.Request, key string) (int, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// writeJSON encodes with the sonic config the websocket hub uses.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	sonic.ConfigStd.NewEncoder(w).Encode(v)
}
