package repository

import (
	"prepump-screener/internal/domain"
	"sync"
)

// InMemoryScreenerRepository serves the latest scan run.
type InMemoryScreenerRepository struct {
	run      domain.ScanRun
	hasRun   bool
	bySymbol map[string]int // symbol -> index into run.Analyses
	mu       sync.RWMutex
}

func NewInMemoryScreenerRepository() *InMemoryScreenerRepository {
	return &InMemoryScreenerRepository{
		bySymbol: map[string]int{},
	}
}

func (r *InMemoryScreenerRepository) SaveRun(run domain.ScanRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Replace the whole run, every cycle rescans the universe
	r.run = run
	r.hasRun = true
	r.bySymbol = make(map[string]int, len(run.Analyses))
	for i, a := range run.Analyses {
		r.bySymbol[a.Symbol] = i
	}
}

func (r *InMemoryScreenerRepository) LatestRun() (domain.ScanRun, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.run, r.hasRun
}

func (r *InMemoryScreenerRepository) GetRankings() []domain.RankingRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// Shallow copy; records are never mutated after a run is saved.
	result := make([]domain.RankingRecord, len(r.run.Rankings))
	copy(result, r.run.Rankings)
	return result
}

func (r *InMemoryScreenerRepository) GetAnalysis(symbol string) (domain.Analysis, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.bySymbol[symbol]
	if !ok {
		return domain.Analysis{}, false
	}
	return r.run.Analyses[i], true
}

func (r *InMemoryScreenerRepository) GetFailures() []domain.SymbolFailure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.SymbolFailure, len(r.run.Failures))
	copy(result, r.run.Failures)
	return result
}
