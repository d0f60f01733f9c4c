package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"prepump-screener/internal/domain"
)

// PushSender delivers a notification to many devices.
type PushSender interface {
	IsEnabled() bool
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

// TokenLister returns registered device tokens.
type TokenLister interface {
	GetAllTokens() []string
}

// AlertNotifier pushes an alert for top ranked symbols that carry a fresh
// pre-pump signal, at most once per symbol per cooldown.
type AlertNotifier struct {
	push       PushSender
	tokens     TokenLister
	topN       int
	cooldown   time.Duration
	quoteAsset string
	log        *zap.Logger

	notified map[string]time.Time // symbol -> last alert
	mu       sync.Mutex
	now      func() time.Time
}

func NewAlertNotifier(push PushSender, tokens TokenLister, topN int, cooldown time.Duration, quoteAsset string, log *zap.Logger) *AlertNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &AlertNotifier{
		push:       push,
		tokens:     tokens,
		topN:       topN,
		cooldown:   cooldown,
		quoteAsset: quoteAsset,
		log:        log,
		notified:   make(map[string]time.Time),
		now:        time.Now,
	}
}

// NotifyRun sends one multicast per qualifying symbol.
func (n *AlertNotifier) NotifyRun(ctx context.Context, run domain.ScanRun) {
	if n.push == nil || !n.push.IsEnabled() {
		return
	}
	tokens := n.tokens.GetAllTokens()
	if len(tokens) == 0 {
		return
	}

	now := n.now()
	for _, rec := range n.candidates(run.Rankings) {
		n.mu.Lock()
		last, seen := n.notified[rec.Symbol]
		n.mu.Unlock()
		if seen && now.Sub(last) < n.cooldown {
			continue
		}

		title, body, data := alertMessage(rec, n.quoteAsset)
		if err := n.push.SendMulticast(ctx, tokens, title, body, data); err != nil {
			n.log.Error("send alert failed", zap.String("symbol", rec.Symbol), zap.Error(err))
			continue
		}
		n.log.Info("alert sent", zap.String("symbol", rec.Symbol), zap.Int("devices", len(tokens)))

		n.mu.Lock()
		n.notified[rec.Symbol] = now
		n.mu.Unlock()
	}

	n.mu.Lock()
	for symbol, ts := range n.notified {
		if now.Sub(ts) > n.cooldown*2 {
			delete(n.notified, symbol)
		}
	}
	n.mu.Unlock()
}

// candidates: ranked within topN and holding a recent signal.
func (n *AlertNotifier) candidates(ranked []domain.RankingRecord) []domain.RankingRecord {
	var out []domain.RankingRecord
	for _, rec := range ranked {
		if rec.Rank < 1 || rec.Rank > n.topN {
			continue
		}
		if rec.ComponentScores[domain.ComponentSignal] <= 0 {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func alertMessage(rec domain.RankingRecord, quoteAsset string) (title, body string, data map[string]string) {
	display := strings.TrimSuffix(rec.Symbol, quoteAsset)
	if display == "" {
		display = rec.Symbol
	}
	title = fmt.Sprintf("%s pre-pump #%d", display, rec.Rank)
	body = fmt.Sprintf("Score: %.1f | Signal: %.0f%% | Price: %.6g",
		rec.TotalScore, rec.ComponentScores[domain.ComponentSignal]*100, rec.Price)
	data = map[string]string{
		"type":   "prepump",
		"symbol": rec.Symbol,
		"rank":   fmt.Sprintf("%d", rec.Rank),
		"score":  fmt.Sprintf("%.2f", rec.TotalScore),
		"price":  fmt.Sprintf("%g", rec.Price),
	}
	return title, body, data
}
