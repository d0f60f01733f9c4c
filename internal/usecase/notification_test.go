package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepump-screener/internal/domain"
	"prepump-screener/internal/repository"
)

type fakePush struct {
	enabled bool
	fail    bool
	sent    []map[string]string
}

func (p *fakePush) IsEnabled() bool { return p.enabled }

func (p *fakePush) SendMulticast(_ context.Context, tokens []string, title, body string, data map[string]string) error {
	if p.fail {
		return errors.New("fcm unavailable")
	}
	p.sent = append(p.sent, data)
	return nil
}

func alertRun() domain.ScanRun {
	return domain.ScanRun{Rankings: []domain.RankingRecord{
		{Symbol: "AAAUSDT", Rank: 1, TotalScore: 80, ComponentScores: map[string]float64{domain.ComponentSignal: 0.8}},
		{Symbol: "BBBUSDT", Rank: 2, TotalScore: 70, ComponentScores: map[string]float64{domain.ComponentSignal: 0}},
		{Symbol: "CCCUSDT", Rank: 3, TotalScore: 60, ComponentScores: map[string]float64{domain.ComponentSignal: 0.6}},
	}}
}

func TestAlertNotifierTopNWithFreshSignal(t *testing.T) {
	tokens := repository.NewTokenRepository()
	tokens.RegisterToken("device-1", "android", time.Now())
	push := &fakePush{enabled: true}

	n := NewAlertNotifier(push, tokens, 2, time.Hour, "USDT", nil)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return clock }

	n.NotifyRun(context.Background(), alertRun())
	require.Len(t, push.sent, 1)
	assert.Equal(t, "AAAUSDT", push.sent[0]["symbol"])
	assert.Equal(t, "1", push.sent[0]["rank"])

	// still cooling down
	clock = clock.Add(30 * time.Minute)
	n.NotifyRun(context.Background(), alertRun())
	assert.Len(t, push.sent, 1)

	clock = clock.Add(31 * time.Minute)
	n.NotifyRun(context.Background(), alertRun())
	assert.Len(t, push.sent, 2)
}

func TestAlertNotifierSkipsWithoutDevicesOrClient(t *testing.T) {
	tokens := repository.NewTokenRepository()
	push := &fakePush{enabled: true}
	NewAlertNotifier(push, tokens, 5, time.Hour, "USDT", nil).NotifyRun(context.Background(), alertRun())
	assert.Empty(t, push.sent)

	tokens.RegisterToken("device-1", "ios", time.Now())
	disabled := &fakePush{}
	NewAlertNotifier(disabled, tokens, 5, time.Hour, "USDT", nil).NotifyRun(context.Background(), alertRun())
	assert.Empty(t, disabled.sent)
}

func TestAlertNotifierRetriesAfterFailedSend(t *testing.T) {
	tokens := repository.NewTokenRepository()
	tokens.RegisterToken("device-1", "android", time.Now())
	push := &fakePush{enabled: true, fail: true}
	n := NewAlertNotifier(push, tokens, 1, time.Hour, "USDT", nil)

	n.NotifyRun(context.Background(), alertRun())
	assert.Empty(t, push.sent)

	push.fail = false
	n.NotifyRun(context.Background(), alertRun())
	assert.Len(t, push.sent, 1)
}

func TestAlertMessage(t *testing.T) {
	title, body, data := alertMessage(alertRun().Rankings[0], "USDT")
	assert.Equal(t, "AAA pre-pump #1", title)
	assert.Contains(t, body, "Score: 80.0")
	assert.Equal(t, "prepump", data["type"])
}
