package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepump-screener/internal/domain"
	"prepump-screener/internal/repository"
	"prepump-screener/internal/usecase"
)

type stubStore struct {
	records []domain.RankingRecord
	symbol  string
	limit   int
}

func (s *stubStore) SaveRun(context.Context, domain.ScanRun) error { return nil }

func (s *stubStore) History(_ context.Context, symbol string, limit int) ([]domain.RankingRecord, error) {
	s.symbol, s.limit = symbol, limit
	return s.records, nil
}

func (s *stubStore) Close() error { return nil }

type stubRunner struct {
	run domain.ScanRun
	err error
}

func (s stubRunner) RunCycle(context.Context) (domain.ScanRun, error) { return s.run, s.err }

type stubPush struct {
	enabled bool
	tokens  []string
}

func (p *stubPush) IsEnabled() bool { return p.enabled }

func (p *stubPush) SendMulticast(_ context.Context, tokens []string, _, _ string, _ map[string]string) error {
	p.tokens = tokens
	return nil
}

func seededRepo() *repository.InMemoryScreenerRepository {
	repo := repository.NewInMemoryScreenerRepository()
	a := domain.RankingRecord{Symbol: "AAAUSDT", Rank: 1, TotalScore: 71}
	b := domain.RankingRecord{Symbol: "BBBUSDT", Rank: 2, TotalScore: 52}
	repo.SaveRun(domain.ScanRun{
		ID:        "run-1",
		StartedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Universe:  3,
		Rankings:  []domain.RankingRecord{a, b},
		Analyses:  []domain.Analysis{{Symbol: "AAAUSDT", Ranking: &a}, {Symbol: "BBBUSDT", Ranking: &b}},
		Failures:  []domain.SymbolFailure{{Symbol: "CCCUSDT", Stage: domain.StageFetch, Reason: "timeout"}},
	})
	return repo
}

func serve(t *testing.T, mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestRankingEndpoints(t *testing.T) {
	store := &stubStore{records: []domain.RankingRecord{{Symbol: "AAAUSDT", TotalScore: 71}}}
	mux := NewRouter(Routes{Rankings: NewRankingHandler(seededRepo(), store, nil, nil)})

	rec := serve(t, mux, http.MethodGet, "/api/rankings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rankings []domain.RankingRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rankings))
	require.Len(t, rankings, 2)
	assert.Equal(t, "AAAUSDT", rankings[0].Symbol)

	rec = serve(t, mux, http.MethodGet, "/api/rankings?limit=1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rankings))
	assert.Len(t, rankings, 1)

	rec = serve(t, mux, http.MethodGet, "/api/analysis?symbol=bbbusdt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var analysis domain.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Equal(t, 2, analysis.Ranking.Rank)

	assert.Equal(t, http.StatusBadRequest, serve(t, mux, http.MethodGet, "/api/analysis", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, mux, http.MethodGet, "/api/analysis?symbol=ZZZUSDT", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(t, mux, http.MethodPost, "/api/rankings", "").Code)

	rec = serve(t, mux, http.MethodGet, "/api/failures", "")
	var failures []domain.SymbolFailure
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failures))
	require.Len(t, failures, 1)
	assert.Equal(t, domain.StageFetch, failures[0].Stage)

	rec = serve(t, mux, http.MethodGet, "/api/history?symbol=aaausdt&limit=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AAAUSDT", store.symbol)
	assert.Equal(t, 7, store.limit)

	rec = serve(t, mux, http.MethodGet, "/api/run", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary runSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "run-1", summary.ID)
	assert.Equal(t, 2, summary.Ranked)
	assert.Equal(t, 1, summary.Failed)
}

func TestWriteJSONUsesSonicStdEncoding(t *testing.T) {
	records := []domain.RankingRecord{{
		Symbol:          "AAAUSDT",
		Rank:            1,
		TotalScore:      71.5,
		ComponentScores: map[string]float64{domain.ComponentVolume: 0.4, domain.ComponentSignal: 0.9, domain.ComponentTrend: 0.7},
	}}

	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, records)

	want, err := sonic.ConfigStd.MarshalToString(records)
	require.NoError(t, err)
	assert.Equal(t, want, strings.TrimSpace(rec.Body.String()))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	// map keys come out sorted, so repeated scans serialize byte-identically
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, `"signal"`), strings.Index(body, `"trend"`))
	assert.Less(t, strings.Index(body, `"trend"`), strings.Index(body, `"volume"`))
}

func TestLatestRunBeforeFirstScan(t *testing.T) {
	mux := NewRouter(Routes{Rankings: NewRankingHandler(repository.NewInMemoryScreenerRepository(), nil, nil, nil)})
	assert.Equal(t, http.StatusNotFound, serve(t, mux, http.MethodGet, "/api/run", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, mux, http.MethodGet, "/api/history?symbol=A", "").Code)

	rec := serve(t, mux, http.MethodGet, "/api/rankings", "")
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestTriggerScan(t *testing.T) {
	busy := NewRankingHandler(seededRepo(), nil, stubRunner{err: usecase.ErrCycleInProgress}, nil)
	assert.Equal(t, http.StatusConflict, serve(t, NewRouter(Routes{Rankings: busy}), http.MethodPost, "/api/scan", "").Code)

	ok := NewRankingHandler(seededRepo(), nil, stubRunner{run: domain.ScanRun{ID: "run-9", Universe: 4}}, nil)
	rec := serve(t, NewRouter(Routes{Rankings: ok}), http.MethodPost, "/api/scan", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"run-9"`)
}

func TestTokenEndpoints(t *testing.T) {
	tokens := repository.NewTokenRepository()
	push := &stubPush{enabled: true}
	mux := NewRouter(Routes{
		Tokens: NewTokenHandler(tokens),
		Test:   NewTestHandler(push, tokens),
	})

	rec := serve(t, mux, http.MethodPost, "/api/test-notification", "")
	assert.Contains(t, rec.Body.String(), "No registered devices")

	rec = serve(t, mux, http.MethodPost, "/api/tokens/register", `{"token":"abc","platform":"iOS"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)

	assert.Equal(t, http.StatusBadRequest, serve(t, mux, http.MethodPost, "/api/tokens/register", `{"platform":"ios"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, mux, http.MethodPost, "/api/tokens/register", `not json`).Code)

	rec = serve(t, mux, http.MethodPost, "/api/test-notification", "")
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Equal(t, []string{"abc"}, push.tokens)

	rec = serve(t, mux, http.MethodPost, "/api/tokens/unregister", `{"token":"abc"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)

	rec = serve(t, mux, http.MethodPost, "/api/tokens/unregister", `{"token":"abc"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Token was not registered", resp.Message)

	rec = serve(t, mux, http.MethodGet, "/api/tokens/count", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := serve(t, NewRouter(Routes{}), http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
