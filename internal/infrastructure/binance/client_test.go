package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/exchangeInfo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbols":[
			{"symbol":"BTCUSDT","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT"},
			{"symbol":"ETHBTC","status":"TRADING","baseAsset":"ETH","quoteAsset":"BTC"},
			{"symbol":"OLDUSDT","status":"BREAK","baseAsset":"OLD","quoteAsset":"USDT"}
		]}`))
	})
	mux.HandleFunc("/api/v3/klines", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") == "NOPEUSDT" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
			return
		}
		assert.Equal(t, "1h", q.Get("interval"))
		assert.Equal(t, "2", q.Get("limit"))
		_, _ = w.Write([]byte(`[
			[1700000000000,"10.0","11.0","9.5","10.5","1200.5",1700003599999,"0",10,"0","0","0"],
			[1700003600000,"10.5","12.0","10.1","11.9","900",1700007199999,"0",8,"0","0","0"]
		]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetTradingSymbolsFiltersQuoteAndStatus(t *testing.T) {
	c := NewClient(newTestServer(t).URL, time.Second)
	symbols, err := c.GetTradingSymbols(context.Background(), "USDT")
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT"}, symbols)
}

func TestGetSeriesParsesKlines(t *testing.T) {
	c := NewClient(newTestServer(t).URL, time.Second)
	series, err := c.GetSeries(context.Background(), "BTCUSDT", "1h", 2)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", series.Symbol)
	assert.Equal(t, time.Hour, series.Interval)
	require.Len(t, series.Candles, 2)
	first := series.Candles[0]
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), first.OpenTime)
	assert.Equal(t, 10.0, first.Open)
	assert.Equal(t, 11.0, first.High)
	assert.Equal(t, 9.5, first.Low)
	assert.Equal(t, 10.5, first.Close)
	assert.Equal(t, 1200.5, first.Volume)
	require.NoError(t, series.Validate())
}

func TestGetSeriesSurfacesAPIError(t *testing.T) {
	c := NewClient(newTestServer(t).URL, time.Second)
	_, err := c.GetSeries(context.Background(), "NOPEUSDT", "1h", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid symbol.")
}

func TestParseInterval(t *testing.T) {
	for in, want := range map[string]time.Duration{
		"1m":  time.Minute,
		"15m": 15 * time.Minute,
		"4h":  4 * time.Hour,
		"1d":  24 * time.Hour,
		"1w":  7 * 24 * time.Hour,
	} {
		got, err := ParseInterval(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "h", "0h", "1M", "xh"} {
		_, err := ParseInterval(bad)
		assert.Error(t, err, bad)
	}
}
