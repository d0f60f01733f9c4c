package binance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"prepump-screener/internal/domain"
)

const SpotBaseURL = "https://api.binance.com"

// Client reads spot market data from the Binance REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = SpotBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type ExchangeInfo struct {
	Symbols []SymbolInfo `json:"symbols"`
}

type SymbolInfo struct {
	Symbol     string `json:"symbol"`
	Status     string `json:"status"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// GetTradingSymbols returns every symbol with status "TRADING" quoted in
// quoteAsset, e.g. all *USDT pairs.
func (c *Client) GetTradingSymbols(ctx context.Context, quoteAsset string) ([]string, error) {
	var info ExchangeInfo
	if err := c.get(ctx, "/api/v3/exchangeInfo", nil, &info); err != nil {
		return nil, errors.Wrap(err, "exchange info")
	}

	var active []string
	for _, s := range info.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		if quoteAsset != "" && s.QuoteAsset != quoteAsset {
			continue
		}
		active = append(active, s.Symbol)
	}
	return active, nil
}

// GetKlines returns raw candlestick rows.
// Binance returns: [ [open_time, open, high, low, close, volume, close_time, ...], ... ]
// with prices and volumes as strings.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([][]interface{}, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	var klines [][]interface{}
	if err := c.get(ctx, "/api/v3/klines", q, &klines); err != nil {
		return nil, errors.Wrapf(err, "klines %s %s", symbol, interval)
	}
	return klines, nil
}

// GetSeries fetches klines and converts them into a candle series. Rows that
// cannot be parsed are an error; ordering checks are left to validation.
func (c *Client) GetSeries(ctx context.Context, symbol, timeframe string, limit int) (domain.Series, error) {
	rows, err := c.GetKlines(ctx, symbol, timeframe, limit)
	if err != nil {
		return domain.Series{}, err
	}

	interval, _ := ParseInterval(timeframe)
	series := domain.Series{
		Symbol:    symbol,
		Timeframe: timeframe,
		Interval:  interval,
		Candles:   make([]domain.Candle, 0, len(rows)),
	}
	for i, row := range rows {
		candle, err := parseKline(row)
		if err != nil {
			return domain.Series{}, errors.Wrapf(err, "%s kline %d", symbol, i)
		}
		series.Candles = append(series.Candles, candle)
	}
	return series, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read body")
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if sonic.Unmarshal(body, &apiErr) == nil && apiErr.Msg != "" {
			return errors.Errorf("binance API error: %d (code %d): %s", resp.StatusCode, apiErr.Code, apiErr.Msg)
		}
		return errors.Errorf("binance API error: %d", resp.StatusCode)
	}

	if err := sonic.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func parseKline(row []interface{}) (domain.Candle, error) {
	if len(row) < 6 {
		return domain.Candle{}, errors.Errorf("short kline row: %d fields", len(row))
	}
	var vals [6]float64
	for i := 0; i < 6; i++ {
		v, err := parseValue(row[i])
		if err != nil {
			return domain.Candle{}, errors.Wrapf(err, "field %d", i)
		}
		vals[i] = v
	}
	return domain.Candle{
		OpenTime: time.UnixMilli(int64(vals[0])).UTC(),
		Open:     vals[1],
		High:     vals[2],
		Low:      vals[3],
		Close:    vals[4],
		Volume:   vals[5],
	}, nil
}

func parseValue(v interface{}) (float64, error) {
	switch val := v.(type) {
	case string:
		return strconv.ParseFloat(val, 64)
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	}
	return 0, fmt.Errorf("unexpected kline value %T", v)
}

// ParseInterval converts a Binance interval such as "15m", "4h", "1d" or
// "1w" into a duration. Month intervals have no fixed length.
func ParseInterval(interval string) (time.Duration, error) {
	if len(interval) < 2 {
		return 0, errors.Errorf("bad interval %q", interval)
	}
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, errors.Errorf("bad interval %q", interval)
	}
	unit := map[byte]time.Duration{
		's': time.Second,
		'm': time.Minute,
		'h': time.Hour,
		'd': 24 * time.Hour,
		'w': 7 * 24 * time.Hour,
	}[interval[len(interval)-1]]
	if unit == 0 {
		return 0, errors.Errorf("bad interval %q", interval)
	}
	return time.Duration(n) * unit, nil
}
