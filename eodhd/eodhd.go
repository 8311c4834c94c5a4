// Package eodhd provides market data from EOD Historical Data (https://eodhd.com).
//
// Client implements folio.MarketDataProvider: daily closes come from the /api/eod
// endpoint, latest quotes from /api/real-time and sectors from /api/fundamentals.
// Daily closes are cached on disk for the day and fundamentals for the month.
package eodhd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
)

// DefaultBaseURL is the EODHD API server.
const DefaultBaseURL = "https://eodhd.com"

// DefaultExchange is the exchange code appended to tickers without one.
const DefaultExchange = "US"

// Client fetches market data from EODHD.
type Client struct {
	apiKey   string
	exchange string
	baseURL  string
	currency string

	live    *http.Client // real-time quotes, never cached
	daily   *http.Client // prices, expire every day
	monthly *http.Client // fundamentals, expire every month
	logger  *slog.Logger

	// Today returns the current date, history windows end on that day.
	Today func() date.Date
}

// New returns a Client configured by cfg. Quotes are expressed in currency.
func New(cfg folio.EODHDConfig, currency string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		apiKey:   cfg.APIKey,
		exchange: cfg.Exchange,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		currency: currency,
		logger:   logger.With("provider", "eodhd"),
		Today:    date.Today,
	}
	if c.exchange == "" {
		c.exchange = DefaultExchange
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	dir := cfg.CacheDir
	if dir == "" {
		if base, err := os.UserCacheDir(); err == nil {
			dir = filepath.Join(base, "folio")
		}
	}
	today := func() date.Date { return c.Today() }
	c.live = &http.Client{}
	c.daily = &http.Client{Transport: &diskCache{base: http.DefaultTransport, dir: dir, period: date.Daily, today: today, logger: c.logger}}
	c.monthly = &http.Client{Transport: &diskCache{base: http.DefaultTransport, dir: dir, period: date.Monthly, today: today, logger: c.logger}}
	return c
}

// symbol returns the EODHD symbol of a ticker, "AMD" becomes "AMD.US".
func (c *Client) symbol(ticker string) string {
	if strings.Contains(ticker, ".") {
		return ticker
	}
	return ticker + "." + c.exchange
}

// url builds an API address.
func (c *Client) url(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("fmt", "json")
	query.Set("api_token", c.apiKey)
	return c.baseURL + path + "?" + query.Encode()
}

// FetchHistory returns the daily adjusted closes of each ticker over the lookback
// window ending today. Unknown tickers are absent from the result.
func (c *Client) FetchHistory(ctx context.Context, tickers []string, period date.Lookback) (map[string]*date.History[float64], error) {
	// https://eodhd.com/api/eod/MCD.US?api_token=demo&fmt=json&from=2024-01-05&to=2024-02-10
	// [{"date": "2024-02-13", "open": 675.066, "high": 684.219, "low": 648.659,
	//   "close": 668.445, "adjusted_close": 667.705, "volume": 0}, ...]
	window := period.Range(c.Today())
	query := url.Values{"to": {window.To.String()}}
	if !window.From.IsZero() {
		query.Set("from", window.From.String())
	}

	type Info struct {
		Date          date.Date `json:"date"`
		Close         float64   `json:"close"`
		AdjustedClose float64   `json:"adjusted_close"`
	}

	out := make(map[string]*date.History[float64], len(tickers))
	for _, ticker := range tickers {
		var content []Info
		err := jwget(ctx, c.daily, c.url("/api/eod/"+url.PathEscape(c.symbol(ticker)), query), &content)
		if errors.Is(err, errNotFound) {
			c.logger.Warn("no history", "ticker", ticker)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("history of %s: %w", ticker, err)
		}
		if len(content) == 0 {
			c.logger.Warn("empty history", "ticker", ticker, "period", period)
			continue
		}
		h := new(date.History[float64])
		for _, info := range content {
			price := info.AdjustedClose
			if price == 0 {
				price = info.Close
			}
			h.Append(info.Date, price)
		}
		out[ticker] = h
		c.logger.Debug("history", "ticker", ticker, "points", h.Len())
	}
	return out, nil
}

// FetchLatestQuote returns the latest price of each ticker, in a single request.
// Tickers without a price are absent from the result.
func (c *Client) FetchLatestQuote(ctx context.Context, tickers []string) (map[string]folio.Quote, error) {
	out := make(map[string]folio.Quote, len(tickers))
	if len(tickers) == 0 {
		return out, nil
	}
	// https://eodhd.com/api/real-time/AAPL.US?s=VTI.US,EUR.FOREX&api_token=demo&fmt=json
	// A single symbol gets an object, several get an array.
	bySymbol := make(map[string]string, len(tickers))
	symbols := make([]string, 0, len(tickers))
	for _, t := range tickers {
		s := c.symbol(t)
		bySymbol[s] = t
		symbols = append(symbols, s)
	}
	var query url.Values
	if len(symbols) > 1 {
		query = url.Values{"s": {strings.Join(symbols[1:], ",")}}
	}
	var content any
	err := jwget(ctx, c.live, c.url("/api/real-time/"+url.PathEscape(symbols[0]), query), &content)
	if errors.Is(err, errNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest quotes: %w", err)
	}

	var items []any
	switch v := content.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return nil, fmt.Errorf("latest quotes: %w: unexpected payload %T", folio.ErrDataShape, content)
	}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("latest quotes: %w: unexpected item %T", folio.ErrDataShape, item)
		}
		// Missing values are reported as "NA".
		code, _ := obj["code"].(string)
		ticker, ok := bySymbol[code]
		if !ok {
			continue
		}
		price, ok := obj["close"].(float64)
		if !ok {
			c.logger.Warn("no live price", "ticker", ticker, "close", obj["close"])
			continue
		}
		q := folio.Quote{Ticker: ticker, Price: folio.M(price, c.currency), AsOf: c.Today()}
		if ts, ok := obj["timestamp"].(float64); ok {
			q.AsOf = date.Of(time.Unix(int64(ts), 0).UTC())
		}
		out[ticker] = q
	}
	return out, nil
}

// sectorPath locates the sector in the fundamentals payload.
const sectorPath = "$.General.Sector"

// FetchSector returns the sector of ticker.
//
// When EODHD has no sector for it (an ETF for instance), the error wraps
// folio.ErrUnresolved.
func (c *Client) FetchSector(ctx context.Context, ticker string) (string, error) {
	// https://eodhd.com/api/fundamentals/AAPL.US?api_token=demo&fmt=json
	var jobj any
	err := jwget(ctx, c.monthly, c.url("/api/fundamentals/"+url.PathEscape(c.symbol(ticker)), nil), &jobj)
	if errors.Is(err, errNotFound) {
		return "", &folio.UnresolvedDataError{Ticker: ticker, What: "sector", Err: err}
	}
	if err != nil {
		return "", fmt.Errorf("sector of %s: %w", ticker, err)
	}
	jval, err := jsonpath.Get(sectorPath, jobj)
	if err != nil {
		return "", &folio.UnresolvedDataError{Ticker: ticker, What: "sector", Err: err}
	}
	// because jsonpath is never clear about wheter it returns a list of 1 answer, or a single answer:
	// by this call I keep the first one if any
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	sector, _ := jval.(string)
	if sector = strings.TrimSpace(sector); sector == "" {
		return "", &folio.UnresolvedDataError{Ticker: ticker, What: "sector"}
	}
	return sector, nil
}

var _ folio.MarketDataProvider = (*Client)(nil)
