package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
)

// fakeLedger is an in memory folio.TransactionStore.
type fakeLedger struct {
	txs []folio.Transaction
	err error
}

func (l *fakeLedger) ReadAll(ctx context.Context) ([]folio.Transaction, error) { return l.txs, l.err }

// fakeConfig is an in memory folio.ConfigStore.
type fakeConfig struct {
	period  string
	tickers []string
}

func (c *fakeConfig) ReadPeriod(ctx context.Context) (string, error) { return c.period, nil }
func (c *fakeConfig) ReadTickers(ctx context.Context) ([]string, error) {
	return folio.NormalizeTickers(c.tickers), nil
}

// fakeMarket is an in memory folio.MarketDataProvider.
type fakeMarket struct {
	mu        sync.Mutex
	history   map[string]*date.History[float64]
	quotes    map[string]float64
	sectors   map[string]string
	quoteErr  error
	histErr   error
	lookbacks []date.Lookback
	sectorHit []string
}

func (m *fakeMarket) FetchHistory(ctx context.Context, tickers []string, period date.Lookback) (map[string]*date.History[float64], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookbacks = append(m.lookbacks, period)
	if m.histErr != nil {
		return nil, m.histErr
	}
	out := make(map[string]*date.History[float64])
	for _, t := range tickers {
		if h, ok := m.history[t]; ok {
			out[t] = h
		}
	}
	return out, nil
}

func (m *fakeMarket) FetchLatestQuote(ctx context.Context, tickers []string) (map[string]folio.Quote, error) {
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	out := make(map[string]folio.Quote)
	for _, t := range tickers {
		if p, ok := m.quotes[t]; ok {
			out[t] = folio.Quote{Ticker: t, Price: folio.M(p, "USD"), AsOf: date.MustParse("2025-06-02")}
		}
	}
	return out, nil
}

func (m *fakeMarket) FetchSector(ctx context.Context, ticker string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sectorHit = append(m.sectorHit, ticker)
	if s, ok := m.sectors[ticker]; ok {
		return s, nil
	}
	return "", &folio.UnresolvedDataError{Ticker: ticker, What: "sector"}
}

// series builds a price history starting on 2025-01-06, one value per day.
func series(values ...float64) *date.History[float64] {
	h := new(date.History[float64])
	on := date.MustParse("2025-01-06")
	for i, v := range values {
		h.Append(on.Add(i), v)
	}
	return h
}

// recordingSink records every call, failing on the configured location.
type recordingSink struct {
	mu     sync.Mutex
	calls  []string
	failOn string
}

func (s *recordingSink) Clear(ctx context.Context, region string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "clear "+region)
	return nil
}

func (s *recordingSink) WriteTable(ctx context.Context, location string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if location == s.failOn {
		return fmt.Errorf("%w: sink down", folio.ErrStoreUnavailable)
	}
	s.calls = append(s.calls, "write "+location)
	return nil
}
