package folio

import (
	"context"

	"github.com/etnz/folio/date"
)

// TransactionStore gives access to the ledger of record.
type TransactionStore interface {
	// ReadAll returns every transaction in ledger order.
	// It fails with ErrStoreUnavailable if the store cannot be reached.
	ReadAll(ctx context.Context) ([]Transaction, error)
}

// ConfigStore holds the correlation run configuration.
type ConfigStore interface {
	// ReadPeriod returns the raw history period expression (e.g. "1y").
	ReadPeriod(ctx context.Context) (string, error)
	// ReadTickers returns the tickers to correlate, deduplicated, in configured order.
	ReadTickers(ctx context.Context) ([]string, error)
}

// MarketDataProvider gives access to market prices and security metadata.
type MarketDataProvider interface {
	// FetchHistory returns the daily close prices of each ticker over the lookback.
	// Tickers without data are absent from the result.
	FetchHistory(ctx context.Context, tickers []string, period date.Lookback) (map[string]*date.History[float64], error)
	// FetchLatestQuote returns the latest price of each ticker.
	// Tickers without a quote are absent from the result.
	FetchLatestQuote(ctx context.Context, tickers []string) (map[string]Quote, error)
	// FetchSector returns the sector of a single ticker.
	FetchSector(ctx context.Context, ticker string) (string, error)
}

// ResultSink receives the rendered tables. It is write only.
//
// Locations and regions use the A1 notation prefixed by a tab name: "Dashboard!A1",
// "Correlation Analysis!E1:Z50", or just "Dashboard" for the whole tab.
type ResultSink interface {
	Clear(ctx context.Context, region string) error
	WriteTable(ctx context.Context, location string, rows [][]string) error
}
