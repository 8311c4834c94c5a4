package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/renderer"
	"golang.org/x/sync/errgroup"
)

// dashboard values the ledger positions with live quotes.
func (run *run) dashboard(ctx context.Context) (*output, error) {
	const name = "dashboard"
	defer run.metrics.Observe(name, time.Now())

	txs, err := run.Ledger.ReadAll(ctx)
	if err != nil {
		return nil, run.failed(name, err)
	}
	positions, err := folio.AggregatePositions(txs)
	if err != nil {
		return nil, run.failed(name, err)
	}
	tickers := make([]string, len(positions))
	for i, p := range positions {
		tickers[i] = p.Ticker
	}
	run.logger.Debug("positions aggregated", "transactions", len(txs), "positions", len(positions))

	quotes, err := run.Market.FetchLatestQuote(ctx, tickers)
	if err != nil {
		return nil, run.failed(name, err)
	}
	sectors, err := run.sectors(ctx, tickers)
	if err != nil {
		return nil, run.failed(name, err)
	}

	v := folio.Valuate(positions, quotes, sectors)
	allocs := folio.Allocate(v.Rows, sectors)
	for _, row := range v.Rows {
		if !row.Resolved {
			run.logger.Warn("unresolved position", "ticker", row.Ticker, "issue", row.Issue)
		}
	}
	run.metrics.Positions.Set(float64(len(positions)))
	run.metrics.Unresolved.WithLabelValues("quote").Set(float64(v.Unresolved()))
	run.metrics.MarketValue.Set(v.TotalMarketValue.AsFloat())
	run.logger.Info("dashboard computed",
		"positions", len(positions),
		"unresolved", v.Unresolved(),
		"market_value", v.TotalMarketValue.Fixed(run.currency),
		"pnl", v.TotalUnrealizedPnL.Fixed(run.currency))

	return &output{
		name:  name,
		clear: []string{DashboardTab},
		tables: []table{
			{ValuationLocation, renderer.ValuationTable(v, run.currency)},
			{SummaryLocation, renderer.SummaryTable(v, run.currency, run.now)},
			{SectorLocation, renderer.SectorTable(allocs, run.currency)},
		},
	}, nil
}

// sectors resolves the sector of each ticker, with a bounded number of concurrent
// lookups. Tickers whose lookup fails are left out and fall in folio.OtherSector.
func (run *run) sectors(ctx context.Context, tickers []string) (folio.Sectors, error) {
	sectors := make(folio.Sectors, len(tickers))
	var mu sync.Mutex
	unresolved := 0

	limit := run.SectorConcurrency
	if limit <= 0 {
		limit = DefaultSectorConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, ticker := range tickers {
		if sector, ok := run.Sectors[ticker]; ok && sector != "" {
			sectors[ticker] = sector
			continue
		}
		g.Go(func() error {
			sector, err := run.Market.FetchSector(gctx, ticker)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				unresolved++
				if errors.Is(err, folio.ErrUnresolved) {
					run.logger.Debug("no sector", "ticker", ticker, "err", err)
				} else {
					run.logger.Warn("sector lookup failed", "ticker", ticker, "err", err)
				}
				return nil
			}
			sectors[ticker] = sector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	run.metrics.Unresolved.WithLabelValues("sector").Set(float64(unresolved))
	return sectors, nil
}
