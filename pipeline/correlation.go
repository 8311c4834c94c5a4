package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/correlation"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/renderer"
)

// Bounds of the number of tickers to correlate. MaxTickers keeps the matrix within
// CorrelationRegion (E to Z) and the configuration within ConfigRegion, so that the
// next run clears all of them.
const (
	MinTickers = 2
	MaxTickers = 21
)

// lookback returns the configured history window, or the default one when it is
// missing or invalid.
func (run *run) lookback(ctx context.Context) (date.Lookback, error) {
	raw, err := run.Config.ReadPeriod(ctx)
	if err != nil {
		return date.Lookback{}, err
	}
	if raw == "" {
		return date.DefaultLookback, nil
	}
	lookback, err := date.ParseLookback(raw)
	if err != nil {
		run.logger.Warn("invalid period, using default",
			"period", raw, "default", date.DefaultLookback, "err", fmt.Errorf("%w: %w", folio.ErrConfiguration, err))
	}
	return lookback, nil
}

// correlation correlates the daily returns of the configured tickers.
func (run *run) correlation(ctx context.Context) (*output, error) {
	const name = "correlation"
	defer run.metrics.Observe(name, time.Now())

	lookback, err := run.lookback(ctx)
	if err != nil {
		return nil, run.failed(name, err)
	}
	tickers, err := run.Config.ReadTickers(ctx)
	if err != nil {
		return nil, run.failed(name, err)
	}
	if len(tickers) < MinTickers {
		return nil, run.failed(name, fmt.Errorf("%w: need at least %d tickers, got %d", folio.ErrConfiguration, MinTickers, len(tickers)))
	}
	if len(tickers) > MaxTickers {
		return nil, run.failed(name, fmt.Errorf("%w: at most %d tickers can be correlated, got %d", folio.ErrConfiguration, MaxTickers, len(tickers)))
	}
	run.logger.Info("analyzing", "tickers", len(tickers), "period", lookback)

	raw, err := run.Market.FetchHistory(ctx, tickers, lookback)
	if err != nil {
		return nil, run.failed(name, err)
	}
	aligned := correlation.Align(tickers, raw)
	if len(aligned.Dropped) > 0 {
		run.logger.Warn("tickers without history", "tickers", aligned.Dropped)
	}
	if len(aligned.Tickers) == 0 {
		return nil, run.failed(name, fmt.Errorf("%w: no price history for any of %v", folio.ErrDataShape, tickers))
	}
	m := correlation.NewMatrix(aligned.Tickers, correlation.Returns(aligned))
	run.metrics.TickersCorrelated.Set(float64(m.Len()))
	run.metrics.TickersDropped.Set(float64(len(aligned.Dropped)))
	run.logger.Info("correlation computed", "tickers", m.Len(), "dates", len(aligned.Dates))

	return &output{
		name:  name,
		clear: []string{ConfigRegion, CorrelationRegion},
		tables: []table{
			{ConfigLocation, configTable(lookback, tickers)},
			{CorrelationLocation, renderer.CorrelationTable(m)},
		},
	}, nil
}

// configTable echoes the effective configuration of the correlation.
func configTable(lookback date.Lookback, tickers []string) [][]string {
	rows := [][]string{
		{"CONFIGURATION", ""},
		{"Time Period", lookback.String()},
		{"Tickers to Analyze", ""},
	}
	for _, t := range tickers {
		rows = append(rows, []string{t, ""})
	}
	return rows
}
