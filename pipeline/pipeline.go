// Package pipeline runs the folio batch: the valuation dashboard and the return
// correlation matrix, from the ledger and market data to the result sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/metrics"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

// Sink locations of the tables.
const (
	DashboardTab        = "Dashboard"
	ValuationLocation   = "Dashboard!A1"
	SummaryLocation     = "Dashboard!K1"
	SectorLocation      = "Dashboard!K9"
	CorrelationTab      = "Correlation Analysis"
	ConfigRegion        = "Correlation Analysis!A1:C50"
	ConfigLocation      = "Correlation Analysis!A1"
	CorrelationRegion   = "Correlation Analysis!E1:Z50"
	CorrelationLocation = "Correlation Analysis!E1"
)

// DefaultSectorConcurrency bounds the concurrent sector lookups.
const DefaultSectorConcurrency = 4

// Runner runs the pipelines with injected collaborators.
type Runner struct {
	Ledger folio.TransactionStore
	Config folio.ConfigStore
	Market folio.MarketDataProvider
	Sink   folio.ResultSink

	Currency string        // reporting currency, "USD" if empty
	Sectors  folio.Sectors // sectors known in advance, never fetched

	Metrics           *metrics.Metrics // optional
	Logger            *slog.Logger     // optional
	Now               func() time.Time // optional, stamps "Last Updated"
	SectorConcurrency int              // optional
}

// run holds the state of a single run.
type run struct {
	*Runner
	id       ulid.ULID
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      time.Time
	currency string
}

// output is what a pipeline writes: the cleared regions, then the tables.
type output struct {
	name   string
	clear  []string
	tables []table
}

type table struct {
	location string
	rows     [][]string
}

func (r *Runner) newRun() *run {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := r.Metrics
	if m == nil {
		m = metrics.New()
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	currency := r.Currency
	if currency == "" {
		currency = "USD"
	}
	id := ulid.Make()
	return &run{
		Runner:   r,
		id:       id,
		logger:   logger.With("run", id.String()),
		metrics:  m,
		now:      now(),
		currency: currency,
	}
}

// Dashboard computes the valuation dashboard and writes it.
func (r *Runner) Dashboard(ctx context.Context) error {
	run := r.newRun()
	out, err := run.dashboard(ctx)
	if err != nil {
		return err
	}
	return run.finish(ctx, out)
}

// Correlation computes the correlation matrix and writes it.
func (r *Runner) Correlation(ctx context.Context) error {
	run := r.newRun()
	out, err := run.correlation(ctx)
	if err != nil {
		return err
	}
	return run.finish(ctx, out)
}

// Run computes both pipelines concurrently, then writes the dashboard and the
// correlation matrix, in that order.
//
// Nothing is written if the ledger or the market data provider is unreachable. Any
// other error only aborts the affected pipeline, the other one is still written.
func (r *Runner) Run(ctx context.Context) error {
	run := r.newRun()
	run.logger.Info("run started")

	var dash, corr *output
	var dashErr, corrErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dash, dashErr = run.dashboard(gctx)
		if folio.IsRunFatal(dashErr) {
			return dashErr
		}
		return nil
	})
	g.Go(func() error {
		corr, corrErr = run.correlation(gctx)
		if folio.IsRunFatal(corrErr) {
			return corrErr
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		run.logger.Error("run aborted, nothing written", "err", err)
		return err
	}

	errs := []error{dashErr, corrErr}
	for _, out := range []*output{dash, corr} {
		if out == nil {
			continue
		}
		errs = append(errs, run.write(ctx, out))
	}
	err := errors.Join(errs...)
	if err == nil {
		run.metrics.LastSuccess.Set(float64(run.now.Unix()))
		run.logger.Info("run completed")
	}
	return err
}

// finish writes a single pipeline output.
func (run *run) finish(ctx context.Context, out *output) error {
	if err := run.write(ctx, out); err != nil {
		return err
	}
	run.metrics.LastSuccess.Set(float64(run.now.Unix()))
	return nil
}

// write clears the output regions and writes its tables.
func (run *run) write(ctx context.Context, out *output) error {
	for _, region := range out.clear {
		if err := run.Sink.Clear(ctx, region); err != nil {
			return fmt.Errorf("%s: clear %s: %w", out.name, region, err)
		}
	}
	for _, t := range out.tables {
		if err := run.Sink.WriteTable(ctx, t.location, t.rows); err != nil {
			return fmt.Errorf("%s: write %s: %w", out.name, t.location, err)
		}
		run.metrics.TablesWritten.Inc()
	}
	run.logger.Info("written", "pipeline", out.name, "tables", len(out.tables))
	return nil
}

// failed records a pipeline error.
func (run *run) failed(pipeline string, err error) error {
	run.metrics.PipelineErrors.WithLabelValues(pipeline).Inc()
	run.logger.Error("pipeline aborted", "pipeline", pipeline, "err", err)
	return fmt.Errorf("%s: %w", pipeline, err)
}
