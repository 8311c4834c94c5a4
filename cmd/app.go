// Package cmd implements the folio command line application.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/folio"
	"github.com/etnz/folio/eodhd"
	"github.com/etnz/folio/metrics"
	"github.com/etnz/folio/pipeline"
	"github.com/etnz/folio/postgres"
	"github.com/etnz/folio/sink"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&updateCmd{}, "pipelines")
	c.Register(&correlateCmd{}, "pipelines")
	c.Register(&runCmd{}, "pipelines")

	c.Register(&initCmd{}, "setup")
	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "folio.yaml", "Path to the folio configuration file (YAML format)")
var verbose = flag.Bool("v", false, "Log debug messages")

// newLogger returns the text logger on stderr.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newMarket returns the market data provider of a run.
var newMarket = func(cfg *folio.Config, logger *slog.Logger) folio.MarketDataProvider {
	return eodhd.New(cfg.EODHD, cfg.Currency, logger)
}

// printMarkdown renders markdown for the terminal, or prints it raw if it cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(160))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// app holds the collaborators of a run, built from the configuration.
type app struct {
	cfg     *folio.Config
	runner  *pipeline.Runner
	sink    sink.Sink
	closers []func()
	logger  *slog.Logger
}

// openApp loads the configuration and opens every collaborator.
func openApp(ctx context.Context, cfg *folio.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	runner := &pipeline.Runner{
		Config:   cfg,
		Currency: cfg.Currency,
		Sectors:  cfg.Sectors,
		Metrics:  metrics.New(),
		Logger:   logger,
		Market:   newMarket(cfg, logger),
	}
	if cfg.EODHD.APIKey == "" {
		logger.Warn("no EODHD API key, set " + folio.APIKeyEnv)
	}

	switch cfg.Ledger.Type {
	case "postgres":
		l, err := postgres.Connect(ctx, cfg.Ledger.DSN, cfg.Currency)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, l.Close)
		runner.Ledger = l
	default:
		runner.Ledger = folio.LedgerFile{Path: cfg.Ledger.Path}
	}

	s, err := sink.Open(ctx, cfg.Sink, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	if md, ok := s.(*sink.Markdown); ok && cfg.Sink.Path == "" {
		md.Output = func(markdown string) error {
			printMarkdown(markdown)
			return nil
		}
	}
	a.sink = s
	runner.Sink = s
	a.runner = runner
	return a, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		c()
	}
}

// finish closes the sink, pushes the metrics if configured and releases the
// collaborators. It returns the first error of err and its own errors.
func (a *app) finish(ctx context.Context, err error) error {
	defer a.close()
	errs := []error{err}
	if a.sink != nil {
		errs = append(errs, a.sink.Close())
	}
	if url := a.cfg.Metrics.PushURL; url != "" {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if perr := a.runner.Metrics.Push(ctx, url, a.cfg.Metrics.Job); perr != nil {
			a.logger.Warn("metrics not pushed", "err", perr)
		}
	}
	return errors.Join(errs...)
}

// execute runs f on a freshly opened app, and reports the outcome as an exit status.
// f is one of the pipeline.Runner methods.
func execute(ctx context.Context, cfg *folio.Config, f func(*pipeline.Runner, context.Context) error) subcommands.ExitStatus {
	logger := newLogger()
	if cfg == nil {
		var err error
		if cfg, err = folio.LoadConfig(*configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitStatus(err)
		}
	}
	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitStatus(err)
	}
	if err := a.finish(ctx, f(a.runner, ctx)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitStatus(err)
	}
	return subcommands.ExitSuccess
}

// exitStatus maps an error to the command exit status.
// A configuration error is a usage error.
func exitStatus(err error) subcommands.ExitStatus {
	switch {
	case err == nil:
		return subcommands.ExitSuccess
	case errors.Is(err, folio.ErrConfiguration):
		return subcommands.ExitUsageError
	default:
		return subcommands.ExitFailure
	}
}
