package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/pipeline"
	"github.com/google/subcommands"
)

type correlateCmd struct {
	period  string
	tickers string
}

func (*correlateCmd) Name() string { return "correlate" }
func (*correlateCmd) Synopsis() string {
	return "compute the correlation matrix of daily returns"
}
func (*correlateCmd) Usage() string {
	return `folio correlate [-p <period>] [-t <tickers>]

  Fetches the daily close prices of the configured tickers over the period, and
  writes the Pearson correlation matrix of their daily returns to the
  "Correlation Analysis" tab of the configured sink.

  Periods are <n>d, <n>mo, <n>y, ytd or max.
`
}

func (c *correlateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "p", "", "History period, overrides the configuration.")
	f.StringVar(&c.tickers, "t", "", "Comma separated tickers, overrides the configuration.")
}

func (c *correlateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Println("no arguments expected")
		return subcommands.ExitUsageError
	}
	cfg, err := folio.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitStatus(err)
	}
	c.override(cfg)
	return execute(ctx, cfg, (*pipeline.Runner).Correlation)
}

// override applies the command line flags on top of cfg.
func (c *correlateCmd) override(cfg *folio.Config) {
	if c.period != "" {
		cfg.Correlation.Period = c.period
	}
	if c.tickers != "" {
		cfg.Correlation.Tickers = strings.Split(c.tickers, ",")
	}
}
