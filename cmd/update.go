package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/folio/pipeline"
	"github.com/google/subcommands"
)

type updateCmd struct{}

func (*updateCmd) Name() string { return "update" }
func (*updateCmd) Synopsis() string {
	return "value the ledger positions with live quotes and write the dashboard"
}
func (*updateCmd) Usage() string {
	return `folio update

  Aggregates the ledger into positions, values them with the latest quotes from
  eodhd.com, and writes the valuation, summary and sector allocation tables to the
  "Dashboard" tab of the configured sink.
`
}
func (c *updateCmd) SetFlags(f *flag.FlagSet) {}
func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Println("no arguments expected")
		return subcommands.ExitUsageError
	}
	return execute(ctx, nil, (*pipeline.Runner).Dashboard)
}
