package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/folio/pipeline"
	"github.com/google/subcommands"
)

type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run the dashboard and the correlation pipelines" }
func (*runCmd) Usage() string {
	return `folio run

  Computes the dashboard and the correlation matrix concurrently, then writes
  both, the dashboard first. Nothing is written if the ledger or eodhd.com
  cannot be reached.
`
}
func (c *runCmd) SetFlags(f *flag.FlagSet) {}
func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Println("no arguments expected")
		return subcommands.ExitUsageError
	}
	return execute(ctx, nil, (*pipeline.Runner).Run)
}
