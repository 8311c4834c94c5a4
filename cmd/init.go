package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/postgres"
	"github.com/google/subcommands"
)

// InitialHoldings seed a new ledger.
var InitialHoldings = []folio.Holding{
	{Ticker: "AMD", Quantity: folio.Q(1), Price: folio.M(204, "USD")},
	{Ticker: "AMZN", Quantity: folio.Q(1), Price: folio.M(230.5, "USD")},
	{Ticker: "BABA", Quantity: folio.Q(1), Price: folio.M(160, "USD")},
	{Ticker: "BAC", Quantity: folio.Q(5), Price: folio.M(55.44, "USD")},
	{Ticker: "EWJ", Quantity: folio.Q(1), Price: folio.M(84.07, "USD")},
	{Ticker: "GLDM", Quantity: folio.Q(1), Price: folio.M(100, "USD")},
	{Ticker: "GOOGL", Quantity: folio.Q(1), Price: folio.M(296.94, "USD")},
	{Ticker: "INDA", Quantity: folio.Q(6), Price: folio.M(56.289, "USD")},
	{Ticker: "KO", Quantity: folio.Q(22), Price: folio.M(69.629, "USD")},
	{Ticker: "NKE", Quantity: folio.Q(6), Price: folio.M(62.645, "USD")},
	{Ticker: "NVDA", Quantity: folio.Q(2), Price: folio.M(181.5, "USD")},
	{Ticker: "SPYM", Quantity: folio.Q(29), Price: folio.M(77.27, "USD")},
	{Ticker: "XAIX", Quantity: folio.Q(4), Price: folio.M(43.15, "USD")},
	{Ticker: "XLU", Quantity: folio.Q(8), Price: folio.M(44.066, "USD")},
}

type initCmd struct {
	ledger string
	dsn    string
	force  bool
	today  func() date.Date
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create a configuration and a ledger seeded with initial holdings" }
func (*initCmd) Usage() string {
	return `folio init [-ledger <file>] [-dsn <postgres dsn>] [-f]

  Writes a default configuration file, and a ledger holding one Buy transaction,
  dated today, per initial holding. With -dsn the ledger is a postgres table
  instead of a file.

  Existing files are kept unless -f is set.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "ledger.jsonl", "Path to the ledger file to create (.jsonl or .csv).")
	f.StringVar(&c.dsn, "dsn", "", "Postgres connection string, to seed a postgres ledger instead of a file.")
	f.BoolVar(&c.force, "f", false, "Overwrite existing files.")
}

func (c *initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Println("no arguments expected")
		return subcommands.ExitUsageError
	}
	if err := c.init(ctx, *configFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitStatus(err)
	}
	return subcommands.ExitSuccess
}

// init writes the configuration at path and seeds the ledger.
func (c *initCmd) init(ctx context.Context, path string) error {
	today := date.Today
	if c.today != nil {
		today = c.today
	}
	cfg := folio.DefaultConfig()
	txs := folio.Seed(today(), InitialHoldings)

	if !c.force {
		if err := notExist(path); err != nil {
			return err
		}
	}
	if c.dsn != "" {
		cfg.Ledger = folio.LedgerConfig{Type: "postgres", DSN: c.dsn}
		l, err := postgres.Connect(ctx, c.dsn, cfg.Currency)
		if err != nil {
			return err
		}
		defer l.Close()
		if err := l.Migrate(ctx); err != nil {
			return err
		}
		if err := l.Append(ctx, txs); err != nil {
			return err
		}
	} else {
		cfg.Ledger.Path = c.ledger
		if !c.force {
			if err := notExist(c.ledger); err != nil {
				return err
			}
		}
		if err := (folio.LedgerFile{Path: c.ledger}).Write(txs); err != nil {
			return err
		}
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("Successfully created %s with %d holdings\n", path, len(txs))
	return nil
}

// notExist returns an error if a file exists at path.
func notExist(path string) error {
	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	default:
		return fmt.Errorf("%w: %s already exists, use -f to overwrite it", folio.ErrConfiguration, path)
	}
}
