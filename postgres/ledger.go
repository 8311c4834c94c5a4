// Package postgres reads the transaction ledger from a PostgreSQL table.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Schema creates the transactions table if needed.
const Schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id            BIGSERIAL PRIMARY KEY,
	date          DATE    NOT NULL,
	ticker        TEXT    NOT NULL,
	type          TEXT    NOT NULL,
	quantity      NUMERIC NOT NULL,
	unit_price    NUMERIC,
	total_capital NUMERIC,
	memo          TEXT    NOT NULL DEFAULT ''
);`

// Numerics are read as text, so that no precision is lost on the way to decimals.
const selectAll = `
SELECT date::text, ticker, type, quantity::text, unit_price::text, total_capital::text
FROM transactions
ORDER BY date, id`

const insertOne = `
INSERT INTO transactions (date, ticker, type, quantity, unit_price, total_capital, memo)
VALUES ($1::text::date, $2, $3, $4::text::numeric, $5::text::numeric, $6::text::numeric, $7)`

// Ledger is a folio.TransactionStore backed by PostgreSQL.
type Ledger struct {
	pool     *pgxpool.Pool
	currency string
}

// Connect creates a connection pool to the ledger database.
// Amounts are expressed in currency.
func Connect(ctx context.Context, dsn, currency string) (*Ledger, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse connection string: %w", folio.ErrConfiguration, err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %w", folio.ErrStoreUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping database: %w", folio.ErrStoreUnavailable, err)
	}
	return &Ledger{pool: pool, currency: currency}, nil
}

// Migrate creates the transactions table.
func (l *Ledger) Migrate(ctx context.Context) error {
	if _, err := l.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// ReadAll returns every transaction ordered by date, then insertion.
func (l *Ledger) ReadAll(ctx context.Context) ([]folio.Transaction, error) {
	rows, err := l.pool.Query(ctx, selectAll)
	if err != nil {
		return nil, fmt.Errorf("%w: query transactions: %w", folio.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var txs []folio.Transaction
	for rows.Next() {
		var r record
		if err := rows.Scan(&r.Date, &r.Ticker, &r.Type, &r.Quantity, &r.UnitPrice, &r.TotalCapital); err != nil {
			return nil, fmt.Errorf("%w: scan transaction %d: %w", folio.ErrDataShape, len(txs)+1, err)
		}
		tx, err := r.transaction(l.currency)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", len(txs)+1, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read transactions: %w", folio.ErrStoreUnavailable, err)
	}
	return txs, nil
}

// Append inserts transactions in a single batch.
func (l *Ledger) Append(ctx context.Context, txs []folio.Transaction) error {
	batch := &pgx.Batch{}
	for _, tx := range txs {
		batch.Queue(insertOne,
			tx.Date.String(), tx.Ticker, string(tx.Type),
			tx.Quantity.String(), tx.UnitPrice.Decimal().String(), tx.TotalCapital.Decimal().String(), tx.Memo)
	}
	br := l.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range txs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert transaction %d: %w", i+1, err)
		}
	}
	return nil
}

// Close closes the connection pool.
func (l *Ledger) Close() { l.pool.Close() }

// record is a transactions row, as text.
type record struct {
	Date         string
	Ticker       string
	Type         string
	Quantity     string
	UnitPrice    *string
	TotalCapital *string
}

// transaction converts the row. A missing total is quantity*price, a missing price
// is total/quantity.
func (r record) transaction(currency string) (folio.Transaction, error) {
	var tx folio.Transaction
	on, err := date.Parse(r.Date)
	if err != nil {
		return tx, fmt.Errorf("%w: %w", folio.ErrDataShape, err)
	}
	typ, err := folio.ParseTxType(r.Type)
	if err != nil {
		return tx, fmt.Errorf("%w: %w", folio.ErrDataShape, err)
	}
	ticker := folio.NormalizeTicker(r.Ticker)
	if ticker == "" {
		return tx, fmt.Errorf("%w: missing ticker", folio.ErrDataShape)
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(r.Quantity))
	if err != nil {
		return tx, fmt.Errorf("%w: quantity %q: %w", folio.ErrDataShape, r.Quantity, err)
	}
	price, hasPrice, err := optional(r.UnitPrice)
	if err != nil {
		return tx, fmt.Errorf("%w: unit_price: %w", folio.ErrDataShape, err)
	}
	total, hasTotal, err := optional(r.TotalCapital)
	if err != nil {
		return tx, fmt.Errorf("%w: total_capital: %w", folio.ErrDataShape, err)
	}
	switch {
	case !hasPrice && !hasTotal:
		return tx, fmt.Errorf("%w: %s on %s has neither price nor total", folio.ErrDataShape, ticker, on)
	case !hasTotal:
		total = price.Mul(qty)
	case !hasPrice && !qty.IsZero():
		price = total.Div(qty)
	}
	return folio.Transaction{
		Date:         on,
		Ticker:       ticker,
		Type:         typ,
		Quantity:     folio.Q(qty),
		UnitPrice:    folio.M(price, currency),
		TotalCapital: folio.M(total, currency),
	}, nil
}

func optional(s *string) (decimal.Decimal, bool, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*s))
	return d, err == nil, err
}

var _ folio.TransactionStore = (*Ledger)(nil)
